package relay

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// NopActuator 不接触硬件，只记录状态与日志（开发环境/非树莓派主机）
type NopActuator struct {
	logger *zap.Logger

	mu    sync.Mutex
	state map[int]bool
}

// NewNopActuator 创建空执行器
func NewNopActuator(logger *zap.Logger) *NopActuator {
	return &NopActuator{logger: logger, state: make(map[int]bool)}
}

func (n *NopActuator) Activate(pin int) error {
	return n.set(pin, true)
}

func (n *NopActuator) Deactivate(pin int) error {
	return n.set(pin, false)
}

func (n *NopActuator) set(pin int, on bool) error {
	if !ValidPin(pin) {
		return fmt.Errorf("%w: %d", ErrUnknownPin, pin)
	}

	n.mu.Lock()
	n.state[pin] = on
	n.mu.Unlock()

	n.logger.Info("模拟继电器写入", zap.Int("pin", pin), zap.Bool("on", on))
	return nil
}

// State 返回引脚最后一次写入的状态
func (n *NopActuator) State(pin int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state[pin]
}

func (n *NopActuator) Close() error { return nil }

package relay

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gobot.io/x/gobot/v2/drivers/gpio"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

// GobotActuator 通过 gobot raspi 适配器驱动继电器模块
type GobotActuator struct {
	adaptor   *raspi.Adaptor
	activeLow bool
	logger    *zap.Logger

	mu     sync.Mutex
	relays map[int]*gpio.RelayDriver
}

// NewGobotActuator 连接树莓派 GPIO
func NewGobotActuator(activeLow bool, logger *zap.Logger) (*GobotActuator, error) {
	adaptor := raspi.NewAdaptor()
	if err := adaptor.Connect(); err != nil {
		return nil, fmt.Errorf("连接 GPIO 失败: %w", err)
	}

	logger.Info("GPIO 已连接", zap.Bool("active_low", activeLow))

	return &GobotActuator{
		adaptor:   adaptor,
		activeLow: activeLow,
		logger:    logger,
		relays:    make(map[int]*gpio.RelayDriver),
	}, nil
}

// Activate 闭合继电器
func (g *GobotActuator) Activate(pin int) error {
	return g.write(pin, true)
}

// Deactivate 断开继电器
func (g *GobotActuator) Deactivate(pin int) error {
	return g.write(pin, false)
}

func (g *GobotActuator) write(pin int, on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	driver, err := g.driver(pin)
	if err != nil {
		return err
	}

	// 低电平触发的模块需要反向输出
	level := on != g.activeLow
	if level {
		err = driver.On()
	} else {
		err = driver.Off()
	}
	if err != nil {
		return fmt.Errorf("写入 GPIO%d 失败: %w", pin, err)
	}

	g.logger.Info("继电器状态已写入", zap.Int("pin", pin), zap.Bool("on", on))
	return nil
}

// driver 懒加载每个引脚的 RelayDriver，调用方需持有锁
func (g *GobotActuator) driver(pin int) (*gpio.RelayDriver, error) {
	if d, ok := g.relays[pin]; ok {
		return d, nil
	}

	header, err := HeaderPin(pin)
	if err != nil {
		return nil, err
	}

	d := gpio.NewRelayDriver(g.adaptor, header)
	if err := d.Start(); err != nil {
		return nil, fmt.Errorf("初始化 GPIO%d 失败: %w", pin, err)
	}
	g.relays[pin] = d
	return d, nil
}

// Close 停止所有驱动并释放适配器
func (g *GobotActuator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for pin, d := range g.relays {
		if err := d.Halt(); err != nil {
			g.logger.Warn("停止继电器驱动失败", zap.Int("pin", pin), zap.Error(err))
		}
	}
	g.relays = make(map[int]*gpio.RelayDriver)

	return g.adaptor.Finalize()
}

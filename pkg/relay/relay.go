// Package relay 驱动浇水阀门继电器
//
// 业务层只依赖 Actuator 接口；树莓派上使用 gobot 的 raspi 适配器，
// 开发机与测试使用 NopActuator。引脚统一采用 BCM 编号。
package relay

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"smart-watering/config"
)

// ErrUnknownPin 非法的 BCM 引脚号
var ErrUnknownPin = errors.New("unknown BCM pin")

// Actuator 继电器执行器
type Actuator interface {
	// Activate 闭合继电器（开始浇水）
	Activate(pin int) error
	// Deactivate 断开继电器（停止浇水）
	Deactivate(pin int) error
	// Close 释放硬件资源
	Close() error
}

// 40 针排针：BCM 编号 → 物理引脚号（gobot raspi 适配器按物理引脚寻址）
var bcmToHeader = map[int]string{
	0: "27", 1: "28", 2: "3", 3: "5", 4: "7", 5: "29", 6: "31", 7: "26",
	8: "24", 9: "21", 10: "19", 11: "23", 12: "32", 13: "33", 14: "8", 15: "10",
	16: "36", 17: "11", 18: "12", 19: "35", 20: "38", 21: "40", 22: "15", 23: "16",
	24: "18", 25: "22", 26: "37", 27: "13",
}

// ValidPin 判断是否为可用的 BCM 引脚
func ValidPin(pin int) bool {
	_, ok := bcmToHeader[pin]
	return ok
}

// HeaderPin 返回 BCM 引脚对应的物理引脚号
func HeaderPin(pin int) (string, error) {
	header, ok := bcmToHeader[pin]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownPin, pin)
	}
	return header, nil
}

// New 按配置创建执行器
func New(cfg *config.GPIOConfig, logger *zap.Logger) (Actuator, error) {
	switch cfg.Driver {
	case "raspi":
		a, err := NewGobotActuator(cfg.ActiveLow, logger)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "noop", "":
		return NewNopActuator(logger), nil
	default:
		return nil, fmt.Errorf("不支持的 GPIO 驱动: %s", cfg.Driver)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smart-watering/internal/dto"
	"smart-watering/internal/model"
	"smart-watering/internal/repository"
	pkgerrors "smart-watering/pkg/errors"
	"smart-watering/pkg/relay"
)

// ── 设备模块业务错误 ──

var (
	ErrDeviceNotFound       = errors.New("device not found")
	ErrInvalidRelayPort     = errors.New("relay_port must be a BCM pin between 0 and 27")
	ErrRelayPortInUse       = errors.New("relay_port is already assigned to another device")
	ErrDeviceRunning        = errors.New("device is running, stop it before changing its relay")
	ErrDeviceStateConflict  = errors.New("device state was changed by a concurrent request")
	ErrRelayFailed          = errors.New("failed to drive relay")
	ErrHardwareInconsistent = errors.New("relay was driven but the new state could not be saved")
)

// DeviceService 设备业务接口
type DeviceService interface {
	List(ctx context.Context) ([]dto.DeviceResponse, error)
	GetByID(ctx context.Context, id int) (*dto.DeviceResponse, error)
	Create(ctx context.Context, req *dto.CreateDeviceRequest) (*dto.DeviceResponse, error)
	Update(ctx context.Context, id int, req *dto.UpdateDeviceRequest) (*dto.DeviceResponse, error)
	Delete(ctx context.Context, id int) error
	// Toggle 切换运行状态：先驱动继电器，再以条件更新写入新状态
	Toggle(ctx context.Context, id int) (*dto.ToggleResponse, error)
	// ResetRelays 断开所有继电器并清除运行标记（启动与退出时调用）
	ResetRelays(ctx context.Context) error
}

type deviceService struct {
	repo     *repository.Repository
	actuator relay.Actuator
	logger   *zap.Logger
}

// NewDeviceService 创建 DeviceService 实例
func NewDeviceService(repo *repository.Repository, actuator relay.Actuator, logger *zap.Logger) DeviceService {
	return &deviceService{repo: repo, actuator: actuator, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *deviceService) List(ctx context.Context) ([]dto.DeviceResponse, error) {
	devices, err := s.repo.Device.List(ctx)
	if err != nil {
		s.logger.Error("列出设备失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DeviceResponse, 0, len(devices))
	for i := range devices {
		result = append(result, *toDeviceResponse(&devices[i]))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *deviceService) GetByID(ctx context.Context, id int) (*dto.DeviceResponse, error) {
	device, err := s.getDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDeviceResponse(device), nil
}

// ────────────────────── Create ──────────────────────

func (s *deviceService) Create(ctx context.Context, req *dto.CreateDeviceRequest) (*dto.DeviceResponse, error) {
	port := *req.RelayPort
	if err := s.checkRelayPort(ctx, port, 0); err != nil {
		return nil, err
	}

	color := req.Color
	if color == "" {
		color = model.DefaultDeviceColor
	}

	device := &model.Device{
		Name:      req.Name,
		RelayPort: port,
		IsRunning: false,
		Color:     color,
	}
	if err := s.repo.Device.Create(ctx, device); err != nil {
		s.logger.Error("创建设备失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("设备已创建", zap.Int("id", device.ID), zap.Int("relay_port", port))
	return toDeviceResponse(device), nil
}

// ────────────────────── Update ──────────────────────

func (s *deviceService) Update(ctx context.Context, id int, req *dto.UpdateDeviceRequest) (*dto.DeviceResponse, error) {
	device, err := s.getDevice(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RelayPort != nil && *req.RelayPort != device.RelayPort {
		if device.IsRunning {
			return nil, ErrDeviceRunning
		}
		if err := s.checkRelayPort(ctx, *req.RelayPort, id); err != nil {
			return nil, err
		}
		device.RelayPort = *req.RelayPort
	}
	if req.Name != nil {
		device.Name = *req.Name
	}
	if req.Color != nil {
		device.Color = *req.Color
	}

	if err := s.repo.Device.Update(ctx, device); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		s.logger.Error("更新设备失败", zap.Int("id", id), zap.Error(err))
		return nil, err
	}

	return toDeviceResponse(device), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除设备及其全部计划；运行中的设备先断开继电器
func (s *deviceService) Delete(ctx context.Context, id int) error {
	device, err := s.getDevice(ctx, id)
	if err != nil {
		return err
	}

	if device.IsRunning {
		if err := s.actuator.Deactivate(device.RelayPort); err != nil {
			s.logger.Error("删除前断开继电器失败", zap.Int("id", id), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrRelayFailed, err)
		}
	}

	if err := s.repo.Device.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeviceNotFound
		}
		s.logger.Error("删除设备失败", zap.Int("id", id), zap.Error(err))
		if device.IsRunning {
			// 库中仍记录为运行中，恢复继电器
			if rerr := s.actuator.Activate(device.RelayPort); rerr != nil {
				s.logger.Error("恢复继电器失败", zap.Int("id", id), zap.Error(rerr))
				return fmt.Errorf("%w: %w", ErrHardwareInconsistent, err)
			}
		}
		return err
	}

	s.logger.Info("设备已删除", zap.Int("id", id))
	return nil
}

// ═══════════════════════════════════════════════════════════
// Toggle 切换继电器
// ═══════════════════════════════════════════════════════════
//
// 1. 读取当前状态 old
// 2. 驱动继电器到 !old；失败则不写库，返回 ErrRelayFailed
// 3. UPDATE ... WHERE is_running = old
//    - 未命中：并发请求已改变状态，继电器按库中最新状态重新驱动，返回 ErrDeviceStateConflict
//    - 写库失败：继电器回退到 old，返回 ErrHardwareInconsistent

func (s *deviceService) Toggle(ctx context.Context, id int) (*dto.ToggleResponse, error) {
	device, err := s.getDevice(ctx, id)
	if err != nil {
		return nil, err
	}

	from := device.IsRunning
	to := !from

	if err := s.drive(device.RelayPort, to); err != nil {
		s.logger.Error("驱动继电器失败",
			zap.Int("id", id), zap.Int("relay_port", device.RelayPort), zap.Bool("on", to), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRelayFailed, err)
	}

	if err := s.repo.Device.SetRunning(ctx, id, from, to); err != nil {
		if errors.Is(err, pkgerrors.ErrStaleState) {
			s.resync(ctx, device)
			return nil, ErrDeviceStateConflict
		}

		s.logger.Error("继电器已动作但状态写入失败",
			zap.Int("id", id), zap.Int("relay_port", device.RelayPort), zap.Bool("on", to), zap.Error(err))
		if rerr := s.drive(device.RelayPort, from); rerr != nil {
			s.logger.Error("回退继电器失败", zap.Int("relay_port", device.RelayPort), zap.Error(rerr))
		}
		return nil, fmt.Errorf("%w: %w", ErrHardwareInconsistent, err)
	}

	s.logger.Info("设备状态已切换", zap.Int("id", id), zap.Int("relay_port", device.RelayPort), zap.Bool("is_running", to))
	return &dto.ToggleResponse{ID: id, Name: device.Name, IsRunning: to}, nil
}

// resync 按库中最新状态重新驱动继电器
func (s *deviceService) resync(ctx context.Context, device *model.Device) {
	current, err := s.repo.Device.GetByID(ctx, device.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 设备已被并发删除
			if derr := s.actuator.Deactivate(device.RelayPort); derr != nil {
				s.logger.Error("断开继电器失败", zap.Int("relay_port", device.RelayPort), zap.Error(derr))
			}
			return
		}
		s.logger.Error("冲突后读取设备失败", zap.Int("id", device.ID), zap.Error(err))
		return
	}
	if err := s.drive(current.RelayPort, current.IsRunning); err != nil {
		s.logger.Error("冲突后同步继电器失败", zap.Int("relay_port", current.RelayPort), zap.Error(err))
	}
}

// ────────────────────── ResetRelays ──────────────────────

func (s *deviceService) ResetRelays(ctx context.Context) error {
	devices, err := s.repo.Device.List(ctx)
	if err != nil {
		s.logger.Error("列出设备失败", zap.Error(err))
		return err
	}

	var errs []error
	for _, d := range devices {
		if err := s.actuator.Deactivate(d.RelayPort); err != nil {
			s.logger.Warn("断开继电器失败", zap.Int("id", d.ID), zap.Int("relay_port", d.RelayPort), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if err := s.repo.Device.ResetRunning(ctx); err != nil {
		s.logger.Error("重置运行状态失败", zap.Error(err))
		errs = append(errs, err)
	}

	s.logger.Info("继电器已全部复位", zap.Int("devices", len(devices)))
	return errors.Join(errs...)
}

// ── 内部辅助 ──

func (s *deviceService) getDevice(ctx context.Context, id int) (*model.Device, error) {
	device, err := s.repo.Device.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		s.logger.Error("查询设备失败", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return device, nil
}

func (s *deviceService) checkRelayPort(ctx context.Context, port, excludeID int) error {
	if !relay.ValidPin(port) {
		return ErrInvalidRelayPort
	}
	exists, err := s.repo.Device.ExistsByRelayPort(ctx, port, excludeID)
	if err != nil {
		s.logger.Error("检查继电器端口失败", zap.Int("relay_port", port), zap.Error(err))
		return err
	}
	if exists {
		return ErrRelayPortInUse
	}
	return nil
}

func (s *deviceService) drive(pin int, on bool) error {
	if on {
		return s.actuator.Activate(pin)
	}
	return s.actuator.Deactivate(pin)
}

func toDeviceResponse(d *model.Device) *dto.DeviceResponse {
	return &dto.DeviceResponse{
		ID:        d.ID,
		Name:      d.Name,
		RelayPort: d.RelayPort,
		IsRunning: d.IsRunning,
		Color:     d.Color,
	}
}

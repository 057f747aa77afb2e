package repository

import (
	"context"

	"gorm.io/gorm"

	"smart-watering/internal/model"
	pkgerrors "smart-watering/pkg/errors"
)

// DeviceRepository 设备数据访问接口
type DeviceRepository interface {
	Create(ctx context.Context, device *model.Device) error
	GetByID(ctx context.Context, id int) (*model.Device, error)
	List(ctx context.Context) ([]model.Device, error)
	ExistsByRelayPort(ctx context.Context, relayPort int, excludeID int) (bool, error)
	Update(ctx context.Context, device *model.Device) error
	Delete(ctx context.Context, id int) error
	// SetRunning 条件更新运行状态：仅当当前值等于 from 时写入 to
	SetRunning(ctx context.Context, id int, from, to bool) error
	ResetRunning(ctx context.Context) error
}

type deviceRepo struct {
	db *gorm.DB
}

// NewDeviceRepo 创建 DeviceRepository 实例
func NewDeviceRepo(db *gorm.DB) DeviceRepository {
	return &deviceRepo{db: db}
}

func (r *deviceRepo) Create(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Create(device).Error
}

func (r *deviceRepo) GetByID(ctx context.Context, id int) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepo) List(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&devices).Error
	return devices, err
}

func (r *deviceRepo) ExistsByRelayPort(ctx context.Context, relayPort int, excludeID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("relay_port = ? AND id <> ?", relayPort, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *deviceRepo) Update(ctx context.Context, device *model.Device) error {
	result := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", device.ID).
		Updates(map[string]interface{}{
			"name":       device.Name,
			"relay_port": device.RelayPort,
			"color":      device.Color,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *deviceRepo) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Device{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *deviceRepo) SetRunning(ctx context.Context, id int, from, to bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ? AND is_running = ?", id, from).
		Update("is_running", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleState
	}
	return nil
}

func (r *deviceRepo) ResetRunning(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("is_running = ?", true).
		Update("is_running", false).Error
}

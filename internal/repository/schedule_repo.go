package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"smart-watering/internal/model"
)

// ScheduleRepository 浇水计划数据访问接口
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id int) (*model.Schedule, error)
	// ListSince 按开始时间倒序列出计划（含设备）；since 为 nil 时不过滤
	ListSince(ctx context.Context, since *time.Time) ([]model.Schedule, error)
	Update(ctx context.Context, schedule *model.Schedule) error
	Delete(ctx context.Context, id int) error
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, id int) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Joins("Device").
		Where("schedule.id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) ListSince(ctx context.Context, since *time.Time) ([]model.Schedule, error) {
	var schedules []model.Schedule
	db := r.db.WithContext(ctx).InnerJoins("Device")
	if since != nil {
		db = db.Where("schedule.start_date >= ?", since.UTC())
	}
	err := db.Order("schedule.start_date DESC").
		Order("schedule.id DESC").
		Find(&schedules).Error
	return schedules, err
}

// Update 整体替换时间/设备/频率字段，不修改 id 与 status
func (r *scheduleRepo) Update(ctx context.Context, schedule *model.Schedule) error {
	result := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("id = ?", schedule.ID).
		Updates(map[string]interface{}{
			"start_date":         schedule.StartDate,
			"end_date":           schedule.EndDate,
			"fk_device_schedule": schedule.DeviceID,
			"duration":           schedule.Duration,
			"frequency":          schedule.Frequency,
			"interval":           schedule.Interval,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 硬删除
func (r *scheduleRepo) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Schedule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package model

import "time"

// 计划状态
const (
	ScheduleStatusPending = "pending"
)

// Schedule 浇水计划表（单次事件），对应 schedule
type Schedule struct {
	ID        int       `gorm:"primaryKey;autoIncrement"                      json:"id"`
	StartDate time.Time `gorm:"not null;index:idx_schedule_start_date"        json:"start_date"`
	EndDate   time.Time `gorm:"not null"                                      json:"end_date"`
	Duration  Interval  `gorm:"not null"                                      json:"duration"`
	DeviceID  int       `gorm:"column:fk_device_schedule;not null;index"      json:"device_id"`
	Frequency *string   `gorm:"type:varchar(10)"                              json:"frequency,omitempty"` // daily | weekly | monthly | yearly
	Interval  *int      `gorm:"column:interval"                               json:"interval,omitempty"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'"   json:"status"`

	// 关联
	Device *Device `gorm:"foreignKey:DeviceID;references:ID;constraint:OnDelete:CASCADE" json:"device,omitempty"`
}

func (Schedule) TableName() string { return "schedule" }

package model

// DefaultDeviceColor 日历中设备的默认颜色
const DefaultDeviceColor = "#007bff"

// Device 浇水设备表，对应 device
type Device struct {
	ID        int    `gorm:"primaryKey;autoIncrement"                   json:"id"`
	Name      string `gorm:"type:varchar(100);not null"                 json:"name"`
	RelayPort int    `gorm:"not null;uniqueIndex:uq_device_relay_port"  json:"relay_port"` // BCM 引脚号
	IsRunning bool   `gorm:"not null;default:false"                     json:"is_running"`
	Color     string `gorm:"type:varchar(20);not null;default:'#007bff'" json:"color"`
}

func (Device) TableName() string { return "device" }

package handler

import "smart-watering/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Device   *DeviceHandler
	Schedule *ScheduleHandler
	Export   *ExportHandler
	Health   *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, store Pinger) *Handler {
	return &Handler{
		Device:   NewDeviceHandler(svc.Device),
		Schedule: NewScheduleHandler(svc.Schedule),
		Export:   NewExportHandler(svc.Export),
		Health:   NewHealthHandler(store),
	}
}

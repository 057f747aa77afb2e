package service

import (
	"go.uber.org/zap"

	"smart-watering/config"
	"smart-watering/internal/repository"
	"smart-watering/pkg/recurrence"
	"smart-watering/pkg/relay"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Device   DeviceService
	Schedule ScheduleService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	actuator relay.Actuator,
	logger *zap.Logger,
) (*Service, error) {
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}
	expander := recurrence.NewExpander(loc, cfg.Schedule.MaxOccurrences)

	return &Service{
		Device:   NewDeviceService(repo, actuator, logger),
		Schedule: NewScheduleService(repo, expander, cfg.Schedule.LookbackMonths, logger),
		Export:   NewExportService(repo, loc, logger),
	}, nil
}

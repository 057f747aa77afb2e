package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smart-watering/internal/dto"
	"smart-watering/internal/model"
	"smart-watering/internal/repository"
	"smart-watering/pkg/recurrence"
)

// ── 浇水计划模块业务错误 ──

var (
	ErrScheduleNotFound       = errors.New("schedule not found")
	ErrScheduleDeviceNotFound = errors.New("device referenced by the schedule does not exist")
	ErrInvalidStartDate       = errors.New("start_date must be YYYY-MM-DD, YYYY-MM-DDTHH:MM[:SS] or RFC3339")
	ErrInvalidEndDate         = errors.New("end_date must be YYYY-MM-DD, YYYY-MM-DDTHH:MM[:SS] or RFC3339")
)

// 请求校验类错误（不触达存储）
var validationErrors = []error{
	ErrInvalidStartDate,
	ErrInvalidEndDate,
	recurrence.ErrInvalidFrequency,
	recurrence.ErrInvalidInterval,
	recurrence.ErrInvalidCount,
	recurrence.ErrInvalidDuration,
	recurrence.ErrInvalidWeekday,
	recurrence.ErrWeekdayRequiresWeekly,
	recurrence.ErrUnbounded,
	recurrence.ErrUntilBeforeStart,
	recurrence.ErrTooManyOccurrences,
	recurrence.ErrInvalidTimeOfDay,
}

// IsValidationError 判断错误是否属于请求校验失败
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ScheduleService 浇水计划业务接口
type ScheduleService interface {
	// List 回看窗口内的计划（默认一个月），按开始时间倒序
	List(ctx context.Context) ([]dto.ScheduleView, error)
	// ListAll 全部计划，附带设备颜色
	ListAll(ctx context.Context) ([]dto.ScheduleView, error)
	// Generate 展开重复规则并在单个事务内批量写入
	Generate(ctx context.Context, req *dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	// Preview 只展开不写入
	Preview(ctx context.Context, req *dto.GenerateScheduleRequest) (*dto.PreviewScheduleResponse, error)
	Create(ctx context.Context, req *dto.ScheduleRequest) (*dto.ScheduleView, error)
	Update(ctx context.Context, id int, req *dto.ScheduleRequest) (*dto.ScheduleView, error)
	Delete(ctx context.Context, id int) error
}

type scheduleService struct {
	repo           *repository.Repository
	expander       *recurrence.Expander
	lookbackMonths int
	now            func() time.Time
	logger         *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(
	repo *repository.Repository,
	expander *recurrence.Expander,
	lookbackMonths int,
	logger *zap.Logger,
) ScheduleService {
	return &scheduleService{
		repo:           repo,
		expander:       expander,
		lookbackMonths: lookbackMonths,
		now:            time.Now,
		logger:         logger,
	}
}

// ────────────────────── List / ListAll ──────────────────────

func (s *scheduleService) List(ctx context.Context) ([]dto.ScheduleView, error) {
	since := s.windowStart()
	schedules, err := s.repo.Schedule.ListSince(ctx, &since)
	if err != nil {
		s.logger.Error("查询计划失败", zap.Time("since", since), zap.Error(err))
		return nil, err
	}
	return s.toViews(schedules, false), nil
}

func (s *scheduleService) ListAll(ctx context.Context) ([]dto.ScheduleView, error) {
	schedules, err := s.repo.Schedule.ListSince(ctx, nil)
	if err != nil {
		s.logger.Error("查询全部计划失败", zap.Error(err))
		return nil, err
	}
	return s.toViews(schedules, true), nil
}

// windowStart 参考时区当日零点往前回看 lookbackMonths 个月
func (s *scheduleService) windowStart() time.Time {
	loc := s.expander.Location()
	today := s.now().In(loc)
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	return midnight.AddDate(0, -s.lookbackMonths, 0)
}

// ═══════════════════════════════════════════════════════════
// Generate 展开并批量写入
// ═══════════════════════════════════════════════════════════

func (s *scheduleService) Generate(ctx context.Context, req *dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	rule, err := s.buildRule(req)
	if err != nil {
		return nil, err
	}
	occurrences, err := s.expander.Expand(rule)
	if err != nil {
		return nil, err
	}

	if _, err := s.getDevice(ctx, req.DeviceID); err != nil {
		return nil, err
	}

	freq := string(rule.Frequency)
	interval := rule.Interval
	created, err := s.persist(ctx, req.DeviceID, occurrences, &freq, &interval)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(created))
	for i := range created {
		ids = append(ids, created[i].ID)
	}

	s.logger.Info("重复计划已生成",
		zap.Int("device_id", req.DeviceID), zap.String("frequency", freq), zap.Int("count", len(ids)))
	return &dto.GenerateScheduleResponse{Count: len(ids), ScheduleIDs: ids}, nil
}

// ────────────────────── Preview ──────────────────────

func (s *scheduleService) Preview(ctx context.Context, req *dto.GenerateScheduleRequest) (*dto.PreviewScheduleResponse, error) {
	rule, err := s.buildRule(req)
	if err != nil {
		return nil, err
	}
	occurrences, err := s.expander.Expand(rule)
	if err != nil {
		return nil, err
	}

	loc := s.expander.Location()
	result := make([]dto.OccurrenceResponse, 0, len(occurrences))
	for _, o := range occurrences {
		result = append(result, dto.OccurrenceResponse{
			Start:           o.Start.In(loc).Format(time.RFC3339),
			End:             o.End.In(loc).Format(time.RFC3339),
			DurationMinutes: int(o.Duration() / time.Minute),
		})
	}
	return &dto.PreviewScheduleResponse{Count: len(result), Occurrences: result}, nil
}

// ────────────────────── Create ──────────────────────

func (s *scheduleService) Create(ctx context.Context, req *dto.ScheduleRequest) (*dto.ScheduleView, error) {
	occ, freq, interval, err := s.parseSingle(req)
	if err != nil {
		return nil, err
	}

	device, err := s.getDevice(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}

	created, err := s.persist(ctx, req.DeviceID, []recurrence.Occurrence{occ}, freq, interval)
	if err != nil {
		return nil, err
	}

	schedule := created[0]
	schedule.Device = device
	return s.toView(&schedule, false), nil
}

// ────────────────────── Update ──────────────────────

// Update 替换开始/结束时间、设备、时长与频率字段，不改动 id 与 status
func (s *scheduleService) Update(ctx context.Context, id int, req *dto.ScheduleRequest) (*dto.ScheduleView, error) {
	occ, freq, interval, err := s.parseSingle(req)
	if err != nil {
		return nil, err
	}

	// 计划不存在优先于设备不存在
	if _, err := s.repo.Schedule.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询计划失败", zap.Int("id", id), zap.Error(err))
		return nil, err
	}

	if _, err := s.getDevice(ctx, req.DeviceID); err != nil {
		return nil, err
	}

	schedule := newScheduleRow(req.DeviceID, occ, freq, interval)
	schedule.ID = id
	if err := s.repo.Schedule.Update(ctx, schedule); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("更新计划失败", zap.Int("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询计划失败", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return s.toView(updated, false), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 硬删除
func (s *scheduleService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Schedule.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("删除计划失败", zap.Int("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 持久化 ──

// persist 在单个事务内逐行写入；任一行失败则整体回滚
// 每行的 duration 由 end - start 计算，status 固定为 pending
func (s *scheduleService) persist(
	ctx context.Context,
	deviceID int,
	occurrences []recurrence.Occurrence,
	freq *string,
	interval *int,
) ([]model.Schedule, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	created := make([]model.Schedule, 0, len(occurrences))
	for i, o := range occurrences {
		row := newScheduleRow(deviceID, o, freq, interval)
		if err := txRepo.Schedule.Create(ctx, row); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("写入计划失败，事务已回滚",
				zap.Int("device_id", deviceID), zap.Int("index", i), zap.Int("total", len(occurrences)), zap.Error(err))
			return nil, err
		}
		created = append(created, *row)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return created, nil
}

func newScheduleRow(deviceID int, o recurrence.Occurrence, freq *string, interval *int) *model.Schedule {
	return &model.Schedule{
		StartDate: o.Start,
		EndDate:   o.End,
		Duration:  model.Interval(o.Duration()),
		DeviceID:  deviceID,
		Frequency: freq,
		Interval:  interval,
		Status:    model.ScheduleStatusPending,
	}
}

// ── 请求解析 ──

// buildRule 将生成请求转换为重复规则；其余约束由 Expander 校验
func (s *scheduleService) buildRule(req *dto.GenerateScheduleRequest) (recurrence.Rule, error) {
	loc := s.expander.Location()

	freq, err := recurrence.ParseFrequency(req.Frequency)
	if err != nil {
		return recurrence.Rule{}, err
	}

	start, _, err := recurrence.ParseCivil(req.StartDate, loc)
	if err != nil {
		return recurrence.Rule{}, ErrInvalidStartDate
	}

	tod, err := parseTimeOfDay(req.Time)
	if err != nil {
		return recurrence.Rule{}, err
	}

	interval := 1
	if req.Interval != nil {
		interval = *req.Interval
	}

	count := 0
	if req.Count != nil {
		if *req.Count <= 0 {
			return recurrence.Rule{}, recurrence.ErrInvalidCount
		}
		count = *req.Count
	}

	rule := recurrence.Rule{
		Start:           start,
		Frequency:       freq,
		Interval:        interval,
		Count:           count,
		ByWeekday:       req.ByWeekday,
		DurationMinutes: req.Duration,
		TimeOfDay:       tod,
	}

	if req.EndDate != nil && *req.EndDate != "" {
		until, dateOnly, err := recurrence.ParseCivil(*req.EndDate, loc)
		if err != nil {
			return recurrence.Rule{}, ErrInvalidEndDate
		}
		if dateOnly {
			// 仅给出日期时包含当天全部时刻
			until = time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, loc)
		}
		rule.Until = &until
	}

	return rule, nil
}

// parseSingle 解析单次计划请求；interval 仅随 frequency 一同保存
func (s *scheduleService) parseSingle(req *dto.ScheduleRequest) (recurrence.Occurrence, *string, *int, error) {
	loc := s.expander.Location()

	start, _, err := recurrence.ParseCivil(req.StartDate, loc)
	if err != nil {
		return recurrence.Occurrence{}, nil, nil, ErrInvalidStartDate
	}

	tod, err := parseTimeOfDay(req.Time)
	if err != nil {
		return recurrence.Occurrence{}, nil, nil, err
	}
	if tod != nil {
		local := start.In(loc)
		start = tod.On(local.Year(), local.Month(), local.Day(), loc)
	}

	if req.Duration <= 0 {
		return recurrence.Occurrence{}, nil, nil, recurrence.ErrInvalidDuration
	}
	if req.Interval != nil && *req.Interval <= 0 {
		return recurrence.Occurrence{}, nil, nil, recurrence.ErrInvalidInterval
	}

	var freq *string
	var interval *int
	if req.Frequency != nil && *req.Frequency != "" {
		f, err := recurrence.ParseFrequency(*req.Frequency)
		if err != nil {
			return recurrence.Occurrence{}, nil, nil, err
		}
		fs := string(f)
		freq = &fs

		n := 1
		if req.Interval != nil {
			n = *req.Interval
		}
		interval = &n
	}

	start = start.UTC()
	end := start.Add(time.Duration(req.Duration) * time.Minute)
	return recurrence.Occurrence{Start: start, End: end}, freq, interval, nil
}

func parseTimeOfDay(s *string) (*recurrence.TimeOfDay, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	tod, err := recurrence.ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &tod, nil
}

func (s *scheduleService) getDevice(ctx context.Context, id int) (*model.Device, error) {
	device, err := s.repo.Device.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleDeviceNotFound
		}
		s.logger.Error("查询设备失败", zap.Int("device_id", id), zap.Error(err))
		return nil, err
	}
	return device, nil
}

// ── 日历投影 ──

func (s *scheduleService) toViews(schedules []model.Schedule, withColor bool) []dto.ScheduleView {
	result := make([]dto.ScheduleView, 0, len(schedules))
	for i := range schedules {
		result = append(result, *s.toView(&schedules[i], withColor))
	}
	return result
}

// toView 以参考时区渲染存储的瞬时值，不修改原值
func (s *scheduleService) toView(sc *model.Schedule, withColor bool) *dto.ScheduleView {
	loc := s.expander.Location()
	start := sc.StartDate.In(loc)
	end := sc.EndDate.In(loc)
	minutes := sc.Duration.Minutes()

	view := &dto.ScheduleView{
		ID:              sc.ID,
		Start:           start.Format(time.RFC3339),
		End:             end.Format(time.RFC3339),
		Time:            start.Format("15:04:05"),
		Duration:        sc.Duration.String(),
		DurationMinutes: minutes,
		DeviceID:        sc.DeviceID,
		Status:          sc.Status,
		Frequency:       sc.Frequency,
		Interval:        sc.Interval,
	}
	if sc.Device != nil {
		view.DeviceName = sc.Device.Name
		if withColor {
			view.Color = sc.Device.Color
			view.DeviceColor = sc.Device.Color
		}
	}
	view.Title = fmt.Sprintf("%s (%d min)", view.DeviceName, minutes)
	return view
}

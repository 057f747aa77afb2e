package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smart-watering/internal/model"
	"smart-watering/internal/repository"
	pkgerrors "smart-watering/pkg/errors"
)

// ── Mock DeviceRepository ──

type mockDeviceRepo struct {
	devices map[int]*model.Device
	nextID  int

	// 注入错误
	setRunningErr error
	deleteErr     error
	// beforeSetRunning 在条件更新前执行，用于模拟并发修改
	beforeSetRunning func()
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[int]*model.Device), nextID: 1}
}

func (m *mockDeviceRepo) Create(_ context.Context, device *model.Device) error {
	if device.ID == 0 {
		device.ID = m.nextID
		m.nextID++
	}
	cp := *device
	m.devices[device.ID] = &cp
	return nil
}

func (m *mockDeviceRepo) GetByID(_ context.Context, id int) (*model.Device, error) {
	if d, ok := m.devices[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeviceRepo) List(_ context.Context) ([]model.Device, error) {
	result := make([]model.Device, 0, len(m.devices))
	for _, d := range m.devices {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockDeviceRepo) ExistsByRelayPort(_ context.Context, relayPort int, excludeID int) (bool, error) {
	for _, d := range m.devices {
		if d.RelayPort == relayPort && d.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDeviceRepo) Update(_ context.Context, device *model.Device) error {
	d, ok := m.devices[device.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.Name = device.Name
	d.RelayPort = device.RelayPort
	d.Color = device.Color
	return nil
}

func (m *mockDeviceRepo) Delete(_ context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.devices[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.devices, id)
	return nil
}

func (m *mockDeviceRepo) SetRunning(_ context.Context, id int, from, to bool) error {
	if m.beforeSetRunning != nil {
		m.beforeSetRunning()
	}
	if m.setRunningErr != nil {
		return m.setRunningErr
	}
	d, ok := m.devices[id]
	if !ok || d.IsRunning != from {
		return pkgerrors.ErrStaleState
	}
	d.IsRunning = to
	return nil
}

func (m *mockDeviceRepo) ResetRunning(_ context.Context) error {
	for _, d := range m.devices {
		d.IsRunning = false
	}
	return nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	schedules map[int]*model.Schedule
	nextID    int
	devices   *mockDeviceRepo

	// failOnCreate 第 N 次 Create 返回错误（从 1 开始，0 表示不注入）
	failOnCreate int
	creates      int
	listErr      error
}

func newMockScheduleRepo(devices *mockDeviceRepo) *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[int]*model.Schedule), nextID: 1, devices: devices}
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	m.creates++
	if m.failOnCreate > 0 && m.creates == m.failOnCreate {
		return fmt.Errorf("mock insert failure at row %d", m.creates)
	}
	schedule.ID = m.nextID
	m.nextID++
	cp := *schedule
	m.schedules[schedule.ID] = &cp
	return nil
}

func (m *mockScheduleRepo) withDevice(s *model.Schedule) model.Schedule {
	cp := *s
	if d, ok := m.devices.devices[s.DeviceID]; ok {
		dc := *d
		cp.Device = &dc
	}
	return cp
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id int) (*model.Schedule, error) {
	if s, ok := m.schedules[id]; ok {
		cp := m.withDevice(s)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) ListSince(_ context.Context, since *time.Time) ([]model.Schedule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.Schedule
	for _, s := range m.schedules {
		if since != nil && s.StartDate.Before(*since) {
			continue
		}
		result = append(result, m.withDevice(s))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, schedule *model.Schedule) error {
	s, ok := m.schedules[schedule.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.StartDate = schedule.StartDate
	s.EndDate = schedule.EndDate
	s.DeviceID = schedule.DeviceID
	s.Duration = schedule.Duration
	s.Frequency = schedule.Frequency
	s.Interval = schedule.Interval
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id int) error {
	if _, ok := m.schedules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.schedules, id)
	return nil
}

// ── Recording Actuator ──

type actuation struct {
	pin int
	on  bool
}

type recordingActuator struct {
	mu    sync.Mutex
	calls []actuation
	state map[int]bool
	err   error
	// activateErr 仅作用于闭合
	activateErr error
}

func newRecordingActuator() *recordingActuator {
	return &recordingActuator{state: make(map[int]bool)}
}

func (a *recordingActuator) Activate(pin int) error   { return a.set(pin, true) }
func (a *recordingActuator) Deactivate(pin int) error { return a.set(pin, false) }
func (a *recordingActuator) Close() error             { return nil }

func (a *recordingActuator) set(pin int, on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if on && a.activateErr != nil {
		return a.activateErr
	}
	a.calls = append(a.calls, actuation{pin: pin, on: on})
	a.state[pin] = on
	return nil
}

// ── 测试辅助 ──

func newMockRepository() (*repository.Repository, *mockDeviceRepo, *mockScheduleRepo) {
	devRepo := newMockDeviceRepo()
	schedRepo := newMockScheduleRepo(devRepo)
	repo := &repository.Repository{
		Device:   devRepo,
		Schedule: schedRepo,
	}
	return repo, devRepo, schedRepo
}

func nopLogger() *zap.Logger { return zap.NewNop() }

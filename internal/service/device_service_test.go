package service

import (
	"context"
	"errors"
	"testing"

	"smart-watering/internal/dto"
	"smart-watering/internal/model"
)

// ── 测试辅助 ──

func setupTestDeviceService() (DeviceService, *mockDeviceRepo, *recordingActuator) {
	repo, devRepo, _ := newMockRepository()
	act := newRecordingActuator()
	svc := NewDeviceService(repo, act, nopLogger())
	return svc, devRepo, act
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// ── Toggle 测试 ──

func TestDeviceService_Toggle_OnThenOff(t *testing.T) {
	svc, devRepo, act := setupTestDeviceService()
	ctx := context.Background()
	_ = devRepo.Create(ctx, &model.Device{Name: "Huerta", RelayPort: 17, Color: model.DefaultDeviceColor})

	resp, err := svc.Toggle(ctx, 1)
	if err != nil {
		t.Fatalf("第一次切换应成功: %v", err)
	}
	if !resp.IsRunning {
		t.Error("第一次切换后应为运行状态")
	}
	if !act.state[17] {
		t.Error("继电器 17 应已闭合")
	}
	if !devRepo.devices[1].IsRunning {
		t.Error("库中 is_running 应为 true")
	}

	resp, err = svc.Toggle(ctx, 1)
	if err != nil {
		t.Fatalf("第二次切换应成功: %v", err)
	}
	if resp.IsRunning {
		t.Error("第二次切换后应为停止状态")
	}
	if act.state[17] {
		t.Error("继电器 17 应已断开")
	}
	if devRepo.devices[1].IsRunning {
		t.Error("库中 is_running 应为 false")
	}

	want := []actuation{{17, true}, {17, false}}
	if len(act.calls) != len(want) {
		t.Fatalf("期望 %d 次继电器调用，实际 %d", len(want), len(act.calls))
	}
	for i := range want {
		if act.calls[i] != want[i] {
			t.Errorf("第 %d 次调用期望 %+v，实际 %+v", i, want[i], act.calls[i])
		}
	}
}

func TestDeviceService_Toggle_NotFound(t *testing.T) {
	svc, _, act := setupTestDeviceService()

	_, err := svc.Toggle(context.Background(), 42)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("期望 ErrDeviceNotFound，实际: %v", err)
	}
	if len(act.calls) != 0 {
		t.Error("设备不存在时不应驱动继电器")
	}
}

func TestDeviceService_Toggle_RelayFailureLeavesStateUntouched(t *testing.T) {
	svc, devRepo, act := setupTestDeviceService()
	ctx := context.Background()
	_ = devRepo.Create(ctx, &model.Device{Name: "Huerta", RelayPort: 17})
	act.err = errors.New("gpio busy")

	_, err := svc.Toggle(ctx, 1)
	if !errors.Is(err, ErrRelayFailed) {
		t.Errorf("期望 ErrRelayFailed，实际: %v", err)
	}
	if devRepo.devices[1].IsRunning {
		t.Error("继电器失败时不应写库")
	}
}

func TestDeviceService_Toggle_PersistFailureRevertsRelay(t *testing.T) {
	svc, devRepo, act := setupTestDeviceService()
	ctx := context.Background()
	_ = devRepo.Create(ctx, &model.Device{Name: "Huerta", RelayPort: 17})
	devRepo.setRunningErr = errors.New("connection reset")

	_, err := svc.Toggle(ctx, 1)
	if !errors.Is(err, ErrHardwareInconsistent) {
		t.Fatalf("期望 ErrHardwareInconsistent，实际: %v", err)
	}
	if act.state[17] {
		t.Error("写库失败后继电器应回退为断开")
	}
	if len(act.calls) != 2 {
		t.Errorf("期望驱动 + 回退共 2 次调用，实际 %d", len(act.calls))
	}
}

func TestDeviceService_Toggle_ConcurrentChangeResyncsRelay(t *testing.T) {
	svc, devRepo, act := setupTestDeviceService()
	ctx := context.Background()
	_ = devRepo.Create(ctx, &model.Device{Name: "Huerta", RelayPort: 17})

	// 另一请求在本次读取之后、写入之前已将设备打开
	devRepo.beforeSetRunning = func() {
		devRepo.devices[1].IsRunning = true
		devRepo.beforeSetRunning = nil
	}

	_, err := svc.Toggle(ctx, 1)
	if !errors.Is(err, ErrDeviceStateConflict) {
		t.Fatalf("期望 ErrDeviceStateConflict，实际: %v", err)
	}
	if !act.state[17] {
		t.Error("继电器应与库中最新状态（运行）一致")
	}
}

// ── CRUD 测试 ──

func TestDeviceService_Create(t *testing.T) {
	svc, _, _ := setupTestDeviceService()
	ctx := context.Background()

	resp, err := svc.Create(ctx, &dto.CreateDeviceRequest{Name: "Huerta", RelayPort: intPtr(17)})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.IsRunning {
		t.Error("新设备应为停止状态")
	}
	if resp.Color != model.DefaultDeviceColor {
		t.Errorf("期望默认颜色 %s，实际 %s", model.DefaultDeviceColor, resp.Color)
	}

	_, err = svc.Create(ctx, &dto.CreateDeviceRequest{Name: "Patio", RelayPort: intPtr(17)})
	if !errors.Is(err, ErrRelayPortInUse) {
		t.Errorf("期望 ErrRelayPortInUse，实际: %v", err)
	}

	_, err = svc.Create(ctx, &dto.CreateDeviceRequest{Name: "Patio", RelayPort: intPtr(40)})
	if !errors.Is(err, ErrInvalidRelayPort) {
		t.Errorf("期望 ErrInvalidRelayPort，实际: %v", err)
	}
}

func TestDeviceService_Update(t *testing.T) {
	svc, devRepo, _ := setupTestDeviceService()
	ctx := context.Background()
	_ = devRepo.Create(ctx, &model.Device{Name: "Huerta", RelayPort: 17})
	_ = devRepo.Create(ctx, &model.Device{Name: "Patio", RelayPort: 27})

	resp, err := svc.Update(ctx, 1, &dto.UpdateDeviceRequest{Name: strPtr("Huerta Norte"), Color: strPtr("#00ff00")})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Name != "Huerta Norte" || resp.Color != "#00ff00" || resp.RelayPort != 17 {
		t.Errorf("更新结果不符: %+v", resp)
	}

	_, err = svc.Update(ctx, 1, &dto.UpdateDeviceRequest{RelayPort: intPtr(27)})
	if !errors.Is(err, ErrRelayPortInUse) {
		t.Errorf("期望 ErrRelayPortInUse，实际: %v", err)
	}

	devRepo.devices[1].IsRunning = true
	_, err = svc.Update(ctx, 1, &dto.UpdateDeviceRequest{RelayPort: intPtr(22)})
	if !errors.Is(err, ErrDeviceRunning) {
		t.Errorf("期望 ErrDeviceRunning，实际: %v", err)
	}

	_, err = svc.Update(ctx, 99, &dto.UpdateDeviceRequest{Name: strPtr("x")})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("期望 ErrDeviceNotFound，实际: %v", err)
	}
}

func TestDeviceService_DeleteRunningDeviceStopsRelay(t *testing.T) {
	svc, devRepo, act := setupTestDeviceService()
	ctx := context.Background()
	_ = devRepo.Create(ctx, &model.Device{Name: "Huerta", RelayPort: 17, IsRunning: true})
	act.state[17] = true

	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if act.state[17] {
		t.Error("删除运行中的设备应先断开继电器")
	}
	if _, ok := devRepo.devices[1]; ok {
		t.Error("设备应已删除")
	}

	if err := svc.Delete(ctx, 1); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("期望 ErrDeviceNotFound，实际: %v", err)
	}
}

func TestDeviceService_DeleteFailureRestoresRelay(t *testing.T) {
	svc, devRepo, act := setupTestDeviceService()
	ctx := context.Background()
	_ = devRepo.Create(ctx, &model.Device{Name: "Huerta", RelayPort: 17, IsRunning: true})
	act.state[17] = true
	devRepo.deleteErr = errors.New("connection reset")

	err := svc.Delete(ctx, 1)
	if err == nil || errors.Is(err, ErrHardwareInconsistent) {
		t.Fatalf("期望普通存储错误，实际: %v", err)
	}
	if !act.state[17] {
		t.Error("删除失败后继电器应恢复为闭合，与库中 is_running 一致")
	}
	if !devRepo.devices[1].IsRunning {
		t.Error("删除失败不应修改库中状态")
	}
}

func TestDeviceService_DeleteFailureWithStuckRelay(t *testing.T) {
	svc, devRepo, act := setupTestDeviceService()
	ctx := context.Background()
	_ = devRepo.Create(ctx, &model.Device{Name: "Huerta", RelayPort: 17, IsRunning: true})
	act.state[17] = true
	devRepo.deleteErr = errors.New("connection reset")
	act.activateErr = errors.New("gpio busy")

	if err := svc.Delete(ctx, 1); !errors.Is(err, ErrHardwareInconsistent) {
		t.Errorf("期望 ErrHardwareInconsistent，实际: %v", err)
	}
}

func TestDeviceService_ResetRelays(t *testing.T) {
	svc, devRepo, act := setupTestDeviceService()
	ctx := context.Background()
	_ = devRepo.Create(ctx, &model.Device{Name: "Huerta", RelayPort: 17, IsRunning: true})
	_ = devRepo.Create(ctx, &model.Device{Name: "Patio", RelayPort: 27})

	if err := svc.ResetRelays(ctx); err != nil {
		t.Fatalf("ResetRelays 应成功: %v", err)
	}
	if len(act.calls) != 2 {
		t.Errorf("期望断开 2 个继电器，实际 %d 次调用", len(act.calls))
	}
	for _, c := range act.calls {
		if c.on {
			t.Errorf("复位时不应闭合继电器: %+v", c)
		}
	}
	if devRepo.devices[1].IsRunning {
		t.Error("复位后 is_running 应为 false")
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 2 || list[0].ID != 1 {
		t.Errorf("List 结果不符: %+v", list)
	}
}

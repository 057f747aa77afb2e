package dto

// ── 设备模块响应 ──

// DeviceResponse 设备信息
type DeviceResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	RelayPort int    `json:"relay_port"`
	IsRunning bool   `json:"is_running"`
	Color     string `json:"color"`
}

// ToggleResponse 开关切换结果
type ToggleResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsRunning bool   `json:"is_running"`
}

// ── 浇水计划模块响应 ──

// ScheduleView 日历展示用的计划投影
// 时间均以参考时区渲染；Color/DeviceColor 仅在全量列表中填充
type ScheduleView struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	Time            string  `json:"time"`     // HH:MM:SS
	Duration        string  `json:"duration"` // HH:MM:SS
	DurationMinutes int     `json:"duration_minutes"`
	DeviceName      string  `json:"device_name"`
	DeviceID        int     `json:"device_id"`
	Status          string  `json:"status"`
	Frequency       *string `json:"frequency"`
	Interval        *int    `json:"interval"`
	Color           string  `json:"color,omitempty"`
	DeviceColor     string  `json:"device_color,omitempty"`
}

// OccurrenceResponse 一次展开出的事件
type OccurrenceResponse struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

// GenerateScheduleResponse 批量生成结果
type GenerateScheduleResponse struct {
	Count       int   `json:"count"`
	ScheduleIDs []int `json:"schedule_ids"`
}

// PreviewScheduleResponse 预览结果（不落库）
type PreviewScheduleResponse struct {
	Count       int                  `json:"count"`
	Occurrences []OccurrenceResponse `json:"occurrences"`
}

// DeleteScheduleResponse 删除结果
type DeleteScheduleResponse struct {
	ScheduleID int `json:"schedule_id"`
}

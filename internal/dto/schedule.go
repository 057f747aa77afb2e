package dto

// ── 浇水计划模块 DTO ──

// GenerateScheduleRequest 生成重复计划请求（generate_schedule / preview_schedule）
//
// start_date / end_date 接受 YYYY-MM-DD、YYYY-MM-DDTHH:MM[:SS]（参考时区）或 RFC3339；
// time 为 HH:MM[:SS]，指定后每次事件都落在该日的这一民用时刻。
type GenerateScheduleRequest struct {
	DeviceID  int     `json:"device_id"  binding:"required,min=1"`
	StartDate string  `json:"start_date" binding:"required"`
	EndDate   *string `json:"end_date"`
	Time      *string `json:"time"`
	Frequency string  `json:"frequency"  binding:"required"`
	Interval  *int    `json:"interval"` // 缺省为 1
	Count     *int    `json:"count"`
	ByWeekday []int   `json:"byweekday"` // 0 = 周一 … 6 = 周日
	Duration  int     `json:"duration"`  // 分钟
}

// ScheduleRequest 单次计划请求（new_schedule 与 PUT /schedules/:id 共用）
type ScheduleRequest struct {
	DeviceID  int     `json:"device_id"  binding:"required,min=1"`
	StartDate string  `json:"start_date" binding:"required"`
	Time      *string `json:"time"`
	Duration  int     `json:"duration"` // 分钟
	Frequency *string `json:"frequency"`
	Interval  *int    `json:"interval"`
}

package dto

// ── 设备模块 DTO ──

// CreateDeviceRequest 创建设备请求
type CreateDeviceRequest struct {
	Name      string `json:"name"       binding:"required,min=1,max=100"`
	RelayPort *int   `json:"relay_port" binding:"required,min=0,max=27"` // BCM 引脚号
	Color     string `json:"color"      binding:"omitempty,hexcolor"`
}

// UpdateDeviceRequest 更新设备请求（字段均可选）
type UpdateDeviceRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=1,max=100"`
	RelayPort *int    `json:"relay_port" binding:"omitempty,min=0,max=27"`
	Color     *string `json:"color"      binding:"omitempty,hexcolor"`
}

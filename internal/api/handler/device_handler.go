package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-watering/internal/dto"
	"smart-watering/internal/service"
	"smart-watering/pkg/response"
)

// DeviceHandler 设备模块 HTTP 处理器
type DeviceHandler struct {
	deviceSvc service.DeviceService
}

// NewDeviceHandler 创建 DeviceHandler
func NewDeviceHandler(deviceSvc service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceSvc: deviceSvc}
}

// ListDevices 获取设备列表
// GET /api/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.deviceSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to fetch devices.", err)
		return
	}

	response.OK(c, "Devices fetched successfully.", devices)
}

// GetDevice 获取设备详情
// GET /api/devices/:id
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	device, err := h.deviceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleDeviceError(c, "Failed to fetch device.", err)
		return
	}

	response.OK(c, "Device fetched successfully.", device)
}

// CreateDevice 创建设备
// POST /api/devices
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req dto.CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body.", err.Error())
		return
	}

	device, err := h.deviceSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleDeviceError(c, "Failed to create device.", err)
		return
	}

	response.Created(c, "Device created successfully.", device)
}

// UpdateDevice 更新设备
// PUT /api/devices/:id
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body.", err.Error())
		return
	}

	device, err := h.deviceSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleDeviceError(c, "Failed to update device.", err)
		return
	}

	response.OK(c, "Device updated successfully.", device)
}

// DeleteDevice 删除设备（级联删除其计划）
// DELETE /api/devices/:id
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.deviceSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleDeviceError(c, "Failed to delete device.", err)
		return
	}

	response.OK(c, "Device deleted successfully.", gin.H{"device_id": id})
}

// ToggleDevice 切换设备继电器
// POST /api/device/:id/toggle
func (h *DeviceHandler) ToggleDevice(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.deviceSvc.Toggle(c.Request.Context(), id)
	if err != nil {
		h.handleDeviceError(c, "Failed to toggle device.", err)
		return
	}

	message := result.Name + " stopped"
	if result.IsRunning {
		message = result.Name + " started"
	}
	response.OK(c, message, result)
}

// handleDeviceError 统一处理设备模块业务错误
func (h *DeviceHandler) handleDeviceError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, service.ErrDeviceNotFound):
		response.NotFound(c, message, err.Error())
	case errors.Is(err, service.ErrInvalidRelayPort):
		response.BadRequest(c, message, err.Error())
	case errors.Is(err, service.ErrRelayPortInUse),
		errors.Is(err, service.ErrDeviceRunning),
		errors.Is(err, service.ErrDeviceStateConflict):
		response.Conflict(c, message, err.Error())
	case errors.Is(err, service.ErrRelayFailed):
		response.Error(c, http.StatusBadGateway, message, err.Error())
	default:
		// 含 ErrHardwareInconsistent：原因中带有底层存储错误
		response.InternalError(c, message, err)
	}
}

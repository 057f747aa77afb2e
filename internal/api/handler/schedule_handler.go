package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"smart-watering/internal/dto"
	"smart-watering/internal/service"
	"smart-watering/pkg/response"
)

// ScheduleHandler 浇水计划模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ListSchedules 回看窗口内的计划（日历投影）
// GET /api/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	views, err := h.scheduleSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to fetch schedules.", err)
		return
	}

	response.OK(c, "Schedules fetched successfully.", views)
}

// ListAllSchedules 全部计划，含设备颜色
// GET /api/all-schedules
func (h *ScheduleHandler) ListAllSchedules(c *gin.Context) {
	views, err := h.scheduleSvc.ListAll(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to fetch schedules.", err)
		return
	}

	response.OK(c, "Schedules fetched successfully.", views)
}

// GenerateSchedule 展开重复规则并批量写入
// POST /api/generate_schedule
func (h *ScheduleHandler) GenerateSchedule(c *gin.Context) {
	const failed = "Failed to generate schedule."

	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, failed, err.Error())
		return
	}

	result, err := h.scheduleSvc.Generate(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, failed, err)
		return
	}

	response.Created(c, "Schedules saved successfully.", result)
}

// PreviewSchedule 只展开不写入
// POST /api/preview_schedule
func (h *ScheduleHandler) PreviewSchedule(c *gin.Context) {
	const failed = "Failed to preview schedule."

	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, failed, err.Error())
		return
	}

	result, err := h.scheduleSvc.Preview(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, failed, err)
		return
	}

	response.OK(c, "Schedule preview generated successfully.", result)
}

// NewSchedule 写入单次计划
// POST /api/new_schedule
func (h *ScheduleHandler) NewSchedule(c *gin.Context) {
	const failed = "Failed to create schedule."

	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, failed, err.Error())
		return
	}

	view, err := h.scheduleSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, failed, err)
		return
	}

	response.Created(c, "Schedules saved successfully.", view)
}

// UpdateSchedule 替换计划的时间/设备/频率字段
// PUT /api/schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	const failed = "Failed to update schedule."

	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, failed, err.Error())
		return
	}

	view, err := h.scheduleSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleScheduleError(c, failed, err)
		return
	}

	response.OK(c, "Schedule updated successfully.", view)
}

// DeleteSchedule 硬删除计划
// DELETE /api/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleScheduleError(c, "Failed to delete schedule.", err)
		return
	}

	response.OK(c, "Schedule deleted successfully.", dto.DeleteScheduleResponse{ScheduleID: id})
}

// handleScheduleError 统一处理计划模块业务错误
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, message string, err error) {
	switch {
	case service.IsValidationError(err):
		response.BadRequest(c, message, err.Error())
	case errors.Is(err, service.ErrScheduleDeviceNotFound):
		response.BadRequest(c, message, err.Error())
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, message, err.Error())
	default:
		response.InternalError(c, message, err)
	}
}

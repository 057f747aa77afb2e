package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"smart-watering/internal/service"
	"smart-watering/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportICS 导出全部计划为 iCalendar
// GET /api/export/schedules.ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	data, filename, err := h.exportSvc.ExportICS(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to export schedules.", err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// ExportXLSX 导出全部计划为 Excel
// GET /api/export/schedules.xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportXLSX(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to export schedules.", err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// attachment 设置下载响应头
func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-watering/pkg/response"
)

// Pinger 可探活的依赖（数据库）
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health 探测数据库连通性
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		response.Error(c, http.StatusServiceUnavailable, "Database unreachable.", err.Error())
		return
	}
	response.OK(c, "ok", nil)
}

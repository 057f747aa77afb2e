package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"smart-watering/pkg/response"
)

// MustGetIDParam 从路径参数中解析正整数 ID。
// 解析失败时写入 400 响应并返回 false，调用方应直接 return。
func MustGetIDParam(c *gin.Context, name string) (int, bool) {
	raw := c.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+name+".", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

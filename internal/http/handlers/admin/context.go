package admin

import (
	"strconv"

	handlershared "github.com/rupeeback/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// getAdminID 从上下文取当前管理员 ID，缺失时已写出 401
func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "admin_id")
}

// uintQuery 解析可选的数字查询参数，缺失或非法返回 0
func uintQuery(c *gin.Context, name string) uint {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}

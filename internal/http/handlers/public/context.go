package public

import (
	handlershared "github.com/rupeeback/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

// getOptionalUserID 读取可选鉴权注入的用户ID，匿名返回 nil
func getOptionalUserID(c *gin.Context) *uint {
	value, ok := c.Get("user_id")
	if !ok {
		return nil
	}
	if userID, ok := value.(uint); ok && userID != 0 {
		return &userID
	}
	return nil
}

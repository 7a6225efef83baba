package public

import "github.com/rupeeback/internal/provider"

// Handler 前台/公开接口处理器入口
// 仅服务公开目录、跳转、回传与用户侧 API。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
	"github.com/elecnk-png/timesheet-bot/pkg/response"
)

// 上下文键，由 JWTAuth 中间件写入
const (
	CtxActorID  = "actor_id"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// MustGetActorID 从 Gin 上下文中安全提取 actor_id。
// 如果 JWT 中间件未正确注入 actor_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActorID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxActorID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// mustGetToken 提取当前 Token 的 JTI 与过期时间
func mustGetToken(c *gin.Context) (string, time.Time, bool) {
	jti := c.GetString(CtxTokenJTI)
	exp, ok := c.Get(CtxTokenExp)
	expAt, isTime := exp.(time.Time)
	if jti == "" || !ok || !isTime {
		response.Unauthorized(c, 10002, "未认证")
		return "", time.Time{}, false
	}
	return jti, expAt, true
}

// statusOf 错误分类 → HTTP 状态码
func statusOf(kind pkgerrors.Kind) int {
	switch kind {
	case pkgerrors.KindUnauthorized:
		return http.StatusUnauthorized
	case pkgerrors.KindForbidden:
		return http.StatusForbidden
	case pkgerrors.KindNotFound:
		return http.StatusNotFound
	case pkgerrors.KindConflict, pkgerrors.KindInUse, pkgerrors.KindInvalidTransition, pkgerrors.KindProtectedRole:
		return http.StatusConflict
	case pkgerrors.KindInvalidArgument:
		return http.StatusBadRequest
	case pkgerrors.KindAnomalousDuration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError 按错误分类写入响应，未分类错误统一返回 500 且不暴露内部信息
func respondError(c *gin.Context, err error) {
	kind := pkgerrors.KindOf(err)
	if kind == pkgerrors.KindInternal {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	var inUse *pkgerrors.InUseError
	if errors.As(err, &inUse) {
		response.ErrorWithDetails(c, statusOf(kind), pkgerrors.CodeOf(err), pkgerrors.ErrInUse.Message, inUse.Error())
		return
	}
	response.Error(c, statusOf(kind), pkgerrors.CodeOf(err), err.Error())
}

// bindFailed 参数校验失败
func bindFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}

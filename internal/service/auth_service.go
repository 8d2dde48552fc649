package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/elecnk-png/timesheet-bot/config"
	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/pkg/jwt"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidServiceKey = pkgerrors.New(pkgerrors.KindUnauthorized, 10001, "service key 无效")
)

// TokenBlacklist Token 黑名单，由 Redis 客户端实现
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 网关认证
//
// 网关持有 service key，为每个聊天用户换取短期 Access Token；
// 用户身份由网关断言，本服务只校验 service key。
type AuthService interface {
	IssueToken(ctx context.Context, serviceKey string, req *dto.IssueTokenRequest) (*dto.TokenResponse, error)
	VerifyServiceKey(serviceKey string) bool
	// Logout 将 Token 加入黑名单直到其自然过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	cfg       *config.AuthConfig
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例，blacklist 可以为 nil
func NewAuthService(cfg *config.AuthConfig, jwtMgr *jwt.Manager, blacklist TokenBlacklist, logger *zap.Logger) AuthService {
	return &authService{cfg: cfg, jwtMgr: jwtMgr, blacklist: blacklist, logger: logger}
}

func (s *authService) IssueToken(_ context.Context, serviceKey string, req *dto.IssueTokenRequest) (*dto.TokenResponse, error) {
	if !s.VerifyServiceKey(serviceKey) {
		s.logger.Warn("service key 校验失败", zap.String("actor_id", req.ActorID))
		return nil, ErrInvalidServiceKey
	}

	token, err := s.jwtMgr.GenerateAccessToken(req.ActorID)
	if err != nil {
		s.logger.Error("生成 Token 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
	}, nil
}

func (s *authService) VerifyServiceKey(serviceKey string) bool {
	if serviceKey == "" || s.cfg.ServiceKeyHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.cfg.ServiceKeyHash), []byte(serviceKey)) == nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil {
		s.logger.Warn("Redis 不可用，Token 未加入黑名单", zap.String("jti", jti))
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("加入黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

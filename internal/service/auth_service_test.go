package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/model"
)

func TestIssueToken_Success(t *testing.T) {
	env := setupTestServices(t)

	result, err := env.svc.Auth.IssueToken(context.Background(), testServiceKey, &dto.IssueTokenRequest{ActorID: "tg-100500"})
	if err != nil {
		t.Fatalf("IssueToken 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}

	claims, err := env.jwt.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("签发的 Token 应可解析: %v", err)
	}
	if claims.ActorID != "tg-100500" {
		t.Errorf("期望 ActorID=tg-100500，实际=%s", claims.ActorID)
	}
}

func TestIssueToken_WrongServiceKey(t *testing.T) {
	env := setupTestServices(t)

	for _, key := range []string{"", "wrong-key"} {
		_, err := env.svc.Auth.IssueToken(context.Background(), key, &dto.IssueTokenRequest{ActorID: "tg-1"})
		if !errors.Is(err, ErrInvalidServiceKey) {
			t.Errorf("key=%q 期望 ErrInvalidServiceKey，实际: %v", key, err)
		}
	}
}

func TestLogout_Blacklists(t *testing.T) {
	env := setupTestServices(t)

	exp := time.Now().Add(10 * time.Minute)
	if err := env.svc.Auth.Logout(context.Background(), "jti-1", exp); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	ttl, ok := env.blacklist.jtis["jti-1"]
	if !ok {
		t.Fatal("JTI 应加入黑名单")
	}
	if ttl <= 0 || ttl > 10*time.Minute {
		t.Errorf("黑名单 TTL 应为剩余有效期，实际=%v", ttl)
	}
}

func TestLogout_NoRedis(t *testing.T) {
	env := setupTestServices(t)
	svc := NewAuthService(&env.cfg.Auth, env.jwt, nil, zap.NewNop())

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Errorf("无 Redis 时 Logout 不应失败: %v", err)
	}
}

// ── 通知发件箱测试 ──

func TestNotificationOutbox_ListAndAck(t *testing.T) {
	env := setupTestServices(t)
	env.seedStaff(t)
	ctx := context.Background()

	if _, err := env.svc.Approval.FileAdminCandidacy(ctx, "ivan"); err != nil {
		t.Fatalf("FileAdminCandidacy 应成功: %v", err)
	}

	outbox, err := env.svc.Notification.ListOutbox(ctx, &dto.OutboxRequest{Recipient: "boss"})
	if err != nil {
		t.Fatalf("ListOutbox 应成功: %v", err)
	}
	if len(outbox) != 1 || outbox[0].Type != model.NotificationRequestFiled {
		t.Fatalf("期望 1 条申请通知，实际: %+v", outbox)
	}

	ack, err := env.svc.Notification.Ack(ctx, &dto.AckRequest{IDs: []string{outbox[0].ID}})
	if err != nil {
		t.Fatalf("Ack 应成功: %v", err)
	}
	if ack.Acknowledged != 1 {
		t.Errorf("期望确认 1 条，实际=%d", ack.Acknowledged)
	}

	again, _ := env.svc.Notification.Ack(ctx, &dto.AckRequest{IDs: []string{outbox[0].ID}})
	if again.Acknowledged != 0 {
		t.Errorf("重复确认期望 0，实际=%d", again.Acknowledged)
	}
	rest, _ := env.svc.Notification.ListOutbox(ctx, &dto.OutboxRequest{})
	if len(rest) != 0 {
		t.Errorf("确认后发件箱应为空，实际=%d", len(rest))
	}
}

func TestNotify_WithoutPublisher(t *testing.T) {
	env := setupTestServices(t)
	svc := NewNotificationService(newMockRepository(env.db), nil, env.clock, zap.NewNop())

	svc.Notify(context.Background(), model.Notification{RecipientID: "ivan", Type: model.NotificationRequestResolved, Content: "ok"})
	if len(env.db.recipients("ivan")) != 1 {
		t.Error("无广播通道时通知仍应写入发件箱")
	}
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/elecnk-png/timesheet-bot/config"
	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/pkg/clock"
	"github.com/elecnk-png/timesheet-bot/pkg/jwt"
)

const testServiceKey = "gateway-service-key"

// msk 固定 UTC+3，测试不依赖系统 tzdata
var msk = time.FixedZone("MSK", 3*3600)

// ── 测试辅助 ──

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPublisher) PublishNotification(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

type recordingBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Duration
}

func (b *recordingBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = ttl
	return nil
}

type testEnv struct {
	db        *memDB
	clock     *clock.Fixed
	cfg       *config.Config
	svc       *Service
	publisher *recordingPublisher
	blacklist *recordingBlacklist
	jwt       *jwt.Manager
}

// setupTestServices 时钟停在 2026-03-02（星期一）09:00 MSK
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testServiceKey), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成 service key 哈希失败: %v", err)
	}
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL: 15 * time.Minute,
			ServiceKeyHash: string(hash),
		},
		App:    config.AppConfig{Timezone: "Europe/Moscow"},
		Report: config.ReportConfig{DecimalSeparator: ".", TimesheetDays: 7, StatsDays: 30},
	}

	env := &testEnv{
		db:        newMemDB(),
		clock:     clock.NewFixed(time.Date(2026, 3, 2, 9, 0, 0, 0, msk)),
		cfg:       cfg,
		publisher: &recordingPublisher{},
		blacklist: &recordingBlacklist{jtis: make(map[string]time.Duration)},
		jwt:       jwt.NewManager(&cfg.Auth),
	}
	env.svc = NewService(Deps{
		Config:    cfg,
		Repo:      newMockRepository(env.db),
		JWT:       env.jwt,
		Clock:     env.clock,
		Blacklist: env.blacklist,
		Publisher: env.publisher,
		Logger:    zap.NewNop(),
	})
	return env
}

// seedVocabulary 职位 Cashier/Seller，门店 North/South
func (e *testEnv) seedVocabulary(t *testing.T) {
	t.Helper()
	err := e.svc.Directory.SeedVocabulary(context.Background(), &config.DirectoryConfig{
		SeedPositions: []string{"Cashier", "Seller"},
		SeedStores:    []config.SeedStore{{Name: "North"}, {Name: "South"}},
	})
	if err != nil {
		t.Fatalf("写入预置职位与门店失败: %v", err)
	}
}

func (e *testEnv) storeID(t *testing.T, name string) string {
	t.Helper()
	s, err := (&mockStoreRepo{db: e.db}).GetByName(context.Background(), name)
	if err != nil {
		t.Fatalf("门店 %s 不存在", name)
	}
	return s.StoreID
}

func (e *testEnv) positionID(t *testing.T, name string) string {
	t.Helper()
	p, err := (&mockPositionRepo{db: e.db}).GetByName(context.Background(), name)
	if err != nil {
		t.Fatalf("职位 %s 不存在", name)
	}
	return p.PositionID
}

// addIdentity 直接写入员工，跳过注册流程
func (e *testEnv) addIdentity(t *testing.T, id, name, position, store, role string) {
	t.Helper()
	err := (&mockIdentityRepo{db: e.db}).Create(context.Background(), &model.Identity{
		IdentityID:  id,
		DisplayName: name,
		PositionID:  e.positionID(t, position),
		StoreID:     e.storeID(t, store),
		Role:        role,
	})
	if err != nil {
		t.Fatalf("写入员工 %s 失败: %v", id, err)
	}
}

// seedStaff 超级管理员 boss，North 管理员 anna 与成员 ivan、olga，South 管理员 petr 与成员 sveta
func (e *testEnv) seedStaff(t *testing.T) {
	t.Helper()
	e.seedVocabulary(t)
	e.addIdentity(t, "boss", "Boss", "Seller", "North", model.RoleSuperAdmin)
	e.addIdentity(t, "anna", "Anna", "Seller", "North", model.RoleAdmin)
	e.addIdentity(t, "ivan", "Ivan", "Cashier", "North", model.RoleMember)
	e.addIdentity(t, "olga", "Olga", "Cashier", "North", model.RoleMember)
	e.addIdentity(t, "petr", "Petr", "Seller", "South", model.RoleAdmin)
	e.addIdentity(t, "sveta", "Sveta", "Cashier", "South", model.RoleMember)
}

// workShift 以 actorID 签到，时钟前进 d 后签退
func (e *testEnv) workShift(t *testing.T, actorID string, d time.Duration) {
	t.Helper()
	ctx := context.Background()
	if _, err := e.svc.Shift.CheckIn(ctx, actorID); err != nil {
		t.Fatalf("%s 签到失败: %v", actorID, err)
	}
	e.clock.Advance(d)
	if _, err := e.svc.Shift.CheckOut(ctx, actorID); err != nil {
		t.Fatalf("%s 签退失败: %v", actorID, err)
	}
	e.clock.Advance(-d)
}

// nextDay 时钟拨到下一天 09:00
func (e *testEnv) nextDay() {
	e.clock.Advance(24 * time.Hour)
}

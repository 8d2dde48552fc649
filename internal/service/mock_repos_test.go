package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// memDB 内存数据库，各 mock Repository 共享，用于模拟唯一约束与关联预加载
type memDB struct {
	mu            sync.Mutex
	identities    map[string]*model.Identity
	positions     map[string]*model.Position
	stores        map[string]*model.Store
	shifts        map[string]*model.Shift
	approvals     map[string]*model.ApprovalRequest
	notifications []*model.Notification
	bootstrap     *model.DirectoryBootstrap
}

func newMemDB() *memDB {
	return &memDB{
		identities: make(map[string]*model.Identity),
		positions:  make(map[string]*model.Position),
		stores:     make(map[string]*model.Store),
		shifts:     make(map[string]*model.Shift),
		approvals:  make(map[string]*model.ApprovalRequest),
	}
}

// newMockRepository 组装不绑定数据库的 Repository 聚合
func newMockRepository(db *memDB) *repository.Repository {
	return &repository.Repository{
		Identity:     &mockIdentityRepo{db: db},
		Bootstrap:    &mockBootstrapRepo{db: db},
		Position:     &mockPositionRepo{db: db},
		Store:        &mockStoreRepo{db: db},
		Shift:        &mockShiftRepo{db: db},
		Approval:     &mockApprovalRepo{db: db},
		Notification: &mockNotificationRepo{db: db},
	}
}

// withAssociations 返回带 Position/Store 的副本，调用方持有锁
func (m *memDB) withAssociations(i *model.Identity) model.Identity {
	cp := *i
	if p, ok := m.positions[i.PositionID]; ok {
		pc := *p
		cp.Position = &pc
	}
	if s, ok := m.stores[i.StoreID]; ok {
		sc := *s
		cp.Store = &sc
	}
	return cp
}

// ── Mock IdentityRepository ──

type mockIdentityRepo struct {
	db *memDB
}

func (m *mockIdentityRepo) Create(_ context.Context, identity *model.Identity) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.identities[identity.IdentityID]; ok {
		return gorm.ErrDuplicatedKey
	}
	cp := *identity
	cp.Position, cp.Store = nil, nil
	m.db.identities[identity.IdentityID] = &cp
	return nil
}

func (m *mockIdentityRepo) GetByID(_ context.Context, id string) (*model.Identity, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	i, ok := m.db.identities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.db.withAssociations(i)
	return &cp, nil
}

func (m *mockIdentityRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Identity, error) {
	return m.GetByID(ctx, id)
}

func (m *mockIdentityRepo) List(_ context.Context, filter repository.IdentityFilter) ([]model.Identity, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var result []model.Identity
	for _, i := range m.db.identities {
		if filter.StoreID != "" && i.StoreID != filter.StoreID {
			continue
		}
		if filter.Role != "" && i.Role != filter.Role {
			continue
		}
		result = append(result, m.db.withAssociations(i))
	}
	sort.Slice(result, func(a, b int) bool {
		if result[a].DisplayName != result[b].DisplayName {
			return result[a].DisplayName < result[b].DisplayName
		}
		return result[a].IdentityID < result[b].IdentityID
	})
	return result, nil
}

func (m *mockIdentityRepo) LockSuperAdmins(ctx context.Context) ([]model.Identity, error) {
	return m.List(ctx, repository.IdentityFilter{Role: model.RoleSuperAdmin})
}

func (m *mockIdentityRepo) UpdateRole(_ context.Context, id, fromRole, toRole string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	i, ok := m.db.identities[id]
	if !ok || i.Role != fromRole {
		return pkgerrors.ErrOptimisticLock
	}
	i.Role = toRole
	return nil
}

func (m *mockIdentityRepo) UpdateAssignment(_ context.Context, id, positionID, storeID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	i, ok := m.db.identities[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.PositionID = positionID
	i.StoreID = storeID
	return nil
}

func (m *mockIdentityRepo) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.identities[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.identities, id)
	return nil
}

func (m *mockIdentityRepo) CountByStore(_ context.Context, storeID string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, i := range m.db.identities {
		if i.StoreID == storeID {
			n++
		}
	}
	return n, nil
}

func (m *mockIdentityRepo) CountByPosition(_ context.Context, positionID string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, i := range m.db.identities {
		if i.PositionID == positionID {
			n++
		}
	}
	return n, nil
}

// ── Mock BootstrapRepository ──

type mockBootstrapRepo struct {
	db *memDB
}

func (m *mockBootstrapRepo) Claim(_ context.Context, identityID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.bootstrap != nil {
		return false, nil
	}
	m.db.bootstrap = &model.DirectoryBootstrap{Singleton: true, SuperAdminID: identityID, ClaimedAt: time.Now()}
	return true, nil
}

func (m *mockBootstrapRepo) Get(_ context.Context) (*model.DirectoryBootstrap, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.bootstrap == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.db.bootstrap
	return &cp, nil
}

// ── Mock PositionRepository ──

type mockPositionRepo struct {
	db *memDB
}

func (m *mockPositionRepo) Create(_ context.Context, position *model.Position) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, p := range m.db.positions {
		if p.Name == position.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = position.BeforeCreate(nil)
	cp := *position
	m.db.positions[position.PositionID] = &cp
	return nil
}

func (m *mockPositionRepo) EnsureExists(ctx context.Context, name string) error {
	if err := m.Create(ctx, &model.Position{Name: name}); err != nil && err != gorm.ErrDuplicatedKey {
		return err
	}
	return nil
}

func (m *mockPositionRepo) GetByName(_ context.Context, name string) (*model.Position, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, p := range m.db.positions {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPositionRepo) List(_ context.Context) ([]model.Position, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var result []model.Position
	for _, p := range m.db.positions {
		result = append(result, *p)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Name < result[b].Name })
	return result, nil
}

func (m *mockPositionRepo) Count(_ context.Context) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return int64(len(m.db.positions)), nil
}

func (m *mockPositionRepo) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.positions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.positions, id)
	return nil
}

// ── Mock StoreRepository ──

type mockStoreRepo struct {
	db *memDB
}

func (m *mockStoreRepo) Create(_ context.Context, store *model.Store) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, s := range m.db.stores {
		if s.Name == store.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = store.BeforeCreate(nil)
	cp := *store
	m.db.stores[store.StoreID] = &cp
	return nil
}

func (m *mockStoreRepo) EnsureExists(ctx context.Context, name, address string) error {
	if err := m.Create(ctx, &model.Store{Name: name, Address: address}); err != nil && err != gorm.ErrDuplicatedKey {
		return err
	}
	return nil
}

func (m *mockStoreRepo) GetByID(_ context.Context, id string) (*model.Store, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockStoreRepo) GetByName(_ context.Context, name string) (*model.Store, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, s := range m.db.stores {
		if s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStoreRepo) List(_ context.Context) ([]model.Store, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var result []model.Store
	for _, s := range m.db.stores {
		result = append(result, *s)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Name < result[b].Name })
	return result, nil
}

func (m *mockStoreRepo) Count(_ context.Context) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return int64(len(m.db.stores)), nil
}

func (m *mockStoreRepo) Delete(_ context.Context, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.stores[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.stores, id)
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	db *memDB
}

// withIdentity 返回预加载 Identity 的副本，调用方持有锁
func (m *mockShiftRepo) withIdentity(sh *model.Shift) model.Shift {
	cp := *sh
	if i, ok := m.db.identities[sh.IdentityID]; ok {
		ic := m.db.withAssociations(i)
		cp.Identity = &ic
	}
	return cp
}

func (m *mockShiftRepo) matches(sh *model.Shift, f repository.ShiftFilter) bool {
	if f.IdentityID != "" && sh.IdentityID != f.IdentityID {
		return false
	}
	if f.StoreID != "" {
		i, ok := m.db.identities[sh.IdentityID]
		if !ok || i.StoreID != f.StoreID {
			return false
		}
	}
	if f.From != nil && sh.ShiftDate.Before(*f.From) {
		return false
	}
	if f.To != nil && sh.ShiftDate.After(*f.To) {
		return false
	}
	if f.Status != "" && sh.Status != f.Status {
		return false
	}
	if f.Confirmed != nil && sh.Confirmed != *f.Confirmed {
		return false
	}
	return true
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, sh := range m.db.shifts {
		if sh.IdentityID == shift.IdentityID && sh.ShiftDate.Equal(shift.ShiftDate) {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = shift.BeforeCreate(nil)
	cp := *shift
	cp.Identity = nil
	m.db.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	sh, ok := m.db.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withIdentity(sh)
	return &cp, nil
}

func (m *mockShiftRepo) GetByIdentityAndDate(_ context.Context, identityID string, date time.Time) (*model.Shift, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, sh := range m.db.shifts {
		if sh.IdentityID == identityID && sh.ShiftDate.Equal(date) {
			cp := *sh
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetLatestOpen(_ context.Context, identityID string) (*model.Shift, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var latest *model.Shift
	for _, sh := range m.db.shifts {
		if sh.IdentityID != identityID || !sh.IsOpen() {
			continue
		}
		if latest == nil || sh.CheckIn.After(latest.CheckIn) {
			latest = sh
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockShiftRepo) Close(_ context.Context, shiftID string, checkOut time.Time, hours decimal.Decimal, note string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	sh, ok := m.db.shifts[shiftID]
	if !ok || !sh.IsOpen() {
		return pkgerrors.ErrOptimisticLock
	}
	sh.Status = model.ShiftStatusCompleted
	sh.CheckOut = &checkOut
	sh.Hours = decimal.NewNullDecimal(hours)
	sh.Note = note
	return nil
}

func (m *mockShiftRepo) Confirm(_ context.Context, shiftID, confirmedBy string, at time.Time) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	sh, ok := m.db.shifts[shiftID]
	if !ok || sh.Status != model.ShiftStatusCompleted || sh.Confirmed {
		return false, nil
	}
	confirm(sh, confirmedBy, at)
	return true, nil
}

func (m *mockShiftRepo) ConfirmCompleted(_ context.Context, filter repository.ShiftFilter, confirmedBy string, at time.Time) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, sh := range m.db.shifts {
		if sh.Status != model.ShiftStatusCompleted || sh.Confirmed || !m.matches(sh, filter) {
			continue
		}
		confirm(sh, confirmedBy, at)
		n++
	}
	return n, nil
}

func confirm(sh *model.Shift, by string, at time.Time) {
	sh.Confirmed = true
	sh.ConfirmedBy = &by
	sh.ConfirmedAt = &at
}

func (m *mockShiftRepo) List(_ context.Context, filter repository.ShiftFilter) ([]model.Shift, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var result []model.Shift
	for _, sh := range m.db.shifts {
		if m.matches(sh, filter) {
			result = append(result, m.withIdentity(sh))
		}
	}
	sort.Slice(result, func(a, b int) bool {
		if !result[a].ShiftDate.Equal(result[b].ShiftDate) {
			return result[a].ShiftDate.Before(result[b].ShiftDate)
		}
		return result[a].CheckIn.Before(result[b].CheckIn)
	})
	return result, nil
}

func (m *mockShiftRepo) DeleteByIdentity(_ context.Context, identityID string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for id, sh := range m.db.shifts {
		if sh.IdentityID == identityID {
			delete(m.db.shifts, id)
			n++
		}
	}
	return n, nil
}

// ── Mock ApprovalRepository ──

type mockApprovalRepo struct {
	db *memDB
}

func (m *mockApprovalRepo) Create(_ context.Context, req *model.ApprovalRequest) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, r := range m.db.approvals {
		if r.IsPending() && r.Kind == req.Kind && r.TargetRef == req.TargetRef {
			return gorm.ErrDuplicatedKey
		}
	}
	_ = req.BeforeCreate(nil)
	cp := *req
	m.db.approvals[req.RequestID] = &cp
	return nil
}

func (m *mockApprovalRepo) GetByID(_ context.Context, id string) (*model.ApprovalRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.approvals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockApprovalRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	return m.GetByID(ctx, id)
}

func (m *mockApprovalRepo) Resolve(_ context.Context, id, status, resolvedBy string, at time.Time) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.approvals[id]
	if !ok || !r.IsPending() {
		return pkgerrors.ErrOptimisticLock
	}
	r.Status = status
	r.ResolvedBy = &resolvedBy
	r.ResolvedAt = &at
	return nil
}

func (m *mockApprovalRepo) List(_ context.Context, filter repository.ApprovalFilter) ([]model.ApprovalRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var result []model.ApprovalRequest
	for _, r := range m.db.approvals {
		if filter.RequesterID != "" && r.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Kind != "" && r.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].CreatedAt.Before(result[b].CreatedAt) })
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	db *memDB
}

func (m *mockNotificationRepo) CreateBatch(_ context.Context, notes []model.Notification) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for i := range notes {
		_ = notes[i].BeforeCreate(nil)
		if notes[i].CreatedAt.IsZero() {
			notes[i].CreatedAt = time.Now()
		}
		cp := notes[i]
		m.db.notifications = append(m.db.notifications, &cp)
	}
	return nil
}

func (m *mockNotificationRepo) ListUndelivered(_ context.Context, recipientID string, limit int) ([]model.Notification, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var result []model.Notification
	for _, n := range m.db.notifications {
		if n.DeliveredAt != nil {
			continue
		}
		if recipientID != "" && n.RecipientID != recipientID {
			continue
		}
		result = append(result, *n)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) MarkDelivered(_ context.Context, ids []string, at time.Time) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for _, note := range m.db.notifications {
		if want[note.NotificationID] && note.DeliveredAt == nil {
			t := at
			note.DeliveredAt = &t
			n++
		}
	}
	return n, nil
}

// recipients 返回发给 recipientID 的全部通知
func (m *memDB) recipients(recipientID string) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Notification
	for _, n := range m.notifications {
		if n.RecipientID == recipientID {
			result = append(result, *n)
		}
	}
	return result
}

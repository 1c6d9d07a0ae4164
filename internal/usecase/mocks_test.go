//go:build !integration

package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/adapter"
	"image-edit-saas/internal/domain/ports/repository"
)

// In-memory fakes. They store copies, like a real database: mutations on a
// returned entity are invisible until Save.

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User

	creditErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]model.User)}
}

func (m *mockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string, includeDeleted bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && (includeDeleted || !u.IsDeleted) {
			cp := u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) CreditPoints(ctx context.Context, tx repository.Tx, id string, points int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creditErr != nil {
		return 0, m.creditErr
	}
	u, ok := m.users[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	u.Points += points
	m.users[id] = u
	return u.Points, nil
}

type mockPlanRepo struct {
	mu    sync.Mutex
	plans map[string]model.SubscriptionPlan
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]model.SubscriptionPlan)}
}

func (m *mockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = *p
	return nil
}

func (m *mockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *mockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.SubscriptionPlan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

type mockPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]model.Payment
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[string]model.Payment)}
}

func (m *mockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *p
	// A finished row never regresses; mirrors the CAS column semantics.
	if cur, ok := m.payments[p.ID]; ok && cur.Status.Terminal() && !p.Status.Terminal() {
		stored.Status = cur.Status
		stored.PointsAdded = cur.PointsAdded
		stored.NewBalance = cur.NewBalance
		stored.ProcessedAt = cur.ProcessedAt
	}
	m.payments[p.ID] = stored
	return nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *mockPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.OrderID == orderID {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	m.payments[id] = p
	return true, nil
}

type mockMediaRepo struct {
	mu   sync.Mutex
	jobs map[string]model.MediaJob
}

func newMockMediaRepo() *mockMediaRepo {
	return &mockMediaRepo{jobs: make(map[string]model.MediaJob)}
}

func (m *mockMediaRepo) Save(ctx context.Context, tx repository.Tx, j *model.MediaJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = *j
	return nil
}

func (m *mockMediaRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MediaJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := j
	return &cp, nil
}

func (m *mockMediaRepo) FindByTrackID(ctx context.Context, tx repository.Tx, trackID string) (*model.MediaJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.TrackID == trackID {
			cp := j
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockMediaRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.MediaJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MediaJob
	for _, j := range m.jobs {
		if j.UserID == userID && len(out) < limit {
			cp := j
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockPresetRepo struct {
	mu      sync.Mutex
	presets map[string]model.ModelPreset
}

func newMockPresetRepo() *mockPresetRepo {
	return &mockPresetRepo{presets: make(map[string]model.ModelPreset)}
}

func (m *mockPresetRepo) Save(ctx context.Context, tx repository.Tx, p *model.ModelPreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets[p.ID] = *p
	return nil
}

func (m *mockPresetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ModelPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.presets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *mockPresetRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.ModelPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ModelPreset, 0, len(m.presets))
	for _, p := range m.presets {
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockPresetRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.presets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.presets, id)
	return nil
}

type mockRoleRepo struct {
	roles map[string]model.Role
}

func newMockRoleRepo() *mockRoleRepo {
	return &mockRoleRepo{roles: map[string]model.Role{
		model.RoleAdmin: {ID: "role-admin", Name: model.RoleAdmin},
		model.RoleUser:  {ID: "role-user", Name: model.RoleUser},
	}}
}

func (m *mockRoleRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Role, error) {
	r, ok := m.roles[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := r
	return &cp, nil
}

func (m *mockRoleRepo) EnsureDefaults(ctx context.Context, tx repository.Tx) error { return nil }

// mockTxManager runs the function directly; the fakes above have no real
// transaction semantics.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type mockGateway struct {
	mu     sync.Mutex
	calls  int
	lastIn adapter.InvoiceRequest

	result *adapter.InvoiceResult
	err    error

	onCreate func()
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) CreateInvoice(ctx context.Context, req adapter.InvoiceRequest) (*adapter.InvoiceResult, error) {
	m.mu.Lock()
	m.calls++
	m.lastIn = req
	m.mu.Unlock()
	if m.onCreate != nil {
		m.onCreate()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockStorage struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (m *mockStorage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.uploads = append(m.uploads, key)
	return "https://cdn.test/" + key, nil
}

type mockEditor struct {
	mu          sync.Mutex
	removeCalls []string // track ids
	inpaintReqs []adapter.InpaintRequest
	err         error

	onSubmit func(trackID string)
}

func (m *mockEditor) RemoveObject(ctx context.Context, initImage, maskImage, trackID, webhookURL string) error {
	m.mu.Lock()
	m.removeCalls = append(m.removeCalls, trackID)
	m.mu.Unlock()
	if m.onSubmit != nil {
		m.onSubmit(trackID)
	}
	return m.err
}

func (m *mockEditor) Inpaint(ctx context.Context, req adapter.InpaintRequest) error {
	m.mu.Lock()
	m.inpaintReqs = append(m.inpaintReqs, req)
	m.mu.Unlock()
	if m.onSubmit != nil {
		m.onSubmit(req.TrackID)
	}
	return m.err
}

type sentMail struct {
	to, subject, body string
}

type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *mockMailer) Send(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

type mockLimiter struct {
	allow bool
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.allow, nil
}

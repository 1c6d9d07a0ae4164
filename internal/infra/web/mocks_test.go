//go:build !integration

package web

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

// Minimal in-memory fakes for end-to-end handler tests.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: make(map[string]model.User)} }

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string, includeDeleted bool) (*model.User, error) {
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

func (m *memUserRepo) CreditPoints(ctx context.Context, tx repository.Tx, id string, points int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	u.Points += points
	m.users[id] = u
	return u.Points, nil
}

type memRoleRepo struct{}

func (memRoleRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Role, error) {
	switch name {
	case model.RoleAdmin:
		return &model.Role{ID: "role-admin", Name: model.RoleAdmin}, nil
	case model.RoleUser:
		return &model.Role{ID: "role-user", Name: model.RoleUser}, nil
	}
	return nil, domain.ErrNotFound
}

func (memRoleRepo) EnsureDefaults(ctx context.Context, tx repository.Tx) error { return nil }

type memPlanRepo struct {
	mu    sync.Mutex
	plans map[string]model.SubscriptionPlan
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[string]model.SubscriptionPlan)}
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = *p
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *memPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.SubscriptionPlan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]model.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[string]model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *p
	if cur, ok := m.payments[p.ID]; ok && cur.Status.Terminal() && !p.Status.Terminal() {
		stored.Status = cur.Status
	}
	m.payments[p.ID] = stored
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *memPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
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

func (m *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	m.payments[id] = p
	return true, nil
}

type memMediaRepo struct {
	mu   sync.Mutex
	jobs map[string]model.MediaJob
}

func newMemMediaRepo() *memMediaRepo { return &memMediaRepo{jobs: make(map[string]model.MediaJob)} }

func (m *memMediaRepo) Save(ctx context.Context, tx repository.Tx, j *model.MediaJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = *j
	return nil
}

func (m *memMediaRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MediaJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := j
	return &cp, nil
}

func (m *memMediaRepo) FindByTrackID(ctx context.Context, tx repository.Tx, trackID string) (*model.MediaJob, error) {
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

func (m *memMediaRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.MediaJob, error) {
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

type memPresetRepo struct {
	mu      sync.Mutex
	presets map[string]model.ModelPreset
}

func newMemPresetRepo() *memPresetRepo {
	return &memPresetRepo{presets: make(map[string]model.ModelPreset)}
}

func (m *memPresetRepo) Save(ctx context.Context, tx repository.Tx, p *model.ModelPreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets[p.ID] = *p
	return nil
}

func (m *memPresetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ModelPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.presets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (m *memPresetRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.ModelPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ModelPreset, 0, len(m.presets))
	for _, p := range m.presets {
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPresetRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.presets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.presets, id)
	return nil
}

type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type fakeGateway struct {
	result *adapter.InvoiceResult
	err    error
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) CreateInvoice(ctx context.Context, req adapter.InvoiceRequest) (*adapter.InvoiceResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeStorage struct{}

func (fakeStorage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	return "https://cdn.test/" + key, nil
}

type fakeEditor struct{}

func (fakeEditor) RemoveObject(ctx context.Context, initImage, maskImage, trackID, webhookURL string) error {
	return nil
}

func (fakeEditor) Inpaint(ctx context.Context, req adapter.InpaintRequest) error { return nil }

type fakeMailer struct {
	mu   sync.Mutex
	sent []string // bodies
}

func (f *fakeMailer) Send(to, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, htmlBody)
	return nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

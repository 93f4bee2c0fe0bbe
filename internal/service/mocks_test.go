package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- mockSequence ---

type mockSequence struct {
	nextFn func(ctx context.Context) (int64, error)
}

func (m *mockSequence) Next(ctx context.Context) (int64, error) {
	if m.nextFn != nil {
		return m.nextFn(ctx)
	}
	return 1000, nil
}

// --- mockServiceRecordRepo ---

type mockServiceRecordRepo struct {
	createFn            func(ctx context.Context, rec *model.ServiceRecord) error
	getByIDFn           func(ctx context.Context, id string) (*model.ServiceRecord, error)
	listFn              func(ctx context.Context, f repository.ServiceRecordFilter, p repository.Page) ([]*model.ServiceRecord, error)
	countFn             func(ctx context.Context, f repository.ServiceRecordFilter) (int, error)
	updateFn            func(ctx context.Context, id string, p *model.ServiceRecordPatch) (*model.ServiceRecord, error)
	deleteFn            func(ctx context.Context, id string) error
	deleteInvalidFn     func(ctx context.Context, companyID string) (int64, error)
	countOverdueFn      func(ctx context.Context, companyID string, today time.Time) (int, error)
	countDueBetweenFn   func(ctx context.Context, companyID string, from, until time.Time) (int, error)
	latestServiceDateFn func(ctx context.Context, companyID string) (*time.Time, error)
}

func (m *mockServiceRecordRepo) Create(ctx context.Context, rec *model.ServiceRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, rec)
	}
	return nil
}

func (m *mockServiceRecordRepo) GetByID(ctx context.Context, id string) (*model.ServiceRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockServiceRecordRepo) List(ctx context.Context, f repository.ServiceRecordFilter, p repository.Page) ([]*model.ServiceRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f, p)
	}
	return nil, nil
}

func (m *mockServiceRecordRepo) Count(ctx context.Context, f repository.ServiceRecordFilter) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, f)
	}
	return 0, nil
}

func (m *mockServiceRecordRepo) Update(ctx context.Context, id string, p *model.ServiceRecordPatch) (*model.ServiceRecord, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, p)
	}
	return nil, repository.ErrNotFound
}

func (m *mockServiceRecordRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockServiceRecordRepo) DeleteInvalid(ctx context.Context, companyID string) (int64, error) {
	if m.deleteInvalidFn != nil {
		return m.deleteInvalidFn(ctx, companyID)
	}
	return 0, nil
}

func (m *mockServiceRecordRepo) CountOverdue(ctx context.Context, companyID string, today time.Time) (int, error) {
	if m.countOverdueFn != nil {
		return m.countOverdueFn(ctx, companyID, today)
	}
	return 0, nil
}

func (m *mockServiceRecordRepo) CountDueBetween(ctx context.Context, companyID string, from, until time.Time) (int, error) {
	if m.countDueBetweenFn != nil {
		return m.countDueBetweenFn(ctx, companyID, from, until)
	}
	return 0, nil
}

func (m *mockServiceRecordRepo) LatestServiceDate(ctx context.Context, companyID string) (*time.Time, error) {
	if m.latestServiceDateFn != nil {
		return m.latestServiceDateFn(ctx, companyID)
	}
	return nil, nil
}

// --- mockCompanyRepo ---

type mockCompanyRepo struct {
	createFn  func(ctx context.Context, c *model.Company) error
	getByIDFn func(ctx context.Context, id string) (*model.Company, error)
	listFn    func(ctx context.Context, q string, p repository.Page) ([]*model.Company, error)
	countFn   func(ctx context.Context, q string) (int, error)
	updateFn  func(ctx context.Context, c *model.Company) error
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockCompanyRepo) Create(ctx context.Context, c *model.Company) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.Company{ID: id, Name: "Acme Garage"}, nil
}

func (m *mockCompanyRepo) List(ctx context.Context, q string, p repository.Page) ([]*model.Company, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q, p)
	}
	return nil, nil
}

func (m *mockCompanyRepo) Count(ctx context.Context, q string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, q)
	}
	return 0, nil
}

func (m *mockCompanyRepo) Update(ctx context.Context, c *model.Company) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, c)
	}
	return nil
}

func (m *mockCompanyRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- mockContactRepo ---

type mockContactRepo struct {
	listByCompanyFn func(ctx context.Context, companyID string) ([]*model.Contact, error)
}

func (m *mockContactRepo) Create(context.Context, *model.Contact) error { return nil }

func (m *mockContactRepo) GetByID(context.Context, string) (*model.Contact, error) {
	return nil, repository.ErrNotFound
}

func (m *mockContactRepo) ListByCompany(ctx context.Context, companyID string) ([]*model.Contact, error) {
	if m.listByCompanyFn != nil {
		return m.listByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (m *mockContactRepo) Update(context.Context, *model.Contact) error { return nil }

func (m *mockContactRepo) Delete(context.Context, string) error { return nil }

// --- mockEquipmentRepo ---

type mockEquipmentRepo struct {
	countFn func(ctx context.Context, f repository.EquipmentFilter) (int, error)
	listFn  func(ctx context.Context, f repository.EquipmentFilter, p repository.Page) ([]*model.Equipment, error)
}

func (m *mockEquipmentRepo) Create(context.Context, *model.Equipment) error { return nil }

func (m *mockEquipmentRepo) GetByID(context.Context, string) (*model.Equipment, error) {
	return nil, repository.ErrNotFound
}

func (m *mockEquipmentRepo) List(ctx context.Context, f repository.EquipmentFilter, p repository.Page) ([]*model.Equipment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f, p)
	}
	return nil, nil
}

func (m *mockEquipmentRepo) Count(ctx context.Context, f repository.EquipmentFilter) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, f)
	}
	return 0, nil
}

func (m *mockEquipmentRepo) Update(context.Context, *model.Equipment) error { return nil }

func (m *mockEquipmentRepo) Delete(context.Context, string) error { return nil }

// --- mockShareLinkRepo (in-memory) ---

type mockShareLinkRepo struct {
	links    map[string]*model.ShareLink
	getCalls int
}

func newMockShareLinkRepo() *mockShareLinkRepo {
	return &mockShareLinkRepo{links: map[string]*model.ShareLink{}}
}

func (m *mockShareLinkRepo) Create(_ context.Context, l *model.ShareLink) error {
	cp := *l
	m.links[l.Token] = &cp
	return nil
}

func (m *mockShareLinkRepo) GetByToken(_ context.Context, token string) (*model.ShareLink, error) {
	m.getCalls++
	l, ok := m.links[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockShareLinkRepo) Revoke(_ context.Context, token string) error {
	l, ok := m.links[token]
	if !ok || l.RevokedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now()
	l.RevokedAt = &now
	return nil
}

// --- mockUserRepo ---

type mockUserRepo struct {
	users map[string]*model.User
}

func (m *mockUserRepo) Upsert(_ context.Context, u *model.User) error {
	if m.users == nil {
		m.users = map[string]*model.User{}
	}
	m.users[u.Email] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func errNotFoundRepo() error { return repository.ErrNotFound }

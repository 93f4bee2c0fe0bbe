package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Paul-BWS/equiptrak/internal/api/middleware"
	"github.com/Paul-BWS/equiptrak/internal/auth"
	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/repository"
	"github.com/Paul-BWS/equiptrak/internal/service"
)

const (
	companyA = "11111111-1111-4111-8111-111111111111"
	companyB = "22222222-2222-4222-8222-222222222222"
	recordID = "33333333-3333-4333-8333-333333333333"
)

var (
	adminID    = &auth.Identity{Subject: "admin-1", Role: rbac.RoleAdmin}
	engineerID = &auth.Identity{Subject: "eng-1", Role: rbac.RoleEngineer}
	customerID = &auth.Identity{Subject: "cust-1", Role: rbac.RoleCustomer, CompanyID: companyA}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

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

// --- memRecords: записи обслуживания в памяти ---

type memRecords struct {
	mu      sync.Mutex
	items   map[string]*model.ServiceRecord
	patches []model.ServiceRecordPatch
	purged  []string
}

func newMemRecords(recs ...*model.ServiceRecord) *memRecords {
	m := &memRecords{items: make(map[string]*model.ServiceRecord)}
	for _, r := range recs {
		m.items[r.ID] = r
	}
	return m
}

func (m *memRecords) Create(_ context.Context, rec *model.ServiceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.items[rec.ID] = &cp
	return nil
}

func (m *memRecords) GetByID(_ context.Context, id string) (*model.ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRecords) List(_ context.Context, f repository.ServiceRecordFilter, _ repository.Page) ([]*model.ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ServiceRecord
	for _, r := range m.items {
		if f.CompanyID != "" && r.CompanyID != f.CompanyID {
			continue
		}
		if f.RetestBefore != nil && r.RetestDate.After(*f.RetestBefore) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRecords) Count(ctx context.Context, f repository.ServiceRecordFilter) (int, error) {
	items, _ := m.List(ctx, f, repository.Page{})
	return len(items), nil
}

func (m *memRecords) Update(_ context.Context, id string, p *model.ServiceRecordPatch) (*model.ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.patches = append(m.patches, *p)
	if p.CertificateNumber != nil {
		r.CertificateNumber = p.CertificateNumber
	}
	if p.ServiceDate != nil {
		r.ServiceDate = *p.ServiceDate
	}
	if p.RetestDate != nil {
		r.RetestDate = *p.RetestDate
	}
	if p.EngineerName != nil {
		r.EngineerName = p.EngineerName
	}
	if p.Status != nil {
		r.Status = p.Status
	}
	if p.Notes != nil {
		r.Notes = p.Notes
	}
	for i, l := range p.Equipment {
		if l.Name != nil {
			r.Equipment[i].Name = l.Name
		}
		if l.Serial != nil {
			r.Equipment[i].Serial = l.Serial
		}
	}
	cp := *r
	return &cp, nil
}

func (m *memRecords) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRecords) DeleteInvalid(_ context.Context, companyID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged = append(m.purged, companyID)
	var n int64
	for id, r := range m.items {
		if r.CompanyID != companyID {
			continue
		}
		if r.CertificateNumber == nil || *r.CertificateNumber == "" || *r.CertificateNumber == "-" ||
			(r.Status != nil && *r.Status == "invalid") {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

func (m *memRecords) CountOverdue(context.Context, string, time.Time) (int, error) { return 0, nil }

func (m *memRecords) CountDueBetween(context.Context, string, time.Time, time.Time) (int, error) {
	return 0, nil
}

func (m *memRecords) LatestServiceDate(context.Context, string) (*time.Time, error) { return nil, nil }

// --- memCompanies ---

type memCompanies struct {
	items map[string]*model.Company
}

func newMemCompanies(cs ...*model.Company) *memCompanies {
	m := &memCompanies{items: make(map[string]*model.Company)}
	for _, c := range cs {
		m.items[c.ID] = c
	}
	return m
}

func (m *memCompanies) Create(_ context.Context, c *model.Company) error {
	m.items[c.ID] = c
	return nil
}

func (m *memCompanies) GetByID(_ context.Context, id string) (*model.Company, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (m *memCompanies) List(context.Context, string, repository.Page) ([]*model.Company, error) {
	var out []*model.Company
	for _, c := range m.items {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCompanies) Count(context.Context, string) (int, error) { return len(m.items), nil }

func (m *memCompanies) Update(_ context.Context, c *model.Company) error {
	if _, ok := m.items[c.ID]; !ok {
		return repository.ErrNotFound
	}
	m.items[c.ID] = c
	return nil
}

func (m *memCompanies) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

// --- заглушки без состояния ---

type nopContacts struct{}

func (nopContacts) Create(context.Context, *model.Contact) error { return nil }
func (nopContacts) GetByID(context.Context, string) (*model.Contact, error) {
	return nil, repository.ErrNotFound
}
func (nopContacts) ListByCompany(context.Context, string) ([]*model.Contact, error) { return nil, nil }
func (nopContacts) Update(context.Context, *model.Contact) error                  { return nil }
func (nopContacts) Delete(context.Context, string) error                          { return nil }

type nopEquipment struct{}

func (nopEquipment) Create(context.Context, *model.Equipment) error { return nil }
func (nopEquipment) GetByID(context.Context, string) (*model.Equipment, error) {
	return nil, repository.ErrNotFound
}
func (nopEquipment) List(context.Context, repository.EquipmentFilter, repository.Page) ([]*model.Equipment, error) {
	return nil, nil
}
func (nopEquipment) Count(context.Context, repository.EquipmentFilter) (int, error) { return 0, nil }
func (nopEquipment) Update(context.Context, *model.Equipment) error                 { return nil }
func (nopEquipment) Delete(context.Context, string) error                           { return nil }

type memShareLinks struct {
	items map[string]*model.ShareLink
}

func (m *memShareLinks) Create(_ context.Context, l *model.ShareLink) error {
	m.items[l.Token] = l
	return nil
}

func (m *memShareLinks) GetByToken(_ context.Context, token string) (*model.ShareLink, error) {
	l, ok := m.items[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return l, nil
}

func (m *memShareLinks) Revoke(_ context.Context, token string) error {
	l, ok := m.items[token]
	if !ok || l.RevokedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now()
	l.RevokedAt = &now
	return nil
}

type memUsers struct{}

func (memUsers) Upsert(context.Context, *model.User) error { return nil }
func (memUsers) GetByID(context.Context, string) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (memUsers) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

type memCompressors struct {
	items map[string]*model.CompressorRecord
}

func (m *memCompressors) Create(_ context.Context, r *model.CompressorRecord) error {
	m.items[r.ID] = r
	return nil
}

func (m *memCompressors) GetByID(_ context.Context, id string) (*model.CompressorRecord, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memCompressors) List(_ context.Context, companyID string, _ repository.Page) ([]*model.CompressorRecord, error) {
	var out []*model.CompressorRecord
	for _, r := range m.items {
		if companyID == "" || r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memCompressors) Update(_ context.Context, r *model.CompressorRecord) error {
	if _, ok := m.items[r.ID]; !ok {
		return repository.ErrNotFound
	}
	m.items[r.ID] = r
	return nil
}

func (m *memCompressors) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// --- тестовый API ---

type testAPI struct {
	handler     *APIHandler
	router      chi.Router
	records     *memRecords
	seq         *mockSequence
	compressors *memCompressors
}

// storedRecord — запись компании A с датой обслуживания 2024-03-01.
func storedRecord() *model.ServiceRecord {
	return &model.ServiceRecord{
		ID:                recordID,
		CompanyID:         companyA,
		CertificateNumber: strPtr("BWS-1000"),
		ServiceDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		RetestDate:        time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		EngineerName:      strPtr("Paul"),
		Status:            strPtr("completed"),
	}
}

func newTestAPI(t *testing.T, recs ...*model.ServiceRecord) *testAPI {
	t.Helper()
	logger := testLogger()
	policy, err := retest.New("fixed-364")
	if err != nil {
		t.Fatal(err)
	}

	ta := &testAPI{
		records:     newMemRecords(recs...),
		seq:         &mockSequence{},
		compressors: &memCompressors{items: make(map[string]*model.CompressorRecord)},
	}
	companies := newMemCompanies(
		&model.Company{ID: companyA, Name: "Acme Garage"},
		&model.Company{ID: companyB, Name: "Other Motors"},
	)
	certs := service.NewCertificateService(ta.seq, logger)
	records := service.NewServiceRecordService(ta.records, companies, certs, policy, 30*24*time.Hour, logger)

	ta.handler = NewAPIHandler(NewHealthHandler(nil), Services{
		Certificates:   certs,
		ServiceRecords: records,
		Companies:      service.NewCompanyService(companies, nopContacts{}, nopEquipment{}, ta.records, 30*24*time.Hour, logger),
		Equipment:      service.NewEquipmentService(nopEquipment{}),
		Compressors:    service.NewCompressorService(ta.compressors, certs, policy, logger),
		Shares: service.NewShareService(&memShareLinks{items: make(map[string]*model.ShareLink)},
			records, 72*time.Hour, 16, time.Minute, logger),
		Export: service.NewExportService(records, companies),
		Auth:   service.NewAuthService(memUsers{}, nil, logger),
	}, logger)

	r := chi.NewRouter()
	h := ta.handler
	r.Get("/api/generate-certificate-number", h.GenerateCertificateNumber)
	r.Get("/api/service-records", h.ListServiceRecords)
	r.Post("/api/service-records", h.CreateServiceRecord)
	r.Get("/api/service-records/due", h.DueServiceRecords)
	r.Delete("/api/service-records/delete-test-data", h.PurgeInvalidServiceRecords)
	r.Get("/api/service-records/{id}", h.GetServiceRecord)
	r.Put("/api/service-records/{id}", h.UpdateServiceRecord)
	r.Delete("/api/service-records/{id}", h.DeleteServiceRecord)
	r.Get("/api/service-records/{id}/certificate", h.GetCertificate)
	r.Post("/api/service-records/{id}/share", h.CreateShareLink)
	r.Delete("/api/share-links/{token}", h.RevokeShareLink)
	r.Get("/public/certificates/{token}", h.PublicCertificate)
	r.Get("/api/companies/{id}/service-records/export", h.ExportServiceRecords)
	r.Get("/api/compressors", h.Compressors().List)
	r.Post("/api/compressors", h.Compressors().Create)
	r.Put("/api/compressors/{id}", h.Compressors().Update)
	r.Post("/api/auth/login", h.Login)
	r.Get("/api/auth/me", h.Me)
	ta.router = r
	return ta
}

// do выполняет запрос от имени id (nil — без личности).
func (ta *testAPI) do(t *testing.T, id *auth.Identity, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if id != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), id))
	}
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("ответ не JSON: %v (%s)", err, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error.Code
}

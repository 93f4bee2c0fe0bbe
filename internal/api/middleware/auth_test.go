package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Paul-BWS/equiptrak/internal/auth"
	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
)

const (
	testSecret = "middleware-secret-middleware-secret"
	testIssuer = "equiptrak-test"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// issueToken выпускает HMAC-токен для пользователя с ролью role.
func issueToken(t *testing.T, role, companyID string, ttl time.Duration) string {
	t.Helper()
	u := &model.User{ID: "user-1", Email: "eng@example.com", Name: "Engineer", Role: role}
	if companyID != "" {
		u.CompanyID = &companyID
	}
	token, _, err := auth.NewTokenIssuer(testSecret, testIssuer, ttl).Issue(u)
	if err != nil {
		t.Fatalf("Issue() вернул ошибку: %v", err)
	}
	return token
}

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(auth.NewHMACProvider(testSecret, testIssuer, 0), testLogger())
}

// okHandler отвечает 200 и записывает личность из контекста.
func okHandler(got **auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("ответ не JSON: %v (%s)", err, rec.Body.String())
	}
	return body.Error.Code
}

func TestAuthenticator_ValidToken(t *testing.T) {
	var got *auth.Identity
	h := newTestAuthenticator().Middleware()(okHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, rbac.RoleEngineer, "", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200 (%s)", rec.Code, rec.Body.String())
	}
	if got == nil || got.Subject != "user-1" || got.Role != rbac.RoleEngineer {
		t.Errorf("личность в контексте = %+v", got)
	}
}

func TestAuthenticator_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"без заголовка", ""},
		{"другая схема", "Basic dXNlcjpwYXNz"},
		{"мусор", "Bearer not-a-jwt"},
		{"просрочен", "Bearer " + issueToken(t, rbac.RoleAdmin, "", -time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *auth.Identity
			h := newTestAuthenticator().Middleware()(okHandler(&got))

			req := httptest.NewRequest(http.MethodGet, "/api/service-records", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("статус = %d, ожидается 401", rec.Code)
			}
			if code := errorCode(t, rec); code != "UNAUTHORIZED" {
				t.Errorf("код ошибки = %q, ожидается UNAUTHORIZED", code)
			}
			if got != nil {
				t.Error("следующий обработчик не должен вызываться")
			}
		})
	}
}

func TestAuthenticator_DevelopmentProvider(t *testing.T) {
	var got *auth.Identity
	a := NewAuthenticator(auth.NewDevelopmentProvider(testLogger()), testLogger())
	h := a.Middleware()(okHandler(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if got == nil || got.Role != rbac.RoleAdmin {
		t.Errorf("личность = %+v, ожидается admin", got)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		id   *auth.Identity
		want int
	}{
		{"admin", &auth.Identity{Subject: "a", Role: rbac.RoleAdmin}, http.StatusOK},
		{"engineer", &auth.Identity{Subject: "e", Role: rbac.RoleEngineer}, http.StatusForbidden},
		{"нет личности", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *auth.Identity
			h := RequireRole(rbac.RoleAdmin)(okHandler(&got))

			req := httptest.NewRequest(http.MethodDelete, "/api/companies/x", nil)
			if tt.id != nil {
				req = req.WithContext(WithIdentity(req.Context(), tt.id))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireAction_WriteExcludesCustomer(t *testing.T) {
	var got *auth.Identity
	h := RequireAction(rbac.ActionWrite)(okHandler(&got))

	for role, want := range map[string]int{
		rbac.RoleAdmin:    http.StatusOK,
		rbac.RoleEngineer: http.StatusOK,
		rbac.RoleCustomer: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/service-records", nil)
		req = req.WithContext(WithIdentity(req.Context(), &auth.Identity{Subject: "s", Role: role, CompanyID: "c"}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("роль %s: статус = %d, ожидается %d", role, rec.Code, want)
		}
	}
}

func TestSubjectFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if s := SubjectFromContext(req.Context()); s != "" {
		t.Errorf("SubjectFromContext() = %q без личности, ожидается пусто", s)
	}
	ctx := WithIdentity(req.Context(), &auth.Identity{Subject: "user-7", Role: rbac.RoleAdmin})
	if s := SubjectFromContext(ctx); s != "user-7" {
		t.Errorf("SubjectFromContext() = %q, ожидается user-7", s)
	}
}

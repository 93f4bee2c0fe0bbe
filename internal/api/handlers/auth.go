// auth.go — вход по паролю и сведения о текущем пользователе.
package handlers

import (
	"net/http"

	apierrors "github.com/Paul-BWS/equiptrak/internal/api/errors"
	"github.com/Paul-BWS/equiptrak/internal/api/middleware"
)

// Login — POST /api/auth/login. Выдаёт HMAC-токен (режим hmac).
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "Пользователь")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User: userResponse{
			ID:        res.User.ID,
			Email:     res.User.Email,
			Name:      res.User.Name,
			Role:      res.User.Role,
			CompanyID: res.User.CompanyID,
		},
	})
}

// Me — GET /api/auth/me. Возвращает личность из токена.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	if id == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{
		Subject:   id.Subject,
		Email:     id.Email,
		Name:      id.Name,
		Role:      id.Role,
		CompanyID: id.CompanyID,
	})
}

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSProvider проверяет RS256-токены внешнего IdP по его JWKS.
type JWKSProvider struct {
	jwks   keyfunc.Keyfunc
	issuer string
	leeway time.Duration
	logger *slog.Logger
}

// NewJWKSProvider создаёт провайдер с фоновым обновлением ключей.
// Стартует даже если IdP ещё недоступен.
func NewJWKSProvider(jwksURL string, refresh time.Duration, issuer string, leeway time.Duration, logger *slog.Logger) (*JWKSProvider, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: 10 * time.Second},
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refresh,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return NewJWKSProviderWithKeyfunc(k, issuer, leeway, logger), nil
}

// NewJWKSProviderWithKeyfunc создаёт провайдер с готовой keyfunc.
func NewJWKSProviderWithKeyfunc(k keyfunc.Keyfunc, issuer string, leeway time.Duration, logger *slog.Logger) *JWKSProvider {
	return &JWKSProvider{
		jwks:   k,
		issuer: issuer,
		leeway: leeway,
		logger: logger.With(slog.String("component", "jwks_auth")),
	}
}

// Identify проверяет подпись RS256 по JWKS, срок действия и issuer.
func (p *JWKSProvider) Identify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(p.leeway),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, p.jwks.KeyfuncCtx(ctx), opts...); err != nil {
		p.logger.Debug("JWT валидация не пройдена", slog.String("error", err.Error()))
		return nil, mapParseError(err)
	}
	return identityFromClaims(claims)
}

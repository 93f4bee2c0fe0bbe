package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// HMACProvider проверяет HS256-токены, подписанные общим секретом.
type HMACProvider struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewHMACProvider создаёт провайдер HS256.
func NewHMACProvider(secret, issuer string, leeway time.Duration) *HMACProvider {
	return &HMACProvider{secret: []byte(secret), issuer: issuer, leeway: leeway}
}

// Identify проверяет подпись, срок действия и issuer.
func (p *HMACProvider) Identify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(p.leeway),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...); err != nil {
		return nil, mapParseError(err)
	}
	return identityFromClaims(claims)
}

// TokenIssuer выпускает HS256-токены для пользователей после входа по паролю.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer создаёт TokenIssuer.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue подписывает токен для пользователя. Возвращает токен и момент истечения.
func (i *TokenIssuer) Issue(u *model.User) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
	if u.CompanyID != nil {
		claims.CompanyID = *u.CompanyID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

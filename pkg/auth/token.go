package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/foodhub/pkg/config"
	"github.com/example/foodhub/pkg/models"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Access and refresh tokens share the signing key and are told apart by audience.
const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// Tokens issues and verifies HS256 signed access and refresh tokens.
type Tokens struct {
	secret     []byte
	ttl        time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewTokens(cfg config.AuthConfig) *Tokens {
	return &Tokens{
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.TokenTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

func (t *Tokens) Issue(actor models.Actor) (string, error) {
	return t.sign(actor, audienceAccess, t.ttl)
}

func (t *Tokens) IssueRefresh(actor models.Actor) (string, error) {
	return t.sign(actor, audienceRefresh, t.refreshTTL)
}

func (t *Tokens) Parse(raw string) (models.Actor, error) {
	return t.parse(raw, audienceAccess)
}

func (t *Tokens) ParseRefresh(raw string) (models.Actor, error) {
	return t.parse(raw, audienceRefresh)
}

func (t *Tokens) sign(actor models.Actor, audience string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) parse(raw, audience string) (models.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return models.Actor{}, ErrInvalidToken
	}
	return models.Actor{ID: claims.Subject, Role: claims.Role}, nil
}

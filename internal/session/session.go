// Package session issues bearer tokens and exposes the authenticated principal to handlers.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/policy"
)

const (
	tokenContextKey = "user"
	issuer          = "hr-onboarding-portal"
)

// Claims is the JWT payload.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// Principal is the caller resolved from a valid token.
type Principal struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

// Actor returns the policy view of the principal.
func (p Principal) Actor() policy.Actor {
	return policy.Actor{ID: p.ID, Role: p.Role}
}

// Token is what login returns to the client.
type Token struct {
	AccessToken string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        Principal `json:"user"`
}

// Manager signs and verifies HS256 tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. A non-positive ttl falls back to 12 hours.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for e.
func (m *Manager) Issue(e *domain.Employee) (*Token, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := &Claims{
		Email: e.Email,
		Name:  e.FullName(),
		Role:  string(e.Role),
		StandardClaims: jwt.StandardClaims{
			Subject:   e.ID,
			Issuer:    issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Token{
		AccessToken: signed,
		ExpiresAt:   exp,
		User:        principalFromClaims(claims),
	}, nil
}

// Parse verifies a raw token and returns its principal.
func (m *Manager) Parse(raw string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, m.keyFunc)
	if err != nil || !token.Valid {
		return Principal{}, domain.ErrUnauthorized
	}
	return principalFromClaims(claims), nil
}

func (m *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return m.secret, nil
}

func principalFromClaims(c *Claims) Principal {
	return Principal{ID: c.Subject, Email: c.Email, Name: c.Name, Role: domain.Role(c.Role)}
}

// Accounts loads the stored account behind a token subject.
type Accounts interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
}

// Middleware verifies the bearer token with echo's JWT middleware and stores the principal
// in the request context. skipper exempts public routes. When accounts is set, every request
// reloads the account so deactivation and role changes apply before the token expires.
func (m *Manager) Middleware(skipper middleware.Skipper, accounts Accounts) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	jwtMW := middleware.JWTWithConfig(middleware.JWTConfig{
		Skipper:       skipper,
		SigningKey:    m.secret,
		SigningMethod: middleware.AlgorithmHS256,
		Claims:        &Claims{},
		ContextKey:    tokenContextKey,
		TokenLookup:   "header:" + echo.HeaderAuthorization,
		AuthScheme:    "Bearer",
		ErrorHandlerWithContext: func(err error, c echo.Context) error {
			logger.DebugLog(c.Request().Context(), "rejected bearer token: %v", err)
			return domain.ErrUnauthorized
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		attach := func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return domain.ErrUnauthorized
			}
			claims, ok := token.Claims.(*Claims)
			if !ok {
				return domain.ErrUnauthorized
			}
			p := principalFromClaims(claims)
			ctx := c.Request().Context()
			if accounts != nil {
				var err error
				if p, err = refresh(ctx, accounts, p); err != nil {
					return err
				}
			}
			ctx = WithPrincipal(ctx, p)
			ctx = logger.WithLogger(ctx, map[string]interface{}{"user_id": p.ID, "role": p.Role})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
		return jwtMW(attach)
	}
}

// refresh replaces the token claims with the stored account state.
func refresh(ctx context.Context, accounts Accounts, p Principal) (Principal, error) {
	e, err := accounts.GetByID(ctx, p.ID)
	if errors.Is(err, domain.ErrEmployeeNotFound) {
		return Principal{}, domain.ErrUnauthorized
	}
	if err != nil {
		return Principal{}, err
	}
	if e.AccountStatus == domain.AccountInactive || e.OnboardingStage == domain.StageNotJoined {
		return Principal{}, domain.ErrAccountDeactivated
	}
	return Principal{ID: e.ID, Email: e.Email, Name: e.FullName(), Role: e.Role}, nil
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal set by Middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Current returns the principal of the request or ErrUnauthorized.
func Current(c echo.Context) (Principal, error) {
	p, ok := FromContext(c.Request().Context())
	if !ok {
		return Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// IsUnauthorized reports whether err came from token verification.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}

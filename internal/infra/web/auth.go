package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/repository"
	"image-edit-saas/internal/infra/logging"
)

type userCtxKey struct{}

// userFromContext returns the authenticated user placed by the middleware.
func userFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(*model.User)
	return u, ok
}

type authClaims struct {
	RoleID string `json:"role_id"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HMAC-signed bearer tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

func (m *JWTManager) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := authClaims{
		RoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *JWTManager) parse(token string) (*authClaims, error) {
	claims := &authClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// Authenticate validates the bearer token and attaches the active, non-deleted
// user to the request context.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, domain.ErrUnauthorized)
			return
		}

		claims, err := s.jwt.parse(token)
		if err != nil {
			s.writeError(w, r, domain.ErrUnauthorized)
			return
		}

		user, err := s.users.FindByID(r.Context(), nil, claims.Subject)
		if err != nil || !user.IsActive || user.IsDeleted {
			s.writeError(w, r, domain.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey{}, user)
		ctx = logging.WithUserID(ctx, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates admin CRUD. Runs after Authenticate.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok || user.RoleID != s.adminRoleID {
			s.writeError(w, r, domain.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveAdminRole caches the admin role id for the RequireAdmin check.
func resolveAdminRole(ctx context.Context, roles repository.RoleRepository) (string, error) {
	role, err := roles.FindByName(ctx, nil, model.RoleAdmin)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("admin role missing, seed roles first: %w", err)
		}
		return "", err
	}
	return role.ID, nil
}

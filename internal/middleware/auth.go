// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

const claimsKey contextKey = "access_claims"

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error)
}

// AccessTokenClaims is what a verified access token says about its bearer.
type AccessTokenClaims struct {
	UserID       string
	Role         core.Role
	TokenVersion int
	JTI          string
	ExpiresAt    time.Time
}

func withClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = claims.UserID
	}
	return context.WithValue(ctx, claimsKey, claims)
}

// Authenticator rejects requests without a valid bearer token.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				core.JSONError(w, core.UnauthorizedError("missing authorization token"))
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				core.JSONError(w, authError(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// RequireRole admits only the listed roles. It must run after Authenticator.
func RequireRole(roles ...core.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetUserRole(r.Context())

			switch {
			case role == "":
				core.JSONError(w, core.UnauthorizedError("authentication required"))
			case !slices.Contains(roles, role):
				core.JSONError(w, core.ForbiddenError("insufficient permissions"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

var (
	RequireAdmin   = RequireRole(core.RoleAdmin)
	RequireStudent = RequireRole(core.RoleStudent)
	RequireStaff   = RequireRole(core.RoleCook, core.RoleAdmin)
)

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func authError(err error) error {
	if core.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	default:
		return core.TokenInvalidError()
	}
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	claims, _ := ctx.Value(claimsKey).(*AccessTokenClaims)
	return claims
}

func GetUserID(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}

func GetUserRole(ctx context.Context) core.Role {
	if claims := GetClaims(ctx); claims != nil {
		return claims.Role
	}
	return ""
}

// GetActor is the identity handlers pass into service calls, the zero Actor
// for anonymous requests.
func GetActor(ctx context.Context) core.Actor {
	return core.Actor{
		UserID: GetUserID(ctx),
		Role:   GetUserRole(ctx),
	}
}

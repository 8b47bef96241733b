// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrUsernameExists     = errors.New("username already exists")
)

// expiredTokenGrace keeps expired refresh tokens around long enough that a
// late reuse is still recognised as reuse rather than as an unknown token.
const expiredTokenGrace = 24 * time.Hour

type UserInfo struct {
	ID           string
	Username     string
	PasswordHash string
	Role         core.Role
	TokenVersion int
	CreatedAt    time.Time
}

// UserProvider is the slice of the user service that authentication needs.
type UserProvider interface {
	GetByUsername(ctx context.Context, username string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	CreateStudent(ctx context.Context, username, passwordHash string) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type TokenIssuer interface {
	CreateAccessToken(claims AccessTokenClaims) (string, error)
	CreateRefreshToken(userID, familyID string) (*RefreshTokenData, error)
	VerifyAccessToken(ctx context.Context, token string) (*middleware.AccessTokenClaims, error)
	AccessTTL() time.Duration
}

// Client identifies the device a refresh token was issued to.
type Client struct {
	UserAgent string
	IPAddress string
}

type Service struct {
	store     core.Transactor[Repository]
	tokens    TokenIssuer
	users     UserProvider
	blacklist Blacklist
}

func NewService(
	store core.Transactor[Repository],
	tokens TokenIssuer,
	users UserProvider,
	blacklist Blacklist,
) *Service {
	return &Service{
		store:     store,
		tokens:    tokens,
		users:     users,
		blacklist: blacklist,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest, client Client) (*AuthResponse, error) {
	var stored *string

	user, err := s.users.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		stored = &user.PasswordHash
	case !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("login: %w", err)
	}

	valid, upgraded, err := core.VerifyPasswordTimingSafe(req.Password, stored)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if upgraded != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, upgraded); err != nil {
			slog.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	return s.startSession(ctx, user, client)
}

// Register creates a student account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest, client Client) (*AuthResponse, error) {
	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.users.CreateStudent(ctx, req.Username, hash)
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, ErrUsernameExists
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	slog.InfoContext(ctx, "student registered", "user_id", user.ID)

	return s.startSession(ctx, user, client)
}

// Refresh exchanges a refresh token for a new pair. Each token is single
// use: presenting a consumed one revokes its whole family.
func (s *Service) Refresh(ctx context.Context, refreshToken string, client Client) (*AuthResponse, error) {
	current, err := s.store.Repos().FindByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	switch {
	case current.IsUsed:
		return nil, s.revokeFamily(ctx, current.FamilyID)
	case current.IsRevoked():
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case current.IsExpired():
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, current.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	resp, next, err := s.issue(user, client, current.FamilyID)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(repo Repository) error {
		if err := repo.Consume(ctx, current.ID, next.ID); err != nil {
			return err
		}
		return repo.Create(ctx, next)
	})
	if errors.Is(err, core.ErrNotFound) {
		// another request consumed the same token first
		return nil, s.revokeFamily(ctx, current.FamilyID)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return resp, nil
}

func (s *Service) revokeFamily(ctx context.Context, familyID string) error {
	slog.WarnContext(ctx, "refresh token reuse, revoking family", "family_id", familyID)

	if err := s.store.Repos().RevokeFamily(ctx, familyID); err != nil {
		slog.ErrorContext(ctx, "revoke token family failed",
			"family_id", familyID,
			"error", err,
		)
	}
	return ErrTokenReuse
}

// Logout blacklists the access token the request carried and, when given,
// revokes the caller's refresh token.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return fmt.Errorf("logout: %w", core.ErrUnauthorized)
	}

	if err := s.blacklist.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if refreshToken == "" {
		return nil
	}

	repo := s.store.Repos()

	stored, err := repo.FindByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if !stored.BelongsTo(claims.UserID) {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := repo.RevokeToken(ctx, stored.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// LogoutAll ends every session of the user. Bumping the token version
// invalidates access tokens that are still within their lifetime.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.store.Repos().RevokeUser(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

// VerifyAccessToken checks the signature, then the jti blacklist, then the
// user's current token version.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.JTI != "" {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.JTI)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "blacklist check failed", "error", err)
		case revoked:
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.store.Repos().PurgeExpired(ctx, time.Now().Add(-expiredTokenGrace))
}

func (s *Service) startSession(ctx context.Context, user *UserInfo, client Client) (*AuthResponse, error) {
	resp, record, err := s.issue(user, client, "")
	if err != nil {
		return nil, err
	}

	if err := s.store.Repos().Create(ctx, record); err != nil {
		return nil, err
	}

	return resp, nil
}

// issue mints an access and refresh token pair. The returned record must be
// stored before the refresh token is usable.
func (s *Service) issue(
	user *UserInfo,
	client Client,
	familyID string,
) (*AuthResponse, *RefreshToken, error) {
	access, err := s.tokens.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	refresh, err := s.tokens.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	record := &RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refresh.Hash,
		FamilyID:  refresh.FamilyID,
		ExpiresAt: refresh.ExpiresAt,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
	}

	ttl := s.tokens.AccessTTL()

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  access,
			RefreshToken: refresh.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
	}, record, nil
}

func toUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

var _ middleware.TokenVerifier = (*Service)(nil)

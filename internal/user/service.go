// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/canteen-backend/internal/auth"
	"github.com/carterperez-dev/canteen-backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NormalizeUsername trims and lowercases so that "Alice " and "alice" are
// the same account.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByUsername(
	ctx context.Context,
	username string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// CreateStudent registers a self-service account. Students start with an
// empty balance and no subscription.
func (s *Service) CreateStudent(
	ctx context.Context,
	username, passwordHash string,
) (*auth.UserInfo, error) {
	user, err := s.create(ctx, username, passwordHash, core.RoleStudent)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if err := core.RequireID("get user", id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) CreateStaff(
	ctx context.Context,
	actor core.Actor,
	req CreateStaffRequest,
) (*User, error) {
	if err := actor.Require("create staff", core.RoleAdmin); err != nil {
		return nil, err
	}

	role := core.Role(req.Role)
	if !role.IsStaff() {
		return nil, fmt.Errorf(
			"create staff: invalid role %q: %w",
			req.Role,
			core.ErrInvalidInput,
		)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.create(ctx, req.Username, passwordHash, role)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "staff account created",
		"user_id", user.ID,
		"role", user.Role,
		"created_by", actor.UserID,
	)

	return user, nil
}

func (s *Service) ListStaff(ctx context.Context, actor core.Actor) ([]User, error) {
	if err := actor.Require("list staff", core.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.ListStaff(ctx)
}

func (s *Service) ListUsers(
	ctx context.Context,
	actor core.Actor,
	params ListUsersParams,
) ([]User, int, error) {
	if err := actor.Require("list users", core.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, params)
}

// EnsureAdmin creates the bootstrap administrator unless the username is
// already taken. It is safe to call on every start.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}

	_, err := s.repo.GetByUsername(ctx, NormalizeUsername(username))
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	passwordHash, err := core.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := s.create(ctx, username, passwordHash, core.RoleAdmin)
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	slog.InfoContext(ctx, "bootstrap admin created", "user_id", user.ID)
	return nil
}

func (s *Service) create(
	ctx context.Context,
	username, passwordHash string,
	role core.Role,
) (*User, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("create user: empty username: %w", core.ErrInvalidInput)
	}

	user := &User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)

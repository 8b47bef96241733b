// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/middleware"
)

type memTokens struct {
	mu     sync.Mutex
	byHash map[string]*RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{byHash: map[string]*RefreshToken{}}
}

func (m *memTokens) Create(_ context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.CreatedAt = time.Now()
	cp := *token
	m.byHash[token.TokenHash] = &cp
	return nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) each(fn func(*RefreshToken)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byHash {
		fn(t)
	}
}

func (m *memTokens) Consume(_ context.Context, id, replacedBy string) error {
	consumed := false
	now := time.Now()
	m.each(func(t *RefreshToken) {
		if t.ID == id && !t.IsUsed {
			t.IsUsed, t.UsedAt, t.ReplacedByID = true, &now, &replacedBy
			consumed = true
		}
	})
	if !consumed {
		return core.ErrNotFound
	}
	return nil
}

func (m *memTokens) revoke(match func(*RefreshToken) bool) int {
	n := 0
	now := time.Now()
	m.each(func(t *RefreshToken) {
		if match(t) && t.RevokedAt == nil {
			t.RevokedAt = &now
			n++
		}
	})
	return n
}

func (m *memTokens) RevokeToken(_ context.Context, id string) error {
	if m.revoke(func(t *RefreshToken) bool { return t.ID == id }) == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (m *memTokens) RevokeFamily(_ context.Context, familyID string) error {
	m.revoke(func(t *RefreshToken) bool { return t.FamilyID == familyID })
	return nil
}

func (m *memTokens) RevokeUser(_ context.Context, userID string) error {
	m.revoke(func(t *RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (m *memTokens) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, t := range m.byHash {
		if t.ExpiresAt.Before(before) {
			delete(m.byHash, hash)
			n++
		}
	}
	return n, nil
}

// memStore runs transactions directly against memTokens. stealNext, when
// set, consumes the token being rotated just before the rotation does.
type memStore struct {
	tokens    *memTokens
	stealNext bool
}

func (s *memStore) Repos() Repository { return s.tokens }

func (s *memStore) InTx(ctx context.Context, fn func(Repository) error) error {
	if s.stealNext {
		s.stealNext = false
		s.tokens.each(func(t *RefreshToken) {
			if !t.IsUsed {
				t.IsUsed = true
			}
		})
	}
	return fn(s.tokens)
}

type memUsers struct {
	byName map[string]*UserInfo
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*UserInfo, error) {
	u, ok := m.byName[username]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	for _, u := range m.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) CreateStudent(_ context.Context, username, hash string) (*UserInfo, error) {
	if _, ok := m.byName[username]; ok {
		return nil, core.ErrDuplicateKey
	}
	u := &UserInfo{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         core.RoleStudent,
		CreatedAt:    time.Now(),
	}
	m.byName[username] = u
	return u, nil
}

func (m *memUsers) IncrementTokenVersion(_ context.Context, id string) error {
	for _, u := range m.byName {
		if u.ID == id {
			u.TokenVersion++
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	for _, u := range m.byName {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return core.ErrNotFound
}

type memBlacklist struct {
	revoked map[string]bool
}

func (b *memBlacklist) Revoke(_ context.Context, jti string, _ time.Time) error {
	b.revoked[jti] = true
	return nil
}

func (b *memBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return b.revoked[jti], nil
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()

	store := &memStore{tokens: newMemTokens()}
	svc := NewService(
		store,
		newTestJWTManager(t, "canteen-api"),
		&memUsers{byName: map[string]*UserInfo{}},
		&memBlacklist{revoked: map[string]bool{}},
	)
	return svc, store
}

func register(t *testing.T, svc *Service, username string) *AuthResponse {
	t.Helper()

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Password: "correct horse battery",
	}, Client{UserAgent: "test", IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	return resp
}

func verify(t *testing.T, svc *Service, token string) (*middleware.AccessTokenClaims, error) {
	t.Helper()
	return svc.VerifyAccessToken(context.Background(), token)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "ann")
	assert.Equal(t, core.RoleStudent, reg.User.Role)

	_, err := svc.Register(ctx, RegisterRequest{Username: "ann", Password: "another password"}, Client{})
	assert.ErrorIs(t, err, ErrUsernameExists)

	login, err := svc.Login(ctx, LoginRequest{Username: "ann", Password: "correct horse battery"}, Client{})
	require.NoError(t, err)

	claims, err := verify(t, svc, login.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	_, err = svc.Login(ctx, LoginRequest{Username: "ann", Password: "wrong password"}, Client{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "whatever"}, Client{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "ben")

	rotated, err := svc.Refresh(ctx, reg.Tokens.RefreshToken, Client{})
	require.NoError(t, err)
	assert.NotEqual(t, reg.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	_, err = svc.Refresh(ctx, reg.Tokens.RefreshToken, Client{})
	assert.ErrorIs(t, err, ErrTokenReuse)

	_, err = svc.Refresh(ctx, rotated.Tokens.RefreshToken, Client{})
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = svc.Refresh(ctx, "unknown", Client{})
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestLogoutBlacklistsAccessToken(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "cat")
	claims, err := verify(t, svc, reg.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, reg.Tokens.RefreshToken, claims))

	_, err = verify(t, svc, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	stored, err := store.tokens.FindByHash(ctx, core.HashToken(reg.Tokens.RefreshToken))
	require.NoError(t, err)
	assert.True(t, stored.IsRevoked())
}

func TestLogoutRejectsOtherUsersRefreshToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ann := register(t, svc, "ann")
	ben := register(t, svc, "ben")

	claims, err := verify(t, svc, ben.Tokens.AccessToken)
	require.NoError(t, err)

	err = svc.Logout(ctx, ann.Tokens.RefreshToken, claims)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestLogoutAllInvalidatesIssuedTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "dan")

	require.NoError(t, svc.LogoutAll(ctx, reg.User.ID))

	_, err := verify(t, svc, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = svc.Refresh(ctx, reg.Tokens.RefreshToken, Client{})
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRefreshLosingRaceCountsAsReuse(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "eve")

	store.stealNext = true
	_, err := svc.Refresh(ctx, reg.Tokens.RefreshToken, Client{})
	assert.ErrorIs(t, err, ErrTokenReuse)

	stored, err := store.tokens.FindByHash(ctx, core.HashToken(reg.Tokens.RefreshToken))
	require.NoError(t, err)
	assert.True(t, stored.IsRevoked())
}

func TestRefreshRecordsClientAndFamily(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "fay")
	first, err := store.tokens.FindByHash(ctx, core.HashToken(reg.Tokens.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, "test", first.UserAgent)
	assert.Equal(t, "127.0.0.1", first.IPAddress)

	rotated, err := svc.Refresh(ctx, reg.Tokens.RefreshToken, Client{UserAgent: "phone"})
	require.NoError(t, err)

	next, err := store.tokens.FindByHash(ctx, core.HashToken(rotated.Tokens.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, first.FamilyID, next.FamilyID)
	assert.Equal(t, "phone", next.UserAgent)

	consumed, err := store.tokens.FindByHash(ctx, core.HashToken(reg.Tokens.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, consumed.ReplacedByID)
	assert.Equal(t, next.ID, *consumed.ReplacedByID)
}

func TestPurgeExpiredTokensKeepsRecentOnes(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	reg := register(t, svc, "gus")

	require.NoError(t, store.tokens.Create(ctx, &RefreshToken{
		ID:        uuid.NewString(),
		UserID:    reg.User.ID,
		TokenHash: "stale",
		FamilyID:  uuid.NewString(),
		ExpiresAt: time.Now().Add(-48 * time.Hour),
	}))

	purged, err := svc.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.tokens.FindByHash(ctx, core.HashToken(reg.Tokens.RefreshToken))
	assert.NoError(t, err)
}

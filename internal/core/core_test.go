// AngelaMos | 2026
// core_test.go

package core

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("s3cret-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("x", "not-a-hash")
	assert.Error(t, err)
}

func TestVerifyPasswordTimingSafeUnknownUser(t *testing.T) {
	ok, rehash, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestRehashOnWeakerParams(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	weaker := strings.Replace(hash, fmt.Sprintf("m=%d", currentArgon.memory), "m=32768", 1)
	assert.True(t, needsRehash(weaker))
	assert.False(t, needsRehash(hash))
}

func TestVerifyPasswordTimingSafeUpgradesWeakHash(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	ok, rehash, err := VerifyPasswordTimingSafe("pw", &hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)

	salt := []byte("0123456789abcdef")
	weak := argonParams{memory: 32 * 1024, time: 1, threads: 2, keyLen: 32}
	weakHash := weak.encode(salt, weak.derive("pw", salt))

	ok, rehash, err = VerifyPasswordTimingSafe("pw", &weakHash)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, rehash)
	assert.False(t, needsRehash(rehash))

	ok, rehash, err = VerifyPasswordTimingSafe("wrong", &weakHash)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestTokenHashing(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)

	hash := HashToken(token)
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashToken(token))
	assert.NotEqual(t, hash, HashToken(token+"x"))
}

func TestActorRequire(t *testing.T) {
	err := Actor{}.Require("op", RoleStudent)
	assert.ErrorIs(t, err, ErrUnauthorized)

	cook := Actor{UserID: "u", Role: RoleCook}
	assert.NoError(t, cook.Require("op", RoleCook, RoleAdmin))
	assert.ErrorIs(t, cook.Require("op", RoleAdmin), ErrForbidden)

	assert.True(t, RoleAdmin.IsStaff())
	assert.False(t, RoleStudent.IsStaff())
	assert.False(t, Role("guest").Valid())
}

func TestRequireID(t *testing.T) {
	assert.NoError(t, RequireID("op", uuid.NewString()))
	assert.ErrorIs(t, RequireID("op", "42"), ErrNotFound)
	assert.ErrorIs(t, RequireID("op", ""), ErrNotFound)
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  bool
	}{
		{"zero", 0, true},
		{"whole", 3000, true},
		{"cents", 12.34, true},
		{"float noise", 0.1 + 0.2, true},
		{"column maximum", MaxAmount, true},
		{"sub cent", 0.004, false},
		{"three decimals", 1.005, false},
		{"negative", -1, false},
		{"above column", 1e12, false},
		{"nan", math.NaN(), false},
		{"infinity", math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAmount(tt.value))
		})
	}
}

func TestFormatValidationError(t *testing.T) {
	type payload struct {
		Name   string  `validate:"required"`
		Amount float64 `validate:"gt=0"`
	}

	err := validator.New().Struct(payload{Amount: -1})
	msg := FormatValidationError(err)

	assert.Contains(t, msg, "name is required")
	assert.Contains(t, msg, "amount must be greater than 0")
	assert.Equal(t, "invalid request", FormatValidationError(assert.AnError))
}

func TestHandleErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("debit: %w", ErrInsufficientFunds), http.StatusPaymentRequired, "INSUFFICIENT_FUNDS"},
		{fmt.Errorf("associate: %w", ErrAlreadyExists), http.StatusConflict, "ALREADY_EXISTS"},
		{fmt.Errorf("create: %w", ErrDuplicateKey), http.StatusConflict, "DUPLICATE"},
		{fmt.Errorf("resolve: %w", ErrInvalidState), http.StatusConflict, "INVALID_STATE"},
		{fmt.Errorf("top up: %w", ErrInvalidInput), http.StatusBadRequest, ""},
		{fmt.Errorf("op: %w", ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("op: %w", ErrUnauthorized), http.StatusUnauthorized, "UNAUTHORIZED"},
		{TokenRevokedError(), http.StatusUnauthorized, "TOKEN_REVOKED"},
		{assert.AnError, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err, "thing")

			assert.Equal(t, tt.status, rec.Code)

			var body Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			if tt.code != "" {
				assert.Equal(t, tt.code, body.Error.Code)
			}
		})
	}
}

func TestOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"balance": 1000})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"balance":1000}}`, rec.Body.String())
}

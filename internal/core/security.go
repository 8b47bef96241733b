// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var errMalformedHash = errors.New("malformed password hash")

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// currentArgon is what new hashes use. Stored hashes with other parameters
// still verify and are upgraded on the next successful login.
var currentArgon = argonParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

const saltLength = 16

func (p argonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

// encode renders the PHC string form: $argon2id$v=19$m=..,t=..,p=..$salt$hash
func (p argonParams) encode(salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return currentArgon.encode(salt, currentArgon.derive(password, salt)), nil
}

func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(key, params.derive(password, salt)) == 1, nil
}

var (
	unknownUserHash     string
	unknownUserHashOnce sync.Once
)

// placeholderHash is verified against when the username does not exist so
// login latency does not reveal which accounts are registered.
func placeholderHash() string {
	unknownUserHashOnce.Do(func() {
		hash, err := HashPassword("canteen-placeholder-password")
		if err != nil {
			panic(fmt.Sprintf("security: generate placeholder hash: %v", err))
		}
		unknownUserHash = hash
	})
	return unknownUserHash
}

// VerifyPasswordTimingSafe always runs one argon2 derivation. A nil or
// empty encoded hash never verifies. When the stored hash uses outdated
// parameters and the password matches, rehash holds its replacement.
func VerifyPasswordTimingSafe(
	password string,
	encoded *string,
) (valid bool, rehash string, err error) {
	known := encoded != nil && *encoded != ""

	target := placeholderHash()
	if known {
		target = *encoded
	}

	valid, err = VerifyPassword(password, target)
	if !known {
		return false, "", nil
	}
	if err != nil || !valid {
		return false, "", err
	}

	if needsRehash(target) {
		if upgraded, hashErr := HashPassword(password); hashErr == nil {
			rehash = upgraded
		}
	}

	return true, rehash, nil
}

func decodeHash(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: version %q", errMalformedHash, parts[2])
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params: %w", errMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %w", errMalformedHash, err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %w", errMalformedHash, err)
	}

	//nolint:gosec // G115: argon2 keys are a few dozen bytes
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}

func needsRehash(encoded string) bool {
	params, _, _, err := decodeHash(encoded)
	return err != nil || params != currentArgon
}

// GenerateRefreshToken returns 32 random bytes, URL-safe encoded. Only its
// HashToken digest is stored.
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Package passwords hashes and verifies admin passwords.
//
// New hashes are bcrypt. Verification also accepts Argon2id hashes in the
// PHC format ($argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>) that older
// accounts may still carry; those are flagged by NeedsRehash so the login
// flow can upgrade them.
package passwords

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost for new hashes.
const DefaultCost = 12

// ErrTooLong: bcrypt ignores everything after 72 bytes, so we refuse.
var ErrTooLong = errors.New("wachtwoord is langer dan 72 bytes")

// Argon2id parameters for HashArgon2id.
const (
	argonMemory      uint32 = 64 * 1024
	argonIterations  uint32 = 3
	argonParallelism uint8  = 2
	argonKeyLength   uint32 = 32
	argonSaltLength         = 16
)

// dummyHash is compared against when an account does not exist so that
// unknown and known emails take the same time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), DefaultCost)

// Hash returns a bcrypt hash of password.
func Hash(password string) (string, error) {
	return HashWithCost(password, DefaultCost)
}

// HashWithCost hashes with a custom cost; tests use bcrypt.MinCost.
func HashWithCost(password string, cost int) (string, error) {
	if len(password) > 72 {
		return "", ErrTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt: ongeldige cost %d", cost)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash mislukt: %w", err)
	}
	return string(h), nil
}

// Verify reports whether password matches encodedHash. Unknown formats
// never match.
func Verify(encodedHash, password string) bool {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return verifyArgon2id(password, encodedHash)
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
	}
	log.Warn("Unknown password hash format")
	return false
}

// VerifyDummy burns the same time as a real bcrypt comparison.
func VerifyDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// NeedsRehash is true for Argon2id hashes and bcrypt hashes below DefaultCost.
func NeedsRehash(encodedHash string) bool {
	if strings.HasPrefix(encodedHash, "$argon2id$") {
		return true
	}
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return true
	}
	return cost < DefaultCost
}

// HashArgon2id produces a PHC-formatted Argon2id hash. Kept for
// deployments that provision hashes outside this service.
func HashArgon2id(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt genereren mislukt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// verifyArgon2id recomputes the hash with the parameters stored in it.
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Malformed Argon2id hash")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Failed to parse Argon2id parameters")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Failed to decode Argon2id salt")
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Failed to decode Argon2id hash")
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

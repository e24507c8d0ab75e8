package passwords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	tests := []struct {
		name        string
		password    string
		expectError bool
	}{
		{name: "regular password", password: "Correct-Horse-1"},
		{name: "unicode password", password: "wachtwoord-ëï🔒"},
		{name: "72 bytes", password: strings.Repeat("a", 72)},
		{name: "73 bytes", password: strings.Repeat("a", 73), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashWithCost(tt.password, bcrypt.MinCost)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrTooLong)
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(hash, "$2a$"))
			assert.True(t, Verify(hash, tt.password))
			assert.False(t, Verify(hash, tt.password+"x"))
		})
	}
}

func TestHashWithCost_InvalidCost(t *testing.T) {
	_, err := HashWithCost("secret", bcrypt.MaxCost+1)
	assert.Error(t, err)
}

func TestArgon2idRoundTrip(t *testing.T) {
	hash, err := HashArgon2id("geheim123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$"))

	assert.True(t, Verify(hash, "geheim123"))
	assert.False(t, Verify(hash, "geheim124"))
	assert.True(t, NeedsRehash(hash))
}

func TestVerify_MalformedHashes(t *testing.T) {
	for _, h := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$broken",
		"$argon2id$v=19$m=x,t=y,p=z$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	} {
		assert.False(t, Verify(h, "anything"), "hash %q must not verify", h)
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := HashWithCost("pw", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, NeedsRehash(weak))
	assert.True(t, NeedsRehash("garbage"))

	strong, err := HashWithCost("pw", DefaultCost)
	require.NoError(t, err)
	assert.False(t, NeedsRehash(strong))
}

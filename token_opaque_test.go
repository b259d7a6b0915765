package identity_test

import (
	"encoding/base64"
	"strings"
	"testing"

	identity "github.com/ninjaguyyyy/go-identity"

	"github.com/stretchr/testify/assert"
)

func TestNewOpaqueToken(t *testing.T) {
	t.Run("encodes at least 256 bits of entropy", func(t *testing.T) {
		token, err := identity.NewOpaqueToken()

		assert.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, len(raw), 32)
	})

	t.Run("is URL safe", func(t *testing.T) {
		token, err := identity.NewOpaqueToken()

		assert.NoError(t, err)
		assert.False(t, strings.ContainsAny(token, "+/="))
	})

	t.Run("never repeats", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			token, err := identity.NewOpaqueToken()
			assert.NoError(t, err)
			assert.False(t, seen[token])
			seen[token] = true
		}
	})
}

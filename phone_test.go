package identity_test

import (
	"testing"

	identity "github.com/ninjaguyyyy/go-identity"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	t.Run("national JP number becomes E.164", func(t *testing.T) {
		got, err := identity.NormalizePhone("090-1234-5678", "JP")

		assert.NoError(t, err)
		assert.Equal(t, "+819012345678", got)
	})

	t.Run("already international number keeps its prefix", func(t *testing.T) {
		got, err := identity.NormalizePhone("+81 90 1234 5678", "JP")

		assert.NoError(t, err)
		assert.Equal(t, "+819012345678", got)
	})

	t.Run("equivalent spellings collapse to one canonical form", func(t *testing.T) {
		a, err := identity.NormalizePhone("09012345678", "JP")
		assert.NoError(t, err)

		b, err := identity.NormalizePhone("+81-90-1234-5678", "JP")
		assert.NoError(t, err)

		assert.Equal(t, a, b)
	})

	t.Run("rejects unparseable input", func(t *testing.T) {
		_, err := identity.NormalizePhone("definitely-not-a-phone", "JP")
		assert.Error(t, err)
	})

	t.Run("rejects numbers invalid for the region", func(t *testing.T) {
		_, err := identity.NormalizePhone("12", "JP")
		assert.Error(t, err)
	})
}

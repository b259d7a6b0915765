package identity_test

import (
	"testing"
	"time"

	identity "github.com/ninjaguyyyy/go-identity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestSessionClaimsAccessors(t *testing.T) {
	now := time.Now()
	claims := &identity.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "issuer",
			Subject:   "subject-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID:       "user-1",
		UserName:  "Hanako",
		UserEmail: "hanako@example.com",
		UserRole:  "user",
	}

	assert.Equal(t, "subject-1", claims.Subject())
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "Hanako", claims.Name())
	assert.Equal(t, "hanako@example.com", claims.Email())
	assert.Equal(t, "user", claims.Role())
	assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
	assert.WithinDuration(t, now.Add(time.Hour), claims.Expires(), time.Second)
}

func TestSessionClaimsUserIDFallsBackToSubject(t *testing.T) {
	claims := &identity.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-1"},
	}

	assert.Equal(t, "subject-1", claims.UserID())
}

func TestSessionClaimsHasRole(t *testing.T) {
	claims := &identity.SessionClaims{UserRole: "admin"}

	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("user"))
	assert.False(t, claims.HasRole(""))
}

func TestSessionClaimsZeroTimes(t *testing.T) {
	claims := &identity.SessionClaims{}

	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}

package identity

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/goliatone/go-errors"
)

// opaqueTokenBytes is the raw entropy of an opaque token; 32 bytes keeps the
// collision probability negligible even across billions of issued tokens.
const opaqueTokenBytes = 32

// NewOpaqueToken returns a cryptographically random, URL-safe string used as
// a single-use capability in verification and reset links. The token is not
// decodable, only look-up-able; uniqueness is still enforced by the store.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate opaque token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

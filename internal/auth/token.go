package auth

import (
	"time"

	"github.com/gorilla/securecookie"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "session"

// TokenMaxAge bounds how long a signed token stays valid.
const TokenMaxAge = 7 * 24 * time.Hour

// TokenCodec signs and verifies session tokens. Tokens are HMAC-signed
// only, not encrypted: they carry nothing but the user id.
type TokenCodec struct {
	sc *securecookie.SecureCookie
}

func NewTokenCodec(secret []byte) *TokenCodec {
	sc := securecookie.New(secret, nil)
	sc.MaxAge(int(TokenMaxAge / time.Second))
	return &TokenCodec{sc: sc}
}

func (c *TokenCodec) Sign(userID string) (string, error) {
	return c.sc.Encode(CookieName, userID)
}

// Verify checks the token's signature and age and returns the user id it
// was issued for. Any failure maps to ErrBadToken.
func (c *TokenCodec) Verify(token string) (string, error) {
	var userID string
	if err := c.sc.Decode(CookieName, token, &userID); err != nil {
		return "", ErrBadToken
	}
	return userID, nil
}

package ghost

import (
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
)

const (
	tokenTTL      = 5 * time.Minute
	tokenAudience = "/admin/"
)

// TokenIssuer signs short-lived Admin API tokens from an "id:secret" key.
type TokenIssuer struct {
	now func() time.Time
}

// NewTokenIssuer returns an issuer using the wall clock.
func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{now: time.Now}
}

// NewTokenIssuerWithClock returns an issuer reading time from now.
func NewTokenIssuerWithClock(now func() time.Time) *TokenIssuer {
	return &TokenIssuer{now: now}
}

// Issue returns an HS256 JWT valid for five minutes. The key id goes into
// the "kid" header and the hex secret is the signing key. Any problem with
// the key is INVALID_API_KEY.
func (i *TokenIssuer) Issue(apiKey string) (string, error) {
	creds, err := domain.ParseCredentials(apiKey)
	if err != nil {
		return "", err
	}

	secret, err := hex.DecodeString(creds.Secret)
	if err != nil || len(secret) == 0 {
		return "", domain.NewError(domain.CodeInvalidAPIKey, err)
	}

	iat := i.now().Unix()
	// MapClaims keeps "aud" a plain string; Ghost rejects the array form.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": iat,
		"exp": iat + int64(tokenTTL/time.Second),
		"aud": tokenAudience,
	})
	token.Header["kid"] = creds.ID

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", domain.NewError(domain.CodeInvalidAPIKey, err)
	}
	return signed, nil
}

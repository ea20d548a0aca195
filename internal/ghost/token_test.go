package ghost

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrSnakeDoc/ghostmark/internal/domain"
)

const (
	testKeyID  = "6489a2f5c1e4d30001d9b0c1"
	testSecret = "8f4d1c6b2a9e7f3d5c1b8a6e4f2d0c9b7a5e3f1d8c6b4a2e0f9d7c5b3a1e8f6d"
	testAPIKey = testKeyID + ":" + testSecret
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueClaims(t *testing.T) {
	issuedAt := time.Unix(1700000000, 0)
	raw, err := NewTokenIssuerWithClock(fixedClock(issuedAt)).Issue(testAPIKey)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	secret, _ := hex.DecodeString(testSecret)
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience("/admin/"),
		jwt.WithTimeFunc(fixedClock(issuedAt.Add(time.Minute))),
	)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}

	if token.Header["kid"] != testKeyID {
		t.Errorf("kid = %v, want %s", token.Header["kid"], testKeyID)
	}
	if token.Header["typ"] != "JWT" {
		t.Errorf("typ = %v, want JWT", token.Header["typ"])
	}

	claims := token.Claims.(jwt.MapClaims)
	if claims["aud"] != "/admin/" {
		t.Errorf("aud = %#v, want the plain string /admin/", claims["aud"])
	}
	if claims["iat"] != float64(1700000000) {
		t.Errorf("iat = %v", claims["iat"])
	}
	if claims["exp"] != float64(1700000300) {
		t.Errorf("exp = %v, want iat+300", claims["exp"])
	}
}

func TestIssueExpiresAfterFiveMinutes(t *testing.T) {
	issuedAt := time.Unix(1700000000, 0)
	raw, err := NewTokenIssuerWithClock(fixedClock(issuedAt)).Issue(testAPIKey)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	secret, _ := hex.DecodeString(testSecret)
	_, err = jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithTimeFunc(fixedClock(issuedAt.Add(6*time.Minute))))
	if err == nil {
		t.Fatal("token still valid six minutes after issue")
	}
}

func TestIssueDeterministic(t *testing.T) {
	issuer := NewTokenIssuerWithClock(fixedClock(time.Unix(1700000000, 0)))
	a, err := issuer.Issue(testAPIKey)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	b, _ := issuer.Issue(testAPIKey)
	if a != b {
		t.Errorf("same key and clock produced different tokens:\n%s\n%s", a, b)
	}
}

func TestIssueInvalidKey(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
	}{
		{"empty", ""},
		{"missing secret", testKeyID + ":"},
		{"missing id", ":" + testSecret},
		{"no separator", testKeyID + testSecret},
		{"secret not hex", testKeyID + ":not-a-hex-secret"},
	}

	issuer := NewTokenIssuer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := issuer.Issue(tt.apiKey)
			if err == nil {
				t.Fatalf("Issue(%q) = %q, want error", tt.apiKey, tok)
			}
			if domain.CodeOf(err) != domain.CodeInvalidAPIKey {
				t.Errorf("code = %s, want %s", domain.CodeOf(err), domain.CodeInvalidAPIKey)
			}
		})
	}
}

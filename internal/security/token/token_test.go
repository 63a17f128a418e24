package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func sign(t *testing.T, secret []byte, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestVerifierRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	v := &Verifier{Secret: secret, Issuer: "stepup"}
	want := uuid.New()

	raw := sign(t, secret, jwt.RegisteredClaims{
		Subject:   want.String(),
		Issuer:    "stepup",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	got, err := v.UserID(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("user = %s, want %s", got, want)
	}
}

func TestVerifierRejectsBadSecret(t *testing.T) {
	v := &Verifier{Secret: []byte("right")}
	raw := sign(t, []byte("wrong"), jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if _, err := v.UserID(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestVerifierRejectsExpired(t *testing.T) {
	secret := []byte("s")
	v := &Verifier{Secret: secret}
	raw := sign(t, secret, jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	if _, err := v.UserID(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestVerifierRejectsNonUUIDSubject(t *testing.T) {
	secret := []byte("s")
	v := &Verifier{Secret: secret}
	raw := sign(t, secret, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if _, err := v.UserID(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

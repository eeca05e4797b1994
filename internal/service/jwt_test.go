package service

import (
	"testing"

	"coinflip_arena/internal/domain"
)

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	player := domain.AddressFromSeed("jwt-player")
	token, err := GenerateJWT(player)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	got, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != player {
		t.Fatalf("parsed %s, want %s", got.Hex(), player.Hex())
	}
}

func TestJWTRejectsTampering(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	token, err := GenerateJWT(domain.AddressFromSeed("jwt-player"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseJWT(token + "x"); err == nil {
		t.Fatal("tampered token must fail")
	}
	if _, err := ParseJWT("not-a-token"); err == nil {
		t.Fatal("garbage token must fail")
	}

	// A token signed with a different secret is rejected.
	jwtSecret = []byte("other-secret")
	stranger, err := GenerateJWT(domain.AddressFromSeed("stranger"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	jwtSecret = []byte("test-secret")
	if _, err := ParseJWT(stranger); err == nil {
		t.Fatal("token from another issuer must fail")
	}
}

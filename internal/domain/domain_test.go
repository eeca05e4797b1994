package domain

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestParseAddressRoundTrip(t *testing.T) {
	a := AddressFromSeed("roundtrip")
	parsed, err := ParseAddress(a.Hex())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != a {
		t.Fatalf("roundtrip mismatch: %s vs %s", parsed.Hex(), a.Hex())
	}

	// Without the 0x prefix and with surrounding whitespace.
	parsed, err = ParseAddress(" " + a.Hex()[2:] + " ")
	if err != nil {
		t.Fatalf("parse bare hex: %v", err)
	}
	if parsed != a {
		t.Fatal("bare hex must parse to the same address")
	}

	for _, bad := range []string{"", "0x12", "0xzz", a.Hex() + "00"} {
		if _, err := ParseAddress(bad); err == nil {
			t.Errorf("ParseAddress(%q) must fail", bad)
		}
	}
}

func TestParseHashRoundTrip(t *testing.T) {
	h := SaltFromString("roundtrip")
	parsed, err := ParseHash(h.Hex())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != h {
		t.Fatal("roundtrip mismatch")
	}
	if _, err := ParseHash("0x1234"); err == nil {
		t.Fatal("short hash must fail")
	}
}

func TestAddressJSON(t *testing.T) {
	a := AddressFromSeed("json")
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != fmt.Sprintf("%q", a.Hex()) {
		t.Fatalf("marshaled = %s", b)
	}
	var back Address
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != a {
		t.Fatal("json roundtrip mismatch")
	}
}

func TestCoinSide(t *testing.T) {
	if SideHeads.Opposite() != SideTails || SideTails.Opposite() != SideHeads {
		t.Fatal("opposite sides wrong")
	}
	if !SideHeads.Valid() || !SideTails.Valid() || CoinSide("edge").Valid() {
		t.Fatal("validity wrong")
	}

	side, err := ParseCoinSide("heads")
	if err != nil || side != SideHeads {
		t.Fatalf("parse heads: %v, %v", side, err)
	}
	if _, err := ParseCoinSide("edge"); err == nil {
		t.Fatal("parsing an unknown side must fail")
	}
}

func TestKindClassification(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{ErrInvalidArgument, KindValidation},
		{ErrStalenessTooHigh, KindValidation},
		{ErrUnauthorized, KindAuthorization},
		{ErrAlreadyCompleted, KindState},
		{ErrSelfJoin, KindState},
		{ErrTooFresh, KindTiming},
		{ErrTooStale, KindTiming},
		{ErrRandomnessNotReady, KindExternal},
		{ErrTransferFailed, KindExternal},
		{ErrInvalidRandomness, KindIntegrity},
		{fmt.Errorf("wrapped: %w", ErrTooStale), KindTiming},
		{fmt.Errorf("some other failure"), KindUnknown},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestSaltFromStringIsStable(t *testing.T) {
	if SaltFromString("a") != SaltFromString("a") {
		t.Fatal("salts must be deterministic")
	}
	if SaltFromString("a") == SaltFromString("b") {
		t.Fatal("distinct strings must yield distinct salts")
	}
}

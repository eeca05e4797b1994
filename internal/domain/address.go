package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Address identifies a participant or a deployed instance (game, manager,
// factory, coordinator). 20 bytes, rendered as 0x-prefixed hex.
type Address [20]byte

// ZeroAddress is the absent/invalid address.
var ZeroAddress Address

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Hex returns the 0x-prefixed lowercase hex form.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// MarshalText renders the address for JSON payloads.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText parses a 0x-prefixed hex address.
func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a 0x-prefixed 20-byte hex string.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ZeroAddress, errors.New("address is not valid hex")
	}
	if len(raw) != 20 {
		return ZeroAddress, errors.New("address must be 20 bytes")
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// AddressFromSeed derives a stable address from an arbitrary seed string.
// Used for account identities and template handles.
func AddressFromSeed(seed string) Address {
	return AddressFromHash(sha256.Sum256([]byte(seed)))
}

// AddressFromHash takes the trailing 20 bytes of a content hash.
func AddressFromHash(h [32]byte) Address {
	var a Address
	copy(a[:], h[12:])
	return a
}

// Hash is a 32-byte value used for key lanes and salts.
type Hash [32]byte

// ZeroHash is the absent/invalid hash.
var ZeroHash Hash

// IsZero reports whether the hash is unset.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Hex returns the 0x-prefixed lowercase hex form.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// MarshalText renders the hash for JSON payloads.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText parses a 0x-prefixed hex hash.
func (h *Hash) UnmarshalText(b []byte) error {
	parsed, err := ParseHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses a 0x-prefixed 32-byte hex string.
func ParseHash(s string) (Hash, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ZeroHash, errors.New("hash is not valid hex")
	}
	if len(raw) != 32 {
		return ZeroHash, errors.New("hash must be 32 bytes")
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}

// Salt is a caller-supplied discriminant for deterministic deployment.
type Salt = Hash

// SaltFromString hashes an arbitrary caller string into a salt, so the API can
// accept free-form discriminants while the core stays fixed-width.
func SaltFromString(s string) Salt {
	return Salt(sha256.Sum256([]byte(s)))
}

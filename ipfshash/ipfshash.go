package ipfshash

import (
	"fmt"

	sdkerrors "cosmossdk.io/errors"
)

// IpfsHash identifies a subgraph deployment by its CIDv0 content hash.
type IpfsHash string

// ErrInvalidHashFormat is returned for any string that is not a well-formed
// CIDv0: exactly 46 characters, prefix "Qm", base58 alphabet.
var ErrInvalidHashFormat = sdkerrors.Register("allocation-agent", 2, "invalid ipfs hash format")

const cidV0Length = 46

// base58 (Bitcoin alphabet): no 0, O, I, l.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Set = func() map[rune]struct{} {
	set := make(map[rune]struct{}, len(base58Alphabet))
	for _, c := range base58Alphabet {
		set[c] = struct{}{}
	}
	return set
}()

func (h IpfsHash) String() string {
	return string(h)
}

// IsValid reports whether h is a well-formed CIDv0.
func IsValid(h IpfsHash) bool {
	if len(h) != cidV0Length {
		return false
	}
	if h[0] != 'Q' || h[1] != 'm' {
		return false
	}
	for _, c := range h {
		if _, ok := base58Set[c]; !ok {
			return false
		}
	}
	return true
}

// Validate returns ErrInvalidHashFormat if h is not a well-formed CIDv0.
func Validate(h IpfsHash) error {
	if !IsValid(h) {
		return sdkerrors.Wrap(ErrInvalidHashFormat, string(h))
	}
	return nil
}

// ValidateAll fails on the first invalid hash. An empty batch is valid.
func ValidateAll(hashes []IpfsHash) error {
	for i, h := range hashes {
		if err := Validate(h); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Bytes32 array of 32 bytes.
// It's the identifier of documents, contracts, identities and block proposers.
type Bytes32 [32]byte

var (
	_ json.Marshaler   = (*Bytes32)(nil)
	_ json.Unmarshaler = (*Bytes32)(nil)
)

// String implements stringer. Identifiers are presented in base58.
func (b Bytes32) String() string {
	return base58.Encode(b[:])
}

// Hex returns the 0x prefixed hex presentation.
func (b Bytes32) Hex() string {
	return "0x" + hex.EncodeToString(b[:])
}

// AbbrevString returns abbrev string presentation.
func (b Bytes32) AbbrevString() string {
	return fmt.Sprintf("0x%x…%x", b[:4], b[28:])
}

// Bytes returns byte slice form of Bytes32.
func (b Bytes32) Bytes() []byte {
	return b[:]
}

// IsZero returns if Bytes32 has all zero bytes.
func (b Bytes32) IsZero() bool {
	return b == Bytes32{}
}

// Compare compares two identifiers bytewise.
func (b Bytes32) Compare(other Bytes32) int {
	return bytes.Compare(b[:], other[:])
}

// MarshalJSON implements json.Marshaler.
func (b *Bytes32) MarshalJSON() ([]byte, error) {
	if b == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(b.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes32) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBytes32(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (b Bytes32) MarshalYAML() (any, error) {
	return b.String(), nil
}

// UnmarshalYAML implements yaml unmarshalling of the string form.
func (b *Bytes32) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseBytes32(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBytes32 converts the base58 or 0x prefixed hex presentation into Bytes32.
func ParseBytes32(s string) (Bytes32, error) {
	var b Bytes32
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		if len(s) != 32*2+2 {
			return Bytes32{}, errors.New("invalid length")
		}
		if _, err := hex.Decode(b[:], []byte(s[2:])); err != nil {
			return Bytes32{}, err
		}
		return b, nil
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return Bytes32{}, errors.Wrap(err, "decode base58")
	}
	if len(decoded) != 32 {
		return Bytes32{}, errors.New("invalid length")
	}
	copy(b[:], decoded)
	return b, nil
}

// MustParseBytes32 convert string presented into Bytes32 type, panic on error.
func MustParseBytes32(s string) Bytes32 {
	b32, err := ParseBytes32(s)
	if err != nil {
		panic(err)
	}
	return b32
}

// BytesToBytes32 converts bytes slice into Bytes32.
// If b is larger than Bytes32 length, b will be cropped (from the left).
// If b is smaller than Bytes32 length, b will be extended (from the left).
func BytesToBytes32(b []byte) Bytes32 {
	return Bytes32(common.BytesToHash(b))
}

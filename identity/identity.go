// Copyright (c) 2024 - for information on the respective copyright owner
// see the NOTICE file and/or the repository at
// https://github.com/hyperledger-labs/custody-node
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"bytes"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Size is the length in bytes of an identity.
const Size = 32

// ErrParsingIdentity is returned when a string is not a valid base58 encoded identity.
var ErrParsingIdentity = errors.New("parsing identity")

// Identity is the 32 byte address of an account on the ledger. It identifies users, programs,
// mints, holdings and program derived accounts alike.
//
// The text representation is base58, as used by the ledger tooling.
type Identity [Size]byte

// Zero is the zero value of the identity. It is never a valid signer.
var Zero Identity

// ParseIdentity decodes the base58 representation of an identity.
func ParseIdentity(str string) (Identity, error) {
	var id Identity
	if str == "" {
		return id, errors.WithMessage(ErrParsingIdentity, "empty string")
	}
	b, err := base58.Decode(str)
	if err != nil {
		return id, errors.WithMessage(ErrParsingIdentity, err.Error())
	}
	if len(b) != Size {
		return id, errors.WithMessagef(ErrParsingIdentity, "decoded length %d, want %d", len(b), Size)
	}
	copy(id[:], b)
	return id, nil
}

// MustParse is like ParseIdentity, but panics on error. It is intended for constants.
func MustParse(str string) Identity {
	id, err := ParseIdentity(str)
	if err != nil {
		panic(err)
	}
	return id
}

// FromBytes returns the identity for a 32 byte slice.
func FromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != Size {
		return id, errors.Errorf("invalid identity length %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// Bytes returns a copy of the identity as a byte slice.
func (id Identity) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, id[:])
	return b
}

// IsZero reports whether the identity is the zero value.
func (id Identity) IsZero() bool {
	return id == Zero
}

// Equal reports whether both identities are the same.
func (id Identity) Equal(other Identity) bool {
	return bytes.Equal(id[:], other[:])
}

// MarshalText implements encoding.TextMarshaler, so that identities are stored as base58 in
// yaml and json documents.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Contains reports whether the given identity is in the list.
func Contains(list []Identity, id Identity) bool {
	for i := range list {
		if list[i] == id {
			return true
		}
	}
	return false
}

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
	"crypto/sha256"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"
)

// Limits on the seeds accepted for deriving a program address.
const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

// pdaMarker is appended to the hash input of every program derived address.
var pdaMarker = []byte("ProgramDerivedAddress")

// Errors returned while deriving program addresses.
var (
	ErrMaxSeedLengthExceeded = errors.New("length of the seed is too long for address generation")
	ErrInvalidSeeds          = errors.New("provided seeds do not result in a valid address")
	ErrBumpNotFound          = errors.New("unable to find a viable program address bump seed")
)

// CreateProgramAddress derives an identity from the seeds and the program identity.
//
// The derived identity is guaranteed to not lie on the ed25519 curve, so no private key
// exists for it. Only the program that owns the derivation can authorize for it, by presenting
// the same seeds.
func CreateProgramAddress(seeds [][]byte, programID Identity) (Identity, error) {
	if len(seeds) > MaxSeeds {
		return Zero, ErrMaxSeedLengthExceeded
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Zero, ErrMaxSeedLengthExceeded
		}
		h.Write(seed) // nolint: errcheck, gosec	// hash.Write never returns an error.
	}
	h.Write(programID[:]) // nolint: errcheck, gosec
	h.Write(pdaMarker)    // nolint: errcheck, gosec

	var id Identity
	copy(id[:], h.Sum(nil))
	if IsOnCurve(id[:]) {
		return Zero, ErrInvalidSeeds
	}
	return id, nil
}

// FindProgramAddress searches for the first bump, starting from 255 and counting down, for
// which the seeds together with the bump yield a valid program address.
func FindProgramAddress(seeds [][]byte, programID Identity) (Identity, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		id, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return id, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return Zero, 0, err
		}
	}
	return Zero, 0, ErrBumpNotFound
}

// IsOnCurve reports whether the bytes are the compressed encoding of a point on the ed25519
// curve.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

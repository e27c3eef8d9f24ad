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
	"github.com/pkg/errors"
)

type (
	// Authorization is the proof, presented along with a nested call, that the calling program
	// may act for a derived identity. It carries the derivation inputs instead of a signature:
	// anyone can check it by re-deriving, nobody can forge it for another program.
	Authorization struct {
		Signer    Identity
		ProgramID Identity
		Seeds     [][]byte
	}

	// Signer produces authorizations for one identity.
	Signer interface {
		Identity() Identity
		Authorize() Authorization
	}

	// Verifier checks that an authorization is valid for the identity it claims.
	Verifier interface {
		Verify(Authorization) bool
	}
)

// DerivedAuthority is a signer for a program derived identity. It never holds key material,
// the identity is valid for signing only because it is off-curve and derived from the program.
type DerivedAuthority struct {
	programID Identity
	seeds     [][]byte // without the bump.
	bump      uint8
	id        Identity
}

// NewDerivedAuthority builds the authority for the seed and owner identity, derived under
// programID with the given bump.
//
// It fails with ErrBumpNotFound if the bump does not reproduce the canonical derivation, that
// is, the stored parameter and a fresh derivation disagree.
func NewDerivedAuthority(programID Identity, seed []byte, owner Identity, bump uint8) (*DerivedAuthority, error) {
	seeds := [][]byte{seed, owner.Bytes()}
	canonical, canonicalBump, err := FindProgramAddress(seeds, programID)
	if err != nil {
		return nil, err
	}
	if canonicalBump != bump {
		return nil, errors.WithMessagef(ErrBumpNotFound, "stored bump %d, derived bump %d", bump, canonicalBump)
	}
	return &DerivedAuthority{
		programID: programID,
		seeds:     seeds,
		bump:      bump,
		id:        canonical,
	}, nil
}

// Identity returns the derived identity.
func (a *DerivedAuthority) Identity() Identity {
	return a.id
}

// Bump returns the derivation parameter.
func (a *DerivedAuthority) Bump() uint8 {
	return a.bump
}

// Authorize returns an authorization for the derived identity.
func (a *DerivedAuthority) Authorize() Authorization {
	seeds := make([][]byte, 0, len(a.seeds)+1)
	for _, s := range a.seeds {
		seeds = append(seeds, append([]byte(nil), s...))
	}
	seeds = append(seeds, []byte{a.bump})
	return Authorization{
		Signer:    a.id,
		ProgramID: a.programID,
		Seeds:     seeds,
	}
}

// SeedVerifier verifies authorizations by re-deriving the signer from the seeds.
type SeedVerifier struct{}

// Verify implements Verifier.
func (SeedVerifier) Verify(auth Authorization) bool {
	derived, err := CreateProgramAddress(auth.Seeds, auth.ProgramID)
	return err == nil && derived == auth.Signer
}

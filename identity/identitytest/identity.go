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

package identitytest

import (
	"math/rand"

	"github.com/hyperledger-labs/custody-node/identity"
)

// NewRandomIdentity returns an identity with bytes read from the prng. Using a seeded prng
// makes the identities reproducible across test runs.
func NewRandomIdentity(prng *rand.Rand) identity.Identity {
	var id identity.Identity
	prng.Read(id[:]) // nolint: errcheck, gosec	// rand.Read on *rand.Rand never fails.
	return id
}

// NewRandomIdentities returns n distinct random identities.
func NewRandomIdentities(prng *rand.Rand, n int) []identity.Identity {
	ids := make([]identity.Identity, 0, n)
	seen := make(map[identity.Identity]bool, n)
	for len(ids) < n {
		id := NewRandomIdentity(prng)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// FakeSigner authorizes for an arbitrary identity. It is accepted only by a ledger configured
// with AcceptAllVerifier.
type FakeSigner struct {
	ID        identity.Identity
	ProgramID identity.Identity
}

// Identity implements identity.Signer.
func (s FakeSigner) Identity() identity.Identity {
	return s.ID
}

// Authorize implements identity.Signer.
func (s FakeSigner) Authorize() identity.Authorization {
	return identity.Authorization{
		Signer:    s.ID,
		ProgramID: s.ProgramID,
	}
}

// AcceptAllVerifier accepts every authorization.
type AcceptAllVerifier struct{}

// Verify implements identity.Verifier.
func (AcceptAllVerifier) Verify(identity.Authorization) bool { return true }

// RejectAllVerifier rejects every authorization.
type RejectAllVerifier struct{}

// Verify implements identity.Verifier.
func (RejectAllVerifier) Verify(identity.Authorization) bool { return false }

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

package ledgertest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/identity/identitytest"
	"github.com/hyperledger-labs/custody-node/ledger"
)

// Fixture is a ledger seeded with random mints, for use in tests.
type Fixture struct {
	*ledger.Ledger
	Mints []identity.Identity

	t    *testing.T
	prng *rand.Rand
}

// NewFixture returns a ledger that verifies authorizations with the verifier and has
// nMints mints of the given decimals. The identities are drawn from a prng seeded with seed.
func NewFixture(t *testing.T, seed int64, verifier identity.Verifier, nMints int, decimals uint8) *Fixture {
	t.Helper()
	f := &Fixture{
		Ledger: ledger.New(verifier),
		t:      t,
		prng:   rand.New(rand.NewSource(seed)), // nolint: gosec	// ok to use weak random in tests.
	}
	for i := 0; i < nMints; i++ {
		mint := identitytest.NewRandomIdentity(f.prng)
		require.NoError(t, f.CreateMint(mint, decimals))
		f.Mints = append(f.Mints, mint)
	}
	return f
}

// NewIdentity returns a fresh random identity.
func (f *Fixture) NewIdentity() identity.Identity {
	return identitytest.NewRandomIdentity(f.prng)
}

// NewHolding creates a token account of the mint for the owner and funds it with amount.
func (f *Fixture) NewHolding(owner, mint identity.Identity, amount uint64) identity.Identity {
	f.t.Helper()
	addr := f.NewIdentity()
	require.NoError(f.t, f.CreateHolding(addr, owner, mint))
	if amount > 0 {
		require.NoError(f.t, f.MintTo(addr, amount))
	}
	return addr
}

// Balance returns the amount held by the token account. It fails the test if the account
// does not exist.
func (f *Fixture) Balance(holding identity.Identity) uint64 {
	f.t.Helper()
	h, ok := f.Holding(holding)
	require.True(f.t, ok, "token account %s not found", holding)
	return h.Amount
}

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

package nodetest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/identity/identitytest"
	"github.com/hyperledger-labs/custody-node/node"
)

// Decimals of the assets in the generated configuration.
const (
	USDCDecimals = 6
	WSOLDecimals = 9
)

// NewConfig generates random configuration data for the node: random program identities, two
// assets and a relay peer for chain 40245. The state is kept in memory.
func NewConfig(prng *rand.Rand) custody.NodeConfig {
	ids := identitytest.NewRandomIdentities(prng, 4)
	return custody.NodeConfig{
		LogFile:        "",
		LogLevel:       "debug",
		ProgramID:      ids[0].String(),
		RelayProgramID: ids[1].String(),
		RelayPeers: []custody.RelayPeerConfig{
			{ChainID: 40245, Receiver: "0x742d35cc6634c0532925a3b844bc9e7595f0beb0"},
		},
		Assets: []custody.AssetConfig{
			{Symbol: "USDC", Mint: ids[2].String(), Decimals: USDCDecimals},
			{Symbol: "WSOL", Mint: ids[3].String(), Decimals: WSOLDecimals},
		},
	}
}

// Genesis creates the mints of all configured assets, the vault token account for each of
// them and returns the vault token accounts by mint.
func Genesis(t *testing.T, prng *rand.Rand, n *node.Node) map[identity.Identity]identity.Identity {
	t.Helper()
	vaults := make(map[identity.Identity]identity.Identity)
	for _, symbol := range n.Assets().Symbols() {
		asset, _ := n.Assets().Asset(symbol)
		require.NoError(t, n.CreateMint(asset.Mint, asset.Decimals))
		vault := identitytest.NewRandomIdentity(prng)
		require.NoError(t, n.CreateHolding(vault, n.Addresses().VaultAuthority, asset.Mint, 0))
		vaults[asset.Mint] = vault
	}
	return vaults
}

// NewUser returns a random identity with a token account holding amount for each mint. The
// token accounts are returned by mint.
func NewUser(t *testing.T, prng *rand.Rand, n *node.Node, amount uint64, mints ...identity.Identity) (
	identity.Identity, map[identity.Identity]identity.Identity) {
	t.Helper()
	user := identitytest.NewRandomIdentity(prng)
	holdings := make(map[identity.Identity]identity.Identity, len(mints))
	for _, mint := range mints {
		h := identitytest.NewRandomIdentity(prng)
		require.NoError(t, n.CreateHolding(h, user, mint, amount))
		holdings[mint] = h
	}
	return user, holdings
}

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

package vault_test

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/identity/identitytest"
	"github.com/hyperledger-labs/custody-node/ledger"
	"github.com/hyperledger-labs/custody-node/vault"
)

func Test_Config_Binary(t *testing.T) {
	ids := identitytest.NewRandomIdentities(rand.New(rand.NewSource(1)), 9)
	cfg := vault.Config{
		Admin:            ids[0],
		AuthorizedCaller: ids[1],
		AllowedAssets:    ids[2:5],
		VaultBump:        254,
		ForwardTargets:   ids[5:9],
	}
	data, err := cfg.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 8+32+32+4+3*32+1+4+4*32)

	var got vault.Config
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, cfg, got)

	t.Run("capacity", func(t *testing.T) {
		tooMany := cfg
		tooMany.AllowedAssets = ids[:vault.MaxAllowedAssets+1]
		_, err := tooMany.MarshalBinary()
		assert.Error(t, err)
	})

	tests := []struct {
		name string
		data func() []byte
	}{
		{"empty", func() []byte { return nil }},
		{"wrong_discriminator", func() []byte {
			pos, err := vault.LiquidityPosition{}.MarshalBinary()
			require.NoError(t, err)
			return pos
		}},
		{"truncated", func() []byte { return data[:len(data)-1] }},
		{"trailing", func() []byte { return append(append([]byte{}, data...), 0) }},
		{"list_over_capacity", func() []byte {
			d := append([]byte{}, data...)
			d[8+64] = vault.MaxAllowedAssets + 1
			return d
		}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var c vault.Config
			err := c.UnmarshalBinary(tc.data())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ledger.ErrInvalidAccountData))
		})
	}
}

func Test_Config_Lists(t *testing.T) {
	ids := identitytest.NewRandomIdentities(rand.New(rand.NewSource(2)), 3)
	cfg := vault.Config{AllowedAssets: ids[:2], ForwardTargets: ids[2:]}
	assert.True(t, cfg.IsAllowedAsset(ids[0]))
	assert.False(t, cfg.IsAllowedAsset(ids[2]))
	assert.True(t, cfg.IsForwardTarget(ids[2]))
	assert.False(t, cfg.IsForwardTarget(ids[0]))
	assert.False(t, vault.Config{}.IsForwardTarget(identity.Identity{}))
}

func Test_Position_Claims_Binary(t *testing.T) {
	ids := identitytest.NewRandomIdentities(rand.New(rand.NewSource(3)), 2)

	pos := vault.LiquidityPosition{Owner: ids[0], Asset: ids[1], Amount: 1 << 40}
	data, err := pos.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 8+32+32+8)
	var gotPos vault.LiquidityPosition
	require.NoError(t, gotPos.UnmarshalBinary(data))
	assert.Equal(t, pos, gotPos)

	var gotClaims vault.AssetClaims
	err = gotClaims.UnmarshalBinary(data)
	assert.True(t, errors.Is(err, ledger.ErrInvalidAccountData))

	claims := vault.AssetClaims{Asset: ids[1], Total: 7}
	data, err = claims.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 8+32+8)
	require.NoError(t, gotClaims.UnmarshalBinary(data))
	assert.Equal(t, claims, gotClaims)

	err = gotPos.UnmarshalBinary(data[:len(data)-3])
	assert.True(t, errors.Is(err, ledger.ErrInvalidAccountData))
}

func Test_Position_Claims_Trailing_Bytes(t *testing.T) {
	ids := identitytest.NewRandomIdentities(rand.New(rand.NewSource(4)), 2)
	posData, err := vault.LiquidityPosition{Owner: ids[0], Asset: ids[1], Amount: 9}.MarshalBinary()
	require.NoError(t, err)
	claimsData, err := vault.AssetClaims{Asset: ids[1], Total: 9}.MarshalBinary()
	require.NoError(t, err)

	extend := func(data []byte, n int) []byte {
		return append(append([]byte{}, data...), make([]byte, n)...)
	}
	tests := []struct {
		name      string
		data      []byte
		unmarshal func([]byte) error
	}{
		{"position_one_byte", extend(posData, 1), new(vault.LiquidityPosition).UnmarshalBinary},
		{"position_next_account", append(append([]byte{}, posData...), posData...), new(vault.LiquidityPosition).UnmarshalBinary},
		{"claims_one_byte", extend(claimsData, 1), new(vault.AssetClaims).UnmarshalBinary},
		{"claims_padded", extend(claimsData, 32), new(vault.AssetClaims).UnmarshalBinary},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.unmarshal(tc.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ledger.ErrInvalidAccountData))
		})
	}
}

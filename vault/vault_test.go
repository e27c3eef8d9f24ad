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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/custodytest"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/ledger"
	"github.com/hyperledger-labs/custody-node/ledger/ledgertest"
	"github.com/hyperledger-labs/custody-node/relay"
	"github.com/hyperledger-labs/custody-node/vault"
)

const decimals = 6

// setup is a ledger with the custody and relay programs deployed, three mints A, B and C, and
// the participants of the tests. The vault is initialized with A and B allowed, unless
// newSetup is told otherwise.
type setup struct {
	*ledgertest.Fixture
	program  *vault.Program
	endpoint *relay.Endpoint

	admin, caller, user, stranger identity.Identity
	mintA, mintB, mintC           identity.Identity
	vaultA, vaultB, vaultC        identity.Identity
	userA, userB, userC           identity.Identity
}

func newSetup(t *testing.T, initialize bool) *setup {
	t.Helper()
	f := ledgertest.NewFixture(t, 1729, identity.SeedVerifier{}, 3, decimals)
	s := &setup{
		Fixture:  f,
		admin:    f.NewIdentity(),
		caller:   f.NewIdentity(),
		user:     f.NewIdentity(),
		stranger: f.NewIdentity(),
		mintA:    f.Mints[0],
		mintB:    f.Mints[1],
		mintC:    f.Mints[2],
	}

	var err error
	s.program, err = vault.New(f.NewIdentity(), f.NewIdentity())
	require.NoError(t, err)
	s.endpoint, err = relay.NewEndpoint(s.program.RelayProgramID(), nil)
	require.NoError(t, err)
	require.NoError(t, f.RegisterProgram(s.endpoint))

	authority := s.program.Addresses().VaultAuthority
	s.vaultA = f.NewHolding(authority, s.mintA, 0)
	s.vaultB = f.NewHolding(authority, s.mintB, 0)
	s.vaultC = f.NewHolding(authority, s.mintC, 0)
	s.userA = f.NewHolding(s.user, s.mintA, 1000)
	s.userB = f.NewHolding(s.user, s.mintB, 1000)
	s.userC = f.NewHolding(s.user, s.mintC, 1000)

	if initialize {
		require.NoError(t, s.run(t, []identity.Identity{s.admin}, func(tx *ledger.Tx) custody.APIError {
			_, apiErr := s.program.Initialize(tx, custody.InitializeReq{
				Admin:            s.admin,
				AuthorizedCaller: s.caller,
				AllowedAssets:    []identity.Identity{s.mintA, s.mintB},
			})
			return apiErr
		}))
	}
	return s
}

// run executes fn in a transaction signed by signers, committing on success and rolling back on
// error.
func (s *setup) run(t *testing.T, signers []identity.Identity, fn func(tx *ledger.Tx) custody.APIError) custody.APIError {
	t.Helper()
	tx := s.Begin(signers...)
	if apiErr := fn(tx); apiErr != nil {
		tx.Rollback()
		return apiErr
	}
	require.NoError(t, tx.Commit())
	return nil
}

func (s *setup) deposit(t *testing.T, req custody.DepositReq) custody.APIError {
	t.Helper()
	return s.run(t, []identity.Identity{req.Depositor}, func(tx *ledger.Tx) custody.APIError {
		return s.program.Deposit(tx, req)
	})
}

func (s *setup) transferOut(t *testing.T, req custody.TransferOutReq) custody.APIError {
	t.Helper()
	return s.run(t, []identity.Identity{req.Authority}, func(tx *ledger.Tx) custody.APIError {
		return s.program.TransferOut(tx, req)
	})
}

func (s *setup) lpDeposit(t *testing.T, req custody.LPDepositReq) custody.APIError {
	t.Helper()
	return s.run(t, []identity.Identity{req.Owner}, func(tx *ledger.Tx) custody.APIError {
		_, apiErr := s.program.LPDeposit(tx, req)
		return apiErr
	})
}

func (s *setup) lpWithdraw(t *testing.T, req custody.LPWithdrawReq) custody.APIError {
	t.Helper()
	return s.run(t, []identity.Identity{req.Owner}, func(tx *ledger.Tx) custody.APIError {
		_, apiErr := s.program.LPWithdraw(tx, req)
		return apiErr
	})
}

func (s *setup) balances(holdings ...identity.Identity) []uint64 {
	amounts := make([]uint64, len(holdings))
	for i, h := range holdings {
		amounts[i] = s.Balance(h)
	}
	return amounts
}

func Test_New_Addresses(t *testing.T) {
	s := newSetup(t, false)
	addrs := s.program.Addresses()

	config, configBump, err := vault.ConfigAddress(s.program.ID())
	require.NoError(t, err)
	assert.Equal(t, config, addrs.Config)
	assert.Equal(t, configBump, addrs.ConfigBump)

	authority, err := identity.NewDerivedAuthority(s.program.ID(), []byte(vault.VaultSeed), config, addrs.VaultBump)
	require.NoError(t, err)
	assert.Equal(t, addrs.VaultAuthority, authority.Identity())
	assert.False(t, identity.IsOnCurve(addrs.VaultAuthority.Bytes()))
}

func Test_Initialize(t *testing.T) {
	t.Run("happy", func(t *testing.T) {
		s := newSetup(t, false)
		var info custody.ConfigInfo
		apiErr := s.run(t, []identity.Identity{s.admin}, func(tx *ledger.Tx) (apiErr custody.APIError) {
			info, apiErr = s.program.Initialize(tx, custody.InitializeReq{
				Admin:            s.admin,
				AuthorizedCaller: s.caller,
				AllowedAssets:    []identity.Identity{s.mintA, s.mintB, s.mintC},
			})
			return apiErr
		})
		require.NoError(t, apiErr)
		assert.Equal(t, s.program.Addresses().Config, info.Address)
		assert.Equal(t, s.admin, info.Admin)
		assert.Equal(t, s.caller, info.AuthorizedCaller)
		assert.Equal(t, []identity.Identity{s.mintA, s.mintB, s.mintC}, info.AllowedAssets)
		assert.Empty(t, info.ForwardTargets)
		assert.Equal(t, s.program.Addresses().VaultBump, info.VaultBump)

		stored, apiErr := s.program.ConfigInfo(s.Ledger)
		require.NoError(t, apiErr)
		assert.Equal(t, info.AllowedAssets, stored.AllowedAssets)
		assert.Equal(t, info.VaultAuthority, stored.VaultAuthority)

		for _, mint := range []identity.Identity{s.mintA, s.mintB, s.mintC} {
			allowed, apiErr := s.program.IsAllowedAsset(s.Ledger, mint)
			require.NoError(t, apiErr)
			assert.True(t, allowed)
		}
		allowed, apiErr := s.program.IsAllowedAsset(s.Ledger, s.NewIdentity())
		require.NoError(t, apiErr)
		assert.False(t, allowed)

		events := s.Events()
		require.NotEmpty(t, events)
		assert.Equal(t, vault.EventInitialized, events[len(events)-1].Name)
	})

	t.Run("twice", func(t *testing.T) {
		s := newSetup(t, true)
		apiErr := s.run(t, []identity.Identity{s.stranger}, func(tx *ledger.Tx) custody.APIError {
			_, apiErr := s.program.Initialize(tx, custody.InitializeReq{
				Admin:            s.stranger,
				AuthorizedCaller: s.stranger,
				AllowedAssets:    []identity.Identity{s.mintC},
			})
			return apiErr
		})
		custodytest.AssertAPIError(t, apiErr, custody.ClientError, custody.ErrResourceExists)
		custodytest.AssertErrInfoResourceExists(t, apiErr.AddInfo(), vault.ResTypeConfig, s.program.Addresses().Config.String())

		info, apiErr := s.program.ConfigInfo(s.Ledger)
		require.NoError(t, apiErr)
		assert.Equal(t, s.admin, info.Admin)
	})

	tests := []struct {
		name     string
		signer   bool
		assets   func(s *setup) []identity.Identity
		wantCode custody.ErrorCode
	}{
		{"no_assets", true, func(*setup) []identity.Identity { return nil }, custody.ErrMintNotAllowed},
		{"too_many_assets", true, func(s *setup) []identity.Identity {
			return []identity.Identity{s.mintA, s.mintB, s.mintC, s.NewIdentity()}
		}, custody.ErrMintNotAllowed},
		{"duplicate_assets", true, func(s *setup) []identity.Identity {
			return []identity.Identity{s.mintA, s.mintA}
		}, custody.ErrInvalidArgument},
		{"admin_not_signer", false, func(s *setup) []identity.Identity {
			return []identity.Identity{s.mintA}
		}, custody.ErrNotAuthorized},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s := newSetup(t, false)
			var signers []identity.Identity
			if tc.signer {
				signers = append(signers, s.admin)
			}
			apiErr := s.run(t, signers, func(tx *ledger.Tx) custody.APIError {
				_, apiErr := s.program.Initialize(tx, custody.InitializeReq{
					Admin:            s.admin,
					AuthorizedCaller: s.caller,
					AllowedAssets:    tc.assets(s),
				})
				return apiErr
			})
			require.Error(t, apiErr)
			assert.Equal(t, tc.wantCode, apiErr.Code())

			_, apiErr = s.program.ConfigInfo(s.Ledger)
			custodytest.AssertAPIError(t, apiErr, custody.ClientError, custody.ErrResourceNotFound)
		})
	}
}

func Test_NotInitialized(t *testing.T) {
	s := newSetup(t, false)
	apiErr := s.deposit(t, custody.DepositReq{
		Depositor: s.user, Source: s.userA, Vault: s.vaultA, Asset: s.mintA, Amount: 1,
	})
	custodytest.AssertAPIError(t, apiErr, custody.ClientError, custody.ErrResourceNotFound)
	custodytest.AssertErrInfoResourceNotFound(t, apiErr.AddInfo(), vault.ResTypeConfig, s.program.Addresses().Config.String())
}

func Test_SetAuthorizedCaller(t *testing.T) {
	s := newSetup(t, true)
	setCaller := func(invoker, newCaller identity.Identity) custody.APIError {
		return s.run(t, []identity.Identity{invoker}, func(tx *ledger.Tx) custody.APIError {
			return s.program.SetAuthorizedCaller(tx, custody.SetAuthorizedCallerReq{Admin: invoker, NewCaller: newCaller})
		})
	}
	require.NoError(t, s.deposit(t, custody.DepositReq{
		Depositor: s.user, Source: s.userA, Vault: s.vaultA, Asset: s.mintA, Amount: 100,
	}))
	transferOut := func(authority identity.Identity) custody.APIError {
		return s.transferOut(t, custody.TransferOutReq{
			Authority: authority, Recipient: s.userA, Vault: s.vaultA, Asset: s.mintA, Amount: 1,
		})
	}

	t.Run("non_admin", func(t *testing.T) {
		for _, invoker := range []identity.Identity{s.caller, s.stranger} {
			apiErr := setCaller(invoker, s.stranger)
			custodytest.AssertAPIError(t, apiErr, custody.AuthorizationError, custody.ErrNotAuthorized)
			custodytest.AssertErrInfoNotAuthorized(t, apiErr.AddInfo(), "set authorized caller", invoker.String())
		}
		info, apiErr := s.program.ConfigInfo(s.Ledger)
		require.NoError(t, apiErr)
		assert.Equal(t, s.caller, info.AuthorizedCaller)
	})

	t.Run("admin_not_signer", func(t *testing.T) {
		apiErr := s.run(t, nil, func(tx *ledger.Tx) custody.APIError {
			return s.program.SetAuthorizedCaller(tx, custody.SetAuthorizedCallerReq{Admin: s.admin, NewCaller: s.stranger})
		})
		custodytest.AssertAPIError(t, apiErr, custody.AuthorizationError, custody.ErrNotAuthorized)
	})

	t.Run("admin", func(t *testing.T) {
		require.NoError(t, transferOut(s.caller))
		require.NoError(t, setCaller(s.admin, s.stranger))

		info, apiErr := s.program.ConfigInfo(s.Ledger)
		require.NoError(t, apiErr)
		assert.Equal(t, s.stranger, info.AuthorizedCaller)

		require.NoError(t, transferOut(s.stranger))
		apiErr = transferOut(s.caller)
		custodytest.AssertAPIError(t, apiErr, custody.AuthorizationError, custody.ErrNotAuthorized)
		require.NoError(t, transferOut(s.admin))
	})
}

func Test_SetForwardTargets(t *testing.T) {
	s := newSetup(t, true)
	setTargets := func(invoker identity.Identity, targets ...identity.Identity) custody.APIError {
		return s.run(t, []identity.Identity{invoker}, func(tx *ledger.Tx) custody.APIError {
			return s.program.SetForwardTargets(tx, custody.SetForwardTargetsReq{Admin: invoker, Targets: targets})
		})
	}
	targets := []identity.Identity{s.NewIdentity(), s.NewIdentity()}

	apiErr := setTargets(s.caller, targets...)
	custodytest.AssertAPIError(t, apiErr, custody.AuthorizationError, custody.ErrNotAuthorized)

	apiErr = setTargets(s.admin, targets[0], targets[0])
	custodytest.AssertAPIError(t, apiErr, custody.ClientError, custody.ErrInvalidArgument)
	custodytest.AssertErrInfoInvalidArgument(t, apiErr.AddInfo(), vault.ArgForwardTargets, targets[0].String())

	tooMany := make([]identity.Identity, vault.MaxForwardTargets+1)
	for i := range tooMany {
		tooMany[i] = s.NewIdentity()
	}
	apiErr = setTargets(s.admin, tooMany...)
	custodytest.AssertAPIError(t, apiErr, custody.ClientError, custody.ErrInvalidArgument)

	require.NoError(t, setTargets(s.admin, targets...))
	info, apiErr := s.program.ConfigInfo(s.Ledger)
	require.NoError(t, apiErr)
	assert.Equal(t, targets, info.ForwardTargets)
	assert.Equal(t, []identity.Identity{s.mintA, s.mintB}, info.AllowedAssets)

	require.NoError(t, setTargets(s.admin))
	info, apiErr = s.program.ConfigInfo(s.Ledger)
	require.NoError(t, apiErr)
	assert.Empty(t, info.ForwardTargets)
}

func Test_Scenario(t *testing.T) {
	s := newSetup(t, true)

	require.NoError(t, s.deposit(t, custody.DepositReq{
		Depositor: s.user, Source: s.userA, Vault: s.vaultA, Asset: s.mintA, Amount: 100,
	}))
	assert.Equal(t, uint64(100), s.Balance(s.vaultA))

	recipient := s.NewHolding(s.stranger, s.mintA, 0)
	require.NoError(t, s.transferOut(t, custody.TransferOutReq{
		Authority: s.caller, Recipient: recipient, Vault: s.vaultA, Asset: s.mintA, Amount: 50,
	}))
	assert.Equal(t, uint64(50), s.Balance(s.vaultA))

	apiErr := s.transferOut(t, custody.TransferOutReq{
		Authority: s.stranger, Recipient: recipient, Vault: s.vaultA, Asset: s.mintA, Amount: 10,
	})
	custodytest.AssertAPIError(t, apiErr, custody.AuthorizationError, custody.ErrNotAuthorized)
	assert.Equal(t, uint64(50), s.Balance(s.vaultA))
	assert.Equal(t, uint64(50), s.Balance(recipient))
}

func Test_BumpNotFound(t *testing.T) {
	s := newSetup(t, true)
	addrs := s.program.Addresses()

	acc, ok := s.Account(addrs.Config)
	require.True(t, ok)
	var cfg vault.Config
	require.NoError(t, cfg.UnmarshalBinary(acc.Data))
	cfg.VaultBump--
	data, err := cfg.MarshalBinary()
	require.NoError(t, err)
	tx := s.Begin()
	require.NoError(t, tx.WriteAccount(s.program.ID(), addrs.Config, data))
	require.NoError(t, tx.Commit())

	before := s.balances(s.userA, s.vaultA)
	apiErr := s.deposit(t, custody.DepositReq{
		Depositor: s.user, Source: s.userA, Vault: s.vaultA, Asset: s.mintA, Amount: 10,
	})
	custodytest.AssertAPIError(t, apiErr, custody.DerivationError, custody.ErrBumpNotFound)
	assert.Equal(t, before, s.balances(s.userA, s.vaultA))
}

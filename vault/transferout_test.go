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
)

func Test_TransferOut(t *testing.T) {
	s := newSetup(t, true)
	require.NoError(t, s.deposit(t, custody.DepositReq{
		Depositor: s.user, Source: s.userA, Vault: s.vaultA, Asset: s.mintA, Amount: 500,
	}))
	recipientA := s.NewHolding(s.stranger, s.mintA, 0)
	recipientB := s.NewHolding(s.stranger, s.mintB, 0)
	holdings := []identity.Identity{s.vaultA, recipientA, recipientB}

	tests := []struct {
		name     string
		req      custody.TransferOutReq
		wantCode custody.ErrorCode
	}{
		{
			"stranger",
			custody.TransferOutReq{Authority: s.stranger, Recipient: recipientA, Vault: s.vaultA, Asset: s.mintA, Amount: 1},
			custody.ErrNotAuthorized,
		},
		{
			"depositor",
			custody.TransferOutReq{Authority: s.user, Recipient: recipientA, Vault: s.vaultA, Asset: s.mintA, Amount: 1},
			custody.ErrNotAuthorized,
		},
		{
			"mint_not_allowed",
			custody.TransferOutReq{Authority: s.caller, Recipient: recipientA, Vault: s.vaultC, Asset: s.mintC, Amount: 1},
			custody.ErrMintNotAllowed,
		},
		{
			"recipient_mint_mismatch",
			custody.TransferOutReq{Authority: s.caller, Recipient: recipientB, Vault: s.vaultA, Asset: s.mintA, Amount: 1},
			custody.ErrRecipientMintMismatch,
		},
		{
			"vault_mint_mismatch",
			custody.TransferOutReq{Authority: s.caller, Recipient: recipientA, Vault: s.vaultB, Asset: s.mintA, Amount: 1},
			custody.ErrVaultMintMismatch,
		},
		{
			"vault_not_owned_by_authority",
			custody.TransferOutReq{Authority: s.caller, Recipient: recipientA, Vault: s.userA, Asset: s.mintA, Amount: 1},
			custody.ErrVaultOwnerMismatch,
		},
		{
			"more_than_custody",
			custody.TransferOutReq{Authority: s.caller, Recipient: recipientA, Vault: s.vaultA, Asset: s.mintA, Amount: 501},
			custody.ErrInsufficientBacking,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			before := s.balances(holdings...)
			apiErr := s.transferOut(t, tc.req)
			require.Error(t, apiErr)
			assert.Equal(t, tc.wantCode, apiErr.Code(), apiErr.Error())
			assert.Equal(t, before, s.balances(holdings...))
		})
	}

	t.Run("admin_and_caller", func(t *testing.T) {
		for _, authority := range []identity.Identity{s.admin, s.caller} {
			require.NoError(t, s.transferOut(t, custody.TransferOutReq{
				Authority: authority, Recipient: recipientA, Vault: s.vaultA, Asset: s.mintA, Amount: 100,
			}))
		}
		assert.Equal(t, []uint64{300, 200, 0}, s.balances(holdings...))
	})
}

func Test_TransferOut_Backing(t *testing.T) {
	s := newSetup(t, true)
	require.NoError(t, s.lpDeposit(t, custody.LPDepositReq{
		Owner: s.user, Source: s.userA, Vault: s.vaultA, Asset: s.mintA, Amount: 300,
	}))
	require.NoError(t, s.deposit(t, custody.DepositReq{
		Depositor: s.user, Source: s.userA, Vault: s.vaultA, Asset: s.mintA, Amount: 200,
	}))
	recipient := s.NewHolding(s.stranger, s.mintA, 0)
	transferOut := func(amount uint64) custody.APIError {
		return s.transferOut(t, custody.TransferOutReq{
			Authority: s.caller, Recipient: recipient, Vault: s.vaultA, Asset: s.mintA, Amount: amount,
		})
	}

	apiErr := transferOut(201)
	custodytest.AssertAPIError(t, apiErr, custody.PolicyError, custody.ErrInsufficientBacking)
	custodytest.AssertErrInfoInsufficientBacking(t, apiErr.AddInfo(), 500, 300, 201)

	require.NoError(t, transferOut(200))
	assert.Equal(t, uint64(300), s.Balance(s.vaultA))

	apiErr = transferOut(1)
	custodytest.AssertAPIError(t, apiErr, custody.PolicyError, custody.ErrInsufficientBacking)
	custodytest.AssertErrInfoInsufficientBacking(t, apiErr.AddInfo(), 300, 300, 1)

	require.NoError(t, s.lpWithdraw(t, custody.LPWithdrawReq{
		Owner: s.user, Destination: s.userA, Vault: s.vaultA, Asset: s.mintA, Amount: 300,
	}))
	assert.Zero(t, s.Balance(s.vaultA))
	assert.Equal(t, uint64(500), s.Balance(s.userA))
	assert.Equal(t, uint64(200), s.Balance(recipient))
}

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

package relay_test

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/identity/identitytest"
	"github.com/hyperledger-labs/custody-node/ledger"
	"github.com/hyperledger-labs/custody-node/relay"
)

const (
	dstChainID     uint32 = 40245
	unknownChainID uint32 = 30101
)

type endpointSetup struct {
	ledger   *ledger.Ledger
	endpoint *relay.Endpoint
	caller   identity.Identity
	sender   identitytest.FakeSigner
	receiver [32]byte
}

func newEndpointSetup(t *testing.T) endpointSetup {
	prng := rand.New(rand.NewSource(1729))
	s := endpointSetup{
		ledger:   ledger.New(identitytest.AcceptAllVerifier{}),
		caller:   identitytest.NewRandomIdentity(prng),
		receiver: randomWord(prng),
	}
	s.sender = identitytest.FakeSigner{ID: identitytest.NewRandomIdentity(prng), ProgramID: s.caller}

	var err error
	s.endpoint, err = relay.NewEndpoint(identitytest.NewRandomIdentity(prng), map[uint32][32]byte{dstChainID: s.receiver})
	require.NoError(t, err)
	require.NoError(t, s.ledger.RegisterProgram(s.endpoint))
	return s
}

func (s endpointSetup) sendCall(t *testing.T, chainID uint32, payload []byte) ledger.Call {
	data, err := relay.SendParams{
		DstChainID: chainID,
		Message:    payload,
		NativeFee:  relay.DefaultNativeFee,
	}.MarshalBinary()
	require.NoError(t, err)
	accounts, err := s.endpoint.Accounts(s.sender.ID, chainID)
	require.NoError(t, err)
	return ledger.Call{
		Caller:         s.caller,
		Program:        s.endpoint.ID(),
		Data:           data,
		Accounts:       accounts,
		Authorizations: []identity.Authorization{s.sender.Authorize()},
	}
}

func Test_Endpoint_Derivations(t *testing.T) {
	s := newEndpointSetup(t)
	store, _, err := relay.StoreAddress(s.endpoint.ID())
	require.NoError(t, err)
	assert.Equal(t, store, s.endpoint.Store())

	peer, _, err := relay.PeerAddress(s.endpoint.ID(), store, dstChainID)
	require.NoError(t, err)
	otherPeer, _, err := relay.PeerAddress(s.endpoint.ID(), store, unknownChainID)
	require.NoError(t, err)
	assert.NotEqual(t, peer, otherPeer)

	accounts, err := s.endpoint.Accounts(s.sender.ID, dstChainID)
	require.NoError(t, err)
	assert.Equal(t, []ledger.AccountMeta{
		{Address: s.sender.ID, IsSigner: true},
		{Address: store},
		{Address: peer, IsWritable: true},
	}, accounts)
}

func Test_Endpoint_Process(t *testing.T) {
	s := newEndpointSetup(t)
	payload := relay.Encode(relay.NewDepositMessage([32]byte{1}, [32]byte{2}, 500))

	for i := 0; i < 2; i++ {
		tx := s.ledger.Begin()
		require.NoError(t, tx.Invoke(s.sendCall(t, dstChainID, payload)))
		require.NoError(t, tx.Commit())
	}

	packets, err := s.endpoint.Packets(s.ledger.Events())
	require.NoError(t, err)
	require.Len(t, packets, 2)
	for i, p := range packets {
		assert.Equal(t, uint64(i+1), p.Nonce)
		assert.Equal(t, s.sender.ID, p.Sender)
		assert.Equal(t, dstChainID, p.DstChainID)
		assert.Equal(t, s.receiver, p.Receiver)
		assert.Equal(t, payload, p.Message)
		assert.Nil(t, p.Options)
		assert.Equal(t, relay.DefaultNativeFee, p.NativeFee)
		assert.Zero(t, p.TokenFee)
	}

	t.Run("rollback_keeps_nonce", func(t *testing.T) {
		tx := s.ledger.Begin()
		require.NoError(t, tx.Invoke(s.sendCall(t, dstChainID, payload)))
		tx.Rollback()

		tx = s.ledger.Begin()
		require.NoError(t, tx.Invoke(s.sendCall(t, dstChainID, payload)))
		require.NoError(t, tx.Commit())

		packets, err := s.endpoint.Packets(s.ledger.Events())
		require.NoError(t, err)
		require.Len(t, packets, 3)
		assert.Equal(t, uint64(3), packets[2].Nonce)
	})

	t.Run("unknown_peer", func(t *testing.T) {
		tx := s.ledger.Begin()
		defer tx.Rollback()
		err := tx.Invoke(s.sendCall(t, unknownChainID, payload))
		assert.True(t, errors.Is(err, relay.ErrUnknownPeer))
	})

	t.Run("sender_not_signer", func(t *testing.T) {
		call := s.sendCall(t, dstChainID, payload)
		call.Authorizations = nil
		tx := s.ledger.Begin()
		defer tx.Rollback()
		err := tx.Invoke(call)
		assert.True(t, errors.Is(err, ledger.ErrMissingSignature))
	})

	t.Run("wrong_peer_account", func(t *testing.T) {
		call := s.sendCall(t, dstChainID, payload)
		other, err := s.endpoint.Accounts(s.sender.ID, unknownChainID)
		require.NoError(t, err)
		call.Accounts[2] = other[2]
		tx := s.ledger.Begin()
		defer tx.Rollback()
		err = tx.Invoke(call)
		assert.True(t, errors.Is(err, relay.ErrAccountMismatch))
	})

	t.Run("missing_accounts", func(t *testing.T) {
		call := s.sendCall(t, dstChainID, payload)
		call.Accounts = call.Accounts[:2]
		tx := s.ledger.Begin()
		defer tx.Rollback()
		err := tx.Invoke(call)
		assert.True(t, errors.Is(err, relay.ErrMissingAccounts))
	})

	t.Run("invalid_instruction", func(t *testing.T) {
		call := s.sendCall(t, dstChainID, payload)
		call.Data = call.Data[:10]
		tx := s.ledger.Begin()
		defer tx.Rollback()
		err := tx.Invoke(call)
		assert.True(t, errors.Is(err, relay.ErrInvalidInstruction))
	})
}

func Test_Endpoint_WithoutPeers(t *testing.T) {
	prng := rand.New(rand.NewSource(1729))
	l := ledger.New(identitytest.AcceptAllVerifier{})
	endpoint, err := relay.NewEndpoint(identitytest.NewRandomIdentity(prng), nil)
	require.NoError(t, err)
	require.NoError(t, l.RegisterProgram(endpoint))

	sender := identitytest.NewRandomIdentity(prng)
	data, err := relay.SendParams{DstChainID: unknownChainID}.MarshalBinary()
	require.NoError(t, err)
	accounts, err := endpoint.Accounts(sender, unknownChainID)
	require.NoError(t, err)

	tx := l.Begin(sender)
	require.NoError(t, tx.Invoke(ledger.Call{Program: endpoint.ID(), Data: data, Accounts: accounts}))
	require.NoError(t, tx.Commit())

	packets, err := endpoint.Packets(l.Events())
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, [32]byte{}, packets[0].Receiver)
	assert.Nil(t, packets[0].Message)
}

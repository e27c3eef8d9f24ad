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

package relay

import (
	"encoding/binary"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/ledger"
	"github.com/hyperledger-labs/custody-node/log"
)

// Seeds of the accounts derived under the relay program.
const (
	StoreSeed = "Store"
	PeerSeed  = "Peer"
	NonceSeed = "Nonce"
)

// EventPacketSent is the name of the event emitted for each outbound packet.
const EventPacketSent = "PacketSent"

// Errors returned by the endpoint.
var (
	ErrMissingAccounts = errors.New("missing accounts")
	ErrAccountMismatch = errors.New("account does not match the derived address")
	ErrUnknownPeer     = errors.New("no peer configured for destination chain")
)

// StoreAddress returns the address of the relay store, the account the relay program sends
// from.
func StoreAddress(programID identity.Identity) (identity.Identity, uint8, error) {
	return identity.FindProgramAddress([][]byte{[]byte(StoreSeed)}, programID)
}

// PeerAddress returns the address of the peer account holding the receiver for the
// destination chain.
func PeerAddress(programID, store identity.Identity, dstChainID uint32) (identity.Identity, uint8, error) {
	return identity.FindProgramAddress([][]byte{[]byte(PeerSeed), store.Bytes(), chainIDSeed(dstChainID)}, programID)
}

func nonceAddress(programID, store identity.Identity, dstChainID uint32, receiver [32]byte) (identity.Identity, uint8, error) {
	return identity.FindProgramAddress(
		[][]byte{[]byte(NonceSeed), store.Bytes(), chainIDSeed(dstChainID), receiver[:]}, programID)
}

func chainIDSeed(dstChainID uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], dstChainID)
	return b[:]
}

// SendAccounts returns the accounts to pass with a send instruction to the relay program at
// programID: the signing sender, the store and the peer of the destination chain.
func SendAccounts(programID, sender identity.Identity, dstChainID uint32) ([]ledger.AccountMeta, error) {
	store, _, err := StoreAddress(programID)
	if err != nil {
		return nil, errors.WithMessage(err, "deriving store address")
	}
	peer, _, err := PeerAddress(programID, store, dstChainID)
	if err != nil {
		return nil, errors.WithMessage(err, "deriving peer address")
	}
	return []ledger.AccountMeta{
		{Address: sender, IsSigner: true},
		{Address: store},
		{Address: peer, IsWritable: true},
	}, nil
}

// Packet is an outbound message accepted by the endpoint.
type Packet struct {
	Nonce      uint64
	Sender     identity.Identity
	DstChainID uint32
	Receiver   [32]byte
	Message    []byte
	Options    []byte
	NativeFee  uint64
	TokenFee   uint64
}

// Endpoint is the relay program. It accepts send instructions from any program that can sign
// for the sender account and records each as a packet with a nonce that increases per
// destination chain and receiver.
type Endpoint struct {
	id    identity.Identity
	store identity.Identity
	peers map[uint32][32]byte

	log.Logger
}

// NewEndpoint returns the relay program deployed at programID. If peers is not empty, only the
// destination chains it lists are accepted.
func NewEndpoint(programID identity.Identity, peers map[uint32][32]byte) (*Endpoint, error) {
	store, _, err := StoreAddress(programID)
	if err != nil {
		return nil, errors.WithMessage(err, "deriving store address")
	}
	peersCopy := make(map[uint32][32]byte, len(peers))
	for chainID, receiver := range peers {
		peersCopy[chainID] = receiver
	}
	return &Endpoint{
		id:     programID,
		store:  store,
		peers:  peersCopy,
		Logger: log.NewLoggerWithField("relay", programID.String()),
	}, nil
}

// ID implements ledger.Program.
func (e *Endpoint) ID() identity.Identity {
	return e.id
}

// Store returns the address of the relay store.
func (e *Endpoint) Store() identity.Identity {
	return e.store
}

// Accounts returns the accounts to pass with a send instruction from sender to the destination
// chain.
func (e *Endpoint) Accounts(sender identity.Identity, dstChainID uint32) ([]ledger.AccountMeta, error) {
	return SendAccounts(e.id, sender, dstChainID)
}

// Process implements ledger.Program. It handles the send instruction.
func (e *Endpoint) Process(tx *ledger.Tx, call ledger.Call) error {
	var params SendParams
	if err := params.UnmarshalBinary(call.Data); err != nil {
		return err
	}
	if len(call.Accounts) < 3 {
		return errors.WithMessagef(ErrMissingAccounts, "got %d, want 3", len(call.Accounts))
	}
	sender := call.Accounts[0].Address
	wantAccounts, err := e.Accounts(sender, params.DstChainID)
	if err != nil {
		return err
	}
	if !call.IsSigner(sender) {
		return errors.WithMessage(ledger.ErrMissingSignature, sender.String())
	}
	for i := 1; i < len(wantAccounts); i++ {
		if call.Accounts[i].Address != wantAccounts[i].Address {
			return errors.WithMessagef(ErrAccountMismatch, "account %d: got %s, want %s",
				i, call.Accounts[i].Address, wantAccounts[i].Address)
		}
	}

	var receiver [32]byte
	if len(e.peers) > 0 {
		var ok bool
		if receiver, ok = e.peers[params.DstChainID]; !ok {
			return errors.WithMessagef(ErrUnknownPeer, "%d", params.DstChainID)
		}
	}

	nonce, err := e.nextNonce(tx, params.DstChainID, receiver)
	if err != nil {
		return err
	}
	p := Packet{
		Nonce:      nonce,
		Sender:     sender,
		DstChainID: params.DstChainID,
		Receiver:   receiver,
		Message:    params.Message,
		Options:    params.Options,
		NativeFee:  params.NativeFee,
		TokenFee:   params.TokenFee,
	}
	tx.Emit(e.id, EventPacketSent, packetAttrs(p))
	e.WithFields(log.Fields{"dstChainId": p.DstChainID, "nonce": p.Nonce}).Debug("Packet sent")
	return nil
}

func (e *Endpoint) nextNonce(tx *ledger.Tx, dstChainID uint32, receiver [32]byte) (uint64, error) {
	addr, _, err := nonceAddress(e.id, e.store, dstChainID, receiver)
	if err != nil {
		return 0, errors.WithMessage(err, "deriving nonce address")
	}
	acc, ok := tx.Account(addr)
	if !ok {
		return 1, tx.CreateAccount(e.id, addr, encodeNonce(1))
	}
	if len(acc.Data) != 8 {
		return 0, errors.WithMessage(ledger.ErrInvalidAccountData, "nonce")
	}
	nonce := binary.LittleEndian.Uint64(acc.Data) + 1
	return nonce, tx.WriteAccount(e.id, addr, encodeNonce(nonce))
}

func encodeNonce(nonce uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, nonce)
	return b
}

func packetAttrs(p Packet) map[string]string {
	return map[string]string{
		"nonce":      strconv.FormatUint(p.Nonce, 10),
		"sender":     p.Sender.String(),
		"dstChainId": strconv.FormatUint(uint64(p.DstChainID), 10),
		"receiver":   hexutil.Encode(p.Receiver[:]),
		"message":    hexutil.Encode(p.Message),
		"options":    hexutil.Encode(p.Options),
		"nativeFee":  strconv.FormatUint(p.NativeFee, 10),
		"tokenFee":   strconv.FormatUint(p.TokenFee, 10),
	}
}

// Packets returns the packets sent through the endpoint, in the order of the events.
func (e *Endpoint) Packets(events []ledger.Event) ([]Packet, error) {
	var packets []Packet
	for _, ev := range events {
		if ev.Program != e.id || ev.Name != EventPacketSent {
			continue
		}
		p, err := parsePacket(ev.Attrs)
		if err != nil {
			return nil, errors.WithMessagef(err, "event %d", ev.Seq)
		}
		packets = append(packets, p)
	}
	return packets, nil
}

func parsePacket(attrs map[string]string) (p Packet, err error) {
	fail := func(name string, err error) (Packet, error) {
		return Packet{}, errors.Wrapf(err, "parsing %s", name)
	}
	if p.Nonce, err = strconv.ParseUint(attrs["nonce"], 10, 64); err != nil {
		return fail("nonce", err)
	}
	if p.Sender, err = identity.ParseIdentity(attrs["sender"]); err != nil {
		return fail("sender", err)
	}
	chainID, err := strconv.ParseUint(attrs["dstChainId"], 10, 32)
	if err != nil {
		return fail("dstChainId", err)
	}
	p.DstChainID = uint32(chainID)
	if p.Receiver, err = HexToWord(attrs["receiver"]); err != nil {
		return fail("receiver", err)
	}
	if p.Message, err = decodeBytes(attrs["message"]); err != nil {
		return fail("message", err)
	}
	if p.Options, err = decodeBytes(attrs["options"]); err != nil {
		return fail("options", err)
	}
	if p.NativeFee, err = strconv.ParseUint(attrs["nativeFee"], 10, 64); err != nil {
		return fail("nativeFee", err)
	}
	if p.TokenFee, err = strconv.ParseUint(attrs["tokenFee"], 10, 64); err != nil {
		return fail("tokenFee", err)
	}
	return p, nil
}

func decodeBytes(s string) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) == 0 {
		return nil, err
	}
	return b, nil
}

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

package ledger

import (
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/custody-node/identity"
)

type (
	// Call is a nested invocation of a program by another program.
	//
	// Authorizations are checked by the ledger before the callee runs: each must be issued for
	// the Caller program and pass the ledger's verifier. The identities they prove, together
	// with the signers of the transaction, are available to the callee as Signers.
	Call struct {
		Caller         identity.Identity
		Program        identity.Identity
		Data           []byte
		Accounts       []AccountMeta
		Authorizations []identity.Authorization

		signers map[identity.Identity]bool
	}

	// Program processes nested calls.
	Program interface {
		ID() identity.Identity
		Process(tx *Tx, call Call) error
	}
)

// IsSigner reports whether the identity signed the transaction or was authorized by the caller.
func (c Call) IsSigner(id identity.Identity) bool {
	return c.signers[id]
}

// Tx is an open transaction. Reads see the writes of the transaction itself; nothing is
// visible to other readers of the ledger until Commit.
//
// A Tx must be finished with exactly one of Commit or Rollback.
type Tx struct {
	l       *Ledger
	signers map[identity.Identity]bool
	depth   int
	done    bool

	accounts map[identity.Identity]Account
	mints    map[identity.Identity]Mint
	holdings map[identity.Identity]Holding
	events   []Event
}

func newTx(l *Ledger, signers []identity.Identity) *Tx {
	signerSet := make(map[identity.Identity]bool, len(signers))
	for _, s := range signers {
		signerSet[s] = true
	}
	return &Tx{
		l:        l,
		signers:  signerSet,
		accounts: make(map[identity.Identity]Account),
		mints:    make(map[identity.Identity]Mint),
		holdings: make(map[identity.Identity]Holding),
	}
}

// IsSigner reports whether the identity signed the transaction.
func (tx *Tx) IsSigner(id identity.Identity) bool {
	return tx.signers[id]
}

// Commit applies all changes of the transaction to the ledger.
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	defer tx.l.txMtx.Unlock()

	tx.l.mtx.Lock()
	defer tx.l.mtx.Unlock()
	for addr, acc := range tx.accounts {
		tx.l.accounts[addr] = acc
	}
	for addr, m := range tx.mints {
		tx.l.mints[addr] = m
	}
	for addr, h := range tx.holdings {
		tx.l.holdings[addr] = h
	}
	next := uint64(len(tx.l.events))
	for _, e := range tx.events {
		e.Seq = next
		next++
		tx.l.events = append(tx.l.events, e)
	}
	return nil
}

// Rollback discards all changes of the transaction. It is safe to call after Commit, in which
// case it does nothing, so that it can be deferred.
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.l.txMtx.Unlock()
}

// Account returns the data account at the address.
func (tx *Tx) Account(addr identity.Identity) (Account, bool) {
	if acc, ok := tx.accounts[addr]; ok {
		return acc.clone(), true
	}
	return tx.l.Account(addr)
}

// CreateAccount creates a data account owned by the program. It fails with ErrAccountExists if
// any account already uses the address.
func (tx *Tx) CreateAccount(owner, addr identity.Identity, data []byte) error {
	if tx.inUse(addr) {
		return errors.WithMessage(ErrAccountExists, addr.String())
	}
	tx.accounts[addr] = Account{Address: addr, Owner: owner, Data: append([]byte(nil), data...)}
	return nil
}

// WriteAccount replaces the data of an existing account. Only the owner program may write.
func (tx *Tx) WriteAccount(owner, addr identity.Identity, data []byte) error {
	acc, ok := tx.Account(addr)
	if !ok {
		return errors.WithMessage(ErrAccountNotFound, addr.String())
	}
	if acc.Owner != owner {
		return errors.WithMessage(ErrAccountOwner, addr.String())
	}
	acc.Data = append([]byte(nil), data...)
	tx.accounts[addr] = acc
	return nil
}

// Mint returns the mint at the address.
func (tx *Tx) Mint(addr identity.Identity) (Mint, bool) {
	if m, ok := tx.mints[addr]; ok {
		return m, true
	}
	return tx.l.Mint(addr)
}

// Holding returns the token account at the address.
func (tx *Tx) Holding(addr identity.Identity) (Holding, bool) {
	if h, ok := tx.holdings[addr]; ok {
		return h, true
	}
	return tx.l.Holding(addr)
}

// CreateMint creates a new mint with the given decimal precision.
func (tx *Tx) CreateMint(addr identity.Identity, decimals uint8) error {
	if tx.inUse(addr) {
		return errors.WithMessage(ErrAccountExists, addr.String())
	}
	tx.mints[addr] = Mint{Address: addr, Decimals: decimals}
	return nil
}

// CreateHolding creates an empty token account of the mint for the owner.
func (tx *Tx) CreateHolding(addr, owner, mint identity.Identity) error {
	if tx.inUse(addr) {
		return errors.WithMessage(ErrAccountExists, addr.String())
	}
	if _, ok := tx.Mint(mint); !ok {
		return errors.WithMessage(ErrMintNotFound, mint.String())
	}
	tx.holdings[addr] = Holding{Address: addr, Owner: owner, Mint: mint}
	return nil
}

// MintTo issues new tokens into the token account.
func (tx *Tx) MintTo(holding identity.Identity, amount uint64) error {
	h, ok := tx.Holding(holding)
	if !ok {
		return errors.WithMessage(ErrHoldingNotFound, holding.String())
	}
	m, ok := tx.Mint(h.Mint)
	if !ok {
		return errors.WithMessage(ErrMintNotFound, h.Mint.String())
	}
	if h.Amount+amount < h.Amount || m.Supply+amount < m.Supply {
		return ErrOverflow
	}
	h.Amount += amount
	m.Supply += amount
	tx.holdings[holding] = h
	tx.mints[m.Address] = m
	return nil
}

// Emit records an event of the program. It becomes part of the ledger log on Commit.
func (tx *Tx) Emit(program identity.Identity, name string, attrs map[string]string) {
	tx.events = append(tx.events, Event{Program: program, Name: name, Attrs: attrs}.clone())
}

// Invoke runs a nested call of call.Program. An error returned by the callee is returned
// unchanged; the caller decides whether the transaction is to be rolled back.
func (tx *Tx) Invoke(call Call) error {
	if tx.done {
		return ErrTxDone
	}
	if tx.depth >= MaxCallDepth {
		return ErrCallDepthExceeded
	}
	tx.l.mtx.RLock()
	p, ok := tx.l.programs[call.Program]
	tx.l.mtx.RUnlock()
	if !ok {
		return errors.WithMessage(ErrProgramNotFound, call.Program.String())
	}

	signers := make(map[identity.Identity]bool, len(tx.signers)+len(call.Authorizations))
	for s := range tx.signers {
		signers[s] = true
	}
	for _, auth := range call.Authorizations {
		if !tx.verify(call.Caller, auth) {
			return errors.WithMessagef(ErrMissingSignature, "invalid authorization for %s", auth.Signer)
		}
		signers[auth.Signer] = true
	}
	call.signers = signers

	tx.depth++
	defer func() { tx.depth-- }()
	return p.Process(tx, call)
}

// verify checks that the authorization was issued for the caller program.
func (tx *Tx) verify(caller identity.Identity, auth identity.Authorization) bool {
	return auth.ProgramID == caller && tx.l.verifier.Verify(auth)
}

// authorized reports whether id signed the transaction or is proven by one of the
// authorizations of the caller.
func (tx *Tx) authorized(caller, id identity.Identity, auths []identity.Authorization) bool {
	if tx.signers[id] {
		return true
	}
	for _, auth := range auths {
		if auth.Signer == id && tx.verify(caller, auth) {
			return true
		}
	}
	return false
}

func (tx *Tx) inUse(addr identity.Identity) bool {
	if _, ok := tx.Account(addr); ok {
		return true
	}
	if _, ok := tx.Mint(addr); ok {
		return true
	}
	_, ok := tx.Holding(addr)
	return ok
}

// TransferChecked describes a transfer between two token accounts of the same mint.
type TransferChecked struct {
	From      identity.Identity
	To        identity.Identity
	Authority identity.Identity
	Mint      identity.Identity
	Amount    uint64
	Decimals  uint8
}

// TransferChecked moves tokens between two token accounts. The authority must own the source
// account and must either sign the transaction or be proven by an authorization issued for the
// caller program.
func (tx *Tx) TransferChecked(caller identity.Identity, t TransferChecked, auths ...identity.Authorization) error {
	m, ok := tx.Mint(t.Mint)
	if !ok {
		return errors.WithMessage(ErrMintNotFound, t.Mint.String())
	}
	if m.Decimals != t.Decimals {
		return errors.WithMessagef(ErrDecimalsMismatch, "mint has %d, got %d", m.Decimals, t.Decimals)
	}
	from, ok := tx.Holding(t.From)
	if !ok {
		return errors.WithMessage(ErrHoldingNotFound, t.From.String())
	}
	to, ok := tx.Holding(t.To)
	if !ok {
		return errors.WithMessage(ErrHoldingNotFound, t.To.String())
	}
	if from.Mint != t.Mint {
		return errors.WithMessage(ErrMintMismatch, t.From.String())
	}
	if to.Mint != t.Mint {
		return errors.WithMessage(ErrMintMismatch, t.To.String())
	}
	if from.Owner != t.Authority {
		return errors.WithMessage(ErrOwnerMismatch, t.From.String())
	}
	if !tx.authorized(caller, t.Authority, auths) {
		return errors.WithMessage(ErrMissingSignature, t.Authority.String())
	}
	if from.Amount < t.Amount {
		return errors.WithMessagef(ErrInsufficientFunds, "have %d, want %d", from.Amount, t.Amount)
	}
	if t.From == t.To {
		return nil
	}
	if to.Amount+t.Amount < to.Amount {
		return ErrOverflow
	}
	from.Amount -= t.Amount
	to.Amount += t.Amount
	tx.holdings[t.From] = from
	tx.holdings[t.To] = to
	return nil
}

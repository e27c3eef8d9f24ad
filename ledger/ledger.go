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
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/custody-node/identity"
)

// Errors returned by the ledger.
var (
	ErrAccountExists      = errors.New("account already in use")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountOwner       = errors.New("account is not owned by the program")
	ErrMintNotFound       = errors.New("mint not found")
	ErrHoldingNotFound    = errors.New("token account not found")
	ErrDecimalsMismatch   = errors.New("decimals do not match the mint")
	ErrMintMismatch       = errors.New("token account does not belong to the mint")
	ErrOwnerMismatch      = errors.New("authority does not own the token account")
	ErrMissingSignature   = errors.New("missing required signature")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrOverflow           = errors.New("amount overflow")
	ErrProgramNotFound    = errors.New("program not found")
	ErrCallDepthExceeded  = errors.New("nested call depth exceeded")
	ErrTxDone             = errors.New("transaction already committed or rolled back")
	ErrProgramRegistered  = errors.New("program already registered")
	ErrInvalidAccountData = errors.New("invalid account data")
)

// MaxCallDepth is the maximum nesting of program calls within one transaction.
const MaxCallDepth = 4

type (
	// Mint is a fungible asset type.
	Mint struct {
		Address  identity.Identity `yaml:"address"`
		Decimals uint8             `yaml:"decimals"`
		Supply   uint64            `yaml:"supply"`
	}

	// Holding is a balance of one mint, controlled by its owner.
	Holding struct {
		Address identity.Identity `yaml:"address"`
		Owner   identity.Identity `yaml:"owner"`
		Mint    identity.Identity `yaml:"mint"`
		Amount  uint64            `yaml:"amount"`
	}

	// Account is a data account. Only its owner program can modify the data.
	Account struct {
		Address identity.Identity
		Owner   identity.Identity
		Data    []byte
	}

	// AccountMeta references an account passed along with a call.
	AccountMeta struct {
		Address    identity.Identity `yaml:"address"`
		IsSigner   bool              `yaml:"isSigner"`
		IsWritable bool              `yaml:"isWritable"`
	}

	// Event is an observability record emitted by a program. Events are only appended to the
	// ledger log when the transaction that emitted them commits, and are not read back by
	// programs.
	Event struct {
		Seq     uint64            `yaml:"seq"`
		Program identity.Identity `yaml:"program"`
		Name    string            `yaml:"name"`
		Attrs   map[string]string `yaml:"attrs"`
	}
)

// Ledger holds the committed state. Transactions are serialized: Begin blocks until the
// previous transaction has been committed or rolled back.
type Ledger struct {
	txMtx sync.Mutex // held by the open transaction.

	mtx      sync.RWMutex // guards the fields below.
	verifier identity.Verifier
	programs map[identity.Identity]Program
	accounts map[identity.Identity]Account
	mints    map[identity.Identity]Mint
	holdings map[identity.Identity]Holding
	events   []Event
}

// New returns an empty ledger that checks authorizations of derived identities using the
// verifier.
func New(verifier identity.Verifier) *Ledger {
	return &Ledger{
		verifier: verifier,
		programs: make(map[identity.Identity]Program),
		accounts: make(map[identity.Identity]Account),
		mints:    make(map[identity.Identity]Mint),
		holdings: make(map[identity.Identity]Holding),
	}
}

// RegisterProgram makes the program available for nested calls.
func (l *Ledger) RegisterProgram(p Program) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if _, ok := l.programs[p.ID()]; ok {
		return errors.WithMessage(ErrProgramRegistered, p.ID().String())
	}
	l.programs[p.ID()] = p
	return nil
}

// Begin opens a transaction in which the given identities have signed.
func (l *Ledger) Begin(signers ...identity.Identity) *Tx {
	l.txMtx.Lock()
	return newTx(l, signers)
}

// Account returns the committed data account at the address.
func (l *Ledger) Account(addr identity.Identity) (Account, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	acc, ok := l.accounts[addr]
	return acc.clone(), ok
}

// Holding returns the committed token account at the address.
func (l *Ledger) Holding(addr identity.Identity) (Holding, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	h, ok := l.holdings[addr]
	return h, ok
}

// Mint returns the committed mint at the address.
func (l *Ledger) Mint(addr identity.Identity) (Mint, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	m, ok := l.mints[addr]
	return m, ok
}

// HoldingsOf returns all token accounts of the owner, ordered by address.
func (l *Ledger) HoldingsOf(owner identity.Identity) []Holding {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	var hs []Holding
	for _, h := range l.holdings {
		if h.Owner == owner {
			hs = append(hs, h)
		}
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].Address.String() < hs[j].Address.String() })
	return hs
}

// Events returns a copy of the event log.
func (l *Ledger) Events() []Event {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	events := make([]Event, len(l.events))
	for i := range l.events {
		events[i] = l.events[i].clone()
	}
	return events
}

// CreateMint is a convenience wrapper that creates a mint in its own transaction.
func (l *Ledger) CreateMint(addr identity.Identity, decimals uint8) error {
	tx := l.Begin()
	if err := tx.CreateMint(addr, decimals); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateHolding is a convenience wrapper that creates a token account in its own transaction.
func (l *Ledger) CreateHolding(addr, owner, mint identity.Identity) error {
	tx := l.Begin()
	if err := tx.CreateHolding(addr, owner, mint); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// MintTo is a convenience wrapper that issues new tokens in its own transaction.
func (l *Ledger) MintTo(holding identity.Identity, amount uint64) error {
	tx := l.Begin()
	if err := tx.MintTo(holding, amount); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (a Account) clone() Account {
	a.Data = append([]byte(nil), a.Data...)
	return a
}

func (e Event) clone() Event {
	attrs := make(map[string]string, len(e.Attrs))
	for k, v := range e.Attrs {
		attrs[k] = v
	}
	e.Attrs = attrs
	return e
}

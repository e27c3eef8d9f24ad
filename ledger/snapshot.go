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
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hyperledger-labs/custody-node/identity"
)

type (
	// Snapshot is the committed state of a ledger in a serializable form. Records are sorted by
	// address so that the same state always produces the same file.
	Snapshot struct {
		Accounts []AccountRecord `yaml:"accounts"`
		Mints    []Mint          `yaml:"mints"`
		Holdings []Holding       `yaml:"holdings"`
		Events   []Event         `yaml:"events"`
	}

	// AccountRecord is the serializable form of a data account.
	AccountRecord struct {
		Address identity.Identity `yaml:"address"`
		Owner   identity.Identity `yaml:"owner"`
		Data    hexutil.Bytes     `yaml:"data"`
	}
)

// Snapshot returns the committed state of the ledger.
func (l *Ledger) Snapshot() Snapshot {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return newSnapshot(l.accounts, l.mints, l.holdings, l.events)
}

// Snapshot returns the state the ledger would have after committing the transaction. The
// ledger itself is not changed.
func (tx *Tx) Snapshot() Snapshot {
	tx.l.mtx.RLock()
	defer tx.l.mtx.RUnlock()

	accounts := make(map[identity.Identity]Account, len(tx.l.accounts)+len(tx.accounts))
	for addr, acc := range tx.l.accounts {
		accounts[addr] = acc
	}
	for addr, acc := range tx.accounts {
		accounts[addr] = acc
	}
	mints := make(map[identity.Identity]Mint, len(tx.l.mints)+len(tx.mints))
	for addr, m := range tx.l.mints {
		mints[addr] = m
	}
	for addr, m := range tx.mints {
		mints[addr] = m
	}
	holdings := make(map[identity.Identity]Holding, len(tx.l.holdings)+len(tx.holdings))
	for addr, h := range tx.l.holdings {
		holdings[addr] = h
	}
	for addr, h := range tx.holdings {
		holdings[addr] = h
	}
	events := make([]Event, 0, len(tx.l.events)+len(tx.events))
	events = append(events, tx.l.events...)
	for _, e := range tx.events {
		e.Seq = uint64(len(events))
		events = append(events, e)
	}
	return newSnapshot(accounts, mints, holdings, events)
}

func newSnapshot(accounts map[identity.Identity]Account, mints map[identity.Identity]Mint,
	holdings map[identity.Identity]Holding, events []Event) Snapshot {
	s := Snapshot{
		Accounts: make([]AccountRecord, 0, len(accounts)),
		Mints:    make([]Mint, 0, len(mints)),
		Holdings: make([]Holding, 0, len(holdings)),
		Events:   make([]Event, 0, len(events)),
	}
	for _, acc := range accounts {
		s.Accounts = append(s.Accounts, AccountRecord{
			Address: acc.Address,
			Owner:   acc.Owner,
			Data:    append(hexutil.Bytes(nil), acc.Data...),
		})
	}
	for _, m := range mints {
		s.Mints = append(s.Mints, m)
	}
	for _, h := range holdings {
		s.Holdings = append(s.Holdings, h)
	}
	for _, e := range events {
		s.Events = append(s.Events, e.clone())
	}
	sort.Slice(s.Accounts, func(i, j int) bool { return less(s.Accounts[i].Address, s.Accounts[j].Address) })
	sort.Slice(s.Mints, func(i, j int) bool { return less(s.Mints[i].Address, s.Mints[j].Address) })
	sort.Slice(s.Holdings, func(i, j int) bool { return less(s.Holdings[i].Address, s.Holdings[j].Address) })
	return s
}

// Restore replaces the committed state of the ledger with the snapshot. Registered programs
// are retained.
func (l *Ledger) Restore(s Snapshot) error {
	accounts := make(map[identity.Identity]Account, len(s.Accounts))
	for _, rec := range s.Accounts {
		if _, ok := accounts[rec.Address]; ok {
			return errors.WithMessage(ErrAccountExists, rec.Address.String())
		}
		accounts[rec.Address] = Account{Address: rec.Address, Owner: rec.Owner, Data: append([]byte(nil), rec.Data...)}
	}
	mints := make(map[identity.Identity]Mint, len(s.Mints))
	for _, m := range s.Mints {
		if _, ok := mints[m.Address]; ok {
			return errors.WithMessage(ErrAccountExists, m.Address.String())
		}
		mints[m.Address] = m
	}
	holdings := make(map[identity.Identity]Holding, len(s.Holdings))
	for _, h := range s.Holdings {
		if _, ok := holdings[h.Address]; ok {
			return errors.WithMessage(ErrAccountExists, h.Address.String())
		}
		if _, ok := mints[h.Mint]; !ok {
			return errors.WithMessagef(ErrMintNotFound, "%s for token account %s", h.Mint, h.Address)
		}
		holdings[h.Address] = h
	}
	events := make([]Event, len(s.Events))
	for i := range s.Events {
		events[i] = s.Events[i].clone()
		events[i].Seq = uint64(i)
	}

	l.txMtx.Lock()
	defer l.txMtx.Unlock()
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.accounts, l.mints, l.holdings, l.events = accounts, mints, holdings, events
	return nil
}

// LoadFile restores the ledger from the yaml file at the path. An empty file restores an
// empty ledger.
func (l *Ledger) LoadFile(path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return errors.Wrap(err, "opening state file")
	}
	defer f.Close() // nolint: errcheck, gosec  // safe to defer f.Close() for files opened in read mode.

	var s Snapshot
	if err = yaml.NewDecoder(f).Decode(&s); err != nil && err != io.EOF {
		return errors.Wrap(err, "decoding state file")
	}
	return l.Restore(s)
}

// SaveFile writes the committed state of the ledger to the yaml file at the path.
func (l *Ledger) SaveFile(path string) error {
	return l.Snapshot().SaveFile(path)
}

// SaveFile writes the snapshot to the yaml file at the path.
func (s Snapshot) SaveFile(path string) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return errors.Wrap(err, "opening state file for writing")
	}
	defer func() {
		if fCloseErr := f.Close(); fCloseErr != nil && err == nil {
			err = errors.Wrap(fCloseErr, "closing state file")
		}
	}()

	encoder := yaml.NewEncoder(f)
	if err = encoder.Encode(s); err != nil {
		return errors.Wrap(err, "encoding data as yaml")
	}
	err = errors.Wrap(encoder.Close(), "closing encoder")
	return err
}

func less(a, b identity.Identity) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

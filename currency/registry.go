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

package currency

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/custody-node/identity"
)

// Registry implements an asset registry with assets indexed by symbol and by mint.
//
// It uses a slice to keep track of registered symbols because iterating over
// map to retrieve the symbols each time will result in different ordering of
// symbols in the list.
type Registry struct {
	mtx     sync.RWMutex
	symbols []string
	assets  map[string]Asset
	byMint  map[identity.Identity]string
}

// NewRegistry initializes an asset registry.
func NewRegistry() *Registry {
	return &Registry{
		assets: make(map[string]Asset),
		byMint: make(map[identity.Identity]string),
	}
}

// Symbols returns a list of all the assets registered in this registry.
func (r *Registry) Symbols() []string {
	r.mtx.RLock()
	symbols := make([]string, len(r.symbols))
	copy(symbols, r.symbols)
	r.mtx.RUnlock()
	return symbols
}

// IsRegistered checks if an asset is registered for the given symbol.
func (r *Registry) IsRegistered(symbol string) bool {
	r.mtx.RLock()
	_, ok := r.assets[symbol]
	r.mtx.RUnlock()
	return ok
}

// Register adds the asset to the registry and returns it.
//
// Returns an error if the symbol or the mint is already registered, or if the decimals
// exceed MaxDecimals.
func (r *Registry) Register(symbol string, mint identity.Identity, decimals uint8) (Asset, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if symbol == "" {
		return Asset{}, errors.New("symbol should not be empty")
	}
	if decimals > MaxDecimals {
		return Asset{}, errors.Errorf("decimals should be at most %d", MaxDecimals)
	}
	if _, ok := r.assets[symbol]; ok {
		return Asset{}, errors.New("asset already registered for the given symbol")
	}
	if _, ok := r.byMint[mint]; ok {
		return Asset{}, errors.New("asset already registered for the given mint")
	}
	a := Asset{Symbol: symbol, Mint: mint, Decimals: decimals}
	r.assets[symbol] = a
	r.byMint[mint] = symbol
	r.symbols = append(r.symbols, symbol)
	return a, nil
}

// Asset returns the asset registered for the symbol.
func (r *Registry) Asset(symbol string) (Asset, bool) {
	r.mtx.RLock()
	a, ok := r.assets[symbol]
	r.mtx.RUnlock()
	return a, ok
}

// ByMint returns the asset registered for the mint.
func (r *Registry) ByMint(mint identity.Identity) (Asset, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	symbol, ok := r.byMint[mint]
	if !ok {
		return Asset{}, false
	}
	return r.assets[symbol], true
}

// Resolve returns the asset for a symbol or, failing that, for a base58 mint identity.
func (r *Registry) Resolve(symbolOrMint string) (Asset, error) {
	if a, ok := r.Asset(symbolOrMint); ok {
		return a, nil
	}
	mint, err := identity.ParseIdentity(symbolOrMint)
	if err != nil {
		return Asset{}, errors.Errorf("unknown asset %s", symbolOrMint)
	}
	if a, ok := r.ByMint(mint); ok {
		return a, nil
	}
	return Asset{}, errors.Errorf("unknown asset %s", symbolOrMint)
}

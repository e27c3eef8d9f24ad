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
	"math"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/hyperledger-labs/custody-node/identity"
)

// MaxDecimals is the maximum decimal precision of an asset. Amounts are held as uint64 minor
// units, which cannot represent a whole unit beyond this precision with useful range.
const MaxDecimals uint8 = 18

var maxAmount = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// Asset converts amounts of one fungible asset between minor units, as held in token accounts,
// and their decimal string representation.
type Asset struct {
	Symbol   string
	Mint     identity.Identity
	Decimals uint8
}

// Parse parses the decimal string and returns the amount in minor units.
//
// It fails if the input has more decimal places than the asset, is negative or does not fit
// into uint64.
func (a Asset) Parse(input string) (uint64, error) {
	amount, err := decimal.NewFromString(input)
	if err != nil {
		return 0, errors.Wrap(err, "invalid decimal string")
	}
	if amount.IsNegative() {
		return 0, errors.New("amount should not be negative")
	}

	minor := amount.Shift(int32(a.Decimals))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, errors.Errorf("amount has more than %d decimal places", a.Decimals)
	}
	if minor.GreaterThan(maxAmount) {
		return 0, errors.Errorf("amount is too large for %s", a.Symbol)
	}
	return minor.BigInt().Uint64(), nil
}

// Print returns the amount in minor units as a decimal string with all decimal places of the
// asset.
func (a Asset) Print(amount uint64) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(a.Decimals))
	return d.StringFixed(int32(a.Decimals))
}

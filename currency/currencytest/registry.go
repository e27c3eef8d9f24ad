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

package currencytest

import (
	"github.com/hyperledger-labs/custody-node/currency"
	"github.com/hyperledger-labs/custody-node/identity"
)

// Symbols and decimals of the assets registered by Registry.
const (
	USDCSymbol   = "USDC"
	USDCDecimals = 6
	WSOLSymbol   = "WSOL"
	WSOLDecimals = 9
)

// Registry returns an asset registry for use in tests with USDC and WSOL registered at the
// given mints.
func Registry(usdcMint, wsolMint identity.Identity) *currency.Registry {
	r := currency.NewRegistry()
	//nolint: errcheck		// Registering distinct assets on a new registry will not fail.
	r.Register(USDCSymbol, usdcMint, USDCDecimals)
	//nolint: errcheck		// Registering distinct assets on a new registry will not fail.
	r.Register(WSOLSymbol, wsolMint, WSOLDecimals)
	return r
}

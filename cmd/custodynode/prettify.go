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

package main

import (
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/kylelemons/godebug/pretty"

	"github.com/hyperledger-labs/custody-node/identity"
)

var prettyFormatterOverrides = map[reflect.Type]interface{}{
	reflect.TypeOf(identity.Identity{}): fmt.Sprint,
	reflect.TypeOf([32]byte{}):          func(w [32]byte) string { return hexutil.Encode(w[:]) },
	reflect.TypeOf([]byte{}):            func(b []byte) string { return hexutil.Encode(b) },
}

var prettyFormatterConfig = &pretty.Config{
	Formatter: prettyFormatterOverrides,
}

// prettify returns a prettified string version of the input data.
// Identities are printed in base58 and byte arrays in hex.
func prettify(vals ...interface{}) string {
	return prettyFormatterConfig.Sprint(vals...)
}

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
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/config"
	"github.com/hyperledger-labs/custody-node/currency"
	"github.com/hyperledger-labs/custody-node/node"
)

// areAllFlagsSpecified returns true if all of the flags were specified
// invoking the command to which the passed flagset was attached to.
// activeNode is the node instance used by all commands in one run of the program. It is created on
// first use by nodeAPI.
var activeNode *node.Node

// nodeAPI returns the node instance, initializing it from the node configuration on first use.
func nodeAPI(cmd *cobra.Command) *node.Node {
	if activeNode == nil {
		activeNode = newNode(cmd)
	}
	return activeNode
}

func areAllFlagsSpecified(fs *pflag.FlagSet, flags ...string) bool {
	for i := range flags {
		if !fs.Changed(flags[i]) {
			return false
		}
	}
	return true
}

// lookupFlags reads the values of the flags into their targets. It exits on error.
func lookupFlags(fs *pflag.FlagSet, targets ...config.FlagInfo) {
	exitOnError(config.LookUpMultiple(fs, targets), "Error parsing flags")
}

// markRequired marks the flags of the command as required. Cobra reports missing flags before
// running the command.
func markRequired(cmd *cobra.Command, flags ...string) {
	for i := range flags {
		if err := cmd.MarkFlagRequired(flags[i]); err != nil {
			panic(err)
		}
	}
}

// parseAmount resolves the asset by symbol or mint and parses the decimal amount into minor
// units of the asset. It exits on error.
func parseAmount(n *node.Node, assetStr, amountStr string) (currency.Asset, uint64) {
	asset, err := n.Assets().Resolve(assetStr)
	exitOnError(err, "Error resolving asset")
	amount, err := asset.Parse(amountStr)
	exitOnError(err, "Error parsing amount")
	return asset, amount
}

// exitOnAPIError prints the API error in red and exits, if apiErr is not nil.
func exitOnAPIError(apiErr custody.APIError, operation string) {
	if apiErr == nil {
		return
	}
	exitOnError(apiErr, "Error in %s (category: %s, code: %d, additional info: %+v)",
		operation, apiErr.Category(), apiErr.Code(), apiErr.AddInfo())
}

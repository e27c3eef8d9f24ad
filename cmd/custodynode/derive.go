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

	"github.com/spf13/cobra"

	"github.com/hyperledger-labs/custody-node/config"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/relay"
	"github.com/hyperledger-labs/custody-node/vault"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Print the derived addresses of the program",
	Long: `
Print the derived addresses of the custody program: the configuration registry,
the vault authority and, if a relay program is configured, the relay store.

With --asset, the claims account of the asset is printed as well and with
--owner and --asset, the liquidity position account.`,
	Run: deriveFn,
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	deriveCmd.Flags().String(ownerF, "", "Identity of the liquidity provider, base58")
	deriveCmd.Flags().String(assetF, "", "Asset, as symbol or mint")
}

// derivedAddress is an address derived from seeds, with its bump.
type derivedAddress struct {
	Name    string
	Address identity.Identity
	Bump    uint8
}

func deriveFn(cmd *cobra.Command, _ []string) {
	n := nodeAPI(cmd)
	programID := n.ProgramID()
	addrs := n.Addresses()
	derived := []derivedAddress{
		{"config", addrs.Config, addrs.ConfigBump},
		{"vault authority", addrs.VaultAuthority, addrs.VaultBump},
	}

	if relayIDStr := n.GetConfig().RelayProgramID; relayIDStr != "" {
		relayID, err := identity.ParseIdentity(relayIDStr)
		exitOnError(err, "Error parsing relay program id")
		store, bump, err := relay.StoreAddress(relayID)
		exitOnError(err, "Error deriving relay store")
		derived = append(derived, derivedAddress{"relay store", store, bump})
	}

	var owner identity.Identity
	var assetStr string
	targets := []config.FlagInfo{
		{Name: ownerF, Ptr: &owner},
		{Name: assetF, Ptr: &assetStr},
	}
	lookupFlags(cmd.Flags(), targets...)
	if targets[1].Changed {
		asset, err := n.Assets().Resolve(assetStr)
		exitOnError(err, "Error resolving asset")
		claims, bump, err := vault.ClaimsAddress(programID, asset.Mint)
		exitOnError(err, "Error deriving claims")
		derived = append(derived, derivedAddress{"claims " + asset.Symbol, claims, bump})

		if targets[0].Changed {
			pos, bump, err := vault.PositionAddress(programID, owner, asset.Mint)
			exitOnError(err, "Error deriving position")
			derived = append(derived, derivedAddress{"position " + asset.Symbol, pos, bump})
		}
	}

	for _, d := range derived {
		fmt.Printf("%-20s %s (bump %d)\n", d.Name, greenf("%s", d.Address), d.Bump)
	}
}

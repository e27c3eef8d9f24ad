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
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperledger-labs/custody-node/config"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/identity/identitytest"
)

const holdingF = "holding"

var (
	genesisCmd = &cobra.Command{
		Use:   "genesis",
		Short: "Create the mints of all configured assets and a vault token account for each",
		Long: `
Create the mints of all assets in the node configuration on the local ledger and a
token account for each mint, owned by the vault authority. Genesis operations do
not need any signature.`,
		Run: genesisFn,
	}

	createHoldingCmd = &cobra.Command{
		Use:   "create-holding",
		Short: "Create a token account with a random address and issue tokens into it",
		Run:   createHoldingFn,
	}

	mintToCmd = &cobra.Command{
		Use:   "mint-to",
		Short: "Issue tokens into a token account",
		Run:   mintToFn,
	}
)

func init() {
	rootCmd.AddCommand(genesisCmd)
	genesisCmd.AddCommand(createHoldingCmd, mintToCmd)

	createHoldingCmd.Flags().String(ownerF, "", "Identity of the owner, base58")
	createHoldingCmd.Flags().String(assetF, "", "Asset, as symbol or mint")
	createHoldingCmd.Flags().String(amountF, "0", "Amount as a decimal string, such as 1.5")
	markRequired(createHoldingCmd, ownerF, assetF)

	mintToCmd.Flags().String(holdingF, "", "Address of the token account, base58")
	mintToCmd.Flags().String(amountF, "", "Amount as a decimal string, such as 1.5")
	markRequired(mintToCmd, holdingF, amountF)
}

// newPRNG returns a prng for the addresses of new token accounts.
func newPRNG() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec	// addresses need not be secret.
}

func genesisFn(cmd *cobra.Command, _ []string) {
	n := nodeAPI(cmd)
	prng := newPRNG()
	authority := n.Addresses().VaultAuthority
	for _, symbol := range n.Assets().Symbols() {
		asset, _ := n.Assets().Asset(symbol)
		exitOnAPIError(n.CreateMint(asset.Mint, asset.Decimals), "create mint "+symbol)

		holding := identitytest.NewRandomIdentity(prng)
		exitOnAPIError(n.CreateHolding(holding, authority, asset.Mint, 0), "create vault holding "+symbol)
		fmt.Printf("%-6s mint %s, vault %s\n", symbol, asset.Mint, greenf("%s", holding))
	}
}

func createHoldingFn(cmd *cobra.Command, _ []string) {
	n := nodeAPI(cmd)
	var owner identity.Identity
	var assetStr string
	amountStr := "0"
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: ownerF, Ptr: &owner},
		config.FlagInfo{Name: assetF, Ptr: &assetStr},
		config.FlagInfo{Name: amountF, Ptr: &amountStr},
	)
	asset, amount := parseAmount(n, assetStr, amountStr)

	holding := identitytest.NewRandomIdentity(newPRNG())
	exitOnAPIError(n.CreateHolding(holding, owner, asset.Mint, amount), "create holding")
	fmt.Println(greenf("Created token account %s holding %s %s.", holding, asset.Print(amount), asset.Symbol))
}

func mintToFn(cmd *cobra.Command, _ []string) {
	n := nodeAPI(cmd)
	var holding identity.Identity
	var amountStr string
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: holdingF, Ptr: &holding},
		config.FlagInfo{Name: amountF, Ptr: &amountStr},
	)
	h, apiErr := n.GetHolding(holding)
	exitOnAPIError(apiErr, "mint to")
	asset, amount := parseAmount(n, h.Mint.String(), amountStr)

	exitOnAPIError(n.MintTo(holding, amount), "mint to")
	fmt.Println(greenf("Issued %s %s into %s.", asset.Print(amount), asset.Symbol, holding))
}

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
)

const addressF = "address"

var (
	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Read the state of the vault and the ledger",
	}

	queryConfigCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the vault configuration",
		Run:   queryConfigFn,
	}

	queryPositionCmd = &cobra.Command{
		Use:   "position",
		Short: "Print the liquidity position of an owner for an asset",
		Run:   queryPositionFn,
	}

	queryClaimsCmd = &cobra.Command{
		Use:   "claims",
		Short: "Print the total of all liquidity positions for an asset",
		Run:   queryClaimsFn,
	}

	queryHoldingCmd = &cobra.Command{
		Use:   "holding",
		Short: "Print a token account (--address) or all token accounts of an owner (--owner)",
		Run:   queryHoldingFn,
	}

	queryEventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Print the events emitted by all programs, in order",
		Run:   queryEventsFn,
	}

	queryPacketsCmd = &cobra.Command{
		Use:   "packets",
		Short: "Print the packets sent through the relay with the decoded messages",
		Run:   queryPacketsFn,
	}
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryConfigCmd, queryPositionCmd, queryClaimsCmd, queryHoldingCmd,
		queryEventsCmd, queryPacketsCmd)

	queryPositionCmd.Flags().String(ownerF, "", "Identity of the liquidity provider, base58")
	queryPositionCmd.Flags().String(assetF, "", "Asset, as symbol or mint")
	markRequired(queryPositionCmd, ownerF, assetF)

	queryClaimsCmd.Flags().String(assetF, "", "Asset, as symbol or mint")
	markRequired(queryClaimsCmd, assetF)

	queryHoldingCmd.Flags().String(addressF, "", "Address of the token account, base58")
	queryHoldingCmd.Flags().String(ownerF, "", "Identity of the owner, base58")
}

func queryConfigFn(cmd *cobra.Command, _ []string) {
	info, apiErr := nodeAPI(cmd).GetVaultConfig()
	exitOnAPIError(apiErr, "query config")
	fmt.Println(prettify(info))
}

func queryPositionFn(cmd *cobra.Command, _ []string) {
	n := nodeAPI(cmd)
	var owner identity.Identity
	var assetStr string
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: ownerF, Ptr: &owner},
		config.FlagInfo{Name: assetF, Ptr: &assetStr},
	)
	asset, err := n.Assets().Resolve(assetStr)
	exitOnError(err, "Error resolving asset")

	pos, apiErr := n.GetPosition(owner, asset.Mint)
	exitOnAPIError(apiErr, "query position")
	fmt.Printf("%s\n%s\n", greenf("Position: %s %s", asset.Print(pos.Amount), asset.Symbol), prettify(pos))
}

func queryClaimsFn(cmd *cobra.Command, _ []string) {
	n := nodeAPI(cmd)
	var assetStr string
	lookupFlags(cmd.Flags(), config.FlagInfo{Name: assetF, Ptr: &assetStr})
	asset, err := n.Assets().Resolve(assetStr)
	exitOnError(err, "Error resolving asset")

	claims, apiErr := n.GetClaims(asset.Mint)
	exitOnAPIError(apiErr, "query claims")
	fmt.Printf("%s\n%s\n", greenf("Claims: %s %s", asset.Print(claims.Total), asset.Symbol), prettify(claims))
}

func queryHoldingFn(cmd *cobra.Command, _ []string) {
	n := nodeAPI(cmd)
	targets := []config.FlagInfo{
		{Name: addressF, Ptr: new(identity.Identity)},
		{Name: ownerF, Ptr: new(identity.Identity)},
	}
	lookupFlags(cmd.Flags(), targets...)
	switch {
	case targets[0].Changed:
		h, apiErr := n.GetHolding(*targets[0].Ptr.(*identity.Identity))
		exitOnAPIError(apiErr, "query holding")
		fmt.Println(prettify(h))
	case targets[1].Changed:
		fmt.Println(prettify(n.GetHoldingsOf(*targets[1].Ptr.(*identity.Identity))))
	default:
		exitOnError(cmd.Usage(), "Error printing usage")
	}
}

func queryEventsFn(cmd *cobra.Command, _ []string) {
	fmt.Println(prettify(nodeAPI(cmd).Events()))
}

// packetView is a relay packet with its message decoded.
type packetView struct {
	relay.Packet
	Decoded relay.Message
}

func queryPacketsFn(cmd *cobra.Command, _ []string) {
	packets, apiErr := nodeAPI(cmd).Packets()
	exitOnAPIError(apiErr, "query packets")

	views := make([]packetView, len(packets))
	for i := range packets {
		msg, err := relay.Decode(packets[i].Message)
		exitOnError(err, "Error decoding message of packet %d", packets[i].Nonce)
		views[i] = packetView{Packet: packets[i], Decoded: msg}
	}
	fmt.Println(prettify(views))
}

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
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/spf13/cobra"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/node"
)

// File that stores history of commands used in the interactive shell.
// This will be preserved across the multiple runs of the shell.
// It will be located in the home directory.
const historyFile = ".custodynode_history"

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell for inspecting the ledger",
	Long: `
Start an interactive shell on the node. The node is initialized once, so the
state is read only once from the state file and the shell reflects the state
at that time.`,
	Run: shellFn,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// shellNode is the node used by all commands in the interactive shell.
var shellNode *node.Node

func shellFn(cmd *cobra.Command, _ []string) {
	shellNode = nodeAPI(cmd)

	// New shell includes help, clear, exit commands by default.
	sh := ishell.New()
	sh.SetHomeHistoryPath(historyFile)
	sh.AddCmd(&ishell.Cmd{
		Name: "config",
		Help: "Print the vault configuration. Usage: config",
		Func: shellConfigFn,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "holdings",
		Help: "Print the token accounts of an owner. Usage: holdings [owner]",
		Func: shellHoldingsFn,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "position",
		Help: "Print the liquidity position of an owner. Usage: position [owner] [asset]",
		Completer: func([]string) []string {
			return shellNode.Assets().Symbols()
		},
		Func: shellPositionFn,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "claims",
		Help: "Print the total of all liquidity positions for an asset. Usage: claims [asset]",
		Completer: func([]string) []string {
			return shellNode.Assets().Symbols()
		},
		Func: shellClaimsFn,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "events",
		Help: "Print the events of all programs. Usage: events",
		Func: shellEventsFn,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "packets",
		Help: "Print the packets sent through the relay. Usage: packets",
		Func: shellPacketsFn,
	})

	sh.Printf("Custody node shell.\n\n")
	sh.Printf("%s\n\n", greenf("Program %s, state file %q.", shellNode.ProgramID(), shellNode.GetConfig().StateFile))
	sh.Run()
}

// printArgCountError is a helper function to print error message that is used across mutiple commands.
func printArgCountError(c *ishell.Context, reqArgCount int) {
	c.Printf("%s\n\n", redf("Got %d arg(s). Want %d.", len(c.Args), reqArgCount))
	c.Printf("Command help:\t%s\n\n", c.Cmd.Help)
}

// hasArgs prints an error message and returns false if the number of args is not as required.
func hasArgs(c *ishell.Context, reqArgCount int) bool {
	if len(c.Args) != reqArgCount {
		printArgCountError(c, reqArgCount)
		return false
	}
	return true
}

// printAPIError formats the error returned by the API into a pretty string.
func printAPIError(c *ishell.Context, apiErr custody.APIError) {
	c.Printf("%s\n\n", redf("category: %s, code: %d, message: %s, additional info: %+v",
		apiErr.Category(), apiErr.Code(), apiErr.Message(), apiErr.AddInfo()))
}

func shellConfigFn(c *ishell.Context) {
	if !hasArgs(c, 0) {
		return
	}
	info, apiErr := shellNode.GetVaultConfig()
	if apiErr != nil {
		printAPIError(c, apiErr)
		return
	}
	c.Printf("%s\n\n", prettify(info))
}

func shellHoldingsFn(c *ishell.Context) {
	if !hasArgs(c, 1) {
		return
	}
	owner, err := identity.ParseIdentity(c.Args[0])
	if err != nil {
		c.Printf("%s\n\n", redf("Error parsing owner: %v", err))
		return
	}
	for _, h := range shellNode.GetHoldingsOf(owner) {
		amount := strconv.FormatUint(h.Amount, 10)
		if asset, ok := shellNode.Assets().ByMint(h.Mint); ok {
			amount = asset.Print(h.Amount) + " " + asset.Symbol
		}
		c.Printf("%s\t%s\n", h.Address, greenf("%s", amount))
	}
	c.Println()
}

func shellPositionFn(c *ishell.Context) {
	if !hasArgs(c, 2) {
		return
	}
	owner, err := identity.ParseIdentity(c.Args[0])
	if err != nil {
		c.Printf("%s\n\n", redf("Error parsing owner: %v", err))
		return
	}
	asset, err := shellNode.Assets().Resolve(c.Args[1])
	if err != nil {
		c.Printf("%s\n\n", redf("Error resolving asset: %v", err))
		return
	}
	pos, apiErr := shellNode.GetPosition(owner, asset.Mint)
	if apiErr != nil {
		printAPIError(c, apiErr)
		return
	}
	c.Printf("%s\n\n", greenf("%s %s", asset.Print(pos.Amount), asset.Symbol))
}

func shellClaimsFn(c *ishell.Context) {
	if !hasArgs(c, 1) {
		return
	}
	asset, err := shellNode.Assets().Resolve(c.Args[0])
	if err != nil {
		c.Printf("%s\n\n", redf("Error resolving asset: %v", err))
		return
	}
	claims, apiErr := shellNode.GetClaims(asset.Mint)
	if apiErr != nil {
		printAPIError(c, apiErr)
		return
	}
	c.Printf("%s\n\n", greenf("%s %s", asset.Print(claims.Total), asset.Symbol))
}

func shellEventsFn(c *ishell.Context) {
	if !hasArgs(c, 0) {
		return
	}
	c.Printf("%s\n\n", prettify(shellNode.Events()))
}

func shellPacketsFn(c *ishell.Context) {
	if !hasArgs(c, 0) {
		return
	}
	packets, apiErr := shellNode.Packets()
	if apiErr != nil {
		printAPIError(c, apiErr)
		return
	}
	c.Printf("%s\n\n", prettify(packets))
}

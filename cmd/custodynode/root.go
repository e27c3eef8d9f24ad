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
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// SPrintf style functions that produce colored text.
var (
	redf   = color.New(color.FgRed).SprintfFunc()
	greenf = color.New(color.FgGreen).SprintfFunc()
)

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})
}

var rootCmd = &cobra.Command{
	Use:   "custodynode",
	Short: "A node for operating a custody vault with cross-chain deposit relay.",
	Long: `
A node for operating a custody vault. The vault holds deposited tokens under a
program derived authority, lets an admin and an authorized caller move tokens
out, tracks refundable liquidity positions and can relay a deposit notification
to another chain.

The node keeps the ledger in a local state file. Every command is one atomic
invocation: it either completes or leaves the state unchanged.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// exitOnError prints the error in red and exits, if err is not nil.
func exitOnError(err error, format string, args ...interface{}) {
	if err == nil {
		return
	}
	fmt.Printf("%s\n", redf("%s: %v", fmt.Sprintf(format, args...), err))
	os.Exit(1)
}

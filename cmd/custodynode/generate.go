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
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hyperledger-labs/custody-node/node/nodetest"
)

const (
	nodeConfigFile = "node.yaml"
	stateFile      = "ledger.yaml"

	seedF = "seed"

	configFileMode = os.FileMode(0o600)
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate demo node configuration",
	Long: `
Generate a demo node configuration (node.yaml) in the current directory.

The configuration uses random program identities, two assets (USDC and WSOL)
and one relay peer. The ledger is persisted to ledger.yaml.

Use the genesis command to create the mints and token accounts on the ledger.
`,

	Run: generate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Int64(seedF, 0, "Seed for the random identities. Defaults to the current time")
}

func generate(cmd *cobra.Command, _ []string) {
	seed, err := cmd.Flags().GetInt64(seedF)
	if err != nil {
		panic("unknown flag " + seedF + "\n")
	}
	if !cmd.Flags().Changed(seedF) {
		seed = time.Now().UnixNano()
	}

	exitOnError(generateNodeConfig(seed), "Error generating node configuration")
	fmt.Println(greenf("Generated node configuration file: %s", nodeConfigFile))
}

// generateNodeConfig writes a node configuration file (node.yaml) in the current directory.
func generateNodeConfig(seed int64) error {
	if _, err := os.Stat(nodeConfigFile); !os.IsNotExist(err) {
		return errors.New("file exists - " + nodeConfigFile)
	}
	prng := rand.New(rand.NewSource(seed)) //nolint:gosec	// identities are for demo only.
	nodeCfg := nodetest.NewConfig(prng)
	nodeCfg.LogLevel = "info"
	nodeCfg.StateFile = stateFile

	data, err := yaml.Marshal(nodeCfg)
	if err != nil {
		return errors.Wrap(err, "encoding node config")
	}
	return errors.Wrap(os.WriteFile(nodeConfigFile, data, configFileMode), "writing node config")
}

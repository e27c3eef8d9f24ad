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
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/config"
	"github.com/hyperledger-labs/custody-node/node"
)

const (
	// flag names for the node configuration, defined on the root command.
	loglevelF       = "loglevel"
	logfileF        = "logfile"
	programidF      = "programid"
	relayprogramidF = "relayprogramid"
	statefileF      = "statefile"
	configfileF     = "configfile" // can only be specified in flag, not via config file.

	// default values for flags in root command.
	defaultConfigFile = "node.yaml"
)

var (
	// Viper instance for parsing node configuration file. Each flag in the nodeCfgFlags list (that
	// are defined on the root command) will also be attached to the viper instance, so that the
	// values from flags (when specified), override the values defined in the configuration files.
	nodeCfgViper *viper.Viper

	// Flags corresponding to node configuration parameters. Each of this flag can individually
	// override the values in config file. Relay peers and assets can only be set in the config
	// file.
	nodeCfgFlags = []string{
		loglevelF,
		logfileF,
		programidF,
		relayprogramidF,
		statefileF,
	}
)

func init() {
	defineNodeFlags()

	nodeCfgViper = viper.New()

	// Bind the configuration flags to viper instance,
	// values in flags (when specified), takes precedence over those in config file.
	for i := range nodeCfgFlags {
		if err := nodeCfgViper.BindPFlag(nodeCfgFlags[i], rootCmd.PersistentFlags().Lookup(nodeCfgFlags[i])); err != nil {
			panic(err)
		}
	}
}

func defineNodeFlags() {
	rootCmd.PersistentFlags().String(configfileF, defaultConfigFile, "node config file")

	// All these flags should have zero values for defaults, as their only purpose is allow the user
	// to explicitly specify the configuration.
	rootCmd.PersistentFlags().String(loglevelF, "", "Log level. Supported levels: debug, info, error")
	rootCmd.PersistentFlags().String(logfileF, "", "Log file path. Use empty string for stdout")
	rootCmd.PersistentFlags().String(programidF, "", "Identity of the custody program, base58")
	rootCmd.PersistentFlags().String(relayprogramidF, "", "Identity of the relay program, base58")
	rootCmd.PersistentFlags().String(statefileF, "", "Path of the ledger state file")
}

// newNode parses the node configuration and returns a node initialized with it. It exits on
// error.
func newNode(cmd *cobra.Command) *node.Node {
	n, err := node.New(parseNodeConfig(cmd.Flags(), nodeCfgViper))
	exitOnError(err, "Error initializing node")
	return n
}

func parseNodeConfig(fs *pflag.FlagSet, v *viper.Viper) custody.NodeConfig {
	// Ignore config file, if all config flags are specified.
	if !areAllFlagsSpecified(fs, nodeCfgFlags...) {
		nodeCfgFile, err := fs.GetString(configfileF)
		if err != nil {
			panic("unknown flag configfile\n")
		}

		// Read config from file.
		v.SetConfigFile(filepath.Clean(nodeCfgFile))
		v.SetConfigType("yaml")
		exitOnError(v.ReadInConfig(), "Error reading node config file %s", nodeCfgFile)
	}

	nodeCfg, err := config.UnmarshalNodeConfig(v)
	exitOnError(err, "Error parsing node config")
	return nodeCfg
}

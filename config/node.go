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

package config

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/currency"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/relay"
)

// ParseNodeConfig parses the node configuration from a yaml file and validates it.
func ParseNodeConfig(configFile string) (custody.NodeConfig, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Clean(configFile))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return custody.NodeConfig{}, errors.Wrap(err, "reading from source")
	}
	return UnmarshalNodeConfig(v)
}

// UnmarshalNodeConfig copies the node configuration from the viper instance and validates it.
// Values of flags bound to the instance take precedence over those read from the config file.
func UnmarshalNodeConfig(v *viper.Viper) (custody.NodeConfig, error) {
	var cfg custody.NodeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return custody.NodeConfig{}, errors.Wrap(err, "unmarshalling")
	}
	return cfg, ValidateNodeConfig(cfg)
}

// ValidateNodeConfig checks that all the identities, relay peers and assets in the configuration
// can be parsed, and that no asset is configured twice.
func ValidateNodeConfig(cfg custody.NodeConfig) error {
	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			return errors.Wrap(err, "log level")
		}
	}
	programID, err := identity.ParseIdentity(cfg.ProgramID)
	if err != nil {
		return errors.WithMessage(err, "program id")
	}
	if cfg.RelayProgramID != "" {
		relayID, err := identity.ParseIdentity(cfg.RelayProgramID)
		if err != nil {
			return errors.WithMessage(err, "relay program id")
		}
		if relayID == programID {
			return errors.New("relay program id must differ from program id")
		}
	}

	chains := make(map[uint32]bool, len(cfg.RelayPeers))
	for _, peer := range cfg.RelayPeers {
		if chains[peer.ChainID] {
			return errors.Errorf("relay peer for chain %d configured twice", peer.ChainID)
		}
		chains[peer.ChainID] = true
		if _, err := relay.HexToWord(peer.Receiver); err != nil {
			return errors.WithMessagef(err, "relay peer for chain %d", peer.ChainID)
		}
	}

	_, err = AssetRegistry(cfg.Assets)
	return err
}

// AssetRegistry returns a currency registry with all the configured assets registered.
func AssetRegistry(assets []custody.AssetConfig) (*currency.Registry, error) {
	r := currency.NewRegistry()
	for _, a := range assets {
		mint, err := identity.ParseIdentity(a.Mint)
		if err != nil {
			return nil, errors.WithMessagef(err, "mint of asset %s", a.Symbol)
		}
		if _, err = r.Register(strings.ToUpper(a.Symbol), mint, a.Decimals); err != nil {
			return nil, errors.WithMessage(err, "registering asset")
		}
	}
	return r, nil
}

// RelayPeers returns the configured relay receivers keyed by destination chain.
func RelayPeers(peers []custody.RelayPeerConfig) (map[uint32][32]byte, error) {
	out := make(map[uint32][32]byte, len(peers))
	for _, peer := range peers {
		receiver, err := relay.HexToWord(peer.Receiver)
		if err != nil {
			return nil, errors.WithMessagef(err, "relay peer for chain %d", peer.ChainID)
		}
		out[peer.ChainID] = receiver
	}
	return out, nil
}

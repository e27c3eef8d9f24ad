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

package vault

import (
	"github.com/hyperledger-labs/custody-node/identity"
)

// Addresses are the derived accounts of a custody program deployment.
type Addresses struct {
	Config         identity.Identity
	ConfigBump     uint8
	VaultAuthority identity.Identity
	VaultBump      uint8
}

// DeriveAddresses returns the configuration and vault authority addresses for the program.
func DeriveAddresses(programID identity.Identity) (Addresses, error) {
	config, configBump, err := ConfigAddress(programID)
	if err != nil {
		return Addresses{}, err
	}
	authority, vaultBump, err := VaultAuthorityAddress(programID, config)
	if err != nil {
		return Addresses{}, err
	}
	return Addresses{
		Config:         config,
		ConfigBump:     configBump,
		VaultAuthority: authority,
		VaultBump:      vaultBump,
	}, nil
}

// ConfigAddress returns the address of the configuration registry.
func ConfigAddress(programID identity.Identity) (identity.Identity, uint8, error) {
	return identity.FindProgramAddress([][]byte{[]byte(ConfigSeed)}, programID)
}

// VaultAuthorityAddress returns the vault signing authority for the configuration.
func VaultAuthorityAddress(programID, config identity.Identity) (identity.Identity, uint8, error) {
	return identity.FindProgramAddress([][]byte{[]byte(VaultSeed), config.Bytes()}, programID)
}

// PositionAddress returns the address of the liquidity position of owner for asset.
func PositionAddress(programID, owner, asset identity.Identity) (identity.Identity, uint8, error) {
	return identity.FindProgramAddress([][]byte{[]byte(LPSeed), owner.Bytes(), asset.Bytes()}, programID)
}

// ClaimsAddress returns the address of the running total of liquidity positions for asset.
func ClaimsAddress(programID, asset identity.Identity) (identity.Identity, uint8, error) {
	return identity.FindProgramAddress([][]byte{[]byte(ClaimsSeed), asset.Bytes()}, programID)
}

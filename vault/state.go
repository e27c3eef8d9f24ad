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
	"bytes"
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/ledger"
)

// Seeds of the accounts derived under the custody program.
const (
	ConfigSeed = "config"
	VaultSeed  = "vault"
	LPSeed     = "lp"
	ClaimsSeed = "claims"
)

// Capacities of the lists held by the configuration.
const (
	MaxAllowedAssets  = 3
	MaxForwardTargets = 4
)

var (
	configDiscriminator   = accountDiscriminator("Config")
	positionDiscriminator = accountDiscriminator("LiquidityPosition")
	claimsDiscriminator   = accountDiscriminator("AssetClaims")
)

// accountDiscriminator returns the 8 byte header that identifies the type of a state account.
func accountDiscriminator(name string) (d [8]byte) {
	h := sha256.Sum256([]byte("account:" + name))
	copy(d[:], h[:8])
	return d
}

type (
	// Config is the configuration registry of the vault.
	Config struct {
		Admin            identity.Identity
		AuthorizedCaller identity.Identity
		AllowedAssets    []identity.Identity
		VaultBump        uint8
		ForwardTargets   []identity.Identity
	}

	// LiquidityPosition is the refundable claim of Owner against the custody for Asset.
	LiquidityPosition struct {
		Owner  identity.Identity
		Asset  identity.Identity
		Amount uint64
	}

	// AssetClaims is the sum of all liquidity positions for Asset.
	AssetClaims struct {
		Asset identity.Identity
		Total uint64
	}
)

// IsAllowedAsset reports whether the asset is in the allowed list.
func (c Config) IsAllowedAsset(asset identity.Identity) bool {
	return identity.Contains(c.AllowedAssets, asset)
}

// IsForwardTarget reports whether deposits may be forwarded to the program.
func (c Config) IsForwardTarget(program identity.Identity) bool {
	return identity.Contains(c.ForwardTargets, program)
}

// Borsh layouts of the state accounts, without the methods of the account types.
type (
	configLayout   Config
	positionLayout LiquidityPosition
	claimsLayout   AssetClaims
)

// MarshalBinary encodes the configuration behind its discriminator.
func (c Config) MarshalBinary() ([]byte, error) {
	if len(c.AllowedAssets) > MaxAllowedAssets || len(c.ForwardTargets) > MaxForwardTargets {
		return nil, errors.New("configuration lists exceed their capacity")
	}
	return marshalAccount(configDiscriminator, configLayout(c))
}

// UnmarshalBinary decodes a configuration encoded by MarshalBinary.
func (c *Config) UnmarshalBinary(data []byte) error {
	var out Config
	if err := unmarshalAccount(data, configDiscriminator, (*configLayout)(&out)); err != nil {
		return err
	}
	if len(out.AllowedAssets) > MaxAllowedAssets {
		return errors.WithMessagef(ledger.ErrInvalidAccountData,
			"allowed assets list of %d exceeds %d", len(out.AllowedAssets), MaxAllowedAssets)
	}
	if len(out.ForwardTargets) > MaxForwardTargets {
		return errors.WithMessagef(ledger.ErrInvalidAccountData,
			"forward targets list of %d exceeds %d", len(out.ForwardTargets), MaxForwardTargets)
	}
	*c = out
	return nil
}

// MarshalBinary encodes the position behind its discriminator.
func (p LiquidityPosition) MarshalBinary() ([]byte, error) {
	return marshalAccount(positionDiscriminator, positionLayout(p))
}

// UnmarshalBinary decodes a position encoded by MarshalBinary.
func (p *LiquidityPosition) UnmarshalBinary(data []byte) error {
	var out LiquidityPosition
	if err := unmarshalAccount(data, positionDiscriminator, (*positionLayout)(&out)); err != nil {
		return err
	}
	*p = out
	return nil
}

// MarshalBinary encodes the claims behind their discriminator.
func (a AssetClaims) MarshalBinary() ([]byte, error) {
	return marshalAccount(claimsDiscriminator, claimsLayout(a))
}

// UnmarshalBinary decodes claims encoded by MarshalBinary.
func (a *AssetClaims) UnmarshalBinary(data []byte) error {
	var out AssetClaims
	if err := unmarshalAccount(data, claimsDiscriminator, (*claimsLayout)(&out)); err != nil {
		return err
	}
	*a = out
	return nil
}

func marshalAccount(discriminator [8]byte, layout interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(layout); err != nil {
		return nil, errors.Wrap(err, "encoding account")
	}
	return buf.Bytes(), nil
}

// unmarshalAccount decodes the borsh layout behind the discriminator. The whole of data must be
// consumed.
func unmarshalAccount(data []byte, discriminator [8]byte, layout interface{}) error {
	if !bytes.HasPrefix(data, discriminator[:]) {
		return errors.WithMessage(ledger.ErrInvalidAccountData, "discriminator mismatch")
	}
	dec := bin.NewBorshDecoder(data[len(discriminator):])
	if err := dec.Decode(layout); err != nil {
		return errors.WithMessagef(ledger.ErrInvalidAccountData, "decoding: %v", err)
	}
	if dec.Remaining() != 0 {
		return errors.WithMessagef(ledger.ErrInvalidAccountData, "%d trailing bytes", dec.Remaining())
	}
	return nil
}

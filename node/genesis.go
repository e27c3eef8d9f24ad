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

package node

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/ledger"
	"github.com/hyperledger-labs/custody-node/vault"
)

// Resource types and argument names used by the node in API errors.
const (
	ResTypeAccount custody.ResourceType = "account"
	ResTypeRelay   custody.ResourceType = "relay program"

	ArgAmount custody.ArgumentName = "amount"
)

// CreateMint creates a mint with the given decimals on the local ledger. It is a genesis
// operation that needs no signature.
//
// If there is an error, it will be one of the following codes:
// - ErrResourceExists when the address is in use.
func (n *Node) CreateMint(mint identity.Identity, decimals uint8) custody.APIError {
	return n.invoke("CreateMint", mint, nil, func(tx *ledger.Tx) custody.APIError {
		return genesisErr(tx.CreateMint(mint, decimals), mint, mint, 0)
	})
}

// CreateHolding creates a token account of the mint for the owner on the local ledger and issues
// amount tokens into it. It is a genesis operation that needs no signature.
//
// If there is an error, it will be one of the following codes:
// - ErrResourceExists when the address is in use.
// - ErrResourceNotFound when the mint does not exist.
// - ErrInvalidArgument when the amount would overflow the supply of the mint.
func (n *Node) CreateHolding(addr, owner, mint identity.Identity, amount uint64) custody.APIError {
	params := map[string]interface{}{"address": addr, "owner": owner, "mint": mint, "amount": amount}
	return n.invoke("CreateHolding", params, nil, func(tx *ledger.Tx) custody.APIError {
		if err := tx.CreateHolding(addr, owner, mint); err != nil {
			return genesisErr(err, addr, mint, amount)
		}
		return genesisErr(tx.MintTo(addr, amount), addr, mint, amount)
	})
}

// MintTo issues amount new tokens into the token account. It is a genesis operation that needs
// no signature.
func (n *Node) MintTo(holding identity.Identity, amount uint64) custody.APIError {
	params := map[string]interface{}{"holding": holding, "amount": amount}
	return n.invoke("MintTo", params, nil, func(tx *ledger.Tx) custody.APIError {
		h, _ := tx.Holding(holding)
		return genesisErr(tx.MintTo(holding, amount), holding, h.Mint, amount)
	})
}

func genesisErr(err error, addr, mint identity.Identity, amount uint64) custody.APIError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrAccountExists):
		return custody.NewAPIErrResourceExists(ResTypeAccount, addr.String())
	case errors.Is(err, ledger.ErrMintNotFound):
		return custody.NewAPIErrResourceNotFound(vault.ResTypeMint, mint.String())
	case errors.Is(err, ledger.ErrHoldingNotFound):
		return custody.NewAPIErrResourceNotFound(vault.ResTypeHolding, addr.String())
	case errors.Is(err, ledger.ErrOverflow):
		return custody.NewAPIErrInvalidArgument(err, ArgAmount, strconv.FormatUint(amount, 10), "supply within uint64")
	default:
		return custody.NewAPIErrUnknownInternal(err)
	}
}

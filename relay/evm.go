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

package relay

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// EVMAddressToWord converts a hex encoded 20 byte EVM address into a 32 byte word, left
// padded with zeros.
func EVMAddressToWord(address string) ([32]byte, error) {
	if !common.IsHexAddress(address) {
		return [32]byte{}, errors.Errorf("invalid EVM address: %s", address)
	}
	return common.BytesToHash(common.HexToAddress(address).Bytes()), nil
}

// WordToEVMAddress returns the EVM address held in the lower 20 bytes of the word. It fails if
// any of the upper 12 bytes is set.
func WordToEVMAddress(word [32]byte) (common.Address, error) {
	for _, b := range word[:common.HashLength-common.AddressLength] {
		if b != 0 {
			return common.Address{}, errors.New("word is not a left padded EVM address")
		}
	}
	return common.BytesToAddress(word[:]), nil
}

// HexToWord decodes a 0x prefixed hex string of at most 32 bytes into a word, left padded with
// zeros.
func HexToWord(s string) ([32]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return [32]byte{}, errors.Wrapf(err, "decoding %s", s)
	}
	if len(b) > common.HashLength {
		return [32]byte{}, errors.Errorf("%s is longer than %d bytes", s, common.HashLength)
	}
	return common.BytesToHash(common.LeftPadBytes(b, common.HashLength)), nil
}

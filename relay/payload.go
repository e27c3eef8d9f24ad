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
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
)

const (
	// PayloadSize is the size of an encoded Message: four 32 byte words.
	PayloadSize = 128

	// TagDeposit identifies a deposit notification.
	TagDeposit uint8 = 101
)

// Message is the payload sent to the receiver on the destination chain. On the receiving side it
// decodes as abi.decode(payload, (uint8, bytes32, bytes32, uint64)).
type Message struct {
	Tag      uint8
	DstAsset [32]byte
	Merchant [32]byte
	Amount   uint64
}

// ErrInvalidPayload is returned when a payload cannot be decoded into a Message.
var ErrInvalidPayload = errors.New("invalid relay payload")

var payloadArgs = mustArguments("uint8", "bytes32", "bytes32", "uint64")

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

// NewDepositMessage returns the deposit notification for amount.
func NewDepositMessage(dstAsset, merchant [32]byte, amount uint64) Message {
	return Message{
		Tag:      TagDeposit,
		DstAsset: dstAsset,
		Merchant: merchant,
		Amount:   amount,
	}
}

// Encode returns the PayloadSize bytes encoding of the message. Each field occupies one word,
// integers are big-endian and right aligned.
func Encode(m Message) []byte {
	payload, err := payloadArgs.Pack(m.Tag, m.DstAsset, m.Merchant, m.Amount)
	if err != nil {
		// Pack fails only on a type mismatch between the arguments and the values above.
		panic(err)
	}
	return payload
}

// Decode parses a payload produced by Encode.
func Decode(payload []byte) (Message, error) {
	if len(payload) != PayloadSize {
		return Message{}, errors.WithMessagef(ErrInvalidPayload, "got %d bytes, want %d", len(payload), PayloadSize)
	}
	values, err := payloadArgs.Unpack(payload)
	if err != nil {
		return Message{}, errors.WithMessage(ErrInvalidPayload, err.Error())
	}
	var m Message
	var ok [4]bool
	m.Tag, ok[0] = values[0].(uint8)
	m.DstAsset, ok[1] = values[1].([32]byte)
	m.Merchant, ok[2] = values[2].([32]byte)
	m.Amount, ok[3] = values[3].(uint64)
	for i := range ok {
		if !ok[i] {
			return Message{}, errors.WithMessagef(ErrInvalidPayload, "unexpected type of field %d", i)
		}
	}
	return m, nil
}

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

package relay_test

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/custody-node/relay"
)

func Test_SendParams_Binary(t *testing.T) {
	params := relay.SendParams{
		DstChainID: 40245,
		Message:    relay.Encode(relay.NewDepositMessage([32]byte{1}, [32]byte{2}, 3)),
		Options:    []byte{0, 3, 1, 0, 17},
		NativeFee:  relay.DefaultNativeFee,
		TokenFee:   7,
	}
	data, err := params.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 8+4+4+relay.PayloadSize+4+5+8+8)
	assert.Equal(t, uint32(40245), binary.LittleEndian.Uint32(data[8:12]))
	assert.Equal(t, uint32(relay.PayloadSize), binary.LittleEndian.Uint32(data[12:16]))

	var got relay.SendParams
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, params, got)

	t.Run("errors", func(t *testing.T) {
		corrupt := func(f func([]byte) []byte) []byte {
			return f(append([]byte{}, data...))
		}
		tests := []struct {
			name string
			data []byte
		}{
			{"empty", nil},
			{"discriminator", corrupt(func(b []byte) []byte { b[0]++; return b })},
			{"truncated", data[:len(data)-1]},
			{"trailing", append(append([]byte{}, data...), 0)},
			{"message_too_long", corrupt(func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[12:16], relay.PayloadSize+1)
				return b
			})},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				var p relay.SendParams
				err := p.UnmarshalBinary(tc.data)
				assert.True(t, errors.Is(err, relay.ErrInvalidInstruction), "got %v", err)
			})
		}
	})

	t.Run("options_too_long", func(t *testing.T) {
		p := params
		p.Options = make([]byte, relay.MaxOptionsSize+1)
		_, err := p.MarshalBinary()
		assert.Error(t, err)
	})
}

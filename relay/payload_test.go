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
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/custody-node/relay"
)

func randomWord(prng *rand.Rand) (w [32]byte) {
	prng.Read(w[:]) // nolint: errcheck, gosec	// rand.Read on *rand.Rand never fails.
	return w
}

func Test_Encode_Layout(t *testing.T) {
	prng := rand.New(rand.NewSource(1729))
	dstAsset, merchant := randomWord(prng), randomWord(prng)

	payload := relay.Encode(relay.NewDepositMessage(dstAsset, merchant, 0x0102030405060708))
	require.Len(t, payload, relay.PayloadSize)

	assert.Equal(t, make([]byte, 31), payload[:31], "tag is right aligned in the first word")
	assert.Equal(t, relay.TagDeposit, payload[31])
	assert.Equal(t, dstAsset[:], payload[32:64])
	assert.Equal(t, merchant[:], payload[64:96])
	assert.Equal(t, make([]byte, 24), payload[96:120])
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, payload[120:128])
}

func Test_Encode_Decode(t *testing.T) {
	prng := rand.New(rand.NewSource(1729))
	amounts := []uint64{0, 1, 100, 1_000_000, math.MaxUint32, math.MaxUint64 - 1, math.MaxUint64}
	for i := 0; i < 20; i++ {
		amounts = append(amounts, prng.Uint64())
	}

	for _, amount := range amounts {
		msg := relay.NewDepositMessage(randomWord(prng), randomWord(prng), amount)
		payload := relay.Encode(msg)
		require.Len(t, payload, relay.PayloadSize)
		assert.Equal(t, amount, binary.BigEndian.Uint64(payload[120:]))

		got, err := relay.Decode(payload)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	}

	t.Run("deterministic", func(t *testing.T) {
		msg := relay.NewDepositMessage(randomWord(prng), randomWord(prng), prng.Uint64())
		assert.True(t, bytes.Equal(relay.Encode(msg), relay.Encode(msg)))
	})
}

func Test_Decode_Errors(t *testing.T) {
	valid := relay.Encode(relay.NewDepositMessage([32]byte{1}, [32]byte{2}, 3))

	tests := []struct {
		name    string
		payload func() []byte
	}{
		{"short", func() []byte { return valid[:96] }},
		{"long", func() []byte { return append(append([]byte{}, valid...), 0) }},
		{"tag_out_of_range", func() []byte {
			p := append([]byte{}, valid...)
			p[30] = 1
			return p
		}},
		{"amount_out_of_range", func() []byte {
			p := append([]byte{}, valid...)
			p[100] = 1
			return p
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := relay.Decode(tc.payload())
			require.Error(t, err)
			assert.True(t, errors.Is(err, relay.ErrInvalidPayload))
		})
	}
}

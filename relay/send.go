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
	"bytes"
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

// DefaultNativeFee is the native fee, in minor units, paid to the relay when the sender does
// not specify one.
const DefaultNativeFee uint64 = 1_000_000

// MaxOptionsSize bounds the options blob of a send instruction.
const MaxOptionsSize = 1024

// ErrInvalidInstruction is returned when instruction data cannot be decoded.
var ErrInvalidInstruction = errors.New("invalid relay instruction")

// sendDiscriminator is the instruction discriminator of the send instruction, derived from its
// name in the same way as the account discriminators of the custody program.
var sendDiscriminator = instructionDiscriminator("relay_send")

func instructionDiscriminator(name string) (d [8]byte) {
	h := sha256.Sum256([]byte("global:" + name))
	copy(d[:], h[:8])
	return d
}

// SendParams is the send instruction of the relay program.
type SendParams struct {
	DstChainID uint32
	Message    []byte
	Options    []byte
	NativeFee  uint64
	TokenFee   uint64
}

// sendLayout is the borsh layout of SendParams behind the discriminator.
type sendLayout SendParams

// MarshalBinary encodes the instruction as the discriminator followed by the borsh encoding of
// the fields.
func (p SendParams) MarshalBinary() ([]byte, error) {
	if len(p.Options) > MaxOptionsSize {
		return nil, errors.Errorf("options of %d bytes exceed %d", len(p.Options), MaxOptionsSize)
	}
	buf := bytes.NewBuffer(make([]byte, 0, 8+4+4+len(p.Message)+4+len(p.Options)+8+8))
	buf.Write(sendDiscriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(sendLayout(p)); err != nil {
		return nil, errors.Wrap(err, "encoding send instruction")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes an instruction encoded by MarshalBinary.
func (p *SendParams) UnmarshalBinary(data []byte) error {
	if !bytes.HasPrefix(data, sendDiscriminator[:]) {
		return errors.WithMessage(ErrInvalidInstruction, "unknown discriminator")
	}
	var out SendParams
	dec := bin.NewBorshDecoder(data[len(sendDiscriminator):])
	if err := dec.Decode((*sendLayout)(&out)); err != nil {
		return errors.WithMessagef(ErrInvalidInstruction, "decoding: %v", err)
	}
	if dec.Remaining() != 0 {
		return errors.WithMessagef(ErrInvalidInstruction, "%d trailing bytes", dec.Remaining())
	}
	if len(out.Message) > PayloadSize {
		return errors.WithMessagef(ErrInvalidInstruction, "message of %d bytes exceeds %d", len(out.Message), PayloadSize)
	}
	if len(out.Options) > MaxOptionsSize {
		return errors.WithMessagef(ErrInvalidInstruction, "options of %d bytes exceed %d", len(out.Options), MaxOptionsSize)
	}
	*p = out
	return nil
}

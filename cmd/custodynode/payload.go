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
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/hyperledger-labs/custody-node/config"
	"github.com/hyperledger-labs/custody-node/relay"
)

var (
	payloadCmd = &cobra.Command{
		Use:   "payload",
		Short: "Encode and decode relay deposit messages",
	}

	encodePayloadCmd = &cobra.Command{
		Use:   "encode",
		Short: "Encode a deposit message, amount in minor units",
		Run:   encodePayloadFn,
	}

	decodePayloadCmd = &cobra.Command{
		Use:   "decode [hex payload]",
		Short: "Decode a deposit message",
		Args:  cobra.ExactArgs(1),
		Run:   decodePayloadFn,
	}
)

func init() {
	rootCmd.AddCommand(payloadCmd)
	payloadCmd.AddCommand(encodePayloadCmd, decodePayloadCmd)

	encodePayloadCmd.Flags().String(dstAssetF, "", "Asset on the destination chain, hex of up to 32 bytes")
	encodePayloadCmd.Flags().String(merchantF, "", "Merchant on the destination chain, hex of up to 32 bytes")
	encodePayloadCmd.Flags().Uint64(amountF, 0, "Amount in minor units")
	markRequired(encodePayloadCmd, dstAssetF, merchantF, amountF)
}

func encodePayloadFn(cmd *cobra.Command, _ []string) {
	var dstAsset, merchant [32]byte
	var amount uint64
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: dstAssetF, Ptr: &dstAsset},
		config.FlagInfo{Name: merchantF, Ptr: &merchant},
		config.FlagInfo{Name: amountF, Ptr: &amount},
	)
	fmt.Println(hexutil.Encode(relay.Encode(relay.NewDepositMessage(dstAsset, merchant, amount))))
}

func decodePayloadFn(_ *cobra.Command, args []string) {
	payload, err := hexutil.Decode(args[0])
	exitOnError(err, "Error parsing payload")
	msg, err := relay.Decode(payload)
	exitOnError(err, "Error decoding payload")
	fmt.Println(prettify(msg))
}

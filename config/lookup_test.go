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

package config_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/custody-node/config"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/relay"
)

const (
	testMint     = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testMint2    = "So11111111111111111111111111111111111111112"
	testMerchant = "0x742d35cc6634c0532925a3b844bc9e7595f0beb0"
)

func setupNewFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("boolFlag", false, "")
	fs.BytesHex("bytesHexFlag", []byte{}, "")
	fs.String("stringFlag", "", "")
	fs.StringSlice("stringSliceFlag", nil, "")
	fs.Uint8("uint8Flag", 0, "")
	fs.Uint32("uint32Flag", 0, "")
	fs.Uint64("uint64Flag", 0, "")
	fs.String("identityFlag", "", "")
	fs.StringSlice("identitiesFlag", nil, "")
	fs.String("wordFlag", "", "")
	fs.Int("intFlag", 0, "")
	return fs
}

type unsupportedTypeForTest int

func Test_Lookup(t *testing.T) {
	merchant, err := relay.EVMAddressToWord(testMerchant)
	require.NoError(t, err)

	tests := []struct {
		name        string
		args        []string
		flag        string
		target      interface{}
		want        interface{}
		wantChanged bool
		wantErr     bool
	}{
		{"bool", []string{"--boolFlag=true"}, "boolFlag", new(bool), true, true, false},
		{"bool_unspecified", nil, "boolFlag", new(bool), false, false, false},
		{"bytesHex", []string{"--bytesHexFlag=2345ABCD"}, "bytesHexFlag", new([]byte),
			[]byte{0x23, 0x45, 0xab, 0xcd}, true, false},
		{"string", []string{"--stringFlag=testArg"}, "stringFlag", new(string), "testArg", true, false},
		{"stringSlice", []string{"--stringSliceFlag=a,b"}, "stringSliceFlag", new([]string),
			[]string{"a", "b"}, true, false},
		{"uint8", []string{"--uint8Flag=8"}, "uint8Flag", new(uint8), uint8(8), true, false},
		{"uint32", []string{"--uint32Flag=40245"}, "uint32Flag", new(uint32), uint32(40245), true, false},
		{"uint64", []string{"--uint64Flag=18446744073709551615"}, "uint64Flag", new(uint64),
			uint64(18446744073709551615), true, false},
		{"identity", []string{"--identityFlag=" + testMint}, "identityFlag", new(identity.Identity),
			identity.MustParse(testMint), true, false},
		{"identity_invalid", []string{"--identityFlag=0x1234"}, "identityFlag", new(identity.Identity),
			identity.Identity{}, true, true},
		{"identities", []string{"--identitiesFlag=" + testMint + "," + testMint2}, "identitiesFlag",
			new([]identity.Identity), []identity.Identity{identity.MustParse(testMint), identity.MustParse(testMint2)},
			true, false},
		{"word", []string{"--wordFlag=" + testMerchant}, "wordFlag", new([32]byte), merchant, true, false},
		{"word_invalid", []string{"--wordFlag=742d"}, "wordFlag", new([32]byte), [32]byte{}, true, true},
		{"unsupported_type", []string{"--intFlag=1"}, "intFlag", new(unsupportedTypeForTest),
			unsupportedTypeForTest(0), false, true},
		{"type_mismatch", []string{"--stringFlag=1"}, "stringFlag", new(uint32), uint32(0), true, true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			fs := setupNewFlagSet()
			require.NoError(t, fs.Parse(tc.args))

			changed, err := config.Lookup(fs, tc.flag, tc.target)
			assert.Equal(t, tc.wantChanged, changed)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, deref(tc.target))
		})
	}
}

func Test_LookUpMultiple(t *testing.T) {
	fs := setupNewFlagSet()
	require.NoError(t, fs.Parse([]string{"--uint64Flag=10", "--identityFlag=" + testMint}))

	var amount uint64
	var mint identity.Identity
	var name string
	targets := []config.FlagInfo{
		{Name: "uint64Flag", Ptr: &amount},
		{Name: "identityFlag", Ptr: &mint},
		{Name: "stringFlag", Ptr: &name},
	}
	require.NoError(t, config.LookUpMultiple(fs, targets))
	assert.Equal(t, uint64(10), amount)
	assert.Equal(t, identity.MustParse(testMint), mint)
	assert.True(t, targets[0].Changed)
	assert.True(t, targets[1].Changed)
	assert.False(t, targets[2].Changed)

	fs = setupNewFlagSet()
	require.NoError(t, fs.Parse([]string{"--identityFlag=abc"}))
	err := config.LookUpMultiple(fs, []config.FlagInfo{{Name: "identityFlag", Ptr: &mint}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identityFlag")
}

func deref(ptr interface{}) interface{} {
	switch p := ptr.(type) {
	case *bool:
		return *p
	case *[]byte:
		return *p
	case *string:
		return *p
	case *[]string:
		return *p
	case *uint8:
		return *p
	case *uint32:
		return *p
	case *uint64:
		return *p
	case *identity.Identity:
		return *p
	case *[]identity.Identity:
		return *p
	case *[32]byte:
		return *p
	}
	return nil
}

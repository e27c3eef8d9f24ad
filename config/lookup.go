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

package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/relay"
)

// FlagInfo represents flag information consisting of flag name, pointer to store its value and a
// variable to track if the flag was modified.
type FlagInfo struct {
	Name    string
	Ptr     interface{}
	Changed bool
}

// LookUpMultiple parses the values of flag defined in each of the targets. It stops at the first
// error.
func LookUpMultiple(flagSet *pflag.FlagSet, targets []FlagInfo) (err error) {
	for idx := range targets {
		target := &targets[idx]
		target.Changed, err = Lookup(flagSet, target.Name, target.Ptr)
		if err != nil {
			return errors.WithMessagef(err, "lookup flag %s", target.Name)
		}
	}
	return nil
}

// Lookup parses the values of flag to targetVar if it defined in flagSet and its values has been
// modified. Status of whether the flag was modified or not is returned in the changed.
//
// Identities are read from base58 strings and 32 byte words from hex strings of up to 32 bytes.
func Lookup(flagSet *pflag.FlagSet, name string, targetVar interface{}) (
	changed bool, err error) {
	if changed = flagSet.Changed(name); !changed {
		return false, nil
	}

	switch t := targetVar.(type) {
	case *bool:
		*t, err = flagSet.GetBool(name)
	case *[]byte:
		// bytes flag type supports hex encoded string
		*t, err = flagSet.GetBytesHex(name)
	case *string:
		*t, err = flagSet.GetString(name)
	case *[]string:
		*t, err = flagSet.GetStringSlice(name)
	case *uint8:
		*t, err = flagSet.GetUint8(name)
	case *uint32:
		*t, err = flagSet.GetUint32(name)
	case *uint64:
		*t, err = flagSet.GetUint64(name)
	case *identity.Identity:
		var str string
		if str, err = flagSet.GetString(name); err == nil {
			*t, err = identity.ParseIdentity(str)
		}
	case *[]identity.Identity:
		var strs []string
		if strs, err = flagSet.GetStringSlice(name); err == nil {
			*t, err = parseIdentities(strs)
		}
	case *[32]byte:
		var str string
		if str, err = flagSet.GetString(name); err == nil {
			*t, err = relay.HexToWord(str)
		}
	default:
		err = errors.Errorf("unsupported data type (%T) for flag", t)
		changed = false
	}
	return changed, err
}

func parseIdentities(strs []string) ([]identity.Identity, error) {
	ids := make([]identity.Identity, len(strs))
	for i := range strs {
		var err error
		if ids[i], err = identity.ParseIdentity(strs[i]); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

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

import "fmt"

// commitIDLen is the number of characters of the commit id included in the version string.
const commitIDLen = 8

// Version is the semantic version of the custody node.
type Version struct {
	Major, Minor, Patch int
	Meta                string // Pre-release identifier, such as "unstable" or "rc1".
}

// String returns the version as major.minor.patch, followed by -meta if present.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Meta != "" {
		s += "-" + v.Meta
	}
	return s
}

// StringWithCommitID returns the version string with the first eight characters of the commit
// id appended, if one is given.
func (v Version) StringWithCommitID(commitID string) string {
	if commitID == "" {
		return v.String()
	}
	if len(commitID) > commitIDLen {
		commitID = commitID[:commitIDLen]
	}
	return v.String() + "-" + commitID
}

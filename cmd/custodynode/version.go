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

	"github.com/spf13/cobra"

	"github.com/hyperledger-labs/custody-node/config"
)

var (
	// version holds the version of custody node binary. Default value is empty string.
	// If the package is built from a tagged version of the source code, then the variable will be set to
	// tag name (usually a semantic version string) during build using linker flags.
	version string

	// gitCommitID holds the git commit ID of the source code used for building the package. This variable
	// be set during build using linker flags.
	gitCommitID string

	// devVersion is the version reported by builds that do not set version.
	devVersion = config.Version{Major: 0, Minor: 1, Patch: 0, Meta: "unstable"}
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information for custodynode",
	Long:  `Print the version information for custodynode`,
	Run:   versionFn,
}

func versionFn(cmd *cobra.Command, _ []string) {
	fmt.Fprintln(cmd.OutOrStdout(), versionString(version, gitCommitID))
}

// versionString formats the version line of the binary. Builds without a release version
// report devVersion with the commit id appended.
func versionString(release, commitID string) string {
	if release == "" {
		release = devVersion.StringWithCommitID(commitID)
	}
	return fmt.Sprintf("%s Git revision: %s", release, commitID)
}

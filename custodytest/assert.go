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

package custodytest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/custody-node"
)

// AssertAPIError tests if the passed error contains expected category, code
// and phrases in the message.
func AssertAPIError(t *testing.T, e custody.APIError, categ custody.ErrorCategory, code custody.ErrorCode, msgs ...string) {
	t.Helper()

	require.Error(t, e)
	assert.Equal(t, categ, e.Category())
	assert.Equal(t, code, e.Code())
	for _, msg := range msgs {
		assert.Contains(t, e.Message(), msg)
	}
}

// AssertErrInfoNotAuthorized tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoNotAuthorized(t *testing.T, info interface{}, operation, invoker string) {
	t.Helper()

	addInfo, ok := info.(custody.ErrInfoNotAuthorized)
	require.True(t, ok)
	assert.Equal(t, operation, addInfo.Operation)
	assert.Equal(t, invoker, addInfo.Invoker)
}

// AssertErrInfoMintNotAllowed tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoMintNotAllowed(t *testing.T, info interface{}, mint string) {
	t.Helper()

	addInfo, ok := info.(custody.ErrInfoMintNotAllowed)
	require.True(t, ok)
	assert.Equal(t, mint, addInfo.Mint)
}

// AssertErrInfoInsufficientLiquidity tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoInsufficientLiquidity(t *testing.T, info interface{}, available, requested uint64) {
	t.Helper()

	addInfo, ok := info.(custody.ErrInfoInsufficientLiquidity)
	require.True(t, ok)
	assert.Equal(t, available, addInfo.Available)
	assert.Equal(t, requested, addInfo.Requested)
}

// AssertErrInfoInsufficientBacking tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoInsufficientBacking(t *testing.T, info interface{}, custodyBal, claims, requested uint64) {
	t.Helper()

	addInfo, ok := info.(custody.ErrInfoInsufficientBacking)
	require.True(t, ok)
	assert.Equal(t, custodyBal, addInfo.Custody)
	assert.Equal(t, claims, addInfo.Claims)
	assert.Equal(t, requested, addInfo.Requested)
}

// AssertErrInfoMintMismatch tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoMintMismatch(t *testing.T, info interface{}, holding, holdingMint, mint string) {
	t.Helper()

	addInfo, ok := info.(custody.ErrInfoMintMismatch)
	require.True(t, ok)
	assert.Equal(t, holding, addInfo.Holding)
	assert.Equal(t, holdingMint, addInfo.HoldingMint)
	assert.Equal(t, mint, addInfo.Mint)
}

// AssertErrInfoInvalidArgument tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoInvalidArgument(t *testing.T, info interface{}, name custody.ArgumentName, value string) {
	t.Helper()

	addInfo, ok := info.(custody.ErrInfoInvalidArgument)
	require.True(t, ok)
	assert.Equal(t, string(name), addInfo.Name)
	assert.Equal(t, value, addInfo.Value)
	t.Log("requirement:", addInfo.Requirement)
}

// AssertErrInfoResourceNotFound tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoResourceNotFound(t *testing.T, info interface{}, resourceType custody.ResourceType, id string) {
	t.Helper()

	addInfo, ok := info.(custody.ErrInfoResourceNotFound)
	require.True(t, ok)
	assert.Equal(t, string(resourceType), addInfo.Type)
	assert.Equal(t, id, addInfo.ID)
}

// AssertErrInfoResourceExists tests if additional info field is of
// correct type and has expected values.
func AssertErrInfoResourceExists(t *testing.T, info interface{}, resourceType custody.ResourceType, id string) {
	t.Helper()

	addInfo, ok := info.(custody.ErrInfoResourceExists)
	require.True(t, ok)
	assert.Equal(t, string(resourceType), addInfo.Type)
	assert.Equal(t, id, addInfo.ID)
}

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

package custody

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/custody-node/identity"
)

// apiError represents the error that will be returned by the API of custody node.
//
// It implements Cause() and Unwrap() methods that implements the underlying
// error, which can further be unwrapped, inspected.
//
// It also implements a customer Formatter, so that the stack trace of
// underlying error is printed when using "%+v" verb.
type apiError struct {
	category ErrorCategory
	code     ErrorCode
	err      error
	addInfo  interface{}
}

// Category returns the error category for this API Error.
func (e apiError) Category() ErrorCategory { return e.category }

// Code returns the error code for this API Error.
func (e apiError) Code() ErrorCode { return e.code }

// Message returns the error message for this API Error.
func (e apiError) Message() string { return e.err.Error() }

// AddInfo returns the additional info for this API Error.
func (e apiError) AddInfo() interface{} {
	return e.addInfo
}

// Error implement the error interface for API error.
func (e apiError) Error() string {
	return fmt.Sprintf("%s %d:%v", e.Category(), e.Code(), e.Message())
}

func (e apiError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s %d:%+v", e.Category(), e.Code(), e.err)
			return
		}
		fallthrough
	case 's':
		//nolint: errcheck,gosec	// Error of ioString need not be checked.
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

func (e apiError) Cause() error { return e.err }

func (e apiError) Unwrap() error { return e.err }

// NewAPIErr returns an APIErr with given parameters.
//
// For most use cases, call the error code specific constructor functions.
func NewAPIErr(category ErrorCategory, code ErrorCode, err error, addInfo interface{}) APIError {
	return apiError{
		category: category,
		code:     code,
		err:      err,
		addInfo:  addInfo,
	}
}

// NewAPIErrNotAuthorized returns an ErrNotAuthorized API Error for the
// given operation and invoker.
func NewAPIErrNotAuthorized(operation string, invoker identity.Identity) APIError {
	message := fmt.Sprintf("%s is not authorized to %s", invoker, operation)
	return NewAPIErr(
		AuthorizationError,
		ErrNotAuthorized,
		errors.New(message),
		ErrInfoNotAuthorized{
			Operation: operation,
			Invoker:   invoker.String(),
		},
	)
}

// NewAPIErrMintNotAllowed returns an ErrMintNotAllowed API Error for the
// given mint.
func NewAPIErrMintNotAllowed(mint identity.Identity) APIError {
	message := fmt.Sprintf("mint %s is not in the allowed list", mint)
	return NewAPIErr(
		PolicyError,
		ErrMintNotAllowed,
		errors.New(message),
		ErrInfoMintNotAllowed{
			Mint: mint.String(),
		},
	)
}

// NewAPIErrAllowlistSize returns an ErrMintNotAllowed API Error for an
// allowed list with the given number of mints, when it is empty or larger
// than maxSize. Mint in the additional info is empty.
func NewAPIErrAllowlistSize(size, maxSize int) APIError {
	message := fmt.Sprintf("allowed list should have 1 to %d mints, got %d", maxSize, size)
	return NewAPIErr(
		PolicyError,
		ErrMintNotAllowed,
		errors.New(message),
		ErrInfoMintNotAllowed{},
	)
}

// NewAPIErrInsufficientLiquidity returns an ErrInsufficientLiquidity API
// Error for the position of owner in the given mint.
func NewAPIErrInsufficientLiquidity(owner, mint identity.Identity, available, requested uint64) APIError {
	message := fmt.Sprintf("insufficient liquidity to withdraw: have %d, want %d", available, requested)
	return NewAPIErr(
		PolicyError,
		ErrInsufficientLiquidity,
		errors.New(message),
		ErrInfoInsufficientLiquidity{
			Owner:     owner.String(),
			Mint:      mint.String(),
			Available: available,
			Requested: requested,
		},
	)
}

// NewAPIErrInsufficientBacking returns an ErrInsufficientBacking API Error
// when a direct withdrawal would leave the custody balance below the
// outstanding liquidity claims.
func NewAPIErrInsufficientBacking(mint identity.Identity, custody, claims, requested uint64) APIError {
	message := fmt.Sprintf("custody balance %d with claims %d cannot back withdrawal of %d", custody, claims, requested)
	return NewAPIErr(
		PolicyError,
		ErrInsufficientBacking,
		errors.New(message),
		ErrInfoInsufficientBacking{
			Mint:      mint.String(),
			Custody:   custody,
			Claims:    claims,
			Requested: requested,
		},
	)
}

// NewAPIErrForwardTargetNotAllowed returns an ErrForwardTargetNotAllowed
// API Error for the given target program.
func NewAPIErrForwardTargetNotAllowed(target identity.Identity) APIError {
	message := fmt.Sprintf("program %s is not an allowed forward target", target)
	return NewAPIErr(
		PolicyError,
		ErrForwardTargetNotAllowed,
		errors.New(message),
		ErrInfoForwardTargetNotAllowed{
			Target: target.String(),
		},
	)
}

// NewAPIErrAmountOverflow returns an ErrAmountOverflow API Error.
func NewAPIErrAmountOverflow(current, added uint64) APIError {
	message := fmt.Sprintf("adding %d to %d overflows", added, current)
	return NewAPIErr(
		PolicyError,
		ErrAmountOverflow,
		errors.New(message),
		ErrInfoAmountOverflow{
			Current: current,
			Added:   added,
		},
	)
}

// NewAPIErrSourceMintMismatch returns an ErrSourceMintMismatch API Error.
func NewAPIErrSourceMintMismatch(holding, holdingMint, mint identity.Identity) APIError {
	return newAPIErrMintMismatch(ErrSourceMintMismatch, "source", holding, holdingMint, mint)
}

// NewAPIErrRecipientMintMismatch returns an ErrRecipientMintMismatch API Error.
func NewAPIErrRecipientMintMismatch(holding, holdingMint, mint identity.Identity) APIError {
	return newAPIErrMintMismatch(ErrRecipientMintMismatch, "recipient", holding, holdingMint, mint)
}

// NewAPIErrVaultMintMismatch returns an ErrVaultMintMismatch API Error.
func NewAPIErrVaultMintMismatch(holding, holdingMint, mint identity.Identity) APIError {
	return newAPIErrMintMismatch(ErrVaultMintMismatch, "vault", holding, holdingMint, mint)
}

func newAPIErrMintMismatch(code ErrorCode, role string, holding, holdingMint, mint identity.Identity) APIError {
	message := fmt.Sprintf("%s token account %s has mint %s, want %s", role, holding, holdingMint, mint)
	return NewAPIErr(
		ConsistencyError,
		code,
		errors.New(message),
		ErrInfoMintMismatch{
			Holding:     holding.String(),
			HoldingMint: holdingMint.String(),
			Mint:        mint.String(),
		},
	)
}

// NewAPIErrVaultOwnerMismatch returns an ErrVaultOwnerMismatch API Error when the vault token
// account is not controlled by the vault authority.
func NewAPIErrVaultOwnerMismatch(holding, owner, authority identity.Identity) APIError {
	message := fmt.Sprintf("vault token account %s is owned by %s, want vault authority %s", holding, owner, authority)
	return NewAPIErr(
		ConsistencyError,
		ErrVaultOwnerMismatch,
		errors.New(message),
		ErrInfoVaultOwnerMismatch{
			Holding:   holding.String(),
			Owner:     owner.String(),
			Authority: authority.String(),
		},
	)
}

// NewAPIErrBumpNotFound returns an ErrBumpNotFound API Error when the
// stored bump does not reproduce the vault authority.
func NewAPIErrBumpNotFound(err error, storedBump uint8) APIError {
	message := "bump not found"
	return NewAPIErr(
		DerivationError,
		ErrBumpNotFound,
		errors.WithMessage(err, message),
		ErrInfoBumpNotFound{
			StoredBump: storedBump,
		},
	)
}

// ArgumentName type is used enumerate valid argument names for use
// InvalidArgument error.
//
// The enumeration of valid constants should be defined in the package using
// the error constructors.
type ArgumentName string

// NewAPIErrInvalidArgument returns an ErrInvalidArgument API Error with the given
// argument name and value.
func NewAPIErrInvalidArgument(err error, name ArgumentName, value, requirement string) APIError {
	message := fmt.Sprintf("invalid value for %s: %s", name, value)
	return NewAPIErr(
		ClientError,
		ErrInvalidArgument,
		errors.WithMessage(err, message),
		ErrInfoInvalidArgument{
			Name:        string(name),
			Value:       value,
			Requirement: requirement,
		},
	)
}

// ResourceType is used to enumerate valid resource types in ResourceNotFound
// and ResourceExists errors.
//
// The enumeration of valid constants should be defined in the package using
// the error constructors.
type ResourceType string

// NewAPIErrResourceNotFound returns an ErrResourceNotFound API Error with
// the given resource type and ID.
func NewAPIErrResourceNotFound(resourceType ResourceType, resourceID string) APIError {
	message := fmt.Sprintf("cannot find %s with ID: %s", resourceType, resourceID)
	return NewAPIErr(
		ClientError,
		ErrResourceNotFound,
		errors.New(message),
		ErrInfoResourceNotFound{
			Type: string(resourceType),
			ID:   resourceID,
		},
	)
}

// NewAPIErrResourceExists returns an ErrResourceExists API Error with
// the given resource type and ID.
func NewAPIErrResourceExists(resourceType ResourceType, resourceID string) APIError {
	message := fmt.Sprintf("%s with ID: %s already exists", resourceType, resourceID)
	return NewAPIErr(
		ClientError,
		ErrResourceExists,
		errors.New(message),
		ErrInfoResourceExists{
			Type: string(resourceType),
			ID:   resourceID,
		},
	)
}

// NewAPIErrInvalidConfig returns an ErrInvalidConfig, API Error with the given
// config name and value.
func NewAPIErrInvalidConfig(err error, name, value string) APIError {
	message := fmt.Sprintf("invalid value for %s: %s", name, value)
	return NewAPIErr(
		ClientError,
		ErrInvalidConfig,
		errors.WithMessage(err, message),
		ErrInfoInvalidConfig{
			Name:  name,
			Value: value,
		},
	)
}

// NewAPIErrTransferFailed returns an ErrTransferFailed API Error when the
// underlying transfer primitive rejects a transfer.
func NewAPIErrTransferFailed(err error, from, to identity.Identity, amount uint64) APIError {
	message := fmt.Sprintf("transfer of %d from %s to %s failed", amount, from, to)
	return NewAPIErr(
		ExternalError,
		ErrTransferFailed,
		errors.WithMessage(err, message),
		ErrInfoTransferFailed{
			From:   from.String(),
			To:     to.String(),
			Amount: amount,
		},
	)
}

// NewAPIErrForwardFailed returns an ErrForwardFailed API Error when the
// nested call of a forwarding step fails.
func NewAPIErrForwardFailed(err error, kind ForwardKind, target identity.Identity) APIError {
	message := fmt.Sprintf("%s forward to %s failed", kind, target)
	return NewAPIErr(
		ExternalError,
		ErrForwardFailed,
		errors.WithMessage(err, message),
		ErrInfoForwardFailed{
			Kind:   kind.String(),
			Target: target.String(),
		},
	)
}

// NewAPIErrUnknownInternal returns an ErrUnknownInternal API Error with the given
// error message.
func NewAPIErrUnknownInternal(err error) APIError {
	message := "unknown internal error"
	return NewAPIErr(
		InternalError,
		ErrUnknownInternal,
		errors.WithMessage(err, message),
		nil,
	)
}

// APIErrAsMap returns a map containing entries for the method and each of
// the fields in the api error (except message). The map can be directly passed
// to the logger for logging the data in a structured format.
func APIErrAsMap(method string, err APIError) map[string]interface{} {
	return map[string]interface{}{
		"method":   method,
		"category": err.Category().String(),
		"code":     err.Code(),
	}
}

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
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/ledger"
	"github.com/hyperledger-labs/custody-node/relay"
)

// ForwardKind enumerates the forwarding strategies that can follow a deposit.
type ForwardKind uint8

// Enumeration of forwarding strategies.
const (
	ForwardNone ForwardKind = iota
	ForwardGeneric
	ForwardRelay
)

// String implements fmt.Stringer.
func (k ForwardKind) String() string {
	return [...]string{
		"none",
		"generic",
		"relay",
	}[k]
}

// DefaultRelayNativeFee is the native fee, in minor units, paid to the relay when a deposit
// does not specify one.
const DefaultRelayNativeFee = relay.DefaultNativeFee

// Forward is the step applied after a successful deposit transfer. It is one of NoForward,
// GenericForward or RelayRebroadcast.
type Forward interface {
	Kind() ForwardKind
}

type (
	// NoForward completes the deposit with the transfer only.
	NoForward struct{}

	// GenericForward passes Payload and ExtraAccounts, unmodified, to the Target program. The
	// target must be on the forward allowlist of the vault configuration.
	//
	// A zero Target or an empty Payload skips the step.
	GenericForward struct {
		Target        identity.Identity
		Payload       []byte
		ExtraAccounts []ledger.AccountMeta
	}

	// RelayRebroadcast sends a deposit notification through the cross-chain relay.
	//
	// DstAsset and Merchant are 32 byte words, EVM addresses are left padded with zeros.
	// A zero NativeFee is replaced by DefaultRelayNativeFee.
	RelayRebroadcast struct {
		DstChainID uint32
		DstAsset   [32]byte
		Merchant   [32]byte
		Options    []byte
		NativeFee  uint64
		MessageFee uint64
	}
)

// Kind implements Forward.
func (NoForward) Kind() ForwardKind { return ForwardNone }

// Kind implements Forward.
func (GenericForward) Kind() ForwardKind { return ForwardGeneric }

// Kind implements Forward.
func (RelayRebroadcast) Kind() ForwardKind { return ForwardRelay }

// WithDefaults returns a copy with the default fees applied.
func (r RelayRebroadcast) WithDefaults() RelayRebroadcast {
	if r.NativeFee == 0 {
		r.NativeFee = DefaultRelayNativeFee
	}
	return r
}

type (
	// InitializeReq creates the configuration registry. Admin must sign the invocation.
	InitializeReq struct {
		Admin            identity.Identity
		AuthorizedCaller identity.Identity
		AllowedAssets    []identity.Identity
	}

	// SetAuthorizedCallerReq rotates the authorized caller. Admin must sign the invocation.
	SetAuthorizedCallerReq struct {
		Admin     identity.Identity
		NewCaller identity.Identity
	}

	// SetForwardTargetsReq replaces the list of programs deposits may be forwarded to.
	SetForwardTargetsReq struct {
		Admin   identity.Identity
		Targets []identity.Identity
	}

	// DepositReq moves Amount of Asset from the Source holding of the Depositor into the Vault
	// holding and then applies Forward.
	DepositReq struct {
		Depositor identity.Identity
		Source    identity.Identity
		Vault     identity.Identity
		Asset     identity.Identity
		Amount    uint64
		Forward   Forward
	}

	// TransferOutReq moves Amount of Asset from the Vault holding to the Recipient holding.
	// Authority must be the admin or the authorized caller.
	TransferOutReq struct {
		Authority identity.Identity
		Recipient identity.Identity
		Vault     identity.Identity
		Asset     identity.Identity
		Amount    uint64
	}

	// LPDepositReq adds Amount to the liquidity position of Owner for Asset.
	LPDepositReq struct {
		Owner  identity.Identity
		Source identity.Identity
		Vault  identity.Identity
		Asset  identity.Identity
		Amount uint64
	}

	// LPWithdrawReq removes Amount from the liquidity position of Owner for Asset and pays it
	// out to the Destination holding.
	LPWithdrawReq struct {
		Owner       identity.Identity
		Destination identity.Identity
		Vault       identity.Identity
		Asset       identity.Identity
		Amount      uint64
	}
)

type (
	// ConfigInfo is the read model of the configuration registry.
	ConfigInfo struct {
		Address          identity.Identity
		Admin            identity.Identity
		AuthorizedCaller identity.Identity
		AllowedAssets    []identity.Identity
		ForwardTargets   []identity.Identity
		VaultAuthority   identity.Identity
		VaultBump        uint8
	}

	// PositionInfo is the read model of a liquidity position.
	PositionInfo struct {
		Address identity.Identity
		Owner   identity.Identity
		Asset   identity.Identity
		Amount  uint64
	}

	// ClaimsInfo is the aggregate of all liquidity positions for one asset.
	ClaimsInfo struct {
		Address identity.Identity
		Asset   identity.Identity
		Total   uint64
	}
)

// NodeConfig represents the configurable parameters of a custody node.
type NodeConfig struct {
	LogLevel string // LogLevel represents the log level for the node and all derived loggers.
	LogFile  string // LogFile represents the file to write logs. Empty string represents stdout.

	ProgramID      string // Identity of the custody program, base58.
	RelayProgramID string // Identity of the cross-chain relay program, base58.

	// StateFile is the path of the yaml file that persists the local ledger. If empty, the
	// ledger is kept in memory only.
	StateFile string

	// RelayPeers lists the receivers known to the relay per destination chain. If empty, the
	// relay accepts every destination.
	RelayPeers []RelayPeerConfig

	Assets []AssetConfig // Assets known to the node, used for parsing and printing amounts.
}

// RelayPeerConfig is the receiver on a destination chain, as a hex string of up to 32 bytes.
type RelayPeerConfig struct {
	ChainID  uint32
	Receiver string
}

// AssetConfig describes one fungible asset.
type AssetConfig struct {
	Symbol   string
	Mint     string
	Decimals uint8
}

// NodeAPI represents the operations of the custody program as served by the node.
//
// Each mutating call is one atomic invocation: on error, no state is changed.
type NodeAPI interface {
	GetConfig() NodeConfig
	ProgramID() identity.Identity

	Initialize(InitializeReq) (ConfigInfo, APIError)
	SetAuthorizedCaller(SetAuthorizedCallerReq) APIError
	SetForwardTargets(SetForwardTargetsReq) APIError

	Deposit(DepositReq) APIError
	TransferOut(TransferOutReq) APIError
	LPDeposit(LPDepositReq) (PositionInfo, APIError)
	LPWithdraw(LPWithdrawReq) (PositionInfo, APIError)

	GetVaultConfig() (ConfigInfo, APIError)
	IsAllowedAsset(asset identity.Identity) (bool, APIError)
	GetPosition(owner, asset identity.Identity) (PositionInfo, APIError)
	GetClaims(asset identity.Identity) (ClaimsInfo, APIError)
	GetHolding(address identity.Identity) (ledger.Holding, APIError)
	Events() []ledger.Event
}

// APIError represents the error that will returned by the API of custody node.
type APIError interface {
	Category() ErrorCategory
	Code() ErrorCode
	Message() string
	AddInfo() interface{}
	Error() string
}

// ErrorCategory represents the category of the error, which describes how the
// error should be handled by the client.
type ErrorCategory int

const (
	// AuthorizationError is caused by an invoker that is not allowed to perform the operation.
	AuthorizationError ErrorCategory = iota

	// PolicyError is caused by a request that violates the policy of the vault: an asset that
	// is not allowed, or an amount that is not backed.
	PolicyError

	// ConsistencyError is caused by holdings whose declared asset disagrees with the asset
	// of the operation.
	ConsistencyError

	// DerivationError is caused by a stored derivation parameter that does not reproduce
	// the vault signing authority.
	DerivationError

	// ClientError is caused by the errors in the request from the client: malformed
	// arguments, unknown accounts, or invalid configuration.
	ClientError

	// ExternalError is caused by a collaborator of the program: the transfer primitive or a
	// nested call to another program.
	ExternalError

	// InternalError is caused due to an unknown internal error.
	InternalError
)

// String implements the stringer interface for ErrorCategory.
func (c ErrorCategory) String() string {
	return [...]string{
		"Authorization",
		"Policy",
		"Consistency",
		"Derivation",
		"Client",
		"External",
		"Internal",
	}[c]
}

// ErrorCode is a numeric code assigned to identify the specific type of error.
// The keys in the additional field is fixed for each error code.
type ErrorCode int

// Error code definitions.
const (
	ErrNotAuthorized           ErrorCode = 101
	ErrMintNotAllowed          ErrorCode = 201
	ErrInsufficientLiquidity   ErrorCode = 202
	ErrInsufficientBacking     ErrorCode = 203
	ErrForwardTargetNotAllowed ErrorCode = 204
	ErrAmountOverflow          ErrorCode = 205
	ErrSourceMintMismatch      ErrorCode = 301
	ErrRecipientMintMismatch   ErrorCode = 302
	ErrVaultMintMismatch       ErrorCode = 303
	ErrVaultOwnerMismatch      ErrorCode = 304
	ErrBumpNotFound            ErrorCode = 401
	ErrInvalidArgument         ErrorCode = 501
	ErrResourceNotFound        ErrorCode = 502
	ErrResourceExists          ErrorCode = 503
	ErrInvalidConfig           ErrorCode = 504
	ErrTransferFailed          ErrorCode = 601
	ErrForwardFailed           ErrorCode = 602
	ErrUnknownInternal         ErrorCode = 701
)

type (
	// ErrInfoNotAuthorized represents the fields in the additional info for
	// ErrNotAuthorized.
	ErrInfoNotAuthorized struct {
		Operation string
		Invoker   string
	}

	// ErrInfoMintNotAllowed represents the fields in the additional info for
	// ErrMintNotAllowed.
	ErrInfoMintNotAllowed struct {
		Mint string
	}

	// ErrInfoInsufficientLiquidity represents the fields in the additional info for
	// ErrInsufficientLiquidity.
	ErrInfoInsufficientLiquidity struct {
		Owner     string
		Mint      string
		Available uint64
		Requested uint64
	}

	// ErrInfoInsufficientBacking represents the fields in the additional info for
	// ErrInsufficientBacking.
	ErrInfoInsufficientBacking struct {
		Mint      string
		Custody   uint64
		Claims    uint64
		Requested uint64
	}

	// ErrInfoForwardTargetNotAllowed represents the fields in the additional info for
	// ErrForwardTargetNotAllowed.
	ErrInfoForwardTargetNotAllowed struct {
		Target string
	}

	// ErrInfoAmountOverflow represents the fields in the additional info for
	// ErrAmountOverflow.
	ErrInfoAmountOverflow struct {
		Current uint64
		Added   uint64
	}

	// ErrInfoMintMismatch represents the fields in the additional info for
	// ErrSourceMintMismatch, ErrRecipientMintMismatch and ErrVaultMintMismatch.
	ErrInfoMintMismatch struct {
		Holding     string
		HoldingMint string
		Mint        string
	}

	// ErrInfoVaultOwnerMismatch represents the fields in the additional info for
	// ErrVaultOwnerMismatch.
	ErrInfoVaultOwnerMismatch struct {
		Holding   string
		Owner     string
		Authority string
	}

	// ErrInfoBumpNotFound represents the fields in the additional info for
	// ErrBumpNotFound.
	ErrInfoBumpNotFound struct {
		StoredBump uint8
	}

	// ErrInfoInvalidArgument represents the fields in the additional info for
	// ErrInvalidArgument.
	ErrInfoInvalidArgument struct {
		Name        string
		Value       string
		Requirement string
	}

	// ErrInfoResourceNotFound represents the fields in the additional info for
	// ErrResourceNotFound.
	ErrInfoResourceNotFound struct {
		Type string
		ID   string
	}

	// ErrInfoResourceExists represents the fields in the additional info for
	// ErrResourceExists.
	ErrInfoResourceExists struct {
		Type string
		ID   string
	}

	// ErrInfoInvalidConfig represents the fields in the additional info for
	// ErrInvalidConfig.
	ErrInfoInvalidConfig struct {
		Name  string
		Value string
	}

	// ErrInfoTransferFailed represents the fields in the additional info for
	// ErrTransferFailed.
	ErrInfoTransferFailed struct {
		From   string
		To     string
		Amount uint64
	}

	// ErrInfoForwardFailed represents the fields in the additional info for
	// ErrForwardFailed.
	ErrInfoForwardFailed struct {
		Kind   string
		Target string
	}
)

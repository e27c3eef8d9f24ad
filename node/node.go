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

package node

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/config"
	"github.com/hyperledger-labs/custody-node/currency"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/ledger"
	"github.com/hyperledger-labs/custody-node/log"
	"github.com/hyperledger-labs/custody-node/relay"
	"github.com/hyperledger-labs/custody-node/vault"
)

// Node serves the operations of the custody program over a local ledger. Each mutating call is
// executed in one ledger transaction, which is committed only if the call succeeds.
//
// If a state file is configured, the ledger is restored from it on start and written back
// after every committed call.
type Node struct {
	log.Logger
	cfg     custody.NodeConfig
	ledger  *ledger.Ledger
	program *vault.Program
	relay   *relay.Endpoint // nil if no relay program is configured.
	assets  *currency.Registry

	sync.Mutex
}

var _ custody.NodeAPI = (*Node)(nil)

// defaultLogLevel is used when the configuration does not set a log level.
const defaultLogLevel = "info"

// New returns a custody node initialized using the given config.
func New(cfg custody.NodeConfig) (*Node, error) {
	if err := config.ValidateNodeConfig(cfg); err != nil {
		return nil, errors.WithMessage(err, "validating config")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if err := log.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil && !errors.Is(err, log.ErrLoggerInitialized) {
		return nil, errors.WithMessage(err, "initializing logger for node")
	}

	programID := identity.MustParse(cfg.ProgramID)
	var relayID identity.Identity
	if cfg.RelayProgramID != "" {
		relayID = identity.MustParse(cfg.RelayProgramID)
	}
	program, err := vault.New(programID, relayID)
	if err != nil {
		return nil, err
	}
	assets, err := config.AssetRegistry(cfg.Assets)
	if err != nil {
		return nil, err
	}

	l := ledger.New(identity.SeedVerifier{})
	var endpoint *relay.Endpoint
	if !relayID.IsZero() {
		peers, err := config.RelayPeers(cfg.RelayPeers)
		if err != nil {
			return nil, err
		}
		if endpoint, err = relay.NewEndpoint(relayID, peers); err != nil {
			return nil, errors.WithMessage(err, "initializing relay")
		}
		if err = l.RegisterProgram(endpoint); err != nil {
			return nil, errors.WithMessage(err, "registering relay")
		}
	}
	if err = loadState(l, cfg.StateFile); err != nil {
		return nil, err
	}

	return &Node{
		Logger:  log.NewLoggerWithField("node", programID.String()),
		cfg:     cfg,
		ledger:  l,
		program: program,
		relay:   endpoint,
		assets:  assets,
	}, nil
}

func loadState(l *ledger.Ledger, stateFile string) error {
	if stateFile == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Clean(stateFile)); os.IsNotExist(err) {
		return nil
	}
	return errors.WithMessage(l.LoadFile(stateFile), "loading state")
}

// GetConfig returns the configuration parameters of the node.
func (n *Node) GetConfig() custody.NodeConfig {
	n.Debug("Received request: node.GetConfig")
	return n.cfg
}

// ProgramID returns the identity of the custody program served by the node.
func (n *Node) ProgramID() identity.Identity {
	return n.program.ID()
}

// Addresses returns the derived accounts of the custody program.
func (n *Node) Addresses() vault.Addresses {
	return n.program.Addresses()
}

// Assets returns the registry of the assets configured for the node.
func (n *Node) Assets() *currency.Registry {
	return n.assets
}

// Initialize creates the configuration registry of the vault.
//
// If there is an error, it will be one of the following codes:
// - ErrNotAuthorized when the admin did not sign.
// - ErrMintNotAllowed when the allowed list has no or too many assets.
// - ErrInvalidArgument when the allowed list has duplicates.
// - ErrResourceExists when the vault is already initialized.
func (n *Node) Initialize(req custody.InitializeReq) (info custody.ConfigInfo, apiErr custody.APIError) {
	apiErr = n.invoke("Initialize", req, []identity.Identity{req.Admin}, func(tx *ledger.Tx) (apiErr custody.APIError) {
		info, apiErr = n.program.Initialize(tx, req)
		return apiErr
	})
	return info, apiErr
}

// SetAuthorizedCaller rotates the authorized caller of the vault.
func (n *Node) SetAuthorizedCaller(req custody.SetAuthorizedCallerReq) custody.APIError {
	return n.invoke("SetAuthorizedCaller", req, []identity.Identity{req.Admin}, func(tx *ledger.Tx) custody.APIError {
		return n.program.SetAuthorizedCaller(tx, req)
	})
}

// SetForwardTargets replaces the list of programs deposits may be forwarded to.
func (n *Node) SetForwardTargets(req custody.SetForwardTargetsReq) custody.APIError {
	return n.invoke("SetForwardTargets", req, []identity.Identity{req.Admin}, func(tx *ledger.Tx) custody.APIError {
		return n.program.SetForwardTargets(tx, req)
	})
}

// Deposit moves tokens of the depositor into custody and applies the forward step.
func (n *Node) Deposit(req custody.DepositReq) custody.APIError {
	return n.invoke("Deposit", req, []identity.Identity{req.Depositor}, func(tx *ledger.Tx) custody.APIError {
		return n.program.Deposit(tx, req)
	})
}

// TransferOut moves tokens out of custody on behalf of the admin or the authorized caller.
func (n *Node) TransferOut(req custody.TransferOutReq) custody.APIError {
	return n.invoke("TransferOut", req, []identity.Identity{req.Authority}, func(tx *ledger.Tx) custody.APIError {
		return n.program.TransferOut(tx, req)
	})
}

// LPDeposit adds liquidity to the position of the owner and returns the updated position.
func (n *Node) LPDeposit(req custody.LPDepositReq) (pos custody.PositionInfo, apiErr custody.APIError) {
	apiErr = n.invoke("LPDeposit", req, []identity.Identity{req.Owner}, func(tx *ledger.Tx) (apiErr custody.APIError) {
		pos, apiErr = n.program.LPDeposit(tx, req)
		return apiErr
	})
	return pos, apiErr
}

// LPWithdraw removes liquidity from the position of the owner and returns the updated position.
func (n *Node) LPWithdraw(req custody.LPWithdrawReq) (pos custody.PositionInfo, apiErr custody.APIError) {
	apiErr = n.invoke("LPWithdraw", req, []identity.Identity{req.Owner}, func(tx *ledger.Tx) (apiErr custody.APIError) {
		pos, apiErr = n.program.LPWithdraw(tx, req)
		return apiErr
	})
	return pos, apiErr
}

// invoke runs fn in a transaction signed by signers. If fn succeeds, the resulting state is
// persisted and the transaction committed. Otherwise, it is rolled back.
func (n *Node) invoke(method string, params interface{}, signers []identity.Identity,
	fn func(tx *ledger.Tx) custody.APIError) (apiErr custody.APIError) {
	logger := log.NewInvocationLogger(n, method)
	logger.Infof("Received request with params %+v", params)
	defer func() {
		if apiErr != nil {
			logger.WithFields(custody.APIErrAsMap(method, apiErr)).Error(apiErr.Message())
		}
	}()

	n.Lock()
	defer n.Unlock()

	tx := n.ledger.Begin(signers...)
	if apiErr = fn(tx); apiErr != nil {
		tx.Rollback()
		return apiErr
	}
	if err := n.persist(tx); err != nil {
		tx.Rollback()
		return custody.NewAPIErrUnknownInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return custody.NewAPIErrUnknownInternal(errors.WithMessage(err, "committing"))
	}
	logger.Info("Request completed successfully")
	return nil
}

// persist writes the state the ledger will have after committing the transaction to the state
// file, so that a failed write leaves both the file and the ledger unchanged.
func (n *Node) persist(tx *ledger.Tx) error {
	if n.cfg.StateFile == "" {
		return nil
	}
	return errors.WithMessage(tx.Snapshot().SaveFile(n.cfg.StateFile), "persisting state")
}

// GetVaultConfig returns the configuration registry of the vault.
func (n *Node) GetVaultConfig() (custody.ConfigInfo, custody.APIError) {
	n.Debug("Received request: node.GetVaultConfig")
	return n.program.ConfigInfo(n.ledger)
}

// IsAllowedAsset reports whether the vault accepts the asset.
func (n *Node) IsAllowedAsset(asset identity.Identity) (bool, custody.APIError) {
	n.Debug("Received request: node.IsAllowedAsset")
	return n.program.IsAllowedAsset(n.ledger, asset)
}

// GetPosition returns the liquidity position of the owner for the asset.
//
// If there is an error, it will be one of the following codes:
// - ErrResourceNotFound when the owner has no position for the asset.
func (n *Node) GetPosition(owner, asset identity.Identity) (custody.PositionInfo, custody.APIError) {
	n.Debug("Received request: node.GetPosition")
	return n.program.Position(n.ledger, owner, asset)
}

// GetClaims returns the total of all liquidity positions for the asset.
func (n *Node) GetClaims(asset identity.Identity) (custody.ClaimsInfo, custody.APIError) {
	n.Debug("Received request: node.GetClaims")
	return n.program.Claims(n.ledger, asset)
}

// GetHolding returns the token account at the address.
func (n *Node) GetHolding(address identity.Identity) (ledger.Holding, custody.APIError) {
	n.Debug("Received request: node.GetHolding")
	h, ok := n.ledger.Holding(address)
	if !ok {
		return ledger.Holding{}, custody.NewAPIErrResourceNotFound(vault.ResTypeHolding, address.String())
	}
	return h, nil
}

// GetHoldingsOf returns all the token accounts of the owner.
func (n *Node) GetHoldingsOf(owner identity.Identity) []ledger.Holding {
	n.Debug("Received request: node.GetHoldingsOf")
	return n.ledger.HoldingsOf(owner)
}

// Events returns the committed events of all programs, in order.
func (n *Node) Events() []ledger.Event {
	n.Debug("Received request: node.Events")
	return n.ledger.Events()
}

// Packets returns the packets sent through the relay.
//
// If there is an error, it will be one of the following codes:
// - ErrResourceNotFound when no relay program is configured.
// - ErrUnknownInternal when a recorded packet cannot be parsed.
func (n *Node) Packets() ([]relay.Packet, custody.APIError) {
	n.Debug("Received request: node.Packets")
	if n.relay == nil {
		return nil, custody.NewAPIErrResourceNotFound(ResTypeRelay, n.cfg.RelayProgramID)
	}
	packets, err := n.relay.Packets(n.ledger.Events())
	if err != nil {
		return nil, custody.NewAPIErrUnknownInternal(err)
	}
	return packets, nil
}

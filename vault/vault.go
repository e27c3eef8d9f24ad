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

package vault

import (
	"encoding"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/ledger"
	"github.com/hyperledger-labs/custody-node/log"
	"github.com/hyperledger-labs/custody-node/relay"
)

// Argument names and resource types used in API errors.
const (
	ArgAllowedAssets  custody.ArgumentName = "allowedAssets"
	ArgForwardTargets custody.ArgumentName = "forwardTargets"
	ArgForward        custody.ArgumentName = "forward"

	ResTypeConfig   custody.ResourceType = "config"
	ResTypeHolding  custody.ResourceType = "token account"
	ResTypeMint     custody.ResourceType = "mint"
	ResTypePosition custody.ResourceType = "liquidity position"
)

// Names of the events emitted by the program.
const (
	EventInitialized         = "Initialized"
	EventAuthorizedCallerSet = "AuthorizedCallerSet"
	EventForwardTargetsSet   = "ForwardTargetsSet"
	EventDeposited           = "Deposited"
	EventDepositForwarded    = "DepositForwarded"
	EventDepositRelayed      = "DepositRelayed"
	EventTransferredOut      = "TransferredOut"
	EventLPDeposited         = "LPDeposited"
	EventLPWithdrawn         = "LPWithdrawn"
)

// Operation names used in authorization errors.
const (
	opInitialize          = "initialize"
	opSetAuthorizedCaller = "set authorized caller"
	opSetForwardTargets   = "set forward targets"
	opDeposit             = "deposit"
	opTransferOut         = "transfer out"
	opLPDeposit           = "lp deposit"
	opLPWithdraw          = "lp withdraw"
)

// AccountReader provides read access to data accounts. It is implemented by both the ledger,
// for committed state, and by an open transaction.
type AccountReader interface {
	Account(addr identity.Identity) (ledger.Account, bool)
}

// Program is the custody program. Each handler runs within the given transaction and returns
// an API error on failure, in which case the caller must roll back the transaction.
type Program struct {
	id      identity.Identity
	relayID identity.Identity
	addrs   Addresses

	log.Logger
}

// New returns the custody program deployed at programID that relays deposits through the
// relay program at relayProgramID. A zero relayProgramID disables relayed deposits.
func New(programID, relayProgramID identity.Identity) (*Program, error) {
	addrs, err := DeriveAddresses(programID)
	if err != nil {
		return nil, errors.WithMessage(err, "deriving program addresses")
	}
	return &Program{
		id:      programID,
		relayID: relayProgramID,
		addrs:   addrs,
		Logger:  log.NewLoggerWithField("program", programID.String()),
	}, nil
}

// ID returns the identity of the program.
func (p *Program) ID() identity.Identity {
	return p.id
}

// RelayProgramID returns the identity of the relay program deposits are relayed through.
func (p *Program) RelayProgramID() identity.Identity {
	return p.relayID
}

// Addresses returns the derived accounts of the program.
func (p *Program) Addresses() Addresses {
	return p.addrs
}

// Initialize creates the configuration registry. It can succeed only once per program, a
// second call fails because the registry account already exists.
func (p *Program) Initialize(tx *ledger.Tx, req custody.InitializeReq) (custody.ConfigInfo, custody.APIError) {
	if !tx.IsSigner(req.Admin) {
		return custody.ConfigInfo{}, custody.NewAPIErrNotAuthorized(opInitialize, req.Admin)
	}
	if len(req.AllowedAssets) == 0 || len(req.AllowedAssets) > MaxAllowedAssets {
		return custody.ConfigInfo{}, custody.NewAPIErrAllowlistSize(len(req.AllowedAssets), MaxAllowedAssets)
	}
	if dup, ok := duplicate(req.AllowedAssets); ok {
		return custody.ConfigInfo{}, custody.NewAPIErrInvalidArgument(
			errors.New("duplicate asset"), ArgAllowedAssets, dup.String(), "unique assets")
	}

	cfg := Config{
		Admin:            req.Admin,
		AuthorizedCaller: req.AuthorizedCaller,
		AllowedAssets:    append([]identity.Identity(nil), req.AllowedAssets...),
		VaultBump:        p.addrs.VaultBump,
	}
	data, err := cfg.MarshalBinary()
	if err != nil {
		return custody.ConfigInfo{}, custody.NewAPIErrUnknownInternal(err)
	}
	if err = tx.CreateAccount(p.id, p.addrs.Config, data); err != nil {
		if errors.Is(err, ledger.ErrAccountExists) {
			return custody.ConfigInfo{}, custody.NewAPIErrResourceExists(ResTypeConfig, p.addrs.Config.String())
		}
		return custody.ConfigInfo{}, custody.NewAPIErrUnknownInternal(err)
	}

	tx.Emit(p.id, EventInitialized, map[string]string{
		"admin":            cfg.Admin.String(),
		"authorizedCaller": cfg.AuthorizedCaller.String(),
		"allowedAssets":    fmt.Sprint(cfg.AllowedAssets),
	})
	p.WithField("admin", cfg.Admin).Info("Initialized vault")
	return p.configInfo(cfg), nil
}

// SetAuthorizedCaller replaces the authorized caller. Only the admin may do this.
func (p *Program) SetAuthorizedCaller(tx *ledger.Tx, req custody.SetAuthorizedCallerReq) custody.APIError {
	cfg, apiErr := p.loadConfig(tx)
	if apiErr != nil {
		return apiErr
	}
	if req.Admin != cfg.Admin || !tx.IsSigner(req.Admin) {
		return custody.NewAPIErrNotAuthorized(opSetAuthorizedCaller, req.Admin)
	}

	previous := cfg.AuthorizedCaller
	cfg.AuthorizedCaller = req.NewCaller
	if apiErr = p.store(tx, p.addrs.Config, true, cfg); apiErr != nil {
		return apiErr
	}
	tx.Emit(p.id, EventAuthorizedCallerSet, map[string]string{
		"previous":         previous.String(),
		"authorizedCaller": req.NewCaller.String(),
	})
	p.WithField("authorizedCaller", req.NewCaller).Info("Rotated authorized caller")
	return nil
}

// SetForwardTargets replaces the list of programs deposits may be forwarded to. Only the admin
// may do this. An empty list disables generic forwarding.
func (p *Program) SetForwardTargets(tx *ledger.Tx, req custody.SetForwardTargetsReq) custody.APIError {
	cfg, apiErr := p.loadConfig(tx)
	if apiErr != nil {
		return apiErr
	}
	if req.Admin != cfg.Admin || !tx.IsSigner(req.Admin) {
		return custody.NewAPIErrNotAuthorized(opSetForwardTargets, req.Admin)
	}
	if len(req.Targets) > MaxForwardTargets {
		return custody.NewAPIErrInvalidArgument(errors.New("too many forward targets"),
			ArgForwardTargets, strconv.Itoa(len(req.Targets)), fmt.Sprintf("at most %d targets", MaxForwardTargets))
	}
	if dup, ok := duplicate(req.Targets); ok {
		return custody.NewAPIErrInvalidArgument(errors.New("duplicate forward target"),
			ArgForwardTargets, dup.String(), "unique targets")
	}

	cfg.ForwardTargets = append([]identity.Identity(nil), req.Targets...)
	if apiErr = p.store(tx, p.addrs.Config, true, cfg); apiErr != nil {
		return apiErr
	}
	tx.Emit(p.id, EventForwardTargetsSet, map[string]string{"targets": fmt.Sprint(cfg.ForwardTargets)})
	p.WithField("targets", len(cfg.ForwardTargets)).Info("Updated forward targets")
	return nil
}

// Deposit moves the amount from the source holding of the depositor into custody and then
// applies the forward step. A failing forward step fails the whole deposit.
func (p *Program) Deposit(tx *ledger.Tx, req custody.DepositReq) custody.APIError {
	if !tx.IsSigner(req.Depositor) {
		return custody.NewAPIErrNotAuthorized(opDeposit, req.Depositor)
	}
	cfg, apiErr := p.loadConfig(tx)
	if apiErr != nil {
		return apiErr
	}
	if !cfg.IsAllowedAsset(req.Asset) {
		return custody.NewAPIErrMintNotAllowed(req.Asset)
	}
	if apiErr = p.checkHolding(tx, req.Source, req.Asset, custody.NewAPIErrSourceMintMismatch); apiErr != nil {
		return apiErr
	}
	if apiErr = p.checkVault(tx, req.Vault, req.Asset); apiErr != nil {
		return apiErr
	}
	forward, apiErr := p.checkForward(cfg, req.Forward)
	if apiErr != nil {
		return apiErr
	}
	authority, apiErr := p.authority(cfg)
	if apiErr != nil {
		return apiErr
	}

	apiErr = p.transfer(tx, ledger.TransferChecked{
		From:      req.Source,
		To:        req.Vault,
		Authority: req.Depositor,
		Mint:      req.Asset,
		Amount:    req.Amount,
	})
	if apiErr != nil {
		return apiErr
	}
	tx.Emit(p.id, EventDeposited, map[string]string{
		"depositor": req.Depositor.String(),
		"asset":     req.Asset.String(),
		"amount":    strconv.FormatUint(req.Amount, 10),
		"forward":   forward.Kind().String(),
	})

	switch f := forward.(type) {
	case custody.GenericForward:
		apiErr = p.forwardGeneric(tx, authority, req, f)
	case custody.RelayRebroadcast:
		apiErr = p.forwardRelay(tx, authority, req, f)
	}
	if apiErr != nil {
		return apiErr
	}
	p.WithFields(log.Fields{
		"depositor": req.Depositor,
		"asset":     req.Asset,
		"amount":    req.Amount,
		"forward":   forward.Kind(),
	}).Info("Deposited")
	return nil
}

// checkForward validates the forward step and returns it in normalized form: nil and an
// incomplete generic forward become NoForward, relay fees get their defaults.
func (p *Program) checkForward(cfg Config, forward custody.Forward) (custody.Forward, custody.APIError) {
	switch f := forward.(type) {
	case nil, custody.NoForward:
		return custody.NoForward{}, nil
	case custody.GenericForward:
		if f.Target.IsZero() || len(f.Payload) == 0 {
			return custody.NoForward{}, nil
		}
		if !cfg.IsForwardTarget(f.Target) {
			return nil, custody.NewAPIErrForwardTargetNotAllowed(f.Target)
		}
		return f, nil
	case custody.RelayRebroadcast:
		if p.relayID.IsZero() {
			return nil, custody.NewAPIErrInvalidArgument(errors.New("no relay program configured"),
				ArgForward, f.Kind().String(), "relay program configured")
		}
		if len(f.Options) > relay.MaxOptionsSize {
			return nil, custody.NewAPIErrInvalidArgument(errors.New("options too long"),
				ArgForward, strconv.Itoa(len(f.Options)), fmt.Sprintf("options of at most %d bytes", relay.MaxOptionsSize))
		}
		return f.WithDefaults(), nil
	default:
		return nil, custody.NewAPIErrInvalidArgument(errors.New("unknown forward"),
			ArgForward, fmt.Sprintf("%T", forward), "one of none, generic, relay")
	}
}

func (p *Program) forwardGeneric(tx *ledger.Tx, authority identity.Signer, req custody.DepositReq,
	f custody.GenericForward) custody.APIError {
	err := tx.Invoke(ledger.Call{
		Caller:         p.id,
		Program:        f.Target,
		Data:           f.Payload,
		Accounts:       f.ExtraAccounts,
		Authorizations: []identity.Authorization{authority.Authorize()},
	})
	if err != nil {
		return custody.NewAPIErrForwardFailed(err, f.Kind(), f.Target)
	}
	tx.Emit(p.id, EventDepositForwarded, map[string]string{
		"depositor": req.Depositor.String(),
		"target":    f.Target.String(),
	})
	return nil
}

func (p *Program) forwardRelay(tx *ledger.Tx, authority identity.Signer, req custody.DepositReq,
	f custody.RelayRebroadcast) custody.APIError {
	payload := relay.Encode(relay.NewDepositMessage(f.DstAsset, f.Merchant, req.Amount))
	data, err := relay.SendParams{
		DstChainID: f.DstChainID,
		Message:    payload,
		Options:    f.Options,
		NativeFee:  f.NativeFee,
		TokenFee:   f.MessageFee,
	}.MarshalBinary()
	if err != nil {
		return custody.NewAPIErrForwardFailed(err, f.Kind(), p.relayID)
	}
	accounts, err := relay.SendAccounts(p.relayID, authority.Identity(), f.DstChainID)
	if err != nil {
		return custody.NewAPIErrForwardFailed(err, f.Kind(), p.relayID)
	}
	err = tx.Invoke(ledger.Call{
		Caller:         p.id,
		Program:        p.relayID,
		Data:           data,
		Accounts:       accounts,
		Authorizations: []identity.Authorization{authority.Authorize()},
	})
	if err != nil {
		return custody.NewAPIErrForwardFailed(err, f.Kind(), p.relayID)
	}

	tx.Emit(p.id, EventDepositRelayed, map[string]string{
		"depositor":          req.Depositor.String(),
		"asset":              req.Asset.String(),
		"amount":             strconv.FormatUint(req.Amount, 10),
		"destinationChainId": strconv.FormatUint(uint64(f.DstChainID), 10),
		"destinationAsset":   hexutil.Encode(f.DstAsset[:]),
		"merchant":           hexutil.Encode(f.Merchant[:]),
	})
	return nil
}

// TransferOut moves the amount from custody to the recipient holding. The invoker must be the
// admin or the authorized caller, and custody must keep enough to back all liquidity positions.
func (p *Program) TransferOut(tx *ledger.Tx, req custody.TransferOutReq) custody.APIError {
	cfg, apiErr := p.loadConfig(tx)
	if apiErr != nil {
		return apiErr
	}
	isPermitted := req.Authority == cfg.Admin || req.Authority == cfg.AuthorizedCaller
	if !isPermitted || !tx.IsSigner(req.Authority) {
		return custody.NewAPIErrNotAuthorized(opTransferOut, req.Authority)
	}
	if !cfg.IsAllowedAsset(req.Asset) {
		return custody.NewAPIErrMintNotAllowed(req.Asset)
	}
	if apiErr = p.checkHolding(tx, req.Recipient, req.Asset, custody.NewAPIErrRecipientMintMismatch); apiErr != nil {
		return apiErr
	}
	if apiErr = p.checkVault(tx, req.Vault, req.Asset); apiErr != nil {
		return apiErr
	}
	authority, apiErr := p.authority(cfg)
	if apiErr != nil {
		return apiErr
	}

	claims, _, _, apiErr := p.loadClaims(tx, req.Asset)
	if apiErr != nil {
		return apiErr
	}
	vault, _ := tx.Holding(req.Vault)
	if vault.Amount < claims.Total || vault.Amount-claims.Total < req.Amount {
		return custody.NewAPIErrInsufficientBacking(req.Asset, vault.Amount, claims.Total, req.Amount)
	}

	apiErr = p.transfer(tx, ledger.TransferChecked{
		From:      req.Vault,
		To:        req.Recipient,
		Authority: authority.Identity(),
		Mint:      req.Asset,
		Amount:    req.Amount,
	}, authority.Authorize())
	if apiErr != nil {
		return apiErr
	}
	tx.Emit(p.id, EventTransferredOut, map[string]string{
		"authority": req.Authority.String(),
		"recipient": req.Recipient.String(),
		"asset":     req.Asset.String(),
		"amount":    strconv.FormatUint(req.Amount, 10),
	})
	p.WithFields(log.Fields{"authority": req.Authority, "asset": req.Asset, "amount": req.Amount}).Info("Transferred out")
	return nil
}

// LPDeposit moves the amount into custody and adds it to the liquidity position of the owner,
// creating the position on first use.
func (p *Program) LPDeposit(tx *ledger.Tx, req custody.LPDepositReq) (custody.PositionInfo, custody.APIError) {
	if !tx.IsSigner(req.Owner) {
		return custody.PositionInfo{}, custody.NewAPIErrNotAuthorized(opLPDeposit, req.Owner)
	}
	cfg, apiErr := p.loadConfig(tx)
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if !cfg.IsAllowedAsset(req.Asset) {
		return custody.PositionInfo{}, custody.NewAPIErrMintNotAllowed(req.Asset)
	}
	if apiErr = p.checkHolding(tx, req.Source, req.Asset, custody.NewAPIErrSourceMintMismatch); apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if apiErr = p.checkVault(tx, req.Vault, req.Asset); apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if _, apiErr = p.authority(cfg); apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}

	apiErr = p.transfer(tx, ledger.TransferChecked{
		From:      req.Source,
		To:        req.Vault,
		Authority: req.Owner,
		Mint:      req.Asset,
		Amount:    req.Amount,
	})
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}

	pos, posAddr, posExists, apiErr := p.loadPosition(tx, req.Owner, req.Asset)
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	claims, claimsAddr, claimsExists, apiErr := p.loadClaims(tx, req.Asset)
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	posAmount, overflow := math.SafeAdd(pos.Amount, req.Amount)
	if overflow {
		return custody.PositionInfo{}, custody.NewAPIErrAmountOverflow(pos.Amount, req.Amount)
	}
	claimsTotal, overflow := math.SafeAdd(claims.Total, req.Amount)
	if overflow {
		return custody.PositionInfo{}, custody.NewAPIErrAmountOverflow(claims.Total, req.Amount)
	}
	pos.Amount, claims.Total = posAmount, claimsTotal
	if apiErr = p.store(tx, posAddr, posExists, pos); apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if apiErr = p.store(tx, claimsAddr, claimsExists, claims); apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}

	tx.Emit(p.id, EventLPDeposited, map[string]string{
		"owner":    req.Owner.String(),
		"asset":    req.Asset.String(),
		"amount":   strconv.FormatUint(req.Amount, 10),
		"position": strconv.FormatUint(pos.Amount, 10),
	})
	p.WithFields(log.Fields{"owner": req.Owner, "asset": req.Asset, "amount": req.Amount}).Info("LP deposited")
	return positionInfo(posAddr, pos), nil
}

// LPWithdraw removes the amount from the liquidity position of the owner and pays it out of
// custody to the destination holding.
func (p *Program) LPWithdraw(tx *ledger.Tx, req custody.LPWithdrawReq) (custody.PositionInfo, custody.APIError) {
	if !tx.IsSigner(req.Owner) {
		return custody.PositionInfo{}, custody.NewAPIErrNotAuthorized(opLPWithdraw, req.Owner)
	}
	cfg, apiErr := p.loadConfig(tx)
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if !cfg.IsAllowedAsset(req.Asset) {
		return custody.PositionInfo{}, custody.NewAPIErrMintNotAllowed(req.Asset)
	}
	if apiErr = p.checkHolding(tx, req.Destination, req.Asset, custody.NewAPIErrRecipientMintMismatch); apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if apiErr = p.checkVault(tx, req.Vault, req.Asset); apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}

	pos, posAddr, posExists, apiErr := p.loadPosition(tx, req.Owner, req.Asset)
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if !posExists || pos.Amount < req.Amount {
		return custody.PositionInfo{}, custody.NewAPIErrInsufficientLiquidity(req.Owner, req.Asset, pos.Amount, req.Amount)
	}
	claims, claimsAddr, _, apiErr := p.loadClaims(tx, req.Asset)
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if claims.Total < req.Amount {
		return custody.PositionInfo{}, custody.NewAPIErrUnknownInternal(
			errors.Errorf("claims total %d is less than position %d", claims.Total, pos.Amount))
	}
	pos.Amount -= req.Amount
	claims.Total -= req.Amount
	if apiErr = p.store(tx, posAddr, true, pos); apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if apiErr = p.store(tx, claimsAddr, true, claims); apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}

	authority, apiErr := p.authority(cfg)
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	apiErr = p.transfer(tx, ledger.TransferChecked{
		From:      req.Vault,
		To:        req.Destination,
		Authority: authority.Identity(),
		Mint:      req.Asset,
		Amount:    req.Amount,
	}, authority.Authorize())
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}

	tx.Emit(p.id, EventLPWithdrawn, map[string]string{
		"owner":    req.Owner.String(),
		"asset":    req.Asset.String(),
		"amount":   strconv.FormatUint(req.Amount, 10),
		"position": strconv.FormatUint(pos.Amount, 10),
	})
	p.WithFields(log.Fields{"owner": req.Owner, "asset": req.Asset, "amount": req.Amount}).Info("LP withdrawn")
	return positionInfo(posAddr, pos), nil
}

// IsAllowedAsset reports whether the asset is in the allowed list of the configuration.
func (p *Program) IsAllowedAsset(r AccountReader, asset identity.Identity) (bool, custody.APIError) {
	cfg, apiErr := p.loadConfig(r)
	if apiErr != nil {
		return false, apiErr
	}
	return cfg.IsAllowedAsset(asset), nil
}

// ConfigInfo returns the configuration registry.
func (p *Program) ConfigInfo(r AccountReader) (custody.ConfigInfo, custody.APIError) {
	cfg, apiErr := p.loadConfig(r)
	if apiErr != nil {
		return custody.ConfigInfo{}, apiErr
	}
	return p.configInfo(cfg), nil
}

// Position returns the liquidity position of owner for asset.
func (p *Program) Position(r AccountReader, owner, asset identity.Identity) (custody.PositionInfo, custody.APIError) {
	pos, addr, exists, apiErr := p.loadPosition(r, owner, asset)
	if apiErr != nil {
		return custody.PositionInfo{}, apiErr
	}
	if !exists {
		return custody.PositionInfo{}, custody.NewAPIErrResourceNotFound(ResTypePosition, addr.String())
	}
	return positionInfo(addr, pos), nil
}

// Claims returns the total of all liquidity positions for asset.
func (p *Program) Claims(r AccountReader, asset identity.Identity) (custody.ClaimsInfo, custody.APIError) {
	claims, addr, _, apiErr := p.loadClaims(r, asset)
	if apiErr != nil {
		return custody.ClaimsInfo{}, apiErr
	}
	return custody.ClaimsInfo{Address: addr, Asset: asset, Total: claims.Total}, nil
}

func (p *Program) configInfo(cfg Config) custody.ConfigInfo {
	return custody.ConfigInfo{
		Address:          p.addrs.Config,
		Admin:            cfg.Admin,
		AuthorizedCaller: cfg.AuthorizedCaller,
		AllowedAssets:    append([]identity.Identity(nil), cfg.AllowedAssets...),
		ForwardTargets:   append([]identity.Identity(nil), cfg.ForwardTargets...),
		VaultAuthority:   p.addrs.VaultAuthority,
		VaultBump:        cfg.VaultBump,
	}
}

func positionInfo(addr identity.Identity, pos LiquidityPosition) custody.PositionInfo {
	return custody.PositionInfo{Address: addr, Owner: pos.Owner, Asset: pos.Asset, Amount: pos.Amount}
}

func (p *Program) loadConfig(r AccountReader) (Config, custody.APIError) {
	var cfg Config
	exists, err := p.load(r, p.addrs.Config, &cfg)
	if err != nil {
		return Config{}, custody.NewAPIErrUnknownInternal(err)
	}
	if !exists {
		return Config{}, custody.NewAPIErrResourceNotFound(ResTypeConfig, p.addrs.Config.String())
	}
	return cfg, nil
}

// loadPosition returns the position of owner for asset, or an empty position for them if it
// does not exist yet.
func (p *Program) loadPosition(r AccountReader, owner, asset identity.Identity) (
	LiquidityPosition, identity.Identity, bool, custody.APIError) {
	addr, _, err := PositionAddress(p.id, owner, asset)
	if err != nil {
		return LiquidityPosition{}, identity.Identity{}, false, custody.NewAPIErrUnknownInternal(err)
	}
	pos := LiquidityPosition{Owner: owner, Asset: asset}
	exists, err := p.load(r, addr, &pos)
	if err != nil {
		return LiquidityPosition{}, addr, false, custody.NewAPIErrUnknownInternal(err)
	}
	return pos, addr, exists, nil
}

// loadClaims returns the claims for asset, or zero claims if none exist yet.
func (p *Program) loadClaims(r AccountReader, asset identity.Identity) (
	AssetClaims, identity.Identity, bool, custody.APIError) {
	addr, _, err := ClaimsAddress(p.id, asset)
	if err != nil {
		return AssetClaims{}, identity.Identity{}, false, custody.NewAPIErrUnknownInternal(err)
	}
	claims := AssetClaims{Asset: asset}
	exists, err := p.load(r, addr, &claims)
	if err != nil {
		return AssetClaims{}, addr, false, custody.NewAPIErrUnknownInternal(err)
	}
	return claims, addr, exists, nil
}

func (p *Program) load(r AccountReader, addr identity.Identity, v encoding.BinaryUnmarshaler) (bool, error) {
	acc, ok := r.Account(addr)
	if !ok {
		return false, nil
	}
	if acc.Owner != p.id {
		return true, errors.WithMessage(ledger.ErrAccountOwner, addr.String())
	}
	return true, v.UnmarshalBinary(acc.Data)
}

func (p *Program) store(tx *ledger.Tx, addr identity.Identity, exists bool, v encoding.BinaryMarshaler) custody.APIError {
	data, err := v.MarshalBinary()
	if err != nil {
		return custody.NewAPIErrUnknownInternal(err)
	}
	if exists {
		err = tx.WriteAccount(p.id, addr, data)
	} else {
		err = tx.CreateAccount(p.id, addr, data)
	}
	if err != nil {
		return custody.NewAPIErrUnknownInternal(err)
	}
	return nil
}

// authority returns the vault signing authority. It fails if the stored bump does not
// reproduce the derivation.
func (p *Program) authority(cfg Config) (*identity.DerivedAuthority, custody.APIError) {
	authority, err := identity.NewDerivedAuthority(p.id, []byte(VaultSeed), p.addrs.Config, cfg.VaultBump)
	if err != nil {
		return nil, custody.NewAPIErrBumpNotFound(err, cfg.VaultBump)
	}
	return authority, nil
}

type mismatchErr func(holding, holdingMint, mint identity.Identity) custody.APIError

// checkHolding checks that the token account exists and holds the asset.
func (p *Program) checkHolding(tx *ledger.Tx, addr, asset identity.Identity, onMismatch mismatchErr) custody.APIError {
	h, ok := tx.Holding(addr)
	if !ok {
		return custody.NewAPIErrResourceNotFound(ResTypeHolding, addr.String())
	}
	if h.Mint != asset {
		return onMismatch(addr, h.Mint, asset)
	}
	return nil
}

// checkVault checks that the token account holds the asset and is controlled by the vault
// authority.
func (p *Program) checkVault(tx *ledger.Tx, addr, asset identity.Identity) custody.APIError {
	if apiErr := p.checkHolding(tx, addr, asset, custody.NewAPIErrVaultMintMismatch); apiErr != nil {
		return apiErr
	}
	if h, _ := tx.Holding(addr); h.Owner != p.addrs.VaultAuthority {
		return custody.NewAPIErrVaultOwnerMismatch(addr, h.Owner, p.addrs.VaultAuthority)
	}
	return nil
}

// transfer performs a checked transfer with the decimals of the mint.
func (p *Program) transfer(tx *ledger.Tx, t ledger.TransferChecked, auths ...identity.Authorization) custody.APIError {
	m, ok := tx.Mint(t.Mint)
	if !ok {
		return custody.NewAPIErrResourceNotFound(ResTypeMint, t.Mint.String())
	}
	t.Decimals = m.Decimals
	if err := tx.TransferChecked(p.id, t, auths...); err != nil {
		return custody.NewAPIErrTransferFailed(err, t.From, t.To, t.Amount)
	}
	return nil
}

func duplicate(ids []identity.Identity) (identity.Identity, bool) {
	seen := make(map[identity.Identity]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return id, true
		}
		seen[id] = true
	}
	return identity.Identity{}, false
}

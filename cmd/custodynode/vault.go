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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hyperledger-labs/custody-node"
	"github.com/hyperledger-labs/custody-node/config"
	"github.com/hyperledger-labs/custody-node/identity"
	"github.com/hyperledger-labs/custody-node/ledger"
)

const (
	// flag names for vault commands.
	adminF         = "admin"
	callerF        = "caller"
	assetsF        = "assets"
	targetsF       = "targets"
	depositorF     = "depositor"
	authorityF     = "authority"
	ownerF         = "owner"
	sourceF        = "source"
	recipientF     = "recipient"
	vaultF         = "vault"
	assetF         = "asset"
	amountF        = "amount"
	forwardTarget  = "forward-target"
	payloadF       = "payload"
	extraAccountsF = "extra-accounts"
	dstChainF      = "dst-chain"
	dstAssetF      = "dst-asset"
	merchantF      = "merchant"
	optionsF       = "options"
	nativeFeeF     = "native-fee"
	tokenFeeF      = "token-fee"
)

var (
	initializeCmd = &cobra.Command{
		Use:   "initialize",
		Short: "Create the vault configuration",
		Long: `Create the vault configuration with the admin, the authorized caller and the list of
allowed assets (one to three symbols or mints). Succeeds only once.`,
		Run: initializeFn,
	}

	setAuthorizedCallerCmd = &cobra.Command{
		Use:   "set-authorized-caller",
		Short: "Rotate the authorized caller, signed by the admin",
		Run:   setAuthorizedCallerFn,
	}

	setForwardTargetsCmd = &cobra.Command{
		Use:   "set-forward-targets",
		Short: "Replace the programs deposits may be forwarded to, signed by the admin",
		Run:   setForwardTargetsFn,
	}

	depositCmd = &cobra.Command{
		Use:   "deposit",
		Short: "Deposit tokens into the vault",
		Long: `Deposit tokens from the source token account of the depositor into the vault token
account.

Optionally, the deposit is forwarded to an allowed program (--forward-target and
--payload) or relayed to another chain (--dst-chain, --dst-asset and --merchant).`,
		Run: depositFn,
	}

	transferOutCmd = &cobra.Command{
		Use:   "transfer-out",
		Short: "Transfer tokens out of the vault, signed by the admin or the authorized caller",
		Run:   transferOutFn,
	}

	lpDepositCmd = &cobra.Command{
		Use:   "lp-deposit",
		Short: "Add liquidity to the position of the owner",
		Run:   lpDepositFn,
	}

	lpWithdrawCmd = &cobra.Command{
		Use:   "lp-withdraw",
		Short: "Withdraw liquidity from the position of the owner",
		Run:   lpWithdrawFn,
	}
)

func init() {
	rootCmd.AddCommand(initializeCmd, setAuthorizedCallerCmd, setForwardTargetsCmd,
		depositCmd, transferOutCmd, lpDepositCmd, lpWithdrawCmd)

	initializeCmd.Flags().String(adminF, "", "Identity of the admin, base58")
	initializeCmd.Flags().String(callerF, "", "Identity of the authorized caller, base58")
	initializeCmd.Flags().StringSlice(assetsF, nil, "Allowed assets, as symbols or mints")
	markRequired(initializeCmd, adminF, callerF, assetsF)

	setAuthorizedCallerCmd.Flags().String(adminF, "", "Identity of the admin, base58")
	setAuthorizedCallerCmd.Flags().String(callerF, "", "Identity of the new authorized caller, base58")
	markRequired(setAuthorizedCallerCmd, adminF, callerF)

	setForwardTargetsCmd.Flags().String(adminF, "", "Identity of the admin, base58")
	setForwardTargetsCmd.Flags().StringSlice(targetsF, nil, "Identities of the target programs, base58")
	markRequired(setForwardTargetsCmd, adminF)

	depositCmd.Flags().String(depositorF, "", "Identity of the depositor, base58")
	depositCmd.Flags().String(sourceF, "", "Token account of the depositor, base58")
	defineTransferFlags(depositCmd)
	depositCmd.Flags().String(forwardTarget, "", "Program to forward the deposit to, base58")
	depositCmd.Flags().BytesHex(payloadF, nil, "Instruction data for the forward target, hex")
	depositCmd.Flags().StringSlice(extraAccountsF, nil, "Writable accounts passed to the forward target, base58")
	depositCmd.Flags().Uint32(dstChainF, 0, "Destination chain id for the relay")
	depositCmd.Flags().String(dstAssetF, "", "Asset on the destination chain, hex of up to 32 bytes")
	depositCmd.Flags().String(merchantF, "", "Merchant on the destination chain, hex of up to 32 bytes")
	depositCmd.Flags().BytesHex(optionsF, nil, "Relay options, hex")
	depositCmd.Flags().Uint64(nativeFeeF, 0, fmt.Sprintf("Relay native fee, default %d", custody.DefaultRelayNativeFee))
	depositCmd.Flags().Uint64(tokenFeeF, 0, "Relay token fee")
	markRequired(depositCmd, depositorF, sourceF)

	transferOutCmd.Flags().String(authorityF, "", "Identity of the admin or the authorized caller, base58")
	transferOutCmd.Flags().String(recipientF, "", "Token account of the recipient, base58")
	defineTransferFlags(transferOutCmd)
	markRequired(transferOutCmd, authorityF, recipientF)

	lpDepositCmd.Flags().String(ownerF, "", "Identity of the liquidity provider, base58")
	lpDepositCmd.Flags().String(sourceF, "", "Token account of the liquidity provider, base58")
	defineTransferFlags(lpDepositCmd)
	markRequired(lpDepositCmd, ownerF, sourceF)

	lpWithdrawCmd.Flags().String(ownerF, "", "Identity of the liquidity provider, base58")
	lpWithdrawCmd.Flags().String(recipientF, "", "Token account to pay out to, base58")
	defineTransferFlags(lpWithdrawCmd)
	markRequired(lpWithdrawCmd, ownerF, recipientF)
}

// defineTransferFlags defines the vault, asset and amount flags common to all transfers.
func defineTransferFlags(cmd *cobra.Command) {
	cmd.Flags().String(vaultF, "", "Vault token account of the asset, base58")
	cmd.Flags().String(assetF, "", "Asset, as symbol or mint")
	cmd.Flags().String(amountF, "", "Amount as a decimal string, such as 1.5")
	markRequired(cmd, vaultF, assetF, amountF)
}

// transferArgs are the values of the flags defined by defineTransferFlags.
type transferArgs struct {
	vault  identity.Identity
	asset  identity.Identity
	amount uint64
	print  func(uint64) string
}

func lookupTransferFlags(cmd *cobra.Command) transferArgs {
	var args transferArgs
	var assetStr, amountStr string
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: vaultF, Ptr: &args.vault},
		config.FlagInfo{Name: assetF, Ptr: &assetStr},
		config.FlagInfo{Name: amountF, Ptr: &amountStr},
	)
	asset, amount := parseAmount(nodeAPI(cmd), assetStr, amountStr)
	args.asset, args.amount, args.print = asset.Mint, amount, asset.Print
	return args
}

func initializeFn(cmd *cobra.Command, _ []string) {
	n := nodeAPI(cmd)
	var req custody.InitializeReq
	var assets []string
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: adminF, Ptr: &req.Admin},
		config.FlagInfo{Name: callerF, Ptr: &req.AuthorizedCaller},
		config.FlagInfo{Name: assetsF, Ptr: &assets},
	)
	for _, a := range assets {
		asset, err := n.Assets().Resolve(a)
		exitOnError(err, "Error resolving asset")
		req.AllowedAssets = append(req.AllowedAssets, asset.Mint)
	}

	info, apiErr := n.Initialize(req)
	exitOnAPIError(apiErr, "initialize")
	fmt.Printf("%s\n%s\n", greenf("Vault initialized."), prettify(info))
}

func setAuthorizedCallerFn(cmd *cobra.Command, _ []string) {
	var req custody.SetAuthorizedCallerReq
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: adminF, Ptr: &req.Admin},
		config.FlagInfo{Name: callerF, Ptr: &req.NewCaller},
	)
	exitOnAPIError(nodeAPI(cmd).SetAuthorizedCaller(req), "set authorized caller")
	fmt.Println(greenf("Authorized caller set to %s.", req.NewCaller))
}

func setForwardTargetsFn(cmd *cobra.Command, _ []string) {
	var req custody.SetForwardTargetsReq
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: adminF, Ptr: &req.Admin},
		config.FlagInfo{Name: targetsF, Ptr: &req.Targets},
	)
	exitOnAPIError(nodeAPI(cmd).SetForwardTargets(req), "set forward targets")
	fmt.Println(greenf("Forward targets set to %v.", req.Targets))
}

func depositFn(cmd *cobra.Command, _ []string) {
	req := custody.DepositReq{}
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: depositorF, Ptr: &req.Depositor},
		config.FlagInfo{Name: sourceF, Ptr: &req.Source},
	)
	args := lookupTransferFlags(cmd)
	req.Vault, req.Asset, req.Amount = args.vault, args.asset, args.amount
	req.Forward = lookupForward(cmd)

	exitOnAPIError(nodeAPI(cmd).Deposit(req), "deposit")
	fmt.Println(greenf("Deposited %s (%s forward).", args.print(req.Amount), req.Forward.Kind()))
}

// lookupForward returns the forward step selected by the flags. Generic forward and relay flags
// cannot be combined.
func lookupForward(cmd *cobra.Command) custody.Forward {
	fs := cmd.Flags()
	var generic custody.GenericForward
	var extra []identity.Identity
	targets := []config.FlagInfo{
		{Name: forwardTarget, Ptr: &generic.Target},
		{Name: payloadF, Ptr: &generic.Payload},
		{Name: extraAccountsF, Ptr: &extra},
	}
	lookupFlags(fs, targets...)
	isGeneric := targets[0].Changed || targets[1].Changed

	var rebroadcast custody.RelayRebroadcast
	relayTargets := []config.FlagInfo{
		{Name: dstChainF, Ptr: &rebroadcast.DstChainID},
		{Name: dstAssetF, Ptr: &rebroadcast.DstAsset},
		{Name: merchantF, Ptr: &rebroadcast.Merchant},
		{Name: optionsF, Ptr: &rebroadcast.Options},
		{Name: nativeFeeF, Ptr: &rebroadcast.NativeFee},
		{Name: tokenFeeF, Ptr: &rebroadcast.MessageFee},
	}
	lookupFlags(fs, relayTargets...)
	isRelay := relayTargets[0].Changed

	switch {
	case isGeneric && isRelay:
		exitOnError(errors.Errorf("--%s and --%s cannot be combined", forwardTarget, dstChainF), "Error parsing flags")
	case isGeneric:
		for _, acc := range extra {
			generic.ExtraAccounts = append(generic.ExtraAccounts, ledger.AccountMeta{Address: acc, IsWritable: true})
		}
		return generic
	case isRelay:
		return rebroadcast
	}
	return custody.NoForward{}
}

func transferOutFn(cmd *cobra.Command, _ []string) {
	var req custody.TransferOutReq
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: authorityF, Ptr: &req.Authority},
		config.FlagInfo{Name: recipientF, Ptr: &req.Recipient},
	)
	args := lookupTransferFlags(cmd)
	req.Vault, req.Asset, req.Amount = args.vault, args.asset, args.amount

	exitOnAPIError(nodeAPI(cmd).TransferOut(req), "transfer out")
	fmt.Println(greenf("Transferred %s out to %s.", args.print(req.Amount), req.Recipient))
}

func lpDepositFn(cmd *cobra.Command, _ []string) {
	var req custody.LPDepositReq
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: ownerF, Ptr: &req.Owner},
		config.FlagInfo{Name: sourceF, Ptr: &req.Source},
	)
	args := lookupTransferFlags(cmd)
	req.Vault, req.Asset, req.Amount = args.vault, args.asset, args.amount

	pos, apiErr := nodeAPI(cmd).LPDeposit(req)
	exitOnAPIError(apiErr, "lp deposit")
	fmt.Println(greenf("Position of %s is %s.", pos.Owner, args.print(pos.Amount)))
}

func lpWithdrawFn(cmd *cobra.Command, _ []string) {
	var req custody.LPWithdrawReq
	lookupFlags(cmd.Flags(),
		config.FlagInfo{Name: ownerF, Ptr: &req.Owner},
		config.FlagInfo{Name: recipientF, Ptr: &req.Destination},
	)
	args := lookupTransferFlags(cmd)
	req.Vault, req.Asset, req.Amount = args.vault, args.asset, args.amount

	pos, apiErr := nodeAPI(cmd).LPWithdraw(req)
	exitOnAPIError(apiErr, "lp withdraw")
	fmt.Println(greenf("Position of %s is %s.", pos.Owner, args.print(pos.Amount)))
}

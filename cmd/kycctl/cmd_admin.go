package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/vitwit/kycsbt/clients"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
)

// adminCmd groups the owner-only registry operations.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Registry owner operations",
	Long: `Reads and changes registry parameters. Every write reverts unless the
configured wallet owns the registry contract.`,
}

var adminConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the registry parameters and owner",
	Args:  cobra.NoArgs,
	RunE:  showContractConfig,
}

var setRegistrationFeeCmd = &cobra.Command{
	Use:   "set-registration-fee <amount>",
	Short: "Set the registration fee, in HSK",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fee, err := parseHSK(args[0])
		if err != nil {
			return err
		}
		return ownerWrite(cmd, func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error) {
			return c.SetRegistrationFee(ctx, fee)
		})
	},
}

var setEnsFeeCmd = &cobra.Command{
	Use:   "set-ens-fee <amount>",
	Short: "Set the ENS fee, in HSK",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fee, err := parseHSK(args[0])
		if err != nil {
			return err
		}
		return ownerWrite(cmd, func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error) {
			return c.SetEnsFee(ctx, fee)
		})
	},
}

var setMinNameLengthCmd = &cobra.Command{
	Use:   "set-min-name-length <n>",
	Short: "Set the minimum ENS name length",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := utils.ValidateBigInt(args[0])
		if err != nil {
			return types.NewError(types.ErrInvalidInput, err.Error())
		}
		return ownerWrite(cmd, func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error) {
			return c.SetMinNameLength(ctx, n)
		})
	},
}

var setSuffixCmd = &cobra.Command{
	Use:   "set-suffix <suffix>",
	Short: "Set the suffix the registry appends to names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ownerWrite(cmd, func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error) {
			return c.SetSuffix(ctx, args[0])
		})
	},
}

var setENSResolverCmd = &cobra.Command{
	Use:   "set-ens-resolver <ens> <resolver>",
	Short: "Point the registry at an ENS registry and resolver",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ens, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		resolver, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		return ownerWrite(cmd, func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error) {
			return c.SetENSAndResolver(ctx, ens, resolver)
		})
	},
}

var approveEnsCmd = &cobra.Command{
	Use:   "approve-ens <address> <name>",
	Short: "Approve an ENS name for an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		return ownerWrite(cmd, func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error) {
			return c.ApproveEnsName(ctx, user, args[1])
		})
	},
}

var isEnsApprovedCmd = &cobra.Command{
	Use:   "is-ens-approved <address> <name>",
	Short: "Check whether an ENS name is approved for an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		k, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		c, err := k.Client()
		if err != nil {
			return err
		}
		approved, err := c.IsEnsNameApproved(ctx, user, args[1])
		if err != nil {
			return err
		}
		return printResult(cmd, map[string]bool{"approved": approved}, func() string {
			return fmt.Sprintf("%s approved for %s: %t", args[1], user.Hex(), approved)
		})
	},
}

var approveKycCmd = &cobra.Command{
	Use:   "approve-kyc <address> <level>",
	Short: "Approve KYC for an address at a level",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		level, ok := types.ParseLevel(args[1])
		if !ok || !level.Requestable() {
			return types.NewError(types.ErrInvalidInput, "invalid level: "+args[1])
		}
		return ownerWrite(cmd, func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error) {
			return c.ApproveKyc(ctx, user, level)
		})
	},
}

var withdrawFeesCmd = &cobra.Command{
	Use:   "withdraw-fees",
	Short: "Withdraw collected fees to the owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ownerWrite(cmd, func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error) {
			return c.WithdrawFees(ctx)
		})
	},
}

var transferOwnershipCmd = &cobra.Command{
	Use:   "transfer-ownership <address>",
	Short: "Transfer registry ownership",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		newOwner, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		return ownerWrite(cmd, func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error) {
			return c.TransferOwnership(ctx, newOwner)
		})
	},
}

func init() {
	adminCmd.AddCommand(
		adminConfigCmd,
		setRegistrationFeeCmd,
		setEnsFeeCmd,
		setMinNameLengthCmd,
		setSuffixCmd,
		setENSResolverCmd,
		approveEnsCmd,
		isEnsApprovedCmd,
		approveKycCmd,
		withdrawFeesCmd,
		transferOwnershipCmd,
	)
}

type contractConfigOutput struct {
	Owner  common.Address       `json:"owner"`
	Config types.ContractConfig `json:"config"`
}

func showContractConfig(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	k, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	c, err := k.Client()
	if err != nil {
		return err
	}
	cc, err := c.ContractConfig(ctx)
	if err != nil {
		return err
	}
	owner, err := c.Owner(ctx)
	if err != nil {
		return err
	}

	out := contractConfigOutput{Owner: owner, Config: cc}
	return printResult(cmd, out, func() string {
		return fmt.Sprintf("Owner:            %s\nRegistration fee: %s HSK\nENS fee:          %s HSK\nMin name length:  %s\nSuffix:           %s\nValidity period:  %ss",
			owner.Hex(), utils.FormatWei(cc.RegistrationFee), utils.FormatWei(cc.EnsFee), cc.MinNameLength, cc.Suffix, cc.ValidityPeriod)
	})
}

// ownerWrite submits one owner transaction and waits for its receipt.
func ownerWrite(cmd *cobra.Command, submit func(ctx context.Context, c *clients.KycSBTClient) (clients.PendingTx, error)) error {
	ctx := cmd.Context()
	k, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	c, err := k.Client()
	if err != nil {
		return err
	}
	tx, err := submit(ctx, c)
	if err != nil {
		return err
	}
	log.Info("owner transaction submitted", map[string]any{"command": cmd.Name(), "txHash": tx.Hash().Hex()})

	receipt, err := tx.Wait(ctx)
	if err != nil {
		return err
	}
	out := map[string]any{"txHash": receipt.TxHash.Hex(), "block": receipt.BlockNumber}
	return printResult(cmd, out, func() string {
		return fmt.Sprintf("Confirmed %s in block %v", receipt.TxHash.Hex(), receipt.BlockNumber)
	})
}

func parseHSK(amount string) (*big.Int, error) {
	wei, err := utils.ParseAmount(amount, utils.NativeDecimals)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidInput, err.Error())
	}
	return wei, nil
}

func parseAddress(s string) (common.Address, error) {
	addr, err := utils.ValidateAddress(s)
	if err != nil {
		return common.Address{}, types.NewError(types.ErrInvalidInput, err.Error())
	}
	return addr, nil
}

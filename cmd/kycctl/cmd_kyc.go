package main

import (
	"encoding/json"
	"fmt"
	"strings"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"github.com/vitwit/kycsbt/reconciler"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
)

var (
	requestLevel string
	minLevel     string
)

var statusCmd = &cobra.Command{
	Use:   "status [address]",
	Short: "Show KYC status of the wallet, or of any address",
	Args:  cobra.MaximumNArgs(1),
	RunE:  showStatus,
}

var requestCmd = &cobra.Command{
	Use:   "request <name>",
	Short: "Request KYC, registering <name> plus the registry suffix",
	Long: `Requests KYC for the configured wallet. The registry suffix (".hsk" by
default) is appended to <name>, and the registration plus ENS fee quoted
by the registry is paid with the transaction.

Example:
  kycctl request alice --level advanced`,
	Args: cobra.ExactArgs(1),
	RunE: requestKyc,
}

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke the wallet's active KYC",
	Args:  cobra.NoArgs,
	RunE:  revokeKyc,
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the wallet's revoked KYC",
	Args:  cobra.NoArgs,
	RunE:  restoreKyc,
}

var humanCmd = &cobra.Command{
	Use:   "human <address>",
	Short: "Check whether an address holds valid KYC",
	Args:  cobra.ExactArgs(1),
	RunE:  checkHuman,
}

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Show the total fee charged for a KYC request",
	Args:  cobra.NoArgs,
	RunE:  showFee,
}

func init() {
	requestCmd.Flags().StringVarP(&requestLevel, "level", "l", "basic", "KYC level: basic, advanced, premium or ultimate")
	humanCmd.Flags().StringVar(&minLevel, "min-level", "basic", "lowest level that counts as valid")
}

func showStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	k, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	if len(args) == 1 {
		addr, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		client, err := k.Client()
		if err != nil {
			return err
		}
		rec, err := client.GetKycInfo(ctx, addr)
		if err != nil {
			return err
		}
		return printResult(cmd, rec, func() string {
			return renderRecord(addr.Hex(), k.Current(), rec)
		})
	}

	if err := k.Sync(ctx); err != nil {
		return err
	}
	view := k.Reconciler().View()
	balance := k.Balance().Formatted()
	return printResult(cmd, view, func() string {
		return renderView(view, balance)
	})
}

func requestKyc(cmd *cobra.Command, args []string) error {
	level, ok := types.ParseLevel(requestLevel)
	if !ok {
		return types.NewError(types.ErrInvalidInput, "unknown level: "+requestLevel)
	}

	ctx := cmd.Context()
	k, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	receipt, err := k.Request(ctx, args[0], level)
	if err != nil {
		return err
	}
	return printWrite(cmd, receipt, k.Reconciler().View())
}

func revokeKyc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	k, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	receipt, err := k.Revoke(ctx)
	if err != nil {
		return err
	}
	return printWrite(cmd, receipt, k.Reconciler().View())
}

func restoreKyc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	k, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	receipt, err := k.Restore(ctx)
	if err != nil {
		return err
	}
	return printWrite(cmd, receipt, k.Reconciler().View())
}

func checkHuman(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	level, ok := types.ParseLevel(minLevel)
	if !ok {
		return types.NewError(types.ErrInvalidInput, "unknown level: "+minLevel)
	}

	ctx := cmd.Context()
	k, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	res, err := k.Verify(ctx, addr, level)
	if err != nil {
		return err
	}
	return printResult(cmd, res, func() string {
		if res.IsValid {
			return fmt.Sprintf("%s is a verified human (%s)", addr.Hex(), res.LevelText)
		}
		return fmt.Sprintf("%s is not verified: %s", addr.Hex(), res.InvalidReason)
	})
}

func showFee(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	k, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	client, err := k.Client()
	if err != nil {
		return err
	}
	fee, err := client.GetTotalFee(ctx)
	if err != nil {
		return err
	}
	out := map[string]string{"wei": fee.String(), "formatted": utils.FormatWei(fee)}
	return printResult(cmd, out, func() string {
		return fmt.Sprintf("Total fee: %s HSK (%s wei)", out["formatted"], out["wei"])
	})
}

func printWrite(cmd *cobra.Command, receipt *gethtypes.Receipt, view reconciler.View) error {
	out := map[string]any{
		"txHash": receipt.TxHash.Hex(),
		"block":  receipt.BlockNumber,
		"view":   view,
	}
	return printResult(cmd, out, func() string {
		return fmt.Sprintf("Confirmed %s in block %v\n%s", receipt.TxHash.Hex(), receipt.BlockNumber, renderView(view, ""))
	})
}

// printResult writes v as indented JSON with --json, otherwise text().
func printResult(cmd *cobra.Command, v any, text func() string) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text())
	return err
}

func renderView(v reconciler.View, balance string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Network:  %s\n", v.Network.Name())
	if !v.Connected {
		b.WriteString("Wallet:   not connected")
		return b.String()
	}
	fmt.Fprintf(&b, "Wallet:   %s\n", v.Identity.Hex())
	if balance != "" {
		fmt.Fprintf(&b, "Balance:  %s HSK\n", balance)
	}
	fmt.Fprintf(&b, "Phase:    %s\n", v.PhaseText)
	if v.Record != nil && v.Record.Registered() {
		fmt.Fprintf(&b, "ENS name: %s\n", v.Record.EnsName)
		fmt.Fprintf(&b, "Level:    %s\n", v.LevelText)
		fmt.Fprintf(&b, "Status:   %s\n", v.StatusText)
		fmt.Fprintf(&b, "Created:  %s\n", v.CreatedText)
	}
	if v.Action != types.ActionNone {
		fmt.Fprintf(&b, "Next:     %s\n", v.ActionText)
	}
	if url := v.ExplorerAddressURL(); url != "" {
		fmt.Fprintf(&b, "Explorer: %s\n", url)
	}
	if v.LastError != "" {
		fmt.Fprintf(&b, "Error:    %s\n", v.LastError)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderRecord(addr string, network types.NetworkConfig, rec types.KycRecord) string {
	if !rec.Registered() {
		return fmt.Sprintf("%s has no KYC on %s", addr, network.Name())
	}
	return fmt.Sprintf("%s on %s\nENS name: %s\nLevel:    %s\nStatus:   %s\nCreated:  %s",
		addr, network.Name(), rec.EnsName, rec.Level, rec.Status, rec.CreatedText())
}

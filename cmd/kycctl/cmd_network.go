package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show or switch the selected network",
}

var networkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the selected network",
	Args:  cobra.NoArgs,
	RunE:  showNetwork,
}

var networkSelectCmd = &cobra.Command{
	Use:   "select <chain>",
	Short: "Select a network by chain id",
	Long: `Selects and persists the network. <chain> is a chain identifier such as
"eip155:177", or a bare chain id which is read as eip155. Use "testnet"
to go back to the testnet defaults.

Examples:
  kycctl network select 177
  kycctl network select testnet`,
	Args: cobra.ExactArgs(1),
	RunE: selectNetwork,
}

func init() {
	networkCmd.AddCommand(networkShowCmd, networkSelectCmd)
}

func showNetwork(cmd *cobra.Command, args []string) error {
	k, err := openClient(cmd.Context())
	if err != nil {
		return err
	}
	defer k.Close()

	cur := k.Current()
	return printResult(cmd, cur, func() string { return renderNetwork(cur) })
}

func selectNetwork(cmd *cobra.Command, args []string) error {
	var id *string
	if args[0] != "testnet" {
		normalized, err := utils.NormalizeChainIdentifier(args[0])
		if err != nil {
			return types.NewError(types.ErrInvalidInput, err.Error())
		}
		id = &normalized
	}

	ctx := cmd.Context()
	k, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer k.Close()

	cfg, err := k.Select(ctx, id)
	if err != nil {
		return err
	}
	return printResult(cmd, cfg, func() string { return renderNetwork(cfg) })
}

func renderNetwork(cfg types.NetworkConfig) string {
	chain := "(default)"
	if cfg.ChainID != nil {
		chain = *cfg.ChainID
	}
	return fmt.Sprintf("Network:  %s\nChain:    %s\nContract: %s\nRPC:      %s\nExplorer: %s",
		cfg.Name(), chain, cfg.ContractAddress, cfg.RPCURL, cfg.ExplorerURL)
}

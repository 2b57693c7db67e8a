package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hxucaa/cardano-sl/chain"
	"github.com/Hxucaa/cardano-sl/db"
	"github.com/Hxucaa/cardano-sl/wallet"
)

var (
	statusChainDir  string
	statusWalletDir string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the chain tip and each wallet's sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusChainDir, "chain-dir", "./data/chain", "Directory for the chain db")
	statusCmd.Flags().StringVar(&statusWalletDir, "wallet-dir", "./data/wallet", "Directory for the wallet db")
}

func printStatus() error {
	chainProvider, err := db.NewLevelDBProvider(statusChainDir)
	if err != nil {
		return err
	}
	defer chainProvider.Close()

	gstate, err := chain.NewGState(chainProvider)
	if err != nil {
		return err
	}
	tip, err := gstate.GetTip()
	if err != nil {
		return err
	}
	fmt.Printf("chain tip: %s\n", tip)

	if slot, err := gstate.CurrentSlot(); err == nil {
		fmt.Printf("current slot: %s\n", slot)
	}

	walletProvider, err := db.NewLevelDBProvider(statusWalletDir)
	if err != nil {
		return err
	}
	iterable, ok := walletProvider.(db.IterableProvider)
	if !ok {
		return fmt.Errorf("wallet db provider does not support iteration")
	}
	walletStore, err := wallet.NewGenericStore(iterable)
	if err != nil {
		return err
	}
	defer walletStore.MustClose()

	ids, err := walletStore.WalletIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		meta, err := walletStore.Get(id)
		if err != nil {
			return err
		}
		fmt.Printf("wallet %s: %s, %d addresses, %d utxo, %d history entries\n",
			id, meta.SyncTip, len(meta.Addresses), len(meta.Utxo), len(meta.History))
	}
	return nil
}

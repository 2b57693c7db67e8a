package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hxucaa/cardano-sl/block"
	"github.com/Hxucaa/cardano-sl/chain"
	"github.com/Hxucaa/cardano-sl/config"
	"github.com/Hxucaa/cardano-sl/db"
	"github.com/Hxucaa/cardano-sl/logx"
	"github.com/Hxucaa/cardano-sl/wallet"
)

var (
	initGenesisPath string
	initChainDir    string
	initWalletDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize chain state and wallet records from genesis configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return initializeNode()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initGenesisPath, "genesis", "config/genesis.yml", "Path to genesis configuration file")
	initCmd.Flags().StringVar(&initChainDir, "chain-dir", "./data/chain", "Directory for the chain db")
	initCmd.Flags().StringVar(&initWalletDir, "wallet-dir", "./data/wallet", "Directory for the wallet db")
}

func initializeNode() error {
	genesisCfg, err := config.LoadGenesisConfig(initGenesisPath)
	if err != nil {
		return err
	}

	chainProvider, err := db.NewLevelDBProvider(initChainDir)
	if err != nil {
		return err
	}
	defer chainProvider.Close()

	gstate, err := chain.NewGState(chainProvider)
	if err != nil {
		return err
	}
	if err := gstate.SetSlottingData(genesisCfg.SlottingData()); err != nil {
		return err
	}

	genesisBlock := block.AssembleGenesisBlock(0, block.HeaderHash{}, 0)
	if err := gstate.SetTip(genesisBlock.Header.Hash); err != nil {
		return err
	}

	walletProvider, err := db.NewLevelDBProvider(initWalletDir)
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

	metas := make([]*wallet.Meta, 0, len(genesisCfg.Wallets))
	for _, w := range genesisCfg.Wallets {
		addrs := make([]block.Address, 0, len(w.Addresses))
		for _, a := range w.Addresses {
			addrs = append(addrs, block.Address(a))
		}
		metas = append(metas, &wallet.Meta{
			ID:        wallet.WalletID(w.ID),
			Addresses: addrs,
		})
	}
	if err := walletStore.RestoreGenesis(metas); err != nil {
		return err
	}

	logx.Info("CMD", fmt.Sprintf("Initialized chain at genesis tip %s with %d wallets",
		genesisBlock.Header.Hash.Short(), len(metas)))
	return nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/Hxucaa/cardano-sl/chain"
	"github.com/Hxucaa/cardano-sl/logx"
)

// LoadGenesisConfig reads and parses the genesis.yml file
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open genesis config: %w", err)
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("could not decode genesis config: %w", err)
	}
	if cfgFile.Genesis.SlotDurationMs <= 0 {
		return nil, fmt.Errorf("genesis config: slot_duration_ms must be positive")
	}
	if cfgFile.Genesis.EpochSlots == 0 {
		return nil, fmt.Errorf("genesis config: epoch_slots must be positive")
	}

	logx.Info("CONFIG", fmt.Sprintf("Loaded genesis config: system_start=%d, slot_duration=%dms, epoch_slots=%d, wallets=%d",
		cfgFile.Genesis.SystemStart, cfgFile.Genesis.SlotDurationMs, cfgFile.Genesis.EpochSlots, len(cfgFile.Genesis.Wallets)))
	return &cfgFile.Genesis, nil
}

// SlottingData converts the genesis parameters into the chain's slot timing
func (c *GenesisConfig) SlottingData() chain.SlottingData {
	return chain.SlottingData{
		SystemStart:  time.Unix(c.SystemStart, 0).UTC(),
		SlotDuration: time.Duration(c.SlotDurationMs) * time.Millisecond,
		EpochSlots:   c.EpochSlots,
	}
}

// WalletConfig holds wallet subsystem settings
type WalletConfig struct {
	DBPath        string `ini:"db_path"`
	KeystoreDSN   string `ini:"keystore_dsn"`
	MasterKeyB64  string `ini:"master_key"`
	FlushInterval int    `ini:"flush_interval_ms"`
}

// ChainConfig holds chain db settings
type ChainConfig struct {
	DBPath string `ini:"db_path"`
}

// LoadWalletConfig reads the wallet section from the node .ini file
func LoadWalletConfig(path string) (*WalletConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load node config: %w", err)
	}
	walletCfg := &WalletConfig{}
	if err := cfg.Section("wallet").MapTo(walletCfg); err != nil {
		return nil, fmt.Errorf("could not map wallet config: %w", err)
	}
	return walletCfg, nil
}

// LoadChainConfig reads the chain section from the node .ini file
func LoadChainConfig(path string) (*ChainConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load node config: %w", err)
	}
	chainCfg := &ChainConfig{}
	if err := cfg.Section("chain").MapTo(chainCfg); err != nil {
		return nil, fmt.Errorf("could not map chain config: %w", err)
	}
	return chainCfg, nil
}

package config

// ConfigFile is the top-level shape of genesis.yml
type ConfigFile struct {
	Genesis GenesisConfig `yaml:"genesis"`
}

// GenesisConfig holds the chain parameters and initial wallets
type GenesisConfig struct {
	// SystemStart is the chain's wall-clock origin, unix seconds
	SystemStart int64 `yaml:"system_start"`

	// SlotDurationMs is the length of one slot in milliseconds
	SlotDurationMs int64 `yaml:"slot_duration_ms"`

	// EpochSlots is the number of slots per epoch
	EpochSlots uint64 `yaml:"epoch_slots"`

	// Wallets are the wallet records created at bootstrap
	Wallets []GenesisWallet `yaml:"wallets"`
}

// GenesisWallet names a wallet and its tracked addresses
type GenesisWallet struct {
	ID        string   `yaml:"id"`
	Addresses []string `yaml:"addresses"`
}

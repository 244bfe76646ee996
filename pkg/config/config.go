package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/betbot/goocean/pkg/logger"
)

// Config is the full application configuration: Ocean Market environment,
// wallet session settings and local service paths. Values load from a YAML
// file and may be overridden by environment variables.
type Config struct {
	Ocean   OceanConfig   `yaml:"ocean"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Server  ServerConfig  `yaml:"server"`
	Stories StoriesConfig `yaml:"stories"`
	Log     logger.Config `yaml:"-"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	DataDir  string `yaml:"data_dir"`
}

// OceanConfig describes the Ocean Market environment.
type OceanConfig struct {
	Network         string `yaml:"network"` // e.g. mainnet, rinkeby
	InfuraProjectID string `yaml:"infura_project_id"`
	RPCURL          string `yaml:"rpc_url"`       // overrides the Infura URL when set
	OceanAddress    string `yaml:"ocean_address"` // OCEAN ERC20 contract
	MetadataURI     string `yaml:"metadata_uri"`  // Aquarius base URI
	ChainID         int64  `yaml:"chain_id"`
}

// WalletConfig holds WalletConnect session settings.
type WalletConfig struct {
	BridgeURL string `yaml:"bridge_url"`
	Address   string `yaml:"address"`  // smart account address
	Mnemonic  string `yaml:"mnemonic"` // optional, used to derive Address when empty
}

// ServerConfig configures the read-only state API.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// StoriesConfig configures the stories feed.
type StoriesConfig struct {
	FeedURL string `yaml:"feed_url"`
}

const (
	defaultBridgeURL   = "https://bridge.walletconnect.org"
	defaultMetadataURI = "https://aquarius.oceanprotocol.com"
	defaultListenAddr  = "127.0.0.1:8490"
)

// Load reads the YAML config at path (optional, pass "" to skip) and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Log = logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Ocean.Network, "OCEAN_MARKET_NETWORK")
	setString(&c.Ocean.InfuraProjectID, "INFURA_PROJECT_ID")
	setString(&c.Ocean.RPCURL, "OCEAN_MARKET_RPC_URL")
	setString(&c.Ocean.OceanAddress, "OCEAN_ADDRESS")
	setString(&c.Ocean.MetadataURI, "OCEAN_MARKET_METADATA_URI")
	setString(&c.Wallet.BridgeURL, "WALLETCONNECT_BRIDGE_URL")
	setString(&c.Wallet.Address, "SMART_WALLET_ADDRESS")
	setString(&c.Wallet.Mnemonic, "WALLET_MNEMONIC")
	setString(&c.Server.ListenAddr, "MARKETD_LISTEN_ADDR")
	setString(&c.Stories.FeedURL, "STORIES_FEED_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFile, "LOG_FILE")
	setString(&c.DataDir, "DATA_DIR")

	if v := os.Getenv("OCEAN_MARKET_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Ocean.ChainID = id
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Ocean.Network == "" {
		c.Ocean.Network = "mainnet"
	}
	if c.Ocean.MetadataURI == "" {
		c.Ocean.MetadataURI = defaultMetadataURI
	}
	if c.Ocean.ChainID == 0 {
		c.Ocean.ChainID = 1
	}
	if c.Wallet.BridgeURL == "" {
		c.Wallet.BridgeURL = defaultBridgeURL
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Ocean.RPCURL == "" && c.Ocean.InfuraProjectID == "" {
		return fmt.Errorf("config: either ocean.rpc_url or ocean.infura_project_id is required")
	}
	if c.Ocean.OceanAddress == "" {
		return fmt.Errorf("config: ocean.ocean_address is required")
	}
	return nil
}

// NodeURL returns the JSON-RPC endpoint: the explicit RPC URL when set,
// otherwise the Infura endpoint for the configured network.
func (c *Config) NodeURL() string {
	if c.Ocean.RPCURL != "" {
		return c.Ocean.RPCURL
	}
	return fmt.Sprintf("https://%s.infura.io/v3/%s", c.Ocean.Network, c.Ocean.InfuraProjectID)
}

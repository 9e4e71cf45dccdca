package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/subeth/subeth/internal/shared/config"
)

const (
	MainnetChainID = 1
	SepoliaChainID = 11155111
	HoleskyChainID = 17000
	AnvilChainID   = 31337
	LocalChainID   = 1337

	// DefaultImplementationAddress is the deployed SubscriptionDelegate.
	DefaultImplementationAddress = "0xec6f2945A927C9D1E3Ea11e0Bf39E6c1acFBcc76"
	DefaultAPIBaseURL            = "https://thesis-be-p2x2.onrender.com"
)

// defaultRPCURLs are used when neither the config file nor the environment
// names an RPC endpoint for a known chain.
var defaultRPCURLs = map[int64]string{
	MainnetChainID: "https://cloudflare-eth.com",
	SepoliaChainID: "https://rpc.sepolia.org",
	HoleskyChainID: "https://holesky.drpc.org",
	AnvilChainID:   "http://127.0.0.1:8545",
	LocalChainID:   "http://127.0.0.1:8545",
}

type Config struct {
	Server     sharedConfig.ServerConfig      `mapstructure:"server"`
	Logger     sharedConfig.LoggerConfig      `mapstructure:"logger"`
	API        sharedConfig.APIConfig         `mapstructure:"api"`
	Delegation sharedConfig.DelegationConfig  `mapstructure:"delegation"`
	Chains     []sharedConfig.ChainConfig     `mapstructure:"chains"`
	RPCURL     sharedConfig.RPCOverrideConfig `mapstructure:"rpc_url"`
	Wallet     sharedConfig.WalletConfig      `mapstructure:"wallet"`
	Executor   sharedConfig.ExecutorConfig    `mapstructure:"executor"`
	Redis      sharedConfig.RedisConfig       `mapstructure:"redis"`
	Database   sharedConfig.DatabaseConfig    `mapstructure:"database"`
	Reconcile  sharedConfig.ReconcileConfig   `mapstructure:"reconcile"`
}

// Load loads configuration from file and environment variables. A missing
// config file is not an error: defaults plus SUBETH_* variables are enough.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("$HOME/.subeth")
	}

	v.SetEnvPrefix("SUBETH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Delegation.ImplementationAddress == "" {
		return fmt.Errorf("delegation.implementation_address is required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Executor.Path {
	case "relay", "direct", "auto":
	default:
		return fmt.Errorf("executor.path must be one of relay, direct, auto (got %q)", c.Executor.Path)
	}
	for _, chain := range c.Chains {
		if chain.ChainID <= 0 {
			return fmt.Errorf("chains: chain_id must be positive (got %d)", chain.ChainID)
		}
	}
	return nil
}

// RPCURLs resolves the chain id to RPC URL mapping. Precedence, lowest first:
// built-in defaults, the chains list, the named rpc_url overrides.
func (c *Config) RPCURLs() map[int64]string {
	urls := make(map[int64]string, len(defaultRPCURLs)+len(c.Chains))
	for id, url := range defaultRPCURLs {
		urls[id] = url
	}
	for _, chain := range c.Chains {
		if chain.RPCURL != "" {
			urls[chain.ChainID] = chain.RPCURL
		}
	}
	if c.RPCURL.Mainnet != "" {
		urls[MainnetChainID] = c.RPCURL.Mainnet
	}
	if c.RPCURL.Sepolia != "" {
		urls[SepoliaChainID] = c.RPCURL.Sepolia
	}
	if c.RPCURL.Holesky != "" {
		urls[HoleskyChainID] = c.RPCURL.Holesky
	}
	return urls
}

// ChainIDs returns the configured chain ids in ascending order.
func (c *Config) ChainIDs() []int64 {
	urls := c.RPCURLs()
	ids := make([]int64, 0, len(urls))
	for id := range urls {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.write_rate_limit", 30)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stderr")

	// Backend defaults
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("delegation.implementation_address", DefaultImplementationAddress)

	// Named RPC overrides; empty means "use the chains list or built-in default"
	v.SetDefault("rpc_url.mainnet", "")
	v.SetDefault("rpc_url.sepolia", "")
	v.SetDefault("rpc_url.holesky", "")

	// Wallet defaults (empty by default, must be configured for write operations)
	v.SetDefault("wallet.keystore_path", "")
	v.SetDefault("wallet.private_key", "")
	v.SetDefault("wallet.password", "")

	// Executor defaults
	v.SetDefault("executor.path", "auto")
	v.SetDefault("executor.confirm_timeout", 3*time.Minute)
	v.SetDefault("executor.receipt_poll", 2*time.Second)
	v.SetDefault("executor.lock_wait", 30*time.Second)
	v.SetDefault("executor.lock_ttl", 5*time.Minute)
	v.SetDefault("executor.enrich_concurrency", 8)

	// Redis defaults (empty host keeps the account lock in-process)
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Journal database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "subeth.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Reconcile defaults
	v.SetDefault("reconcile.schedule", "")
	v.SetDefault("reconcile.repair", false)
	v.SetDefault("reconcile.max_scan", 256)
}

package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// WriteRateLimit caps subscribe/unsubscribe requests per client IP per
	// minute. It needs Redis; zero disables it.
	WriteRateLimit int `mapstructure:"write_rate_limit"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// APIConfig points at the subscription backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DelegationConfig struct {
	// ImplementationAddress is the contract EOAs delegate to via EIP-7702.
	ImplementationAddress string `mapstructure:"implementation_address"`
}

type ChainConfig struct {
	ChainID int64  `mapstructure:"chain_id"`
	Name    string `mapstructure:"name"`
	RPCURL  string `mapstructure:"rpc_url"`
}

// RPCOverrideConfig holds the named per-network RPC overrides
// (SUBETH_RPC_URL_MAINNET, SUBETH_RPC_URL_SEPOLIA, SUBETH_RPC_URL_HOLESKY).
type RPCOverrideConfig struct {
	Mainnet string `mapstructure:"mainnet"`
	Sepolia string `mapstructure:"sepolia"`
	Holesky string `mapstructure:"holesky"`
}

type WalletConfig struct {
	KeystorePath string `mapstructure:"keystore_path"`
	PrivateKey   string `mapstructure:"private_key"`
	Password     string `mapstructure:"password"`
}

func (w *WalletConfig) IsConfigured() bool {
	return w.KeystorePath != "" || w.PrivateKey != ""
}

type ExecutorConfig struct {
	// Path is relay, direct or auto.
	Path              string        `mapstructure:"path"`
	ConfirmTimeout    time.Duration `mapstructure:"confirm_timeout"`
	ReceiptPoll       time.Duration `mapstructure:"receipt_poll"`
	LockWait          time.Duration `mapstructure:"lock_wait"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	EnrichConcurrency int           `mapstructure:"enrich_concurrency"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) IsConfigured() bool {
	return r.Host != ""
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type DatabaseConfig struct {
	// Driver is sqlite or mysql.
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.Username, d.Password, d.Host, d.Port, d.Database)
	}
	return d.Path
}

type ReconcileConfig struct {
	// Schedule is a cron expression; empty disables the scheduler.
	Schedule string `mapstructure:"schedule"`
	Repair   bool   `mapstructure:"repair"`
	MaxScan  int    `mapstructure:"max_scan"`
}

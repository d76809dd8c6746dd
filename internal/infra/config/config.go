// internal/infra/config/config.go
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config はアプリケーション全体の環境変数設定を保持します。
// キーは環境変数名の小文字版（config.yaml でも同じキーを使う）。
type Config struct {
	Port string `mapstructure:"port"`

	// Solana
	SolanaRPCURL   string        `mapstructure:"solana_rpc_url"`
	FeeAddress     string        `mapstructure:"fee_address"`
	KeypairPath    string        `mapstructure:"solana_keypair_path"`
	MintKeySecret  string        `mapstructure:"solana_mint_key_secret"` // Secret Manager のリソース名
	KeypairJSON    string        `mapstructure:"solana_keypair_json"`    // ローカル開発用
	ConfirmTimeout time.Duration `mapstructure:"solana_confirm_timeout"`
	GCPProjectID   string        `mapstructure:"gcp_project_id"`

	// Arweave / Irys / GCS
	Uploader       string `mapstructure:"uploader"` // irys | gcs
	ArweaveBaseURL string `mapstructure:"arweave_base_url"`
	ArweaveAPIKey  string `mapstructure:"arweave_api_key"`
	GCSBucket      string `mapstructure:"gcs_bucket"`

	// Submission store
	SubmissionStore          string `mapstructure:"submission_store"` // memory | firestore | postgres
	FirestoreProjectID       string `mapstructure:"firestore_project_id"`
	FirestoreCredentialsFile string `mapstructure:"firestore_credentials_file"`
	DatabaseURL              string `mapstructure:"database_url"`

	// Orchestrator
	RetryMaxAttempts int    `mapstructure:"retry_max_attempts"`
	RetryRevocation  bool   `mapstructure:"retry_revocation"`
	RevokeStrategy   string `mapstructure:"revoke_strategy"` // deferred | eager

	// Ops
	MetricsAddr       string `mapstructure:"metrics_addr"`
	LogLevel          string `mapstructure:"log_level"`
	LogFormat         string `mapstructure:"log_format"` // json | console
	CORSAllowedOrigin string `mapstructure:"cors_allowed_origin"`
}

const (
	UploaderIrys = "irys"
	UploaderGCS  = "gcs"

	StoreMemory    = "memory"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

var defaults = map[string]any{
	"port":                   "8080",
	"solana_rpc_url":         "https://api.devnet.solana.com",
	"fee_address":            "11111111111111111111111111111111",
	"solana_confirm_timeout": "60s",
	"uploader":               UploaderIrys,
	"submission_store":       StoreMemory,
	"retry_max_attempts":     3,
	"retry_revocation":       false,
	"revoke_strategy":        "deferred",
	"log_level":              "info",
	"log_format":             "json",
	"cors_allowed_origin":    "*",
}

// Load は環境変数（+ 任意の ./config.yaml）を読み込み Config を返します。
func Load() (*Config, error) {
	return load(viper.New(), true)
}

func load(v *viper.Viper, readFile bool) (*Config, error) {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	// AutomaticEnv は Unmarshal 時に既知キーしか見ないので、任意キーも明示的に bind する
	for _, k := range []string{
		"solana_keypair_path", "solana_mint_key_secret", "solana_keypair_json", "gcp_project_id",
		"arweave_base_url", "arweave_api_key", "gcs_bucket",
		"firestore_project_id", "firestore_credentials_file", "database_url", "metrics_addr",
	} {
		_ = v.BindEnv(k)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if readFile {
		v.AddConfigPath("./")
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "config: invalid config file")
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Uploader = strings.ToLower(strings.TrimSpace(c.Uploader))
	c.SubmissionStore = strings.ToLower(strings.TrimSpace(c.SubmissionStore))
	c.RevokeStrategy = strings.ToLower(strings.TrimSpace(c.RevokeStrategy))
	c.ArweaveBaseURL = strings.TrimRight(strings.TrimSpace(c.ArweaveBaseURL), "/")
	if c.FirestoreProjectID == "" {
		c.FirestoreProjectID = c.GCPProjectID
	}
}

// Validate checks enumerations and the settings they require.
func (c *Config) Validate() error {
	switch c.Uploader {
	case UploaderIrys:
	case UploaderGCS:
		if c.GCSBucket == "" {
			return errors.New("config: GCS_BUCKET is required when UPLOADER=gcs")
		}
	default:
		return errors.Newf("config: unknown UPLOADER %q", c.Uploader)
	}

	switch c.SubmissionStore {
	case StoreMemory:
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			return errors.New("config: FIRESTORE_PROJECT_ID is required when SUBMISSION_STORE=firestore")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when SUBMISSION_STORE=postgres")
		}
	default:
		return errors.Newf("config: unknown SUBMISSION_STORE %q", c.SubmissionStore)
	}

	switch c.RevokeStrategy {
	case "deferred", "eager":
	default:
		return errors.Newf("config: unknown REVOKE_STRATEGY %q", c.RevokeStrategy)
	}

	if c.RetryMaxAttempts < 1 {
		return errors.Newf("config: RETRY_MAX_ATTEMPTS must be >= 1 (got %d)", c.RetryMaxAttempts)
	}
	return nil
}

// HasSigner は鍵の取得元がどれか 1 つでも設定されていれば true。
func (c *Config) HasSigner() bool {
	return c.KeypairJSON != "" || c.KeypairPath != "" || c.MintKeySecret != ""
}

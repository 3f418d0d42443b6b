// internal/config/config.go
package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the application configuration. Chain sections are kept as raw
// JSON and decoded by the chain that owns them, so adding a chain does not
// touch this package.
type Config struct {
	DatabaseDriver string `json:"database_driver"` // sqlite | postgres | mysql
	DatabaseDSN    string `json:"database_dsn"`
	StorageDir     string `json:"storage_dir"`
	SessionDir     string `json:"session_dir"`
	MaxPages       int    `json:"max_pages"`
	MaxDownloads   int    `json:"max_downloads"`
	DecodeBatch    int    `json:"decode_batch"`
	WindowDays     int    `json:"window_days"`

	Chains map[string]json.RawMessage `json:"chains"` // chain name -> raw chain config
}

// chain config shapes used only to render a sensible default config.json
type listingDefaults struct {
	BaseURL    string `json:"base_url"`
	CategoryID int    `json:"category_id"`
}

type authDefaults struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func LoadOrCreate(path string) (*Config, bool, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig(filepath.Dir(path))
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("writing default config: %w", err)
			}
			cfg.applyEnv()
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, false, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Chains == nil {
		cfg.Chains = map[string]json.RawMessage{}
	}
	cfg.fillDefaults(filepath.Dir(path))
	cfg.applyEnv()
	return &cfg, false, nil
}

func defaultConfig(dir string) *Config {
	shufersal, _ := json.Marshal(listingDefaults{
		BaseURL:    "https://prices.shufersal.co.il",
		CategoryID: 2,
	})
	kingstore, _ := json.Marshal(authDefaults{
		BaseURL: "https://kingstore.binaprojects.com",
	})
	ramilevy, _ := json.Marshal(authDefaults{
		BaseURL:  "https://url.publishedprices.co.il",
		Username: "RamiLevi",
	})

	cfg := &Config{
		DatabaseDriver: "sqlite",
		Chains: map[string]json.RawMessage{
			"shufersal": shufersal,
			"kingstore": kingstore,
			"ramilevy":  ramilevy,
		},
	}
	cfg.fillDefaults(dir)
	return cfg
}

func (c *Config) fillDefaults(dir string) {
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = "sqlite"
	}
	if c.DatabaseDSN == "" && c.DatabaseDriver == "sqlite" {
		c.DatabaseDSN = filepath.Join(dir, "mysmartcart.db")
	}
	if c.StorageDir == "" {
		c.StorageDir = filepath.Join(dir, "catalogs")
	}
	if c.SessionDir == "" {
		c.SessionDir = filepath.Join(dir, "sessions")
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 20
	}
	if c.MaxDownloads <= 0 {
		c.MaxDownloads = 100
	}
	if c.DecodeBatch <= 0 {
		c.DecodeBatch = 50
	}
	if c.WindowDays <= 0 {
		c.WindowDays = 2
	}
}

// applyEnv lets secrets come from the environment instead of config.json.
func (c *Config) applyEnv() {
	if v := os.Getenv("MYSMARTCART_DSN"); v != "" {
		c.DatabaseDSN = v
	}
	if v := os.Getenv("MYSMARTCART_DB_DRIVER"); v != "" {
		c.DatabaseDriver = v
	}
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// UnmarshalChain decodes the named chain section into v.
func (c *Config) UnmarshalChain(name string, v any) error {
	raw, ok := c.Chains[name]
	if !ok {
		return fmt.Errorf("chain %q missing from config", name)
	}
	return json.Unmarshal(raw, v)
}

// EnvCredential returns MYSMARTCART_<CHAIN>_<FIELD> when set, else fallback.
// Chains call this so passwords never have to live in config.json.
func EnvCredential(chain, field, fallback string) string {
	key := "MYSMARTCART_" + strings.ToUpper(chain) + "_" + strings.ToUpper(field)
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

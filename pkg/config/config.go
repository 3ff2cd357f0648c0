package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is siloscript's composition-root configuration: where each of
// the three façades binds, where scripts and persisted data live, and
// how the Store is built.
type Config struct {
	DataAddr    string `yaml:"dataAddr"`
	ControlAddr string `yaml:"controlAddr"`
	PublicAddr  string `yaml:"publicAddr"`

	// DataURLRoot is the base URL scripts see in DATA_URL, joined with
	// "/<silo-handle>". Normally this is "http://<DataAddr>".
	DataURLRoot string `yaml:"dataURLRoot"`

	ScriptsRoot string `yaml:"scriptsRoot"`
	StaticDir   string `yaml:"staticDir"`

	// StoreBackend is "memory" or "sql".
	StoreBackend string `yaml:"storeBackend"`
	SQLPath      string `yaml:"sqlPath"`

	Encrypt    bool   `yaml:"encrypt"`
	KeyringDir string `yaml:"keyringDir"`
	TokenSalt  string `yaml:"tokenSalt"`

	LogLevel string `yaml:"logLevel"`
	LogJSON  bool   `yaml:"logJSON"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		DataAddr:     "127.0.0.1:8082",
		ControlAddr:  "127.0.0.1:8081",
		PublicAddr:   "127.0.0.1:8083",
		DataURLRoot:  "http://127.0.0.1:8082",
		ScriptsRoot:  "./scripts",
		StaticDir:    "",
		StoreBackend: "memory",
		SQLPath:      "./siloscript-data/store.db",
		Encrypt:      false,
		KeyringDir:   "./siloscript-data/keyring",
		TokenSalt:    "",
		LogLevel:     "info",
		LogJSON:      false,
	}
}

// Load reads Config from path (when non-empty) over the Default, then
// applies SILOSCRIPT_*-prefixed environment variable overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrideString(&cfg.DataAddr, "SILOSCRIPT_DATA_ADDR")
	overrideString(&cfg.ControlAddr, "SILOSCRIPT_CONTROL_ADDR")
	overrideString(&cfg.PublicAddr, "SILOSCRIPT_PUBLIC_ADDR")
	overrideString(&cfg.DataURLRoot, "SILOSCRIPT_DATA_URL_ROOT")
	overrideString(&cfg.ScriptsRoot, "SILOSCRIPT_SCRIPTS_ROOT")
	overrideString(&cfg.StaticDir, "SILOSCRIPT_STATIC_DIR")
	overrideString(&cfg.StoreBackend, "SILOSCRIPT_STORE_BACKEND")
	overrideString(&cfg.SQLPath, "SILOSCRIPT_SQL_PATH")
	overrideString(&cfg.KeyringDir, "SILOSCRIPT_KEYRING_DIR")
	overrideString(&cfg.TokenSalt, "SILOSCRIPT_TOKEN_SALT")
	overrideString(&cfg.LogLevel, "SILOSCRIPT_LOG_LEVEL")
	overrideBool(&cfg.Encrypt, "SILOSCRIPT_ENCRYPT")
	overrideBool(&cfg.LogJSON, "SILOSCRIPT_LOG_JSON")
}

func overrideString(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok {
		*dst = v
	}
}

func overrideBool(dst *bool, env string) {
	if v, ok := os.LookupEnv(env); ok {
		*dst = v == "1" || v == "true"
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"artx/internal/contenthash"
)

const (
	DefaultDataDirName    = "data"
	DefaultLogLevel       = "info"
	DefaultGuestName      = "GuestUser"
	DefaultInitialCredits = 10000
	DefaultHashAlgorithm  = string(contenthash.Default)

	DefaultMaxUploadBytes int64 = 25 * 1024 * 1024
	DefaultMaxPixels      int64 = 40_000_000
	DefaultMaxBatchFiles        = 50
	DefaultCreditsPerUpload     = 1
	DefaultMaxEditions          = 10000
	DefaultVerifyConcurrency    = 4

	configFileName           = ".artx.toml"
	configDirEnvKey          = "ARTX_CONFIG_DIR"
	trustProjectConfigEnvKey = "ARTX_TRUST_PROJECT_CONFIG"
	dataDirEnvKey            = "ARTX_DATA_DIR"
	indexPathEnvKey          = "ARTX_INDEX"
	hashAlgorithmEnvKey      = "ARTX_HASH_ALGORITHM"
)

// UploadConfig bounds what a single upload batch may contain.
type UploadConfig struct {
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	MaxPixels      int64    `toml:"max_pixels"`
	MaxBatchFiles  int      `toml:"max_batch_files"`
	AllowedFormats []string `toml:"allowed_formats"`
}

// CreditConfig prices storage-consuming operations.
type CreditConfig struct {
	PerUpload  int64 `toml:"per_upload"`
	PerMiB     int64 `toml:"per_mib"`
	PerEdition int64 `toml:"per_edition"`
}

// MintConfig bounds minting.
type MintConfig struct {
	MaxEditions int `toml:"max_editions"`
}

// VerifyConfig tunes batch verification.
type VerifyConfig struct {
	Concurrency int `toml:"concurrency"`
}

// Config defines runtime configuration for artx.
type Config struct {
	DataDir                  string       `toml:"data_dir"`
	IndexPath                string       `toml:"index_path"`
	LogLevel                 string       `toml:"log_level"`
	GuestName                string       `toml:"guest_name"`
	InitialCredits           int64        `toml:"initial_credits"`
	HashAlgorithm            string       `toml:"hash_algorithm"`
	Uploads                  UploadConfig `toml:"uploads"`
	Credits                  CreditConfig `toml:"credits"`
	Minting                  MintConfig   `toml:"minting"`
	Verify                   VerifyConfig `toml:"verify"`
	TrustedProjectConfigPath string       `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		DataDir:        "",
		IndexPath:      "",
		LogLevel:       DefaultLogLevel,
		GuestName:      DefaultGuestName,
		InitialCredits: DefaultInitialCredits,
		HashAlgorithm:  DefaultHashAlgorithm,
		Uploads: UploadConfig{
			MaxUploadBytes: DefaultMaxUploadBytes,
			MaxPixels:      DefaultMaxPixels,
			MaxBatchFiles:  DefaultMaxBatchFiles,
		},
		Credits: CreditConfig{
			PerUpload: DefaultCreditsPerUpload,
		},
		Minting: MintConfig{MaxEditions: DefaultMaxEditions},
		Verify:  VerifyConfig{Concurrency: DefaultVerifyConcurrency},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"data_dir",
	"index_path",
	"log_level",
	"guest_name",
	"initial_credits",
	"hash_algorithm",
	"uploads.max_upload_bytes",
	"uploads.max_pixels",
	"uploads.max_batch_files",
	"uploads.allowed_formats",
	"credits.per_upload",
	"credits.per_mib",
	"credits.per_edition",
	"minting.max_editions",
	"verify.concurrency",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "data_dir":
		return c.DataDir, nil
	case "index_path":
		return c.IndexPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "guest_name":
		return c.GuestName, nil
	case "initial_credits":
		return strconv.FormatInt(c.InitialCredits, 10), nil
	case "hash_algorithm":
		return c.HashAlgorithm, nil
	case "uploads.max_upload_bytes":
		return strconv.FormatInt(c.Uploads.MaxUploadBytes, 10), nil
	case "uploads.max_pixels":
		return strconv.FormatInt(c.Uploads.MaxPixels, 10), nil
	case "uploads.max_batch_files":
		return strconv.Itoa(c.Uploads.MaxBatchFiles), nil
	case "uploads.allowed_formats":
		return strings.Join(c.Uploads.AllowedFormats, ","), nil
	case "credits.per_upload":
		return strconv.FormatInt(c.Credits.PerUpload, 10), nil
	case "credits.per_mib":
		return strconv.FormatInt(c.Credits.PerMiB, 10), nil
	case "credits.per_edition":
		return strconv.FormatInt(c.Credits.PerEdition, 10), nil
	case "minting.max_editions":
		return strconv.Itoa(c.Minting.MaxEditions), nil
	case "verify.concurrency":
		return strconv.Itoa(c.Verify.Concurrency), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if dataDir := os.Getenv(dataDirEnvKey); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if indexPath := os.Getenv(indexPathEnvKey); indexPath != "" {
		cfg.IndexPath = indexPath
	}
	if alg := os.Getenv(hashAlgorithmEnvKey); alg != "" {
		cfg.HashAlgorithm = alg
	}

	if cfg.DataDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DataDir = filepath.Join(cwd, DefaultDataDirName)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := contenthash.Parse(c.HashAlgorithm); err != nil {
		return err
	}
	if c.InitialCredits < 0 {
		return fmt.Errorf("initial_credits must be >= 0")
	}
	if c.Credits.PerUpload < 0 || c.Credits.PerMiB < 0 || c.Credits.PerEdition < 0 {
		return fmt.Errorf("credit prices must be >= 0")
	}
	return nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "uploads.max_upload_bytes", "uploads.max_pixels":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "uploads.max_batch_files", "minting.max_editions", "verify.concurrency":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "initial_credits", "credits.per_upload", "credits.per_mib", "credits.per_edition":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return parsed, nil
	case "hash_algorithm":
		alg, err := contenthash.Parse(value)
		if err != nil {
			return nil, err
		}
		return string(alg), nil
	case "uploads.allowed_formats":
		return splitCSV(value), nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func splitCSV(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.GuestName) == "" {
		c.GuestName = DefaultGuestName
	}
	if strings.TrimSpace(c.HashAlgorithm) == "" {
		c.HashAlgorithm = DefaultHashAlgorithm
	}
	if c.Uploads.MaxUploadBytes <= 0 {
		c.Uploads.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Uploads.MaxPixels <= 0 {
		c.Uploads.MaxPixels = DefaultMaxPixels
	}
	if c.Uploads.MaxBatchFiles <= 0 {
		c.Uploads.MaxBatchFiles = DefaultMaxBatchFiles
	}
	if c.Minting.MaxEditions <= 0 {
		c.Minting.MaxEditions = DefaultMaxEditions
	}
	if c.Verify.Concurrency <= 0 {
		c.Verify.Concurrency = DefaultVerifyConcurrency
	}
	c.Uploads.AllowedFormats = normalizeFormats(c.Uploads.AllowedFormats)
}

func normalizeFormats(rawValues []string) []string {
	if len(rawValues) == 0 {
		return nil
	}
	out := make([]string, 0, len(rawValues))
	seen := map[string]struct{}{}
	for _, raw := range rawValues {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "."))
		if normalized == "" {
			continue
		}
		if normalized == "jpg" {
			normalized = "jpeg"
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Package config loads service configuration from compiled defaults, an
// optional TOML file, an optional .env file and the process environment,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/Januuus/chatbot/internal/core/domain"
)

// DefaultConfigFile is read when present and no file is named explicitly.
const DefaultConfigFile = "chatbot.toml"

// DefaultEnvFile is read when present.
const DefaultEnvFile = ".env"

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Duration is a time.Duration that reads from TOML strings like "15m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := parseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Claude    LLMConfig       `toml:"claude"`
	OpenAI    LLMConfig       `toml:"openai"`
	Selector  SelectorConfig  `toml:"selector"`
	Database  DatabaseConfig  `toml:"database"`
	Documents DocumentsConfig `toml:"documents"`
	Prompts   PromptsConfig   `toml:"prompts"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	PublicDir       string   `toml:"public_dir"`
	CORSOrigin      string   `toml:"cors_origin"`
	RequiredAPIKey  string   `toml:"required_api_key"`
	RateLimitWindow Duration `toml:"rate_limit_window"`
	RateLimitMax    int      `toml:"rate_limit_max"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LLMConfig configures one model provider.
type LLMConfig struct {
	APIKey      string   `toml:"api_key"`
	Model       string   `toml:"model"`
	BaseURL     string   `toml:"base_url"`
	MaxTokens   int      `toml:"max_tokens"`
	Temperature float64  `toml:"temperature"`
	Timeout     Duration `toml:"timeout"`
}

// SelectorConfig chooses the provider behind the relevance oracle.
type SelectorConfig struct {
	Provider string `toml:"provider"`
}

// DatabaseConfig configures the SQL store.
type DatabaseConfig struct {
	Driver         string   `toml:"driver"`
	DSN            string   `toml:"dsn"`
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	User           string   `toml:"user"`
	Password       string   `toml:"password"`
	Name           string   `toml:"name"`
	SSLMode        string   `toml:"ssl_mode"`
	DataDir        string   `toml:"data_dir"`
	MaxOpenConns   int      `toml:"max_open_conns"`
	MaxIdleConns   int      `toml:"max_idle_conns"`
	ConnectRetries int      `toml:"connect_retries"`
	RetryDelay     Duration `toml:"retry_delay"`
}

// ConnString returns the DSN, building a PostgreSQL URL from the
// individual fields when no DSN is set. SQLite without a DSN returns ""
// so the store falls back to its data directory.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" || d.Driver != DriverPostgres {
		return d.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else if d.User != "" {
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// DocumentsConfig configures upload limits and chunking.
type DocumentsConfig struct {
	MaxFileSize       int64    `toml:"max_file_size"`
	ChunkSize         int      `toml:"chunk_size"`
	ChunkOverlapWords int      `toml:"chunk_overlap_words"`
	AllowedTypes      []string `toml:"allowed_types"`
	TrainingDir       string   `toml:"training_dir"`
}

// PromptsConfig locates user-editable system prompts.
type PromptsConfig struct {
	// Dir holds <name>.txt prompt files. Empty uses the built-in prompts.
	Dir string `toml:"dir"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Default returns the compiled defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            10000,
			PublicDir:       "public",
			CORSOrigin:      "*",
			RateLimitWindow: Duration(15 * time.Minute),
			RateLimitMax:    100,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Claude: LLMConfig{
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     Duration(120 * time.Second),
		},
		OpenAI: LLMConfig{
			Timeout: Duration(120 * time.Second),
		},
		Selector: SelectorConfig{
			Provider: string(domain.AIProviderOpenAI),
		},
		Database: DatabaseConfig{
			Driver:         DriverSQLite,
			Host:           "localhost",
			Port:           5432,
			Name:           "chatbot",
			SSLMode:        "disable",
			MaxOpenConns:   10,
			MaxIdleConns:   5,
			ConnectRetries: 5,
			RetryDelay:     Duration(5 * time.Second),
		},
		Documents: DocumentsConfig{
			MaxFileSize:       10 << 20,
			ChunkSize:         1000,
			ChunkOverlapWords: 20,
			AllowedTypes:      domain.DefaultAllowedTypes(),
			TrainingDir:       "training-docs",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Options controls where Load reads from.
type Options struct {
	// ConfigFile is a TOML file that must exist. When empty,
	// DefaultConfigFile is read if present.
	ConfigFile string

	// EnvFile is a dotenv file read if present. Defaults to DefaultEnvFile.
	EnvFile string

	// LookupEnv reads the environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration. Values in the process environment win
// over the dotenv file, which wins over the TOML file.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	path := opts.ConfigFile
	required := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	if err := loadTOML(cfg, path, required); err != nil {
		return nil, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
		dotenv = map[string]string{}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := &envReader{
		lookup: func(key string) (string, bool) {
			if v, ok := lookup(key); ok {
				return v, true
			}
			v, ok := dotenv[key]
			return v, ok
		},
	}
	applyEnv(cfg, env)
	if len(env.errs) > 0 {
		return nil, errors.Join(env.errs...)
	}
	return cfg, nil
}

func loadTOML(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, env *envReader) {
	env.str("HOST", &cfg.Server.Host)
	env.int("PORT", &cfg.Server.Port)
	env.str("PUBLIC_DIR", &cfg.Server.PublicDir)
	env.str("CORS_ORIGIN", &cfg.Server.CORSOrigin)
	env.str("REQUIRED_API_KEY", &cfg.Server.RequiredAPIKey)
	env.millisOrDuration("RATE_LIMIT_WINDOW", &cfg.Server.RateLimitWindow)
	env.int("RATE_LIMIT_MAX", &cfg.Server.RateLimitMax)
	env.duration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	env.str("CLAUDE_API_KEY", &cfg.Claude.APIKey)
	env.str("CLAUDE_MODEL", &cfg.Claude.Model)
	env.str("CLAUDE_BASE_URL", &cfg.Claude.BaseURL)
	env.int("MAX_TOKENS", &cfg.Claude.MaxTokens)
	env.int("CLAUDE_MAX_TOKENS", &cfg.Claude.MaxTokens)
	env.float("TEMPERATURE", &cfg.Claude.Temperature)
	env.float("CLAUDE_TEMPERATURE", &cfg.Claude.Temperature)

	env.str("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	env.str("OPENAI_MODEL", &cfg.OpenAI.Model)
	env.str("OPENAI_BASE_URL", &cfg.OpenAI.BaseURL)

	var timeout Duration
	if env.duration("LLM_TIMEOUT", &timeout) {
		cfg.Claude.Timeout = timeout
		cfg.OpenAI.Timeout = timeout
	}

	env.str("SELECTOR_PROVIDER", &cfg.Selector.Provider)

	env.str("DB_DRIVER", &cfg.Database.Driver)
	env.str("DATABASE_URL", &cfg.Database.DSN)
	env.str("DB_DSN", &cfg.Database.DSN)
	env.str("DB_HOST", &cfg.Database.Host)
	env.int("DB_PORT", &cfg.Database.Port)
	env.str("DB_USER", &cfg.Database.User)
	env.str("DB_PASSWORD", &cfg.Database.Password)
	env.str("DB_NAME", &cfg.Database.Name)
	env.str("DB_SSLMODE", &cfg.Database.SSLMode)
	env.str("DATA_DIR", &cfg.Database.DataDir)
	env.int("DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	env.int("DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	env.int("DB_CONNECT_RETRIES", &cfg.Database.ConnectRetries)
	env.duration("DB_RETRY_DELAY", &cfg.Database.RetryDelay)

	env.int64("MAX_FILE_SIZE", &cfg.Documents.MaxFileSize)
	env.int("CHUNK_SIZE", &cfg.Documents.ChunkSize)
	env.int("CHUNK_OVERLAP_WORDS", &cfg.Documents.ChunkOverlapWords)
	env.list("ALLOWED_FILE_TYPES", &cfg.Documents.AllowedTypes)
	env.str("TRAINING_DOCS_DIR", &cfg.Documents.TrainingDir)
	env.str("PROMPTS_DIR", &cfg.Prompts.Dir)

	env.str("LOG_LEVEL", &cfg.Log.Level)
	env.bool("LOG_PRETTY", &cfg.Log.Pretty)
}

// AnswerSettings returns the answer model settings.
func (c *Config) AnswerSettings() *domain.LLMSettings {
	return &domain.LLMSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   c.Claude.APIKey,
		BaseURL:  c.Claude.BaseURL,
		Model:    c.Claude.Model,
		Timeout:  c.Claude.Timeout.Std(),
	}
}

// SelectorSettings returns the settings of the model behind the oracle.
func (c *Config) SelectorSettings() *domain.LLMSettings {
	if domain.AIProvider(c.Selector.Provider) == domain.AIProviderAnthropic {
		return c.AnswerSettings()
	}
	return &domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   c.OpenAI.APIKey,
		BaseURL:  c.OpenAI.BaseURL,
		Model:    c.OpenAI.Model,
		Timeout:  c.OpenAI.Timeout.Std(),
	}
}

// Requirements names the settings a command needs.
type Requirements struct {
	// LLM requires the answer and selector model keys.
	LLM bool

	// APIKey requires the key clients must present.
	APIKey bool

	// Database requires usable storage settings.
	Database bool
}

// Common requirement sets.
var (
	ServeRequirements   = Requirements{LLM: true, APIKey: true, Database: true}
	StorageRequirements = Requirements{Database: true}
	IngestRequirements  = Requirements{Database: true}
)

// Validate reports every problem at once as a joined error.
func (c *Config) Validate(req Requirements) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitMax <= 0 {
		add("RATE_LIMIT_MAX must be positive, got %d", c.Server.RateLimitMax)
	}
	if c.Server.RateLimitWindow <= 0 {
		add("RATE_LIMIT_WINDOW must be positive")
	}
	if c.Documents.MaxFileSize <= 0 {
		add("MAX_FILE_SIZE must be positive, got %d", c.Documents.MaxFileSize)
	}
	if c.Documents.ChunkSize <= 0 {
		add("CHUNK_SIZE must be positive, got %d", c.Documents.ChunkSize)
	}
	if c.Documents.ChunkOverlapWords < 0 {
		add("CHUNK_OVERLAP_WORDS must not be negative, got %d", c.Documents.ChunkOverlapWords)
	}
	for _, mt := range c.Documents.AllowedTypes {
		if domain.ParseMediaKind(mt) == domain.MediaUnknown {
			add("ALLOWED_FILE_TYPES contains unsupported type %q", mt)
		}
	}
	if c.Claude.MaxTokens <= 0 {
		add("CLAUDE_MAX_TOKENS must be positive, got %d", c.Claude.MaxTokens)
	}
	if c.Claude.Temperature < 0 || c.Claude.Temperature > 1 {
		add("CLAUDE_TEMPERATURE must be between 0 and 1, got %g", c.Claude.Temperature)
	}

	provider := domain.AIProvider(c.Selector.Provider)
	if !provider.IsValid() {
		add("SELECTOR_PROVIDER must be openai or anthropic, got %q", c.Selector.Provider)
	}

	if req.LLM {
		if c.Claude.APIKey == "" {
			add("CLAUDE_API_KEY is required")
		}
		if provider == domain.AIProviderOpenAI && c.OpenAI.APIKey == "" {
			add("OPENAI_API_KEY is required when SELECTOR_PROVIDER is openai")
		}
	}
	if req.APIKey && c.Server.RequiredAPIKey == "" {
		add("REQUIRED_API_KEY is required")
	}

	if req.Database {
		switch c.Database.Driver {
		case DriverSQLite:
		case DriverPostgres:
			if c.Database.DSN == "" && c.Database.Password == "" {
				add("DB_PASSWORD or DB_DSN is required when DB_DRIVER is pgx")
			}
		default:
			add("DB_DRIVER must be sqlite or pgx, got %q", c.Database.Driver)
		}
		if c.Database.MaxOpenConns <= 0 {
			add("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
		}
		if c.Database.ConnectRetries <= 0 {
			add("DB_CONNECT_RETRIES must be positive, got %d", c.Database.ConnectRetries)
		}
	}

	return errors.Join(errs...)
}

// envReader applies environment values and collects parse errors.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return
	}
	*dst = n
}

func (e *envReader) int64(key string, dst *int64) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return
	}
	*dst = n
}

func (e *envReader) float(key string, dst *float64) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return
	}
	*dst = f
}

func (e *envReader) bool(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *Duration) bool {
	v, ok := e.get(key)
	if !ok {
		return false
	}
	d, err := parseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return false
	}
	*dst = Duration(d)
	return true
}

// millisOrDuration accepts a Go duration or a bare integer of milliseconds.
func (e *envReader) millisOrDuration(key string, dst *Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		*dst = Duration(time.Duration(ms) * time.Millisecond)
		return
	}
	e.duration(key, dst)
}

func (e *envReader) list(key string, dst *[]string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

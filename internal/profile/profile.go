package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where feeta stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// AI Configuration
	AILLMProvider     string // FEETA_AI_LLM_PROVIDER (default: gemini)
	AILLMModel        string // FEETA_AI_LLM_MODEL (default depends on provider)
	AIGeminiAPIKey    string // FEETA_AI_GEMINI_API_KEY (legacy: GEMINI_API_KEY)
	AIOpenAIAPIKey    string // FEETA_AI_OPENAI_API_KEY
	AIOpenAIBaseURL   string // FEETA_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIDeepSeekAPIKey  string // FEETA_AI_DEEPSEEK_API_KEY
	AIDeepSeekBaseURL string // FEETA_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)

	// Collaborators
	GitHubAPIURL string // FEETA_GITHUB_API_URL (default: https://api.github.com)
	SlackAPIURL  string // FEETA_SLACK_API_URL (default: https://slack.com/api)

	// Session cache
	SessionCapacity int           // FEETA_SESSION_CAPACITY (default: 10000)
	SessionTTL      time.Duration // FEETA_SESSION_TTL (default: 24h)
	RedisAddr       string        // FEETA_REDIS_ADDR, empty keeps sessions in process memory
	RedisPassword   string        // FEETA_REDIS_PASSWORD
}

const (
	defaultSessionCapacity = 10000
	defaultSessionTTL      = 24 * time.Hour
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// UseRedis reports whether sessions are kept in an external Redis cache.
func (p *Profile) UseRedis() bool {
	return p.RedisAddr != ""
}

// FromEnv loads configuration from environment variables.
// Supports FEETA_* keys, with a bare legacy key as fallback where one existed.
func (p *Profile) FromEnv() {
	getEnvWithDefault := func(key, legacyKey, defaultValue string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		if legacyKey != "" {
			if val := os.Getenv(legacyKey); val != "" {
				return val
			}
		}
		return defaultValue
	}

	getIntEnv := func(key string, defaultValue int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			slog.Warn("ignoring invalid integer env value", "key", key, "value", raw)
			return defaultValue
		}
		return n
	}

	getDurationEnv := func(key string, defaultValue time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			slog.Warn("ignoring invalid duration env value", "key", key, "value", raw)
			return defaultValue
		}
		return d
	}

	p.AILLMProvider = getEnvWithDefault("FEETA_AI_LLM_PROVIDER", "", "gemini")
	p.AILLMModel = getEnvWithDefault("FEETA_AI_LLM_MODEL", "", "")
	p.AIGeminiAPIKey = getEnvWithDefault("FEETA_AI_GEMINI_API_KEY", "GEMINI_API_KEY", "")
	p.AIOpenAIAPIKey = getEnvWithDefault("FEETA_AI_OPENAI_API_KEY", "", "")
	p.AIOpenAIBaseURL = getEnvWithDefault("FEETA_AI_OPENAI_BASE_URL", "", "https://api.openai.com/v1")
	p.AIDeepSeekAPIKey = getEnvWithDefault("FEETA_AI_DEEPSEEK_API_KEY", "", "")
	p.AIDeepSeekBaseURL = getEnvWithDefault("FEETA_AI_DEEPSEEK_BASE_URL", "", "https://api.deepseek.com")

	p.GitHubAPIURL = getEnvWithDefault("FEETA_GITHUB_API_URL", "", "https://api.github.com")
	p.SlackAPIURL = getEnvWithDefault("FEETA_SLACK_API_URL", "", "https://slack.com/api")

	p.SessionCapacity = getIntEnv("FEETA_SESSION_CAPACITY", defaultSessionCapacity)
	p.SessionTTL = getDurationEnv("FEETA_SESSION_TTL", defaultSessionTTL)
	p.RedisAddr = getEnvWithDefault("FEETA_REDIS_ADDR", "", "")
	p.RedisPassword = getEnvWithDefault("FEETA_REDIS_PASSWORD", "", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only sqlite and postgres are supported", p.Driver)
	}
	if p.SessionCapacity <= 0 {
		p.SessionCapacity = defaultSessionCapacity
	}
	if p.SessionTTL <= 0 {
		p.SessionTTL = defaultSessionTTL
	}

	if p.Driver == "postgres" {
		if p.DSN == "" {
			return errors.New("dsn is required for postgres driver")
		}
		return nil
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "feeta")
		} else {
			p.Data = "/var/opt/feeta"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("feeta_%s.db", p.Mode))
	}
	return nil
}

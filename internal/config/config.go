package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Auth struct {
		JWTSecret   string `yaml:"jwt_secret"`
		Issuer      string `yaml:"issuer"`
		AdminAPIKey string `yaml:"admin_api_key"`
	} `yaml:"auth"`

	// StepUp agrupa los límites del flujo de re-autenticación. Todos los
	// enteros deben ser positivos (Validate lo exige).
	StepUp struct {
		Code struct {
			Length          int    `yaml:"length"`
			ValidityMinutes int    `yaml:"validity_minutes"`
			CacheKeyPrefix  string `yaml:"cache_key_prefix"`
		} `yaml:"code"`
		Verification struct {
			ValidityMinutes int    `yaml:"validity_minutes"`
			CacheKeyPrefix  string `yaml:"cache_key_prefix"`
		} `yaml:"verification"`
		Attempts struct {
			DurationMinutes int    `yaml:"duration_minutes"`
			MaxAttempts     int    `yaml:"max_attempts"`
			CacheKeyPrefix  string `yaml:"cache_key_prefix"`
		} `yaml:"attempts"`
		Block struct {
			DurationMinutes int `yaml:"duration_minutes"`
		} `yaml:"block"`
	} `yaml:"stepup"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Notify struct {
		// Kind: "smtp" | "log" (log hace echo del código; solo dev)
		Kind string `yaml:"kind"`
	} `yaml:"notify"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

// Load lee el YAML en path (opcional), aplica defaults sanos y overrides de
// entorno, y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "stepup"
	}
	if c.StepUp.Code.Length == 0 {
		c.StepUp.Code.Length = 6
	}
	if c.StepUp.Code.ValidityMinutes == 0 {
		c.StepUp.Code.ValidityMinutes = 5
	}
	if c.StepUp.Code.CacheKeyPrefix == "" {
		c.StepUp.Code.CacheKeyPrefix = "stepup_code"
	}
	if c.StepUp.Verification.ValidityMinutes == 0 {
		c.StepUp.Verification.ValidityMinutes = 10
	}
	if c.StepUp.Verification.CacheKeyPrefix == "" {
		c.StepUp.Verification.CacheKeyPrefix = "stepup_verified"
	}
	if c.StepUp.Attempts.DurationMinutes == 0 {
		c.StepUp.Attempts.DurationMinutes = 15
	}
	if c.StepUp.Attempts.MaxAttempts == 0 {
		c.StepUp.Attempts.MaxAttempts = 3
	}
	if c.StepUp.Attempts.CacheKeyPrefix == "" {
		c.StepUp.Attempts.CacheKeyPrefix = "stepup_attempts"
	}
	if c.StepUp.Block.DurationMinutes == 0 {
		c.StepUp.Block.DurationMinutes = 60
	}
	if c.Notify.Kind == "" {
		c.Notify.Kind = "log"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("STEPUP_APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("STEPUP_SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("STEPUP_STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STEPUP_CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("STEPUP_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("STEPUP_REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("STEPUP_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("STEPUP_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := getEnvStr("STEPUP_JWT_ISSUER"); ok {
		c.Auth.Issuer = v
	}
	if v, ok := getEnvStr("STEPUP_ADMIN_API_KEY"); ok {
		c.Auth.AdminAPIKey = v
	}
	if v, ok := getEnvInt("STEPUP_CODE_LENGTH"); ok {
		c.StepUp.Code.Length = v
	}
	if v, ok := getEnvInt("STEPUP_CODE_VALIDITY_MINUTES"); ok {
		c.StepUp.Code.ValidityMinutes = v
	}
	if v, ok := getEnvInt("STEPUP_VERIFICATION_VALIDITY_MINUTES"); ok {
		c.StepUp.Verification.ValidityMinutes = v
	}
	if v, ok := getEnvInt("STEPUP_ATTEMPTS_DURATION_MINUTES"); ok {
		c.StepUp.Attempts.DurationMinutes = v
	}
	if v, ok := getEnvInt("STEPUP_MAX_ATTEMPTS"); ok {
		c.StepUp.Attempts.MaxAttempts = v
	}
	if v, ok := getEnvInt("STEPUP_BLOCK_DURATION_MINUTES"); ok {
		c.StepUp.Block.DurationMinutes = v
	}
	if v, ok := getEnvStr("STEPUP_SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("STEPUP_SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("STEPUP_SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("STEPUP_SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("STEPUP_SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("STEPUP_NOTIFY_KIND"); ok {
		c.Notify.Kind = v
	}
	if v, ok := getEnvStr("STEPUP_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvBool("STEPUP_MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}

// Validate exige que todos los límites del flujo sean enteros positivos.
// El diseño no asume defaults más allá de "configurable": un cero que llegue
// hasta acá (override explícito negativo, YAML roto) es error de arranque.
func (c *Config) Validate() error {
	type bound struct {
		name  string
		value int
	}
	bounds := []bound{
		{"stepup.code.length", c.StepUp.Code.Length},
		{"stepup.code.validity_minutes", c.StepUp.Code.ValidityMinutes},
		{"stepup.verification.validity_minutes", c.StepUp.Verification.ValidityMinutes},
		{"stepup.attempts.duration_minutes", c.StepUp.Attempts.DurationMinutes},
		{"stepup.attempts.max_attempts", c.StepUp.Attempts.MaxAttempts},
		{"stepup.block.duration_minutes", c.StepUp.Block.DurationMinutes},
	}
	for _, b := range bounds {
		if b.value <= 0 {
			return fmt.Errorf("config: %s must be a positive integer, got %d", b.name, b.value)
		}
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: cache.kind must be memory or redis, got %q", c.Cache.Kind)
	}
	if c.Notify.Kind == "smtp" && c.SMTP.Host == "" {
		return fmt.Errorf("config: notify.kind=smtp requires smtp.host")
	}
	return nil
}

// MemoryDefaultTTL parsea cache.memory.default_ttl.
func (c *Config) MemoryDefaultTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.Memory.DefaultTTL)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// ─────────────── env helpers ───────────────

func getEnvStr(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok && strings.TrimSpace(v) != ""
}

func getEnvInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

func getEnvBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, false
	}
	return b, true
}

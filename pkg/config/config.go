package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
)

type Config struct {
	Env             string
	Host            string
	Port            int
	StaticDir       string
	ShutdownTimeout time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Cache    CacheConfig
	Upload   UploadConfig
	Export   ExportConfig
	CORS     CORSConfig
	Log      LogConfig

	// RestrictedUsername is the floor-supervisor account kept away from roster
	// management and history.
	RestrictedUsername string
	SeedAccounts       []SeedAccount
}

type DatabaseConfig struct {
	Driver       string
	Path         string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig controls the login cookie and where sessions live.
type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
	Store      string
}

// CacheConfig toggles Redis caching of the group and date option lists.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// UploadConfig bounds roster uploads; a non-empty ArchiveDir keeps a copy of
// each imported file for ArchiveRetention.
type UploadConfig struct {
	MaxBytes         int64
	ArchiveDir       string
	ArchiveRetention time.Duration
}

// ExportConfig holds renderer settings; PDFFont must point at a UTF-8 TTF font
// able to draw CJK text for PDF exports to work.
type ExportConfig struct {
	PDFFont string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SeedAccount is a staff login created at start-up when missing.
type SeedAccount struct {
	Username    string
	Password    string
	DisplayName string
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Host = v.GetString("HOST")
	cfg.Port = v.GetInt("PORT")
	cfg.StaticDir = v.GetString("STATIC_DIR")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Path:         v.GetString("DB_PATH"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
	if cfg.Database.Driver != DriverSQLite && cfg.Database.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret:     v.GetString("SESSION_SECRET"),
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		CookieName: v.GetString("SESSION_COOKIE"),
		Secure:     v.GetBool("SESSION_SECURE"),
		Store:      strings.ToLower(v.GetString("SESSION_STORE")),
	}
	if cfg.Session.Store == SessionStoreRedis && !cfg.Redis.Enabled {
		return nil, errors.New("SESSION_STORE=redis requires REDIS_ENABLED=true")
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_BYTES")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Upload = UploadConfig{
		MaxBytes:         maxUpload,
		ArchiveDir:       v.GetString("UPLOAD_ARCHIVE_DIR"),
		ArchiveRetention: parseDuration(v.GetString("UPLOAD_ARCHIVE_RETENTION"), 30*24*time.Hour),
	}

	cfg.Export = ExportConfig{PDFFont: v.GetString("EXPORT_PDF_FONT")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.RestrictedUsername = strings.TrimSpace(v.GetString("RESTRICTED_USERNAME"))

	accounts, err := parseSeedAccounts(v.GetString("SEED_ACCOUNTS"))
	if err != nil {
		return nil, err
	}
	cfg.SeedAccounts = accounts

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 3000)
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_PATH", "./dormitory.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dormitory")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_COOKIE", "rollcall_session")
	v.SetDefault("SESSION_SECURE", false)
	v.SetDefault("SESSION_STORE", SessionStoreDatabase)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("UPLOAD_MAX_BYTES", 5*1024*1024)
	v.SetDefault("UPLOAD_ARCHIVE_DIR", "")
	v.SetDefault("UPLOAD_ARCHIVE_RETENTION", "720h")
	v.SetDefault("EXPORT_PDF_FONT", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RESTRICTED_USERNAME", "deming")
	v.SetDefault("SEED_ACCOUNTS", "admin:admin123:宿舍管理員,deming:deming123:德明樓長")
}

// parseSeedAccounts reads "user:password:display name" entries separated by commas.
func parseSeedAccounts(raw string) ([]SeedAccount, error) {
	entries := splitAndTrim(raw)
	accounts := make([]SeedAccount, 0, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid SEED_ACCOUNTS entry %q, expected user:password:display", entry)
		}
		account := SeedAccount{
			Username:    strings.TrimSpace(parts[0]),
			Password:    parts[1],
			DisplayName: strings.TrimSpace(parts[2]),
		}
		if account.Username == "" || account.Password == "" {
			return nil, fmt.Errorf("invalid SEED_ACCOUNTS entry %q, username and password required", entry)
		}
		if account.DisplayName == "" {
			account.DisplayName = account.Username
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

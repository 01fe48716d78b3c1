package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Addr            string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		AllowedOrigins  []string
	}

	DatabaseConfig struct {
		URL          string
		MaxOpenConns int
	}

	// SupabaseConfig holds the backend-as-a-service credentials.
	SupabaseConfig struct {
		URL        string
		ServiceKey string
		JWTSecret  string
	}

	// StorageConfig points at the S3 compatible endpoint of the Blob Store.
	StorageConfig struct {
		Endpoint     string
		Region       string
		AccessKey    string
		SecretKey    string
		Bucket       string
		UsePathStyle bool
	}

	SMTPConfig struct {
		Host     string
		Port     int
		User     string
		Password string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	CascadeConfig struct {
		CallTimeout time.Duration
		Attempts    int
		RetryDelay  time.Duration
		LockTTL     time.Duration
	}

	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool

		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmail          mail.Address
		PasswordSetupTimeoutDelta time.Duration
		RollbarToken              string
		SendgridApiKey            string

		Server   ServerConfig
		Database DatabaseConfig
		Supabase SupabaseConfig
		Storage  StorageConfig
		SMTP     SMTPConfig
		Redis    RedisConfig
		Cascade  CascadeConfig
	}
)

// NewConfig loads the configuration from the environment, after loading `config/.env.<env>` if it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", false)
	v.SetDefault("app_name", "Banat Hawaa School")
	v.SetDefault("secret_key", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontend_base_url", "http://localhost:5173")
	v.SetDefault("default_from_email", "Banat Hawaa School <noreply@localhost>")
	v.SetDefault("password_setup_timeout", 3*24*time.Hour)
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debug_host", ":4000")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "assignment-files")
	v.SetDefault("storage.use_path_style", true)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("redis.db", 0)
	v.SetDefault("cascade.call_timeout", 10*time.Second)
	v.SetDefault("cascade.attempts", 3)
	v.SetDefault("cascade.retry_delay", 200*time.Millisecond)
	v.SetDefault("cascade.lock_ttl", 2*time.Minute)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("test_mode", true)
	}
	loadDotEnv(env)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("default_from_email"))
	if err != nil {
		log.Fatalf("config.DefaultFromEmail: %v", err)
	}

	return &Config{
		Env:      env,
		Build:    v.GetString("build"),
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("test_mode"),

		AppName:                   v.GetString("app_name"),
		SecretKey:                 v.GetString("secret_key"),
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontend_base_url"), "/"),
		DefaultFromEmail:          *from,
		PasswordSetupTimeoutDelta: v.GetDuration("password_setup_timeout"),
		RollbarToken:              v.GetString("rollbar_token"),
		SendgridApiKey:            v.GetString("sendgrid_api_key"),

		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debug_host"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			AllowedOrigins:  splitList(v.GetString("server.allowed_origins")),
		},
		Database: DatabaseConfig{
			URL:          v.GetString("database.url"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
		},
		Supabase: SupabaseConfig{
			URL:        strings.TrimRight(v.GetString("supabase.url"), "/"),
			ServiceKey: v.GetString("supabase.service_role_key"),
			JWTSecret:  v.GetString("supabase.jwt_secret"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			Bucket:       v.GetString("storage.bucket"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			User:     v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cascade: CascadeConfig{
			CallTimeout: v.GetDuration("cascade.call_timeout"),
			Attempts:    v.GetInt("cascade.attempts"),
			RetryDelay:  v.GetDuration("cascade.retry_delay"),
			LockTTL:     v.GetDuration("cascade.lock_ttl"),
		},
	}
}

// Missing lists the environment keys required to talk to the backend stores that are not set.
// In debug and test modes the database and the blob store fall back to in-memory implementations.
func (c *Config) Missing() []string {
	var keys []string
	check := func(key, val string) {
		if val == "" {
			keys = append(keys, key)
		}
	}
	check("SUPABASE_URL", c.Supabase.URL)
	check("SUPABASE_SERVICE_ROLE_KEY", c.Supabase.ServiceKey)
	check("SUPABASE_JWT_SECRET", c.Supabase.JWTSecret)
	if !(c.Debug || c.TestMode) {
		check("DATABASE_URL", c.Database.URL)
		check("STORAGE_ENDPOINT", c.Storage.Endpoint)
		check("STORAGE_ACCESS_KEY", c.Storage.AccessKey)
		check("STORAGE_SECRET_KEY", c.Storage.SecretKey)
		check("STORAGE_BUCKET", c.Storage.Bucket)
	}
	return keys
}

// StorageConfigured reports whether the S3 endpoint of the Blob Store can be used.
func (c *Config) StorageConfigured() bool {
	return c.Storage.Endpoint != "" && c.Storage.AccessKey != "" && c.Storage.SecretKey != "" && c.Storage.Bucket != ""
}

// loadDotEnv loads `config/.env.<env>` if it exists (ignore if it does not).
// CONFIG_DIR overrides the `config` directory.
func loadDotEnv(env string) {
	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("config.os.Getwd(): %v", err)
		}
		dir = filepath.Join(wd, "config")
	}

	dotEnvPath := filepath.Join(dir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

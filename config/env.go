package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	AppConfig struct {
		Name            string        `mapstructure:"name"`
		Version         string        `mapstructure:"version"`
		Port            int           `mapstructure:"port"`
		Environment     string        `mapstructure:"environment"`
		PathPrefix      string        `mapstructure:"path_prefix"`
		RequestTimeout  time.Duration `mapstructure:"request_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client.
		TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	}

	LoggerConfig struct {
		Level       string `mapstructure:"level"`
		Format      string `mapstructure:"format"`
		FilePath    string `mapstructure:"filepath"`
		MaxSize     int    `mapstructure:"max_size"`
		MaxAge      int    `mapstructure:"max_age"`
		MaxBackups  int    `mapstructure:"max_backups"`
		Compress    bool   `mapstructure:"compress"`
		LocalTime   bool   `mapstructure:"localTime"`
		Environment string
	}

	DatabaseConfig struct {
		// Type is one of mongodb, postgres or memory.
		Type           string         `mapstructure:"type"`
		MongoConfig    MongoConfig    `mapstructure:"mongo"`
		PostgresConfig PostgresConfig `mapstructure:"postgres"`
	}

	PostgresConfig struct {
		Host              string `mapstructure:"host"`
		Port              int    `mapstructure:"port"`
		ReadHost          string `mapstructure:"read_host"`
		ReadPort          int    `mapstructure:"read_port"`
		Username          string `mapstructure:"username"`
		Password          string `mapstructure:"password"`
		Database          string `mapstructure:"database"`
		SSLMode           string `mapstructure:"sslmode"`
		ConnectTimeout    int    `mapstructure:"connect_timeout"`
		MaxConns          int32  `mapstructure:"max_conns"`
		MinConns          int32  `mapstructure:"min_conns"`
		ConnMaxIdleTime   int    `mapstructure:"conn_max_idle_time"`
		ConnMaxLifetime   int    `mapstructure:"conn_max_lifetime"`
		HealthCheckPeriod int    `mapstructure:"health_check_period"`
	}

	MongoConfig struct {
		// Type is the deployment kind: single, replica_set or sharded.
		Type            string `mapstructure:"type"`
		URI             string `mapstructure:"uri"`
		ReadURI         string `mapstructure:"read_uri"`
		Database        string `mapstructure:"database"`
		ConnectTimeout  int    `mapstructure:"connect_timeout"`
		MaxPoolSize     uint64 `mapstructure:"max_pool_size"`
		MinPoolSize     uint64 `mapstructure:"min_pool_size"`
		MaxConnIdleTime int    `mapstructure:"max_conn_idle_time"`
	}

	AdminConfig struct {
		Name     string `mapstructure:"name"`
		Email    string `mapstructure:"email"`
		Password string `mapstructure:"password"`
	}

	AuthConfig struct {
		PrivateKeyPath        string        `mapstructure:"private_key_path"`
		PublicKeyPath         string        `mapstructure:"public_key_path"`
		GenerateKeysIfMissing bool          `mapstructure:"generate_keys_if_missing"`
		TokenTTL              time.Duration `mapstructure:"token_ttl"`
		Issuer                string        `mapstructure:"issuer"`
		BcryptCost            int           `mapstructure:"bcrypt_cost"`
		BootstrapAdmin        AdminConfig   `mapstructure:"bootstrap_admin"`
	}

	CORSConfig struct {
		Enabled          bool     `mapstructure:"enabled"`
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		ExposedHeaders   []string `mapstructure:"exposed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	}

	RateLimitConfig struct {
		Enabled  bool          `mapstructure:"enabled"`
		Requests int           `mapstructure:"requests"`
		Window   time.Duration `mapstructure:"window"`
		Burst    int           `mapstructure:"burst"`
	}

	CacheConfig struct {
		Enabled    bool   `mapstructure:"enabled"`
		Type       string `mapstructure:"type"`
		Capacity   int    `mapstructure:"capacity"`
		DefaultTTL int    `mapstructure:"default_ttl"`
		RedisTTL   int    `mapstructure:"redis_ttl"`
	}

	RedisConfig struct {
		Enabled    bool   `mapstructure:"enabled"`
		Type       string `mapstructure:"type"`
		Addrs      string `mapstructure:"addrs"`
		MasterName string `mapstructure:"master_name"`
		Password   string `mapstructure:"password"`
	}

	MetricsConfig struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	}

	GRPCConfig struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	}
)

type Env struct {
	AppConfig       AppConfig       `mapstructure:"app"`
	LoggerConfig    LoggerConfig    `mapstructure:"logging"`
	DatabaseConfig  DatabaseConfig  `mapstructure:"database"`
	AuthConfig      AuthConfig      `mapstructure:"auth"`
	CORSConfig      CORSConfig      `mapstructure:"cors"`
	RateLimitConfig RateLimitConfig `mapstructure:"rate_limit"`
	CacheConfig     CacheConfig     `mapstructure:"cache"`
	RedisConfig     RedisConfig     `mapstructure:"redis"`
	MetricsConfig   MetricsConfig   `mapstructure:"metrics"`
	GRPCConfig      GRPCConfig      `mapstructure:"grpc"`
}

var env *Env

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "movie-rating-api")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.path_prefix", "/api/v1")
	v.SetDefault("app.request_timeout", 10*time.Second)
	v.SetDefault("app.shutdown_timeout", 15*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.filepath", "logs/app.log")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_age", 7)
	v.SetDefault("logging.max_backups", 3)

	v.SetDefault("database.type", "mongodb")
	v.SetDefault("database.mongo.type", "single")
	v.SetDefault("database.mongo.database", "movie_rating")

	v.SetDefault("auth.private_key_path", "keys/private.pem")
	v.SetDefault("auth.public_key_path", "keys/public.pem")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("rate_limit.requests", 20)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("cache.type", "LRU")
	v.SetDefault("cache.capacity", 1000)
	v.SetDefault("cache.default_ttl", 60)
	v.SetDefault("cache.redis_ttl", 300)
	v.SetDefault("redis.type", "NORMAL")

	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("grpc.port", 9090)
}

// Load reads config.yaml from dir, overlays ENV_* variables and returns the decoded Env.
func Load(dir string) (*Env, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	// ENV_APP_PORT overrides app.port, ENV_DATABASE_MONGO_URI overrides database.mongo.uri.
	v.SetEnvPrefix("env")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var e Env
	if err := v.Unmarshal(&e); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	e.LoggerConfig.Environment = e.AppConfig.Environment
	if e.AppConfig.Environment == "production" && e.LoggerConfig.Level == "debug" {
		e.LoggerConfig.Level = "info"
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Env) validate() error {
	switch e.DatabaseConfig.Type {
	case "mongodb", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database type %q", e.DatabaseConfig.Type)
	}
	if e.AuthConfig.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if e.AuthConfig.PrivateKeyPath == "" {
		return errors.New("auth.private_key_path is required")
	}
	return nil
}

func GetEnv() *Env {
	if env != nil {
		return env
	}
	loaded, err := Load("./config")
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}
	env = loaded
	printStartupConfig(env)
	return env
}

func printStartupConfig(env *Env) {
	line := strings.Repeat("=", 40)
	fmt.Println(line)
	fmt.Println("🎬 Movie Rating API")
	fmt.Println(line)

	fmt.Printf("%-15s: %s\n", "App Name", env.AppConfig.Name)
	fmt.Printf("%-15s: %s\n", "Version", env.AppConfig.Version)
	fmt.Printf("%-15s: %s\n", "Environment", env.AppConfig.Environment)
	fmt.Printf("%-15s: %d\n", "Port", env.AppConfig.Port)
	fmt.Printf("%-15s: %s\n", "Path Prefix", env.AppConfig.PathPrefix)
	fmt.Printf("%-15s: %s\n", "Database", env.DatabaseConfig.Type)
	fmt.Printf("%-15s: %s\n", "Log Level", env.LoggerConfig.Level)

	fmt.Println(line)
}

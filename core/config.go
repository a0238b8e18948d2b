package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage engines
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		LoginRateLimit            int
		LoginRateWindow           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	StorageConfig struct {
		Engine   string
		CacheTTL time.Duration
	}

	GroupsConfig struct {
		CallTimeout    time.Duration
		MaxConcurrency int
		WorkspaceTTL   time.Duration
	}

	ChartsConfig struct {
		BarPixelBudget float64
		PieRadius      float64
	}

	// SeedConfig controls the demo data of the memory and redis engines.
	SeedConfig struct {
		Demo          bool
		AdminPassword string
	}

	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		RollbarToken string
		WorkDir      string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Storage  StorageConfig
		Groups   GroupsConfig
		Charts   ChartsConfig
		Seed     SeedConfig
	}
)

func (dc DatabaseConfig) Address() string {
	return dc.Host + ":" + dc.Port
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Aula")
	v.SetDefault("secretKey", "k2v!9s@rmq0c7-bnx4^h(j3)w=lzp8t$e#u6f+d1%ag5y_o")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.loginRateLimit", 10)
	v.SetDefault("server.loginRateWindow", time.Minute)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "aula")
	v.SetDefault("database.user", "aula")
	v.SetDefault("database.password", "aula")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.engine", StorageMemory)
	v.SetDefault("storage.cacheTTL", time.Minute)

	v.SetDefault("groups.callTimeout", 5*time.Second)
	v.SetDefault("groups.maxConcurrency", 8)
	v.SetDefault("groups.workspaceTTL", 30*time.Minute)

	v.SetDefault("charts.barPixelBudget", 180.0)
	v.SetDefault("charts.pieRadius", 50.0)

	v.SetDefault("seed.demo", true)
	v.SetDefault("seed.adminPassword", "")
}

// NewConfig reads the app configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the uppercased env name, e.g. `PROD_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := os.Getenv("WORKDIR")
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("config.os.Getwd(): %v", err)
		}
		workDir = wd
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      workDir,
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			LoginRateLimit:            v.GetInt("server.loginRateLimit"),
			LoginRateWindow:           v.GetDuration("server.loginRateWindow"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Engine:   v.GetString("storage.engine"),
			CacheTTL: v.GetDuration("storage.cacheTTL"),
		},
		Groups: GroupsConfig{
			CallTimeout:    v.GetDuration("groups.callTimeout"),
			MaxConcurrency: v.GetInt("groups.maxConcurrency"),
			WorkspaceTTL:   v.GetDuration("groups.workspaceTTL"),
		},
		Charts: ChartsConfig{
			BarPixelBudget: v.GetFloat64("charts.barPixelBudget"),
			PieRadius:      v.GetFloat64("charts.pieRadius"),
		},
		Seed: SeedConfig{
			Demo:          v.GetBool("seed.demo"),
			AdminPassword: v.GetString("seed.adminPassword"),
		},
	}
}

// NewTestConfig returns the defaults without reading the environment.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{
		Env:       "TEST",
		Build:     v.GetString("build"),
		TestMode:  true,
		AppName:   v.GetString("appName"),
		SecretKey: v.GetString("secretKey"),
		Server: ServerConfig{
			Address:                   v.GetString("server.address"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			LoginRateLimit:            v.GetInt("server.loginRateLimit"),
			LoginRateWindow:           v.GetDuration("server.loginRateWindow"),
		},
		Storage: StorageConfig{Engine: StorageMemory, CacheTTL: v.GetDuration("storage.cacheTTL")},
		Groups: GroupsConfig{
			CallTimeout:    v.GetDuration("groups.callTimeout"),
			MaxConcurrency: v.GetInt("groups.maxConcurrency"),
			WorkspaceTTL:   v.GetDuration("groups.workspaceTTL"),
		},
		Charts: ChartsConfig{
			BarPixelBudget: v.GetFloat64("charts.barPixelBudget"),
			PieRadius:      v.GetFloat64("charts.pieRadius"),
		},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (env=%s, build=%s, storage=%s)", c.AppName, c.Env, c.Build, c.Storage.Engine)
}

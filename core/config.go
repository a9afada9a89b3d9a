package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridApiKey   string
		Server           ServerConfig
		Database         DatabaseConfig
	}

	ServerConfig struct {
		Host               string
		DebugHost          string
		ReadTimeout        time.Duration
		WriteTimeout       time.Duration
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite3
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite3 only
		MaxOpenConns  int
		MaxIdleConns  int
	}
)

// Address returns the "host:port" of the database server.
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c DatabaseConfig) IsSQLite() bool {
	return c.Engine == EngineSQLite
}

const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite3"
)

// NewConfig loads the app config from the environment.
// Variables are prefixed with the current ENV, eg: DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Enrollment")
	v.SetDefault("secretKey", "ch4nge-me:w9q$k3v!m2z#r8x@t5")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("defaultFromName", "Enrollment")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 8*time.Hour)

	v.SetDefault("database.engine", EnginePostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "enrollment")
	v.SetDefault("database.user", "enrollment")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", false)
	v.SetDefault("database.path", "enrollment.db")
	v.SetDefault("database.maxOpenConns", 20)
	v.SetDefault("database.maxIdleConns", 5)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:      env,
		Build:    v.GetString("build"),
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		AppName:  v.GetString("appName"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		SecretKey:      v.GetString("secretKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ReadTimeout:        v.GetDuration("server.readTimeout"),
			WriteTimeout:       v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
			MaxOpenConns:  v.GetInt("database.maxOpenConns"),
			MaxIdleConns:  v.GetInt("database.maxIdleConns"),
		},
	}
}

// configDir is where the .env.<env> files live; CONFIG_DIR overrides "./config".
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}

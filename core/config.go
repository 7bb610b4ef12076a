package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const devSecretKey = "s3cr3t-k3y-f0r-l0cal-d3v3l0pm3nt-0nly!!"

var ErrInsecureSecretKey = errors.New("secretKey must be set outside debug mode")

type (
	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
		SessionCookieName  string
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

	Config struct {
		Env             string
		Build           string
		Debug           bool
		TestMode        bool
		AppName         string
		SecretKey       string
		FrontendBaseURL string
		Storage         string // postgres | memory
		SendgridApiKey  string
		RollbarToken    string

		Server   ServerConfig
		Database DatabaseConfig

		defaultFromEmail string
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// InviteURL builds the public landing URL of an invite link.
func (c *Config) InviteURL(code string) string {
	return fmt.Sprintf("%s/invite/%s", strings.TrimRight(c.FrontendBaseURL, "/"), code)
}

// NewConfig loads the configuration of the current ENV: DEV (local; default), TEST, QA or PROD.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "dev")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "SchoolCal")
	v.SetDefault("secretKey", devSecretKey)
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("storage", "postgres")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_debugHost", ":4000")
	v.SetDefault("server_jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server_shutdownTimeout", 5*time.Second)
	v.SetDefault("server_sessionCookieName", "token")

	v.SetDefault("database_engine", "postgres")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", "5432")
	v.SetDefault("database_name", "schoolcal")
	v.SetDefault("database_user", "schoolcal")
	v.SetDefault("database_password", "schoolcal")
	v.SetDefault("database_adminUser", "")
	v.SetDefault("database_adminPassword", "")
	v.SetDefault("database_disableTls", true)

	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseUrl"),
		Storage:         strings.ToLower(v.GetString("storage")),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:            v.GetString("server_address"),
			Host:               v.GetString("server_host"),
			DebugHost:          v.GetString("server_debugHost"),
			JWTExpirationDelta: v.GetDuration("server_jwtExpirationDelta"),
			ShutdownTimeout:    v.GetDuration("server_shutdownTimeout"),
			SessionCookieName:  v.GetString("server_sessionCookieName"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database_engine"),
			Host:          v.GetString("database_host"),
			Port:          v.GetString("database_port"),
			Name:          v.GetString("database_name"),
			User:          v.GetString("database_user"),
			Password:      v.GetString("database_password"),
			AdminUser:     v.GetString("database_adminUser"),
			AdminPassword: v.GetString("database_adminPassword"),
			DisableTLS:    v.GetBool("database_disableTls"),
		},
		defaultFromEmail: v.GetString("defaultFromEmail"),
	}
	if err = conf.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

// Validate rejects unsafe settings: the dev secret key is only accepted in debug mode.
func (c *Config) Validate() error {
	if !c.Debug && (c.SecretKey == "" || c.SecretKey == devSecretKey) {
		return ErrInsecureSecretKey
	}
	return nil
}

// NewTestConfig returns the TEST configuration without touching the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:             "TEST",
		Build:           "test",
		Debug:           true,
		TestMode:        true,
		AppName:         "SchoolCal",
		SecretKey:       "t3st-s3cr3t-k3y",
		FrontendBaseURL: "http://localhost:3000",
		Storage:         "memory",
		Server: ServerConfig{
			Address:            ":0",
			Host:               "localhost",
			JWTExpirationDelta: time.Hour,
			ShutdownTimeout:    time.Second,
			SessionCookieName:  "token",
		},
		defaultFromEmail: "noreply@localhost",
	}
}

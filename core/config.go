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
		Address         string
		Host            string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	StorageConfig struct {
		Engine      string // memory | postgres | sqlite | redis
		DSN         string
		RedisURL    string
		RedisPrefix string
	}

	SessionConfig struct {
		Latency      time.Duration
		RememberFor  time.Duration
		CookieSecure bool
	}

	WebConfig struct {
		FlashDismissAfter time.Duration
		NegotiateLanguage bool // first visit: Accept-Language before DefaultLanguage
	}

	Config struct {
		AppName          string
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		DefaultLanguage  string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridApiKey   string
		WorkDir          string

		Server  ServerConfig
		Storage StorageConfig
		Session SessionConfig
		Web     WebConfig
	}
)

// NewConfig reads the configuration from the environment, optionally loaded from `config/.env.<env>`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "TA Desk")
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "k3v9-q)ub$+1x=ta&desk#p0(z!w)#*d7(#ye2h^$lam8onr")
	v.SetDefault("defaultLanguage", "zh-CN")
	v.SetDefault("defaultFromEmail", "TA Desk <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_readTimeout", 5*time.Second)
	v.SetDefault("server_writeTimeout", 10*time.Second)
	v.SetDefault("server_shutdownTimeout", 5*time.Second)

	v.SetDefault("storage_engine", "memory")
	v.SetDefault("storage_dsn", "")
	v.SetDefault("storage_redisUrl", "redis://localhost:6379/0")
	v.SetDefault("storage_redisPrefix", "tadesk:")

	v.SetDefault("session_latency", time.Duration(0))
	v.SetDefault("session_rememberFor", 365*24*time.Hour)
	v.SetDefault("session_cookieSecure", false)

	v.SetDefault("web_flashDismissAfter", 5*time.Second)
	v.SetDefault("web_negotiateLanguage", false)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		DefaultLanguage:  v.GetString("defaultLanguage"),
		DefaultFromEmail: *fromEmail,
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		WorkDir:          wd,
		Server: ServerConfig{
			Address:         v.GetString("server_address"),
			Host:            v.GetString("server_host"),
			ReadTimeout:     v.GetDuration("server_readTimeout"),
			WriteTimeout:    v.GetDuration("server_writeTimeout"),
			ShutdownTimeout: v.GetDuration("server_shutdownTimeout"),
		},
		Storage: StorageConfig{
			Engine:      strings.ToLower(v.GetString("storage_engine")),
			DSN:         v.GetString("storage_dsn"),
			RedisURL:    v.GetString("storage_redisUrl"),
			RedisPrefix: v.GetString("storage_redisPrefix"),
		},
		Session: SessionConfig{
			Latency:      v.GetDuration("session_latency"),
			RememberFor:  v.GetDuration("session_rememberFor"),
			CookieSecure: v.GetBool("session_cookieSecure"),
		},
		Web: WebConfig{
			FlashDismissAfter: v.GetDuration("web_flashDismissAfter"),
			NegotiateLanguage: v.GetBool("web_negotiateLanguage"),
		},
	}
}

// Getwd walks up from the working directory until it finds the module root (the directory holding go.mod).
// go-test changes the working directory to the package being tested, so the root cannot be assumed.
// Falls back to the working directory when no go.mod is found (e.g. a deployed binary).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

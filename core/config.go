package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Run modes, each backed by its own database file.
const (
	ModeMain = "main"
	ModeDemo = "demo"
	ModeTest = "test"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		RollbarToken     string
		SendgridAPIKey   string
		DefaultFromEmail mail.Address
		BcryptCost       int
		Database         DatabaseConfig
		SuperUser        SuperUserConfig
		Password         PasswordConfig
		Policy           PolicyConfig
	}

	DatabaseConfig struct {
		Files       map[string]string // {mode: path}
		BusyTimeout time.Duration
	}

	SuperUserConfig struct {
		FullName string
		Email    string
		Password string
	}

	PasswordConfig struct {
		Strict bool
	}

	PolicyConfig struct {
		File string // rego module replacing the built-in object policy
	}
)

// DatabaseFile returns the database path for the given mode.
func (c DatabaseConfig) DatabaseFile(mode string) (string, error) {
	if mode == "" {
		mode = ModeMain
	}
	path, ok := c.Files[mode]
	if !ok || path == "" {
		return "", errors.Errorf("unknown mode %q", mode)
	}
	return path, nil
}

func newViper() (*viper.Viper, string, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Epic Events")
	v.SetDefault("build", "dev")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@epicevents.local")
	v.SetDefault("bcryptCost", bcrypt.DefaultCost)
	v.SetDefault("database.main", "epic_events.db")
	v.SetDefault("database.demo", "demo_epic_event.db")
	v.SetDefault("database.test", "test_epic_event.db")
	v.SetDefault("database.busyTimeout", 5*time.Second)
	v.SetDefault("superUser.fullName", "Admin User")
	v.SetDefault("superUser.email", "admin@example.com")
	v.SetDefault("superUser.password", "adminpass")
	v.SetDefault("password.strict", false)
	v.SetDefault("policy.file", "")
	v.SetDefault("testMode", false)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	confDir := os.Getenv("CONFIG_DIR")
	if confDir == "" {
		confDir = "config"
	}
	dotEnvPath := filepath.Join(confDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, "", errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, "", errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()
	return v, env, nil
}

// LoadConfig reads the configuration from defaults, the optional dotenv file and the environment.
func LoadConfig() (*Config, error) {
	v, env, err := newViper()
	if err != nil {
		return nil, err
	}

	fromEmail, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing defaultFromEmail")
	}

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: *fromEmail,
		BcryptCost:       v.GetInt("bcryptCost"),
		Database: DatabaseConfig{
			Files: map[string]string{
				ModeMain: v.GetString("database.main"),
				ModeDemo: v.GetString("database.demo"),
				ModeTest: v.GetString("database.test"),
			},
			BusyTimeout: v.GetDuration("database.busyTimeout"),
		},
		SuperUser: SuperUserConfig{
			FullName: v.GetString("superUser.fullName"),
			Email:    v.GetString("superUser.email"),
			Password: v.GetString("superUser.password"),
		},
		Password: PasswordConfig{Strict: v.GetBool("password.strict")},
		Policy:   PolicyConfig{File: v.GetString("policy.file")},
	}, nil
}

// NewConfig is LoadConfig for callers that cannot go on without a configuration.
func NewConfig() *Config {
	conf, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return conf
}

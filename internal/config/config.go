// Package config loads the service configuration once at process start.
// Values come from defaults, an optional .env file, the environment and
// command-line flags, in increasing order of priority.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds every setting the service reads at startup.
// It is built by New and must be treated as read-only afterwards.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	AIAPIKey            string        `env:"AI_API_KEY"`
	AIBaseURL           string        `env:"AI_BASE_URL" validate:"url"`
	AIModel             string        `env:"AI_MODEL" validate:"required"`

	// SecretKey is read but nothing signs with it yet.
	SecretKey string `env:"SECRET_KEY"`

	BcryptCost int `env:"BCRYPT_COST" validate:"min=4,max=31"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	DBConnectionTimeout: 10 * time.Second,
	AIBaseURL:           "https://api.openai.com/v1",
	AIModel:             "gpt-3.5-turbo",
	BcryptCost:          bcrypt.DefaultCost,
}

// InitOption customizes how New builds the configuration.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing skips command-line flags, which tests rely on.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses the given arguments instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// New builds and validates a Config.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	err = env.Parse(values)
	if err != nil {
		return nil, err
	}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		if err := values.parseFlags(options.args); err != nil {
			return nil, err
		}
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

// applyDefaults fills every zero-valued field of values from defaults.
func applyDefaults(values *Config, defaults Config) {
	if values.RunAddr == "" {
		values.RunAddr = defaults.RunAddr
	}

	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}

	if values.DatabaseURL == "" {
		values.DatabaseURL = defaults.DatabaseURL
	}

	if values.DBConnectionTimeout == 0 {
		values.DBConnectionTimeout = defaults.DBConnectionTimeout
	}

	if values.AIAPIKey == "" {
		values.AIAPIKey = defaults.AIAPIKey
	}

	if values.AIBaseURL == "" {
		values.AIBaseURL = defaults.AIBaseURL
	}

	if values.AIModel == "" {
		values.AIModel = defaults.AIModel
	}

	if values.SecretKey == "" {
		values.SecretKey = defaults.SecretKey
	}

	if values.BcryptCost == 0 {
		values.BcryptCost = defaults.BcryptCost
	}
}

func (c *Config) parseFlags(args []string) error {
	flagSet := flag.NewFlagSet("docsvc", flag.ContinueOnError)
	flagSet.StringVar(&c.RunAddr, "a", c.RunAddr, "address and port to run server")
	flagSet.StringVar(&c.LogLevel, "l", c.LogLevel, "logger level")
	flagSet.StringVar(&c.DatabaseURL, "d", c.DatabaseURL, "A string with the database connection details")

	return flagSet.Parse(args)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

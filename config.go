package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/erc7824/typedsigner/pkg/eip712"
	"github.com/erc7824/typedsigner/pkg/log"
	"github.com/erc7824/typedsigner/pkg/sign"
)

const (
	configDirPathEnv     = "TYPEDSIGNER_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
)

// Config represents the overall application configuration
type Config struct {
	PrivateKey      string `env:"TYPEDSIGNER_PRIVATE_KEY" validate:"omitempty,hexadecimal"`
	StrictEncoding  bool   `env:"TYPEDSIGNER_STRICT_ENCODING" env-default:"false"`
	PayloadEncoding string `env:"TYPEDSIGNER_PAYLOAD_ENCODING" env-default:"text_utf8" validate:"oneof=hexadecimal text_utf8"`
	HashFunction    string `env:"TYPEDSIGNER_HASH_FUNCTION" env-default:"noop" validate:"oneof=noop keccak256"`
	DBPath          string `env:"TYPEDSIGNER_DB_PATH" env-default:"typedsigner.db" validate:"required"`

	Log log.Config
}

// LoadDotEnv loads <TYPEDSIGNER_CONFIG_DIR_PATH>/.env into the environment.
// A missing file is not an error.
func LoadDotEnv() (string, error) {
	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	configDotEnvPath := filepath.Join(configDirPath, ".env")
	return configDotEnvPath, godotenv.Load(configDotEnvPath)
}

// LoadConfig builds configuration from environment variables
func LoadConfig() (*Config, error) {
	var conf Config
	if err := cleanenv.ReadEnv(&conf); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	if err := validator.New().Struct(conf); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &conf, nil
}

// EncoderOptions returns the eip712 options selected by the configuration.
func (c *Config) EncoderOptions() []eip712.Option {
	if c.StrictEncoding {
		return []eip712.Option{eip712.WithPolicy(eip712.PolicyStrict)}
	}
	return nil
}

func (c *Config) MessageEncoding() (sign.PayloadEncoding, error) {
	return sign.ParsePayloadEncoding(c.PayloadEncoding)
}

func (c *Config) TypedDataHashFunction() (sign.HashFunction, error) {
	return sign.ParseHashFunction(c.HashFunction)
}

// NewSigner builds a signer from the configured key. Without one it asks
// for the key on the terminal.
func (c *Config) NewSigner(logger log.Logger) (*sign.LocalSigner, error) {
	privateKeyHex := c.PrivateKey
	if privateKeyHex == "" {
		key, err := readPrivateKey()
		if err != nil {
			return nil, err
		}
		privateKeyHex = key
	}

	signer, err := sign.NewEthereumSigner(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	return sign.NewLocalSigner(signer, logger), nil
}

func readPrivateKey() (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("TYPEDSIGNER_PRIVATE_KEY environment variable is required")
	}

	fmt.Fprint(os.Stderr, "Paste private key: ")
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read private key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}

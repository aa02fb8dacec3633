package main

import (
	"fmt"
	"os"

	"github.com/erc7824/typedsigner/pkg/log"
)

const usage = `Usage: typedsigner <command> [arguments]

Commands:
  hash <file>            print the EIP-712 hashes of a typed-data document
  sign <file>            hash and sign a typed-data document
  permit [flags]         build, hash and sign a USDC permit
  sign-message <text>    sign a message with Keccak-256
  history [limit]        list recorded signatures
`

func main() {
	envPath, envErr := LoadDotEnv()

	conf, err := LoadConfig()
	if err != nil {
		log.NewZapLogger(log.Config{}).Fatal("failed to load configuration", "error", err)
	}

	logger := log.NewZapLogger(conf.Log).WithName("typedsigner")
	if envErr != nil {
		logger.Debug(".env file not found", "path", envPath)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	runCli(logger, conf, os.Args[1], os.Args[2:])
}

func runCli(logger log.Logger, conf *Config, name string, args []string) {
	app := NewApp(conf, logger, os.Stdout)
	defer app.Close()

	var err error
	switch name {
	case "hash":
		err = app.runHash(args)
	case "sign":
		err = app.runSign(args)
	case "permit":
		err = app.runPermit(args)
	case "sign-message":
		err = app.runSignMessage(args)
	case "history":
		err = app.runHistory(args)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
	default:
		logger.Fatal("Unknown CLI command", "name", name)
	}

	if err != nil {
		app.Close()
		logger.Fatal("command failed", "name", name, "error", err)
	}
}

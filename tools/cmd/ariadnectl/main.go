package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/urfave/cli.v1"
)

var (
	// Git information set by linker
	gitCommit string
	app       = &cli.App{
		Name:        filepath.Base(os.Args[0]),
		Usage:       "Ariadne committee selection tool",
		Version:     version(),
		Writer:      os.Stdout,
		HideVersion: true,
	}

	configFlag   = cli.StringFlag{Name: "config", Usage: "TOML configuration file, defaults apply to anything it omits"}
	dbFlag       = cli.StringFlag{Name: "db", Usage: "sqlite database with the db-sync schema"}
	mockFlag     = cli.StringFlag{Name: "mock", Usage: "YAML epoch rotation file, used instead of --db"}
	vrfKeyFlag   = cli.StringFlag{Name: "vrfkey", Usage: "hex secp256k1 secret for deriving --mock epoch nonces"}
	logLevelFlag = cli.StringFlag{Name: "loglevel", Value: "warning", Usage: "none, error, warning, info, debug or trace"}
	logJSONFlag  = cli.BoolFlag{Name: "logjson", Usage: "log json objects rather than console text"}
)

func init() {
	app.CommandNotFound = func(ctx *cli.Context, cmd string) {
		fmt.Fprintf(os.Stderr, "No such command: %s\n", cmd)
		os.Exit(1)
	}

	app.Flags = []cli.Flag{configFlag, dbFlag, mockFlag, vrfKeyFlag, logLevelFlag, logJSONFlag}

	app.Commands = []cli.Command{
		parametersCommand,
		registrationsCommand,
		committeeCommand,
		simulateCommand,
	}
}

func version() string {
	if gitCommit == "" {
		return "dev"
	}
	if len(gitCommit) > 8 {
		return "dev-" + gitCommit[:8]
	}
	return "dev-" + gitCommit
}

func main() {
	exit(app.Run(os.Args))
}

func exit(err interface{}) {
	if err == nil {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

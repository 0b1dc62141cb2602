// Command crier runs operator-defined briefings: it gathers context from
// configured connectors and synthesizes a briefing document.
//
// Usage:
//
//	crier brief --config briefing.yaml --connectors ./connectors
//	crier validate --config briefing.yaml
//	crier pack validate ./packs/sales-daily
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/oakmund/crier/pkg/connector"
	"github.com/oakmund/crier/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version    VersionCmd    `cmd:"" help:"Show version information."`
	Brief      BriefCmd      `cmd:"" help:"Run a briefing from a configuration file."`
	Validate   ValidateCmd   `cmd:"" help:"Validate a briefing configuration file."`
	Connectors ConnectorsCmd `cmd:"" help:"List available connectors."`
	Pack       PackCmd       `cmd:"" help:"Work with briefing packs."`
	History    HistoryCmd    `cmd:"" help:"Inspect recorded briefing runs."`

	ConnectorsDir string `name:"connectors" help:"Directory holding connector definitions." default:"connectors" type:"path"`
	LogLevel      string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile       string `help:"Log file path (empty = stderr)."`
	LogFormat     string `help:"Log format (simple or verbose)." default:"simple"`
}

func initLogger(cli *CLI) (func(), error) {
	level := cli.LogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	output := os.Stderr
	cleanup := func() {}
	if cli.LogFile != "" {
		file, closeFile, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = closeFile
	}

	logger.Init(logger.ParseLevel(level), output, cli.LogFormat)
	return cleanup, nil
}

func main() {
	_ = connector.LoadDotEnv()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("crier"),
		kong.Description("Crier - briefing orchestration from declarative connector sources"),
		kong.UsageOnError(),
	)

	cleanup, err := initLogger(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

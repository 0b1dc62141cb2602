package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/oakmund/crier/pkg/aggregator"
	"github.com/oakmund/crier/pkg/briefing"
	"github.com/oakmund/crier/pkg/config"
	"github.com/oakmund/crier/pkg/connector"
	"github.com/oakmund/crier/pkg/pack"
)

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("crier version %s\n", version)
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// BriefCmd runs one briefing end to end.
type BriefCmd struct {
	Config  string `short:"c" required:"" help:"Path to briefing configuration file." type:"path"`
	Output  string `short:"o" help:"Write the briefing to a file instead of stdout." type:"path"`
	History string `help:"SQLite database recording briefing runs (empty = no history)." type:"path"`
}

func (c *BriefCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	registry := connector.NewRegistry(connector.DirLoader(cli.ConnectorsDir))
	engine := aggregator.NewEngine(registry)

	opts := []briefing.RunnerOption{}
	if c.History != "" {
		store, err := briefing.OpenStore(c.History)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, briefing.WithStore(store))
	}

	run, err := briefing.NewRunner(engine, opts...).Run(ctx, cfg)
	if err != nil {
		return err
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, []byte(run.Content), 0644); err != nil {
			return fmt.Errorf("failed to write briefing: %w", err)
		}
		fmt.Printf("Briefing written to %s (%d sources, %d failed)\n", c.Output, len(run.Results), run.Failed)
		return nil
	}

	fmt.Print(run.Content)
	return nil
}

// ValidateCmd validates a briefing configuration file.
type ValidateCmd struct {
	Config string `short:"c" required:"" help:"Path to briefing configuration file." type:"path"`
}

func (c *ValidateCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration %q is valid (%d sources)\n", cfg.ID, len(cfg.Sources))
	return nil
}

// ConnectorsCmd lists the connectors available to briefings.
type ConnectorsCmd struct{}

func (c *ConnectorsCmd) Run(cli *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	registry := connector.NewRegistry(connector.DirLoader(cli.ConnectorsDir))
	if err := registry.Load(ctx); err != nil {
		return err
	}

	ids := registry.IDs()
	if len(ids) == 0 {
		fmt.Println("No connectors defined.")
		return nil
	}

	for _, id := range ids {
		def, err := registry.Get(id)
		if err != nil {
			return err
		}
		desc := def.Description
		if desc == "" {
			desc = "-"
		}
		fmt.Printf("%-20s %-10s %s\n", def.ID, def.Transport, desc)
	}
	return nil
}

// PackCmd groups pack operations.
type PackCmd struct {
	Validate PackValidateCmd `cmd:"" help:"Validate a pack bundle directory."`
	Install  PackInstallCmd  `cmd:"" help:"Validate and install a pack bundle."`
}

// PackValidateCmd validates a pack bundle directory and reports every
// violation it finds.
type PackValidateCmd struct {
	Dir string `arg:"" help:"Pack bundle directory." type:"path"`
}

func (c *PackValidateCmd) Run() error {
	bundle, err := pack.LoadDir(c.Dir)
	if err != nil {
		return err
	}

	result := pack.Validate(bundle)
	if result.Valid {
		fmt.Printf("Pack %q is valid\n", bundle.Manifest.ID)
		return nil
	}

	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  - %s\n", e)
	}
	return fmt.Errorf("pack validation failed with %d error(s)", len(result.Errors))
}

// PackInstallCmd installs a pack bundle into the local packs directory.
type PackInstallCmd struct {
	Dir      string `arg:"" help:"Pack bundle directory." type:"path"`
	PacksDir string `name:"packs-dir" help:"Destination packs directory." default:".crier/packs" type:"path"`
}

func (c *PackInstallCmd) Run() error {
	bundle, err := pack.LoadDir(c.Dir)
	if err != nil {
		return err
	}

	installed, err := pack.Install(bundle, c.PacksDir)
	if err != nil {
		return err
	}
	fmt.Printf("Installed pack %q to %s\n", bundle.Manifest.ID, installed)
	return nil
}

// HistoryCmd groups run history operations.
type HistoryCmd struct {
	List  HistoryListCmd  `cmd:"" help:"List recorded briefing runs."`
	Show  HistoryShowCmd  `cmd:"" help:"Show one recorded briefing run."`
	Prune HistoryPruneCmd `cmd:"" help:"Delete all but the most recent runs."`

	DB string `help:"SQLite run history database." default:".crier/runs.db" type:"path"`
}

// HistoryListCmd lists recorded runs, newest first.
type HistoryListCmd struct {
	Limit int `help:"Maximum number of runs to show." default:"20"`
}

func (c *HistoryListCmd) Run(parent *HistoryCmd) error {
	store, err := briefing.OpenStore(parent.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  %-20s %d sources (%d failed)\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.ConfigID,
			len(run.Results), run.Failed)
	}
	return nil
}

// HistoryShowCmd prints one stored briefing.
type HistoryShowCmd struct {
	ID string `arg:"" help:"Run id."`
}

func (c *HistoryShowCmd) Run(parent *HistoryCmd) error {
	store, err := briefing.OpenStore(parent.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(context.Background(), c.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Run:     %s\n", run.ID)
	fmt.Printf("Config:  %s\n", run.ConfigID)
	fmt.Printf("Created: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Sources: %d (%d failed)\n\n", len(run.Results), run.Failed)
	fmt.Println(strings.TrimRight(run.Content, "\n"))
	return nil
}

// HistoryPruneCmd trims the run history.
type HistoryPruneCmd struct {
	Keep int `help:"Number of most recent runs to keep." default:"50"`
}

func (c *HistoryPruneCmd) Run(parent *HistoryCmd) error {
	store, err := briefing.OpenStore(parent.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.Prune(context.Background(), c.Keep)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d run(s)\n", deleted)
	return nil
}

// Package cli implements the misoul CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/misoul/internal/codec"
	"github.com/rcliao/misoul/internal/config"
	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/logging"
	"github.com/rcliao/misoul/internal/repository"
	"github.com/rcliao/misoul/internal/rpc"
	"github.com/rcliao/misoul/internal/store"
)

var (
	configPath string
	dbPath     string
	remoteAddr string
	ownerFlag  string
	formatFlag string
	levelFlag  string

	cfg      *config.Config
	logger   = zap.NewNop()
	logLevel zap.AtomicLevel
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "misoul",
	Short: "A memory vault for text and media memories",
	Long: "Keep a journal of text, image, video, audio and file memories. Memories live in a local " +
		"SQLite database or behind a record store started with `misoul serve`.",
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.misoul/config.yaml)")
	pf.StringVarP(&dbPath, "db", "d", "", "Database path (default: $MISOUL_DB or ~/.misoul/memory.db)")
	pf.StringVarP(&remoteAddr, "remote", "r", "", "Record store address host:port (default: $MISOUL_REMOTE, local database when empty)")
	pf.StringVarP(&ownerFlag, "owner", "u", "", "Owner whose memories to use (default: $MISOUL_OWNER)")
	pf.StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	pf.StringVar(&levelFlag, "log-level", "", "Log level: debug, info, warn, error")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath, cmd.Flags().Changed("config"), nil)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	if remoteAddr != "" {
		c.Remote = remoteAddr
	}
	if ownerFlag != "" {
		c.Owner = ownerFlag
	}
	if levelFlag != "" {
		c.LogLevel = strings.ToLower(levelFlag)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if formatFlag != "json" && formatFlag != "text" {
		return fmt.Errorf("unknown format %q: use json or text", formatFlag)
	}

	l, lvl, err := logging.NewWithLevel(c.LogLevel, c.LogFormat)
	if err != nil {
		return err
	}
	cfg, logger, logLevel = c, l, lvl
	logger.Debug("config loaded", zap.Strings("sources", cfg.Sources), zap.Bool("remote", cfg.IsRemote()))
	return nil
}

// backend is a record store that must be closed after use.
type backend interface {
	repository.RecordStore
	Close() error
}

func openBackend(ctx context.Context) (backend, error) {
	if cfg.IsRemote() {
		return rpc.Dial(ctx, cfg.Remote, cfg.Timeout, logger)
	}
	return store.NewSQLiteStore(cfg.DBPath, logger)
}

func requireOwner() string {
	owner := strings.TrimSpace(cfg.Owner)
	if owner == "" {
		exitErr("owner", errs.NewValidation("a username is required: pass --owner or set MISOUL_OWNER"))
	}
	return owner
}

// openRepo opens the configured backend and loads the owner's memories. Media
// rendered through the returned resources is released by the close func.
func openRepo(ctx context.Context) (*repository.Repository, *codec.Resources, func()) {
	owner := requireOwner()
	b, err := openBackend(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	res := codec.NewResources(func(r codec.Resource) {
		logger.Debug("resource released", zap.String("locator", r.Locator), zap.String("memory", r.MemoryID))
	})
	repo := repository.New(b, logger, repository.WithResources(res))
	if err := repo.SwitchOwner(ctx, owner); err != nil {
		b.Close()
		exitErr("load memories", err)
	}
	return repo, res, func() {
		res.ReleaseAll()
		b.Close()
		logger.Sync()
	}
}

func exitErr(msg string, err error) {
	if _, ok := errs.As(err); ok {
		logger.Debug(msg, zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %s: %s\n", msg, errs.UserMessage(err))
	} else {
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	}
	os.Exit(1)
}

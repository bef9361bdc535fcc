package cli

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/misoul/internal/config"
	"github.com/rcliao/misoul/internal/logging"
	"github.com/rcliao/misoul/internal/rpc"
	"github.com/rcliao/misoul/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the record store server",
		Long:  "Serve the local database over JSON-RPC so other misoul clients can use it with --remote.",
		Run:   runServe,
	}

	cmd.Flags().StringP("listen", "l", "", "Listen address host:port (default: listen from config)")
	cmd.Flags().Bool("watch-config", true, "Apply log level changes from the config file without restarting")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("listen")
	watch, _ := cmd.Flags().GetBool("watch-config")
	if addr == "" {
		addr = cfg.Listen
	}

	s, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		exitErr("listen", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch && levelFlag == "" {
		go watchLogLevel(ctx)
	}

	cmd.PrintErrf("serving %s on %s\n", cfg.DBPath, ln.Addr())
	if err := rpc.NewServer(s, logger).Serve(ctx, ln); err != nil {
		exitErr("serve", err)
	}
	logger.Info("server stopped", zap.String("addr", addr))
	logger.Sync()
}

func watchLogLevel(ctx context.Context) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	err := config.Watch(ctx, path, nil, logger, func(c *config.Config) {
		lvl, err := logging.ParseLevel(c.LogLevel)
		if err != nil {
			return
		}
		if lvl != logLevel.Level() {
			logger.Info("log level changed", zap.String("level", lvl.String()))
			logLevel.SetLevel(lvl)
		}
	})
	if err != nil {
		logger.Debug("config watch disabled", zap.Error(err))
	}
}

// Command goredisd runs the goredis server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/armandparser/goredis/internal/config"
	"github.com/armandparser/goredis/internal/logging"
	"github.com/armandparser/goredis/internal/server"
)

var version = "0.1.0" // set during build with -ldflags

var rootCmd = &cobra.Command{
	Use:   "goredisd",
	Short: "goredis - an in-memory, Redis-data-model-compatible key/value server",
	Long: `goredisd runs a single-process, single-threaded, in-memory key/value
server speaking a line-oriented subset of the RESP wire protocol, with
string, set, sorted-set, and list value types.`,
	Version: version,
	RunE:    runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	config.WatchLogLevel(func(newLevel string) {
		logging.SetLevel(&log, newLevel)
		log.Info().Str("log_level", newLevel).Msg("log level reloaded")
	})

	log.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)).
		Int("databases", cfg.DatabaseCount).
		Msg("starting goredisd")

	srv := server.New(cfg, log)

	wg := conc.NewWaitGroup()
	serveErr := make(chan error, 1)
	wg.Go(func() { serveErr <- srv.Start() })

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-sigCh:
		log.Info().Msg("shutting down")
	}

	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	wg.Wait()
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		fmt.Println("goredis configuration:")
		fmt.Println(strings.Repeat("=", 31))
		fmt.Printf("Host: %s\n", cfg.Host)
		fmt.Printf("Port: %d\n", cfg.Port)
		fmt.Printf("Databases: %d\n", cfg.DatabaseCount)
		fmt.Printf("Max Clients: %d\n", cfg.MaxClients)
		fmt.Printf("Timeout: %v\n", cfg.Timeout)
		fmt.Printf("Log Level: %s\n", cfg.LogLevel)
		fmt.Printf("Log Format: %s\n", cfg.LogFormat)
		fmt.Printf("Active Expire Cycle: %dms\n", cfg.ActiveExpireCycleMs)
		fmt.Printf("Listen Backlog: %d\n", cfg.ListenBacklog)
		fmt.Printf("Event Loop Poll: %dms\n", cfg.EventLoopPollMs)
		fmt.Printf("TCP Keep-Alive: %t\n", cfg.TCPKeepAlive)
		fmt.Printf("Read Timeout: %v\n", cfg.ReadTimeout)
		fmt.Printf("Write Timeout: %v\n", cfg.WriteTimeout)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("goredisd v%s\n", version)
		fmt.Printf("Built with Go %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("host", "H", "localhost", "Host to bind to")
	rootCmd.PersistentFlags().IntP("port", "p", 6379, "Port to listen on")
	rootCmd.PersistentFlags().Int("max-clients", 10000, "Maximum number of clients")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Client timeout")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().Int("database-count", 16, "Number of keyspaces (validated and reported; one keyspace is served)")
	rootCmd.PersistentFlags().Int("active-expire-cycle-ms", 100, "Delay in ms before the first active-expire run (later runs every value/1000 whole seconds)")
	rootCmd.PersistentFlags().Int("listen-backlog", 3, "TCP accept-queue depth")
	rootCmd.PersistentFlags().Int("event-loop-poll-ms", 1000, "Reported only; the reactor polls with a fixed 1000ms timeout")
	rootCmd.PersistentFlags().Bool("tcp-keepalive", true, "Enable TCP keep-alive")
	rootCmd.PersistentFlags().Duration("read-timeout", 30*time.Second, "Read timeout")
	rootCmd.PersistentFlags().Duration("write-timeout", 30*time.Second, "Write timeout")

	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("max_clients", rootCmd.PersistentFlags().Lookup("max-clients"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("database_count", rootCmd.PersistentFlags().Lookup("database-count"))
	viper.BindPFlag("active_expire_cycle_ms", rootCmd.PersistentFlags().Lookup("active-expire-cycle-ms"))
	viper.BindPFlag("listen_backlog", rootCmd.PersistentFlags().Lookup("listen-backlog"))
	viper.BindPFlag("event_loop_poll_ms", rootCmd.PersistentFlags().Lookup("event-loop-poll-ms"))
	viper.BindPFlag("tcp_keepalive", rootCmd.PersistentFlags().Lookup("tcp-keepalive"))
	viper.BindPFlag("read_timeout", rootCmd.PersistentFlags().Lookup("read-timeout"))
	viper.BindPFlag("write_timeout", rootCmd.PersistentFlags().Lookup("write-timeout"))

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

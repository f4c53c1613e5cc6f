package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"claimgate/internal/client"
	"claimgate/internal/device"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "claimctl",
		Short: "Claim textbook materials from a claimgate server",
		Long: `claimctl submits claims to a claimgate server and keeps this machine's
device record, so a second claim inside the window is refused locally.

Example:
  claimctl catalog
  claimctl claim bnu --server https://claims.example.com
  claimctl status`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	// Global flags
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.claimctl/config.yaml)")
	root.PersistentFlags().String("server", "http://localhost:8080", "claim server base URL")
	root.PersistentFlags().Duration("timeout", client.DefaultTimeout, "request timeout")
	root.PersistentFlags().String("state-dir", "", "device record directory (default: user config dir)")
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	for _, name := range []string{"server", "timeout", "state-dir", "verbose"} {
		_ = a.v.BindPFlag(name, root.PersistentFlags().Lookup(name))
	}

	root.AddCommand(a.statusCmd(), a.claimCmd(), a.resetCmd(), a.catalogCmd())
	return root
}

// initConfig reads in config file and ENV variables
func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".claimctl"))
		a.v.SetConfigType("yaml")
		a.v.SetConfigName("config")
	}

	// CLAIMCTL_SERVER, CLAIMCTL_STATE_DIR, ...
	a.v.SetEnvPrefix("CLAIMCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	level := slog.LevelWarn
	if a.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	a.logger.Debug("Configuration loaded", "config_file", a.v.ConfigFileUsed(), "server", a.v.GetString("server"))
	return nil
}

func (a *app) client() *client.Client {
	return client.New(client.Config{
		BaseURL:   a.v.GetString("server"),
		Timeout:   a.v.GetDuration("timeout"),
		UserAgent: "claimctl/1.0",
	})
}

func (a *app) flow() (*client.Flow, error) {
	dir := a.v.GetString("state-dir")
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		dir = filepath.Join(base, "claimctl")
	}

	guard := device.NewGuard(device.NewFileStorage(dir), device.Config{
		Fingerprint: device.HostFingerprint,
		OnStorageError: func(op string, err error) {
			a.logger.Warn("Device storage unavailable, claims are not restricted locally", "op", op, "dir", dir, "error", err)
		},
	}, a.logger)
	return client.NewFlow(a.client(), guard, a.logger), nil
}

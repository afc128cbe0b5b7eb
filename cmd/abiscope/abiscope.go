package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/branched-services/go-abiscope"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	configF   = "config"
	abiF      = "abi"
	rpcF      = "rpc"
	addressF  = "address"
	fromF     = "from"
	strictF   = "strict"
	logLevelF = "log-level"

	defaultConfig   = ""
	defaultABI      = ""
	defaultRPC      = "http://localhost:8545"
	defaultAddress  = ""
	defaultFrom     = ""
	defaultStrict   = false
	defaultLogLevel = "warn"

	configFlagUsage   = "The yaml configuration file."
	abiUsage          = "Path to a JSON interface description or a compiler artifact with an \"abi\" field."
	rpcUsage          = "JSON-RPC endpoint used by the call command."
	addressUsage      = "Contract address used by the call command."
	fromUsage         = "Sender address for eth_call."
	strictUsage       = "Fail when two interface entries share a selector instead of keeping the last one."
	logLevelFlagUsage = "Options: debug, info, warn, error."
)

// Config is the resolved command configuration.
type Config struct {
	ABI      string `mapstructure:"abi"`
	RPC      string `mapstructure:"rpc"`
	Address  string `mapstructure:"address"`
	From     string `mapstructure:"from"`
	Strict   bool   `mapstructure:"strict"`
	LogLevel string `mapstructure:"log-level"`
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	cfgFile string
	cfg     Config
	logger  *zap.Logger
}

func NewCmd() *cobra.Command {
	a := new(app)

	rootCmd := &cobra.Command{
		Use:           "abiscope",
		Short:         "Inspect, encode and decode contract calls and logs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, configF, defaultConfig, configFlagUsage)
	pf.String(abiF, defaultABI, abiUsage)
	pf.String(rpcF, defaultRPC, rpcUsage)
	pf.String(addressF, defaultAddress, addressUsage)
	pf.String(fromF, defaultFrom, fromUsage)
	pf.Bool(strictF, defaultStrict, strictUsage)
	pf.String(logLevelF, defaultLogLevel, logLevelFlagUsage)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		v := viper.New()
		if a.cfgFile != "" {
			v.SetConfigType("yaml")
			v.SetConfigFile(a.cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}

		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := v.Unmarshal(&a.cfg); err != nil {
			return err
		}

		logger, err := newLogger(a.cfg.LogLevel)
		if err != nil {
			return err
		}
		a.logger = logger
		return nil
	}

	rootCmd.AddCommand(
		a.selectorsCmd(),
		a.decodeCallCmd(),
		a.decodeLogCmd(),
		a.encodeCmd(),
		a.callCmd(),
	)
	return rootCmd
}

// run wraps a subcommand so buffered log entries are flushed when it returns.
func (a *app) run(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.sync()
		return fn(cmd, args)
	}
}

// sync flushes the logger. Errors are ignored: syncing stderr fails on some
// platforms.
func (a *app) sync() {
	if a.logger == nil {
		return
	}
	_ = a.logger.Sync()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", logLevelF, level, err)
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return config.Build()
}

// table loads the interface named by --abi.
func (a *app) table() (*abiscope.SelectorTable, error) {
	if a.cfg.ABI == "" {
		return nil, errors.New("--abi is required")
	}
	data, err := os.ReadFile(a.cfg.ABI)
	if err != nil {
		return nil, err
	}

	// Compiler artifacts wrap the interface in an object.
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(trimmed, &artifact); err != nil {
			return nil, fmt.Errorf("parse artifact %s: %w", a.cfg.ABI, err)
		}
		if len(artifact.ABI) == 0 {
			return nil, fmt.Errorf("artifact %s has no abi field", a.cfg.ABI)
		}
		data = artifact.ABI
	}

	opts := []abiscope.TableOption{abiscope.WithLogger(a.logger)}
	if a.cfg.Strict {
		opts = append(opts, abiscope.WithStrictSelectors())
	}
	table, err := abiscope.BuildJSON(data, opts...)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Loaded interface", zap.String("path", a.cfg.ABI), zap.Int("selectors", table.Len()))
	return table, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

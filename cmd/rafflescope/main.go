package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"raffleScope/internal/chain"
	"raffleScope/internal/config"
	"raffleScope/internal/decoder"
	"raffleScope/internal/pipeline"
	"raffleScope/internal/scanner"
	"raffleScope/internal/token"
)

func main() {
	root := &cobra.Command{
		Use:          "rafflescope",
		Short:        "Raffle winner payout decoder",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Discover raffles and decode every winner payout",
		RunE:  runPipeline,
	}

	addChainFlags(runCmd.Flags())
	runCmd.Flags().String("source", config.SourceGraphQL, "raffle discovery source (graphql, postgres, static)")
	runCmd.Flags().String("graphql-url", "", "raffle subgraph URL")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for the postgres source")
	runCmd.Flags().String("pg-table", "raffle_starts", "table holding raffle_address, first_mint_block")
	runCmd.Flags().StringSlice("raffle", nil, "raffles for the static source (address:block, comma-separated)")

	root.AddCommand(runCmd)

	scanCmd := &cobra.Command{
		Use:   "scan <address> <from-block>",
		Short: "Decode the winner payouts of a single raffle",
		Args:  cobra.ExactArgs(2),
		RunE:  runScan,
	}

	addChainFlags(scanCmd.Flags())

	root.AddCommand(scanCmd)

	tokenCmd := &cobra.Command{
		Use:   "token <address>...",
		Short: "Resolve ERC20 metadata for token addresses",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runToken,
	}

	tokenCmd.Flags().String("rpc", "", "chain RPC URL")
	tokenCmd.Flags().Duration("request-timeout", 30*time.Second, "per-request RPC timeout")
	tokenCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(tokenCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "chain RPC URL")
	flags.String("event", scanner.DefaultEventName, "terminal event name")
	flags.String("raffle-abi", "", "raffle contract JSON ABI (defaults to the built-in WinnerChosen ABI)")
	flags.Uint64("window", scanner.DefaultWindowSize, "blocks scanned past the first mint")
	flags.Uint64("max-query-range", 0, "max blocks per eth_getLogs call (0 queries the whole window)")
	flags.Int("meta-cache-size", token.DefaultCacheSize, "token metadata cache entries")
	flags.Bool("transfers-only", false, "decode only ERC20 Transfer logs")
	flags.Duration("request-timeout", 30*time.Second, "per-request RPC timeout")
	flags.Int("max-retries", 2, "transport retry attempts per RPC call")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial transport retry backoff")
	flags.String("out", "-", "output JSONL path (- for stdout)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

// env holds the dependencies shared by the chain-backed commands.
type env struct {
	cfg      config.Config
	logger   *zap.Logger
	chain    *chain.Client
	pipeline *pipeline.Pipeline
}

func setup(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	raffleABI, err := scanner.LoadABI(cfg.RaffleABI)
	if err != nil {
		return nil, err
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	scan, err := scanner.New(scanner.Config{
		ABI:           raffleABI,
		EventName:     cfg.EventName,
		WindowSize:    cfg.Window,
		MaxQueryRange: cfg.MaxQueryRange,
	}, chainClient, logger)
	if err != nil {
		chainClient.Close()
		return nil, err
	}

	resolver, err := token.NewResolver(chainClient, cfg.MetaCacheSize, logger)
	if err != nil {
		chainClient.Close()
		return nil, err
	}

	dec := decoder.New(resolver, decoder.Options{TransfersOnly: cfg.TransfersOnly}, logger)

	return &env{
		cfg:      cfg,
		logger:   logger,
		chain:    chainClient,
		pipeline: pipeline.New(scan, chainClient, dec, logger),
	}, nil
}

func (e *env) Close() {
	e.chain.Close()
	_ = e.logger.Sync()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

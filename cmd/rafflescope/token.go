package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"raffleScope/internal/chain"
	"raffleScope/internal/config"
	"raffleScope/internal/token"
)

type tokenLine struct {
	Address  string `json:"address"`
	Decimals *uint8 `json:"decimals,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
	Error    string `json:"error,omitempty"`
}

func runToken(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	resolver, err := token.NewResolver(chainClient, len(args), logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, arg := range args {
		if !common.IsHexAddress(arg) {
			return fmt.Errorf("invalid token address: %s", arg)
		}
		addr := common.HexToAddress(arg)
		line := tokenLine{Address: addr.Hex()}

		meta, err := resolver.Resolve(ctx, addr)
		if err != nil {
			logger.Warn("token metadata unavailable", zap.String("token", addr.Hex()), zap.Error(err))
			line.Error = err.Error()
		} else {
			line.Decimals = &meta.Decimals
			line.Symbol = meta.Symbol
			line.Name = meta.Name
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

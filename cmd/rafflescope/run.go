package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"raffleScope/internal/config"
	"raffleScope/internal/discovery"
	"raffleScope/internal/model"
	"raffleScope/internal/report"
)

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.cfg.ValidateSource(); err != nil {
		return err
	}

	source, closeSource, err := newSource(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer closeSource()

	e.logger.Info("discover raffles", zap.String("source", e.cfg.Source))
	refs, err := source.FetchRaffleStarts(ctx)
	if err != nil {
		return fmt.Errorf("discover raffles: %w", err)
	}

	e.logger.Info("pipeline start",
		zap.String("rpc", e.cfg.RPCURL),
		zap.Int("raffles", len(refs)),
		zap.String("event", e.cfg.EventName),
		zap.Uint64("window", e.cfg.Window),
		zap.Bool("transfers_only", e.cfg.TransfersOnly),
		zap.String("out", e.cfg.Out),
	)

	return emit(ctx, e, refs)
}

func runScan(cmd *cobra.Command, args []string) error {
	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid raffle address: %s", args[0])
	}
	from, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid from block %q: %w", args[1], err)
	}

	ctx, stop := signalContext()
	defer stop()

	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	return emit(ctx, e, []model.RaffleRef{{Address: common.HexToAddress(args[0]), StartBlock: from}})
}

func emit(ctx context.Context, e *env, refs []model.RaffleRef) error {
	out, err := report.Open(e.cfg.Out)
	if err != nil {
		return err
	}
	defer out.Close()

	var summary report.Summary
	for res := range e.pipeline.Results(ctx, refs) {
		summary.Add(res)
		if err := out.Write(res); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.logger.Info("pipeline complete",
		zap.Int("raffles", summary.Raffles),
		zap.Int("failed_raffles", summary.FailedRaffles),
		zap.Int("events", summary.Events),
		zap.Int("failed_events", summary.FailedEvents),
		zap.Int("transfers", summary.Transfers),
		zap.Int("skipped_logs", summary.SkippedLogs),
	)
	return nil
}

func newSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (discovery.Source, func(), error) {
	noop := func() {}
	switch cfg.Source {
	case config.SourcePostgres:
		src, err := discovery.NewPostgresSource(ctx, cfg.PGDSN, cfg.PGTable)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("postgres source", zap.String("pg_dsn", redactDSN(cfg.PGDSN)), zap.String("table", cfg.PGTable))
		return src, src.Close, nil
	case config.SourceStatic:
		src, err := discovery.NewStaticSource(cfg.Raffles)
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil
	default:
		return discovery.NewGraphQLSource(cfg.GraphQLURL, cfg.RequestTimeout, logger), noop, nil
	}
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

package discovery

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"raffleScope/internal/model"
)

// DefaultTable holds one row per raffle: raffle_address, first_mint_block.
const DefaultTable = "raffle_starts"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSource reads raffle starts from a table mirrored from the subgraph.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSource connects to dsn. An empty table uses DefaultTable.
func NewPostgresSource(ctx context.Context, dsn, table string) (*PostgresSource, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresSource{pool: pool, table: table}, nil
}

func (s *PostgresSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// FetchRaffleStarts returns every raffle ordered by first mint block.
func (s *PostgresSource) FetchRaffleStarts(ctx context.Context) ([]model.RaffleRef, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT raffle_address, first_mint_block FROM %s ORDER BY first_mint_block, raffle_address`,
		s.table,
	))
	if err != nil {
		return nil, fmt.Errorf("query raffle starts: %w", err)
	}

	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.RaffleRef, error) {
		var (
			address string
			block   int64
		)
		if err := row.Scan(&address, &block); err != nil {
			return model.RaffleRef{}, err
		}
		return refFromRow(address, block)
	})
	if err != nil {
		return nil, fmt.Errorf("read raffle starts: %w", err)
	}
	return refs, nil
}

func refFromRow(address string, block int64) (model.RaffleRef, error) {
	if !common.IsHexAddress(address) {
		return model.RaffleRef{}, fmt.Errorf("invalid raffle address %q", address)
	}
	if block < 0 {
		return model.RaffleRef{}, fmt.Errorf("negative first mint block %d for %s", block, address)
	}
	return model.RaffleRef{Address: common.HexToAddress(address), StartBlock: uint64(block)}, nil
}

package source

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

const (
	defaultDialTimeout      = 10 * time.Second
	defaultMaxExecutionTime = 60
)

// Querier defines the interface for executing ClickHouse queries.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Ping(ctx context.Context) error
}

// rowScanner is the part of driver.Rows the source reads.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// ClickHouseSource reads raw records from a table with the columns
// partition_key, region, source, destination, bandwidth, latency (String)
// and timestamp (DateTime64).
type ClickHouseSource struct {
	db    Querier
	table string
	log   *slog.Logger
}

// NewClickHouse connects to the server described by conf and pings it.
func NewClickHouse(ctx context.Context, conf config.ClickHouseConf, log *slog.Logger) (*ClickHouseSource, error) {
	opts := &clickhouse.Options{
		Addr: []string{conf.Addr},
		Auth: clickhouse.Auth{
			Database: conf.Database,
			Username: conf.Username,
			Password: conf.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": defaultMaxExecutionTime,
		},
		DialTimeout: defaultDialTimeout,
	}
	if conf.Secure {
		opts.TLS = &tls.Config{}
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping ClickHouse %s: %w", conf.Addr, err)
	}
	return NewClickHouseWithQuerier(conn, conf.Table, log), nil
}

// NewClickHouseWithQuerier wraps an existing connection.
func NewClickHouseWithQuerier(db Querier, table string, log *slog.Logger) *ClickHouseSource {
	if log == nil {
		log = slog.Default()
	}
	return &ClickHouseSource{db: db, table: table, log: log}
}

// Fetch returns the newest records first.
func (s *ClickHouseSource) Fetch(ctx context.Context, q Query) ([]record.Raw, error) {
	query := fmt.Sprintf(`
		SELECT partition_key, region, source, destination, bandwidth, latency, timestamp
		FROM %s
		WHERE timestamp >= ?
		ORDER BY timestamp DESC`, s.table)
	args := []any{q.Since.UTC()}
	if q.Limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, q.Limit)
	}

	start := time.Now()
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	raws, err := readRows(rows)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	s.log.Debug("clickhouse fetch", "table", s.table, "rows", len(raws), "duration", time.Since(start))
	return raws, nil
}

func readRows(rows rowScanner) ([]record.Raw, error) {
	defer rows.Close()
	var raws []record.Raw
	for rows.Next() {
		var (
			raw                record.Raw
			bandwidth, latency string
			ts                 time.Time
		)
		if err := rows.Scan(&raw.PartitionKey, &raw.RowKey, &raw.Source, &raw.Destination, &bandwidth, &latency, &ts); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		raw.Bandwidth = record.Text(bandwidth)
		raw.Latency = record.Text(latency)
		if !ts.IsZero() {
			raw.Timestamp = ts.UTC().Format(time.RFC3339Nano)
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return raws, nil
}

// Package source retrieves raw benchmark records from upstream stores.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/metrics"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// Query bounds a fetch: records at or after Since, at most Limit of them.
// A zero Since or Limit means unbounded.
type Query struct {
	Since time.Time
	Limit int
}

// Source fetches raw records. Implementations must be safe for concurrent use.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]record.Raw, error)
}

// Kind names a source implementation in configuration.
type Kind string

const (
	KindHTTP       Kind = "http"
	KindDynamoDB   Kind = "dynamodb"
	KindClickHouse Kind = "clickhouse"
	KindFile       Kind = "file"
	KindSynthetic  Kind = "synthetic"
)

var ErrUnknownKind = errors.New("source: unknown kind")

// QueryFor builds the query for conf relative to now.
func QueryFor(conf config.SourceConf, now time.Time) Query {
	q := Query{Limit: conf.MaxResults}
	if conf.Lookback > 0 {
		q.Since = now.Add(-conf.Lookback)
	}
	return q
}

// New builds the source selected by conf, wrapped with metrics and, when
// conf.CacheTTL is set, a result cache.
func New(ctx context.Context, conf config.SourceConf, clock clockwork.Clock, log *slog.Logger) (Source, error) {
	if log == nil {
		log = slog.Default()
	}
	var (
		src Source
		err error
	)
	switch Kind(conf.Kind) {
	case KindHTTP:
		src = NewHTTP(conf.HTTP.URL, WithTimeout(conf.HTTP.Timeout), WithMaxRetries(conf.HTTP.MaxRetries), WithLogger(log))
	case KindDynamoDB:
		src, err = NewDynamoDB(conf.DynamoDB)
	case KindClickHouse:
		src, err = NewClickHouse(ctx, conf.ClickHouse, log)
	case KindFile:
		src = NewFile(conf.File.Path)
	case KindSynthetic:
		src = NewSynthetic(clock, time.Now().UnixNano())
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, conf.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", conf.Kind, err)
	}
	src = instrumented{kind: Kind(conf.Kind), src: src}
	if conf.CacheTTL > 0 {
		src = NewCached(src, conf.CacheTTL)
	}
	return src, nil
}

type instrumented struct {
	kind Kind
	src  Source
}

func (s instrumented) Fetch(ctx context.Context, q Query) ([]record.Raw, error) {
	raws, err := s.src.Fetch(ctx, q)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SourceFetches.WithLabelValues(string(s.kind), status).Inc()
	return raws, err
}

// clip drops records older than q.Since and truncates to q.Limit. Records
// whose timestamp does not parse are kept for the normalizer to handle.
func clip(raws []record.Raw, q Query) []record.Raw {
	out := raws
	if !q.Since.IsZero() {
		out = make([]record.Raw, 0, len(raws))
		for _, raw := range raws {
			ts := record.ParseTimestamp(raw.Timestamp)
			if !ts.IsZero() && ts.Before(q.Since) {
				continue
			}
			out = append(out, raw)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

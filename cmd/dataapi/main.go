package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jonboulle/clockwork"

	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/dataapi"
	"github.com/gyaneshwarpardhi/netbench/internal/logging"
	"github.com/gyaneshwarpardhi/netbench/internal/source"
)

func main() {
	logger := logging.New(os.Stdout, "json", logging.ParseLevel(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(logger)

	table := os.Getenv("TABLE_NAME")
	if table == "" {
		table = "perf"
	}
	maxResults := dataapi.DefaultMaxResults
	if v := os.Getenv("MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxResults = n
		}
	}

	src, err := source.NewDynamoDB(config.DynamoDBConf{
		Table:    table,
		Region:   os.Getenv("AWS_REGION"),
		Endpoint: os.Getenv("DYNAMODB_ENDPOINT"),
	})
	if err != nil {
		slog.Error("failed to create DynamoDB client", "err", err)
		os.Exit(1)
	}

	h := &dataapi.Handler{
		Source:     src,
		Clock:      clockwork.NewRealClock(),
		Log:        logger,
		MaxResults: maxResults,
		Lookback:   dataapi.DefaultLookback,
	}
	lambda.Start(h.Handle)
}

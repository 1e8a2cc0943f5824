package source

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/gyaneshwarpardhi/netbench/internal/config"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// DynamoDBSource scans a table whose items carry the raw record attributes
// (PartitionKey, RowKey, Source, Destination, Bandwidth, Latency, Timestamp).
type DynamoDBSource struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// NewDynamoDB opens a client for conf.
func NewDynamoDB(conf config.DynamoDBConf) (*DynamoDBSource, error) {
	awsConf := &aws.Config{Region: aws.String(conf.Region)}
	if conf.Endpoint != "" {
		awsConf.Endpoint = aws.String(conf.Endpoint)
	}
	sess, err := session.NewSession(awsConf)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewDynamoDBWithClient(dynamodb.New(sess), conf.Table), nil
}

// NewDynamoDBWithClient wraps an existing client.
func NewDynamoDBWithClient(client dynamodbiface.DynamoDBAPI, table string) *DynamoDBSource {
	return &DynamoDBSource{client: client, table: table}
}

// Fetch scans page by page until the table is exhausted or q.Limit items
// were collected. Timestamps are ISO-8601 strings, so the since filter is a
// lexical comparison.
func (s *DynamoDBSource) Fetch(ctx context.Context, q Query) ([]record.Raw, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	if !q.Since.IsZero() {
		input.FilterExpression = aws.String("#ts >= :since")
		input.ExpressionAttributeNames = map[string]*string{"#ts": aws.String("Timestamp")}
		input.ExpressionAttributeValues = map[string]*dynamodb.AttributeValue{
			":since": {S: aws.String(q.Since.UTC().Format(time.RFC3339))},
		}
	}

	var (
		raws    []record.Raw
		pageErr error
	)
	err := s.client.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		var batch []record.Raw
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			pageErr = fmt.Errorf("decode items: %w", err)
			return false
		}
		raws = append(raws, batch...)
		return q.Limit <= 0 || len(raws) < q.Limit
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.table, err)
	}
	if pageErr != nil {
		return nil, fmt.Errorf("scan %s: %w", s.table, pageErr)
	}
	if q.Limit > 0 && len(raws) > q.Limit {
		raws = raws[:q.Limit]
	}
	return raws, nil
}

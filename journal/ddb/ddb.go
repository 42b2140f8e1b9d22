// Package ddb persists performance samples to a DynamoDB table with
// conditional writes, so redelivered samples never duplicate rows.
package ddb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/sqlgo/journal"
	"github.com/hupe1980/sqlgo/model"
)

// Client is the interface for the DynamoDB operations used by the sink.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Compile-time checks.
var (
	_ Client       = (*dynamodb.Client)(nil)
	_ journal.Sink = (*Sink)(nil)
)

// Sink appends performance samples to a DynamoDB table.
//
// Table schema:
//   - Partition key: sample_id (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name sqlgo-samples \
//	  --attribute-definitions AttributeName=sample_id,AttributeType=S \
//	  --key-schema AttributeName=sample_id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
//
// Appends are conditional on the sample id not existing yet, so engine
// retries and at-least-once delivery pipelines cannot duplicate rows.
type Sink struct {
	client Client
	table  string
}

// Options contains optional settings for the sink.
type Options struct {
	// Region overrides the region from the environment or shared config.
	Region string
}

// WithRegion sets the AWS region.
func WithRegion(region string) func(o *Options) {
	return func(o *Options) {
		o.Region = region
	}
}

// New creates a sink using the default AWS config.
func New(ctx context.Context, table string, optFns ...func(o *Options)) (*Sink, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewSink(dynamodb.NewFromConfig(cfg), table), nil
}

// NewSink creates a sink from an existing client.
func NewSink(client Client, table string) *Sink {
	return &Sink{
		client: client,
		table:  table,
	}
}

// Append writes one sample. A sample already journaled under the same id
// is silently skipped.
func (s *Sink) Append(ctx context.Context, sample model.PerformanceSample) error {
	if sample.ID == "" {
		return errors.New("sample has no id")
	}

	item := map[string]types.AttributeValue{
		"sample_id":  &types.AttributeValueMemberS{Value: sample.ID},
		"model_id":   &types.AttributeValueMemberS{Value: sample.ModelID},
		"category":   &types.AttributeValueMemberS{Value: string(sample.Category)},
		"accuracy":   &types.AttributeValueMemberN{Value: strconv.FormatFloat(sample.Accuracy, 'f', -1, 64)},
		"latency_ms": &types.AttributeValueMemberN{Value: strconv.FormatInt(sample.Latency.Milliseconds(), 10)},
		"error_flag": &types.AttributeValueMemberBOOL{Value: sample.ErrorFlag},
		"timestamp":  &types.AttributeValueMemberS{Value: sample.Timestamp.UTC().Format(time.RFC3339Nano)},
	}

	if sample.Satisfaction != nil {
		item["satisfaction"] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(*sample.Satisfaction, 'f', -1, 64)}
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(sample_id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			// Redelivered sample, already journaled.
			return nil
		}

		return fmt.Errorf("put sample %s: %w", sample.ID, err)
	}

	return nil
}

// Where: internal/publish/publisher.go
// What: Manifest publishing to S3 and DynamoDB.
// Why: Make published build records a best-effort side channel, never a build failure.
package publish

import (
	"context"
	"fmt"
)

// S3API is the subset of S3 operations used for publishing.
type S3API interface {
	PutObject(ctx context.Context, bucket, key string, body []byte) error
}

// DynamoDBAPI is the subset of DynamoDB operations used for history records.
type DynamoDBAPI interface {
	PutRecord(ctx context.Context, table string, m Manifest) error
}

// Options selects publishing targets. Empty fields disable the
// corresponding target.
type Options struct {
	Bucket     string
	Table      string
	S3Endpoint string
}

// Enabled reports whether any publishing target is configured.
func (o Options) Enabled() bool {
	return o.Bucket != "" || o.Table != ""
}

// Publisher uploads manifests to the configured targets.
type Publisher struct {
	Factory ClientFactory
}

// Publish uploads the manifest to S3 and records it in DynamoDB, as
// configured. Failures are returned as a list of warnings; a partially
// published manifest is acceptable.
func (p Publisher) Publish(ctx context.Context, m Manifest, opts Options) []error {
	var warnings []error

	if opts.Bucket != "" {
		if err := p.publishS3(ctx, m, opts); err != nil {
			warnings = append(warnings, fmt.Errorf("s3 manifest %s: %w", m.ObjectKey(), err))
		}
	}
	if opts.Table != "" {
		if err := p.publishHistory(ctx, m, opts.Table); err != nil {
			warnings = append(warnings, fmt.Errorf("history record %s: %w", m.Reference(), err))
		}
	}
	return warnings
}

func (p Publisher) publishS3(ctx context.Context, m Manifest, opts Options) error {
	client, err := p.Factory.S3(ctx, opts.S3Endpoint)
	if err != nil {
		return err
	}
	payload, err := m.Encode()
	if err != nil {
		return err
	}
	return client.PutObject(ctx, opts.Bucket, m.ObjectKey(), payload)
}

func (p Publisher) publishHistory(ctx context.Context, m Manifest, table string) error {
	client, err := p.Factory.DynamoDB(ctx)
	if err != nil {
		return err
	}
	return client.PutRecord(ctx, table, m)
}

// Where: internal/publish/aws_factory.go
// What: AWS client factory for manifest publishing.
// Why: Encapsulate SDK configuration, including local S3-compatible endpoints.
package publish

import (
	"bytes"
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/quantfarm/tradebuild/internal/meta"
)

const defaultAWSRegion = "ap-northeast-1"

// ClientFactory constructs the storage clients used for publishing.
type ClientFactory interface {
	S3(ctx context.Context, endpoint string) (S3API, error)
	DynamoDB(ctx context.Context) (DynamoDBAPI, error)
}

// NewClientFactory returns the AWS-backed factory.
func NewClientFactory() ClientFactory {
	return awsClientFactory{}
}

type awsClientFactory struct{}

func (awsClientFactory) S3(ctx context.Context, endpoint string) (S3API, error) {
	cfg, err := loadAWSConfig(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(options *s3.Options) {
		if endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
			options.UsePathStyle = true
		}
	})
	return awsS3Client{client: client}, nil
}

func (awsClientFactory) DynamoDB(ctx context.Context) (DynamoDBAPI, error) {
	cfg, err := loadAWSConfig(ctx, "")
	if err != nil {
		return nil, err
	}
	return awsDynamoClient{client: dynamodb.NewFromConfig(cfg)}, nil
}

// loadAWSConfig resolves SDK configuration. With a custom endpoint (local
// S3-compatible storage) static credentials from the environment are used;
// otherwise the default provider chain applies.
func loadAWSConfig(ctx context.Context, endpoint string) (aws.Config, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = defaultAWSRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if endpoint != "" {
		creds := credentials.NewStaticCredentialsProvider(localAccessKey(), localSecretKey(), "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}
	return config.LoadDefaultConfig(ctx, opts...)
}

func localAccessKey() string {
	if value := os.Getenv(meta.EnvPrefix + "_S3_ACCESS_KEY"); value != "" {
		return value
	}
	return "tradebuild"
}

func localSecretKey() string {
	if value := os.Getenv(meta.EnvPrefix + "_S3_SECRET_KEY"); value != "" {
		return value
	}
	return "tradebuild"
}

type awsS3Client struct {
	client *s3.Client
}

func (c awsS3Client) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return err
}

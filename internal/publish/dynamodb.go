// Where: internal/publish/dynamodb.go
// What: DynamoDB build-history records.
// Why: Keep an append-only history of images shipped per account mode.
package publish

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type awsDynamoClient struct {
	client *dynamodb.Client
}

func (c awsDynamoClient) PutRecord(ctx context.Context, table string, m Manifest) error {
	item := map[string]types.AttributeValue{
		"image":           &types.AttributeValueMemberS{Value: m.Image},
		"tag":             &types.AttributeValueMemberS{Value: m.Tag},
		"account":         &types.AttributeValueMemberS{Value: m.Account},
		"settings_digest": &types.AttributeValueMemberS{Value: m.SettingsDigest},
		"created_at":      &types.AttributeValueMemberS{Value: m.CreatedAt.Format(time.RFC3339)},
	}
	if m.ImageID != "" {
		item["image_id"] = &types.AttributeValueMemberS{Value: m.ImageID}
	}

	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return err
}

package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/parishpush/internal/domain"
)

// OwnerRepo is the authoritative parish -> owning account lookup table.
type OwnerRepo struct {
	client    api
	tableName string
}

func NewOwnerRepo(client api, tableName string) *OwnerRepo {
	return &OwnerRepo{client: client, tableName: tableName}
}

// OwnerOf returns the owning account id, or domain.ErrNotFound. There is no fallback.
func (r *OwnerRepo) OwnerOf(ctx context.Context, parishID string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldParishID, parishID),
	})
	if err != nil {
		return "", err
	}
	if out.Item == nil {
		return "", fmt.Errorf("parish owner not found: %w", domain.ErrNotFound)
	}
	var o domain.ParishOwner
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return "", err
	}
	return o.OwnerAccountID, nil
}

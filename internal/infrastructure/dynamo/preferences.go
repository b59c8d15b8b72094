package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/parishpush/internal/domain"
)

type preferencesItem struct {
	UserID string `dynamodbav:"user_id"`
	domain.NotificationPreferences
}

// PreferenceRepo stores one NotificationPreferences item per user.
type PreferenceRepo struct {
	client    api
	tableName string
}

func NewPreferenceRepo(client api, tableName string) *PreferenceRepo {
	return &PreferenceRepo{client: client, tableName: tableName}
}

// Get returns domain.ErrNotFound when the user never saved preferences.
func (r *PreferenceRepo) Get(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("preferences not found: %w", domain.ErrNotFound)
	}
	var item preferencesItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return &item.NotificationPreferences, nil
}

// Put replaces the whole preferences item.
func (r *PreferenceRepo) Put(ctx context.Context, userID string, prefs domain.NotificationPreferences) error {
	item, err := attributevalue.MarshalMap(preferencesItem{UserID: userID, NotificationPreferences: prefs})
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

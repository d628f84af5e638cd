package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pulse-stream/pulse-api/internal/domain"
)

// FavoriteRepo stores favorited catalog tracks.
// PK: user_id, SK: track_id. A repeated Put is an overwrite, giving set semantics.
type FavoriteRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewFavoriteRepo(client *dynamodb.Client, tableName string) *FavoriteRepo {
	return &FavoriteRepo{client: client, tableName: tableName}
}

func (r *FavoriteRepo) Put(ctx context.Context, f *domain.Favorite) error {
	item, err := attributevalue.MarshalMap(f)
	if err != nil {
		return fmt.Errorf("marshal favorite: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *FavoriteRepo) Delete(ctx context.Context, userID, trackID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "track_id", trackID),
	})
	return err
}

func (r *FavoriteRepo) ListByUser(ctx context.Context, userID string) ([]domain.Favorite, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var favs []domain.Favorite
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

// HistoryRepo stores listen events.
// PK: user_id, SK: listened_at (RFC3339Nano) so a query returns events in time order.
type HistoryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewHistoryRepo(client *dynamodb.Client, tableName string) *HistoryRepo {
	return &HistoryRepo{client: client, tableName: tableName}
}

func (r *HistoryRepo) Put(ctx context.Context, e *domain.ListenEvent) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal listen event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByUser returns a user's listen events, most recent first.
func (r *HistoryRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]domain.ListenEvent, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, err
	}
	var events []domain.ListenEvent
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &events); err != nil {
		return nil, err
	}
	// Attribute marshalling stores listened_at as RFC3339; keep newest-first
	// ordering stable even if the unmarshal reordered anything.
	sort.Slice(events, func(i, j int) bool { return events[i].ListenedAt.After(events[j].ListenedAt) })
	return events, nil
}

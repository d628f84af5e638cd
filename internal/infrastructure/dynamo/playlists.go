package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pulse-stream/pulse-api/internal/domain"
)

// PlaylistRepo provides typed DynamoDB operations for the playlists table.
// PK: playlist_id; user_id-index GSI for per-user listing.
type PlaylistRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPlaylistRepo(client *dynamodb.Client, tableName string) *PlaylistRepo {
	return &PlaylistRepo{client: client, tableName: tableName}
}

func (r *PlaylistRepo) Put(ctx context.Context, p *domain.Playlist) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal playlist: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PlaylistRepo) Get(ctx context.Context, playlistID string) (*domain.Playlist, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("playlist_id", playlistID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("playlist not found: %w", domain.ErrNotFound)
	}
	var p domain.Playlist
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlaylistRepo) ListByUser(ctx context.Context, userID string) ([]domain.Playlist, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var playlists []domain.Playlist
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

func (r *PlaylistRepo) Update(ctx context.Context, playlistID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("playlist_id", playlistID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *PlaylistRepo) Delete(ctx context.Context, playlistID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("playlist_id", playlistID),
	})
	return err
}

package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pulse-stream/pulse-api/internal/domain"
)

// SongRepo provides typed DynamoDB operations for the uploaded-songs table.
// PK: song_id; user_id-index GSI for per-user listing.
type SongRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSongRepo(client *dynamodb.Client, tableName string) *SongRepo {
	return &SongRepo{client: client, tableName: tableName}
}

func (r *SongRepo) Put(ctx context.Context, s *domain.UploadedSong) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal song: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SongRepo) Get(ctx context.Context, songID string) (*domain.UploadedSong, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("song_id", songID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("song not found: %w", domain.ErrNotFound)
	}
	var s domain.UploadedSong
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SongRepo) ListByUser(ctx context.Context, userID string) ([]domain.UploadedSong, error) {
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
	var songs []domain.UploadedSong
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *SongRepo) Delete(ctx context.Context, songID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("song_id", songID),
	})
	return err
}

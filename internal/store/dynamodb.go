package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/spacesedan/sentiscope/internal/models"
)

type DynamoAPI interface {
	dynamodb.ScanAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore keeps one item per analysis keyed by a uuid "id". The table
// is small and listing scans it, sorting newest first in memory.
type DynamoStore struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table, now: time.Now}
}

func (d *DynamoStore) Save(ctx context.Context, in NewAnalysis) (models.StoredAnalysis, error) {
	pos, neg := in.Scores()
	a := models.StoredAnalysis{
		ID:              models.AnalysisID(uuid.NewString()),
		Text:            in.Text,
		SentimentLabel:  strings.ToUpper(in.Label),
		ConfidenceScore: in.Confidence,
		PositiveScore:   pos,
		NegativeScore:   neg,
		CreatedAt:       d.now().UTC(),
	}

	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return a, fmt.Errorf("[DynamoDB] failed to marshal analysis: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return a, fmt.Errorf("[DynamoDB] failed to put analysis: %w", err)
	}
	return a, nil
}

func (d *DynamoStore) List(ctx context.Context, limit int) ([]models.StoredAnalysis, error) {
	return d.scan(ctx, clampLimit(limit), func(models.StoredAnalysis) bool { return true })
}

func (d *DynamoStore) Search(ctx context.Context, query string, limit int) ([]models.StoredAnalysis, error) {
	needle := strings.ToLower(query)
	return d.scan(ctx, clampLimit(limit), func(a models.StoredAnalysis) bool {
		return strings.Contains(strings.ToLower(a.Text), needle)
	})
}

func (d *DynamoStore) Get(ctx context.Context, id models.AnalysisID) (models.StoredAnalysis, error) {
	var a models.StoredAnalysis
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       d.key(id),
	})
	if err != nil {
		return a, fmt.Errorf("[DynamoDB] failed to get analysis %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return a, fmt.Errorf("analysis %s: %w", id, models.ErrNotFound)
	}
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return a, fmt.Errorf("[DynamoDB] failed to unmarshal analysis %s: %w", id, err)
	}
	return a, nil
}

func (d *DynamoStore) Delete(ctx context.Context, id models.AnalysisID) (bool, error) {
	out, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(d.table),
		Key:          d.key(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("[DynamoDB] failed to delete analysis %s: %w", id, err)
	}
	return len(out.Attributes) > 0, nil
}

func (d *DynamoStore) Close() {}

func (d *DynamoStore) key(id models.AnalysisID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id.String()},
	}
}

func (d *DynamoStore) scan(ctx context.Context, limit int, keep func(models.StoredAnalysis) bool) ([]models.StoredAnalysis, error) {
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName: aws.String(d.table),
	})

	analyses := []models.StoredAnalysis{}
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for analyses failed: %w", err)
		}
		var page []models.StoredAnalysis
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal analysis page", slog.String("error", err.Error()))
			return nil, err
		}
		for _, a := range page {
			if keep(a) {
				analyses = append(analyses, a)
			}
		}
	}

	newestFirst(analyses)
	if len(analyses) > limit {
		analyses = analyses[:limit]
	}
	return analyses, nil
}

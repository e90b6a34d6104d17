package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/telbozor/api/internal/domain"
)

type BrandRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBrandRepo(client *dynamodb.Client, tableName string) *BrandRepo {
	return &BrandRepo{client: client, tableName: tableName}
}

func (r *BrandRepo) Put(ctx context.Context, b *domain.Brand) error {
	item, err := marshalItem(b)
	if err != nil {
		return fmt.Errorf("marshal brand: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// List returns all brands sorted by name.
func (r *BrandRepo) List(ctx context.Context) ([]domain.Brand, error) {
	brands, err := scanAll[domain.Brand](ctx, r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(brands, func(i, j int) bool { return brands[i].Name < brands[j].Name })
	return brands, nil
}

package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/telbozor/api/internal/domain"
)

// batchWriteLimit is the DynamoDB maximum number of requests per BatchWriteItem.
const batchWriteLimit = 25

// maxBatchRetries bounds how often unprocessed batch items are resubmitted.
const maxBatchRetries = 5

// batchRetryBase is the first backoff delay before resubmitting unprocessed items.
const batchRetryBase = 50 * time.Millisecond

// sortableTime is RFC3339 with a fixed nine-digit fraction. Index sort keys
// compare as strings, so every stored timestamp must have the same width.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(t time.Time) (types.AttributeValue, error) {
	return &types.AttributeValueMemberS{Value: t.UTC().Format(sortableTime)}, nil
}

func withSortableTime(o *attributevalue.EncoderOptions) {
	o.EncodeTime = encodeTime
}

// marshalItem is attributevalue.MarshalMap with fixed-width timestamps.
func marshalItem(in interface{}) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMapWithOptions(in, withSortableTime)
}

func marshalValue(in interface{}) (types.AttributeValue, error) {
	return attributevalue.MarshalWithOptions(in, withSortableTime)
}

// backoff waits before retry attempt n (1-based) and gives up when ctx is done.
func backoff(ctx context.Context, attempt int) error {
	if attempt <= 0 {
		return nil
	}
	t := time.NewTimer(batchRetryBase << (attempt - 1))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET expression.
// Fields are emitted in sorted order so the expression is deterministic.
func buildUpdateExpr(updates map[string]interface{}) (updateExpr, error) {
	if len(updates) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := updateExpr{
		Expr:   "SET ",
		Names:  make(map[string]string, len(keys)),
		Values: make(map[string]types.AttributeValue, len(keys)),
	}
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := marshalValue(updates[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		if i > 0 {
			ue.Expr += ", "
		}
		ue.Expr += fmt.Sprintf("%s = %s", nameKey, valueKey)
	}
	return ue, nil
}

// queryAll follows LastEvaluatedKey until the query is exhausted.
func queryAll[T any](ctx context.Context, client dynamodb.QueryAPIClient, input *dynamodb.QueryInput) ([]T, error) {
	var out []T
	p := dynamodb.NewQueryPaginator(client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var items []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

// scanAll follows LastEvaluatedKey until the scan is exhausted.
func scanAll[T any](ctx context.Context, client dynamodb.ScanAPIClient, input *dynamodb.ScanInput) ([]T, error) {
	var out []T
	p := dynamodb.NewScanPaginator(client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var items []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

// batchWrite sends write requests in chunks of batchWriteLimit and resubmits
// unprocessed items a bounded number of times with exponential backoff.
func batchWrite(ctx context.Context, client *dynamodb.Client, table string, reqs []types.WriteRequest) error {
	for start := 0; start < len(reqs); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(reqs))
		pending := map[string][]types.WriteRequest{table: reqs[start:end]}
		for attempt := 0; len(pending[table]) > 0; attempt++ {
			if attempt > maxBatchRetries {
				return fmt.Errorf("batch write %s: %d items left unprocessed", table, len(pending[table]))
			}
			if err := backoff(ctx, attempt); err != nil {
				return fmt.Errorf("batch write %s: %w", table, err)
			}
			out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("batch write %s: %w", table, err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

// notFoundOnConditionFailure maps a failed attribute_exists condition to ErrNotFound.
func notFoundOnConditionFailure(err error, what string) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%s not found: %w", what, domain.ErrNotFound)
	}
	return err
}

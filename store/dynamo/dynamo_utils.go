package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sketchflow/sketchflow/store"
)

func newDynamoDBClient(ctx context.Context, devMode bool, dynamodbEndpoint string) (*dynamodb.Client, error) {
	var cfg aws.Config
	var err error

	if devMode {
		// Dummy credentials and a fixed region for local/dev
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion("us-east-1"),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("dummy", "dummy", ""),
			),
		)
		if err != nil {
			return nil, err
		}

		// Override endpoint for DynamoDB locally
		return dynamodb.New(dynamodb.Options{
			Credentials:      cfg.Credentials,
			Region:           cfg.Region,
			EndpointResolver: dynamodb.EndpointResolverFromURL(dynamodbEndpoint),
		}), nil
	}

	// Production: default config (uses task role and AWS endpoints)
	cfg, err = config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(cfg), nil
}

func getTables(client *dynamodb.Client, ctx context.Context) ([]string, error) {
	output, err := client.ListTables(ctx, &dynamodb.ListTablesInput{})
	if err != nil {
		return nil, err
	}

	return output.TableNames, nil
}

// getItem retrieves an item of type T from DynamoDB by PK and SK
func getItem[T any](dynamoStore *DynamoEditStore, ctx context.Context, pk string, sk string, consistentRead bool) (T, error) {
	var zero T

	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}

	resp, err := dynamoStore.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(dynamoStore.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(consistentRead),
	})
	if err != nil {
		return zero, fmt.Errorf("GetItem failed: %w", err)
	}
	if resp.Item == nil {
		return zero, store.ErrItemNotFound
	}

	var item T
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return zero, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return item, nil
}

// ensureItem inserts an item if its PK+SK does not exist yet, otherwise
// returns the existing item. The bool reports whether an insert happened.
func ensureItem[T any](dynamoStore *DynamoEditStore, ctx context.Context, item T) (T, bool, error) {
	avMap, err := attributevalue.MarshalMap(item)
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("marshal error: %w", err)
	}

	if _, ok := avMap["PK"]; !ok {
		var zero T
		return zero, false, errors.New("struct missing PK field")
	}
	if _, ok := avMap["SK"]; !ok {
		var zero T
		return zero, false, errors.New("struct missing SK field")
	}

	_, err = dynamoStore.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(dynamoStore.tableName),
		Item:                avMap,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})

	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			// Already exists: fetch it
			key := map[string]types.AttributeValue{
				"PK": avMap["PK"],
				"SK": avMap["SK"],
			}
			getResp, err := dynamoStore.client.GetItem(ctx, &dynamodb.GetItemInput{
				TableName: aws.String(dynamoStore.tableName),
				Key:       key,
			})
			if err != nil {
				var zero T
				return zero, false, fmt.Errorf("failed to get existing item: %w", err)
			}
			if getResp.Item == nil {
				var zero T
				return zero, false, errors.New("item supposedly exists but GetItem returned nothing")
			}

			var existing T
			if err := attributevalue.UnmarshalMap(getResp.Item, &existing); err != nil {
				var zero T
				return zero, false, fmt.Errorf("failed to unmarshal existing item: %w", err)
			}
			return existing, false, nil
		}
		var zero T
		return zero, false, fmt.Errorf("failed to put item: %w", err)
	}

	return item, true, nil
}

// queryAllByPK returns all items of type T with the given PK, ordered by SK,
// with a limit.
func queryAllByPK[T any](dynamoStore *DynamoEditStore, ctx context.Context, pk string, scanIndexForward bool, limit int32) ([]T, error) {
	var results []T

	input := &dynamodb.QueryInput{
		TableName:              aws.String(dynamoStore.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		ScanIndexForward: aws.Bool(scanIndexForward),
	}

	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	// DynamoDB applies Limit per page, so the global limit is enforced here too
	paginator := dynamodb.NewQueryPaginator(dynamoStore.client, input)

	for paginator.HasMorePages() {
		if limit > 0 && len(results) >= int(limit) {
			break
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}

		var pageItems []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal page items: %w", err)
		}

		results = append(results, pageItems...)
	}

	if limit > 0 && len(results) > int(limit) {
		results = results[:limit]
	}

	return results, nil
}

// queryAllByGSI returns the main table PK strings for all items in a GSI with
// the given partition key value.
func queryAllByGSI(dynamoStore *DynamoEditStore, ctx context.Context, indexName string, pkField string, pkValue string) ([]string, error) {
	var results []string

	input := &dynamodb.QueryInput{
		TableName:              aws.String(dynamoStore.tableName),
		IndexName:              aws.String(indexName),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": pkField,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkValue},
		},
		ProjectionExpression: aws.String("PK"),
	}

	paginator := dynamodb.NewQueryPaginator(dynamoStore.client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query GSI failed: %w", err)
		}

		for _, item := range page.Items {
			if pkAttr, ok := item["PK"]; ok {
				if pk, ok := pkAttr.(*types.AttributeValueMemberS); ok {
					results = append(results, pk.Value)
				}
			}
		}
	}

	return results, nil
}

// countByGSI counts items matching a GSI partition key without fetching them
func countByGSI(dynamoStore *DynamoEditStore, ctx context.Context, indexName string, pkField string, pkValue string) (int, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(dynamoStore.tableName),
		IndexName:              aws.String(indexName),
		Select:                 types.SelectCount,
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": pkField,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkValue},
		},
	}

	var totalCount int32
	paginator := dynamodb.NewQueryPaginator(dynamoStore.client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("count GSI failed: %w", err)
		}
		totalCount += page.Count
	}

	return int(totalCount), nil
}

// writeBatchRequests handles batch writes (Put or Delete) with retries.
// Returns any unprocessed items as []T
func writeBatchRequests[T any](dynamoStore *DynamoEditStore, ctx context.Context, requests []types.WriteRequest) ([]T, error) {
	if len(requests) == 0 {
		return nil, nil
	}

	backoff := 50 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return unmarshalUnprocessed[T](requests), ctx.Err()
		default:
		}

		resp, err := dynamoStore.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				dynamoStore.tableName: requests,
			},
		})
		if err != nil {
			return unmarshalUnprocessed[T](requests), fmt.Errorf("BatchWriteItem failed: %w", err)
		}

		unprocessed := resp.UnprocessedItems[dynamoStore.tableName]
		if len(unprocessed) == 0 {
			return nil, nil
		}

		// Prepare next retry set
		requests = unprocessed

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unmarshalUnprocessed[T](requests), ctx.Err()
		case <-timer.C:
		}

		if backoff < time.Second {
			backoff *= 2
		}
	}
}

// helper to convert WriteRequests back to []T
func unmarshalUnprocessed[T any](reqs []types.WriteRequest) []T {
	failed := make([]T, 0, len(reqs))
	for _, wr := range reqs {
		if wr.PutRequest != nil {
			var item T
			if err := attributevalue.UnmarshalMap(wr.PutRequest.Item, &item); err == nil {
				failed = append(failed, item)
			}
		} else if wr.DeleteRequest != nil {
			// For deletes, just populate a minimal struct with PK/SK
			var item T
			if err := attributevalue.UnmarshalMap(wr.DeleteRequest.Key, &item); err == nil {
				failed = append(failed, item)
			}
		}
	}
	return failed
}

// deleteItem removes an item by PK and SK. Missing items surface as
// store.ErrItemNotFound.
func deleteItem(dynamoStore *DynamoEditStore, ctx context.Context, pk string, sk string) error {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}

	_, err := dynamoStore.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(dynamoStore.tableName),
		Key:                 key,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})

	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return store.ErrItemNotFound
		}
		return fmt.Errorf("delete failed: %w", err)
	}

	return nil
}

// deleteQueriedItems batch-deletes a page of queried items in chunks of 25
// with throttling between chunks.
func deleteQueriedItems(dynamoStore *DynamoEditStore, ctx context.Context, items []map[string]types.AttributeValue, throttle time.Duration) error {
	delRequests := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		pkAttr, okPK := item["PK"]
		skAttr, okSK := item["SK"]
		if !okPK || !okSK {
			continue
		}
		delRequests = append(delRequests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"PK": pkAttr,
					"SK": skAttr,
				},
			},
		})
	}

	if len(delRequests) == 0 {
		return fmt.Errorf("query returned items without PK/SK")
	}

	for i := 0; i < len(delRequests); i += 25 {
		end := i + 25
		if end > len(delRequests) {
			end = len(delRequests)
		}

		startTime := time.Now()

		_, err := writeBatchRequests[map[string]types.AttributeValue](
			dynamoStore,
			ctx,
			delRequests[i:end],
		)
		if err != nil {
			return fmt.Errorf("batch delete failed: %w", err)
		}

		elapsed := time.Since(startTime)
		if elapsed < throttle {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(throttle - elapsed):
			}
		}
	}

	return nil
}

const deleteQueryPageSize int32 = 200

// batchDeleteByPKThrottled deletes every item under a main-table partition
// key. Query pages are larger for efficiency; deletion runs in 25-item
// batches with throttling.
func batchDeleteByPKThrottled(dynamoStore *DynamoEditStore, ctx context.Context, pk string, throttle time.Duration) error {
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		resp, err := dynamoStore.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(dynamoStore.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: pk},
			},
			ProjectionExpression: aws.String("PK, SK"),
			Limit:                aws.Int32(deleteQueryPageSize),
			ExclusiveStartKey:    lastEvaluatedKey,
		})
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		if len(resp.Items) == 0 {
			return nil
		}

		if err := deleteQueriedItems(dynamoStore, ctx, resp.Items, throttle); err != nil {
			return err
		}

		lastEvaluatedKey = resp.LastEvaluatedKey
		if lastEvaluatedKey == nil {
			return nil
		}
	}
}

// batchDeleteByGSIThrottled queries items by GSI partition key and deletes
// them until none remain.
func batchDeleteByGSIThrottled(dynamoStore *DynamoEditStore, ctx context.Context, indexName string, gsiPKField string, gsiPK string, throttle time.Duration) error {
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		resp, err := dynamoStore.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(dynamoStore.tableName),
			IndexName:              aws.String(indexName),
			KeyConditionExpression: aws.String("#pk = :gsiPK"),
			ExpressionAttributeNames: map[string]string{
				"#pk": gsiPKField,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":gsiPK": &types.AttributeValueMemberS{Value: gsiPK},
			},
			Limit:             aws.Int32(deleteQueryPageSize),
			ExclusiveStartKey: lastEvaluatedKey,
		})
		if err != nil {
			return fmt.Errorf("query GSI failed: %w", err)
		}

		if len(resp.Items) == 0 {
			return nil
		}

		if err := deleteQueriedItems(dynamoStore, ctx, resp.Items, throttle); err != nil {
			return err
		}

		lastEvaluatedKey = resp.LastEvaluatedKey
		if lastEvaluatedKey == nil {
			return nil
		}
	}
}

// incrementCounter atomically increments a numeric field. The item must
// already exist; incrementing a deleted profile would resurrect it as a
// partial record.
func incrementCounter(dynamoStore *DynamoEditStore, ctx context.Context, pk string, sk string, counterField string, count int, createIfNotExists bool) error {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}

	var updateExpr string
	exprAttrNames := map[string]string{
		"#c": counterField,
	}
	exprAttrValues := map[string]types.AttributeValue{
		":val": &types.AttributeValueMemberN{Value: strconv.Itoa(count)},
	}
	var conditionExpr *string

	if createIfNotExists {
		updateExpr = "SET #c = if_not_exists(#c, :zero) + :val"
		exprAttrValues[":zero"] = &types.AttributeValueMemberN{Value: "0"}
	} else {
		updateExpr = "SET #c = #c + :val"
		conditionExpr = aws.String("attribute_exists(PK)")
	}

	_, err := dynamoStore.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(dynamoStore.tableName),
		Key:                       key,
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
		ConditionExpression:       conditionExpr,
	})

	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return fmt.Errorf("increment %s on PK=%s SK=%s: %w", counterField, pk, sk, store.ErrConditionFailed)
		}
		return fmt.Errorf("increment counter failed: %w", err)
	}

	return nil
}

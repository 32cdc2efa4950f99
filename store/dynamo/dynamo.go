package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gofrs/uuid/v5"

	"github.com/sketchflow/sketchflow/models"
)

// Single-table layout:
//
//	USER#<provider>#<providerId> / PROFILE  - user profile + edit counter
//	ROOM#<roomId> / <editId>                - one edit-log entry per item
//
// GSI_UserEdits indexes edits by UserId for account-wide deletion.
type DynamoEditStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoEditStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoEditStore, error) {
	client, err := newDynamoDBClient(context.Background(), devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoEditStore{client: client, tableName: tableName}, nil
}

func (dynamoStore *DynamoEditStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	userId, err := uuid.NewV4()
	if err != nil {
		return models.User{}, err
	}
	user.Id = userId.String()

	du := userToDynamo(user)
	du.Created = time.Now().Unix()
	du, _, err = ensureItem(dynamoStore, ctx, du)
	if err != nil {
		return models.User{}, err
	}

	return userFromDynamo(du), nil
}

func (dynamoStore *DynamoEditStore) GetUser(ctx context.Context, provider string, providerId string) (models.User, error) {
	du, err := getItem[dynamoUser](dynamoStore, ctx, "USER#"+provider+"#"+providerId, "PROFILE", false)
	if err != nil {
		return models.User{}, err
	}

	return userFromDynamo(du), nil
}

func (dynamoStore *DynamoEditStore) DeleteUser(ctx context.Context, provider string, providerId string) error {
	return deleteItem(dynamoStore, ctx, "USER#"+provider+"#"+providerId, "PROFILE")
}

const maxRoomEditsFetched = 1100

func (dynamoStore *DynamoEditStore) GetEditRecords(ctx context.Context, roomId string) ([]models.Edit, error) {
	// Fetch the newest edits first (ScanIndexForward: false). The room quota
	// caps the log at 1000; the extra headroom covers writes racing the quota.
	dynamoEdits, err := queryAllByPK[dynamoEdit](dynamoStore, ctx, "ROOM#"+roomId, false, maxRoomEditsFetched)
	if err != nil {
		return []models.Edit{}, err
	}

	// Reverse to chronological order (oldest -> newest)
	edits := make([]models.Edit, 0, len(dynamoEdits))
	for i := len(dynamoEdits) - 1; i >= 0; i-- {
		edits = append(edits, editFromDynamo(dynamoEdits[i]))
	}

	return edits, nil
}

func (dynamoStore *DynamoEditStore) WriteEditBatch(ctx context.Context, records []models.EditRecord) ([]models.EditRecord, error) {
	var writeRequests []types.WriteRequest
	for _, record := range records {
		de := editRecordToDynamo(record)
		avMap, err := attributevalue.MarshalMap(de)
		if err != nil {
			return nil, fmt.Errorf("marshal error: %w", err)
		}

		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{
				Item: avMap,
			},
		})
	}

	unprocessed, err := writeBatchRequests[dynamoEdit](dynamoStore, ctx, writeRequests)

	unbatched := make([]models.EditRecord, 0, len(unprocessed))
	for _, u := range unprocessed {
		unbatched = append(unbatched, editRecordFromDynamo(u))
	}

	return unbatched, err
}

func (dynamoStore *DynamoEditStore) DeleteRoomEdits(ctx context.Context, roomId string) error {
	return batchDeleteByPKThrottled(dynamoStore, ctx, "ROOM#"+roomId, 50*time.Millisecond)
}

func (dynamoStore *DynamoEditStore) DeleteUserEdits(ctx context.Context, userId string) error {
	return batchDeleteByGSIThrottled(dynamoStore, ctx, "GSI_UserEdits", "UserId", userId, 50*time.Millisecond)
}

func (dynamoStore *DynamoEditStore) GetUserRooms(ctx context.Context, userId string) ([]string, error) {
	results, err := queryAllByGSI(dynamoStore, ctx, "GSI_UserEdits", "UserId", userId)
	if err != nil {
		return nil, err
	}

	uniqueRooms := make(map[string]struct{})
	for _, pk := range results {
		// PK format is ROOM#<roomId>
		if len(pk) > 5 && pk[:5] == "ROOM#" {
			uniqueRooms[pk[5:]] = struct{}{}
		}
	}

	rooms := make([]string, 0, len(uniqueRooms))
	for r := range uniqueRooms {
		rooms = append(rooms, r)
	}

	return rooms, nil
}

func (dynamoStore *DynamoEditStore) GetUserEditCount(ctx context.Context, userId string) (int, error) {
	return countByGSI(dynamoStore, ctx, "GSI_UserEdits", "UserId", userId)
}

func (dynamoStore *DynamoEditStore) IncrementUserEditCount(ctx context.Context, provider string, providerId string, count int) error {
	// Strict mode: only increment if the user exists (prevents partial
	// records reappearing after account deletion)
	return incrementCounter(dynamoStore, ctx, "USER#"+provider+"#"+providerId, "PROFILE", "EditCount", count, false)
}

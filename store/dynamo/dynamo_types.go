package dynamo

import (
	"github.com/sketchflow/sketchflow/models"
)

type dynamoUser struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Id         string `dynamodbav:"Id"`
	Provider   string `dynamodbav:"Provider"`
	ProviderId string `dynamodbav:"ProviderId"`
	Username   string `dynamodbav:"Username"`
	Created    int64  `dynamodbav:"Created"`
	EditCount  int    `dynamodbav:"EditCount"`
}

// Map domain User -> Dynamo
func userToDynamo(u models.User) dynamoUser {
	return dynamoUser{
		PK:         "USER#" + u.Provider + "#" + u.ProviderId,
		SK:         "PROFILE",
		Id:         u.Id,
		Provider:   u.Provider,
		ProviderId: u.ProviderId,
		Username:   u.Username,
		Created:    u.Created,
		EditCount:  u.EditCount,
	}
}

// Map Dynamo -> domain User
func userFromDynamo(du dynamoUser) models.User {
	return models.User{
		Id:         du.Id,
		Username:   du.Username,
		Provider:   du.Provider,
		ProviderId: du.ProviderId,
		Created:    du.Created,
		EditCount:  du.EditCount,
	}
}

// One edit per item. The edit id (UUIDv7) is the sort key, so a PK query
// returns the room's edit log in chronological order.
type dynamoEdit struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	UserId  string `dynamodbav:"UserId"`
	Payload string `dynamodbav:"Payload"`
}

// Map domain EditRecord -> Dynamo
func editRecordToDynamo(er models.EditRecord) dynamoEdit {
	return dynamoEdit{
		PK:      "ROOM#" + er.RoomId,
		SK:      er.Edit.Id,
		UserId:  er.Edit.UserId,
		Payload: er.Edit.Payload,
	}
}

// Map Dynamo -> domain EditRecord
func editRecordFromDynamo(de dynamoEdit) models.EditRecord {
	return models.EditRecord{
		RoomId: de.PK[5:],
		Edit:   editFromDynamo(de),
	}
}

func editFromDynamo(de dynamoEdit) models.Edit {
	return models.Edit{
		Id:      de.SK,
		UserId:  de.UserId,
		Payload: de.Payload,
	}
}

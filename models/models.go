package models

type User struct {
	Id         string
	Username   string
	Provider   string
	ProviderId string
	Created    int64
	EditCount  int
}

// Edit is one persisted room edit. Payload holds the relayed chat message
// verbatim ({"shape":...} or {"eraseId":...}); the store never interprets it.
type Edit struct {
	Id      string `json:"id"`
	UserId  string `json:"userId"`
	Payload string `json:"payload"`
}

type EditRecord struct {
	RoomId string
	Edit   Edit
}

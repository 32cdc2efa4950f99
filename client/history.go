package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sketchflow/sketchflow/geometry"
	"github.com/sketchflow/sketchflow/models"
)

// HistoryClient fetches the authoritative edit history for a room from the
// history service before any live message is processed.
type HistoryClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewHistoryClient(baseURL string) *HistoryClient {
	return &HistoryClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// HistoryRecord is one stored edit, its Message being the relayed chat
// body verbatim.
type HistoryRecord struct {
	Message string `json:"message"`
}

type historyResponse struct {
	Messages []HistoryRecord `json:"messages"`
}

// FetchShapes replays the room's history into a shape list. Removals are
// folded, so a shape erased before this client joined never reappears.
// Historical shapes lacking an ID get a synthetic one; malformed records
// are logged and skipped.
func (h *HistoryClient) FetchShapes(ctx context.Context, roomId string) ([]models.Shape, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/chats/"+roomId, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch for room %s: status %d", roomId, resp.StatusCode)
	}

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	return ReplayHistory(body.Messages), nil
}

// ReplayHistory folds an ordered list of edit records into the shapes that
// survive them.
func ReplayHistory(records []HistoryRecord) []models.Shape {
	collection := models.NewShapeCollection()
	for i, record := range records {
		shape, eraseId, err := models.DecodeEditPayload(record.Message)
		if err != nil {
			log.Printf("Skipping invalid history record %d: %v", i, err)
			continue
		}
		if eraseId != "" {
			collection.RemoveByID(eraseId)
			continue
		}
		if shape.ID() == "" {
			shape.SetID(geometry.SyntheticID(i))
		}
		collection.Append(shape)
	}
	return collection.Shapes()
}

package worker

import (
	"context"
	"log"
	"time"

	"github.com/sketchflow/sketchflow/models"
	"github.com/sketchflow/sketchflow/store"
)

type BatchedEdit struct {
	Record         models.EditRecord
	UserProvider   string
	UserProviderId string
}

// EditBatcher buffers edit-log writes and flushes them as DynamoDB batch
// writes of up to 25 items. The edit log is append-only (erases are edits
// too), so there is no cancellation path for pending writes.
type EditBatcher struct {
	WriteCh            chan BatchedEdit
	editStore          store.EditStore
	counterBatcher     *CounterBatcher
	tickerMilliseconds int
}

func NewEditBatcher(editStore store.EditStore, tickerMilliseconds int, counterBatcher *CounterBatcher) *EditBatcher {
	return &EditBatcher{
		WriteCh:            make(chan BatchedEdit, 1024), // buffer to absorb bursts
		editStore:          editStore,
		counterBatcher:     counterBatcher,
		tickerMilliseconds: tickerMilliseconds,
	}
}

const dynamoBatchSize = 25

func (b *EditBatcher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(time.Duration(b.tickerMilliseconds) * time.Millisecond)
	defer ticker.Stop()

	batch := make([]models.EditRecord, 0, dynamoBatchSize)
	// Provider info per edit id, needed for the counter update after a
	// successful write
	batchMeta := make(map[string]BatchedEdit, dynamoBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Own timeout rather than shutdownCtx so the final flush on shutdown
		// still completes
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		unprocessed, err := b.editStore.WriteEditBatch(ctx, batch)
		if err != nil {
			log.Printf("Error writing edit batch to dynamo: %v", err)
		}

		failedIds := make(map[string]bool)
		for _, u := range unprocessed {
			failedIds[u.Edit.Id] = true
		}

		for _, r := range batch {
			if failedIds[r.Edit.Id] {
				continue
			}
			if meta, ok := batchMeta[r.Edit.Id]; ok {
				b.counterBatcher.UpdateCh <- CounterUpdate{
					UserProvider:   meta.UserProvider,
					UserProviderId: meta.UserProviderId,
					Delta:          1,
				}
			}
		}

		batch = batch[:0]
		clear(batchMeta)
	}

	for {
		select {
		case item := <-b.WriteCh:
			batch = append(batch, item.Record)
			batchMeta[item.Record.Edit.Id] = item
			if len(batch) == dynamoBatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-shutdownCtx.Done():
			flush()
			return
		}
	}
}

package worker

import (
	"context"
	"log"
	"time"

	"github.com/sketchflow/sketchflow/store"
)

type CounterUpdate struct {
	UserId         string // kept for logging/reference
	UserProvider   string
	UserProviderId string
	Delta          int
}

// CounterBatcher coalesces per-user edit count deltas so a burst of edits
// becomes a single counter update per user per tick.
type CounterBatcher struct {
	UpdateCh           chan CounterUpdate
	editStore          store.EditStore
	tickerMilliseconds int
}

func NewCounterBatcher(editStore store.EditStore, tickerMilliseconds int) *CounterBatcher {
	return &CounterBatcher{
		UpdateCh:           make(chan CounterUpdate, 1024),
		editStore:          editStore,
		tickerMilliseconds: tickerMilliseconds,
	}
}

func (b *CounterBatcher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(time.Duration(b.tickerMilliseconds) * time.Millisecond)
	defer ticker.Stop()

	// Key: "provider#providerId" -> accumulated delta
	userCounts := make(map[string]int)
	type providerKeys struct {
		p  string
		id string
	}
	userKeys := make(map[string]providerKeys)

	flush := func() {
		for key, count := range userCounts {
			if count == 0 {
				continue
			}
			pk := userKeys[key]
			go func(p string, pid string, c int) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := b.editStore.IncrementUserEditCount(ctx, p, pid, c); err != nil {
					log.Printf("Failed to update edit count for user %s#%s: %v", p, pid, err)
				}
			}(pk.p, pk.id, count)
		}
		userCounts = make(map[string]int)
		userKeys = make(map[string]providerKeys)
	}

	for {
		select {
		case update := <-b.UpdateCh:
			if update.UserProvider != "" && update.UserProviderId != "" {
				key := update.UserProvider + "#" + update.UserProviderId
				userCounts[key] += update.Delta
				userKeys[key] = providerKeys{p: update.UserProvider, id: update.UserProviderId}
			}

			if len(userCounts) >= 100 {
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

package client

import (
	"context"
	"log"
)

// Loop serializes input events and remote edits onto a single goroutine, so
// the session never needs locking around its collection or viewport. Events
// are handled one at a time in arrival order; there is no ordering guarantee
// between a local edit and a concurrently arriving remote one beyond which
// the loop sees first.
type Loop struct {
	session *Session
	events  chan func(*Session)
}

func NewLoop(session *Session) *Loop {
	return &Loop{
		session: session,
		events:  make(chan func(*Session), 64),
	}
}

// Do queues an input event, e.g. loop.Do(func(s *Session) { s.PointerDown(ev) }).
func (l *Loop) Do(fn func(*Session)) {
	l.events <- fn
}

// Run processes events and remote edits until the context is cancelled or
// the incoming channel closes (the connection died). One bad remote message
// never affects the next.
func (l *Loop) Run(ctx context.Context, incoming <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return

		case fn := <-l.events:
			fn(l.session)

		case message, ok := <-incoming:
			if !ok {
				return
			}
			if err := l.session.ApplyEdit(message); err != nil {
				log.Printf("Dropping malformed edit in room %s: %v", l.session.RoomId(), err)
			}
		}
	}
}

package mq

import "context"

// Message carries the broker receipt handle in Id so a consumer can
// acknowledge exactly the delivery it processed.
type Message struct {
	Id   string
	Body string
}

type MessageQueue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, visibilityTimeout int32) (*Message, error)
	Delete(ctx context.Context, msg *Message) error
}

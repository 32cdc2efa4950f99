package service

import (
	"golang.org/x/oauth2"

	"github.com/sketchflow/sketchflow/cache"
	"github.com/sketchflow/sketchflow/mq"
	"github.com/sketchflow/sketchflow/store"
	"github.com/sketchflow/sketchflow/worker"
)

type Service struct {
	Store          store.EditStore
	Cache          cache.RoomCache
	MQ             mq.MessageQueue
	EditBatcher    *worker.EditBatcher
	CounterBatcher *worker.CounterBatcher
	OAuthConfigs   map[string]*oauth2.Config
	JWTSecret      []byte
}

func NewService(
	editStore store.EditStore,
	roomCache cache.RoomCache,
	purgeQueue mq.MessageQueue,
	editBatcher *worker.EditBatcher,
	counterBatcher *worker.CounterBatcher,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
) (*Service, error) {
	oauthConfigs, err := addOauthEndpointsAndScopes(oauthConfigs)
	if err != nil {
		return nil, err
	}

	return &Service{
		Store:          editStore,
		Cache:          roomCache,
		MQ:             purgeQueue,
		EditBatcher:    editBatcher,
		CounterBatcher: counterBatcher,
		OAuthConfigs:   oauthConfigs,
		JWTSecret:      jwtSecret,
	}, nil
}

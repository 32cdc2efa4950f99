package api

import (
	"context"
	"log"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/sketchflow/sketchflow/api/rest"
	"github.com/sketchflow/sketchflow/api/ws"
	"github.com/sketchflow/sketchflow/cache"
	"github.com/sketchflow/sketchflow/mq"
	"github.com/sketchflow/sketchflow/service"
	"github.com/sketchflow/sketchflow/store"
	"github.com/sketchflow/sketchflow/worker"
)

type SketchflowAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewSketchflowAPI(
	editStore store.EditStore,
	purgeQueue mq.MessageQueue,
	roomCache cache.RoomCache,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
	shutdownCtx context.Context,
) (*SketchflowAPI, error) {
	wsHub := ws.NewHub(roomCache)
	if err := wsHub.InitSubscriptions(shutdownCtx); err != nil {
		log.Printf("Failed to start WS hub subscriptions: %v", err)
		return &SketchflowAPI{}, err
	}
	go wsHub.Run()

	counterBatcher := worker.NewCounterBatcher(editStore, 60000)
	go counterBatcher.Run(shutdownCtx)

	editBatcher := worker.NewEditBatcher(editStore, 500, counterBatcher)
	go editBatcher.Run(shutdownCtx)

	mqConsumer := worker.NewMQConsumer(purgeQueue, editStore, roomCache)
	go mqConsumer.Run(shutdownCtx)

	svc, err := service.NewService(
		editStore,
		roomCache,
		purgeQueue,
		editBatcher,
		counterBatcher,
		oauthConfigs,
		jwtSecret,
	)
	if err != nil {
		log.Printf("Failed to create service: %v", err)
		return &SketchflowAPI{}, err
	}

	return &SketchflowAPI{
		restHandler: rest.NewHandler(svc),
		wsHandler:   ws.NewHandler(svc, wsHub),
		shutdownCtx: shutdownCtx,
	}, nil
}

func (sketchflowAPI *SketchflowAPI) RegisterRoutes(mux *http.ServeMux, requiredOrigin string) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /login", sketchflowAPI.restHandler.HandleLogin)
	mux.HandleFunc("/me", sketchflowAPI.restHandler.HandleMe)
	mux.HandleFunc("GET /chats/{roomId}", sketchflowAPI.restHandler.HandleChats)
	mux.HandleFunc("DELETE /rooms/{roomId}", sketchflowAPI.restHandler.HandlePurgeRoom)

	wsUpgrader := sketchflowAPI.wsHandler.NewWsUpgrader(requiredOrigin)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		sketchflowAPI.wsHandler.ServeWS(wsUpgrader, w, r, sketchflowAPI.shutdownCtx)
	})
}

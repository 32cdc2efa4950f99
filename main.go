package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/oauth2"

	"github.com/sketchflow/sketchflow/api"
	"github.com/sketchflow/sketchflow/cache/redis"
	"github.com/sketchflow/sketchflow/mq/sqsmq"
	"github.com/sketchflow/sketchflow/store/dynamo"
)

const (
	dynamoDBTable = "Sketchflow"
	sqsPurgeQueue = "SketchflowPurgeQueue"
)

func main() {
	ctx := context.Background()
	devMode := os.Getenv("DEV_MODE") == "true"

	editStore, err := dynamo.NewDynamoEditStore(ctx, devMode, os.Getenv("DYNAMODB_ENDPOINT"), dynamoDBTable)
	if err != nil {
		log.Fatalf("Failed to create dynamodb store: %v", err)
	}

	purgeQueue, err := sqsmq.NewSQSMessageQueue(ctx, devMode, os.Getenv("SQS_ENDPOINT"), sqsPurgeQueue)
	if err != nil {
		log.Fatalf("Failed to create SQS MQ: %v", err)
	}

	roomCache, err := redis.NewRedisRoomCache(ctx, devMode, os.Getenv("REDIS_ENDPOINT"))
	if err != nil {
		log.Fatalf("Failed to create redis cache: %v", err)
	}

	oauthRedirectURL := os.Getenv("OAUTH_REDIRECT_URL")

	var oauthConfigs = map[string]*oauth2.Config{
		"github": {
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			RedirectURL:  oauthRedirectURL,
		},
		"google": {
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  oauthRedirectURL,
		},
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatalf("Failed to decode base64 jwtSecret: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	sketchflowAPI, err := api.NewSketchflowAPI(editStore, purgeQueue, roomCache, oauthConfigs, jwtSecret, shutdownCtx)
	if err != nil {
		log.Fatalf("Failed to create sketchflow api: %v", err)
	}

	mux := http.NewServeMux()
	sketchflowAPI.RegisterRoutes(mux, os.Getenv("ALLOWED_ORIGIN"))

	hostPort := "8080"
	if p := os.Getenv("HOST_PORT"); p != "" {
		hostPort = p
	}
	log.Printf("Starting server on host port: %s\n", hostPort)
	log.Fatal(http.ListenAndServe(":"+hostPort, mux))
}

package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sketchflow/sketchflow/models"
	"github.com/sketchflow/sketchflow/service"
	"github.com/sketchflow/sketchflow/worker"
)

func TestCreateAndVerifyJWT(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	token, err := svc.CreateJWT("user1", "github", "456")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	userId, provider, providerId, expiry, err := svc.VerifyJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, "user1", userId)
	assert.Equal(t, "github", provider)
	assert.Equal(t, "456", providerId)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiry, time.Minute)
}

func TestVerifyJWT_WrongSecret(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	otherSvc, err := service.NewService(nil, nil, nil, nil, nil, nil, []byte("other-secret"))
	assert.NoError(t, err)

	token, err := otherSvc.CreateJWT("user1", "github", "456")
	assert.NoError(t, err)

	_, _, _, _, err = svc.VerifyJWT(token)
	assert.Error(t, err)
}

func TestAuthenticateToken_Success(t *testing.T) {
	svc, mockStore, _, _, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1", Provider: "github", ProviderId: "456", Username: "octocat"}

	token, err := svc.CreateJWT(user.Id, user.Provider, user.ProviderId)
	assert.NoError(t, err)

	mockStore.On("GetUser", ctx, user.Provider, user.ProviderId).Return(user, nil)

	got, err := svc.AuthenticateToken(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestAuthenticateToken_EmptyToken(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	_, err := svc.AuthenticateToken(context.Background(), "")
	assert.Error(t, err)
}

func TestAuthenticateToken_Garbage(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)

	_, err := svc.AuthenticateToken(context.Background(), "not.a.jwt")
	assert.Error(t, err)
}

func TestDeleteUser(t *testing.T) {
	svc, mockStore, mockCache, mockMQ, _, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Id: "user1", Provider: "github", ProviderId: "456"}

	mockStore.On("DeleteUser", ctx, user.Provider, user.ProviderId).Return(nil)

	publishDone := wrapMockWithSignal(mockCache.On("Publish", mock.Anything, "user-deleted", mock.Anything).Return(nil))
	sendDone := wrapMockWithSignal(mockMQ.On("Send", mock.Anything, mock.MatchedBy(func(body string) bool {
		var msg worker.PurgeMessage
		if err := json.Unmarshal([]byte(body), &msg); err != nil {
			return false
		}
		return msg.Kind == worker.PurgeKindUser && msg.UserId == user.Id
	})).Return(nil))

	err := svc.DeleteUser(ctx, user)
	assert.NoError(t, err)

	select {
	case <-publishDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for user-deleted publish")
	}

	select {
	case <-sendDone:
	case <-time.After(1 * time.Second):
		assert.Fail(t, "timed out waiting for purge enqueue")
	}
}

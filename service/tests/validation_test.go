package service_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sketchflow/sketchflow/service"
)

func TestValidateRoomId(t *testing.T) {
	tests := []struct {
		name    string
		roomId  string
		wantErr bool
	}{
		{"simple", "room1", false},
		{"slug with dash and underscore", "my-room_2", false},
		{"single char", "a", false},
		{"max length", strings.Repeat("x", 64), false},
		{"empty", "", true},
		{"too long", strings.Repeat("x", 65), true},
		{"spaces", "my room", true},
		{"slash", "rooms/1", true},
		{"unicode", "zimmeré", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateRoomId(tt.roomId)
			if tt.wantErr {
				assert.ErrorIs(t, err, service.ErrInvalidRoomId)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEditMessage(t *testing.T) {
	longPoints := make([]string, 1001)
	for i := range longPoints {
		longPoints[i] = `{"x":1,"y":2}`
	}

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"valid rect", `{"shape":{"type":"rect","id":"s1","x":0,"y":0,"width":10,"height":10}}`, false},
		{"valid circle", `{"shape":{"type":"circle","id":"s2","centerX":5,"centerY":5,"radius":3}}`, false},
		{"valid pencil", `{"shape":{"type":"pencil","id":"s3","points":[{"x":1,"y":2},{"x":3,"y":4}]}}`, false},
		{"valid text", `{"shape":{"type":"text","id":"s4","x":1,"y":2,"content":"hi","fontSize":16}}`, false},
		{"text without font size", `{"shape":{"type":"text","id":"s5","x":1,"y":2,"content":"hi"}}`, false},
		{"valid erase", `{"eraseId":"s1"}`, false},
		{"empty string", "", true},
		{"not json", "garbage", true},
		{"neither shape nor erase", `{}`, true},
		{"unknown shape type", `{"shape":{"type":"triangle","x":0,"y":0}}`, true},
		{"negative radius", `{"shape":{"type":"circle","centerX":0,"centerY":0,"radius":-1}}`, true},
		{"pencil too long", `{"shape":{"type":"pencil","points":[` + strings.Join(longPoints, ",") + `]}}`, true},
		{"negative font size", `{"shape":{"type":"text","x":0,"y":0,"content":"hi","fontSize":-1}}`, true},
		{"oversized font size", `{"shape":{"type":"text","x":0,"y":0,"content":"hi","fontSize":513}}`, true},
		{"text too long", `{"shape":{"type":"text","x":0,"y":0,"content":"` + strings.Repeat("a", 4097) + `","fontSize":16}}`, true},
		{"erase id too long", `{"eraseId":"` + strings.Repeat("e", 129) + `"}`, true},
		{"oversized message", `{"eraseId":"` + strings.Repeat("e", 17*1024) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateEditMessage(tt.message)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

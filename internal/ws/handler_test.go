package ws

import (
	"net/http/httptest"
	"os"
	"testing"

	"joker-service/internal/service/game"
	"joker-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func TestEnqueueNeverBlocksReader(t *testing.T) {
	c := &client{
		playerID: "ana",
		tableID:  "t1",
		replies:  make(chan game.OutgoingMessage, 1),
		done:     make(chan struct{}),
	}

	c.enqueue(game.OutgoingMessage{Type: "pong"})
	// A full reply queue drops instead of stalling the read pump.
	c.enqueue(game.OutgoingMessage{Type: "error"})

	msg := <-c.replies
	if msg.Type != "pong" {
		t.Fatalf("expected first reply retained, got %s", msg.Type)
	}
	select {
	case extra := <-c.replies:
		t.Fatalf("expected overflow reply dropped, got %s", extra.Type)
	default:
	}
}

func TestGetTokenFromRequest(t *testing.T) {
	newCtx := func(target, header string) *gin.Context {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Request = httptest.NewRequest("GET", target, nil)
		if header != "" {
			ctx.Request.Header.Set("Authorization", header)
		}
		return ctx
	}

	if tok, err := getTokenFromRequest(newCtx("/ws/table/t1?token=abc", "")); err != nil || tok != "abc" {
		t.Fatalf("query token: got (%q, %v)", tok, err)
	}
	if tok, err := getTokenFromRequest(newCtx("/ws/table/t1", "Bearer xyz")); err != nil || tok != "xyz" {
		t.Fatalf("bearer token: got (%q, %v)", tok, err)
	}
	if _, err := getTokenFromRequest(newCtx("/ws/table/t1", "")); err == nil {
		t.Fatalf("expected error for missing token")
	}
	if _, err := getTokenFromRequest(newCtx("/ws/table/t1", "Basic xyz")); err == nil {
		t.Fatalf("expected error for non-bearer header")
	}
}

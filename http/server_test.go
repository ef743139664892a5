package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"winequality/monitoring"
)

func TestServerServesAndStops(t *testing.T) {
	feed := monitoring.NewWebSocketHub(zap.NewNop())
	go feed.Start()
	defer feed.Stop()

	p := newTestPipeline(t, "../models/scaler.json", "../models/model.json")
	server := NewServer(DefaultServerConfig(), NewHandler(p, zap.NewNop(), WithFeed(feed)), zap.NewNop())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- server.Serve(listener) }()

	base := "http://" + listener.Addr().String()
	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the feed upgrade goes through the whole middleware chain
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+listener.Addr().String()+"/ws/predictions", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return feed.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	resp, err = http.Post(base+"/predict", "application/json", strings.NewReader(exampleBody))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var message monitoring.Message
	require.NoError(t, json.Unmarshal(raw, &message))
	assert.Equal(t, monitoring.PredictionMessage, message.Type)
	assert.Contains(t, string(message.Data), `"quality":"low"`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, <-served)
}

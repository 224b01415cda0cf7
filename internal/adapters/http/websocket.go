package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/lunchpick/internal/pkg/metrics"
)

// wsQueueSize bounds the messages a client may queue behind the one in flight.
const wsQueueSize = 4

// wsRequest is one recommendation request sent by a client.
// Numbers may be sent as JSON numbers or numeric strings.
type wsRequest struct {
	Lat      json.Number `json:"lat"`
	Lng      json.Number `json:"lng"`
	Strategy string      `json:"strategy"`
}

// WebSocketHandler answers each client message with a recommendation.
// Clients send JSON: {"lat":37.5665,"lng":126.978,"strategy":"all"}
// and receive the same body as GET /recommend, or an APIError.
// Closing the socket cancels the request in flight.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		log := slog.Default().With("remote_addr", c.RemoteAddr().String())
		log.Info("ws client connected")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Reader: a read error means the client is gone. It never blocks on
		// the queue so a disconnect is seen while a request is in flight.
		requests := make(chan []byte, wsQueueSize)
		go func() {
			defer close(requests)
			defer cancel()
			for {
				_, msg, err := c.ReadMessage()
				if err != nil {
					return
				}
				select {
				case requests <- msg:
				default:
					_ = writeJSON(APIError{Status: 429, Code: "RATE_LIMITED", Error: "too many pending requests"})
				}
			}
		}()

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for msg := range requests {
			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				_ = writeJSON(APIError{Status: 400, Code: "BAD_INPUT", Error: "invalid JSON"})
				continue
			}
			if deps.Recommender == nil {
				_ = writeJSON(APIError{Status: 500, Code: "INTERNAL", Error: "recommender not configured"})
				continue
			}

			reqCtx, reqCancel := context.WithTimeout(ctx, deps.requestTimeout())
			rec, err := deps.Recommender.RecommendRaw(reqCtx, req.Lat.String(), req.Lng.String(), req.Strategy)
			reqCancel()

			if err != nil {
				if ctx.Err() != nil {
					break
				}
				_ = writeJSON(apiErrorFor(err))
				continue
			}
			if err := writeJSON(rec); err != nil {
				break
			}
		}

		log.Info("ws client disconnected")
	}
}

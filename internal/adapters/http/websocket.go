package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/spotfinder/internal/adapters/nats"
	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/pkg/metrics"
)

// wsMessage is sent by the client to narrow the relayed activity.
type wsMessage struct {
	Action   string `json:"action"`   // "filter" | "clear"
	Category string `json:"category"` // only relay searches for this category
}

// WebSocketHandler relays search activity events from NATS to connected
// clients. Clients send {"action":"filter","category":"cafe"} to narrow
// the feed and {"action":"clear"} to widen it again.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		log.Info("ws client connected")

		var mu sync.Mutex
		category := ""

		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		sub, err := nc.Subscribe(natsadapter.SubjectSearchAll, func(msg *nats.Msg) {
			var ev domain.SearchEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				return
			}
			mu.Lock()
			want := category
			mu.Unlock()
			if want != "" && ev.Category != want {
				return
			}
			_ = writeJSON(json.RawMessage(msg.Data))
		})
		if err != nil {
			log.Error("ws subscribe failed", "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		done := make(chan struct{})
		defer close(done)
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
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "filter":
				mu.Lock()
				category = strings.ToLower(strings.TrimSpace(m.Category))
				mu.Unlock()
				_ = writeJSON(map[string]string{"status": "filtered", "category": m.Category})
			case "clear":
				mu.Lock()
				category = ""
				mu.Unlock()
				_ = writeJSON(map[string]string{"status": "cleared"})
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		log.Info("ws client disconnected")
	}
}

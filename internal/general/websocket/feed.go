package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"shuttle-track/internal/general/contracts"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/general/rabbitmq"

	"github.com/gorilla/websocket"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the tracking page is public and served from the marketing site
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Feed pushes live driver positions to subscribed customer tracking pages.
// Pages subscribe by booking ref; updates arrive from the location fanout
// queue and are forwarded to every page watching that booking.
type Feed struct {
	logger *logger.Logger

	writeLocks sync.Map // *websocket.Conn -> *sync.Mutex
	subs       sync.Map // *websocket.Conn -> booking_ref(string)
}

// NewFeed creates a Feed.
func NewFeed(logger *logger.Logger) *Feed {
	return &Feed{logger: logger}
}

// Subscribe handles GET /ws/track/{tracking_ref}: upgrades the connection and
// streams location updates for that booking until the page goes away.
func (f *Feed) Subscribe(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("tracking_ref")
	if ref == "" {
		http.Error(w, "tracking ref is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()
	defer f.writeLocks.Delete(conn)

	conn.SetReadLimit(1 << 20) // 1 MiB
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	f.subs.Store(conn, ref)
	defer f.subs.Delete(conn)

	f.logger.Info(r.Context(), "ws_feed_subscribed", "Tracking page subscribed to live feed",
		map[string]any{"tracking_ref": ref})

	// ping loop keeps intermediaries from dropping the idle socket
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				mu := f.lockOf(conn)
				mu.Lock()
				_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
				mu.Unlock()
				if err != nil {
					// close socket to unblock the reader; goroutine exits
					_ = conn.Close()
					return
				}
			}
		}
	}()

	// read loop exists only to notice the close; the feed is one-directional
	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				f.wsWriteClose(conn, websocket.CloseInternalServerErr, "internal error")
			} else {
				f.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			}
			break
		}
	}
}

// Run consumes the location feed queue and fans updates out to subscribers.
// Blocks until ctx is cancelled; reconnect handling lives in the MQ client.
func (f *Feed) Run(ctx context.Context, client *rabbitmq.Client) error {
	return client.Consume(ctx, contracts.QueueLocationFeed, "ws-feed", 10,
		func(hCtx context.Context, d amqp.Delivery) error {
			var msg contracts.LocationUpdateMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				f.logger.Error(hCtx, "ws_feed_bad_payload", "Failed to decode location update", err, nil)
				return err
			}
			f.broadcast(hCtx, msg)
			return nil
		})
}

// broadcast delivers one update to every page watching its booking ref.
// Dead connections are pruned as writes fail.
func (f *Feed) broadcast(ctx context.Context, msg contracts.LocationUpdateMessage) {
	payload, err := json.Marshal(map[string]any{
		"type": "location_update",
		"data": msg,
	})
	if err != nil {
		return
	}

	f.subs.Range(func(key, value any) bool {
		if value.(string) != msg.BookingRef {
			return true
		}
		conn := key.(*websocket.Conn)
		if err := f.wsWriteMessage(conn, websocket.TextMessage, payload); err != nil {
			f.logger.Error(ctx, "ws_feed_write_failed", "Failed to push location update, dropping connection", err,
				map[string]any{"tracking_ref": msg.BookingRef})
			f.subs.Delete(conn)
			_ = conn.Close()
		}
		return true
	})
}

// --- write helpers ---

// wsWriteClose sends a close control frame with the given code and reason.
func (f *Feed) wsWriteClose(conn *websocket.Conn, code int, reason string) {
	mu := f.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
	f.writeLocks.Delete(conn)
}

// wsWriteMessage sets a short write deadline and writes a message.
func (f *Feed) wsWriteMessage(conn *websocket.Conn, mt int, payload []byte) error {
	mu := f.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// lockOf returns the writer mutex for a specific connection.
func (f *Feed) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := f.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := f.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}

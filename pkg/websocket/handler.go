// Package websocket serves the session channel: one connection per client,
// carrying every broadcast event plus direct replies to that client's own
// commands.
package websocket

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"library-streaming-api/internal/models"
	"library-streaming-api/pkg/broadcast"
	"library-streaming-api/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 512 * 1024

	replyBuffer = 16

	// Inbound command budget per client. Streams are outbound-heavy;
	// anything hammering the command side gets told off instead of served.
	commandRate  rate.Limit = 10
	commandBurst            = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // open teaching endpoint, origin is not restricted
	},
}

// Controller is the slice of the stream registry the session channel
// drives.
type Controller interface {
	Start(cfg models.StreamConfig) error
	Stop(name string) bool
	Configs() map[string]models.StreamConfig
}

// Handler upgrades connections and runs their pumps.
type Handler struct {
	hub *broadcast.Hub
	ctl Controller
	met *metrics.Metrics
	log *logrus.Entry
}

func NewHandler(hub *broadcast.Hub, ctl Controller, met *metrics.Metrics, log *logrus.Entry) *Handler {
	return &Handler{hub: hub, ctl: ctl, met: met, log: log}
}

// envelope is the wire form of every session message, both directions.
type envelope struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data"`
}

type client struct {
	id      string
	conn    *websocket.Conn
	sub     chan broadcast.Event
	replies chan broadcast.Event
	done    chan struct{}
	limiter *rate.Limiter
	log     *logrus.Entry
}

// reply queues a direct response for this client only. Replies are best
// effort; a client that cannot drain its own replies loses them.
func (c *client) reply(event string, data any) {
	select {
	case c.replies <- broadcast.Event{Event: event, Data: data}:
	default:
	}
}

// HandleConnection upgrades the request and attaches the client to the
// session channel. The first frame a client receives is stream-configs,
// so it can render the current state without asking.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.met.WebSocketErrors.Inc()
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	c := &client{
		id:      id,
		conn:    conn,
		sub:     h.hub.Subscribe(),
		replies: make(chan broadcast.Event, replyBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(commandRate, commandBurst),
		log:     h.log.WithField("client", id),
	}

	h.met.ConnectedClients.Inc()
	c.log.Info("client connected")

	c.reply(models.EventStreamConfigs, h.ctl.Configs())

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Handler) readPump(c *client) {
	defer func() {
		h.hub.Unsubscribe(c.sub)
		close(c.done)
		c.conn.Close()
		h.met.ConnectedClients.Dec()
		c.log.Info("client disconnected")
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.met.WebSocketErrors.Inc()
				c.log.WithError(err).Warn("websocket read error")
			}
			return
		}
		if !c.limiter.Allow() {
			h.met.RateLimitExceeded.Inc()
			c.reply("error", map[string]string{"message": "rate limit exceeded"})
			continue
		}
		h.dispatch(c, raw)
	}
}

func (h *Handler) dispatch(c *client, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.reply("error", map[string]string{"message": "malformed message"})
		return
	}

	switch env.Event {
	case "start-stream":
		var req models.StreamRequest
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &req); err != nil {
				c.reply("error", map[string]string{"message": "malformed stream request"})
				return
			}
		}
		cfg := req.Config()
		if err := h.ctl.Start(cfg); err != nil {
			c.reply("error", map[string]string{"message": err.Error()})
			return
		}
		c.log.WithField("stream", cfg.StreamName).Debug("start-stream")

	case "stop-stream":
		name, ok := parseStopTarget(env.Data)
		if !ok {
			c.reply("error", map[string]string{"message": "stop-stream needs a stream name"})
			return
		}
		h.ctl.Stop(name)
		c.log.WithField("stream", name).Debug("stop-stream")

	case "get-configs":
		c.reply(models.EventStreamConfigs, h.ctl.Configs())

	default:
		c.reply("error", map[string]string{"message": "unknown event " + env.Event})
	}
}

// parseStopTarget accepts both historical data shapes: a bare name string
// and an object carrying streamName.
func parseStopTarget(data jsoniter.RawMessage) (string, bool) {
	var name string
	if err := json.Unmarshal(data, &name); err == nil && name != "" {
		return name, true
	}
	var body struct {
		StreamName string `json:"streamName"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.StreamName != "" {
		return body.StreamName, true
	}
	return "", false
}

// writePump is the only writer on the connection. It interleaves broadcast
// events, direct replies and keepalive pings.
func (h *Handler) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-c.sub:
			if !ok {
				return
			}
			if !h.write(c, ev) {
				return
			}
		case ev := <-c.replies:
			if !h.write(c, ev) {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(c *client, ev broadcast.Event) bool {
	payload, err := ev.Marshal()
	if err != nil {
		c.log.WithError(err).Warn("dropping unencodable event")
		return true
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.met.WebSocketErrors.Inc()
		return false
	}
	h.met.EventSize.Observe(float64(len(payload)))
	return true
}

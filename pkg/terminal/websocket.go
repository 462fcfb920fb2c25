package terminal

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/antibyte/petbasic/pkg/configuration"
	"github.com/antibyte/petbasic/pkg/logger"
	"github.com/antibyte/petbasic/pkg/petbasic"
	"github.com/antibyte/petbasic/pkg/petscii"
	"github.com/antibyte/petbasic/pkg/shared"
)

// WebSocket-Konfigurationswerte aus der [Network] Sektion

func getWriteWait() time.Duration {
	return configuration.GetDuration("Network", "write_wait_timeout", 10*time.Second)
}

func getPongWait() time.Duration {
	return configuration.GetDuration("Network", "pong_timeout", 60*time.Second)
}

func getPingPeriod() time.Duration {
	return (getPongWait() * 9) / 10
}

func getMaxMessageSize() int64 {
	return int64(configuration.GetInt("Network", "max_message_size_kb", 4) * 1024)
}

func getMaxChannelBuffer() int {
	return configuration.GetInt("Network", "max_channel_buffer", 1024)
}

var newline = []byte{'\n'}

// Client is one browser connected to the mirror.
type Client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	mirror   *Mirror
	remote   string
	lastPong time.Time
	stale    atomic.Bool // a broadcast was dropped
}

// Mirror is a display whose screen grid is mirrored to websocket clients.
// Clients receive a snapshot on connect and every change after that; they
// send keys and whole input lines back.
type Mirror struct {
	*petbasic.Screen

	clients   *ClientManager
	validator *MessageValidator
	upgrader  websocket.Upgrader

	lines     chan string
	keys      chan byte
	done      chan struct{}
	closeOnce sync.Once
	timeout   time.Duration

	// OnBreak is called when a client sends Escape (RUN/STOP).
	OnBreak func()
}

// NewMirror creates a mirrored screen of the given size.
func NewMirror(rows, cols int) *Mirror {
	rows, cols = ScreenSize(rows, cols)
	m := &Mirror{
		Screen:    petbasic.NewScreen(rows, cols),
		clients:   NewClientManager(),
		validator: NewMessageValidator(),
		lines:     make(chan string, 64),
		keys:      make(chan byte, 256),
		done:      make(chan struct{}),
		timeout:   keyTimeout(),
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if configuration.GetBool("Network", "allow_any_origin", false) {
		m.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	m.Screen.SetObserver(m)
	return m
}

// Clients returns the connection registry.
func (m *Mirror) Clients() *ClientManager { return m.clients }

// Close disconnects every client and ends pending reads with io.EOF.
func (m *Mirror) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.clients.RemoveAll()
	})
	return nil
}

func remoteAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return r.RemoteAddr
}

// ServeHTTP upgrades the request and starts the client's pumps. A client
// may ask to keep its previous session id with ?session=<id>.
func (m *Mirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	remote := remoteAddress(r)
	if m.clients.GetClientCount() >= m.clients.maxClients {
		logger.Warn(logger.AreaWebSocket, "connection from %s rejected: server full", remote)
		http.Error(w, "Too many clients", http.StatusServiceUnavailable)
		return
	}
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(logger.AreaWebSocket, "upgrade failed for %s: %v", remote, err)
		return
	}

	id := r.URL.Query().Get("session")
	if ValidateSessionID(id) != nil || m.clients.HasClient(id) {
		id = uuid.NewString()
	}
	c := &Client{
		id:       id,
		conn:     conn,
		send:     make(chan []byte, getMaxChannelBuffer()),
		mirror:   m,
		remote:   remote,
		lastPong: time.Now(),
	}
	if err := m.clients.AddClient(c); err != nil {
		logger.Warn(logger.AreaWebSocket, "%s: %v", remote, err)
		conn.Close()
		return
	}
	m.clients.SendToClient(id, shared.Message{Type: shared.MessageTypeSession, SessionID: id})
	m.clients.SendToClient(id, m.Snapshot())

	go c.writePump()
	go c.readPump()
}

// Snapshot describes the whole grid and the cursor.
func (m *Mirror) Snapshot() shared.Message {
	cells := m.Screen.Cells()
	msg := shared.Message{
		Type:    shared.MessageTypeSnapshot,
		Rows:    make([]string, len(cells)),
		Reverse: make([][]int, len(cells)),
	}
	for r, line := range cells {
		var sb strings.Builder
		for c, cell := range line {
			sb.WriteRune(cell.Rune)
			if cell.Reverse {
				msg.Reverse[r] = append(msg.Reverse[r], c)
			}
		}
		msg.Rows[r] = sb.String()
	}
	msg.Row, msg.Col = m.Screen.Cursor()
	return msg
}

// ScreenObserver

func (m *Mirror) CellChanged(row, col int, c petscii.DrawChar) {
	m.clients.Broadcast(shared.Message{
		Type:    shared.MessageTypeCell,
		Row:     row,
		Col:     col,
		Content: string(c.Rune),
		Inverse: c.Reverse,
	})
}

func (m *Mirror) Scrolled() { m.clients.Broadcast(shared.Message{Type: shared.MessageTypeScroll}) }
func (m *Mirror) Cleared()  { m.clients.Broadcast(shared.Message{Type: shared.MessageTypeClear}) }

func (m *Mirror) CursorMoved(row, col int) {
	m.clients.Broadcast(shared.Message{Type: shared.MessageTypeCursor, Row: row, Col: col})
}

// ReadLine waits for a client to send an input line.
func (m *Mirror) ReadLine(prompt string) (string, error) {
	select {
	case line := <-m.lines:
		return line, nil
	case <-m.done:
		return "", io.EOF
	}
}

// ReadChar waits up to the key timeout for a key from any client.
func (m *Mirror) ReadChar() (byte, bool) {
	select {
	case k := <-m.keys:
		return k, true
	case <-time.After(m.timeout):
		return 0, false
	case <-m.done:
		return 0, false
	}
}

func (m *Mirror) handle(c *Client, msg shared.Message) {
	switch msg.Type {
	case shared.MessageTypeLine:
		select {
		case m.lines <- msg.Content:
		default:
			logger.Warn(logger.AreaWebSocket, "input line from %s dropped", c.id)
		}
	case shared.MessageTypeKey:
		k, ok := keyToPETSCII(msg.Content)
		if !ok {
			return
		}
		if k == keyStop {
			if m.OnBreak != nil {
				m.OnBreak()
			}
			return
		}
		select {
		case m.keys <- k:
		default:
		}
	}
}

// readPump liest Nachrichten vom Client
func (c *Client) readPump() {
	defer c.mirror.clients.RemoveClient(c.id)

	c.conn.SetReadLimit(getMaxMessageSize())
	c.conn.SetReadDeadline(time.Now().Add(getPongWait()))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(getPongWait()))
		c.lastPong = time.Now()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warn(logger.AreaWebSocket, "unexpected close from %s: %v", c.id, err)
			} else {
				logger.Debug(logger.AreaWebSocket, "client %s closed: %v", c.id, err)
			}
			return
		}
		if err := c.mirror.clients.CheckRateLimit(c.remote); err != nil {
			logger.Warn(logger.AreaWebSocket, "%v", err)
			continue
		}
		msg, err := c.mirror.validator.Decode(data)
		if err != nil {
			logger.Warn(logger.AreaWebSocket, "message from %s rejected: %v", c.id, err)
			continue
		}
		c.mirror.handle(c, msg)
	}
}

// writePump schreibt Nachrichten an den Client. Wartende Nachrichten werden
// durch Zeilenumbrüche getrennt in einem Frame gebündelt.
func (c *Client) writePump() {
	ticker := time.NewTicker(getPingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			for i, part := range c.frame(message) {
				if i > 0 {
					w.Write(newline)
				}
				w.Write(part)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug(logger.AreaWebSocket, "ping to %s failed: %v", c.id, err)
				return
			}
		}
	}
}

// frame collects message and everything queued behind it. After a dropped
// broadcast the queue is discarded and replaced by a single snapshot.
func (c *Client) frame(message []byte) [][]byte {
	parts := [][]byte{message}
	n := len(c.send)
	for i := 0; i < n; i++ {
		more, ok := <-c.send
		if !ok {
			break
		}
		parts = append(parts, more)
	}
	if !c.stale.Swap(false) {
		return parts
	}
	snap, err := json.Marshal(c.mirror.Snapshot())
	if err != nil {
		logger.Error(logger.AreaWebSocket, "snapshot for %s: %v", c.id, err)
		return parts
	}
	logger.Debug(logger.AreaWebSocket, "%s resynced, %d queued updates dropped", c.id, len(parts))
	return [][]byte{snap}
}

var (
	_ petbasic.Display        = (*Mirror)(nil)
	_ petbasic.ScreenObserver = (*Mirror)(nil)
	_ http.Handler            = (*Mirror)(nil)
)

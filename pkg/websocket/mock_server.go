package websocket

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// MockServer is a stub exchange stream endpoint for tests. It records every
// frame clients send and can broadcast frames back, plain or gzip-compressed
// the way the real endpoint compresses market data.
type MockServer struct {
	server *httptest.Server
	url    string

	connections   map[*websocket.Conn]bool
	connectionsMu sync.RWMutex
	onConnect     func(*websocket.Conn)
	onMessage     func(*websocket.Conn, []byte)
	messageBuffer [][]byte
	lastQuery     url.Values

	shouldRejectConnection bool
	shouldDropConnection   bool
}

// NewMockServer starts a stub stream endpoint.
func NewMockServer() *MockServer {
	mock := &MockServer{
		connections:   make(map[*websocket.Conn]bool),
		messageBuffer: make([][]byte, 0),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handleConnection))
	mock.url = "ws" + strings.TrimPrefix(mock.server.URL, "http")

	return mock
}

// URL returns the stream URL of the mock server.
func (m *MockServer) URL() string {
	return m.url
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// SetRejectConnection configures whether the server rejects new connections.
func (m *MockServer) SetRejectConnection(reject bool) {
	m.shouldRejectConnection = reject
}

// SetDropConnection configures whether the server drops connections on the
// next read.
func (m *MockServer) SetDropConnection(drop bool) {
	m.shouldDropConnection = drop
}

// OnConnect sets a callback for when a client connects.
func (m *MockServer) OnConnect(callback func(*websocket.Conn)) {
	m.onConnect = callback
}

// OnMessage sets a callback for every frame a client sends.
func (m *MockServer) OnMessage(callback func(*websocket.Conn, []byte)) {
	m.onMessage = callback
}

// LastQuery returns the query parameters of the most recent upgrade request;
// private streams carry their listen key here.
func (m *MockServer) LastQuery() url.Values {
	m.connectionsMu.RLock()
	defer m.connectionsMu.RUnlock()
	return m.lastQuery
}

// Broadcast sends a plain text frame to every connected client.
func (m *MockServer) Broadcast(message []byte) {
	m.connectionsMu.RLock()
	defer m.connectionsMu.RUnlock()

	for conn := range m.connections {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			go m.removeConnection(conn)
		}
	}
}

// BroadcastGzip compresses the message and sends it as a binary frame, the
// way the real endpoint delivers market data.
func (m *MockServer) BroadcastGzip(message []byte) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(message); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	m.connectionsMu.RLock()
	defer m.connectionsMu.RUnlock()
	for conn := range m.connections {
		if err := conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
			go m.removeConnection(conn)
		}
	}
	return nil
}

// GetConnectionCount returns the number of active connections.
func (m *MockServer) GetConnectionCount() int {
	m.connectionsMu.RLock()
	defer m.connectionsMu.RUnlock()
	return len(m.connections)
}

// GetMessageBuffer returns a copy of every frame received so far.
func (m *MockServer) GetMessageBuffer() [][]byte {
	m.connectionsMu.RLock()
	defer m.connectionsMu.RUnlock()

	messages := make([][]byte, len(m.messageBuffer))
	copy(messages, m.messageBuffer)
	return messages
}

// ClearMessageBuffer clears the received frame buffer.
func (m *MockServer) ClearMessageBuffer() {
	m.connectionsMu.Lock()
	defer m.connectionsMu.Unlock()
	m.messageBuffer = make([][]byte, 0)
}

func (m *MockServer) handleConnection(w http.ResponseWriter, r *http.Request) {
	if m.shouldRejectConnection {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	m.connectionsMu.Lock()
	m.connections[conn] = true
	m.lastQuery = r.URL.Query()
	m.connectionsMu.Unlock()

	if m.onConnect != nil {
		m.onConnect(conn)
	}

	defer func() {
		m.removeConnection(conn)
		conn.Close()
	}()

	for {
		if m.shouldDropConnection {
			return
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if messageType == websocket.TextMessage {
			m.connectionsMu.Lock()
			m.messageBuffer = append(m.messageBuffer, message)
			m.connectionsMu.Unlock()

			if m.onMessage != nil {
				m.onMessage(conn, message)
			}
		}
	}
}

func (m *MockServer) removeConnection(conn *websocket.Conn) {
	m.connectionsMu.Lock()
	defer m.connectionsMu.Unlock()
	delete(m.connections, conn)
}

func setupMockServer(t *testing.T) (*MockServer, string) {
	t.Helper()
	mock := NewMockServer()
	t.Cleanup(func() {
		mock.Close()
	})
	return mock, mock.URL()
}

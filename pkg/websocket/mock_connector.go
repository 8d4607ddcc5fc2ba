package websocket

import (
	"context"
	"sync"
)

// MockConnector implements Connector for tests of the stream layers.
type MockConnector struct {
	mu sync.RWMutex

	connected bool
	handlers  map[string]MessageHandler
	catchAll  MessageHandler

	connectCalls     int
	subscribeCalls   map[string]int
	unsubscribeCalls map[string]int
	sendCalls        int
	closeCalls       int

	connectError     error
	subscribeError   error
	unsubscribeError error
	sendError        error
	closeError       error
}

// NewMockConnector creates a mock connector.
func NewMockConnector() *MockConnector {
	return &MockConnector{
		handlers:         make(map[string]MessageHandler),
		subscribeCalls:   make(map[string]int),
		unsubscribeCalls: make(map[string]int),
	}
}

// Connect implements Connector.
func (m *MockConnector) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connectCalls++
	if m.connectError != nil {
		return m.connectError
	}

	m.connected = true
	return nil
}

// Close implements Connector.
func (m *MockConnector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeCalls++
	if m.closeError != nil {
		return m.closeError
	}

	m.connected = false
	return nil
}

// Subscribe implements Connector.
func (m *MockConnector) Subscribe(dataType string, handler MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscribeCalls[dataType]++
	if m.subscribeError != nil {
		return m.subscribeError
	}

	m.handlers[dataType] = handler
	return nil
}

// Unsubscribe implements Connector.
func (m *MockConnector) Unsubscribe(dataType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unsubscribeCalls[dataType]++
	if m.unsubscribeError != nil {
		return m.unsubscribeError
	}

	delete(m.handlers, dataType)
	return nil
}

// OnMessage implements Connector.
func (m *MockConnector) OnMessage(handler MessageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catchAll = handler
}

// Send implements Connector.
func (m *MockConnector) Send(message interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sendCalls++
	if m.sendError != nil {
		return m.sendError
	}

	return nil
}

// IsConnected implements Connector.
func (m *MockConnector) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SimulateMessage delivers a message to the handler registered for dataType.
func (m *MockConnector) SimulateMessage(dataType string, message []byte) {
	m.mu.RLock()
	handler, exists := m.handlers[dataType]
	m.mu.RUnlock()

	if exists {
		handler(message)
	}
}

// SimulateEvent delivers a message to the catch-all handler, the way private
// account events arrive.
func (m *MockConnector) SimulateEvent(message []byte) {
	m.mu.RLock()
	handler := m.catchAll
	m.mu.RUnlock()

	if handler != nil {
		handler(message)
	}
}

// SetConnectError sets an error to be returned by Connect.
func (m *MockConnector) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectError = err
}

// SetSubscribeError sets an error to be returned by Subscribe.
func (m *MockConnector) SetSubscribeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeError = err
}

// SetUnsubscribeError sets an error to be returned by Unsubscribe.
func (m *MockConnector) SetUnsubscribeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribeError = err
}

// SetSendError sets an error to be returned by Send.
func (m *MockConnector) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendError = err
}

// SetCloseError sets an error to be returned by Close.
func (m *MockConnector) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeError = err
}

// GetConnectCalls returns the number of times Connect was called.
func (m *MockConnector) GetConnectCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connectCalls
}

// GetSubscribeCalls returns the number of Subscribe calls for a channel.
func (m *MockConnector) GetSubscribeCalls(dataType string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.subscribeCalls[dataType]
}

// GetUnsubscribeCalls returns the number of Unsubscribe calls for a channel.
func (m *MockConnector) GetUnsubscribeCalls(dataType string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unsubscribeCalls[dataType]
}

// GetSendCalls returns the number of times Send was called.
func (m *MockConnector) GetSendCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sendCalls
}

// GetCloseCalls returns the number of times Close was called.
func (m *MockConnector) GetCloseCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closeCalls
}

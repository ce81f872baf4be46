package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// RiskEvent describes websocket payloads emitted when an assessment changes.
type RiskEvent struct {
	Type         string       `json:"type"`
	AssessmentID string       `json:"assessment_id"`
	Risk         RiskResponse `json:"risk"`
	Question     string       `json:"question,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn         *websocket.Conn
	assessmentID string
	mu           sync.Mutex
}

// RiskNotifier tracks websocket clients per assessment and fans out risk updates.
type RiskNotifier struct {
	mu      sync.Mutex
	clients map[string]map[*wsClient]struct{}
	last    map[string]RiskEvent
}

// NewRiskNotifier constructs a notifier instance.
func NewRiskNotifier() *RiskNotifier {
	return &RiskNotifier{
		clients: make(map[string]map[*wsClient]struct{}),
		last:    make(map[string]RiskEvent),
	}
}

// Register attaches a connection to an assessment and sends it the initial
// snapshot, or the latest broadcast event when no snapshot is given.
func (n *RiskNotifier) Register(assessmentID string, conn *websocket.Conn, initial *RiskEvent) *wsClient {
	client := &wsClient{conn: conn, assessmentID: assessmentID}
	n.mu.Lock()
	if n.clients[assessmentID] == nil {
		n.clients[assessmentID] = make(map[*wsClient]struct{})
	}
	n.clients[assessmentID][client] = struct{}{}
	event, ok := n.last[assessmentID]
	n.mu.Unlock()

	if initial != nil {
		event, ok = *initial, true
		event.Timestamp = time.Now().UTC()
	}
	if ok {
		_ = client.writeJSON(event)
	}
	return client
}

// Unregister removes the client and closes its socket.
func (n *RiskNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	if set := n.clients[client.assessmentID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(n.clients, client.assessmentID)
		}
	}
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the event to every client watching its assessment.
func (n *RiskNotifier) Broadcast(event RiskEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.last[event.AssessmentID] = event
	for client := range n.clients[event.AssessmentID] {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients[event.AssessmentID], client)
			_ = client.conn.Close()
		}
	}
}

// Forget drops all state for a deleted assessment.
func (n *RiskNotifier) Forget(assessmentID string) {
	n.mu.Lock()
	clients := n.clients[assessmentID]
	delete(n.clients, assessmentID)
	delete(n.last, assessmentID)
	n.mu.Unlock()
	for client := range clients {
		_ = client.conn.Close()
	}
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

package terminal

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/antibyte/petbasic/pkg/configuration"
	"github.com/antibyte/petbasic/pkg/logger"
	"github.com/antibyte/petbasic/pkg/shared"
)

// Konstanten für Client-Management
const (
	MaxClientsDefault = 16 // Maximale Anzahl gleichzeitiger Clients
	maxKeysPerMinute  = 600
)

// RateLimitInfo speichert Rate-Limiting-Informationen pro IP
type RateLimitInfo struct {
	requests  int
	lastReset time.Time
}

// ClientManager verwaltet die Verbindungen des Bildschirm-Spiegels
type ClientManager struct {
	clients    map[string]*Client        // sessionID -> Client
	rateLimits map[string]*RateLimitInfo // ipAddress -> RateLimitInfo
	maxClients int
	mu         sync.RWMutex
}

// NewClientManager erstellt einen neuen ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:    make(map[string]*Client),
		rateLimits: make(map[string]*RateLimitInfo),
		maxClients: configuration.GetInt("Network", "max_clients", MaxClientsDefault),
	}
}

// AddClient registriert einen Client, solange das Limit nicht erreicht ist
func (cm *ClientManager) AddClient(client *Client) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if len(cm.clients) >= cm.maxClients {
		return fmt.Errorf("too many clients (%d)", cm.maxClients)
	}
	cm.clients[client.id] = client
	logger.Info(logger.AreaWebSocket, "client %s added (%d connected)", client.id, len(cm.clients))
	return nil
}

// RemoveClient entfernt einen Client und schließt seinen Sendekanal.
// Mehrfacher Aufruf ist harmlos.
func (cm *ClientManager) RemoveClient(sessionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if client, exists := cm.clients[sessionID]; exists {
		delete(cm.clients, sessionID)
		close(client.send)
		cm.forgetRateLimit(client.remote)
		logger.Info(logger.AreaWebSocket, "client %s removed", sessionID)
	}
}

// forgetRateLimit drops the counter of an address once no client uses it.
// Caller holds cm.mu.
func (cm *ClientManager) forgetRateLimit(remote string) {
	for _, c := range cm.clients {
		if c.remote == remote {
			return
		}
	}
	delete(cm.rateLimits, remote)
}

// RemoveAll trennt alle Clients
func (cm *ClientManager) RemoveAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for id, client := range cm.clients {
		delete(cm.clients, id)
		close(client.send)
	}
	cm.rateLimits = make(map[string]*RateLimitInfo)
}

// SendToClient sendet eine Nachricht an einen spezifischen Client
func (cm *ClientManager) SendToClient(sessionID string, message shared.Message) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	client, exists := cm.clients[sessionID]
	if !exists {
		return fmt.Errorf("client not found for session %s", sessionID)
	}
	select {
	case client.send <- jsonData:
		return nil
	default:
		return fmt.Errorf("send buffer of session %s full", sessionID)
	}
}

// Broadcast sendet eine Nachricht an alle Clients. Clients, deren Puffer voll
// ist, verlieren die Nachricht und bekommen beim nächsten Mal einen Snapshot.
func (cm *ClientManager) Broadcast(message shared.Message) {
	jsonData, err := json.Marshal(message)
	if err != nil {
		logger.Error(logger.AreaWebSocket, "marshal broadcast: %v", err)
		return
	}
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for id, client := range cm.clients {
		select {
		case client.send <- jsonData:
		default:
			client.stale.Store(true)
			logger.Warn(logger.AreaWebSocket, "send buffer of %s full, message dropped", id)
		}
	}
}

// GetClientCount gibt die Anzahl der verbundenen Clients zurück
func (cm *ClientManager) GetClientCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// HasClient prüft, ob ein Client für die Session existiert
func (cm *ClientManager) HasClient(sessionID string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	_, exists := cm.clients[sessionID]
	return exists
}

// CheckRateLimit prüft das Rate-Limiting für eine IP-Adresse
func (cm *ClientManager) CheckRateLimit(ipAddress string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	now := time.Now()
	rateLimit, exists := cm.rateLimits[ipAddress]
	if !exists {
		rateLimit = &RateLimitInfo{lastReset: now}
		cm.rateLimits[ipAddress] = rateLimit
	}

	// Reset Zähler wenn mehr als eine Minute vergangen ist
	if now.Sub(rateLimit.lastReset) > time.Minute {
		rateLimit.requests = 0
		rateLimit.lastReset = now
	}
	rateLimit.requests++
	if rateLimit.requests > maxKeysPerMinute {
		return fmt.Errorf("rate limit exceeded: %d messages from %s in the last minute", rateLimit.requests, ipAddress)
	}
	return nil
}

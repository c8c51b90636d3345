package websocket

import (
	"sync"

	"github.com/repo-analyzer/analyzer-gateway/internal/models"
	"go.uber.org/zap"
)

// Hub WebSocket 연결 관리 및 작업별 상태 브로드캐스트.
// 하나의 작업을 여러 브라우저 탭이 동시에 구독할 수 있다.
type Hub struct {
	// 작업별 구독자 (jobID -> clients)
	watchers map[string]map[*Client]bool
	mu       sync.RWMutex

	// 브로드캐스트 채널
	broadcast chan *Message

	// 등록/해제 채널
	register   chan *Client
	unregister chan *Client

	logger *zap.Logger
}

// Message WebSocket 메시지
type Message struct {
	JobID   string      `json:"-"`       // 대상 작업
	Type    string      `json:"type"`    // 메시지 타입
	Payload interface{} `json:"payload"` // 메시지 내용
}

// JobStatusMessage 작업 상태 변경 메시지
type JobStatusMessage struct {
	JobID  string            `json:"jobId"`
	State  models.PollState  `json:"state"`
	Result *models.JobResult `json:"result,omitempty"`
}

// NewHub Hub 생성
func NewHub() *Hub {
	logger, _ := zap.NewProduction()
	return &Hub{
		watchers:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// registerClient 클라이언트를 작업 구독자로 등록
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.watchers[client.jobID] == nil {
		h.watchers[client.jobID] = make(map[*Client]bool)
	}
	h.watchers[client.jobID][client] = true

	h.logger.Info("WebSocket watcher registered",
		zap.String("jobId", client.jobID),
		zap.Int("jobWatchers", len(h.watchers[client.jobID])))
}

// unregisterClient 클라이언트 해제
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, exists := h.watchers[client.jobID]
	if !exists || !clients[client] {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.watchers, client.jobID)
	}

	h.logger.Info("WebSocket watcher unregistered",
		zap.String("jobId", client.jobID),
		zap.Int("jobWatchers", len(clients)))
}

// broadcastMessage 해당 작업의 모든 구독자에게 전송
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.watchers[message.JobID] {
		select {
		case client.send <- message:
		default:
			// 채널이 가득 찬 경우 연결 해제
			h.logger.Warn("Watcher send channel full, unregistering",
				zap.String("jobId", client.jobID))
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// SendJobUpdate 작업 상태 변경 알림 (service.StatusNotifier 구현)
func (h *Hub) SendJobUpdate(jobID string, snapshot *models.JobSnapshot) {
	h.broadcast <- &Message{
		JobID: jobID,
		Type:  "job_status",
		Payload: JobStatusMessage{
			JobID:  snapshot.JobID,
			State:  snapshot.State,
			Result: snapshot.Result,
		},
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/repo-analyzer/analyzer-gateway/internal/service"
	"github.com/repo-analyzer/analyzer-gateway/internal/websocket"
)

// WebSocketHandler 작업 상태 실시간 구독 처리
type WebSocketHandler struct {
	hub         *websocket.Hub
	pollService *service.PollService
}

// NewWebSocketHandler WebSocketHandler 생성
func NewWebSocketHandler(hub *websocket.Hub, pollService *service.PollService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		pollService: pollService,
	}
}

// HandleWebSocket verify 화면의 상태 구독 엔드포인트
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id required"})
		return
	}

	// 추적 중이 아닌 작업 구독은 거부 (임의의 id로 폴링을 유발하지 않도록)
	if _, err := h.pollService.Snapshot(jobID); err != nil {
		if errors.Is(err, service.ErrJobNotTracked) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job is not tracked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read job status"})
		return
	}

	websocket.ServeWs(h.hub, c.Writer, c.Request, jobID)
}

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/repo-analyzer/analyzer-gateway/internal/models"
	"github.com/repo-analyzer/analyzer-gateway/internal/service"
	"github.com/repo-analyzer/analyzer-gateway/pkg/analyzer"
)

// SubmissionHandler 프로젝트 제출 및 작업 상태 조회 처리
type SubmissionHandler struct {
	submissionService *service.SubmissionService
	pollService       *service.PollService
	analyzerClient    *analyzer.Client
}

// NewSubmissionHandler SubmissionHandler 생성
func NewSubmissionHandler(
	submissionService *service.SubmissionService,
	pollService *service.PollService,
	analyzerClient *analyzer.Client,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		pollService:       pollService,
		analyzerClient:    analyzerClient,
	}
}

// CreateSubmission 새 제출 생성. 폼 필드를 드래프트로 옮겨 담고 검증 후
// Analyzer에 전달한다. 성공 시 job_id와 verify 경로를 반환한다.
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	draft := models.NewSubmissionDraft()
	draft.ProjectName = strings.TrimSpace(c.PostForm("project_name"))
	draft.Category = models.Category(c.PostForm("project_type"))

	for _, entry := range c.PostFormArray("tech_stack") {
		for _, tech := range strings.Split(entry, ",") {
			draft.AddTech(tech)
		}
	}

	// 업로드 파일과 git URL 중 어느 쪽이 왔는지로 제출 방식 결정
	file, fileErr := c.FormFile("single_zip")
	gitURL := strings.TrimSpace(c.PostForm("git_url"))

	switch c.PostForm("mode") {
	case string(models.ModeRepository):
		draft.Mode = models.ModeRepository
	case string(models.ModeArchive):
		draft.Mode = models.ModeArchive
	default:
		if fileErr != nil && gitURL != "" {
			draft.Mode = models.ModeRepository
		} else {
			draft.Mode = models.ModeArchive
		}
	}

	if draft.Mode == models.ModeArchive && fileErr == nil {
		// 파일 선택 시점 검증: 유효하지 않으면 드래프트에 저장되지 않는다
		if err := draft.SetArchiveFile(file); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if draft.Mode == models.ModeRepository {
		draft.RepositoryURL = gitURL
	}

	jobID, err := h.submissionService.Submit(c.Request.Context(), draft)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionFailed) {
			// 전송 실패, 비정상 응답, job_id 누락은 모두 단일 일반 메시지로 응답
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "submission failed, please try again",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 성공: Result Poller에 작업 인계
	if err := h.pollService.Track(jobID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to start result tracking",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"job_id":     jobID,
		"verify_url": "/verify.html?job_id=" + jobID,
	})
}

// GetJobStatus 작업 상태 조회. 추적 중인 작업은 폴러의 최신 상태를 반환하고,
// 추적되지 않는 작업 (예: 게이트웨이 재시작 후)은 Analyzer에 한 번만 직접
// 조회한다. 이때 새 폴링 루프는 시작하지 않는다.
func (h *SubmissionHandler) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id required"})
		return
	}

	snapshot, err := h.pollService.Snapshot(jobID)
	if err == nil {
		c.JSON(http.StatusOK, snapshot)
		return
	}
	if !errors.Is(err, service.ErrJobNotTracked) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read job status"})
		return
	}

	result, err := h.analyzerClient.Result(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch job status"})
		return
	}

	state := models.PollStateAwaiting
	if result.IsTerminal() {
		state = models.PollStateTerminal
	}

	c.JSON(http.StatusOK, &models.JobSnapshot{
		JobID:     jobID,
		State:     state,
		Result:    result,
		UpdatedAt: time.Now(),
	})
}

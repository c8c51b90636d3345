package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/repo-analyzer/analyzer-gateway/internal/models"
	"github.com/repo-analyzer/analyzer-gateway/pkg/logger"
)

var (
	ErrMissingJobID      = errors.New("response has no job_id")
	ErrMalformedResponse = errors.New("malformed analyzer response")
)

// SubmitRequest Analyzer에 보낼 제출 요청.
// ArchiveName/Archive와 GitURL 중 정확히 하나만 설정되어야 한다.
type SubmitRequest struct {
	ProjectType string
	Description string
	ArchiveName string
	Archive     io.Reader
	GitURL      string
}

// Client Analyzer HTTP 클라이언트
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient Analyzer 클라이언트 생성
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid analyzer base URL %q: %w", baseURL, err)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Submit 프로젝트 제출. 멀티파트 폼 하나를 전송하고 응답의 job_id를 반환한다.
func (c *Client) Submit(ctx context.Context, req *SubmitRequest) (string, error) {
	hasArchive := req.Archive != nil
	hasGitURL := req.GitURL != ""
	if hasArchive == hasGitURL {
		return "", errors.New("exactly one of archive or git URL must be set")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("project_type", req.ProjectType); err != nil {
		return "", fmt.Errorf("failed to write project_type field: %w", err)
	}
	if err := writer.WriteField("description", req.Description); err != nil {
		return "", fmt.Errorf("failed to write description field: %w", err)
	}

	if hasArchive {
		part, err := writer.CreateFormFile("single_zip", req.ArchiveName)
		if err != nil {
			return "", fmt.Errorf("failed to create archive part: %w", err)
		}
		if _, err := io.Copy(part, req.Archive); err != nil {
			return "", fmt.Errorf("failed to copy archive bytes: %w", err)
		}
	} else {
		if err := writer.WriteField("git_url", req.GitURL); err != nil {
			return "", fmt.Errorf("failed to write git_url field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("submit request returned status %d", resp.StatusCode)
	}

	var submitResp struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if submitResp.JobID == "" {
		return "", ErrMissingJobID
	}

	logger.Info("Project submitted to analyzer", "jobId", submitResp.JobID)

	return submitResp.JobID, nil
}

// Result 작업 상태 조회. status 필드가 없는 응답은 오류로 처리한다.
func (c *Client) Result(ctx context.Context, jobID string) (*models.JobResult, error) {
	target := fmt.Sprintf("%s/result/%s", c.baseURL, url.PathEscape(jobID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build result request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("result request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("result request returned status %d", resp.StatusCode)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	status, ok := payload["status"].(string)
	if !ok || status == "" {
		return nil, fmt.Errorf("%w: missing status field", ErrMalformedResponse)
	}

	return &models.JobResult{
		Status:  status,
		Payload: payload,
	}, nil
}

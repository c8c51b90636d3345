package service

import (
	"context"
	"fmt"

	"github.com/repo-analyzer/analyzer-gateway/internal/models"
	"github.com/repo-analyzer/analyzer-gateway/pkg/analyzer"
	"go.uber.org/zap"
)

type SubmissionService struct {
	client *analyzer.Client
	logger *zap.Logger
}

func NewSubmissionService(client *analyzer.Client) *SubmissionService {
	logger, _ := zap.NewProduction()
	return &SubmissionService{
		client: client,
		logger: logger,
	}
}

// Submit 드래프트를 검증하고 Analyzer에 제출한 뒤 job_id를 반환한다.
// 검증 실패 시에는 네트워크 호출 없이 즉시 반환하며, 제출은 요청당
// 정확히 한 번만 나간다 (자동 재시도 없음).
func (s *SubmissionService) Submit(ctx context.Context, draft *models.SubmissionDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", err
	}

	req := &analyzer.SubmitRequest{
		ProjectType: string(draft.Category),
		Description: draft.Description(),
	}

	switch draft.Mode {
	case models.ModeArchive:
		src, err := draft.ArchiveFile.Open()
		if err != nil {
			s.logger.Error("Failed to open uploaded archive",
				zap.String("filename", draft.ArchiveFile.Filename),
				zap.Error(err))
			return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}
		defer src.Close()
		req.ArchiveName = draft.ArchiveFile.Filename
		req.Archive = src
	case models.ModeRepository:
		req.GitURL = draft.RepositoryURL
	}

	jobID, err := s.client.Submit(ctx, req)
	if err != nil {
		s.logger.Error("Analyzer submission failed",
			zap.String("projectType", string(draft.Category)),
			zap.String("mode", string(draft.Mode)),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	s.logger.Info("Submission accepted",
		zap.String("jobId", jobID),
		zap.String("projectType", string(draft.Category)),
		zap.String("mode", string(draft.Mode)))

	return jobID, nil
}

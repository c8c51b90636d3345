package service

import (
	"context"
	"sync"
	"time"

	"github.com/repo-analyzer/analyzer-gateway/internal/models"
	"github.com/repo-analyzer/analyzer-gateway/pkg/analyzer"
	"go.uber.org/zap"
)

// StatusNotifier 작업 상태 변경을 구독자에게 전달
type StatusNotifier interface {
	SendJobUpdate(jobID string, snapshot *models.JobSnapshot)
}

// PollService 작업별 Result Poller 관리
type PollService struct {
	client         *analyzer.Client
	notifier       StatusNotifier
	interval       time.Duration
	requestTimeout time.Duration
	logger         *zap.Logger

	mu      sync.RWMutex
	pollers map[string]*JobPoller
}

func NewPollService(
	client *analyzer.Client,
	notifier StatusNotifier,
	interval time.Duration,
	requestTimeout time.Duration,
) *PollService {
	logger, _ := zap.NewProduction()

	return &PollService{
		client:         client,
		notifier:       notifier,
		interval:       interval,
		requestTimeout: requestTimeout,
		logger:         logger,
		pollers:        make(map[string]*JobPoller),
	}
}

// Track job_id에 대한 폴링 시작. 이미 추적 중이면 아무 것도 하지 않는다.
func (s *PollService) Track(jobID string) error {
	if jobID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pollers[jobID]; exists {
		return nil
	}

	poller := newJobPoller(jobID, s.client, s.notifier, s.interval, s.requestTimeout)
	s.pollers[jobID] = poller
	poller.Start()

	s.logger.Info("Started tracking job",
		zap.String("jobId", jobID),
		zap.Duration("interval", s.interval))

	return nil
}

// Snapshot 추적 중인 작업의 현재 상태 조회
func (s *PollService) Snapshot(jobID string) (*models.JobSnapshot, error) {
	s.mu.RLock()
	poller, exists := s.pollers[jobID]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrJobNotTracked
	}

	return poller.Snapshot(), nil
}

// StopAll 모든 폴러 중지 (서버 종료 시)
func (s *PollService) StopAll() {
	s.mu.Lock()
	pollers := make([]*JobPoller, 0, len(s.pollers))
	for _, p := range s.pollers {
		pollers = append(pollers, p)
	}
	s.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}

	s.logger.Info("All job pollers stopped", zap.Int("count", len(pollers)))
}

// JobPoller 단일 작업의 상태를 고정 주기로 폴링하는 상태 머신.
// Idle → Awaiting → Terminal 순서로만 전이하며, 요청은 동시에 하나만 나간다.
// Terminal 이후에는 어떤 요청도 발행하지 않는다.
type JobPoller struct {
	jobID          string
	client         *analyzer.Client
	notifier       StatusNotifier
	interval       time.Duration
	requestTimeout time.Duration
	logger         *zap.Logger

	mu        sync.RWMutex
	state     models.PollState
	result    *models.JobResult
	updatedAt time.Time

	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newJobPoller(
	jobID string,
	client *analyzer.Client,
	notifier StatusNotifier,
	interval time.Duration,
	requestTimeout time.Duration,
) *JobPoller {
	logger, _ := zap.NewProduction()

	return &JobPoller{
		jobID:          jobID,
		client:         client,
		notifier:       notifier,
		interval:       interval,
		requestTimeout: requestTimeout,
		logger:         logger,
		state:          models.PollStateIdle,
		updatedAt:      time.Now(),
	}
}

// Start 폴링 시작. 첫 요청은 즉시, 이후 요청은 ticker 주기로 나간다.
// 주기는 요청 시작 시점 기준이며 응답 수신 시점 기준이 아니다.
func (p *JobPoller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.mu.Lock()
	p.state = models.PollStateAwaiting
	p.updatedAt = time.Now()
	p.mu.Unlock()

	p.wg.Add(1)
	go p.pollLoop(ctx)
}

// Stop 폴링 중지. ticker와 진행 중인 요청을 모두 취소한다.
// 어떤 경로로 종료되더라도 타이머가 남지 않는다.
func (p *JobPoller) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()
	})
}

// Snapshot 현재 상태와 마지막 결과 조회
func (p *JobPoller) Snapshot() *models.JobSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return &models.JobSnapshot{
		JobID:     p.jobID,
		State:     p.state,
		Result:    p.result,
		UpdatedAt: p.updatedAt,
	}
}

func (p *JobPoller) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// 시작 시 한번 실행
	if p.pollOnce(ctx) {
		return
	}

	for {
		select {
		case <-ticker.C:
			if p.pollOnce(ctx) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// pollOnce 상태 요청 한 번 수행. 최종 상태에 도달하면 true를 반환한다.
// 일시적 실패 (전송 오류, 비정상 JSON)는 다음 tick에서 재시도하며
// 폴링 루프를 중단시키지 않는다.
func (p *JobPoller) pollOnce(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	result, err := p.client.Result(reqCtx, p.jobID)
	if err != nil {
		if ctx.Err() != nil {
			// 폴러가 중지됨, 재시도하지 않음
			return false
		}
		p.logger.Warn("Poll attempt failed, will retry on next tick",
			zap.String("jobId", p.jobID),
			zap.Error(err))
		return false
	}

	p.mu.Lock()
	p.result = result
	p.updatedAt = time.Now()
	if result.IsTerminal() {
		p.state = models.PollStateTerminal
	}
	state := p.state
	p.mu.Unlock()

	if p.notifier != nil {
		p.notifier.SendJobUpdate(p.jobID, &models.JobSnapshot{
			JobID:     p.jobID,
			State:     state,
			Result:    result,
			UpdatedAt: time.Now(),
		})
	}

	if result.IsTerminal() {
		p.logger.Info("Job reached terminal status",
			zap.String("jobId", p.jobID),
			zap.String("status", result.Status))
		return true
	}

	return false
}

package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/repo-analyzer/analyzer-gateway/internal/models"
	"github.com/repo-analyzer/analyzer-gateway/pkg/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotifier 폴러가 내보내는 상태 변경 기록
type fakeNotifier struct {
	mu      sync.Mutex
	updates []*models.JobSnapshot
}

func (n *fakeNotifier) SendJobUpdate(jobID string, snapshot *models.JobSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, snapshot)
}

func (n *fakeNotifier) Updates() []*models.JobSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*models.JobSnapshot(nil), n.updates...)
}

// pollServer 응답 목록을 순서대로 반환하고 요청 시각을 기록하는 가짜 Analyzer
type pollServer struct {
	mu        sync.Mutex
	responses []string
	times     []time.Time
	server    *httptest.Server
}

func newPollServer(t *testing.T, responses ...string) *pollServer {
	ps := &pollServer{responses: responses}
	ps.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		defer ps.mu.Unlock()

		ps.times = append(ps.times, time.Now())
		idx := len(ps.times) - 1
		if idx >= len(ps.responses) {
			idx = len(ps.responses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ps.responses[idx]))
	}))
	t.Cleanup(ps.server.Close)
	return ps
}

func (ps *pollServer) requestTimes() []time.Time {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]time.Time(nil), ps.times...)
}

func newPollService(t *testing.T, baseURL string, notifier StatusNotifier, interval time.Duration) *PollService {
	t.Helper()

	client, err := analyzer.NewClient(baseURL, 5*time.Second)
	require.NoError(t, err)

	svc := NewPollService(client, notifier, interval, time.Second)
	t.Cleanup(svc.StopAll)
	return svc
}

func waitForTerminal(t *testing.T, svc *PollService, jobID string, timeout time.Duration) *models.JobSnapshot {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		snapshot, err := svc.Snapshot(jobID)
		require.NoError(t, err)
		if snapshot.State == models.PollStateTerminal {
			return snapshot
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not reach terminal state in time")
	return nil
}

func TestPollService_ProcessingUntilCompleted(t *testing.T) {
	interval := 100 * time.Millisecond
	ps := newPollServer(t,
		`{"status":"processing"}`,
		`{"status":"processing"}`,
		`{"status":"completed","score":42}`,
	)

	notifier := &fakeNotifier{}
	svc := newPollService(t, ps.server.URL, notifier, interval)

	require.NoError(t, svc.Track("abc-123"))
	snapshot := waitForTerminal(t, svc, "abc-123", 2*time.Second)

	// 정확히 3번 요청, 요청 간격은 폴링 주기 이상
	times := ps.requestTimes()
	require.Len(t, times, 3)
	assert.GreaterOrEqual(t, times[2].Sub(times[0]), 2*interval-20*time.Millisecond)

	// 최종 결과 전체가 보존됨
	assert.Equal(t, "completed", snapshot.Result.Status)
	assert.Equal(t, float64(42), snapshot.Result.Payload["score"])

	// Terminal 이후에는 요청이 더 나가지 않음
	time.Sleep(3 * interval)
	assert.Len(t, ps.requestTimes(), 3)

	// 구독자는 관찰된 모든 상태를 받고, 마지막은 terminal
	updates := notifier.Updates()
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, models.PollStateTerminal, last.State)
	assert.Equal(t, "completed", last.Result.Status)
}

func TestPollService_UnknownStatusIsTerminal(t *testing.T) {
	ps := newPollServer(t, `{"status":"weird-status","note":"unrecognized"}`)
	svc := newPollService(t, ps.server.URL, nil, 50*time.Millisecond)

	require.NoError(t, svc.Track("job-1"))
	snapshot := waitForTerminal(t, svc, "job-1", time.Second)

	assert.Equal(t, "weird-status", snapshot.Result.Status)
	assert.Equal(t, "unrecognized", snapshot.Result.Payload["note"])
	assert.Len(t, ps.requestTimes(), 1)
}

func TestPollService_TransientFailureRetries(t *testing.T) {
	ps := newPollServer(t,
		`not-json`,
		`{"status":"processing"}`,
		`{"status":"failed","error":"build broke"}`,
	)
	svc := newPollService(t, ps.server.URL, nil, 50*time.Millisecond)

	require.NoError(t, svc.Track("job-2"))
	snapshot := waitForTerminal(t, svc, "job-2", 2*time.Second)

	// 비정상 응답은 무시되고 다음 tick에서 재시도됨
	assert.Equal(t, "failed", snapshot.Result.Status)
	assert.Len(t, ps.requestTimes(), 3)
}

func TestPollService_StopCancelsPolling(t *testing.T) {
	ps := newPollServer(t, `{"status":"processing"}`)
	svc := newPollService(t, ps.server.URL, nil, 50*time.Millisecond)

	require.NoError(t, svc.Track("job-3"))
	time.Sleep(120 * time.Millisecond)

	svc.StopAll()
	count := len(ps.requestTimes())
	require.GreaterOrEqual(t, count, 1)

	// 중지 후에는 요청이 더 나가지 않음
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, ps.requestTimes(), count)
}

func TestPollService_TrackIsIdempotent(t *testing.T) {
	ps := newPollServer(t, `{"status":"processing"}`)
	svc := newPollService(t, ps.server.URL, nil, time.Hour) // 첫 요청 이후 재요청 없음

	require.NoError(t, svc.Track("job-4"))
	require.NoError(t, svc.Track("job-4"))

	time.Sleep(100 * time.Millisecond)
	assert.Len(t, ps.requestTimes(), 1, "double Track must not start a second poll loop")
}

func TestPollService_TrackValidation(t *testing.T) {
	svc := newPollService(t, "http://localhost:0", nil, time.Hour)

	assert.ErrorIs(t, svc.Track(""), ErrInvalidInput)

	_, err := svc.Snapshot("never-tracked")
	assert.ErrorIs(t, err, ErrJobNotTracked)
}

func TestPollService_SnapshotPayloadRoundTrip(t *testing.T) {
	// JobSnapshot이 결과 전체를 그대로 노출하는지 확인
	ps := newPollServer(t, `{"status":"completed","insights":[{"severity":"high"}]}`)
	svc := newPollService(t, ps.server.URL, nil, 50*time.Millisecond)

	require.NoError(t, svc.Track("job-5"))
	snapshot := waitForTerminal(t, svc, "job-5", time.Second)

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"high"`)
}

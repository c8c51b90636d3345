package models

import "time"

// JobStatusProcessing 분석이 아직 진행 중임을 나타내는 상태 값.
// 이 값이 아닌 모든 상태는 (알 수 없는 문자열 포함) 최종 상태로 취급한다.
const JobStatusProcessing = "processing"

// JobResult 외부 서비스가 반환하는 작업 결과.
// processing이면 Payload는 무시되고, 최종 상태면 Payload 전체가 표시용으로 보존된다.
type JobResult struct {
	Status  string                 `json:"status"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// IsTerminal 최종 결과 여부
func (r *JobResult) IsTerminal() bool {
	return r.Status != JobStatusProcessing
}

// PollState Result Poller 상태
type PollState string

const (
	PollStateIdle     PollState = "idle"
	PollStateAwaiting PollState = "awaiting"
	PollStateTerminal PollState = "terminal"
)

// JobSnapshot 특정 시점의 작업 추적 상태 (조회 응답용)
type JobSnapshot struct {
	JobID     string     `json:"jobId"`
	State     PollState  `json:"state"`
	Result    *JobResult `json:"result,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

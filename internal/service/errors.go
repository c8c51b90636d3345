package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
)

// Submission service specific errors
var (
	// ErrSubmissionFailed 전송 실패, 비정상 응답, job_id 누락을 모두 덮는
	// 단일 제출 실패. 사용자에게는 일반 메시지 하나로만 노출된다.
	ErrSubmissionFailed = errors.New("submission failed")
)

// Poll service specific errors
var (
	ErrJobNotTracked = errors.New("job is not tracked")
	ErrAlreadyPolled = errors.New("job is already being polled")
)

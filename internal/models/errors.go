package models

import "errors"

// Draft validation errors (검증 순서대로 사용자에게 노출)
var (
	ErrCategoryRequired      = errors.New("project type required")
	ErrTechStackRequired     = errors.New("at least one technology required")
	ErrArchiveRequired       = errors.New("archive required")
	ErrRepositoryURLRequired = errors.New("valid repository URL required")
	ErrInvalidArchive        = errors.New("only .zip archives are accepted")
	ErrInvalidMode           = errors.New("invalid submission mode")
)

package models

import (
	"mime/multipart"
	"strings"
)

// Category 프로젝트 유형
type Category string

const (
	CategoryUnset     Category = ""
	CategoryFrontend  Category = "frontend"
	CategoryBackend   Category = "backend"
	CategoryFullstack Category = "fullstack"
	CategoryPython    Category = "python"
)

// Valid 허용된 프로젝트 유형인지 확인
func (c Category) Valid() bool {
	switch c {
	case CategoryFrontend, CategoryBackend, CategoryFullstack, CategoryPython:
		return true
	}
	return false
}

// SubmissionMode 제출 방식 (아카이브 업로드 또는 Git 저장소)
type SubmissionMode string

const (
	ModeArchive    SubmissionMode = "archive"
	ModeRepository SubmissionMode = "repository"
)

// 아카이브로 허용되는 Content-Type
var archiveMediaTypes = map[string]bool{
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/x-compressed":     true,
	"multipart/x-zip":              true,
}

// SubmissionDraft 제출 폼 상태. 필드 단위로 채워지고 제출 시 한 번만 소비된다.
// 검증 실패나 제출 실패 후에도 내용은 그대로 유지된다 (부분 리셋 없음).
type SubmissionDraft struct {
	ProjectName   string
	Category      Category
	TechStack     []string // 입력 순서 유지
	Mode          SubmissionMode
	ArchiveFile   *multipart.FileHeader
	RepositoryURL string
}

// NewSubmissionDraft 빈 드래프트 생성
func NewSubmissionDraft() *SubmissionDraft {
	return &SubmissionDraft{Mode: ModeArchive}
}

// AddTech 기술 스택 항목 추가 (중복/공백 무시, 순서 유지)
func (d *SubmissionDraft) AddTech(tech string) {
	tech = strings.TrimSpace(tech)
	if tech == "" {
		return
	}
	for _, existing := range d.TechStack {
		if existing == tech {
			return
		}
	}
	d.TechStack = append(d.TechStack, tech)
}

// SetArchiveFile 아카이브 파일 선택. 선택 시점에 검증하며,
// 유효하지 않은 파일은 거부하고 기존 ArchiveFile을 변경하지 않는다.
func (d *SubmissionDraft) SetArchiveFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrInvalidArchive
	}
	if !isZipArchive(file) {
		return ErrInvalidArchive
	}
	d.ArchiveFile = file
	return nil
}

func isZipArchive(file *multipart.FileHeader) bool {
	if strings.HasSuffix(strings.ToLower(file.Filename), ".zip") {
		return true
	}
	contentType := file.Header.Get("Content-Type")
	if mediaType, _, found := strings.Cut(contentType, ";"); found {
		contentType = mediaType
	}
	return archiveMediaTypes[strings.TrimSpace(contentType)]
}

// Validate 제출 전 검증. 정해진 순서대로 평가하며 첫 실패에서 중단한다.
func (d *SubmissionDraft) Validate() error {
	if !d.Category.Valid() {
		return ErrCategoryRequired
	}
	if len(d.TechStack) == 0 {
		return ErrTechStackRequired
	}
	switch d.Mode {
	case ModeArchive:
		if d.ArchiveFile == nil {
			return ErrArchiveRequired
		}
	case ModeRepository:
		url := strings.TrimSpace(d.RepositoryURL)
		if url == "" || !(strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")) {
			return ErrRepositoryURLRequired
		}
	default:
		return ErrInvalidMode
	}
	return nil
}

// Description 프로젝트 이름과 기술 스택으로 설명 문자열 조합.
// 외부 서비스가 이 문자열을 파싱하므로 구분자와 순서를 바꾸면 안 된다.
func (d *SubmissionDraft) Description() string {
	return d.ProjectName + " - Tech stack: " + strings.Join(d.TechStack, ", ")
}

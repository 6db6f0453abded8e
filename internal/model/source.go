package model

import "time"

// SourceCategory biases how the extraction oracle interprets a source
type SourceCategory string

const (
	CategoryFinancialReport    SourceCategory = "financial-report"
	CategoryPressRelease       SourceCategory = "press-release"
	CategoryNewsArticle        SourceCategory = "news-article"
	CategoryAcademicPaper      SourceCategory = "academic-paper"
	CategoryUserInput          SourceCategory = "user-input"
	CategorySupplementalUpdate SourceCategory = "supplemental-update"
)

// ValidCategory reports whether c is part of the fixed category enumeration
func ValidCategory(c SourceCategory) bool {
	switch c {
	case CategoryFinancialReport, CategoryPressRelease, CategoryNewsArticle,
		CategoryAcademicPaper, CategoryUserInput, CategorySupplementalUpdate:
		return true
	}
	return false
}

// Source is a unit of ingested text. Immutable once created; identity is its ID.
type Source struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Category   SourceCategory `json:"category"`
	RawContent string         `json:"raw_content"`
	IngestedAt time.Time      `json:"ingested_at"`
}

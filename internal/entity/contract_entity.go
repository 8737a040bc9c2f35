package entity

import (
	"time"

	"github.com/google/uuid"
)

// Contract types the drafting assistant knows how to ground. Unknown types
// fall back to the general obligations corpus.
const (
	ContractTypeEmployment  = "employment"
	ContractTypeLease       = "lease"
	ContractTypeSale        = "sale"
	ContractTypeService     = "service"
	ContractTypePartnership = "partnership"
	ContractTypeNDA         = "nda"
)

type ContractSession struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	ContractType string
	// Drafting language: "ar" or "fr".
	Language string
	// Current draft body (HTML). Empty until the first draft lands.
	HtmlContent string
	// Version counts accepted document updates, starting at 0.
	Version   int
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

type ContractMessage struct {
	Id                uuid.UUID
	ContractSessionId uuid.UUID
	Role              string
	Content           string
	// Review holds the compliance audit attached to an assistant turn that
	// produced or revised the document. Nil for plain conversation turns.
	Review    *ContractReview
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

type ContractReview struct {
	Issues  []ReviewIssue `json:"issues"`
	Summary string        `json:"summary"`
}

type ReviewIssue struct {
	Severity     string `json:"severity"` // "critical", "warning", "info"
	Clause       string `json:"clause"`
	Description  string `json:"description"`
	LawReference string `json:"law_reference"`
}

const (
	IssueSeverityCritical = "critical"
	IssueSeverityWarning  = "warning"
	IssueSeverityInfo     = "info"
)

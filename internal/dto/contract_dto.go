package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateContractSessionRequest struct {
	ContractType string `json:"contract_type" validate:"required,oneof=employment lease sale service partnership nda"`
	Title        string `json:"title" validate:"omitempty,max=200"`
	Language     string `json:"language" validate:"omitempty,oneof=ar fr"`
}

type ContractSessionResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	ContractType string     `json:"contract_type"`
	Language     string     `json:"language"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// ContractSessionDetail additionally carries the draft body and the
// conversation so the editor can be rebuilt.
type ContractSessionDetail struct {
	ContractSessionResponse
	HtmlContent string                    `json:"html_content"`
	Messages    []ContractMessageResponse `json:"messages"`
}

type ContractMessageResponse struct {
	Id        uuid.UUID          `json:"id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Review    *ContractReviewDTO `json:"review,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

type ContractReviewDTO struct {
	Issues  []ReviewIssueDTO `json:"issues"`
	Summary string           `json:"summary"`
}

type ReviewIssueDTO struct {
	Severity     string `json:"severity"`
	Clause       string `json:"clause"`
	Description  string `json:"description"`
	LawReference string `json:"law_reference"`
}

type ContractStreamRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

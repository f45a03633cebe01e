package models

import "time"

// SubmitReviewRequest represents the request body for submitting a repository review
type SubmitReviewRequest struct {
	RepositoryURL         string `json:"repository_url" binding:"required,http_url"`
	AssignmentDescription string `json:"assignment_description" binding:"required"`
	CandidateLevel        string `json:"candidate_level" binding:"required"`
}

// ToDomain converts SubmitReviewRequest DTO to domain Review model
func (req *SubmitReviewRequest) ToDomain() *Review {
	now := time.Now()
	return &Review{
		RepositoryURL:         req.RepositoryURL,
		AssignmentDescription: req.AssignmentDescription,
		CandidateLevel:        req.CandidateLevel,
		Status:                "queued", // Default status
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// ReviewResponse represents the response structure for a single review
type ReviewResponse struct {
	ReviewId              string                        `json:"review_id"`
	UserId                string                        `json:"user_id,omitempty"`
	RepositoryURL         string                        `json:"repository_url"`
	AssignmentDescription string                        `json:"assignment_description"`
	CandidateLevel        string                        `json:"candidate_level"`
	Status                string                        `json:"status"`
	Stages                map[string]*ReviewStageStatus `json:"stages,omitempty"`
	RunLogs               []ReviewLogEntry              `json:"run_logs,omitempty"`
	Findings              []Finding                     `json:"findings,omitempty"`
	CreatedAt             time.Time                     `json:"created_at"`
	UpdatedAt             time.Time                     `json:"updated_at"`
}

// ReviewListResponse represents the response structure for listing reviews
type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Total   int              `json:"total"`
}

// ToResponse converts a domain Review to a ReviewResponse DTO
func (r *Review) ToResponse() ReviewResponse {
	return ReviewResponse{
		ReviewId:              r.ReviewId,
		UserId:                r.UserId,
		RepositoryURL:         r.RepositoryURL,
		AssignmentDescription: r.AssignmentDescription,
		CandidateLevel:        r.CandidateLevel,
		Status:                r.Status,
		Stages:                r.Stages,
		RunLogs:               r.RunLogs,
		Findings:              r.Findings,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

package models

import "time"

// ReviewStageStatus represents the status of a single review pipeline stage
type ReviewStageStatus struct {
	Status      string     `json:"status" dynamodbav:"Status"` // "pending", "in_progress", "completed", "failed"
	StartedAt   *time.Time `json:"started_at,omitempty" dynamodbav:"StartedAt,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" dynamodbav:"CompletedAt,omitempty"`
	Error       string     `json:"error,omitempty" dynamodbav:"Error,omitempty"`
}

// ReviewLogEntry represents a single log entry from the review run
type ReviewLogEntry struct {
	Timestamp time.Time `json:"timestamp" dynamodbav:"Timestamp"`
	Stage     string    `json:"stage" dynamodbav:"Stage"`
	Level     string    `json:"level" dynamodbav:"Level"` // "info", "warning", "error"
	Message   string    `json:"message" dynamodbav:"Message"`
}

// Finding holds the model's review of a single source file
type Finding struct {
	Path     string `json:"path" dynamodbav:"Path"`
	Analysis string `json:"analysis" dynamodbav:"Analysis"`
	Error    string `json:"error,omitempty" dynamodbav:"Error,omitempty"`
}

// Candidate experience levels accepted on submission
const (
	LevelJunior = "junior"
	LevelMiddle = "middle"
	LevelSenior = "senior"
)

// ValidCandidateLevel reports whether level is one of the accepted values
func ValidCandidateLevel(level string) bool {
	switch level {
	case LevelJunior, LevelMiddle, LevelSenior:
		return true
	}
	return false
}

// Review represents the domain model for a repository review
// This is a database-agnostic business entity
type Review struct {
	ReviewId              string
	UserId                string
	RepositoryURL         string
	AssignmentDescription string
	CandidateLevel        string
	Status                string                        // e.g., "queued", "in_progress", "completed", "failed"
	Stages                map[string]*ReviewStageStatus `json:"stages,omitempty"`
	RunLogs               []ReviewLogEntry              `json:"run_logs,omitempty"`
	Findings              []Finding                     `json:"findings,omitempty"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

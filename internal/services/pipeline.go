package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"

	"github.com/repolens/reviewserver/internal/models"
	"github.com/repolens/reviewserver/internal/queue"
	"github.com/repolens/reviewserver/internal/repository"
)

// PipelineService orchestrates the review pipeline stages
type PipelineService struct {
	reviewRepo repository.ReviewRepository
	llm        *LLMService
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(reviewRepo repository.ReviewRepository, llm *LLMService) *PipelineService {
	return &PipelineService{
		reviewRepo: reviewRepo,
		llm:        llm,
	}
}

// ExecuteReview executes the complete review pipeline for a job
func (ps *PipelineService) ExecuteReview(ctx context.Context, job *queue.ReviewJob) error {
	rlog := NewRunLogger()
	now := time.Now()

	// Initialize stages in the review record
	stages := map[string]*models.ReviewStageStatus{
		"clone":    {Status: "pending", StartedAt: &now},
		"scan":     {Status: "pending"},
		"analyze":  {Status: "pending"},
		"finalize": {Status: "pending"},
	}

	// Get the review record
	review, err := ps.reviewRepo.Get(ctx, job.ReviewID)
	if err != nil || review == nil {
		rlog.LogError("init", "Failed to fetch review from database")
		return fmt.Errorf("review not found")
	}

	review.Stages = stages
	review.Status = "in_progress"
	review.RunLogs = rlog.GetLogs()

	if err := ps.updateReview(ctx, review, rlog); err != nil {
		rlog.LogError("init", fmt.Sprintf("Failed to update review: %v", err))
		return err
	}

	// Stage 1: Clone Repository. The clone target is removed even when the
	// clone itself fails partway through.
	tempDir := ps.getTempDir(job)
	defer os.RemoveAll(tempDir)

	if err := ps.stageClone(ctx, job, rlog, tempDir); err != nil {
		ps.markStageFailed(ctx, review, rlog, "clone", err)
		return err
	}

	ps.markStageCompleted(ctx, review, rlog, "clone")

	// Stage 2: Scan source files
	files, repoCfg, err := ps.stageScan(rlog, tempDir)
	if err != nil {
		ps.markStageFailed(ctx, review, rlog, "scan", err)
		return err
	}

	ps.markStageCompleted(ctx, review, rlog, "scan")

	// Stage 3: Analyze each file
	findings, err := ps.stageAnalyze(ctx, job, review, rlog, tempDir, files, repoCfg)
	if err != nil {
		ps.markStageFailed(ctx, review, rlog, "analyze", err)
		return err
	}

	ps.markStageCompleted(ctx, review, rlog, "analyze")

	// Stage 4: Finalize
	review.Status = "completed"
	review.Findings = findings
	ps.markStageCompleted(ctx, review, rlog, "finalize")

	if err := ps.updateReview(ctx, review, rlog); err != nil {
		rlog.LogError("finalize", fmt.Sprintf("Failed to update review: %v", err))
		return err
	}

	rlog.LogInfo("finalize", "Review pipeline completed successfully")
	return nil
}

// stageClone clones the submitted repository into a temporary directory
func (ps *PipelineService) stageClone(ctx context.Context, job *queue.ReviewJob, rlog *RunLogger, tempDir string) error {
	rlog.LogInfo("clone", fmt.Sprintf("Cloning %s", job.RepositoryURL))

	// Shallow clone is enough for a point-in-time review
	_, err := git.PlainCloneContext(ctx, tempDir, false, &git.CloneOptions{
		URL:   job.RepositoryURL,
		Depth: 1,
	})
	if err != nil {
		rlog.LogError("clone", fmt.Sprintf("Repository clone failed: %v", err))
		return fmt.Errorf("git clone failed: %w", err)
	}

	rlog.LogInfo("clone", fmt.Sprintf("Repository cloned successfully to %s", tempDir))
	return nil
}

// stageScan validates the optional review.yaml and collects source files
func (ps *PipelineService) stageScan(rlog *RunLogger, tempDir string) ([]string, *RepoReviewConfig, error) {
	rlog.LogInfo("scan", "Scanning repository for source files")

	repoCfg, err := LoadRepoConfig(tempDir)
	if err != nil {
		rlog.LogError("scan", fmt.Sprintf("Repository config validation failed: %v", err))
		return nil, nil, err
	}
	if repoCfg != nil {
		rlog.LogInfo("scan", "review.yaml found and valid")
	}

	files, err := ScanSourceFiles(tempDir, repoCfg)
	if err != nil {
		rlog.LogError("scan", fmt.Sprintf("Repository scan failed: %v", err))
		return nil, nil, err
	}

	if len(files) == 0 {
		rlog.LogWarning("scan", "No reviewable source files found in repository")
	} else {
		rlog.LogInfo("scan", fmt.Sprintf("Found %d source files to review", len(files)))
	}

	return files, repoCfg, nil
}

// stageAnalyze sends each source file to the LLM and collects findings.
// A per-file API failure is recorded as an error finding and does not abort
// the run.
func (ps *PipelineService) stageAnalyze(
	ctx context.Context,
	job *queue.ReviewJob,
	review *models.Review,
	rlog *RunLogger,
	tempDir string,
	files []string,
	repoCfg *RepoReviewConfig,
) ([]models.Finding, error) {
	assignment := job.AssignmentDescription
	if repoCfg != nil && repoCfg.Context != "" {
		assignment = assignment + "\n\nAdditional context: " + repoCfg.Context
	}

	findings := make([]models.Finding, 0, len(files))
	for _, file := range files {
		rlog.LogInfo("analyze", fmt.Sprintf("Reviewing %s", file))

		code, err := os.ReadFile(filepath.Join(tempDir, file))
		if err != nil {
			rlog.LogError("analyze", fmt.Sprintf("Failed to read %s: %v", file, err))
			findings = append(findings, models.Finding{
				Path:  file,
				Error: fmt.Sprintf("failed to read file: %v", err),
			})
			continue
		}

		analysis, err := ps.llm.ReviewCode(ctx, string(code), assignment, job.CandidateLevel)
		if err != nil {
			rlog.LogError("analyze", fmt.Sprintf("Analysis of %s failed: %v", file, err))
			findings = append(findings, models.Finding{
				Path:  file,
				Error: fmt.Sprintf("error analyzing code: %v", err),
			})
			continue
		}

		findings = append(findings, models.Finding{
			Path:     file,
			Analysis: analysis,
		})

		// Persist progress so callers polling the review see findings arrive
		review.Findings = findings
		if err := ps.updateReview(ctx, review, rlog); err != nil {
			rlog.LogWarning("analyze", fmt.Sprintf("Failed to persist progress: %v", err))
		}
	}

	rlog.LogInfo("analyze", fmt.Sprintf("Analysis completed for %d files", len(findings)))
	return findings, nil
}

// getTempDir returns the temporary directory path for a job
func (ps *PipelineService) getTempDir(job *queue.ReviewJob) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("review-%s", job.ReviewID))
}

// markStageCompleted marks a stage as completed in the review record
func (ps *PipelineService) markStageCompleted(ctx context.Context, review *models.Review, rlog *RunLogger, stageName string) {
	if review.Stages == nil {
		review.Stages = make(map[string]*models.ReviewStageStatus)
	}

	now := time.Now()
	review.Stages[stageName] = &models.ReviewStageStatus{
		Status:      "completed",
		CompletedAt: &now,
	}

	ps.updateReview(ctx, review, rlog)
}

// markStageFailed marks a stage as failed in the review record
func (ps *PipelineService) markStageFailed(ctx context.Context, review *models.Review, rlog *RunLogger, stageName string, err error) {
	if review.Stages == nil {
		review.Stages = make(map[string]*models.ReviewStageStatus)
	}

	now := time.Now()
	review.Stages[stageName] = &models.ReviewStageStatus{
		Status:      "failed",
		CompletedAt: &now,
		Error:       err.Error(),
	}

	review.Status = "failed"
	ps.updateReview(ctx, review, rlog)
}

// updateReview updates the review record in the database
func (ps *PipelineService) updateReview(ctx context.Context, review *models.Review, rlog *RunLogger) error {
	review.RunLogs = rlog.GetLogsWithSizeLimit()
	review.UpdatedAt = time.Now()
	return ps.reviewRepo.Update(ctx, review)
}

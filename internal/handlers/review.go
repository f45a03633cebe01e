package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/repolens/reviewserver/internal/models"
	"github.com/repolens/reviewserver/internal/queue"
	"github.com/repolens/reviewserver/internal/repository"
)

// ReviewHandler handles repository review requests
type ReviewHandler struct {
	reviewRepo repository.ReviewRepository
	jobQueue   *queue.JobQueue
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewRepo repository.ReviewRepository, jobQueue *queue.JobQueue) *ReviewHandler {
	return &ReviewHandler{
		reviewRepo: reviewRepo,
		jobQueue:   jobQueue,
	}
}

// Submit handles submitting a repository for review
func (h *ReviewHandler) Submit(c *gin.Context) {
	userIdStr, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": err.Error(),
		})
		return
	}

	if !models.ValidCandidateLevel(req.CandidateLevel) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "candidate_level must be one of: junior, middle, senior",
		})
		return
	}

	// Convert request DTO to domain model
	review := req.ToDomain()
	review.ReviewId = uuid.New().String()
	review.UserId = userIdStr

	if err := h.reviewRepo.Create(c.Request.Context(), review); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to create review",
		})
		return
	}

	// Enqueue review job (async execution by the worker pool)
	job := &queue.ReviewJob{
		ReviewID:              review.ReviewId,
		UserID:                review.UserId,
		RepositoryURL:         review.RepositoryURL,
		AssignmentDescription: review.AssignmentDescription,
		CandidateLevel:        review.CandidateLevel,
	}

	if err := h.jobQueue.Enqueue(job); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "queue_unavailable",
			"message": "Review queue is not accepting new jobs",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"review_id": review.ReviewId,
		"status":    review.Status,
		"message":   "Review submitted successfully",
	})
}

// Get handles retrieving a single review with its findings
func (h *ReviewHandler) Get(c *gin.Context) {
	userIdStr, ok := userIDFromContext(c)
	if !ok {
		return
	}

	reviewId := c.Param("review_id")
	if reviewId == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "Review ID is required",
		})
		return
	}

	review, err := h.reviewRepo.Get(c.Request.Context(), reviewId)
	if err != nil || review == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "review_not_found",
			"message": "Review not found",
		})
		return
	}

	if review.UserId != userIdStr {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to view this review",
		})
		return
	}

	c.JSON(http.StatusOK, review.ToResponse())
}

// List handles listing all reviews submitted by the caller
func (h *ReviewHandler) List(c *gin.Context) {
	userIdStr, ok := userIDFromContext(c)
	if !ok {
		return
	}

	reviews, err := h.reviewRepo.ListByUser(c.Request.Context(), userIdStr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to list reviews",
		})
		return
	}

	response := models.ReviewListResponse{
		Reviews: make([]models.ReviewResponse, 0, len(reviews)),
		Total:   len(reviews),
	}
	for _, review := range reviews {
		response.Reviews = append(response.Reviews, review.ToResponse())
	}

	c.JSON(http.StatusOK, response)
}

// userIDFromContext extracts the caller identity set by the auth middleware,
// writing the error response when it is absent
func userIDFromContext(c *gin.Context) (string, bool) {
	userId, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "User ID not found in context",
		})
		return "", false
	}

	userIdStr, ok := userId.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Invalid user ID format",
		})
		return "", false
	}

	return userIdStr, true
}

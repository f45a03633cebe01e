package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/repolens/reviewserver/internal/models"
	"github.com/repolens/reviewserver/internal/queue"
)

// fakeReviewRepo is an in-memory ReviewRepository for handler tests
type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[string]*models.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[string]*models.Review)}
}

func (f *fakeReviewRepo) Create(ctx context.Context, review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[review.ReviewId] = review
	return nil
}

func (f *fakeReviewRepo) Get(ctx context.Context, reviewId string) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.reviews[reviewId]
	if !ok {
		return nil, errors.New("record not found")
	}
	return review, nil
}

func (f *fakeReviewRepo) ListByUser(ctx context.Context, userId string) ([]*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Review
	for _, review := range f.reviews {
		if review.UserId == userId {
			out = append(out, review)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) Update(ctx context.Context, review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[review.ReviewId] = review
	return nil
}

func setupTestRouter(repo *fakeReviewRepo, jq *queue.JobQueue, userId string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userId != "" {
			c.Set("user_id", userId)
		}
		c.Next()
	})

	h := NewReviewHandler(repo, jq)
	r.POST("/api/v1/reviews", h.Submit)
	r.GET("/api/v1/reviews", h.List)
	r.GET("/api/v1/reviews/:review_id", h.Get)
	return r
}

// TestSubmitReview tests the submission endpoint
func TestSubmitReview(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid submission",
			body:       `{"repository_url":"https://github.com/user/repo","assignment_description":"Build a CLI","candidate_level":"junior"}`,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "missing repository url",
			body:       `{"assignment_description":"Build a CLI","candidate_level":"junior"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid url",
			body:       `{"repository_url":"not a url","assignment_description":"Build a CLI","candidate_level":"junior"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-http scheme",
			body:       `{"repository_url":"ftp://example.com/user/repo","assignment_description":"Build a CLI","candidate_level":"junior"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ssh scheme",
			body:       `{"repository_url":"ssh://git@example.com/user/repo.git","assignment_description":"Build a CLI","candidate_level":"junior"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid candidate level",
			body:       `{"repository_url":"https://github.com/user/repo","assignment_description":"Build a CLI","candidate_level":"expert"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing assignment description",
			body:       `{"repository_url":"https://github.com/user/repo","candidate_level":"junior"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeReviewRepo()
			jq := queue.NewJobQueue(10)
			defer jq.Close()

			r := setupTestRouter(repo, jq, "user-1")

			req := httptest.NewRequest("POST", "/api/v1/reviews", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantStatus == http.StatusAccepted {
				var resp map[string]interface{}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				reviewId, _ := resp["review_id"].(string)
				if reviewId == "" {
					t.Fatal("Expected review_id in response")
				}

				// Record persisted
				stored, err := repo.Get(context.Background(), reviewId)
				if err != nil {
					t.Fatalf("Expected review stored: %v", err)
				}
				if stored.Status != "queued" {
					t.Errorf("Expected status queued, got %s", stored.Status)
				}
				if stored.UserId != "user-1" {
					t.Errorf("Expected user-1, got %s", stored.UserId)
				}

				// Job enqueued
				select {
				case job := <-jq.Jobs():
					if job.ReviewID != reviewId {
						t.Errorf("Expected job for %s, got %s", reviewId, job.ReviewID)
					}
				default:
					t.Error("Expected a job in the queue")
				}
			}
		})
	}
}

// TestSubmitReviewClosedQueue tests submission when the queue is shut down
func TestSubmitReviewClosedQueue(t *testing.T) {
	repo := newFakeReviewRepo()
	jq := queue.NewJobQueue(1)
	jq.Close()

	r := setupTestRouter(repo, jq, "user-1")

	body := `{"repository_url":"https://github.com/user/repo","assignment_description":"Build a CLI","candidate_level":"junior"}`
	req := httptest.NewRequest("POST", "/api/v1/reviews", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}

// TestGetReview tests the retrieval endpoint
func TestGetReview(t *testing.T) {
	repo := newFakeReviewRepo()
	jq := queue.NewJobQueue(1)
	defer jq.Close()

	repo.Create(context.Background(), &models.Review{
		ReviewId: "review-1",
		UserId:   "user-1",
		Status:   "completed",
		Findings: []models.Finding{{Path: "main.py", Analysis: "Fine."}},
	})

	t.Run("owner gets review", func(t *testing.T) {
		r := setupTestRouter(repo, jq, "user-1")
		req := httptest.NewRequest("GET", "/api/v1/reviews/review-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		var resp models.ReviewResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Status != "completed" || len(resp.Findings) != 1 {
			t.Errorf("Unexpected response: %+v", resp)
		}
	})

	t.Run("other user forbidden", func(t *testing.T) {
		r := setupTestRouter(repo, jq, "user-2")
		req := httptest.NewRequest("GET", "/api/v1/reviews/review-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", w.Code)
		}
	})

	t.Run("unknown review", func(t *testing.T) {
		r := setupTestRouter(repo, jq, "user-1")
		req := httptest.NewRequest("GET", "/api/v1/reviews/nope", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("missing user in context", func(t *testing.T) {
		r := setupTestRouter(repo, jq, "")
		req := httptest.NewRequest("GET", "/api/v1/reviews/review-1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})
}

// TestListReviews tests the listing endpoint
func TestListReviews(t *testing.T) {
	repo := newFakeReviewRepo()
	jq := queue.NewJobQueue(1)
	defer jq.Close()

	repo.Create(context.Background(), &models.Review{ReviewId: "r1", UserId: "user-1"})
	repo.Create(context.Background(), &models.Review{ReviewId: "r2", UserId: "user-1"})
	repo.Create(context.Background(), &models.Review{ReviewId: "r3", UserId: "user-2"})

	r := setupTestRouter(repo, jq, "user-1")
	req := httptest.NewRequest("GET", "/api/v1/reviews", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp models.ReviewListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Reviews) != 2 {
		t.Errorf("Expected 2 reviews, got total=%d len=%d", resp.Total, len(resp.Reviews))
	}
}

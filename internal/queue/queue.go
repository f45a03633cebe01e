package queue

import (
	"sync"

	"github.com/repolens/reviewserver/internal/logger"
)

// ReviewJob represents a queued repository review
type ReviewJob struct {
	ReviewID              string
	UserID                string
	RepositoryURL         string
	AssignmentDescription string
	CandidateLevel        string
}

// JobQueue manages the job queue with a channel-based system
type JobQueue struct {
	jobs   chan *ReviewJob
	mu     sync.Mutex
	closed bool
}

// NewJobQueue creates a new job queue with the specified buffer size
func NewJobQueue(bufferSize int) *JobQueue {
	return &JobQueue{
		jobs: make(chan *ReviewJob, bufferSize),
	}
}

// Enqueue adds a job to the queue
func (jq *JobQueue) Enqueue(job *ReviewJob) error {
	logger.WithFields(map[string]interface{}{
		"review_id":      job.ReviewID,
		"user_id":        job.UserID,
		"repository_url": job.RepositoryURL,
	}).Debug("Enqueueing review job")

	jq.mu.Lock()
	defer jq.mu.Unlock()

	if jq.closed {
		logger.WithFields(map[string]interface{}{
			"review_id": job.ReviewID,
		}).Warn("Failed to enqueue job: queue is closed")
		return ErrQueueClosed
	}

	// Close() takes the same lock before closing the channel, so this send
	// can never hit a closed channel
	jq.jobs <- job

	logger.WithFields(map[string]interface{}{
		"review_id": job.ReviewID,
	}).Info("Review job enqueued successfully")
	return nil
}

// Jobs returns the underlying channel for job consumption
func (jq *JobQueue) Jobs() <-chan *ReviewJob {
	return jq.jobs
}

// Close closes the queue
func (jq *JobQueue) Close() {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	if jq.closed {
		return // Already closed
	}

	jq.closed = true
	close(jq.jobs)
}

// WorkerPool manages multiple workers processing jobs
type WorkerPool struct {
	queue   *JobQueue
	workers int
	jobs    chan *ReviewJob
	wg      sync.WaitGroup
	done    chan bool
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queue *JobQueue, numWorkers int) *WorkerPool {
	return &WorkerPool{
		queue:   queue,
		workers: numWorkers,
		jobs:    queue.jobs,
		done:    make(chan bool),
	}
}

// Start starts all workers
func (wp *WorkerPool) Start(handler func(*ReviewJob) error) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(handler)
	}
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(handler func(*ReviewJob) error) {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobs:
			if !ok {
				logger.Debug("Worker exiting: jobs channel closed")
				return
			}
			if job != nil {
				logger.WithFields(map[string]interface{}{
					"review_id":      job.ReviewID,
					"user_id":        job.UserID,
					"repository_url": job.RepositoryURL,
				}).Info("Worker processing review job")

				err := handler(job)
				if err != nil {
					logger.WithFields(map[string]interface{}{
						"review_id": job.ReviewID,
						"error":     err.Error(),
					}).Error("Worker failed to process review job")
				} else {
					logger.WithFields(map[string]interface{}{
						"review_id": job.ReviewID,
					}).Info("Worker completed review job successfully")
				}
			}
		case <-wp.done:
			logger.Debug("Worker exiting: stop signal received")
			return
		}
	}
}

// Stop stops all workers
func (wp *WorkerPool) Stop() {
	close(wp.done)
	wp.wg.Wait()
}

// Wait waits for all workers to finish
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

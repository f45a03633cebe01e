package services

import (
	"sync"
	"time"

	"github.com/repolens/reviewserver/internal/models"
)

const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"

	LogSizeLimit = 400 * 1024 // 400KB limit
)

// RunLogger handles structured logging for review runs
type RunLogger struct {
	logs []models.ReviewLogEntry
	mu   sync.Mutex
}

// NewRunLogger creates a new run logger
func NewRunLogger() *RunLogger {
	return &RunLogger{
		logs: make([]models.ReviewLogEntry, 0),
	}
}

// LogInfo logs an info level message
func (rl *RunLogger) LogInfo(stage, message string) {
	rl.log(stage, LevelInfo, message)
}

// LogWarning logs a warning level message
func (rl *RunLogger) LogWarning(stage, message string) {
	rl.log(stage, LevelWarning, message)
}

// LogError logs an error level message
func (rl *RunLogger) LogError(stage, message string) {
	rl.log(stage, LevelError, message)
}

// log is the internal method that adds a log entry
func (rl *RunLogger) log(stage, level, message string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry := models.ReviewLogEntry{
		Timestamp: time.Now(),
		Stage:     stage,
		Level:     level,
		Message:   message,
	}

	rl.logs = append(rl.logs, entry)
}

// GetLogs returns all logged entries
func (rl *RunLogger) GetLogs() []models.ReviewLogEntry {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Return a copy to prevent external modifications
	logsCopy := make([]models.ReviewLogEntry, len(rl.logs))
	copy(logsCopy, rl.logs)
	return logsCopy
}

// GetLogsWithSizeLimit returns logs but truncates if they exceed the size limit
// This prevents DynamoDB items from exceeding their size limits
func (rl *RunLogger) GetLogsWithSizeLimit() []models.ReviewLogEntry {
	logs := rl.GetLogs()

	var totalSize int
	var result []models.ReviewLogEntry

	for _, entry := range logs {
		// Rough size estimation: timestamp (25) + stage (50) + level (10) + message (len) + overhead (50)
		entrySize := 135 + len(entry.Message)
		if totalSize+entrySize > LogSizeLimit {
			result = append(result, models.ReviewLogEntry{
				Timestamp: time.Now(),
				Stage:     "system",
				Level:     LevelWarning,
				Message:   "Log output exceeded size limit. Older logs truncated.",
			})
			break
		}
		result = append(result, entry)
		totalSize += entrySize
	}

	return result
}

// Clear clears all logs
func (rl *RunLogger) Clear() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.logs = make([]models.ReviewLogEntry, 0)
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTaskContentLength is the maximum number of characters in a task.
const MaxTaskContentLength = 200

var (
	// ErrTaskNotFound is returned when looking up a non-existent task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrEmptyContent is returned when task content is empty or whitespace only.
	ErrEmptyContent = errors.New("empty task content")
	// ErrContentTooLong is returned when task content exceeds MaxTaskContentLength.
	ErrContentTooLong = errors.New("task content too long")
	// ErrForbidden is returned when a user acts on a task they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrStorage is joined to errors caused by the underlying database engine.
	ErrStorage = errors.New("storage failure")
)

// Task is a single to-do entry owned by a user.
type Task struct {
	ID        int64     // Unique identifier
	Content   string    // Trimmed, non-empty text
	CreatedAt time.Time // Creation time (UTC)
	UserID    int64     // Owning user
}

// NormalizeTaskContent trims the content and checks it against the task constraints.
func NormalizeTaskContent(content string) (string, error) {
	content = strings.TrimSpace(content)

	if content == "" {
		return "", ErrEmptyContent
	}

	if utf8.RuneCountInString(content) > MaxTaskContentLength {
		return "", fmt.Errorf("%w: max %d characters", ErrContentTooLong, MaxTaskContentLength)
	}

	return content, nil
}

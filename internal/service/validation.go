package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/olgkv/tasklist/internal/domain"
)

const MaxTaskNameLength = 255

// ValidateTaskName rejects names that are blank after trimming or longer
// than MaxTaskNameLength characters.
func ValidateTaskName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.Validation("Task name cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxTaskNameLength {
		return domain.Validation(fmt.Sprintf("Task name cannot exceed %d characters", MaxTaskNameLength))
	}
	return nil
}

func ValidateTaskID(id int) error {
	if id < 0 {
		return domain.Validation("Task ID cannot be negative")
	}
	return nil
}

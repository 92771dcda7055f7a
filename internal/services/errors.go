package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks errors in the sweep or tool configuration.
	// These are fatal and surface before any process is launched.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks input validation failures inside a combination.
	ErrValidation = errors.New("validation error")
	// ErrCollision marks an expected output artifact that already exists;
	// the combination is skipped without launching the tool.
	ErrCollision = errors.New("artifact collision")
	// ErrExternalTool marks failures launching or supervising the imaging tool.
	ErrExternalTool = errors.New("external tool error")
	// ErrTimeout marks an artifact that never appeared within the trial budget.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later outcome classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

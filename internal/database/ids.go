package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"
)

// newId returns a time-ordered identifier so that records created within the
// same clock tick still sort in creation order.
func newId() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

// newTaskId returns the short public identifier of a task. It doubles as the
// name of the task's chat room.
func newTaskId() (string, error) {
	sid, err := shortid.Generate()
	if err != nil {
		return "", fmt.Errorf("generate task id: %w", err)
	}
	return sid, nil
}

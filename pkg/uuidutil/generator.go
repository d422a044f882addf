package uuidutil

import (
	"strings"

	"github.com/google/uuid"
)

func New() string {
	return uuid.New().String()
}

// Short returns the first block of a fresh UUID, enough for log correlation.
func Short() string {
	id := uuid.New().String()
	return strings.SplitN(id, "-", 2)[0]
}

func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

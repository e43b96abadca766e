package domain

import (
	"context"
	"errors"
)

// Entry is the caller-facing shape of one audit record. Actor fields come
// from the context when unset.
type Entry struct {
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

// Service records immutable audit entries.
type Service interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidAction = errors.New("invalid_audit_action")
	ErrInvalidTarget = errors.New("invalid_audit_target")
)

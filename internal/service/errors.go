package service

import (
	"errors"
	"fmt"

	"github.com/comment-tree-api/internal/validation"
)

// Kind classifies service errors for transport mapping
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindNotAllowed
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNotAllowed:
		return "not_allowed"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	}
	return "internal"
}

// Messages are part of the HTTP contract
var (
	ErrCommentNotFound   = errors.New("Comment not found or is deleted.")
	ErrParentNotFound    = errors.New("Parent comment not found.")
	ErrParentDeleted     = errors.New("Parent is deleted. Cannot reply.")
	ErrNotAllowed        = errors.New("Operation not allowed for given user.")
	ErrReactionNotFound  = errors.New("Reaction not found for user.")
	ErrReactionExists    = errors.New("Reaction already exists")
	ErrReactionUnchanged = errors.New("Reaction is same as before.")
	ErrInvalidArgument   = errors.New("Invalid request.")
)

// ServiceError carries the kind of a failure and the sentinel it wraps
type ServiceError struct {
	Kind   Kind
	Err    error
	Fields []validation.ValidationError
}

func (e *ServiceError) Error() string {
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func notFound(err error) error   { return &ServiceError{Kind: KindNotFound, Err: err} }
func notAllowed(err error) error { return &ServiceError{Kind: KindNotAllowed, Err: err} }
func conflict(err error) error   { return &ServiceError{Kind: KindConflict, Err: err} }

// invalid reports a rejected argument
func invalid(field, format string, args ...interface{}) error {
	return &ServiceError{
		Kind:   KindValidation,
		Err:    ErrInvalidArgument,
		Fields: []validation.ValidationError{{Field: field, Message: fmt.Sprintf(format, args...)}},
	}
}

func invalidFields(fields []validation.ValidationError) error {
	return &ServiceError{Kind: KindValidation, Err: ErrInvalidArgument, Fields: fields}
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

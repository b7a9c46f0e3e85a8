package service

import "errors"

// Validation errors: rejected before any write, never partially applied.
var (
	ErrConfidenceOutOfRange   = errors.New("confidence must be between 0 and 1")
	ErrPriorityOutOfRange     = errors.New("priority must be between 0 and 100")
	ErrValenceOutOfRange      = errors.New("valence must be between -1 and 1")
	ErrArousalOutOfRange      = errors.New("arousal must be between 0 and 1")
	ErrImportanceOutOfRange   = errors.New("importance must be between 0 and 1")
	ErrSignificanceOutOfRange = errors.New("significance must be between 0 and 10")
	ErrQualityOutOfRange      = errors.New("quality must be between 0 and 5")
	ErrContentEmpty           = errors.New("content is required")
	ErrSubjectEmpty           = errors.New("subject is required")
	ErrUnknownSourceTable     = errors.New("unknown source table")
	ErrUnknownDisposition     = errors.New("unknown disposition")
)

var (
	// ErrNotFound: the referenced belief or event does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadySuperseded: the supersession target is no longer
	// current. Retrying does not change the first call's effects.
	ErrAlreadySuperseded = errors.New("belief already superseded")
	// ErrChainTooDeep: a genealogy walk hit the defensive depth cap,
	// which signals a data-integrity bug rather than a user error.
	// Callers receive the bounded partial chain alongside it.
	ErrChainTooDeep = errors.New("supersession chain exceeds depth cap")
)

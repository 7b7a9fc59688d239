package domain

import "errors"

// Ledger errors.
var (
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// Reward workflow errors.
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskNotCompleted = errors.New("task not marked complete")
	ErrAlreadyRewarded  = errors.New("task already rewarded")
)

// ErrDownstreamAI wraps failures from the generative AI service.
var ErrDownstreamAI = errors.New("ai service unavailable")

// ErrDuplicateSubmission is returned when an Idempotency-Key was already used.
var ErrDuplicateSubmission = errors.New("duplicate submission")

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrForbidden          = errors.New("access forbidden")
)

// ErrInvalidScreening is returned for malformed questionnaire answers.
var ErrInvalidScreening = errors.New("invalid screening answers")

// ErrMediaNotFound is returned for unknown or foreign media references.
var ErrMediaNotFound = errors.New("media not found")

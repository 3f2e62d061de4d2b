package model

import "errors"

var (
	// ErrInvalidInput covers bad URLs, bad regexes and bad flag combinations.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnexpectedResponse marks upstream answers that break the expected contract.
	ErrUnexpectedResponse = errors.New("unexpected upstream response")
	ErrNotLanded          = errors.New("landing job has not landed")
	ErrMissingCommitID    = errors.New("landing job has no commit id")
	ErrCacheCorrupt       = errors.New("cache corrupt")
)

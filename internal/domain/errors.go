package domain

import "errors"

var (
	// ErrNotFound is returned by the gateway when GitHub answers 404.
	ErrNotFound = errors.New("resource not found")

	ErrInvalidRepoName   = errors.New("invalid repository full name")
	ErrInvalidDigestRepo = errors.New("invalid digestRepo format")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

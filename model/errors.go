package model

import "errors"

var (
	// ErrUnknownRetrieveMode is returned for a retrieval mode other than sparse, dense or hybrid
	ErrUnknownRetrieveMode = errors.New("retrieval mode can be only [sparse | dense | hybrid]")
	// ErrMissingLanguageModel is returned when no model is registered for a language nor the default language
	ErrMissingLanguageModel = errors.New("no model registered for language")
	// ErrEmbeddingFailed marks a failed embedding of a single chunk
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrMalformedEntry marks an input node missing a required field or holding an unparsable date
	ErrMalformedEntry = errors.New("malformed entry")
)

package domain

import "errors"

var (
	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCollectionNotFound is returned when a retailer has no vector collection
	ErrCollectionNotFound = errors.New("vector collection not found")

	// ErrEmbeddingFailure is returned when the embedding provider fails
	ErrEmbeddingFailure = errors.New("embedding request failed")

	// ErrVectorSearchFailure is returned when the vector store request fails
	ErrVectorSearchFailure = errors.New("vector store request failed")

	// ErrLLMFailure is returned when the chat completion provider fails
	ErrLLMFailure = errors.New("LLM request failed")

	// ErrInvalidLLMResponse is returned when the LLM answer is not the JSON we asked for
	ErrInvalidLLMResponse = errors.New("invalid LLM response")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidTaxonomy is returned when the master taxonomy document is malformed
	ErrInvalidTaxonomy = errors.New("invalid master taxonomy")

	// ErrReceiptNotFound is returned when a stored receipt does not exist
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

package domain

import "errors"

var (
	// ErrFetchFailure is returned when a page cannot be fetched or rendered
	ErrFetchFailure = errors.New("page fetch failed")

	// ErrParseFailure is returned when the LLM response is not valid JSON
	ErrParseFailure = errors.New("failed to parse LLM response")

	// ErrNoDataFound is returned when no product data could be recovered by any stage
	ErrNoDataFound = errors.New("no product data found")

	// ErrLLMUnavailable is returned when the completion service cannot be reached
	ErrLLMUnavailable = errors.New("completion service unavailable")

	// ErrSearchAPIFailure is returned when the SerpAPI request fails
	ErrSearchAPIFailure = errors.New("search API request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when the caller presents no valid API key
	ErrUnauthorized = errors.New("missing or invalid API key")

	// ErrStoreUnavailable is returned when the snapshot store cannot be reached
	ErrStoreUnavailable = errors.New("snapshot store unavailable")
)

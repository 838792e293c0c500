package core

import "errors"

var (
	// ErrBusy is returned when every processing slot stays occupied for
	// the limiter's wait time. Clients should retry after a short delay.
	ErrBusy = errors.New("too many concurrent requests, please try again later")

	// ErrEmptyFile is returned by Ingest for a body that holds only
	// whitespace.
	ErrEmptyFile = errors.New("empty file")

	// ErrNoFile is returned by transports when a request carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrTooManyRows is returned when a dataset exceeds the row limit.
	ErrTooManyRows = errors.New("too many rows")

	// ErrRateLimited is returned by transports that throttle clients.
	ErrRateLimited = errors.New("rate limit exceeded")
)

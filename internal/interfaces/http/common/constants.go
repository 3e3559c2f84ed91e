package common

import "time"

const (
	// MaxRequestBody limits JSON request bodies.
	MaxRequestBody = 1 << 20
	// RequestTimeout bounds store access per request.
	RequestTimeout = 5 * time.Second
	// MenuEmailTimeout covers PDF rendering and one email per student.
	MenuEmailTimeout = 2 * time.Minute
)

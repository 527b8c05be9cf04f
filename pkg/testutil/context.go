package testutil

import (
	"context"
	"net/http"
	"time"

	"folio/pkg/requestcontext"
)

// ContextAt returns a context whose request clock reads ts. Services take
// "now" from the context, so tests pin time this way instead of sleeping.
func ContextAt(ts time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), ts)
}

// RequestAt stamps the request clock onto an HTTP request, simulating the
// request-time middleware.
func RequestAt(req *http.Request, ts time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), ts))
}

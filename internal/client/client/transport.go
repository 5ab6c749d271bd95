package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/hubcli/internal/common"
	"github.com/dmitrijs2005/hubcli/internal/logging"
)

// authTransport decorates every request with the stored credential, a
// request id and the JSON Accept header, then logs the round trip.
type authTransport struct {
	base   http.RoundTripper
	tokens TokenSource
	logger logging.Logger
	newID  func() string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	r := req.Clone(ctx)
	r.Header.Set("Accept", "application/json")

	requestID := t.newID()
	r.Header.Set(common.RequestIDHeaderName, requestID)

	if t.tokens != nil {
		token, err := t.tokens.Token(ctx)
		if err != nil {
			// RoundTrip owns the body even when the request is never sent.
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, fmt.Errorf("read credential: %w", err)
		}
		if token != "" {
			r.Header.Set(common.AuthorizationHeaderName, common.BearerToken(token))
		}
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(r)
	elapsed := time.Since(start)

	if err != nil {
		t.logger.Warn(ctx, "api request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", requestID,
			"duration", elapsed, "error", err)
		return nil, err
	}

	t.logger.Debug(ctx, "api request",
		"method", r.Method, "path", r.URL.Path, "status", resp.StatusCode,
		"request_id", requestID, "duration", elapsed)
	return resp, nil
}

func newRequestID() string {
	return uuid.NewString()
}

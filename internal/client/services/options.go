package services

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/hubcli/internal/logging"
)

// ErrNotSignedIn is returned by operations that need a signed-in identity.
var ErrNotSignedIn = errors.New("not signed in")

type options struct {
	now    func() time.Time
	logger logging.Logger
}

// Option customizes a service.
type Option func(*options)

// WithClock replaces time.Now for ban evaluation.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func collect(opts []Option) options {
	o := options{now: time.Now, logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

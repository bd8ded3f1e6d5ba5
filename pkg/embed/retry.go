package embed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/googleapis/gax-go/v2"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// DefaultRetries is how many times a request that failed with a transient
// error (429, 5xx, network timeout) is retried.
const DefaultRetries = 2

var defaultBackoff = gax.Backoff{
	Initial:    500 * time.Millisecond,
	Max:        10 * time.Second,
	Multiplier: 2,
}

// retrier runs remote calls with bounded, jittered retries.
type retrier struct {
	retries int
	backoff gax.Backoff
}

func (r retrier) do(ctx context.Context, call func(context.Context) error) error {
	attempts := 0
	return gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		return call(ctx)
	}, gax.WithRetry(func() gax.Retryer {
		return gax.OnErrorFunc(r.backoff, func(err error) bool {
			attempts++
			return attempts <= r.retries && retryable(err)
		})
	}))
}

func retryable(err error) bool {
	var oerr *openai.Error
	if errors.As(err, &oerr) {
		return retryableStatus(oerr.StatusCode)
	}
	var gerr genai.APIError
	if errors.As(err, &gerr) {
		return retryableStatus(gerr.Code)
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

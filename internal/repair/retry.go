package repair

import (
	"context"
	"errors"
)

// ErrMalformed is returned when every attempt produced output that could not
// be decoded into the expected shape.
var ErrMalformed = errors.New("malformed structured output")

// RetryPolicy bounds how often a structured call is reissued after its
// output fails to decode. Transport errors are never retried.
type RetryPolicy struct {
	MaxRetries       int
	RetryTemperature float32
}

// DefaultRetryPolicy allows a single retry at temperature 0.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 1, RetryTemperature: 0}
}

// Attempt issues one structured call at the given temperature.
type Attempt func(ctx context.Context, temperature float32) (string, error)

// Retry runs attempt at temperature, decoding with decode. When decode
// reports the output malformed, attempt is reissued at the policy's retry
// temperature up to MaxRetries times. It returns the decoded value, the raw
// text of the last attempt, and ErrMalformed or the attempt's own error.
func Retry[T any](ctx context.Context, p RetryPolicy, temperature float32, attempt Attempt, decode func(Value) (T, bool)) (T, string, error) {
	var zero T
	temp := temperature
	var raw string
	for i := 0; i <= p.MaxRetries; i++ {
		out, err := attempt(ctx, temp)
		if err != nil {
			return zero, raw, err
		}
		raw = out
		if v, ok := decode(Parse(out)); ok {
			return v, raw, nil
		}
		temp = p.RetryTemperature
	}
	return zero, raw, ErrMalformed
}

// RetryOnce is Retry with the default policy.
func RetryOnce[T any](ctx context.Context, temperature float32, attempt Attempt, decode func(Value) (T, bool)) (T, string, error) {
	return Retry(ctx, DefaultRetryPolicy(), temperature, attempt, decode)
}

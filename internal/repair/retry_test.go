package repair

import (
	"context"
	"errors"
	"testing"
)

func decodeEval(v Value) (EvaluationResult, bool) {
	r := DecodeEvaluation(v, fallbackScore)
	return r, r.Valid()
}

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	attempt := func(_ context.Context, temp float32) (string, error) {
		calls++
		if temp != 0.3 {
			t.Errorf("expected first attempt at 0.3, got %v", temp)
		}
		return `{"bullets":["a"]}`, nil
	}
	got, _, err := Retry(context.Background(), DefaultRetryPolicy(), 0.3, attempt, decodeEval)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || len(got.Bullets) != 1 {
		t.Errorf("expected 1 call and 1 bullet, got %d calls %+v", calls, got)
	}
}

func TestRetryOnceAtZeroTemperature(t *testing.T) {
	var temps []float32
	attempt := func(_ context.Context, temp float32) (string, error) {
		temps = append(temps, temp)
		if len(temps) == 1 {
			return "prose", nil
		}
		return `{"score":{"value":61}}`, nil
	}
	got, _, err := Retry(context.Background(), DefaultRetryPolicy(), 0.3, attempt, decodeEval)
	if err != nil {
		t.Fatal(err)
	}
	if len(temps) != 2 || temps[1] != 0 {
		t.Errorf("expected retry at temperature 0, got %v", temps)
	}
	if got.Score.Value != 61 {
		t.Errorf("expected score 61, got %d", got.Score.Value)
	}
}

func TestRetryGivesUpAfterOneRetry(t *testing.T) {
	calls := 0
	attempt := func(_ context.Context, _ float32) (string, error) {
		calls++
		return "- still prose", nil
	}
	_, raw, err := Retry(context.Background(), DefaultRetryPolicy(), 0.3, attempt, decodeEval)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if raw != "- still prose" {
		t.Errorf("expected last raw output, got %q", raw)
	}
}

func TestRetryDoesNotRetryTransportErrors(t *testing.T) {
	calls := 0
	boom := errors.New("connection refused")
	attempt := func(_ context.Context, _ float32) (string, error) {
		calls++
		return "", boom
	}
	_, _, err := Retry(context.Background(), DefaultRetryPolicy(), 0.3, attempt, decodeEval)
	if !errors.Is(err, boom) {
		t.Errorf("expected transport error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

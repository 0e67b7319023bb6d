package providers

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorType
	}{
		{errors.New("insufficient_quota: billing limit"), ErrorQuota},
		{errors.New("429 too many requests"), ErrorRate},
		{errors.New("context length exceeded"), ErrorContext},
		{errors.New("service temporarily unavailable"), ErrorTransient},
		{errors.New("model not found"), ErrorPermanent},
		{nil, ErrorType("")},
	}
	for _, tc := range cases {
		if got := ClassifyError(tc.err); got != tc.want {
			t.Fatalf("ClassifyError(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

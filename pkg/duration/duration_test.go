package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "45s", want: 45 * time.Second},
		{in: "15m", want: 15 * time.Minute},
		{in: "1h", want: time.Hour},
		{in: "1d", want: 24 * time.Hour},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: " 30m ", want: 30 * time.Minute},
		{in: "90m", want: 90 * time.Minute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []string{"", "  ", "abc", "7dd", "d", "1w", "-15m", "0s", "-3d", "0d", "1.5d"}

	for _, in := range tests {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(in)
			require.Error(t, err)
		})
	}
}

package xtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		exp    time.Duration
		expErr string
	}{
		{in: "30s", exp: 30 * time.Second},
		{in: "1h30m", exp: 90 * time.Minute},
		{in: "10d", exp: 10 * Day},
		{in: "-1.5w", exp: -(Week + Week/2)},
		{in: "3Y4M5d", exp: 3*Year + 4*Month + 5*Day},
		{in: "1d12h", exp: Day + 12*time.Hour},
		{in: "", expErr: `invalid duration ""`},
		{in: "soon", expErr: `invalid duration "soon"`},
		{in: "5x", expErr: `invalid duration "5x": time: unknown unit "x" in duration "5x"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDuration(tt.in)
			if tt.expErr != "" {
				require.EqualError(t, err, tt.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.exp, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d, round time.Duration
		exp      string
	}{
		{0, 0, "0s"},
		{30 * time.Second, 0, "30s"},
		{90 * time.Minute, 0, "1h30m"},
		{Week + 2*Day + 3*time.Hour, time.Hour, "1w2d3h"},
		{Week + 2*Day + 3*time.Hour, Day, "1w2d"},
		{-(Year + Month), time.Hour, "-1Y1M"},
		{1500 * time.Millisecond, 0, "1s500ms"},
	}

	for _, tt := range tests {
		t.Run(tt.exp, func(t *testing.T) {
			t.Parallel()

			got := FormatDuration(tt.d, tt.round)
			assert.Equal(t, tt.exp, got)

			back, err := ParseDuration(got)
			require.NoError(t, err)
			assert.Equal(t, tt.d.Round(max(tt.round, 1)), back)
		})
	}
}

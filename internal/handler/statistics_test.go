package handler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatisticsHandler_Clock(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fixed := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		opts []StatisticsOption
		want func(t *testing.T, got time.Time)
	}{
		{
			name: "defaults to wall clock",
			want: func(t *testing.T, got time.Time) {
				assert.WithinDuration(t, time.Now(), got, time.Minute)
			},
		},
		{
			name: "injected clock",
			opts: []StatisticsOption{WithStatisticsClock(func() time.Time { return fixed })},
			want: func(t *testing.T, got time.Time) {
				assert.Equal(t, fixed, got)
			},
		},
		{
			name: "nil clock ignored",
			opts: []StatisticsOption{WithStatisticsClock(nil)},
			want: func(t *testing.T, got time.Time) {
				assert.WithinDuration(t, time.Now(), got, time.Minute)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStatisticsHandler(nil, nil, logger, tt.opts...)
			require.NotNil(t, h.now)
			tt.want(t, h.now())
		})
	}
}

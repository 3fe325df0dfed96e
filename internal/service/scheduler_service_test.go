package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "08:30", want: "0 30 8 * * *"},
		{in: "00:05", want: "0 5 0 * * *"},
		{in: "23:59", want: "0 59 23 * * *"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "12", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScheduleDailyRejectsBadTime(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	_, err := s.ScheduleDaily("25:00", func() {})
	assert.Error(t, err)
}

func TestScheduleIntervalFires(t *testing.T) {
	s := NewSchedulerService(time.UTC)

	var mu sync.Mutex
	fired := 0
	_, err := s.ScheduleInterval(time.Second, func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired >= 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestScheduleIntervalRejectsNonPositive(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	_, err := s.ScheduleInterval(0, func() {})
	assert.Error(t, err)
}

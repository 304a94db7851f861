package engine

import (
	"sync"
	"testing"
	"time"

	"quickstory-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decisionScene() *models.Scene {
	return &models.Scene{
		ID:    "scene-1",
		Title: "Test Scene",
		Options: []models.Option{
			{ID: "opt-a", Text: "A", NextSceneID: "scene-2"},
			{ID: "opt-b", Text: "B", NextSceneID: "scene-3", IsDefault: true},
		},
	}
}

func endingScene() *models.Scene {
	return &models.Scene{
		ID:         "ending-1",
		IsEnding:   true,
		EndingType: models.EndingHappy,
	}
}

func TestCountdown_ExpiryFiresOnceWithDefaultOption(t *testing.T) {
	c := NewCountdown(100*time.Millisecond, 10*time.Millisecond, nil, nil)

	var mu sync.Mutex
	var fired []string
	c.Activate(decisionScene(), func(defaultOptionID string) {
		mu.Lock()
		fired = append(fired, defaultOptionID)
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) > 0
	}, time.Second, 5*time.Millisecond)

	// Даем таймеру шанс выстрелить повторно, если бы он не был edge-triggered
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, fired, 1)
	assert.Equal(t, "opt-b", fired[0], "должен прийти ID варианта с isDefault")
	assert.False(t, c.Active())
	assert.Zero(t, c.Remaining())
}

func TestCountdown_CancelPreventsExpiry(t *testing.T) {
	c := NewCountdown(50*time.Millisecond, 10*time.Millisecond, nil, nil)

	var mu sync.Mutex
	expired := false
	c.Activate(decisionScene(), func(string) {
		mu.Lock()
		expired = true
		mu.Unlock()
	})

	c.Cancel()
	assert.False(t, c.Active())

	time.Sleep(120 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, expired, "после Cancel onExpire вызываться не должен")
}

func TestCountdown_EndingSceneStaysIdle(t *testing.T) {
	c := NewCountdown(10*time.Second, 100*time.Millisecond, nil, nil)

	c.Activate(endingScene(), func(string) {
		t.Error("onExpire не должен вызываться для концовки")
	})

	assert.False(t, c.Active())
	assert.InDelta(t, 10.0, c.Remaining(), 0.001, "остаток сбрасывается на полную длительность")
}

func TestCountdown_ResetRestoresFullDuration(t *testing.T) {
	c := NewCountdown(200*time.Millisecond, 10*time.Millisecond, nil, nil)
	c.Activate(decisionScene(), func(string) {})

	// Ждем, пока остаток заметно уменьшится
	require.Eventually(t, func() bool {
		return c.Remaining() < 0.15
	}, time.Second, 5*time.Millisecond)

	c.Reset()
	assert.False(t, c.Active())
	assert.InDelta(t, 0.2, c.Remaining(), 0.001)
}

func TestCountdown_TicksReportNonIncreasingRemaining(t *testing.T) {
	var mu sync.Mutex
	var ticks []float64
	c := NewCountdown(100*time.Millisecond, 10*time.Millisecond, func(remaining float64) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}, nil)

	done := make(chan struct{})
	c.Activate(decisionScene(), func(string) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("таймер не истек")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, ticks)
	for i := 1; i < len(ticks); i++ {
		assert.LessOrEqual(t, ticks[i], ticks[i-1], "остаток не должен расти")
	}
	assert.Zero(t, ticks[len(ticks)-1], "последний тик приходит с нулевым остатком")
}

func TestCountdown_ReactivationSupersedesPreviousTimer(t *testing.T) {
	c := NewCountdown(60*time.Millisecond, 10*time.Millisecond, nil, nil)

	var mu sync.Mutex
	var fired []string

	record := func(id string) func(string) {
		return func(string) {
			mu.Lock()
			fired = append(fired, id)
			mu.Unlock()
		}
	}

	c.Activate(decisionScene(), record("first"))
	c.Activate(decisionScene(), record("second"))

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, fired, 1, "истечь должен только последний активированный отсчет")
	assert.Equal(t, "second", fired[0])
}

package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_SchedulesAndFires(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{})
	c := NewClock()
	c.Schedule(10*time.Millisecond, func(uint64) { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		assert.Fail(t, "clock never fired")
	}
}

func TestClock_RescheduleReplacesPrevious(t *testing.T) {
	t.Parallel()

	fired := make(chan string, 2)
	c := NewClock()
	c.Schedule(20*time.Millisecond, func(uint64) { fired <- "first" })
	c.Schedule(40*time.Millisecond, func(uint64) { fired <- "second" })

	select {
	case got := <-fired:
		assert.Equal(t, "second", got)
	case <-time.After(time.Second):
		assert.Fail(t, "clock never fired")
	}

	// The replaced timer must stay silent.
	select {
	case got := <-fired:
		assert.Fail(t, "stale timer fired", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClock_Stop(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 1)
	c := NewClock()
	c.Schedule(20*time.Millisecond, func(uint64) { fired <- struct{}{} })
	c.Stop()

	select {
	case <-fired:
		assert.Fail(t, "stopped clock fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestClock_StopWithoutSchedule(t *testing.T) {
	t.Parallel()
	NewClock().Stop()
}

func TestClock_GenerationStaleAfterStop(t *testing.T) {
	t.Parallel()

	fired := make(chan uint64, 1)
	c := NewClock()
	c.Schedule(time.Millisecond, func(gen uint64) { fired <- gen })

	var gen uint64
	select {
	case gen = <-fired:
	case <-time.After(time.Second):
		t.Fatal("clock never fired")
	}

	assert.True(t, c.Current(gen), "a fresh firing carries the live generation")
	c.Stop()
	assert.False(t, c.Current(gen), "stop invalidates a firing already in flight")
}

func TestClock_GenerationStaleAfterReschedule(t *testing.T) {
	t.Parallel()

	fired := make(chan uint64, 1)
	c := NewClock()
	c.Schedule(time.Millisecond, func(gen uint64) { fired <- gen })

	var gen uint64
	select {
	case gen = <-fired:
	case <-time.After(time.Second):
		t.Fatal("clock never fired")
	}

	c.Schedule(time.Hour, func(uint64) {})
	assert.False(t, c.Current(gen), "rearming invalidates the previous generation")
	c.Stop()
}

package searchtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tourscout/internal/search"
)

var start = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func TestFakeClock_FiresInDeadlineOrder(t *testing.T) {
	c := NewFakeClock(start)
	var order []string

	c.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	require.Equal(t, 3, c.Pending())

	c.Advance(2 * time.Second)
	require.Equal(t, []string{"a", "b"}, order)
	require.Equal(t, start.Add(2*time.Second), c.Now())

	c.Advance(time.Second)
	require.Equal(t, []string{"a", "b", "c"}, order)
	require.Zero(t, c.Pending())
}

func TestFakeClock_CallbackSeesDeadlineTime(t *testing.T) {
	c := NewFakeClock(start)
	var firedAt time.Time
	c.AfterFunc(time.Second, func() { firedAt = c.Now() })

	c.Advance(5 * time.Second)
	require.Equal(t, start.Add(time.Second), firedAt)
	require.Equal(t, start.Add(5*time.Second), c.Now())
}

func TestFakeClock_TimerArmedDuringAdvance(t *testing.T) {
	c := NewFakeClock(start)
	fired := 0
	c.AfterFunc(time.Second, func() {
		fired++
		c.AfterFunc(time.Second, func() { fired++ })
	})

	c.Advance(3 * time.Second)
	require.Equal(t, 2, fired)
}

func TestFakeClock_Stop(t *testing.T) {
	c := NewFakeClock(start)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	require.True(t, tm.Stop())
	require.False(t, tm.Stop())
	c.Advance(time.Hour)
	require.False(t, fired)

	ran := make(chan struct{})
	tm = c.AfterFunc(0, func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("zero delay timer did not fire")
	}
	require.False(t, tm.Stop(), "stop after firing reports false")
	require.Zero(t, c.Pending())
}

func TestFakeClock_NextDeadline(t *testing.T) {
	c := NewFakeClock(start)
	_, ok := c.NextDeadline()
	require.False(t, ok)

	c.AfterFunc(2*time.Second, func() {})
	c.AfterFunc(time.Second, func() {})
	d, ok := c.NextDeadline()
	require.True(t, ok)
	require.Equal(t, start.Add(time.Second), d)
}

func TestScriptedAPI_Defaults(t *testing.T) {
	api := NewScriptedAPI()
	ctx := context.Background()

	resp, err := api.StartSearch(ctx, search.Criteria{CountryID: "UA"})
	require.NoError(t, err)
	require.Equal(t, search.Token("auto-1"), resp.Token)

	_, err = api.PollSearch(ctx, resp.Token)
	require.ErrorIs(t, err, search.ErrNotReady)

	api.QueuePolls(resp.Token, PollResult{Err: ErrTransient}, PollResult{Results: search.ResultSet{}})
	_, err = api.PollSearch(ctx, resp.Token)
	require.ErrorIs(t, err, ErrTransient)
	rs, err := api.PollSearch(ctx, resp.Token)
	require.NoError(t, err)
	require.NotNil(t, rs)

	require.NoError(t, api.CancelSearch(ctx, resp.Token))
	api.SetCancelErr(errors.New("nope"))
	require.Error(t, api.CancelSearch(ctx, resp.Token))

	require.Equal(t, 1, api.Count("start", ""))
	require.Equal(t, 3, api.Count("poll", resp.Token))
	require.Equal(t, 2, api.Count("cancel", ""))
	require.Len(t, api.Calls(), 6)
}

func TestScriptedAPI_HoldCancels(t *testing.T) {
	api := NewScriptedAPI()
	release := api.HoldCancels()

	done := make(chan error, 1)
	go func() { done <- api.CancelSearch(context.Background(), "t1") }()

	select {
	case <-done:
		t.Fatal("cancel returned while held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	release()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("cancel still blocked after release")
	}
}

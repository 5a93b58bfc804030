package notify

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueKeepsInsertionOrder(t *testing.T) {
	q := NewQueue(time.Hour)
	defer q.Close()

	a := q.Success("saved")
	b := q.Error("failed")
	c := q.Info("fyi")

	list := q.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, KindError, list[1].Kind)
	assert.Equal(t, time.Hour, list[0].Duration)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRemoveIsIdempotent(t *testing.T) {
	q := NewQueue(time.Hour)
	defer q.Close()

	var changes int32
	q.OnChange(func() { atomic.AddInt32(&changes, 1) })

	tst := q.Warning("careful")
	assert.True(t, q.Remove(tst.ID))
	assert.False(t, q.Remove(tst.ID))
	assert.False(t, q.Remove("unknown"))
	assert.Empty(t, q.List())
	assert.EqualValues(t, 2, atomic.LoadInt32(&changes))
}

func TestToastsExpireIndependently(t *testing.T) {
	q := NewQueue(time.Hour)
	defer q.Close()

	q.Add(KindInfo, "short", 100*time.Millisecond)
	long := q.Add(KindInfo, "long", time.Hour)

	expired := make(chan struct{}, 1)
	q.OnChange(func() {
		select {
		case expired <- struct{}{}:
		default:
		}
	})

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("short toast never expired")
	}
	list := q.List()
	require.Len(t, list, 1)
	assert.Equal(t, long.ID, list[0].ID)
}

func TestCloseStopsTimers(t *testing.T) {
	q := NewQueue(10 * time.Millisecond)
	var changes int32
	q.Success("a")
	q.OnChange(func() { atomic.AddInt32(&changes, 1) })
	q.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&changes))
	assert.Empty(t, q.List())

	q.Info("after close")
	assert.Empty(t, q.List())
}

func TestDialogReleasesOnEveryCloseReason(t *testing.T) {
	for _, reason := range []CloseReason{CloseButton, CloseBackdrop, CloseEscape, CloseUnmount} {
		t.Run(reason.String(), func(t *testing.T) {
			var got []CloseReason
			d := NewDialog(func(r CloseReason) { got = append(got, r) })
			d.Open("Delete event")

			var order []string
			d.Acquire(func() { order = append(order, "keys") })
			d.Acquire(func() { order = append(order, "scroll") })

			assert.True(t, d.Close(reason))
			assert.False(t, d.Close(reason))
			assert.False(t, d.IsOpen())
			assert.Equal(t, []string{"scroll", "keys"}, order)
			assert.Equal(t, []CloseReason{reason}, got)
		})
	}
}

func TestDialogHandleKey(t *testing.T) {
	d := NewDialog(nil)
	assert.False(t, d.HandleKey("esc"))

	d.Open("Create event")
	released := false
	d.Acquire(func() { released = true })

	assert.True(t, d.HandleKey("j"))
	assert.True(t, d.IsOpen())
	assert.True(t, d.HandleKey("esc"))
	assert.False(t, d.IsOpen())
	assert.True(t, released)
}

func TestAcquireOnClosedDialogReleasesNow(t *testing.T) {
	d := NewDialog(nil)
	ran := false
	d.Acquire(func() { ran = true })
	assert.True(t, ran)
}

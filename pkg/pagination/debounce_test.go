package pagination

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidSchedules(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var fired atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		d.Schedule(func() {
			fired.Add(1)
			last.Store(int32(i))
		})
	}

	time.Sleep(120 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Errorf("callback fired %d times, want 1", got)
	}
	if got := last.Load(); got != 5 {
		t.Errorf("fired callback %d, want the last scheduled (5)", got)
	}
	if d.Pending() {
		t.Error("no task should be pending after firing")
	}
}

func TestDebouncer_SupersededTaskCannotCancel(t *testing.T) {
	d := NewDebouncer(time.Hour)
	defer d.Stop()

	first := d.Schedule(func() {})
	second := d.Schedule(func() {})

	if first.Cancel() {
		t.Error("superseded task should not cancel the newer one")
	}
	if !d.Pending() {
		t.Error("newer task should still be pending")
	}
	if !second.Cancel() {
		t.Error("current task should cancel")
	}
	if d.Pending() {
		t.Error("nothing should be pending after Cancel")
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var fired atomic.Bool
	d.Schedule(func() { fired.Store(true) })
	d.Stop()

	if task := d.Schedule(func() { fired.Store(true) }); task != nil {
		t.Error("Schedule after Stop should return nil")
	}

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("callback fired after Stop")
	}
}

func TestTask_CancelNil(t *testing.T) {
	var task *Task
	if task.Cancel() {
		t.Error("nil task Cancel should report false")
	}
}

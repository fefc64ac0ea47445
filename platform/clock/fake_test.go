package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFuncFiresInOrder(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	var order []int
	f.AfterFunc(200*time.Millisecond, func() { order = append(order, 2) })
	f.AfterFunc(100*time.Millisecond, func() { order = append(order, 1) })

	f.Advance(50 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("no timer should have fired yet, got %v", order)
	}

	f.Advance(200 * time.Millisecond)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected deadline order [1 2], got %v", order)
	}
}

func TestFakeStop(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	fired := false
	timer := f.AfterFunc(100*time.Millisecond, func() { fired = true })

	if !timer.Stop() {
		t.Error("first Stop should report true")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}

	f.Advance(time.Second)
	if fired {
		t.Error("stopped timer must not fire")
	}
}

func TestFakeCallbackCanReschedule(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	count := 0
	f.AfterFunc(100*time.Millisecond, func() {
		count++
		f.AfterFunc(100*time.Millisecond, func() { count++ })
	})

	f.Advance(250 * time.Millisecond)
	if count != 2 {
		t.Fatalf("expected chained timer to fire, count=%d", count)
	}
}

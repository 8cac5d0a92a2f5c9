package status

import (
	"errors"
	"reflect"
	"testing"
	"time"
	"unsafe"

	tele "gopkg.in/telebot.v4"
)

func floodErr(retryAfter int) error {
	// tele.FloodError's inner *tele.Error field is unexported, so it has to
	// be populated via reflection.
	f := tele.FloodError{RetryAfter: retryAfter}
	inner := reflect.ValueOf(&f).Elem().FieldByName("err")
	reflect.NewAt(inner.Type(), unsafe.Pointer(inner.UnsafeAddr())).Elem().
		Set(reflect.ValueOf(tele.NewError(429, "Too Many Requests: retry later")))
	return f
}

func testEditor(interval time.Duration) (*Editor, *[]string, *time.Time) {
	now := time.Unix(1000, 0)
	var edits []string

	e := &Editor{interval: interval}
	e.now = func() time.Time { return now }
	e.sleep = func(d time.Duration) { now = now.Add(d) }
	e.editFn = func(text string) error {
		edits = append(edits, text)
		return nil
	}
	return e, &edits, &now
}

func TestUpdateThrottles(t *testing.T) {
	e, edits, now := testEditor(15 * time.Second)

	e.Update("one")
	e.Update("two") // same instant, dropped
	if len(*edits) != 1 {
		t.Fatalf("expected 1 edit, got %d: %v", len(*edits), *edits)
	}

	*now = now.Add(5 * time.Second)
	e.Update("three") // still inside the interval
	if len(*edits) != 1 {
		t.Fatalf("expected throttled edit to be dropped, got %v", *edits)
	}

	*now = now.Add(11 * time.Second)
	e.Update("four")
	if len(*edits) != 2 || (*edits)[1] != "four" {
		t.Fatalf("expected edit after interval, got %v", *edits)
	}
}

func TestFinishBypassesThrottle(t *testing.T) {
	e, edits, _ := testEditor(15 * time.Second)

	e.Update("progress")
	e.Finish("done") // immediately after, must still go through
	if len(*edits) != 2 {
		t.Fatalf("expected 2 edits, got %v", *edits)
	}
}

func TestFloodWaitRetriesOnce(t *testing.T) {
	now := time.Unix(1000, 0)
	var slept time.Duration
	attempts := 0

	e := &Editor{interval: time.Second}
	e.now = func() time.Time { return now }
	e.sleep = func(d time.Duration) { slept += d }
	e.editFn = func(text string) error {
		attempts++
		if attempts == 1 {
			return floodErr(7)
		}
		return nil
	}

	e.Finish("text")

	if attempts != 2 {
		t.Errorf("expected exactly one retry, got %d attempts", attempts)
	}
	if slept != 7*time.Second {
		t.Errorf("expected 7s flood sleep, slept %v", slept)
	}
}

func TestFloodWaitGivesUpAfterSecondFailure(t *testing.T) {
	attempts := 0

	e := &Editor{interval: time.Second}
	e.now = func() time.Time { return time.Unix(1000, 0) }
	e.sleep = func(time.Duration) {}
	e.editFn = func(text string) error {
		attempts++
		return floodErr(1)
	}

	e.Finish("text")

	if attempts != 2 {
		t.Errorf("expected 2 attempts and no further retries, got %d", attempts)
	}
}

func TestNonFloodErrorIsNotRetried(t *testing.T) {
	attempts := 0

	e := &Editor{interval: time.Second}
	e.now = func() time.Time { return time.Unix(1000, 0) }
	e.sleep = func(time.Duration) {}
	e.editFn = func(text string) error {
		attempts++
		return errors.New("message is not modified")
	}

	e.Finish("text")

	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

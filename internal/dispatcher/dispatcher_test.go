package dispatcher

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bzplugins/airshot/pkg/bzapi"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	called := false
	d.Register(bzapi.TickEvent, "test", func(e bzapi.Event) {
		called = true
	})

	err := d.Dispatch(&bzapi.TickEventData{})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
}

func TestDispatcher_UnknownEvent(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.Dispatch(&bzapi.PlayerPartEventData{})

	if !errors.Is(err, ErrNoHandler) {
		t.Errorf("expected ErrNoHandler, got %v", err)
	}
}

func TestDispatcher_HandlerMutatesPayload(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(bzapi.PlayerDieEvent, "rewriter", func(e bzapi.Event) {
		e.(*bzapi.PlayerDieEventData).KillerID = 9
	})

	data := &bzapi.PlayerDieEventData{KillerID: bzapi.ServerPlayerID}
	if err := d.Dispatch(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data.KillerID != 9 {
		t.Errorf("expected killer 9, got %d", data.KillerID)
	}
}

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		d.Register(bzapi.TickEvent, name, func(e bzapi.Event) {
			order = append(order, name)
		})
	}

	d.Dispatch(&bzapi.TickEventData{})

	if fmt.Sprint(order) != "[first second third]" {
		t.Errorf("unexpected delivery order: %v", order)
	}
}

func TestDispatcher_ReRegisterReplaces(t *testing.T) {
	d, _ := newTestDispatcher(t)

	calls := 0
	d.Register(bzapi.TickEvent, "p", func(e bzapi.Event) { calls += 10 })
	d.Register(bzapi.TickEvent, "p", func(e bzapi.Event) { calls++ })

	d.Dispatch(&bzapi.TickEventData{})

	if calls != 1 {
		t.Errorf("expected only the replacement handler to run, calls=%d", calls)
	}
}

func TestDispatcher_Remove(t *testing.T) {
	d, _ := newTestDispatcher(t)

	calledA, calledB := false, false
	d.Register(bzapi.TickEvent, "a", func(e bzapi.Event) { calledA = true })
	d.Register(bzapi.TickEvent, "b", func(e bzapi.Event) { calledB = true })

	d.Remove(bzapi.TickEvent, "a")
	d.Dispatch(&bzapi.TickEventData{})

	if calledA {
		t.Error("removed handler was called")
	}
	if !calledB {
		t.Error("remaining handler was not called")
	}

	d.Remove(bzapi.TickEvent, "b")
	if d.HasHandler(bzapi.TickEvent) {
		t.Error("expected no handlers after removing all")
	}
}

func TestDispatcher_RemoveOwner(t *testing.T) {
	d, _ := newTestDispatcher(t)

	noop := func(e bzapi.Event) {}
	d.Register(bzapi.ShotFiredEvent, "plugin", noop)
	d.Register(bzapi.PlayerDieEvent, "plugin", noop)
	d.Register(bzapi.PlayerDieEvent, "other", noop)

	d.RemoveOwner("plugin")

	if d.HasHandler(bzapi.ShotFiredEvent) {
		t.Error("expected shot fired handler to be removed")
	}
	if !d.HasHandler(bzapi.PlayerDieEvent) {
		t.Error("expected other owner's handler to remain")
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(bzapi.TickEvent, "logged", func(e bzapi.Event) {}, Logged())

	d.Dispatch(&bzapi.TickEventData{})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) < 2 {
		t.Errorf("expected at least 2 log messages, got %d", len(logger.messages))
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(bzapi.ShotFiredEvent, "exists", func(e bzapi.Event) {})

	if !d.HasHandler(bzapi.ShotFiredEvent) {
		t.Error("expected handler to exist")
	}

	if d.HasHandler(bzapi.PlayerJoinEvent) {
		t.Error("expected handler to not exist")
	}
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"NewsRelay/internal/display"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/logging"
)

func newTestDispatcher(sender *recordingSender, ledger *memoryLedger, channels ...string) *Dispatcher {
	return NewDispatcher(DispatcherDeps{
		Sender:   sender,
		Ledger:   ledger,
		Policy:   display.DefaultPolicy{},
		Channels: channels,
		Poller:   "zh",
		Logger:   logging.Discard(),
	})
}

func TestDispatcherRecordsOnFirstSuccess(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{failures: map[string]string{"@b": ""}}
	ledger := newMemoryLedger()
	d := newTestDispatcher(sender, ledger, "@a", "@b")

	report := d.Deliver(context.Background(), domain.Article{ID: "c_1", Title: "One", Link: "http://x/c_1.htm"})

	if !report.Delivered() {
		t.Fatalf("expected delivered report: %+v", report)
	}
	if !ledger.contains("c_1") {
		t.Fatalf("identity must be recorded after the first success")
	}
	last, ok := report.Last()
	if !ok || last.Channel != "@b" || last.Delivered || last.StatusCode != 400 {
		t.Fatalf("unexpected last outcome %+v", last)
	}
	var te *domain.TransportError
	if !errors.As(last.Err, &te) {
		t.Fatalf("expected transport error in outcome, got %v", last.Err)
	}
}

func TestDispatcherAllChannelsFail(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{failures: map[string]string{"@a": "", "@b": ""}}
	ledger := newMemoryLedger()
	d := newTestDispatcher(sender, ledger, "@a", "@b")

	report := d.Deliver(context.Background(), domain.Article{ID: "c_1", Title: "One"})

	if report.Delivered() {
		t.Fatalf("expected undelivered report")
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("every channel must be attempted, got %d outcomes", len(report.Outcomes))
	}
	if ledger.contains("c_1") {
		t.Fatalf("identity must not be recorded without a success")
	}
}

func TestDispatcherRecordsOnce(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	ledger := newMemoryLedger()
	d := newTestDispatcher(sender, ledger, "@a", "@b", "@c")

	report := d.Deliver(context.Background(), domain.Article{ID: "c_1", Title: "One"})

	if len(report.Outcomes) != 3 || !report.Delivered() {
		t.Fatalf("unexpected report %+v", report)
	}
	if ledger.writes != 1 {
		t.Fatalf("expected a single ledger write, got %d", ledger.writes)
	}
}

func TestDispatcherNoChannels(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(&recordingSender{}, newMemoryLedger())
	report := d.Deliver(context.Background(), domain.Article{ID: "x"})
	if _, ok := report.Last(); ok || report.Delivered() {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

package verifier

import (
	"testing"
	"time"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
)

func TestProgressHubDeliversToSubscriber(t *testing.T) {
	hub := NewProgressHub()
	ch := hub.Subscribe("run-1")
	defer hub.Unsubscribe("run-1", ch)

	hub.Publish(model.ProgressEvent{RunID: "run-1", Stage: model.StageVerifying, Percent: 50})

	select {
	case event := <-ch:
		if event.Percent != 50 {
			t.Errorf("expected percent 50, got %d", event.Percent)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestProgressHubIsolatesRuns(t *testing.T) {
	hub := NewProgressHub()
	ch := hub.Subscribe("run-a")
	defer hub.Unsubscribe("run-a", ch)

	hub.Publish(model.ProgressEvent{RunID: "run-b", Stage: model.StageVerifying})

	select {
	case <-ch:
		t.Error("subscriber of run-a received an event for run-b")
	default:
	}
}

func TestProgressHubNonBlockingWhenSubscriberFull(t *testing.T) {
	hub := NewProgressHub()
	ch := hub.Subscribe("run-1")
	defer hub.Unsubscribe("run-1", ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBuffer*2; i++ {
			hub.Publish(model.ProgressEvent{RunID: "run-1", Stage: model.StageVerifying, TablesCompleted: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestProgressHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewProgressHub()
	ch := hub.Subscribe("run-1")
	hub.Unsubscribe("run-1", ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}

	// Publishing after the last unsubscribe must not panic.
	hub.Publish(model.ProgressEvent{RunID: "run-1", Stage: model.StageCompleted})
}

func TestProgressHubDropsEmptyRunID(t *testing.T) {
	hub := NewProgressHub()
	ch := hub.Subscribe("")
	defer hub.Unsubscribe("", ch)

	hub.Publish(model.ProgressEvent{Stage: model.StageVerifying})

	select {
	case <-ch:
		t.Error("events without a run id should be dropped")
	default:
	}
}

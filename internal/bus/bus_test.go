package bus

import (
	"testing"
	"time"
)

func recv(t *testing.T, ch Subscription) any {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("no message within a second")
		return nil
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	b := New()
	defer b.Close()

	sub := b.Subscribe(TopicNavSnapshot)
	defer b.Unsubscribe(sub)

	b.Publish(TopicNavSnapshot, "payload")
	if got := recv(t, sub); got != "payload" {
		t.Fatalf("got %v", got)
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	b := New()
	defer b.Close()

	nav := b.Subscribe(TopicNavSnapshot)
	warn := b.Subscribe(TopicWarnings)
	defer b.Unsubscribe(nav)
	defer b.Unsubscribe(warn)

	b.Publish(TopicWarnings, 42)
	if got := recv(t, warn); got != 42 {
		t.Fatalf("got %v", got)
	}
	select {
	case msg := <-nav:
		t.Fatalf("nav subscriber received %v from the warnings topic", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := New()
	defer b.Close()

	sub := b.Subscribe(TopicTargets)
	defer b.Unsubscribe(sub)

	// Far beyond the subscriber buffer; a blocking publish would hang here.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			b.Publish(TopicTargets, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}

package events

import "testing"

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus()

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Publish(Event{Name: EventReportCreated, Payload: "r1"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Name != EventReportCreated {
				t.Errorf("subscriber %d: got event %q, want %q", i, ev.Name, EventReportCreated)
			}
			if ev.Payload != "r1" {
				t.Errorf("subscriber %d: got payload %v, want r1", i, ev.Payload)
			}
		default:
			t.Errorf("subscriber %d: no event received", i)
		}
	}
}

func TestCancelledSubscriberReceivesNothing(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe()
	cancel()

	bus.Publish(Event{Name: EventReportDeleted, Payload: "gone"})

	// Channel is closed by cancel; a zero-value receive means nothing was sent
	if ev, ok := <-ch; ok {
		t.Errorf("expected closed channel, got event %v", ev)
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe()
	defer cancel()

	// Overfill the subscriber buffer; Publish must never block
	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Name: EventReportUpdated, Payload: i})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}

	if received != subscriberBuffer {
		t.Errorf("got %d buffered events, want %d", received, subscriberBuffer)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	bus := NewBus()

	_, cancel := bus.Subscribe()
	cancel()
	cancel() // must not panic on double close
}

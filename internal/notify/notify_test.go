package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"appointment-booking-api/internal/logging"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    []Message
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, m Message) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcherDelivers(t *testing.T) {
	s := &recordingSender{}
	d := NewDispatcher(s, logging.Discard(), Options{Workers: 2})

	for i := 0; i < 5; i++ {
		d.Notify(Message{To: "a@x.com", Subject: "hi", Body: "body"})
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s.count() != 5 {
		t.Errorf("expected 5 deliveries, got %d", s.count())
	}
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	s := &recordingSender{err: errors.New("relay down")}
	d := NewDispatcher(s, logging.Discard(), Options{Workers: 1})

	d.Notify(Message{To: "a@x.com"})
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s.count() != 1 {
		t.Errorf("expected one attempt, got %d", s.count())
	}
}

type panicSender struct{}

func (panicSender) Send(context.Context, Message) error { panic("boom") }

func TestDispatcherSurvivesPanic(t *testing.T) {
	d := NewDispatcher(panicSender{}, logging.Discard(), Options{Workers: 1})
	d.Notify(Message{To: "a@x.com"})
	d.Notify(Message{To: "b@x.com"})
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNotifyNeverBlocks(t *testing.T) {
	s := &recordingSender{started: make(chan struct{}, 4), release: make(chan struct{})}
	d := NewDispatcher(s, logging.Discard(), Options{Workers: 1, QueueSize: 1})

	d.Notify(Message{To: "first@x.com"})
	<-s.started // worker is now stuck in Send

	done := make(chan struct{})
	go func() {
		d.Notify(Message{To: "second@x.com"}) // fills the queue
		d.Notify(Message{To: "third@x.com"})  // dropped
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	close(s.release)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s.count() != 2 {
		t.Errorf("expected 2 deliveries, got %d", s.count())
	}
}

func TestNotifyAfterClose(t *testing.T) {
	s := &recordingSender{}
	d := NewDispatcher(s, logging.Discard(), Options{})
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	d.Notify(Message{To: "late@x.com"})
	// second close is fine
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("close again: %v", err)
	}
	if s.count() != 0 {
		t.Errorf("expected no deliveries, got %d", s.count())
	}
}

func TestCloseHonoursContext(t *testing.T) {
	s := &recordingSender{started: make(chan struct{}, 1), release: make(chan struct{})}
	d := NewDispatcher(s, logging.Discard(), Options{Workers: 1, Timeout: time.Minute})
	d.Notify(Message{To: "slow@x.com"})
	<-s.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	close(s.release)
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"to":"a@x.com","subject":"s","body":"b"}`, true},
		{"no recipient", `{"subject":"s"}`, false},
		{"garbage", `not json`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DecodeMessage([]byte(tt.body))
			if tt.ok && (err != nil || m.To != "a@x.com") {
				t.Fatalf("unexpected: %+v, %v", m, err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConsumerHandle(t *testing.T) {
	s := &recordingSender{}
	c := NewAMQPConsumer(AMQPConfig{Queue: "q"}, s, logging.Discard())

	if err := c.handle(context.Background(), []byte(`{"to":"a@x.com","subject":"s","body":"b"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := c.handle(context.Background(), []byte(`{}`)); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if s.count() != 1 {
		t.Errorf("expected 1 delivery, got %d", s.count())
	}
}

func TestSMTPRejectsMissingRecipient(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", Username: "noreply@x.com"})
	if err := s.Send(context.Background(), Message{Subject: "s", Body: "b"}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

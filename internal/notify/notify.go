// Package notify delivers email notifications off the request path.
//
// A Dispatcher owns a bounded queue and a few workers. Callers hand it a
// Message and return immediately; delivery outcome only reaches the log and
// the notifications counter. Nothing is retried.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"appointment-booking-api/internal/metrics"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender performs one delivery attempt.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type Options struct {
	Workers   int
	QueueSize int
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration
}

type Dispatcher struct {
	sender  Sender
	log     *logrus.Entry
	timeout time.Duration
	queue   chan Message

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(s Sender, log *logrus.Logger, opt Options) *Dispatcher {
	if opt.Workers <= 0 {
		opt.Workers = 2
	}
	if opt.QueueSize <= 0 {
		opt.QueueSize = 100
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	d := &Dispatcher{
		sender:  s,
		log:     log.WithField("component", "notify"),
		timeout: opt.Timeout,
		queue:   make(chan Message, opt.QueueSize),
	}
	for i := 0; i < opt.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Notify enqueues m without blocking. A full or closed queue drops the message.
func (d *Dispatcher) Notify(m Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(m, "dispatcher closed")
		return
	}
	select {
	case d.queue <- m:
	default:
		d.drop(m, "queue full")
	}
}

func (d *Dispatcher) drop(m Message, reason string) {
	metrics.RecordNotification(metrics.NotifyDropped)
	d.log.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject}).Warnf("email dropped: %s", reason)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for m := range d.queue {
		d.deliver(m)
	}
}

func (d *Dispatcher) deliver(m Message) {
	entry := d.log.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject})
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordNotification(metrics.NotifyFailed)
			entry.Errorf("email sender panic: %v", r)
		}
	}()

	// not derived from any request context
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, m); err != nil {
		metrics.RecordNotification(metrics.NotifyFailed)
		entry.WithError(err).Error("email error")
		return
	}
	metrics.RecordNotification(metrics.NotifySent)
	entry.Info("email sent")
}

// Close stops intake and waits for queued messages until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender only logs. Used when no relay is configured.
type LogSender struct {
	Log *logrus.Logger
}

func (s LogSender) Send(_ context.Context, m Message) error {
	s.Log.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject}).Infof("email (log only)\n%s", m.Body)
	return nil
}

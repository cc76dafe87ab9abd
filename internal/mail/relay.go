package mail

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cloudnotes/internal/metrics"
)

// ErrRelayClosed is returned by Submit before Start or after Shutdown.
var ErrRelayClosed = errors.New("mail relay is not running")

// ErrQueueFull is returned by Submit when the backlog is at capacity.
var ErrQueueFull = errors.New("mail queue is full")

// Relay delivers contact messages in the background. A failed delivery is logged and never
// reported back to the submitter.
type Relay interface {
	Start(ctx context.Context) error
	Shutdown()
	Submit(msg Message) error
}

type Config struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
	Logger      *logrus.Logger
	Metrics     *metrics.Metrics
}

type relay struct {
	cfg    Config
	sender Sender

	queue   chan Message
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	running bool
}

func NewRelay(cfg Config, sender Sender) Relay {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &relay{
		cfg:    cfg,
		sender: sender,
	}
}

func (r *relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("mail relay already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.queue = make(chan Message, r.cfg.QueueSize)
	r.running = true
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i, r.queue)
	}
	r.cfg.Logger.Infof("mail relay started, workers: %d", r.cfg.Workers)
	return nil
}

// Shutdown stops accepting messages and waits for queued ones to be delivered.
func (r *relay) Shutdown() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	r.cancel()
	r.cfg.Logger.Info("mail relay stopped")
}

func (r *relay) Submit(msg Message) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.running {
		return ErrRelayClosed
	}

	select {
	case r.queue <- msg:
		return nil
	default:
		r.cfg.Metrics.MailDelivery("dropped")
		r.cfg.Logger.WithField("from", msg.Email).Warn("mail queue full, contact message dropped")
		return ErrQueueFull
	}
}

func (r *relay) worker(id int, queue <-chan Message) {
	defer r.wg.Done()
	for msg := range queue {
		r.deliver(id, msg)
	}
}

func (r *relay) deliver(worker int, msg Message) {
	ctx, cancel := context.WithTimeout(r.ctx, r.cfg.SendTimeout)
	defer cancel()

	entry := r.cfg.Logger.WithFields(logrus.Fields{
		"worker": worker,
		"from":   msg.Email,
	})
	if err := r.sender.Send(ctx, msg); err != nil {
		r.cfg.Metrics.MailDelivery("failed")
		entry.WithError(err).Error("contact mail delivery failed")
		return
	}
	r.cfg.Metrics.MailDelivery("sent")
	entry.Info("contact mail delivered")
}

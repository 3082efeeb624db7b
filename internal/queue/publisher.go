package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/user-account-service/internal/logging"
)

// ErrBufferFull is returned by AsyncPublisher when events arrive faster than
// the broker accepts them.
var ErrBufferFull = errors.New("event buffer full")

// AccountEventPublisher is implemented by Publisher and AsyncPublisher.
type AccountEventPublisher interface {
	PublishAccountRegistered(ctx context.Context, ev AccountRegisteredEvent) error
}

// Publisher publishes account events to a durable RabbitMQ queue.  The
// connection and channel are reused across publishes and re-dialled after
// any failure.
type Publisher struct {
	URL         string
	Queue       string
	DialTimeout time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, queue string) *Publisher {
	return &Publisher{URL: url, Queue: queue, DialTimeout: 2 * time.Second}
}

// PublishAccountRegistered publishes ev as a persistent JSON message.
func (p *Publisher) PublishAccountRegistered(ctx context.Context, ev AccountRegisteredEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         "account.registered",
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// channel returns the cached channel, dialling and declaring the queue when
// there is none.  The queue is declared on every new connection so the
// consumer may start later.  Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.DialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		p.Queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the cached connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// AsyncPublisher takes events off the request path: PublishAccountRegistered
// only enqueues, and Run forwards the queue to the wrapped publisher.
type AsyncPublisher struct {
	next    AccountEventPublisher
	events  chan AccountRegisteredEvent
	timeout time.Duration
	log     logging.Logger
}

// NewAsyncPublisher buffers up to size events in front of next.
func NewAsyncPublisher(next AccountEventPublisher, size int, log logging.Logger) *AsyncPublisher {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = logging.Discard()
	}
	return &AsyncPublisher{
		next:    next,
		events:  make(chan AccountRegisteredEvent, size),
		timeout: 5 * time.Second,
		log:     log,
	}
}

// PublishAccountRegistered enqueues ev without blocking.  It returns
// ErrBufferFull when the buffer has no room.
func (a *AsyncPublisher) PublishAccountRegistered(_ context.Context, ev AccountRegisteredEvent) error {
	select {
	case a.events <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

// Run forwards buffered events until ctx is cancelled.  Failures are logged
// and the event is dropped.
func (a *AsyncPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.events:
			pubCtx, cancel := context.WithTimeout(ctx, a.timeout)
			if err := a.next.PublishAccountRegistered(pubCtx, ev); err != nil {
				a.log.Warn(ctx, "publish account.registered failed", "account_id", ev.AccountID, "err", err)
			}
			cancel()
		}
	}
}

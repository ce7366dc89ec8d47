package control

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/sususave/go-offline/logger"
)

var tracer = otel.Tracer("sususave/go-offline/control")

var propagator = propagation.TraceContext{}

// DefaultSubject is the pub/sub channel control commands travel on.
const DefaultSubject = "sususave.worker.control"

// Headers carries envelope metadata, including propagated trace context.
type Headers map[string]string

func (h Headers) Get(key string) string { return h[key] }

func (h Headers) Set(key, value string) { h[key] = value }

func (h Headers) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

// envelope is the wire format on the bus: the JSON command wrapped with
// headers for trace propagation.
type envelope struct {
	Data    []byte  `msgpack:"data"`
	Headers Headers `msgpack:"headers"`
}

// Handler receives each decoded command. Errors are logged, not
// redelivered: the bus is plain pub/sub with no replay.
type Handler func(ctx context.Context, cmd Command) error

// Bus delivers control commands over Redis pub/sub. A worker that is not
// subscribed at publish time simply misses the command, matching the
// fire-and-forget contract of the page-side message port.
type Bus struct {
	rdb     *redis.Client
	subject string
	logger  logger.Logger
}

// NewBus returns a Bus on the given Redis client and subject. An empty
// subject uses DefaultSubject.
func NewBus(rdb *redis.Client, subject string, log logger.Logger) *Bus {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Bus{
		rdb:     rdb,
		subject: subject,
		logger:  log.WithPrefix("[control]"),
	}
}

// Publish sends one command to every currently subscribed worker.
func (b *Bus) Publish(ctx context.Context, cmd Command) error {
	data, err := Encode(cmd)
	if err != nil {
		return err
	}
	env := envelope{Data: data, Headers: make(Headers)}
	propagator.Inject(ctx, env.Headers)

	spanCtx, span := tracer.Start(ctx, "control.Publish", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	payload, err := msgpack.Marshal(env)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return errors.Wrap(err, "marshaling control envelope")
	}
	if err := b.rdb.Publish(spanCtx, b.subject, payload).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return errors.Wrap(err, "publishing control command")
	}
	span.SetStatus(codes.Ok, "command published")
	return nil
}

// Subscriber is a live subscription; Close stops delivery.
type Subscriber interface {
	Close() error
}

type busSubscriber struct {
	pubsub *redis.PubSub
}

func (s *busSubscriber) Close() error {
	return s.pubsub.Close()
}

// Subscribe starts delivering commands to handler until ctx is done or
// the subscriber is closed. Malformed payloads and handler errors are
// logged and dropped.
func (b *Bus) Subscribe(ctx context.Context, handler Handler) (Subscriber, error) {
	pubsub := b.rdb.Subscribe(ctx, b.subject)
	// Force the subscription to be established before returning, so a
	// command published right after Subscribe is not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "subscribing to control subject")
	}

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.deliver(ctx, []byte(msg.Payload), handler)
			}
		}
	}()

	return &busSubscriber{pubsub: pubsub}, nil
}

func (b *Bus) deliver(ctx context.Context, payload []byte, handler Handler) {
	var env envelope
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		b.logger.Error("failed to decode control envelope: %v", err)
		return
	}

	spanCtx, span := tracer.Start(
		propagator.Extract(ctx, env.Headers),
		"control.Deliver",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	cmd, err := Decode(env.Data)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		b.logger.Error("failed to decode control command: %v", err)
		return
	}
	if err := handler(spanCtx, cmd); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		b.logger.Error("control command %s failed: %v", cmd.Type, err)
		return
	}
	span.SetStatus(codes.Ok, "command handled")
}

package hcs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/status"
)

const defaultSubscriptionBuffer = 64

// ErrSubscriptionClosed is returned by WaitForMessage once the stream ends.
var ErrSubscriptionClosed = errors.New("topic subscription closed")

// messageSource starts a push stream and returns the function that stops it.
type messageSource func(onMessage func(hedera.TopicMessage), onError func(error)) (func(), error)

type event struct {
	message hedera.TopicMessage
	err     error
}

// Subscription is a live stream of topic messages. Stream subscriptions
// expose Messages and Errors; callback subscriptions (SubscribeFunc) invoke
// their handlers instead and deliver nothing on either channel.
type Subscription struct {
	topicID hedera.TopicID
	codec   Codec
	logger  zerolog.Logger

	inbox    chan event
	messages chan Message
	errors   chan error
	stop     chan struct{}
	done     chan struct{}

	onMessage func(Message)
	onError   func(error)

	mu      sync.Mutex
	stopped bool

	stopOnce     sync.Once
	cancelSource func()
}

// Subscribe opens a stream of topicID's messages in consensus order. The
// stream keeps running after delivery faults, which are reported on
// Errors. Cancelling ctx unsubscribes.
func Subscribe(
	ctx context.Context,
	session *ledger.Session,
	topicID hedera.TopicID,
	options SubscribeOptions,
) (*Subscription, error) {
	source, err := sdkSource(session, topicID, options)
	if err != nil {
		return nil, err
	}
	return subscribe(ctx, source, topicID, options, nil, nil)
}

// SubscribeFunc is the callback form of Subscribe. Handlers run on a single
// goroutine in delivery order. onError may be nil.
func SubscribeFunc(
	ctx context.Context,
	session *ledger.Session,
	topicID hedera.TopicID,
	onError func(error),
	onMessage func(Message),
	options SubscribeOptions,
) (*Subscription, error) {
	if onMessage == nil {
		return nil, fmt.Errorf("message handler is required")
	}
	source, err := sdkSource(session, topicID, options)
	if err != nil {
		return nil, err
	}
	return subscribe(ctx, source, topicID, options, onMessage, onError)
}

func sdkSource(session *ledger.Session, topicID hedera.TopicID, options SubscribeOptions) (messageSource, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}

	startTime := options.StartTime
	if startTime.IsZero() {
		startTime = time.Unix(0, 0)
	}

	return func(onMessage func(hedera.TopicMessage), onError func(error)) (func(), error) {
		query := hedera.NewTopicMessageQuery().
			SetTopicID(topicID).
			SetStartTime(startTime).
			SetErrorHandler(func(stat status.Status) {
				onError(fmt.Errorf("topic subscription fault: %w", stat.Err()))
			})
		if options.Limit > 0 {
			query.SetLimit(options.Limit)
		}

		handle, err := query.Subscribe(session.Client(), onMessage)
		if err != nil {
			return nil, ledger.Rejection("subscribe to topic", err)
		}
		return handle.Unsubscribe, nil
	}, nil
}

func subscribe(
	ctx context.Context,
	source messageSource,
	topicID hedera.TopicID,
	options SubscribeOptions,
	onMessage func(Message),
	onError func(error),
) (*Subscription, error) {
	if onMessage != nil && onError == nil {
		onError = func(error) {}
	}
	buffer := options.Buffer
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}
	logger := zerolog.Nop()
	if options.Logger != nil {
		logger = *options.Logger
	}

	sub := &Subscription{
		topicID:   topicID,
		codec:     options.Codec,
		logger:    logger.With().Str("topic_id", topicID.String()).Logger(),
		inbox:     make(chan event, buffer),
		messages:  make(chan Message),
		errors:    make(chan error),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		onMessage: onMessage,
		onError:   onError,
	}

	cancelSource, err := source(sub.push, sub.pushError)
	if err != nil {
		return nil, err
	}
	sub.cancelSource = cancelSource

	go sub.dispatch()
	go func() {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
		case <-sub.stop:
		}
	}()

	sub.logger.Debug().Msg("topic subscription started")
	return sub, nil
}

func (s *Subscription) TopicID() hedera.TopicID {
	return s.topicID
}

// Messages is closed once the subscription has stopped.
func (s *Subscription) Messages() <-chan Message {
	return s.messages
}

// Errors carries delivery faults. It is closed together with Messages.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Done is closed when the dispatcher has exited and no handler is running.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe stops the stream. It is idempotent and safe to call from a
// handler. Stream subscriptions have fully drained when it returns. For
// callback subscriptions it does not wait: a handler invocation admitted
// before the call, including one that has not yet started running, may
// still run once. Wait on Done to be sure no handler is running or will run.
func (s *Subscription) Unsubscribe() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		close(s.stop)
		if s.cancelSource != nil {
			s.cancelSource()
		}
		s.logger.Debug().Msg("topic subscription stopped")
	})

	if s.onMessage == nil {
		<-s.done
	}
}

func (s *Subscription) push(message hedera.TopicMessage) {
	select {
	case s.inbox <- event{message: message}:
	case <-s.stop:
	}
}

func (s *Subscription) pushError(err error) {
	select {
	case s.inbox <- event{err: err}:
	case <-s.stop:
	}
}

func (s *Subscription) dispatch() {
	defer close(s.done)
	defer close(s.errors)
	defer close(s.messages)

	for {
		select {
		case <-s.stop:
			return
		case ev := <-s.inbox:
			if ev.err != nil {
				if !s.deliverError(ev.err) {
					return
				}
				continue
			}

			message, err := s.decode(ev.message)
			if err != nil {
				if !s.deliverError(err) {
					return
				}
				continue
			}
			if !s.deliverMessage(message) {
				return
			}
		}
	}
}

func (s *Subscription) decode(raw hedera.TopicMessage) (Message, error) {
	contents, err := s.codec.Decode(raw.Contents)
	if err != nil {
		return Message{}, fmt.Errorf("message %d: %w", raw.SequenceNumber, err)
	}
	return Message{
		TopicID:       s.topicID,
		Sequence:      raw.SequenceNumber,
		ConsensusTime: raw.ConsensusTimestamp,
		Contents:      contents,
	}, nil
}

func (s *Subscription) deliverMessage(message Message) bool {
	if s.onMessage != nil {
		if !s.begin() {
			return false
		}
		s.onMessage(message)
		return true
	}

	select {
	case s.messages <- message:
		return true
	case <-s.stop:
		return false
	}
}

func (s *Subscription) deliverError(err error) bool {
	s.logger.Warn().Err(err).Msg("topic subscription fault")

	if s.onMessage != nil {
		if !s.begin() {
			return false
		}
		s.onError(err)
		return true
	}

	select {
	case s.errors <- err:
		return true
	case <-s.stop:
		return false
	}
}

// begin reports whether a handler may start. The check and the handler call
// are not atomic with respect to Unsubscribe.
func (s *Subscription) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped
}

// WaitForMessage reads a stream subscription until match accepts a message.
// Faults seen along the way are returned only if ctx ends first.
func WaitForMessage(ctx context.Context, sub *Subscription, match func(Message) bool) (Message, error) {
	if sub == nil {
		return Message{}, fmt.Errorf("subscription is required")
	}

	var lastFault error
	errs := sub.Errors()
	for {
		select {
		case <-ctx.Done():
			if lastFault != nil {
				return Message{}, fmt.Errorf("%w (last fault: %v)", ctx.Err(), lastFault)
			}
			return Message{}, ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			lastFault = err
		case message, ok := <-sub.Messages():
			if !ok {
				return Message{}, ErrSubscriptionClosed
			}
			if match == nil || match(message) {
				return message, nil
			}
		}
	}
}

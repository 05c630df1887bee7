package eventstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// SubAllConfig (configure using SubAllOpt)
type SubAllConfig struct {
	offset       uint64
	batchSize    int
	pollInterval time.Duration
}

// SubAllOpt represents subscribe to all events option
type SubAllOpt func(SubAllConfig) SubAllConfig

// WithOffset is a subscription / read all option that indicates the sequence
// number in the event store after which to start reading events (exclusive)
func WithOffset(offset uint64) SubAllOpt {
	return func(cfg SubAllConfig) SubAllConfig {
		cfg.offset = offset

		return cfg
	}
}

// WithBatchSize is a subscription/read all option that specifies the read
// batch size (limit) when reading events from the event store
func WithBatchSize(size int) SubAllOpt {
	return func(cfg SubAllConfig) SubAllConfig {
		cfg.batchSize = size

		return cfg
	}
}

// WithPollInterval is a subscription/read all option that specifies the polling
// interval of the underlying database
func WithPollInterval(d time.Duration) SubAllOpt {
	return func(cfg SubAllConfig) SubAllConfig {
		cfg.pollInterval = d

		return cfg
	}
}

// Subscription represents SubscribeAll subscription that is used for streaming
// incoming events
type Subscription struct {
	// Err chan will produce any errors that might occur while reading events
	// If Err produces io.EOF error, that indicates that we have caught up
	// with the event store and that there are no more events to read after which
	// the subscription itself will continue polling the event store for new events
	// each time we empty the Err channel. This means that reading from Err (in
	// case of io.EOF) can be strategically used in order to achieve backpressure
	Err       chan error
	EventData chan StoredEvent

	close chan struct{}
}

// Close closes the subscription and halts the polling of the database
func (s Subscription) Close() {
	if s.close == nil {
		return
	}

	select {
	case s.close <- struct{}{}:
	default:
	}
}

// finish replaces a pending, unread io.EOF with the terminal error
func (s Subscription) finish(err error) {
	select {
	case <-s.Err:
	default:
	}

	s.Err <- err
}

// ReadAll will read all events from the event store by internally creating a
// a subscription and depleting it until io.EOF is encountered
// WARNING: Use with caution as this method will read the entire event store
// in a blocking fashion (probably best used in combination with offset option)
func (es *EventStore) ReadAll(ctx context.Context, opts ...SubAllOpt) ([]StoredEvent, error) {
	sub, err := es.SubscribeAll(ctx, opts...)
	if err != nil {
		return nil, err
	}

	defer sub.Close()

	var events []StoredEvent

	for {
		select {
		case data := <-sub.EventData:
			events = append(events, data)

		case err := <-sub.Err:
			if errors.Is(err, io.EOF) {
				// drain whatever was buffered before catching up
				for len(sub.EventData) > 0 {
					events = append(events, <-sub.EventData)
				}

				return events, nil
			}

			return nil, err
		}
	}
}

// SubscribeAll will create a subscription which can be used to stream all events
// across all account streams in sequence order. It is what projections are built on.
func (es *EventStore) SubscribeAll(ctx context.Context, opts ...SubAllOpt) (Subscription, error) {
	cfg := SubAllConfig{
		offset:       0,
		batchSize:    100,
		pollInterval: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		cfg = opt(cfg)
	}

	if cfg.batchSize < 1 {
		return Subscription{}, fmt.Errorf("batch size should be at least 1")
	}

	sub := Subscription{
		Err:       make(chan error, 1),
		EventData: make(chan StoredEvent, cfg.batchSize),
		close:     make(chan struct{}, 1),
	}

	go es.poll(ctx, sub, cfg)

	return sub, nil
}

func (es *EventStore) poll(ctx context.Context, sub Subscription, cfg SubAllConfig) {
	var done error

	for {
		select {
		case <-sub.close:
			sub.finish(ErrSubscriptionClosedByClient)

			return

		case <-ctx.Done():
			sub.finish(ctx.Err())

			return

		case <-time.After(cfg.pollInterval):
			// Make sure client reads all buffered events
			if done != nil {
				if len(sub.EventData) != 0 {
					break
				}

				sub.finish(done)

				return
			}

			var evts []gormEvent

			if err := es.db.
				WithContext(ctx).
				Where("sequence > ?", cfg.offset).
				Order("sequence asc").
				Limit(cfg.batchSize).
				Find(&evts).Error; err != nil {
				done = err

				break
			}

			if len(evts) == 0 {
				select {
				case sub.Err <- io.EOF:
				case <-sub.close:
					sub.finish(ErrSubscriptionClosedByClient)

					return
				case <-ctx.Done():
					sub.finish(ctx.Err())

					return
				}

				break
			}

			cfg.offset = evts[len(evts)-1].Sequence

			decoded, err := es.decodeEvents(evts)
			if err != nil {
				done = err

				break
			}

			for _, evt := range decoded {
				sub.EventData <- evt
			}
		}
	}
}

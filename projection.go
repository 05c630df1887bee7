package eventstore

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventStreamer represents an event stream that can be subscribed to
// This package offers EventStore as EventStreamer implementation
type EventStreamer interface {
	SubscribeAll(context.Context, ...SubAllOpt) (Subscription, error)
}

// Projection represents a projection that should be able to handle
// projected events
type Projection func(StoredEvent) error

// ProjectorOption configures a Projector
type ProjectorOption func(*Projector)

// WithLogger sets the projector logger (discards logs by default)
func WithLogger(logger zerolog.Logger) ProjectorOption {
	return func(p *Projector) {
		p.logger = logger
	}
}

// WithSubscriptionOpts sets the options used for every subscription the projector opens
func WithSubscriptionOpts(opts ...SubAllOpt) ProjectorOption {
	return func(p *Projector) {
		p.subOpts = opts
	}
}

// WithRetryBackoff sets the wait before resubscribing a failed projection.
// The wait starts at minWait and doubles on every consecutive failure up to maxWait.
func WithRetryBackoff(minWait, maxWait time.Duration) ProjectorOption {
	return func(p *Projector) {
		p.minBackoff = minWait
		p.maxBackoff = maxWait
	}
}

// NewProjector constructs a Projector
func NewProjector(s EventStreamer, opts ...ProjectorOption) *Projector {
	p := Projector{
		streamer:   s,
		logger:     zerolog.Nop(),
		minBackoff: 100 * time.Millisecond,
		maxBackoff: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return &p
}

// Projector is an event projector which will subscribe to an
// event stream (event store) and project events to each
// individual projection in an asynchronous manner
type Projector struct {
	streamer    EventStreamer
	projections []Projection
	subOpts     []SubAllOpt
	logger      zerolog.Logger
	minBackoff  time.Duration
	maxBackoff  time.Duration
}

// Add effectively registers a projection with the projector
// Make sure to add all of your projections before calling Run
func (p *Projector) Add(projections ...Projection) {
	p.projections = append(p.projections, projections...)
}

// Run will start the projector and block until every projection is done
// or ctx is canceled.
// A projection that errors out is resubscribed with the configured
// subscription options, which without WithOffset means from the start of the
// store, so projections should tolerate already seen events. Resubscribing
// waits for an exponential backoff (see WithRetryBackoff) which is never reset,
// so an event that always fails is retried at most once per max backoff.
func (p *Projector) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	for i, projection := range p.projections {
		wg.Add(1)

		go func(i int, projection Projection) {
			defer wg.Done()

			logger := p.logger.With().Int("projection", i).Logger()

			backoff := p.minBackoff

			for {
				sub, err := p.streamer.SubscribeAll(ctx, p.subOpts...)
				if err != nil {
					logger.Error().Err(err).Msg("projector could not subscribe")

					return
				}

				err = p.run(ctx, logger, sub, projection)

				sub.Close()

				if err != nil {
					logger.Warn().
						Err(err).
						Dur("backoff", backoff).
						Msg("projection failed, resubscribing")

					select {
					case <-time.After(backoff):
					case <-ctx.Done():
						return
					}

					backoff = min(backoff*2, p.maxBackoff)

					continue
				}

				return
			}
		}(i, projection)
	}

	wg.Wait()

	return nil
}

func (p *Projector) run(ctx context.Context, logger zerolog.Logger, sub Subscription, projection Projection) error {
	for {
		select {
		case data := <-sub.EventData:
			err := projection(data)
			if err != nil {
				return err
			}

		case err := <-sub.Err:
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}

				if errors.Is(err, ErrSubscriptionClosedByClient) {
					return nil
				}

				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}

				logger.Error().Err(err).Msg("subscription error")
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// FlushAfter wraps the projection passed in and it calls
// the projection itself as new events come (as usual) in addition to calling
// the provided flush function periodically each time flush interval expires
func FlushAfter(
	p Projection,
	flush func() error,
	flushInt time.Duration) Projection {
	var (
		mu  sync.Mutex
		err error
	)

	setErr := func(e error) {
		mu.Lock()
		defer mu.Unlock()

		if e != nil {
			err = e
		}
	}

	work := make(chan StoredEvent)

	go func() {
		for {
			select {
			case <-time.After(flushInt):
				setErr(flush())

			case w := <-work:
				setErr(p(w))
			}
		}
	}()

	return func(data StoredEvent) error {
		mu.Lock()
		e := err
		mu.Unlock()

		if e != nil {
			return e
		}

		work <- data

		return nil
	}
}

// Package eventstore persists account event streams in sqlite or postgres
// and streams them back for replay and projections.
// Each account is a stream, identified by the account id, and every event
// appended to it gets the next stream version and a global sequence number.
package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrStreamNotFound indicates that the requested stream does not exist in the event store
	ErrStreamNotFound = errors.New("stream not found")

	// ErrConcurrencyCheckFailed indicates that stream entry related to a particular version already exists
	ErrConcurrencyCheckFailed = errors.New("optimistic concurrency check failed: stream version exists")

	// ErrSubscriptionClosedByClient is produced by sub.Err if client cancels the subscription using sub.Close()
	ErrSubscriptionClosedByClient = errors.New("subscription closed by client")
)

const (
	// InitialStreamVersion can be used as an initial expectedVer for
	// new streams (as an argument to AppendStream)
	InitialStreamVersion int = 0
)

// EncodedEvt represents encoded event used by a specific encoder implementation
type EncodedEvt struct {
	Data string
	Type string
}

// Encoder is used by the event store in order to correctly marshal
// and unmarshal event types
type Encoder interface {
	Encode(any) (*EncodedEvt, error)
	Decode(*EncodedEvt) (any, error)
}

// Cfg represents event store configuration
type Cfg struct {
	PostgresDSN string
	SQLitePath  string
}

// Option represents event store configuration option
type Option func(Cfg) Cfg

// WithPostgresDB configures the event store to use postgres (pgx driver)
// as a backing storage
func WithPostgresDB(dsn string) Option {
	return func(cfg Cfg) Cfg {
		cfg.PostgresDSN = dsn

		return cfg
	}
}

// WithSQLiteDB configures the event store to use sqlite as a backing storage.
// path is either a file path or an sqlite uri eg. file::memory:?cache=shared
func WithSQLiteDB(path string) Option {
	return func(cfg Cfg) Cfg {
		cfg.SQLitePath = path

		return cfg
	}
}

// New constructs a new event store. Exactly one of the backing storage
// options needs to be provided, postgres wins if both are.
func New(enc Encoder, opts ...Option) (*EventStore, error) {
	if enc == nil {
		return nil, fmt.Errorf("encoder implementation must be provided")
	}

	var cfg Cfg

	for _, opt := range opts {
		cfg = opt(cfg)
	}

	var dial gorm.Dialector

	switch {
	case cfg.PostgresDSN != "":
		dial = postgres.Open(cfg.PostgresDSN)
	case cfg.SQLitePath != "":
		dial = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("either postgres dsn or sqlite path must be provided")
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}

	if err := db.AutoMigrate(&gormEvent{}); err != nil {
		return nil, fmt.Errorf("migrate event store: %w", err)
	}

	return &EventStore{
		db:  db,
		enc: enc,
	}, nil
}

// EventStore represents a gorm backed event store implementation
type EventStore struct {
	db  *gorm.DB
	enc Encoder
}

// Close should be called as a part of cleanup process
// in order to close the underlying sql connection
func (es *EventStore) Close() error {
	sqlDB, err := es.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

type gormEvent struct {
	ID                 string `gorm:"unique"`
	Sequence           uint64 `gorm:"autoIncrement;primaryKey"`
	Type               string
	Data               string
	Meta               *string
	CausationEventID   *string
	CorrelationEventID *string
	StreamID           string `gorm:"index:idx_optimistic_check,unique;index"`
	StreamVersion      int    `gorm:"index:idx_optimistic_check,unique"`
	OccurredOn         time.Time
}

// TableName returns gorm table name
func (ge *gormEvent) TableName() string { return "account_event" }

// AppendStream encodes events and appends them to stream, creating it if needed.
// expectedVer must be InitialStreamVersion for new streams and the latest
// stream version for existing ones. An optimistic concurrency check is performed
// on (stream, version) and ErrConcurrencyCheckFailed is returned if it fails.
func (es *EventStore) AppendStream(
	ctx context.Context,
	stream string,
	expectedVer int,
	events []EventToStore) error {

	if len(stream) == 0 {
		return fmt.Errorf("stream name must be provided")
	}

	if expectedVer < InitialStreamVersion {
		return fmt.Errorf("expected version cannot be less than 0")
	}

	if len(events) == 0 {
		return fmt.Errorf("at least one event must be provided")
	}

	eventsToSave := make([]gormEvent, len(events))

	for i, evt := range events {
		event, err := es.toGormEvent(stream, expectedVer+i+1, evt)
		if err != nil {
			return err
		}

		eventsToSave[i] = event
	}

	err := es.db.WithContext(ctx).Create(&eventsToSave).Error
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error

	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrConcurrencyCheckFailed
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConcurrencyCheckFailed
	}

	return fmt.Errorf("append stream %s: %w", stream, err)
}

func (es *EventStore) toGormEvent(stream string, ver int, evt EventToStore) (gormEvent, error) {
	encoded, err := es.enc.Encode(evt.Event)
	if err != nil {
		return gormEvent{}, fmt.Errorf("encode %T: %w", evt.Event, err)
	}

	event := gormEvent{
		ID:            evt.ID,
		Type:          encoded.Type,
		Data:          encoded.Data,
		StreamID:      stream,
		StreamVersion: ver,
		OccurredOn:    evt.OccurredOn.UTC(),
	}

	if evt.CorrelationEventID != "" {
		event.CorrelationEventID = &evt.CorrelationEventID
	}

	if evt.CausationEventID != "" {
		event.CausationEventID = &evt.CausationEventID
	}

	if evt.Meta != nil {
		m, err := json.Marshal(evt.Meta)
		if err != nil {
			return gormEvent{}, err
		}

		ms := string(m)

		event.Meta = &ms
	}

	if event.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return gormEvent{}, err
		}

		event.ID = id.String()
	}

	if evt.OccurredOn.IsZero() {
		event.OccurredOn = time.Now().UTC()
	}

	return event, nil
}

// ReadStream will read all events associated with provided stream in stream order.
// If there are no events stored for a given stream ErrStreamNotFound will be returned
func (es *EventStore) ReadStream(ctx context.Context, stream string) ([]StoredEvent, error) {
	var events []gormEvent

	if len(stream) == 0 {
		return nil, fmt.Errorf("stream name must be provided")
	}

	if err := es.db.
		WithContext(ctx).
		Where("stream_id = ?", stream).
		Order("stream_version asc").
		Find(&events).Error; err != nil {

		return nil, fmt.Errorf("read stream %s: %w", stream, err)
	}

	if len(events) == 0 {
		return nil, ErrStreamNotFound
	}

	return es.decodeEvents(events)
}

func (es *EventStore) decodeEvents(events []gormEvent) ([]StoredEvent, error) {
	out := make([]StoredEvent, len(events))

	for i, evt := range events {
		data, err := es.enc.Decode(&EncodedEvt{
			Data: evt.Data,
			Type: evt.Type,
		})
		if err != nil {
			return nil, fmt.Errorf("decode event %s: %w", evt.ID, err)
		}

		var meta map[string]string

		if evt.Meta != nil {
			err = json.Unmarshal([]byte(*evt.Meta), &meta)
			if err != nil {
				return nil, fmt.Errorf("decode event %s meta: %w", evt.ID, err)
			}
		}

		out[i] = StoredEvent{
			Event:              data,
			Meta:               meta,
			ID:                 evt.ID,
			Sequence:           evt.Sequence,
			Type:               evt.Type,
			CausationEventID:   evt.CausationEventID,
			CorrelationEventID: evt.CorrelationEventID,
			StreamID:           evt.StreamID,
			StreamVersion:      evt.StreamVersion,
			OccurredOn:         evt.OccurredOn,
		}
	}

	return out, nil
}

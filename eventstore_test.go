package eventstore_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aneshas/account-eventstore"
	"github.com/aneshas/account-eventstore/account"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var integration = flag.Bool("integration", false, "perform integration tests")

func toStore(evts ...any) []eventstore.EventToStore {
	out := make([]eventstore.EventToStore, len(evts))

	for i, evt := range evts {
		out[i] = eventstore.EventToStore{Event: evt}
	}

	return out
}

func accountHistory() []any {
	return []any{
		account.Created{
			AccountID:      "acc-1",
			InitialBalance: decimal.NewFromInt(1000),
			MaxBalance:     decimal.NewFromInt(5000),
			Currency:       account.USD,
			CustomerID:     "C1",
		},
		account.Deposit{Amount: decimal.NewFromInt(200)},
		account.Withdrawal{Amount: decimal.NewFromInt(300)},
	}
}

func TestShould_Read_Appended_Events(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	es := eventStore(t)

	ctx := context.Background()
	stream := "acc-1"
	meta := map[string]string{
		"ip": "127.0.0.1",
	}

	evts := toStore(accountHistory()...)

	for i := range evts {
		evts[i].Meta = meta
		evts[i].CorrelationEventID = "correlation-id"
	}

	err := es.AppendStream(ctx, stream, eventstore.InitialStreamVersion, evts)
	require.NoError(t, err)

	got, err := es.ReadStream(ctx, stream)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, evt := range got {
		assert.Equal(t, evts[i].Event, evt.Event)
		assert.Equal(t, meta, evt.Meta)
		assert.Equal(t, stream, evt.StreamID)
		assert.Equal(t, i+1, evt.StreamVersion)
		assert.Equal(t, "correlation-id", *evt.CorrelationEventID)
		assert.Nil(t, evt.CausationEventID)
		assert.NotEmpty(t, evt.ID)
		assert.False(t, evt.OccurredOn.IsZero())
	}

	assert.Equal(t, "Created", got[0].Type)
	assert.Equal(t, "Deposit", got[1].Type)
	assert.Equal(t, "Withdrawal", got[2].Type)
}

func TestShould_Keep_Provided_Event_Details(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	es := eventStore(t)

	occurredOn := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	err := es.AppendStream(context.Background(), "acc-1", eventstore.InitialStreamVersion, []eventstore.EventToStore{
		{
			Event:            account.Activation{Timestamp: occurredOn},
			ID:               "event-1",
			CausationEventID: "cause-1",
			OccurredOn:       occurredOn,
		},
	})
	require.NoError(t, err)

	got, err := es.ReadStream(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, "event-1", got[0].ID)
	assert.Equal(t, "cause-1", *got[0].CausationEventID)
	assert.True(t, occurredOn.Equal(got[0].OccurredOn))
}

func TestShould_Append_To_Existing_Stream(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	es := eventStore(t)

	ctx := context.Background()

	err := es.AppendStream(ctx, "acc-1", eventstore.InitialStreamVersion, toStore(accountHistory()...))
	require.NoError(t, err)

	err = es.AppendStream(ctx, "acc-2", eventstore.InitialStreamVersion, toStore(accountHistory()...))
	require.NoError(t, err)

	err = es.AppendStream(ctx, "acc-1", 3, toStore(deposits(1, 2)...))
	require.NoError(t, err)

	got, err := es.ReadStream(ctx, "acc-1")
	require.NoError(t, err)

	assert.Len(t, got, 5)
}

func TestShould_Perform_Optimistic_Concurrency_Check(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	es := eventStore(t)

	ctx := context.Background()

	err := es.AppendStream(ctx, "acc-1", eventstore.InitialStreamVersion, toStore(deposits(1)...))
	require.NoError(t, err)

	err = es.AppendStream(ctx, "acc-1", eventstore.InitialStreamVersion, toStore(deposits(1)...))

	assert.ErrorIs(t, err, eventstore.ErrConcurrencyCheckFailed)
}

func TestShould_Return_Stream_Not_Found(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	es := eventStore(t)

	_, err := es.ReadStream(context.Background(), "acc-404")

	assert.ErrorIs(t, err, eventstore.ErrStreamNotFound)
}

func TestShould_Read_All_Events_Across_Streams(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	es := eventStore(t)

	ctx := context.Background()

	require.NoError(t, es.AppendStream(ctx, "acc-1", eventstore.InitialStreamVersion, toStore(accountHistory()...)))
	require.NoError(t, es.AppendStream(ctx, "acc-2", eventstore.InitialStreamVersion, toStore(deposits(1, 2)...)))

	got, err := es.ReadAll(ctx, eventstore.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, got, 5)

	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Sequence, got[i-1].Sequence)
	}

	got, err = es.ReadAll(
		ctx,
		eventstore.WithOffset(got[2].Sequence),
		eventstore.WithBatchSize(1),
		eventstore.WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, err)

	assert.Len(t, got, 2)
}

func TestShould_Catch_Up_With_New_Events(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	es := eventStore(t)

	ctx := context.Background()

	require.NoError(t, es.AppendStream(ctx, "acc-1", eventstore.InitialStreamVersion, toStore(accountHistory()...)))

	sub, err := es.SubscribeAll(ctx, eventstore.WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)

	defer sub.Close()

	assert.Len(t, readAllSub(t, sub, 3), 3)

	require.NoError(t, es.AppendStream(ctx, "acc-2", eventstore.InitialStreamVersion, toStore(deposits(1, 2, 3, 4)...)))

	assert.Len(t, readAllSub(t, sub, 4), 4)
}

func TestShould_Cancel_Subscription_On_Context_Cancel(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	es := eventStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)

	defer cancel()

	sub, err := es.SubscribeAll(ctx)
	require.NoError(t, err)

	timeout := time.After(2 * time.Second)

	for {
		select {
		case <-timeout:
			t.Fatal("subscription should have been closed")
		case err := <-sub.Err:
			if errors.Is(err, io.EOF) {
				continue
			}

			assert.ErrorIs(t, err, context.DeadlineExceeded)

			return
		}
	}
}

func TestShould_Cancel_Subscription_With_Close(t *testing.T) {
	if !*integration {
		t.Skip("skipping integration tests")
	}

	es := eventStore(t)

	sub, err := es.SubscribeAll(context.Background())
	require.NoError(t, err)

	go func() {
		time.Sleep(200 * time.Millisecond)

		sub.Close()
	}()

	timeout := time.After(2 * time.Second)

	for {
		select {
		case <-timeout:
			t.Fatal("subscription should have been closed")
		case err := <-sub.Err:
			if errors.Is(err, io.EOF) {
				continue
			}

			assert.ErrorIs(t, err, eventstore.ErrSubscriptionClosedByClient)

			return
		}
	}
}

func TestShould_Validate_Append_Stream(t *testing.T) {
	es := eventstore.EventStore{}

	cases := []struct {
		stream string
		ver    int
		evts   []eventstore.EventToStore
	}{
		{stream: "", ver: 0, evts: toStore(deposits(1)...)},
		{stream: "acc-1", ver: -1, evts: toStore(deposits(1)...)},
		{stream: "acc-1", ver: 0, evts: nil},
		{stream: "acc-1", ver: 0, evts: []eventstore.EventToStore{}},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case %d", i), func(t *testing.T) {
			err := es.AppendStream(context.Background(), tc.stream, tc.ver, tc.evts)

			assert.Error(t, err)
		})
	}
}

func TestShould_Validate_Minimum_Batch_Size(t *testing.T) {
	es := eventstore.EventStore{}

	_, err := es.SubscribeAll(context.Background(), eventstore.WithBatchSize(0))
	assert.Error(t, err)

	_, err = es.ReadAll(context.Background(), eventstore.WithBatchSize(-1))
	assert.Error(t, err)
}

func TestShould_Validate_Read_Stream(t *testing.T) {
	es := eventstore.EventStore{}

	_, err := es.ReadStream(context.Background(), "")

	assert.Error(t, err)
}

func TestShould_Require_Encoder_And_Backing_Storage(t *testing.T) {
	_, err := eventstore.New(nil, eventstore.WithSQLiteDB("db"))
	assert.Error(t, err)

	_, err = eventstore.New(eventstore.NewJSONEncoder())
	assert.Error(t, err)
}

func readAllSub(t *testing.T, sub eventstore.Subscription, want int) []eventstore.StoredEvent {
	t.Helper()

	var got []eventstore.StoredEvent

	timeout := time.After(5 * time.Second)

	for {
		select {
		case data := <-sub.EventData:
			got = append(got, data)

		case err := <-sub.Err:
			if !errors.Is(err, io.EOF) {
				t.Fatal(err)
			}

			if len(got) >= want {
				return got
			}

		case <-timeout:
			t.Fatalf("timed out waiting for %d events, got %d", want, len(got))
		}
	}
}

func eventStore(t *testing.T) *eventstore.EventStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "accounts.db")

	es, err := eventstore.New(
		eventstore.NewJSONEncoder(
			account.Created{},
			account.Deposit{},
			account.Withdrawal{},
			account.Activation{},
		),
		eventstore.WithSQLiteDB(path),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, es.Close())
		_ = os.Remove(path)
	})

	return es
}

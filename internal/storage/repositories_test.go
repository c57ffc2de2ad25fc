package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRepository_PutGetSlots(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	_, err := store.Records.Get(ctx, SlotPrimary, KeyLedger)
	require.ErrorIs(t, err, ErrRecordNotFound)

	require.NoError(t, store.Records.Put(ctx, SlotPrimary, &StoredRecord{Key: KeyLedger, Payload: []byte(`{"v":2}`), Version: 2, UpdatedAt: at}))
	require.NoError(t, store.Records.Put(ctx, SlotBackup, &StoredRecord{Key: KeyLedger, Payload: []byte(`{"v":1}`), Version: 1, UpdatedAt: at}))

	primary, err := store.Records.Get(ctx, SlotPrimary, KeyLedger)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(primary.Payload))
	assert.Equal(t, 2, primary.Version)
	assert.WithinDuration(t, at, primary.UpdatedAt, time.Millisecond)

	backup, err := store.Records.Get(ctx, SlotBackup, KeyLedger)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(backup.Payload))

	// Overwrite replaces in place.
	require.NoError(t, store.Records.Put(ctx, SlotPrimary, &StoredRecord{Key: KeyLedger, Payload: []byte(`{"v":3}`), Version: 2}))
	primary, err = store.Records.Get(ctx, SlotPrimary, KeyLedger)
	require.NoError(t, err)
	assert.Equal(t, `{"v":3}`, string(primary.Payload))
}

func TestRecordRepository_RejectsEmptyKey(t *testing.T) {
	store := openTestStore(t)
	err := store.Records.Put(context.Background(), SlotPrimary, &StoredRecord{})
	assert.Error(t, err)
}

func TestStore_InTxIsAtomic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	failure := errors.New("write failed")

	err := store.InTx(ctx, func(tx *Tx) error {
		if err := tx.Records.Put(ctx, SlotPrimary, &StoredRecord{Key: KeyTimer, Payload: []byte(`{}`), Version: 1}); err != nil {
			return err
		}
		if err := tx.History.Record(ctx, []EconomyChange{{Field: FieldCurrency, NewValue: 10, Delta: 10, CreatedAt: time.Now()}}); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	_, err = store.Records.Get(ctx, SlotPrimary, KeyTimer)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	changes, err := store.History.GetRecentChanges(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, changes)

	err = store.InTx(ctx, func(tx *Tx) error {
		return tx.Records.Put(ctx, SlotPrimary, &StoredRecord{Key: KeyTimer, Payload: []byte(`{}`), Version: 1})
	})
	require.NoError(t, err)
	_, err = store.Records.Get(ctx, SlotPrimary, KeyTimer)
	assert.NoError(t, err)
}

func TestDetectChanges(t *testing.T) {
	at := time.Now()
	prev := EconomySnapshot{Currency: 100, FreeBoosters: 2, UniqueCards: 5, TotalCards: 9}
	next := EconomySnapshot{Currency: 80, FreeBoosters: 3, UniqueCards: 5, TotalCards: 9}

	changes := DetectChanges(prev, next, "skip", at)
	require.Len(t, changes, 2)

	assert.Equal(t, FieldCurrency, changes[0].Field)
	assert.Equal(t, -20, changes[0].Delta)
	assert.Equal(t, "skip", changes[0].Source)
	assert.Equal(t, FieldFreeBoosters, changes[1].Field)
	assert.Equal(t, 1, changes[1].Delta)

	assert.Empty(t, DetectChanges(prev, prev, "noop", at))
}

func TestHistoryRepository_Queries(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	changes := []EconomyChange{
		{Field: FieldCurrency, PreviousValue: 0, NewValue: 20, Delta: 20, Source: "sell", CreatedAt: base},
		{Field: FieldFreeBoosters, PreviousValue: 4, NewValue: 3, Delta: -1, Source: "open", CreatedAt: base.Add(time.Minute)},
		{Field: FieldCurrency, PreviousValue: 20, NewValue: 0, Delta: -20, CreatedAt: base.Add(2 * time.Minute)},
	}
	require.NoError(t, store.History.Record(ctx, changes))
	assert.NotZero(t, changes[0].ID)

	currency, err := store.History.GetHistory(ctx, FieldCurrency, 10)
	require.NoError(t, err)
	require.Len(t, currency, 2)
	assert.Equal(t, -20, currency[0].Delta, "newest first")
	assert.Empty(t, currency[0].Source)

	recent, err := store.History.GetRecentChanges(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	since, err := store.History.GetChangesSince(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, FieldFreeBoosters, since[0].Field, "oldest first")
}

func TestNotificationRepository_Lifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	readyID, err := store.Notifications.Schedule(ctx, &Notification{Kind: "booster_ready", Message: "ready", FireAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	assert.NotEmpty(t, readyID)

	_, err = store.Notifications.Schedule(ctx, &Notification{Kind: "engagement", Message: "come back", FireAt: now.Add(24 * time.Hour)})
	require.NoError(t, err)

	due, err := store.Notifications.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, readyID, due[0].ID)
	assert.Equal(t, "ready", due[0].Message)

	require.NoError(t, store.Notifications.MarkDelivered(ctx, readyID))
	due, err = store.Notifications.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)

	pending, err := store.Notifications.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "engagement", pending[0].Kind)

	n, err := store.Notifications.CancelKind(ctx, "engagement")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Error(t, store.Notifications.MarkDelivered(ctx, "missing"))
	_, err = store.Notifications.Schedule(ctx, &Notification{})
	assert.Error(t, err)
}

func TestPurchaseJournal_RejectsDuplicates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry := &PurchaseEntry{TransactionID: "txn-1", ProductID: "coins_small", Kind: "currency", Amount: 500, SettledAt: time.Now()}
	require.NoError(t, store.Purchases.Record(ctx, entry))

	err := store.Purchases.Record(ctx, entry)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)

	got, err := store.Purchases.Get(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, 500, got.Amount)
	assert.Equal(t, "coins_small", got.ProductID)

	_, err = store.Purchases.Get(ctx, "txn-2")
	assert.ErrorIs(t, err, ErrPurchaseNotFound)

	list, err := store.Purchases.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewTestStore_InMemory(t *testing.T) {
	store := NewTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Records.Put(ctx, SlotPrimary, &StoredRecord{Key: KeyMilestones, Payload: []byte(`[]`)}))
	_, err := store.Records.Get(ctx, SlotPrimary, KeyMilestones)
	assert.NoError(t, err)
}

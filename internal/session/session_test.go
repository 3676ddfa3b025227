package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipts/internal/draft"
	"receipts/pkg/models"
)

type fakeBackend struct {
	mu        sync.Mutex
	modals    map[string]models.RawPayload
	lineItems map[string][]any
	itemsErr  error
	modalErr  error
	saveErr   error
	saveResp  models.RawPayload

	// gates block GetModal for an id until closed; started is signalled
	// when the blocked call begins.
	gates   map[string]chan struct{}
	started chan string

	saveGate  chan struct{}
	saved     []models.ModalPayload
	itemCalls int
	deleted   []string
}

func newFake() *fakeBackend {
	return &fakeBackend{
		modals:    map[string]models.RawPayload{},
		lineItems: map[string][]any{},
		gates:     map[string]chan struct{}{},
		started:   make(chan string, 4),
	}
}

func (f *fakeBackend) GetModal(_ context.Context, id string) (models.RawPayload, error) {
	f.mu.Lock()
	gate := f.gates[id]
	f.mu.Unlock()

	if gate != nil {
		f.started <- id
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modalErr != nil {
		return nil, f.modalErr
	}
	return f.modals[id], nil
}

func (f *fakeBackend) GetLineItems(_ context.Context, id string) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls++
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.lineItems[id], nil
}

func (f *fakeBackend) SaveModal(_ context.Context, _ string, payload models.ModalPayload) (models.RawPayload, error) {
	if f.saveGate != nil {
		<-f.saveGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, payload)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return f.saveResp, nil
}

func (f *fakeBackend) DeleteReceipt(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func receiptPayload(merchant string) models.RawPayload {
	return models.RawPayload{
		"receipt": map[string]any{"merchant_name": merchant, "gross_amount": 125.0},
		"items": []any{
			map[string]any{"id": "i1", "name": "Kaffe", "item_total_price_ex_vat": 100.0, "item_total_price_inc_vat": 125.0},
		},
		"proposals": []any{map[string]any{"account": "4010", "debit": 100.0, "item_id": "i1"}},
	}
}

func TestOpenLoadsPayload(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = receiptPayload("ICA")
	s := New(fake)

	require.NoError(t, s.Open(context.Background(), "a"))

	snap := s.Snapshot()
	assert.Equal(t, Viewing, snap.State)
	assert.Equal(t, "a", snap.ReceiptID)
	assert.Equal(t, "ICA", snap.Payload.Receipt.MerchantName)
	assert.Equal(t, models.Float(25), snap.Payload.Items[0].Vat)
	assert.Equal(t, 0, fake.itemCalls)
}

func TestOpenUsesFallbackLineItems(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = models.RawPayload{"receipt": map[string]any{"merchant_name": "Coop"}, "items": []any{}}
	fake.lineItems["a"] = []any{map[string]any{"name": "Mjölk"}, map[string]any{"name": "Bröd"}}
	s := New(fake)

	require.NoError(t, s.Open(context.Background(), "a"))

	snap := s.Snapshot()
	require.Len(t, snap.Payload.Items, 2)
	assert.Equal(t, "Bröd", snap.Payload.Items[1].Name)
	assert.Equal(t, 1, fake.itemCalls)
}

func TestOpenFallbackFailureIsNotFatal(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = models.RawPayload{"receipt": map[string]any{"merchant_name": "Coop"}}
	fake.itemsErr = errors.New("boom")
	s := New(fake)

	require.NoError(t, s.Open(context.Background(), "a"))
	assert.Equal(t, Viewing, s.State())
	assert.Empty(t, s.Snapshot().Payload.Items)
}

func TestOpenFailureEntersErrorState(t *testing.T) {
	fake := newFake()
	fake.modalErr = errors.New("connection refused")
	s := New(fake)

	err := s.Open(context.Background(), "a")
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, Error, snap.State)
	assert.ErrorIs(t, snap.Err, fake.modalErr)
	assert.ErrorIs(t, s.BeginEdit(), ErrInvalidTransition)
}

func TestLastOpenedWins(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = receiptPayload("Slow A")
	fake.modals["b"] = receiptPayload("Fast B")
	gateA := make(chan struct{})
	fake.gates["a"] = gateA
	s := New(fake)

	errA := make(chan error, 1)
	go func() { errA <- s.Open(context.Background(), "a") }()

	select {
	case id := <-fake.started:
		require.Equal(t, "a", id)
	case <-time.After(2 * time.Second):
		t.Fatal("load of a never started")
	}

	require.NoError(t, s.Open(context.Background(), "b"))
	close(gateA)

	select {
	case err := <-errA:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("load of a never returned")
	}

	snap := s.Snapshot()
	assert.Equal(t, Viewing, snap.State)
	assert.Equal(t, "b", snap.ReceiptID)
	assert.Equal(t, "Fast B", snap.Payload.Receipt.MerchantName)
	assert.NoError(t, snap.Err)
}

func TestCloseDiscardsInFlightLoad(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = receiptPayload("A")
	gate := make(chan struct{})
	fake.gates["a"] = gate
	s := New(fake)

	errA := make(chan error, 1)
	go func() { errA <- s.Open(context.Background(), "a") }()
	<-fake.started

	s.Close()
	close(gate)

	assert.ErrorIs(t, <-errA, ErrSuperseded)
	assert.Equal(t, Idle, s.State())
}

func TestEditAndSave(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = receiptPayload("ICA")
	fake.saveResp = models.RawPayload{
		"receipt": map[string]any{"merchant_name": "ICA Maxi", "gross_amount": 130.0},
		"items":   []any{map[string]any{"id": "i1", "name": "Kaffe"}},
	}
	s := New(fake)
	require.NoError(t, s.Open(context.Background(), "a"))

	require.NoError(t, s.BeginEdit())
	require.NoError(t, s.Update(func(d *draft.Draft) error {
		return draft.Set(d, "receipt.merchant_name", "ICA Maxi")
	}))

	// a failing update leaves the draft unchanged
	err := s.Update(func(d *draft.Draft) error {
		d.Receipt.MerchantName = "half edited"
		return errors.New("rejected")
	})
	require.Error(t, err)
	assert.Equal(t, "ICA Maxi", s.Snapshot().Draft.Receipt.MerchantName)

	require.NoError(t, s.Save(context.Background()))

	require.Len(t, fake.saved, 1)
	assert.Equal(t, "ICA Maxi", fake.saved[0].Receipt.MerchantName)
	assert.Equal(t, models.Float(125), fake.saved[0].Receipt.GrossAmount)

	snap := s.Snapshot()
	assert.Equal(t, Viewing, snap.State)
	assert.Nil(t, snap.Draft)
	assert.Equal(t, models.Float(130), snap.Payload.Receipt.GrossAmount)
}

func TestSaveWithEmptyResponseKeepsSubmitted(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = receiptPayload("ICA")
	s := New(fake)
	require.NoError(t, s.Open(context.Background(), "a"))
	require.NoError(t, s.BeginEdit())
	require.NoError(t, s.Update(func(d *draft.Draft) error {
		d.Receipt.GrossAmount = "126"
		return nil
	}))

	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, models.Float(126), s.Snapshot().Payload.Receipt.GrossAmount)
}

func TestSaveFailureReturnsToEditing(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = receiptPayload("ICA")
	fake.saveErr = errors.New("HTTP 500")
	s := New(fake)
	require.NoError(t, s.Open(context.Background(), "a"))
	require.NoError(t, s.BeginEdit())
	require.NoError(t, s.Update(func(d *draft.Draft) error {
		d.Receipt.Description = "lunch"
		return nil
	}))

	err := s.Save(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, Editing, snap.State)
	assert.ErrorIs(t, snap.Err, fake.saveErr)
	require.NotNil(t, snap.Draft)
	assert.Equal(t, "lunch", snap.Draft.Receipt.Description)
	assert.Equal(t, "", snap.Payload.Receipt.Description)
}

func TestSaveIsNotReentrant(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = receiptPayload("ICA")
	fake.saveGate = make(chan struct{})
	s := New(fake)
	require.NoError(t, s.Open(context.Background(), "a"))
	require.NoError(t, s.BeginEdit())

	first := make(chan error, 1)
	go func() { first <- s.Save(context.Background()) }()

	require.Eventually(t, func() bool { return s.State() == Saving }, 2*time.Second, time.Millisecond)

	assert.ErrorIs(t, s.Save(context.Background()), ErrSaveInProgress)
	assert.ErrorIs(t, s.Open(context.Background(), "b"), ErrInvalidTransition)
	assert.ErrorIs(t, s.BeginEdit(), ErrInvalidTransition)

	close(fake.saveGate)
	require.NoError(t, <-first)
	assert.Len(t, fake.saved, 1)
}

func TestCancelEditDiscardsDraft(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = receiptPayload("ICA")
	s := New(fake)
	require.NoError(t, s.Open(context.Background(), "a"))

	assert.ErrorIs(t, s.CancelEdit(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Save(context.Background()), ErrInvalidTransition)

	require.NoError(t, s.BeginEdit())
	require.NoError(t, s.Update(func(d *draft.Draft) error {
		d.Receipt.MerchantName = "changed"
		return nil
	}))
	require.NoError(t, s.CancelEdit())

	require.NoError(t, s.BeginEdit())
	assert.Equal(t, "ICA", s.Snapshot().Draft.Receipt.MerchantName)
}

func TestDelete(t *testing.T) {
	fake := newFake()
	fake.modals["a"] = receiptPayload("ICA")

	var removed []string
	s := New(fake, WithOnDeleted(func(id string) { removed = append(removed, id) }))

	assert.ErrorIs(t, s.Delete(context.Background()), ErrInvalidTransition)

	require.NoError(t, s.Open(context.Background(), "a"))
	require.NoError(t, s.Delete(context.Background()))

	assert.Equal(t, []string{"a"}, fake.deleted)
	assert.Equal(t, []string{"a"}, removed)
	assert.Equal(t, Idle, s.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "saving", Saving.String())
	assert.Equal(t, "state(42)", State(42).String())
}

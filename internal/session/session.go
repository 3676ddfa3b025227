// Package session drives one receipt preview modal: loading a payload,
// editing a draft of it, saving and deleting. Exactly one State is active
// at a time.
//
// Opening a receipt supersedes any load still in flight: the older load's
// context is cancelled and, should its response still arrive, it is
// discarded without touching the session. The last opened receipt wins,
// not the last response.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"receipts/internal/draft"
	"receipts/internal/logger"
	"receipts/internal/reconciliation"
	"receipts/pkg/models"
)

// State is the modal session state.
type State int

const (
	Idle State = iota
	Loading
	Viewing
	Editing
	Saving
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition is returned when an action is not allowed in
	// the current state.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrSaveInProgress is returned by Save while another save is outstanding.
	ErrSaveInProgress = errors.New("save already in progress")

	// ErrSuperseded is returned to the caller of a load or save whose
	// result was discarded because the session moved on.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Backend is the part of the API client a session needs.
type Backend interface {
	GetModal(ctx context.Context, receiptID string) (models.RawPayload, error)
	GetLineItems(ctx context.Context, receiptID string) ([]any, error)
	SaveModal(ctx context.Context, receiptID string, payload models.ModalPayload) (models.RawPayload, error)
	DeleteReceipt(ctx context.Context, receiptID string) error
}

// Snapshot is a copy of the session at one point in time.
type Snapshot struct {
	State     State
	ReceiptID string
	Payload   models.ModalPayload
	Draft     *draft.Draft
	Err       error
}

// Session is safe for concurrent use.
type Session struct {
	backend   Backend
	onDeleted func(receiptID string)
	log       zerolog.Logger

	mu         sync.Mutex
	state      State
	receiptID  string
	payload    models.ModalPayload
	draft      *draft.Draft
	err        error
	generation uint64
	cancel     context.CancelFunc
}

// Option configures a Session.
type Option func(*Session)

// WithOnDeleted registers a callback run after a receipt was deleted, so
// list state elsewhere can drop it.
func WithOnDeleted(fn func(receiptID string)) Option {
	return func(s *Session) { s.onDeleted = fn }
}

// New creates an idle session.
func New(backend Backend, opts ...Option) *Session {
	s := &Session{
		backend: backend,
		log:     logger.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads a receipt into the session. If the modal payload carries no
// line items under any known key, the line items endpoint is consulted
// before the payload is shown.
func (s *Session) Open(ctx context.Context, receiptID string) error {
	const op = "Open"

	s.mu.Lock()
	if s.state == Saving {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w: %s while saving", op, ErrInvalidTransition, receiptID)
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = Loading
	s.receiptID = receiptID
	s.payload = models.ModalPayload{}
	s.draft = nil
	s.err = nil
	s.mu.Unlock()

	s.log.Debug().Str("receipt_id", receiptID).Uint64("generation", gen).Msg("Loading receipt")

	payload, err := s.load(loadCtx, receiptID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		cancel()
		s.log.Debug().Str("receipt_id", receiptID).Msg("Discarding stale load")
		return fmt.Errorf("%s: %w", op, ErrSuperseded)
	}
	cancel()
	s.cancel = nil

	if err != nil {
		s.state = Error
		s.err = err
		s.log.Error().Err(err).Str("receipt_id", receiptID).Msg("Failed to load receipt")
		return fmt.Errorf("%s: %w", op, err)
	}

	s.payload = payload
	s.state = Viewing
	s.log.Info().
		Str("receipt_id", receiptID).
		Int("items", len(payload.Items)).
		Int("proposals", len(payload.Proposals)).
		Msg("Receipt loaded")
	return nil
}

func (s *Session) load(ctx context.Context, receiptID string) (models.ModalPayload, error) {
	raw, err := s.backend.GetModal(ctx, receiptID)
	if err != nil {
		return models.ModalPayload{}, err
	}

	if reconciliation.NeedsFallbackItems(raw) {
		items, err := s.backend.GetLineItems(ctx, receiptID)
		if err != nil {
			if ctx.Err() != nil {
				return models.ModalPayload{}, ctx.Err()
			}
			s.log.Warn().Err(err).Str("receipt_id", receiptID).Msg("Fallback line items fetch failed, continuing without items")
		} else {
			raw = reconciliation.WithFallbackItems(raw, items)
		}
	}

	return reconciliation.NormalisePayload(raw), nil
}

// BeginEdit enters edit mode with a fresh draft of the current payload.
func (s *Session) BeginEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Viewing {
		return fmt.Errorf("BeginEdit: %w: from %s", ErrInvalidTransition, s.state)
	}
	d := draft.ToDraft(s.payload)
	s.draft = &d
	s.state = Editing
	return nil
}

// CancelEdit discards the draft and returns to viewing.
func (s *Session) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editing {
		return fmt.Errorf("CancelEdit: %w: from %s", ErrInvalidTransition, s.state)
	}
	s.draft = nil
	s.err = nil
	s.state = Viewing
	return nil
}

// Update applies fn to a copy of the draft and keeps the copy when fn
// succeeds.
func (s *Session) Update(fn func(d *draft.Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editing {
		return fmt.Errorf("Update: %w: from %s", ErrInvalidTransition, s.state)
	}

	next := cloneDraft(*s.draft)
	if err := fn(&next); err != nil {
		return err
	}
	s.draft = &next
	return nil
}

// Save submits the draft merged onto the current payload. On success the
// stored payload replaces both and the session returns to viewing. On
// failure the session stays in edit mode with the draft intact and the
// error recorded. Save is not re-entrant.
//
// A success response with an empty or non-object body is not normalised
// into an empty payload: the submitted payload is kept as the stored one,
// so a backend answering 204 does not blank the receipt.
func (s *Session) Save(ctx context.Context) error {
	const op = "Save"

	s.mu.Lock()
	switch s.state {
	case Saving:
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrSaveInProgress)
	case Editing:
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%s: %w: from %s", op, ErrInvalidTransition, state)
	}
	s.state = Saving
	s.err = nil
	gen := s.generation
	receiptID := s.receiptID
	submitted := draft.FromDraft(s.payload, *s.draft)
	s.mu.Unlock()

	s.log.Info().Str("receipt_id", receiptID).Msg("Saving receipt")

	raw, err := s.backend.SaveModal(ctx, receiptID, submitted)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return fmt.Errorf("%s: %w", op, ErrSuperseded)
	}

	if err != nil {
		s.state = Editing
		s.err = err
		s.log.Error().Err(err).Str("receipt_id", receiptID).Msg("Failed to save receipt")
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(raw) == 0 {
		s.payload = submitted
	} else {
		s.payload = reconciliation.NormalisePayload(raw)
	}
	s.draft = nil
	s.state = Viewing
	s.log.Info().Str("receipt_id", receiptID).Msg("Receipt saved")
	return nil
}

// Delete removes the open receipt and closes the session.
func (s *Session) Delete(ctx context.Context) error {
	const op = "Delete"

	s.mu.Lock()
	if s.state != Viewing && s.state != Editing && s.state != Error {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%s: %w: from %s", op, ErrInvalidTransition, state)
	}
	receiptID := s.receiptID
	gen := s.generation
	s.mu.Unlock()

	if err := s.backend.DeleteReceipt(ctx, receiptID); err != nil {
		s.mu.Lock()
		if gen == s.generation {
			s.err = err
		}
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	if gen == s.generation {
		s.reset()
	}
	s.mu.Unlock()

	s.log.Info().Str("receipt_id", receiptID).Msg("Receipt deleted")
	if s.onDeleted != nil {
		s.onDeleted(receiptID)
	}
	return nil
}

// Close abandons whatever the session holds, cancelling an in-flight load.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.state = Idle
	s.receiptID = ""
	s.payload = models.ModalPayload{}
	s.draft = nil
	s.err = nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:     s.state,
		ReceiptID: s.receiptID,
		Payload:   s.payload,
		Err:       s.err,
	}
	if s.draft != nil {
		d := cloneDraft(*s.draft)
		snap.Draft = &d
	}
	return snap
}

func cloneDraft(d draft.Draft) draft.Draft {
	d.Items = append([]draft.ItemDraft(nil), d.Items...)
	d.Proposals = append([]draft.ProposalDraft(nil), d.Proposals...)
	return d
}

// Package view holds the lookup page state machine. A Controller moves
// between Idle and ResultShown and hands out immutable snapshots that the
// transport layer renders.
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/haksa/internal/matcher"
	"github.com/shrimpsizemoose/haksa/internal/models"
	"github.com/shrimpsizemoose/haksa/internal/normalize"
)

type State string

const (
	StateIdle        State = "idle"
	StateResultShown State = "result_shown"
)

type StatusType string

const (
	StatusInfo  StatusType = "info"
	StatusError StatusType = "error"
)

type Status struct {
	Message string     `json:"message"`
	Type    StatusType `json:"type"`
}

type Result struct {
	GoogleID     string `json:"googleId"`
	DemoPassword string `json:"demoPw,omitempty"`
}

type Snapshot struct {
	State  State   `json:"state"`
	Status Status  `json:"status"`
	Result *Result `json:"result,omitempty"`
	// Focus names the form field that should receive input focus.
	Focus string `json:"focus,omitempty"`
}

// Outcome labels what a Submit resolved to.
type Outcome string

const (
	OutcomeFound       Outcome = "found"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeIncomplete  Outcome = "incomplete"
	OutcomeMalformed   Outcome = "malformed"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeSuperseded  Outcome = "superseded"
	// OutcomeCancelled means the caller's context ended, no newer
	// submission took over.
	OutcomeCancelled Outcome = "cancelled"
)

type Matcher interface {
	Variant() matcher.Variant
	Normalize(form models.LookupForm) models.Query
	Validate(q models.Query) error
	Match(ctx context.Context, q models.Query) (*models.Account, error)
}

type Deriver interface {
	Derive(ctx context.Context, q models.Query) (string, error)
}

// Idle is the view before any submission.
func Idle() Snapshot {
	return Snapshot{State: StateIdle, Status: Status{Type: StatusInfo}}
}

// Cleared is the view right after a form reset.
func Cleared() Snapshot {
	snap := Idle()
	snap.Focus = normalize.FieldStudentNo
	return snap
}

// ResetRequest is the informational answer to the "forgot password" action.
func ResetRequest() Status {
	return Status{Message: MsgResetRequest, Type: StatusInfo}
}

type Controller struct {
	matcher Matcher
	deriver Deriver

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	snap   Snapshot
}

// NewController builds a controller in the Idle state. deriver may be nil
// when the variant shows no demo password.
func NewController(m Matcher, deriver Deriver) *Controller {
	return &Controller{
		matcher: m,
		deriver: deriver,
		snap:    Idle(),
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// begin supersedes any in-flight submission and returns the new sequence
// number with a context that is cancelled when the next one starts.
func (c *Controller) begin(ctx context.Context) (uint64, context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.seq++
	c.cancel = cancel
	return c.seq, ctx
}

// commit stores snap unless a newer submission or reset has started.
func (c *Controller) commit(seq uint64, snap Snapshot) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		return c.snap, false
	}
	c.snap = snap
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return snap, true
}

// Submit runs one lookup and returns the resulting view. If another
// Submit or Reset starts before this one finishes, this result is dropped
// and the returned snapshot is whatever the view holds at that moment.
func (c *Controller) Submit(ctx context.Context, form models.LookupForm) (Snapshot, Outcome) {
	seq, ctx := c.begin(ctx)

	snap, outcome := c.resolve(ctx, form)
	if outcome == OutcomeSuperseded {
		return c.abandon(seq)
	}

	current, ok := c.commit(seq, snap)
	if !ok {
		return current, OutcomeSuperseded
	}
	return current, outcome
}

// abandon settles a submission whose context ended before it resolved.
// The view is left as it was either way.
func (c *Controller) abandon(seq uint64) (Snapshot, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		return c.snap, OutcomeSuperseded
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return c.snap, OutcomeCancelled
}

func (c *Controller) resolve(ctx context.Context, form models.LookupForm) (Snapshot, Outcome) {
	variant := c.matcher.Variant()
	q := c.matcher.Normalize(form)

	if err := c.matcher.Validate(q); err != nil {
		var inputErr *matcher.InputError
		if errors.As(err, &inputErr) && inputErr.Kind == matcher.KindMalformed {
			return failure(malformedMessage(inputErr.Field), inputErr.Field), OutcomeMalformed
		}
		return failure(incompleteMessage(variant), ""), OutcomeIncomplete
	}

	account, err := c.matcher.Match(ctx, q)
	if errors.Is(err, matcher.ErrNotFound) {
		return failure(msgNotFound, ""), OutcomeNotFound
	}
	if err != nil {
		if ctx.Err() != nil {
			return Snapshot{}, OutcomeSuperseded
		}
		logger.Error.Printf("Account lookup failed: %v", err)
		return failure(msgUnavailable, ""), OutcomeUnavailable
	}

	result := &Result{GoogleID: account.GoogleID}
	message := msgFound
	if c.deriver != nil {
		pw, err := c.deriver.Derive(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return Snapshot{}, OutcomeSuperseded
			}
			logger.Error.Printf("Demo password derivation failed: %v", err)
			return failure(msgUnavailable, ""), OutcomeUnavailable
		}
		result.DemoPassword = pw
		message = msgFoundDemo
	}

	return Snapshot{
		State:  StateResultShown,
		Status: Status{Message: message, Type: StatusInfo},
		Result: result,
	}, OutcomeFound
}

func failure(message, focus string) Snapshot {
	return Snapshot{
		State:  StateIdle,
		Status: Status{Message: message, Type: StatusError},
		Focus:  focus,
	}
}

// Reset clears the result and status from any state, cancels an in-flight
// submission and moves focus back to the first field.
func (c *Controller) Reset() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
	c.snap = Cleared()
	return c.snap
}

// RequestReset answers the "forgot password" action. It never resets
// anything and leaves the view untouched.
func (c *Controller) RequestReset() Status {
	return ResetRequest()
}

package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/domain/shared"
	"github.com/supportdesk/backend/internal/infrastructure/telemetry"
)

// RetryPolicy bounds the find-create recovery loop. The policy is an explicit
// counted loop so it stays visible and independently testable.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryPolicy retries the find-create sequence up to 3 attempts,
// doubling from 100ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 100 * time.Millisecond,
	}
}

// Backoff returns the delay before the given 1-based attempt's retry
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseBackoff * time.Duration(1<<uint(attempt-1))
}

// Resolver converges partial, inconsistently formatted identity signals onto
// exactly one canonical customer record. It holds no mutable state of its own
// and is safe to invoke concurrently for different signals; consistency
// against concurrent creators comes entirely from the platform's uniqueness
// constraint plus the duplicate-create recovery protocol.
type Resolver struct {
	platform crm.CustomerPlatform
	retry    RetryPolicy
	logger   *zap.Logger
	metrics  *telemetry.ResolutionMetrics
}

// NewResolver creates a resolver over the given platform capability.
// Metrics may be nil.
func NewResolver(platform crm.CustomerPlatform, retry RetryPolicy, logger *zap.Logger, metrics *telemetry.ResolutionMetrics) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		platform: platform,
		retry:    retry,
		logger:   logger,
		metrics:  metrics,
	}
}

// Match is the read side of resolution: the candidate customers the signal's
// keys point at. Precedence between them is applied by the decision policy,
// not here.
type Match struct {
	ByRef   *crm.Customer
	ByEmail *crm.Customer
	ByPhone *crm.Customer
}

// Conflicting reports whether email and phone independently matched two
// different existing customers.
func (m Match) Conflicting() bool {
	return m.ByEmail != nil && m.ByPhone != nil && m.ByEmail.ID != m.ByPhone.ID
}

// Predict returns the action resolving the signal would take, without any
// write. It backs dry-run imports and the decision step of ResolveOne.
func (m Match) Predict(sig crm.Signal) Action {
	switch {
	case !sig.HasIdentifier():
		return ActionSkipped
	case m.ByRef != nil:
		return ActionUpdated
	case m.Conflicting():
		return ActionAmbiguous
	case m.ByEmail != nil || m.ByPhone != nil:
		return ActionLinked
	default:
		return ActionCreated
	}
}

// ResolveOne resolves a single signal end to end: normalize, match, decide,
// mutate. Every non-skip outcome performs exactly one write round trip
// against the platform.
//
// A transient platform outage anywhere in the sequence re-runs it from the
// match: by the time the platform is back the candidates may have changed.
func (r *Resolver) ResolveOne(ctx context.Context, sig crm.Signal) (*Resolution, error) {
	sig = sig.Normalized()
	if !sig.HasIdentifier() {
		return &Resolution{Action: ActionSkipped}, nil
	}

	var lastErr error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		res, err := r.resolveAttempt(ctx, sig)
		if err == nil {
			if r.metrics != nil {
				r.metrics.Resolved(ctx, string(res.Action), string(sig.Source))
			}
			return res, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt < r.retry.MaxAttempts {
			if err := sleep(ctx, r.retry.Backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("resolve after %d attempts: %w", r.retry.MaxAttempts, lastErr)
}

// resolveAttempt is a single pass of the find-create sequence
func (r *Resolver) resolveAttempt(ctx context.Context, sig crm.Signal) (*Resolution, error) {
	match, err := r.MatchSignal(ctx, sig)
	if err != nil {
		return nil, err
	}
	return r.Apply(ctx, sig, match)
}

// retryable reports whether a failed attempt is worth re-running. That is an
// unavailable platform, or a duplicate rejection whose winner was not yet
// visible to the re-find.
func retryable(err error) bool {
	return errors.Is(err, shared.ErrRemoteUnavailable) ||
		errors.Is(err, shared.ErrDuplicateIdentity)
}

// MatchSignal runs the read-side lookups for one already-normalized signal.
// Absent candidates are not errors; only transport failures propagate.
func (r *Resolver) MatchSignal(ctx context.Context, sig crm.Signal) (Match, error) {
	var match Match

	if sig.HasExternalRef() {
		c, err := r.platform.FindByExternalID(ctx, sig.Provider, sig.ExternalID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return match, fmt.Errorf("match by external id: %w", err)
		}
		match.ByRef = c
	}

	if sig.Email != "" {
		c, err := r.platform.FindByEmail(ctx, sig.Email)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return match, fmt.Errorf("match by email: %w", err)
		}
		match.ByEmail = c
	}

	if sig.Phone != "" {
		byPhone, err := r.platform.FindByPhones(ctx, []string{sig.Phone})
		if err != nil {
			return match, fmt.Errorf("match by phone: %w", err)
		}
		match.ByPhone = byPhone[sig.Phone]
	}

	return match, nil
}

// Apply executes the decision policy for a normalized signal against an
// already-computed match and performs the mutation. Batch import calls this
// directly after its bulk pre-check; ResolveOne goes through MatchSignal.
//
// Precedence: (provider, externalID) exact match > email match > phone match.
func (r *Resolver) Apply(ctx context.Context, sig crm.Signal, match Match) (*Resolution, error) {
	if !sig.HasIdentifier() {
		return &Resolution{Action: ActionSkipped}, nil
	}

	// Seen from this source before: refresh mutable fields only.
	if match.ByRef != nil {
		if err := r.refresh(ctx, match.ByRef, sig); err != nil {
			return nil, err
		}
		return &Resolution{CustomerID: match.ByRef.ID, Action: ActionUpdated}, nil
	}

	// Email and phone disagree on who this is. Email is the stronger signal:
	// link to the email match, leave the phone match untouched, flag for
	// manual review rather than auto-merging two existing people.
	if match.Conflicting() {
		// The phone already belongs to the other record; carrying it into
		// the link would collide with the platform's uniqueness constraint.
		linkSig := sig
		linkSig.Phone = ""
		if err := r.link(ctx, match.ByEmail, linkSig); err != nil {
			return nil, err
		}
		r.logger.Warn("ambiguous identity signal, linked to email match",
			zap.Int64("email_customer_id", match.ByEmail.ID),
			zap.Int64("phone_customer_id", match.ByPhone.ID),
			zap.String("source", string(sig.Source)),
		)
		return &Resolution{
			CustomerID:  match.ByEmail.ID,
			Action:      ActionAmbiguous,
			NeedsReview: true,
			ConflictID:  match.ByPhone.ID,
		}, nil
	}

	if candidate := match.ByEmail; candidate != nil {
		if err := r.link(ctx, candidate, sig); err != nil {
			return nil, err
		}
		return &Resolution{CustomerID: candidate.ID, Action: ActionLinked}, nil
	}
	if candidate := match.ByPhone; candidate != nil {
		if err := r.link(ctx, candidate, sig); err != nil {
			return nil, err
		}
		return &Resolution{CustomerID: candidate.ID, Action: ActionLinked}, nil
	}

	return r.create(ctx, sig)
}

// refresh updates an already-linked customer from a newer signal. Mutable
// fields are last-write-wins; identity keys are only backfilled where empty.
func (r *Resolver) refresh(ctx context.Context, customer *crm.Customer, sig crm.Signal) error {
	customer.RefreshProfile(sig.FirstName, sig.LastName, sig.Company, sig.Metadata)
	customer.BackfillIdentity(sig.Email, sig.Phone)
	if err := r.platform.Update(ctx, customer); err != nil {
		return fmt.Errorf("refresh customer %d: %w", customer.ID, err)
	}
	return nil
}

// link attaches the signal's source to an existing customer. The new
// provider ref, profile refresh and identity backfill go out as the single
// write for this resolution.
func (r *Resolver) link(ctx context.Context, customer *crm.Customer, sig crm.Signal) error {
	if sig.HasExternalRef() {
		customer.AddExternalRef(sig.Provider, sig.ExternalID)
	}
	customer.RefreshProfile(sig.FirstName, sig.LastName, sig.Company, sig.Metadata)
	customer.BackfillIdentity(sig.Email, sig.Phone)
	if err := r.platform.Update(ctx, customer); err != nil {
		return fmt.Errorf("link customer %d: %w", customer.ID, err)
	}
	return nil
}

// create inserts a new customer, recovering from the race where two
// concurrent resolutions for the same not-yet-existing identity both pass
// the pre-check and both attempt the create. The platform rejects the loser
// on its uniqueness constraint; re-finding and reporting linked turns that
// race into a transparent outcome instead of a duplicate record.
func (r *Resolver) create(ctx context.Context, sig crm.Signal) (*Resolution, error) {
	fields := crm.CustomerFields{
		Email:     sig.Email,
		Phone:     sig.Phone,
		FirstName: sig.FirstName,
		LastName:  sig.LastName,
		Company:   sig.Company,
		Metadata:  sig.Metadata,
	}
	if sig.HasExternalRef() {
		fields.Refs = []crm.ExternalRef{{Provider: sig.Provider, ExternalID: sig.ExternalID}}
	}

	created, err := r.platform.Create(ctx, fields)
	if err == nil {
		return &Resolution{CustomerID: created.ID, Action: ActionCreated}, nil
	}
	if !errors.Is(err, shared.ErrDuplicateIdentity) {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	// Someone else won the race; their record is the canonical answer.
	winner, findErr := r.findRaceWinner(ctx, sig)
	if findErr != nil {
		return nil, findErr
	}
	if winner == nil {
		// Winner not visible yet; the caller backs off and re-runs the match.
		return nil, fmt.Errorf("create customer: %w", err)
	}

	r.attachToWinner(ctx, winner, sig)
	r.logger.Debug("recovered duplicate create as link",
		zap.Int64("customer_id", winner.ID),
	)
	return &Resolution{CustomerID: winner.ID, Action: ActionLinked}, nil
}

// findRaceWinner re-runs the identity lookups after a duplicate rejection
func (r *Resolver) findRaceWinner(ctx context.Context, sig crm.Signal) (*crm.Customer, error) {
	if sig.Email != "" {
		c, err := r.platform.FindByEmail(ctx, sig.Email)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("re-find by email: %w", err)
		}
		if c != nil {
			return c, nil
		}
	}
	if sig.Phone != "" {
		byPhone, err := r.platform.FindByPhones(ctx, []string{sig.Phone})
		if err != nil {
			return nil, fmt.Errorf("re-find by phone: %w", err)
		}
		if c := byPhone[sig.Phone]; c != nil {
			return c, nil
		}
	}
	return nil, nil
}

// attachToWinner links the loser's source ref to the surviving record.
// Best effort: the canonical outcome is already decided, a failed link only
// loses the provider pair, not the customer.
func (r *Resolver) attachToWinner(ctx context.Context, winner *crm.Customer, sig crm.Signal) {
	if !sig.HasExternalRef() || winner.HasExternalRef(sig.Provider, sig.ExternalID) {
		return
	}
	if err := r.platform.LinkExternalID(ctx, winner.ID, sig.Provider, sig.ExternalID); err != nil {
		r.logger.Warn("failed to link source to race winner",
			zap.Int64("customer_id", winner.ID),
			zap.String("provider", sig.Provider),
			zap.Error(err),
		)
	}
}

// sleep waits for d or until the context is done
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package resolution

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/domain/shared"
)

const (
	// MaxBatchSize bounds one importBatch call
	MaxBatchSize = 1000
	// maxReportEntries caps the per-record detail list in the response
	maxReportEntries = 100
)

// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize
var ErrBatchTooLarge = shared.NewDomainError("BATCH_TOO_LARGE", fmt.Sprintf("Batch cannot exceed %d records", MaxBatchSize))

// ImportService drives the resolver over a bounded list of records. Batch
// semantics are best effort, fully reported: one record's failure is captured
// in its report entry and never aborts the remaining records.
type ImportService struct {
	resolver *Resolver
	platform crm.CustomerPlatform
	logger   *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(resolver *Resolver, platform crm.CustomerPlatform, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		resolver: resolver,
		platform: platform,
		logger:   logger,
	}
}

// ImportBatch resolves up to MaxBatchSize records. The read-side pre-check
// runs as one bulk round trip per key kind across the whole batch; the write
// path then issues one round trip per record. With dryRun set, only the read
// side runs and the report carries predicted actions with zero writes.
func (s *ImportService) ImportBatch(ctx context.Context, signals []crm.Signal, dryRun bool) (*ImportReport, error) {
	if len(signals) == 0 {
		return nil, shared.NewDomainError("EMPTY_BATCH", "Batch must carry at least one record")
	}
	if len(signals) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	normalized := make([]crm.Signal, len(signals))
	for i, sig := range signals {
		normalized[i] = sig.Normalized()
	}

	byEmail, byPhone, err := s.prefetch(ctx, normalized)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{
		Total:   len(normalized),
		DryRun:  dryRun,
		Entries: make([]ImportEntry, 0, min(len(normalized), maxReportEntries)),
	}

	for i, sig := range normalized {
		entry := s.importOne(ctx, i, sig, byEmail, byPhone, dryRun)
		if entry.Error != "" {
			report.Errored++
		} else {
			report.count(entry.Action)
		}
		if len(report.Entries) < maxReportEntries {
			report.Entries = append(report.Entries, entry)
		} else {
			report.Truncated = true
		}
	}

	s.logger.Info("batch import finished",
		zap.Int("total", report.Total),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("linked", report.Linked),
		zap.Int("ambiguous", report.Ambiguous),
		zap.Int("skipped", report.Skipped),
		zap.Int("errored", report.Errored),
		zap.Bool("dry_run", dryRun),
	)
	return report, nil
}

// prefetch bulk-loads the email and phone candidates for the whole batch
func (s *ImportService) prefetch(ctx context.Context, signals []crm.Signal) (map[string]*crm.Customer, map[string]*crm.Customer, error) {
	emailSet := make(map[string]struct{})
	phoneSet := make(map[string]struct{})
	for _, sig := range signals {
		if sig.Email != "" {
			emailSet[sig.Email] = struct{}{}
		}
		if sig.Phone != "" {
			phoneSet[sig.Phone] = struct{}{}
		}
	}

	byEmail := map[string]*crm.Customer{}
	if len(emailSet) > 0 {
		found, err := s.platform.FindByEmails(ctx, keys(emailSet))
		if err != nil {
			return nil, nil, fmt.Errorf("bulk email pre-check: %w", err)
		}
		byEmail = found
	}

	byPhone := map[string]*crm.Customer{}
	if len(phoneSet) > 0 {
		found, err := s.platform.FindByPhones(ctx, keys(phoneSet))
		if err != nil {
			return nil, nil, fmt.Errorf("bulk phone pre-check: %w", err)
		}
		byPhone = found
	}

	return byEmail, byPhone, nil
}

// importOne resolves one record against the prefetched candidates, catching
// its failure into the report entry instead of propagating it.
func (s *ImportService) importOne(
	ctx context.Context,
	index int,
	sig crm.Signal,
	byEmail, byPhone map[string]*crm.Customer,
	dryRun bool,
) ImportEntry {
	entry := ImportEntry{Index: index}

	if !sig.HasIdentifier() {
		entry.Action = ActionSkipped
		return entry
	}

	match := Match{
		ByEmail: byEmail[sig.Email],
		ByPhone: byPhone[sig.Phone],
	}
	if sig.HasExternalRef() {
		// External refs have no bulk lookup; one read per record that carries one.
		c, err := s.platform.FindByExternalID(ctx, sig.Provider, sig.ExternalID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			entry.Error = err.Error()
			return entry
		}
		match.ByRef = c
	}

	if dryRun {
		entry.Action = match.Predict(sig)
		if c := match.ByRef; c != nil {
			entry.CustomerID = c.ID
		} else if c := match.ByEmail; c != nil {
			entry.CustomerID = c.ID
		} else if c := match.ByPhone; c != nil {
			entry.CustomerID = c.ID
		}
		return entry
	}

	res, err := s.resolver.Apply(ctx, sig, match)
	if err != nil {
		s.logger.Warn("import record failed",
			zap.Int("index", index),
			zap.String("source", string(sig.Source)),
			zap.Error(err),
		)
		entry.Error = err.Error()
		return entry
	}
	entry.CustomerID = res.CustomerID
	entry.Action = res.Action
	return entry
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"
	"github.com/qrlink/qrlink-go/internal/infra/observability"
	"github.com/qrlink/qrlink-go/internal/port"
	"github.com/qrlink/qrlink-go/internal/qrid"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var optionsTracer = otel.Tracer("service/options")

// ProfileOptionService manages a user's set of redirect targets and keeps
// the persisted mapping record in sync with the single active option.
//
// Every mutation resyncs the mapping table before reporting success, so a
// change that failed to persist is never reflected back to the caller.
type ProfileOptionService struct {
	options  port.OptionStore
	mappings port.MappingStore
	cache    port.Cache[*domain.MappingRecord]
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewProfileOptionService creates the option service with all dependencies injected.
func NewProfileOptionService(
	options port.OptionStore,
	mappings port.MappingStore,
	cache port.Cache[*domain.MappingRecord],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ProfileOptionService {
	return &ProfileOptionService{
		options:  options,
		mappings: mappings,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// Add creates a new option for the owner. The very first option becomes
// active and is published to the mapping table; later options start
// inactive. If publishing fails, the inserted row is rolled back so the
// stored state never diverges from what the resolver serves.
func (s *ProfileOptionService) Add(ctx context.Context, owner *domain.User, kind domain.OptionKind, label, value string) (*domain.ProfileOption, error) {
	ctx, span := optionsTracer.Start(ctx, "ProfileOptionService.Add")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", owner.ID))

	if !kind.Valid() {
		return nil, &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown option kind %q", kind)}
	}
	if label == "" {
		return nil, &domain.ErrValidation{Field: "label", Message: "label must not be empty"}
	}
	if value == "" {
		return nil, &domain.ErrValidation{Field: "value", Message: "value must not be empty"}
	}

	existing, err := s.options.ListOptions(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}

	opt := &domain.ProfileOption{
		ID:        uuid.New().String(),
		OwnerID:   owner.ID,
		Kind:      kind,
		Label:     label,
		Value:     value,
		IsActive:  len(existing) == 0,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.options.InsertOption(ctx, opt); err != nil {
		return nil, fmt.Errorf("insert option: %w", err)
	}

	if opt.IsActive {
		if err := s.syncMapping(ctx, owner, opt); err != nil {
			// Roll back the insert so the option set and the mapping
			// table stay consistent.
			if rbErr := s.options.DeleteOption(ctx, owner.ID, opt.ID); rbErr != nil {
				s.logger.Error("option rollback failed after mapping sync error",
					zap.String("owner_id", owner.ID),
					zap.String("option_id", opt.ID),
					zap.Error(rbErr),
				)
			}
			return nil, fmt.Errorf("sync mapping: %w", err)
		}
	}

	s.metrics.IncrMutation("add")
	s.logger.Info("profile option added",
		zap.String("owner_id", owner.ID),
		zap.String("option_id", opt.ID),
		zap.String("kind", string(kind)),
		zap.Bool("active", opt.IsActive),
	)
	return opt, nil
}

// Remove deletes an option. Removing the active option deletes the
// mapping record first, so scans of the owner's code report "not active"
// from that point on; no sibling is auto-promoted.
func (s *ProfileOptionService) Remove(ctx context.Context, owner *domain.User, optionID string) error {
	ctx, span := optionsTracer.Start(ctx, "ProfileOptionService.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("option.id", optionID))

	opt, err := s.options.GetOption(ctx, owner.ID, optionID)
	if err != nil {
		return fmt.Errorf("get option: %w", err)
	}
	if opt == nil {
		return &domain.ErrNotFound{Resource: "option", ID: optionID}
	}

	if opt.IsActive {
		key := qrid.Canonicalize(owner.QRID)
		if err := s.mappings.DeleteMapping(ctx, key); err != nil {
			return fmt.Errorf("delete mapping: %w", err)
		}
		s.cache.Delete(key)
	}

	if err := s.options.DeleteOption(ctx, owner.ID, optionID); err != nil {
		if opt.IsActive {
			// Republish the snapshot so the surviving row and the
			// mapping table stay consistent.
			if rbErr := s.syncMapping(ctx, owner, opt); rbErr != nil {
				s.logger.Error("mapping rollback failed after option delete error",
					zap.String("owner_id", owner.ID),
					zap.String("option_id", optionID),
					zap.Error(rbErr),
				)
			}
		}
		return fmt.Errorf("delete option: %w", err)
	}

	s.metrics.IncrMutation("remove")
	s.logger.Info("profile option removed",
		zap.String("owner_id", owner.ID),
		zap.String("option_id", optionID),
		zap.Bool("was_active", opt.IsActive),
	)
	return nil
}

// SetActive makes the target option the owner's single active option and
// republishes the mapping record.
//
// Consistency model: the mapping is replaced delete-then-insert, so a
// concurrent resolve may briefly see NotFound while the switch is in
// flight; it never sees a stale duplicate.
func (s *ProfileOptionService) SetActive(ctx context.Context, owner *domain.User, optionID string) (*domain.ProfileOption, error) {
	ctx, span := optionsTracer.Start(ctx, "ProfileOptionService.SetActive")
	defer span.End()
	span.SetAttributes(attribute.String("option.id", optionID))

	existing, err := s.options.ListOptions(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}

	var opt, prev *domain.ProfileOption
	for i := range existing {
		if existing[i].ID == optionID {
			opt = &existing[i]
		}
		if existing[i].IsActive {
			prev = &existing[i]
		}
	}
	if opt == nil {
		return nil, &domain.ErrNotFound{Resource: "option", ID: optionID}
	}

	if err := s.options.SetActiveFlags(ctx, owner.ID, optionID); err != nil {
		return nil, fmt.Errorf("set active flags: %w", err)
	}
	opt.IsActive = true

	if err := s.syncMapping(ctx, owner, opt); err != nil {
		// Restore the previous flags and snapshot so the option set
		// and the mapping table stay consistent.
		s.restorePrevious(ctx, owner, prev)
		return nil, fmt.Errorf("sync mapping: %w", err)
	}

	s.metrics.IncrMutation("activate")
	s.logger.Info("active option changed",
		zap.String("owner_id", owner.ID),
		zap.String("option_id", optionID),
		zap.String("kind", string(opt.Kind)),
	)
	return opt, nil
}

// List returns the owner's options in creation order.
func (s *ProfileOptionService) List(ctx context.Context, owner *domain.User) ([]domain.ProfileOption, error) {
	ctx, span := optionsTracer.Start(ctx, "ProfileOptionService.List")
	defer span.End()

	return s.options.ListOptions(ctx, owner.ID)
}

// Overview fetches the owner's option list and the persisted mapping
// record concurrently. The mapping may be nil when nothing is active.
func (s *ProfileOptionService) Overview(ctx context.Context, owner *domain.User) ([]domain.ProfileOption, *domain.MappingRecord, error) {
	ctx, span := optionsTracer.Start(ctx, "ProfileOptionService.Overview")
	defer span.End()

	var (
		options []domain.ProfileOption
		mapping *domain.MappingRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		options, err = s.options.ListOptions(gctx, owner.ID)
		return err
	})
	g.Go(func() error {
		var err error
		mapping, err = s.mappings.GetMapping(gctx, qrid.Canonicalize(owner.QRID))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return options, mapping, nil
}

// restorePrevious reverts the active flags and the mapping record after a
// failed activation. Best effort: failures are logged, not returned.
func (s *ProfileOptionService) restorePrevious(ctx context.Context, owner *domain.User, prev *domain.ProfileOption) {
	if prev == nil {
		if err := s.options.ClearActiveFlags(ctx, owner.ID); err != nil {
			s.logger.Error("flag rollback failed after mapping sync error",
				zap.String("owner_id", owner.ID),
				zap.Error(err),
			)
		}
		return
	}

	if err := s.options.SetActiveFlags(ctx, owner.ID, prev.ID); err != nil {
		s.logger.Error("flag rollback failed after mapping sync error",
			zap.String("owner_id", owner.ID),
			zap.String("option_id", prev.ID),
			zap.Error(err),
		)
		return
	}
	if err := s.syncMapping(ctx, owner, prev); err != nil {
		s.logger.Error("mapping rollback failed after mapping sync error",
			zap.String("owner_id", owner.ID),
			zap.String("option_id", prev.ID),
			zap.Error(err),
		)
	}
}

// syncMapping replaces the owner's mapping record with a snapshot of opt.
// The cached record is dropped first: a half-completed replace must not
// leave the resolver serving a stale snapshot.
func (s *ProfileOptionService) syncMapping(ctx context.Context, owner *domain.User, opt *domain.ProfileOption) error {
	key := qrid.Canonicalize(owner.QRID)
	s.cache.Delete(key)

	rec := &domain.MappingRecord{
		QRID:    key,
		OwnerID: owner.ID,
		Kind:    opt.Kind,
		Label:   opt.Label,
		Value:   opt.Value,
	}
	return s.mappings.ReplaceMapping(ctx, rec)
}

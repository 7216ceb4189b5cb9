package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/pkg/db"
	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
	"github.com/angelmondragon/catalog-backoffice/pkg/metrics"
	"github.com/angelmondragon/catalog-backoffice/pkg/outbox"
	"github.com/angelmondragon/catalog-backoffice/pkg/outbox/payloads"
)

// StockChange is one atomic mutation. Both deltas are checked against the final
// quantities, so a sale may lower total and reserved together.
type StockChange struct {
	TotalDelta    int
	ReservedDelta int
	Reason        enums.StockMovementReason
	Actor         string
	Note          *string
}

// mutation is what a store commits: the record as read, the record to write and
// the ledger rows that go with it.
type mutation struct {
	before    models.InventoryRecord
	after     models.InventoryRecord
	movements []models.StockMovement
	change    StockChange
}

type mutationStore interface {
	Load(ctx context.Context, inventoryID uuid.UUID) (*models.InventoryRecord, error)
	// Commit returns false without error when the version check lost.
	Commit(ctx context.Context, m mutation) (bool, error)
}

// MutatorConfig bounds optimistic retries.
type MutatorConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Mutator applies stock deltas with an optimistic version check and bounded retry.
type Mutator struct {
	store   mutationStore
	metrics *metrics.InventoryMetrics
	cfg     MutatorConfig
	now     func() time.Time
}

// NewMutator builds a mutator backed by the database. metrics may be nil.
func NewMutator(repo *Repository, dbClient *db.Client, emitter outbox.Emitter, m *metrics.InventoryMetrics, cfg MutatorConfig) (*Mutator, error) {
	if repo == nil || dbClient == nil || emitter == nil {
		return nil, fmt.Errorf("inventory repository, db client and emitter are required")
	}
	return newMutator(&gormMutationStore{repo: repo, dbClient: dbClient, emitter: emitter}, m, cfg), nil
}

func newMutator(store mutationStore, m *metrics.InventoryMetrics, cfg MutatorConfig) *Mutator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Mutator{
		store:   store,
		metrics: m,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ApplyDelta changes a single quantity of the record.
func (m *Mutator) ApplyDelta(ctx context.Context, inventoryID uuid.UUID, field enums.StockField, delta int, reason enums.StockMovementReason, actor string) (*models.InventoryRecord, error) {
	change := StockChange{Reason: reason, Actor: actor}
	switch field {
	case enums.StockFieldTotal:
		change.TotalDelta = delta
	case enums.StockFieldReserved:
		change.ReservedDelta = delta
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock field")
	}
	return m.Apply(ctx, inventoryID, change)
}

// Apply runs the read-check-write cycle, retrying when a concurrent writer bumps the
// version between read and write. It never clamps: a change that would break
// total >= 0, reserved >= 0 or reserved <= total fails with INSUFFICIENT_STOCK.
func (m *Mutator) Apply(ctx context.Context, inventoryID uuid.UUID, change StockChange) (*models.InventoryRecord, error) {
	if change.TotalDelta == 0 && change.ReservedDelta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one non-zero delta is required")
	}
	if !change.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock movement reason")
	}
	change.Actor = strings.TrimSpace(change.Actor)
	if change.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	return m.retry(ctx, inventoryID, func(current models.InventoryRecord) (mutation, error) {
		after, err := applyChange(current, change, m.now())
		if err != nil {
			return mutation{}, err
		}
		return mutation{
			before:    current,
			after:     after,
			movements: movementsFor(after, change),
			change:    change,
		}, nil
	}, func(mut mutation) {
		if mut.change.TotalDelta != 0 {
			m.metrics.IncAdjustment(string(enums.StockFieldTotal), string(mut.change.Reason))
		}
		if mut.change.ReservedDelta != 0 {
			m.metrics.IncAdjustment(string(enums.StockFieldReserved), string(mut.change.Reason))
		}
	})
}

// SetDiscontinued moves a record into DISCONTINUED or back to its derived status.
// Quantities are untouched and no ledger row is written.
func (m *Mutator) SetDiscontinued(ctx context.Context, inventoryID uuid.UUID, discontinued bool, actor string) (*models.InventoryRecord, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	return m.retry(ctx, inventoryID, func(current models.InventoryRecord) (mutation, error) {
		after := current
		if discontinued {
			after.Status = enums.InventoryStatusDiscontinued
		} else {
			after.Status = DeriveStatus("", after.TotalStock, after.LowStockThreshold)
		}
		after.LastUpdated = m.now()
		after.Version = current.Version + 1
		return mutation{before: current, after: after, change: StockChange{Actor: actor}}, nil
	}, nil)
}

func (m *Mutator) retry(ctx context.Context, inventoryID uuid.UUID, build func(models.InventoryRecord) (mutation, error), onCommit func(mutation)) (*models.InventoryRecord, error) {
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		current, err := m.store.Load(ctx, inventoryID)
		if err != nil {
			if isNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load inventory record")
		}
		if current.IsDeleted {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}

		mut, err := build(*current)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
				m.metrics.IncInsufficientStock(violatedField(err))
			}
			return nil, err
		}

		committed, err := m.store.Commit(ctx, mut)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: commit stock mutation")
		}
		if committed {
			if onCommit != nil {
				onCommit(mut)
			}
			after := mut.after
			return &after, nil
		}

		m.metrics.IncVersionConflict()
		if attempt == m.cfg.MaxAttempts {
			break
		}
		if err := sleepWithContext(ctx, m.cfg.RetryBackoff*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "inventory record changed concurrently; retry").
		WithDetails(map[string]any{"attempts": m.cfg.MaxAttempts})
}

type insufficientStockDetails struct {
	Field         enums.StockField `json:"field"`
	TotalStock    int              `json:"total_stock"`
	ReservedStock int              `json:"reserved_stock"`
	TotalDelta    int              `json:"total_delta"`
	ReservedDelta int              `json:"reserved_delta"`
}

// applyChange is the pure part of a mutation: new quantities, derived available
// stock and status, and the bumped version.
func applyChange(record models.InventoryRecord, change StockChange, now time.Time) (models.InventoryRecord, error) {
	total := record.TotalStock + change.TotalDelta
	reserved := record.ReservedStock + change.ReservedDelta

	var field enums.StockField
	switch {
	case total < 0:
		field = enums.StockFieldTotal
	case reserved < 0, reserved > total:
		field = enums.StockFieldReserved
	}
	if field != "" {
		return models.InventoryRecord{}, pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock change would violate stock bounds").
			WithDetails(insufficientStockDetails{
				Field:         field,
				TotalStock:    record.TotalStock,
				ReservedStock: record.ReservedStock,
				TotalDelta:    change.TotalDelta,
				ReservedDelta: change.ReservedDelta,
			})
	}

	record.TotalStock = total
	record.ReservedStock = reserved
	record.AvailableStock = AvailableStock(total, reserved)
	record.Status = DeriveStatus(record.Status, total, record.LowStockThreshold)
	record.LastUpdated = now
	record.Version++
	return record, nil
}

func violatedField(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		if details, ok := typed.Details().(insufficientStockDetails); ok {
			return string(details.Field)
		}
	}
	return "unknown"
}

func movementsFor(after models.InventoryRecord, change StockChange) []models.StockMovement {
	movements := make([]models.StockMovement, 0, 2)
	add := func(field enums.StockField, delta int) {
		if delta == 0 {
			return
		}
		movements = append(movements, models.StockMovement{
			InventoryID:    after.ID,
			VariantID:      after.VariantID,
			Field:          field,
			Delta:          delta,
			TotalAfter:     after.TotalStock,
			ReservedAfter:  after.ReservedStock,
			AvailableAfter: after.AvailableStock,
			Reason:         change.Reason,
			Actor:          change.Actor,
			Note:           change.Note,
			VersionAfter:   after.Version,
		})
	}
	add(enums.StockFieldTotal, change.TotalDelta)
	add(enums.StockFieldReserved, change.ReservedDelta)
	return movements
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var errVersionConflict = errors.New("inventory version conflict")

type gormMutationStore struct {
	repo     *Repository
	dbClient *db.Client
	emitter  outbox.Emitter
}

func (s *gormMutationStore) Load(ctx context.Context, inventoryID uuid.UUID) (*models.InventoryRecord, error) {
	return s.repo.FindByID(ctx, inventoryID)
}

// Commit writes the record, its ledger rows and events in one transaction.
func (s *gormMutationStore) Commit(ctx context.Context, m mutation) (bool, error) {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		after := m.after
		swapped, err := txRepo.CompareAndSwap(ctx, &after, m.before.Version)
		if err != nil {
			return err
		}
		if !swapped {
			return errVersionConflict
		}
		for i := range m.movements {
			if err := txRepo.CreateMovement(ctx, &m.movements[i]); err != nil {
				return err
			}
		}
		actor := &outbox.ActorRef{Actor: m.change.Actor, Source: "stock"}
		if len(m.movements) > 0 {
			if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockChanged,
				AggregateType: enums.AggregateInventoryRecord,
				AggregateID:   after.ID,
				Actor:         actor,
				Data: payloads.StockChangedEvent{
					InventoryID:    after.ID,
					VariantID:      after.VariantID,
					TotalDelta:     m.change.TotalDelta,
					ReservedDelta:  m.change.ReservedDelta,
					TotalStock:     after.TotalStock,
					ReservedStock:  after.ReservedStock,
					AvailableStock: after.AvailableStock,
					Reason:         m.change.Reason,
					Version:        after.Version,
				},
			}); err != nil {
				return err
			}
		}
		if m.before.Status != after.Status {
			return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockStatusChanged,
				AggregateType: enums.AggregateInventoryRecord,
				AggregateID:   after.ID,
				Actor:         actor,
				Data: payloads.StockStatusChangedEvent{
					InventoryID:    after.ID,
					VariantID:      after.VariantID,
					PreviousStatus: m.before.Status,
					Status:         after.Status,
					AvailableStock: after.AvailableStock,
				},
			})
		}
		return nil
	})
	if errors.Is(err, errVersionConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

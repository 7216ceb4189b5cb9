package variants

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/internal/inventory"
	"github.com/angelmondragon/catalog-backoffice/pkg/config"
	"github.com/angelmondragon/catalog-backoffice/pkg/db"
	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
	"github.com/angelmondragon/catalog-backoffice/pkg/outbox"
	"github.com/angelmondragon/catalog-backoffice/pkg/outbox/payloads"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

const (
	combinationColumn = "variants.combination_key"
	skuColumn         = "variants.sku"
	systemActor       = "system"
)

// Service exposes variant creation, matrix generation and lifecycle operations.
type Service interface {
	CreateVariant(ctx context.Context, productID uuid.UUID, input CreateVariantInput) (*VariantDTO, error)
	GenerateVariantMatrix(ctx context.Context, productID uuid.UUID, input MatrixInput) (*MatrixResult, error)
	GetVariant(ctx context.Context, variantID uuid.UUID) (*VariantDTO, error)
	ListVariants(ctx context.Context, productID uuid.UUID) ([]VariantDTO, error)
	UpdateVariant(ctx context.Context, variantID uuid.UUID, input UpdateVariantInput) (*VariantDTO, error)
	DeleteVariant(ctx context.Context, variantID uuid.UUID, actor string) error
	RepriceUnresolved(ctx context.Context, limit int) (*RepriceResult, error)
}

// PricingInput carries the price fields shared by single and matrix creation.
// Price is required; the null form only exists so a missing value can be told apart from zero.
type PricingInput struct {
	Price     decimal.NullDecimal
	Override  decimal.NullDecimal
	MRP       decimal.NullDecimal
	CostPrice decimal.NullDecimal
}

// CreateVariantInput holds the validated payload to create one variant.
type CreateVariantInput struct {
	SKU           *string
	Attributes    []types.AttributePair
	LegacySizeID  *uuid.UUID
	LegacyColorID *uuid.UUID
	Pricing       PricingInput
	// Status accepts the enum values and the legacy "true"/"false" spellings.
	Status       string
	LegacyActive *bool
	// EnsureInventory overrides the service default when set.
	EnsureInventory *bool
	Actor           string
}

// UpdateVariantInput is a partial edit. Nil and invalid fields keep the stored value;
// an empty SKU clears it. Attributes replaces the whole set when non-nil.
type UpdateVariantInput struct {
	SKU           *string
	Attributes    *[]types.AttributePair
	LegacySizeID  *uuid.UUID
	LegacyColorID *uuid.UUID
	Price         decimal.NullDecimal
	Override      decimal.NullDecimal
	ClearOverride bool
	MRP           decimal.NullDecimal
	CostPrice     decimal.NullDecimal
	Status        *string
	LegacyActive  *bool
	// ExpectedVersion rejects the edit with a conflict when the stored version differs.
	ExpectedVersion *int
	Actor           string
}

// MatrixInput describes a cartesian generation. Each axis lists attribute value ids
// of a single attribute type.
type MatrixInput struct {
	Axes            [][]uuid.UUID
	Pricing         PricingInput
	Status          string
	SKUPrefix       *string
	EnsureInventory *bool
	Actor           string
}

// Config tunes the variant service.
type Config struct {
	MaxMatrixCombinations int
	EnsureOnCreate        bool
}

type inventoryEnsurer interface {
	EnsureForVariant(ctx context.Context, variant *models.Variant) (inventory.EnsureResult, error)
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	emitter   outbox.Emitter
	inventory inventoryEnsurer
	logg      *logger.Logger
	cfg       Config
}

// NewService constructs the variant service.
func NewService(repo *Repository, dbClient *db.Client, emitter outbox.Emitter, ensurer inventoryEnsurer, logg *logger.Logger, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("variant repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if ensurer == nil {
		return nil, fmt.Errorf("inventory ensurer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MaxMatrixCombinations <= 0 || cfg.MaxMatrixCombinations > config.MaxMatrixCeiling {
		return nil, fmt.Errorf("max matrix combinations must be between 1 and %d", config.MaxMatrixCeiling)
	}
	return &service{
		repo:      repo,
		dbClient:  dbClient,
		emitter:   emitter,
		inventory: ensurer,
		logg:      logg,
		cfg:       cfg,
	}, nil
}

// CreateVariant runs the save pipeline and inserts one variant, rejecting duplicates.
func (s *service) CreateVariant(ctx context.Context, productID uuid.UUID, input CreateVariantInput) (*VariantDTO, error) {
	if err := validatePricing(input.Pricing); err != nil {
		return nil, err
	}
	if err := validatePairs(input.Attributes); err != nil {
		return nil, err
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}

	modifiers, err := s.loadModifiers(ctx, input.Attributes, input.LegacySizeID, input.LegacyColorID)
	if err != nil {
		return nil, err
	}

	variant := &models.Variant{
		ProductID:     productID,
		SKU:           normalizeSKU(input.SKU),
		Attributes:    types.AttributePairs(input.Attributes),
		LegacySizeID:  input.LegacySizeID,
		LegacyColorID: input.LegacyColorID,
		Status:        enums.VariantStatus(strings.TrimSpace(input.Status)),
		Price:         input.Pricing.Price.Decimal,
		PriceOverride: input.Pricing.Override,
		MRP:           input.Pricing.MRP,
		CostPrice:     input.Pricing.CostPrice,
	}
	if err := applySavePipeline(variant, input.LegacyActive, modifiers); err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if variant.CombinationKey != nil {
			exists, err := txRepo.CombinationExists(ctx, productID, *variant.CombinationKey, uuid.Nil)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check combination key")
			}
			if exists {
				return duplicateVariantError(productID, *variant.CombinationKey)
			}
		}
		if err := txRepo.Create(ctx, variant); err != nil {
			return mapWriteError(err, variant, "db: insert variant")
		}
		return s.emitCreated(ctx, tx, variant, input.Actor)
	}); err != nil {
		return nil, err
	}

	dto := mapVariantDTO(variant)
	s.ensureInventory(ctx, variant, &dto, input.EnsureInventory)
	return &dto, nil
}

// GenerateVariantMatrix creates one variant per combination of the axes in a single
// transaction. Combinations that already exist are skipped; exceeding the ceiling
// rejects the request before anything is written.
func (s *service) GenerateVariantMatrix(ctx context.Context, productID uuid.UUID, input MatrixInput) (*MatrixResult, error) {
	if err := validatePricing(input.Pricing); err != nil {
		return nil, err
	}
	axes, err := normalizeAxes(input.Axes)
	if err != nil {
		return nil, err
	}
	if requested := combinationCount(axes); requested > s.cfg.MaxMatrixCombinations {
		return nil, pkgerrors.New(pkgerrors.CodeExplosionGuard, "matrix exceeds the combination ceiling").
			WithDetails(map[string]any{
				"requested":        requested,
				"max_combinations": s.cfg.MaxMatrixCombinations,
			})
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}

	values, err := s.loadAxisValues(ctx, axes)
	if err != nil {
		return nil, err
	}

	candidates := make([]*models.Variant, 0, combinationCount(axes))
	for _, combo := range cartesian(axes) {
		pairs := make(types.AttributePairs, 0, len(combo))
		chosen := make([]models.AttributeValue, 0, len(combo))
		for _, valueID := range combo {
			value := values[valueID]
			pairs = append(pairs, types.AttributePair{TypeID: value.AttributeTypeID, ValueID: value.ID})
			chosen = append(chosen, value)
		}
		variant := &models.Variant{
			ProductID:     productID,
			SKU:           matrixSKU(input.SKUPrefix, chosen),
			Attributes:    pairs,
			Status:        enums.VariantStatus(strings.TrimSpace(input.Status)),
			Price:         input.Pricing.Price.Decimal,
			PriceOverride: input.Pricing.Override,
			MRP:           input.Pricing.MRP,
			CostPrice:     input.Pricing.CostPrice,
		}
		if err := applySavePipeline(variant, nil, modifiersFromValues(chosen)); err != nil {
			return nil, err
		}
		candidates = append(candidates, variant)
	}

	result := &MatrixResult{Created: []VariantDTO{}}
	var created []*models.Variant
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		keys := make([]string, 0, len(candidates))
		for _, candidate := range candidates {
			keys = append(keys, *candidate.CombinationKey)
		}
		existing, err := txRepo.ExistingCombinationKeys(ctx, productID, keys)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load existing combinations")
		}

		for i, candidate := range candidates {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, taken := existing[*candidate.CombinationKey]; taken {
				result.SkippedDuplicates++
				continue
			}
			savepoint := fmt.Sprintf("matrix_%d", i)
			if err := tx.SavePoint(savepoint).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: savepoint")
			}
			if err := txRepo.Create(ctx, candidate); err != nil {
				if !db.IsUniqueViolationOn(err, models.VariantCombinationIndex, combinationColumn) {
					return mapWriteError(err, candidate, "db: insert variant")
				}
				// lost a race with a concurrent creator of the same combination
				if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, rbErr, "db: rollback to savepoint")
				}
				result.SkippedDuplicates++
				continue
			}
			if err := s.emitCreated(ctx, tx, candidate, input.Actor); err != nil {
				return err
			}
			created = append(created, candidate)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, variant := range created {
		dto := mapVariantDTO(variant)
		s.ensureInventory(ctx, variant, &dto, input.EnsureInventory)
		result.Created = append(result.Created, dto)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": productID.String(),
		"created":    len(result.Created),
		"skipped":    result.SkippedDuplicates,
	})
	s.logg.Info(logCtx, "variant matrix generated")
	return result, nil
}

func (s *service) GetVariant(ctx context.Context, variantID uuid.UUID) (*VariantDTO, error) {
	variant, err := s.repo.FindByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load variant")
	}
	dto := mapVariantDTO(variant)
	return &dto, nil
}

func (s *service) ListVariants(ctx context.Context, productID uuid.UUID) ([]VariantDTO, error) {
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list variants")
	}
	out := make([]VariantDTO, 0, len(rows))
	for i := range rows {
		out = append(out, mapVariantDTO(&rows[i]))
	}
	return out, nil
}

// UpdateVariant applies a partial edit and re-runs the save pipeline, so a changed
// attribute set re-keys the variant and is rejected when a sibling already owns it.
func (s *service) UpdateVariant(ctx context.Context, variantID uuid.UUID, input UpdateVariantInput) (*VariantDTO, error) {
	if input.Attributes != nil {
		if err := validatePairs(*input.Attributes); err != nil {
			return nil, err
		}
	}

	variant, err := s.repo.FindByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load variant")
	}
	if variant.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if input.ExpectedVersion != nil && *input.ExpectedVersion != variant.Version {
		return nil, staleVariantError(variant)
	}

	applyEdit(variant, input)
	if err := validatePricing(PricingInput{
		Price:     decimal.NewNullDecimal(variant.Price),
		Override:  variant.PriceOverride,
		MRP:       variant.MRP,
		CostPrice: variant.CostPrice,
	}); err != nil {
		return nil, err
	}

	modifiers, err := s.loadModifiers(ctx, variant.Attributes, variant.LegacySizeID, variant.LegacyColorID)
	if err != nil {
		return nil, err
	}
	if err := applySavePipeline(variant, input.LegacyActive, modifiers); err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if variant.CombinationKey != nil {
			exists, err := txRepo.CombinationExists(ctx, variant.ProductID, *variant.CombinationKey, variant.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check combination key")
			}
			if exists {
				return duplicateVariantError(variant.ProductID, *variant.CombinationKey)
			}
		}
		if err := txRepo.Update(ctx, variant, time.Now().UTC()); err != nil {
			if errors.Is(err, errStaleVariant) {
				return staleVariantError(variant)
			}
			return mapWriteError(err, variant, "db: update variant")
		}
		if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVariantUpdated,
			AggregateType: enums.AggregateVariant,
			AggregateID:   variant.ID,
			Actor:         actorRef(input.Actor),
			Data: payloads.VariantUpdatedEvent{
				VariantID:      variant.ID,
				ProductID:      variant.ProductID,
				SKU:            variant.SKU,
				CombinationKey: variant.CombinationKey,
				Status:         variant.Status,
				FinalPrice:     variant.FinalPrice,
				PriceResolved:  variant.PriceResolved,
				Version:        variant.Version,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: emit variant_updated")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	dto := mapVariantDTO(variant)
	return &dto, nil
}

// DeleteVariant soft-deletes a live variant. Its inventory record stays behind and is
// reported as a zombie until an operator decides what to do with the stock.
func (s *service) DeleteVariant(ctx context.Context, variantID uuid.UUID, actor string) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		variant, err := txRepo.FindByID(ctx, variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load variant")
		}
		if variant.IsDeleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}

		if err := txRepo.SoftDelete(ctx, variantID, time.Now().UTC()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete variant")
		}

		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVariantDeleted,
			AggregateType: enums.AggregateVariant,
			AggregateID:   variant.ID,
			Actor:         actorRef(actor),
			Data: payloads.VariantDeletedEvent{
				VariantID: variant.ID,
				ProductID: variant.ProductID,
			},
		})
	})
}

// RepriceUnresolved re-runs the save pipeline for variants saved while their modifiers
// were unavailable. Each variant is its own unit; failures are counted, not returned.
func (s *service) RepriceUnresolved(ctx context.Context, limit int) (*RepriceResult, error) {
	rows, err := s.repo.ListUnresolvedPrices(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list unresolved prices")
	}

	result := &RepriceResult{Scanned: len(rows)}
	for i := range rows {
		if ctx.Err() != nil {
			break
		}
		variant := &rows[i]
		logCtx := s.logg.WithVariantID(ctx, variant.ID.String())

		modifiers, err := s.loadModifiers(ctx, variant.Attributes, variant.LegacySizeID, variant.LegacyColorID)
		if err != nil {
			result.Failed++
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "reprice: load modifiers failed")
			continue
		}
		if modifiers == nil {
			result.Unresolved++
			continue
		}
		if err := applySavePipeline(variant, nil, modifiers); err != nil {
			result.Failed++
			continue
		}
		if err := s.repo.UpdatePricing(ctx, variant); err != nil {
			result.Failed++
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "reprice: update failed")
			continue
		}
		result.Resolved++
	}
	return result, nil
}

func (s *service) ensureProduct(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return nil
}

// loadModifiers resolves the attribute values behind a variant. Every pair must point
// at a known value of its type. Legacy size/color ids may reference masters that were
// never migrated into attribute values; in that case it returns nil modifiers so the
// price is saved as unresolved.
func (s *service) loadModifiers(ctx context.Context, pairs []types.AttributePair, legacySize, legacyColor *uuid.UUID) ([]PriceModifier, error) {
	ids := make([]uuid.UUID, 0, len(pairs)+2)
	for _, pair := range pairs {
		ids = append(ids, pair.ValueID)
	}
	legacy := make([]uuid.UUID, 0, 2)
	for _, id := range []*uuid.UUID{legacySize, legacyColor} {
		if id != nil && *id != uuid.Nil {
			legacy = append(legacy, *id)
		}
	}
	ids = append(ids, legacy...)

	rows, err := s.repo.FindAttributeValues(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load attribute values")
	}
	byID := make(map[uuid.UUID]models.AttributeValue, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	used := make([]models.AttributeValue, 0, len(ids))
	for _, pair := range pairs {
		value, ok := byID[pair.ValueID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown attribute value").
				WithDetails(map[string]any{"value_id": pair.ValueID.String()})
		}
		if value.AttributeTypeID != pair.TypeID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "attribute value does not belong to attribute type").
				WithDetails(map[string]any{"type_id": pair.TypeID.String(), "value_id": pair.ValueID.String()})
		}
		used = append(used, value)
	}
	for _, id := range legacy {
		value, ok := byID[id]
		if !ok {
			return nil, nil
		}
		used = append(used, value)
	}
	return modifiersFromValues(used), nil
}

// loadAxisValues checks every axis value exists, each axis holds one attribute type
// and no two axes share a type.
func (s *service) loadAxisValues(ctx context.Context, axes [][]uuid.UUID) (map[uuid.UUID]models.AttributeValue, error) {
	ids := make([]uuid.UUID, 0)
	for _, axis := range axes {
		ids = append(ids, axis...)
	}
	rows, err := s.repo.FindAttributeValues(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load attribute values")
	}
	byID := make(map[uuid.UUID]models.AttributeValue, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	seenTypes := make(map[uuid.UUID]int, len(axes))
	for axisIdx, axis := range axes {
		var axisType uuid.UUID
		for _, id := range axis {
			value, ok := byID[id]
			if !ok {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown attribute value").
					WithDetails(map[string]any{"value_id": id.String()})
			}
			if axisType == uuid.Nil {
				axisType = value.AttributeTypeID
			} else if value.AttributeTypeID != axisType {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "axis mixes attribute types").
					WithDetails(map[string]any{"axis": axisIdx})
			}
		}
		if other, ok := seenTypes[axisType]; ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "attribute type used by more than one axis").
				WithDetails(map[string]any{"axes": []int{other, axisIdx}})
		}
		seenTypes[axisType] = axisIdx
	}
	return byID, nil
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, variant *models.Variant, actor string) error {
	if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventVariantCreated,
		AggregateType: enums.AggregateVariant,
		AggregateID:   variant.ID,
		Actor:         actorRef(actor),
		Data: payloads.VariantCreatedEvent{
			VariantID:      variant.ID,
			ProductID:      variant.ProductID,
			SKU:            variant.SKU,
			CombinationKey: variant.CombinationKey,
			Status:         variant.Status,
			FinalPrice:     variant.FinalPrice,
			PriceResolved:  variant.PriceResolved,
		},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox: emit variant_created")
	}
	return nil
}

// ensureInventory runs after the variant commit. A failure is logged and left to the
// reconcile sweep rather than failing a variant that already exists.
func (s *service) ensureInventory(ctx context.Context, variant *models.Variant, dto *VariantDTO, override *bool) {
	enabled := s.cfg.EnsureOnCreate
	if override != nil {
		enabled = *override
	}
	if !enabled || variant.Status == enums.VariantStatusArchived {
		return
	}

	result, err := s.inventory.EnsureForVariant(ctx, variant)
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"variant_id": variant.ID.String(),
			"error":      err.Error(),
		})
		s.logg.Warn(logCtx, "inventory ensure failed; left for reconcile sweep")
		return
	}
	id := result.InventoryID
	dto.InventoryID = &id
}

func validatePricing(input PricingInput) error {
	if !input.Price.Valid {
		return pkgerrors.New(pkgerrors.CodeValidation, "price is required")
	}
	if input.Price.Decimal.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be >= 0")
	}
	for name, value := range map[string]decimal.NullDecimal{
		"price_override": input.Override,
		"mrp":            input.MRP,
		"cost_price":     input.CostPrice,
	} {
		if value.Valid && value.Decimal.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, name+" must be >= 0")
		}
	}
	return nil
}

func validatePairs(pairs []types.AttributePair) error {
	seen := make(map[uuid.UUID]struct{}, len(pairs))
	for _, pair := range pairs {
		if !pair.Complete() {
			return pkgerrors.New(pkgerrors.CodeValidation, "attribute pairs require type_id and value_id")
		}
		if _, ok := seen[pair.TypeID]; ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "attribute type repeated").
				WithDetails(map[string]any{"type_id": pair.TypeID.String()})
		}
		seen[pair.TypeID] = struct{}{}
	}
	return nil
}

func normalizeAxes(axes [][]uuid.UUID) ([][]uuid.UUID, error) {
	if len(axes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one attribute axis is required")
	}
	out := make([][]uuid.UUID, 0, len(axes))
	for idx, axis := range axes {
		seen := make(map[uuid.UUID]struct{}, len(axis))
		values := make([]uuid.UUID, 0, len(axis))
		for _, id := range axis {
			if id == uuid.Nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "axis contains an empty value id").
					WithDetails(map[string]any{"axis": idx})
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			values = append(values, id)
		}
		if len(values) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "attribute axis is empty").
				WithDetails(map[string]any{"axis": idx})
		}
		out = append(out, values)
	}
	return out, nil
}

// combinationCount saturates at math.MaxInt.
func combinationCount(axes [][]uuid.UUID) int {
	count := 1
	for _, axis := range axes {
		if count > math.MaxInt/len(axis) {
			return math.MaxInt
		}
		count *= len(axis)
	}
	return count
}

func cartesian(axes [][]uuid.UUID) [][]uuid.UUID {
	combos := [][]uuid.UUID{{}}
	for _, axis := range axes {
		next := make([][]uuid.UUID, 0, len(combos)*len(axis))
		for _, prefix := range combos {
			for _, id := range axis {
				combo := make([]uuid.UUID, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, id))
			}
		}
		combos = next
	}
	return combos
}

func matrixSKU(prefix *string, values []models.AttributeValue) *string {
	if prefix == nil || strings.TrimSpace(*prefix) == "" {
		return nil
	}
	parts := []string{strings.TrimSpace(*prefix)}
	for _, value := range values {
		parts = append(parts, strings.ToUpper(value.Code))
	}
	sku := strings.Join(parts, "-")
	return &sku
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func applyEdit(variant *models.Variant, input UpdateVariantInput) {
	if input.SKU != nil {
		variant.SKU = normalizeSKU(input.SKU)
	}
	if input.Attributes != nil {
		variant.Attributes = types.AttributePairs(*input.Attributes)
	}
	if input.LegacySizeID != nil {
		variant.LegacySizeID = nilIfEmpty(*input.LegacySizeID)
	}
	if input.LegacyColorID != nil {
		variant.LegacyColorID = nilIfEmpty(*input.LegacyColorID)
	}
	if input.Price.Valid {
		variant.Price = input.Price.Decimal
	}
	switch {
	case input.ClearOverride:
		variant.PriceOverride = decimal.NullDecimal{}
	case input.Override.Valid:
		variant.PriceOverride = input.Override
	}
	if input.MRP.Valid {
		variant.MRP = input.MRP
	}
	if input.CostPrice.Valid {
		variant.CostPrice = input.CostPrice
	}
	if input.Status != nil {
		variant.Status = enums.VariantStatus(strings.TrimSpace(*input.Status))
	}
}

// nilIfEmpty lets callers drop a legacy reference by sending the zero uuid.
func nilIfEmpty(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func staleVariantError(variant *models.Variant) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "variant was modified concurrently").
		WithDetails(map[string]any{
			"variant_id": variant.ID.String(),
			"version":    variant.Version,
		})
}

func mapWriteError(err error, variant *models.Variant, op string) error {
	switch {
	case db.IsUniqueViolationOn(err, models.VariantCombinationIndex, combinationColumn):
		key := ""
		if variant.CombinationKey != nil {
			key = *variant.CombinationKey
		}
		return duplicateVariantError(variant.ProductID, key)
	case db.IsUniqueViolationOn(err, models.VariantSKUIndex, skuColumn):
		return pkgerrors.New(pkgerrors.CodeDuplicateVariant, "sku already in use").
			WithDetails(map[string]any{"sku": variant.SKU})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
	}
}

func duplicateVariantError(productID uuid.UUID, key string) error {
	return pkgerrors.New(pkgerrors.CodeDuplicateVariant, "variant with the same attributes already exists").
		WithDetails(map[string]any{
			"product_id":      productID.String(),
			"combination_key": key,
		})
}

func actorRef(actor string) *outbox.ActorRef {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = systemActor
	}
	return &outbox.ActorRef{Actor: actor, Source: "catalog"}
}

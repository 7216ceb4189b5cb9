package variants

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
)

// Repository persists variants and reads the product and attribute masters they reference.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindProduct returns a non-deleted product.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindAttributeValues loads the attribute values with the given ids. Missing ids are
// simply absent from the result.
func (r *Repository) FindAttributeValues(ctx context.Context, ids []uuid.UUID) ([]models.AttributeValue, error) {
	if len(ids) == 0 {
		return []models.AttributeValue{}, nil
	}
	var values []models.AttributeValue
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

// Create inserts the variant. Unique violations surface unchanged so callers can map them.
func (r *Repository) Create(ctx context.Context, variant *models.Variant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

// FindByID returns the variant whether or not it is soft-deleted.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// ListByProduct returns the non-deleted variants of a product in creation order.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Variant, error) {
	var variants []models.Variant
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_deleted = ?", productID, false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// CombinationExists reports whether another live variant of the product already uses key.
func (r *Repository) CombinationExists(ctx context.Context, productID uuid.UUID, key string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("product_id = ? AND combination_key = ? AND is_deleted = ?", productID, key, false)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistingCombinationKeys returns the subset of keys already taken by live variants of the product.
func (r *Repository) ExistingCombinationKeys(ctx context.Context, productID uuid.UUID, keys []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}
	var taken []string
	if err := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("product_id = ? AND is_deleted = ? AND combination_key IN ?", productID, false, keys).
		Pluck("combination_key", &taken).Error; err != nil {
		return nil, err
	}
	for _, key := range taken {
		existing[key] = struct{}{}
	}
	return existing, nil
}

// SoftDelete flags a live variant as deleted. It returns gorm.ErrRecordNotFound when
// no live variant matched.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": at,
			"version":    gorm.Expr("version + 1"),
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListUnresolvedPrices returns live variants whose price was saved without modifiers.
func (r *Repository) ListUnresolvedPrices(ctx context.Context, limit int) ([]models.Variant, error) {
	var variants []models.Variant
	query := r.db.WithContext(ctx).
		Where("price_resolved = ? AND is_deleted = ?", false, false).
		Order("updated_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// errStaleVariant signals that the variant changed since it was read.
var errStaleVariant = errors.New("variant version changed")

// Update writes every editable column and the pipeline outputs, guarded by the version
// read earlier. Only live variants match.
func (r *Repository) Update(ctx context.Context, variant *models.Variant, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND version = ? AND is_deleted = ?", variant.ID, variant.Version, false).
		Updates(map[string]any{
			"sku":             variant.SKU,
			"attributes":      variant.Attributes,
			"attribute_index": variant.AttributeIndex,
			"legacy_size_id":  variant.LegacySizeID,
			"legacy_color_id": variant.LegacyColorID,
			"combination_key": variant.CombinationKey,
			"status":          variant.Status,
			"price":           variant.Price,
			"price_override":  variant.PriceOverride,
			"mrp":             variant.MRP,
			"cost_price":      variant.CostPrice,
			"final_price":     variant.FinalPrice,
			"indexed_price":   variant.IndexedPrice,
			"price_resolved":  variant.PriceResolved,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleVariant
	}
	variant.Version++
	variant.UpdatedAt = at
	return nil
}

// UpdatePricing writes the pipeline outputs guarded by the version read earlier.
func (r *Repository) UpdatePricing(ctx context.Context, variant *models.Variant) error {
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND version = ?", variant.ID, variant.Version).
		Updates(map[string]any{
			"attribute_index": variant.AttributeIndex,
			"combination_key": variant.CombinationKey,
			"status":          variant.Status,
			"final_price":     variant.FinalPrice,
			"indexed_price":   variant.IndexedPrice,
			"price_resolved":  variant.PriceResolved,
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleVariant
	}
	variant.Version++
	return nil
}

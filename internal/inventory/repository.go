package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/catalog-backoffice/pkg/db/models"
	"github.com/angelmondragon/catalog-backoffice/pkg/enums"
	"github.com/angelmondragon/catalog-backoffice/pkg/pagination"
)

const defaultChunkSize = 500

// Repository persists inventory records and stock movements, and performs the batch
// reads the reconciler and diagnostics diff against.
type Repository struct {
	db        *gorm.DB
	chunkSize int
}

// NewRepository binds the repository to the provided database handle. chunkSize
// bounds IN lists; zero falls back to the default.
func NewRepository(db *gorm.DB, chunkSize int) *Repository {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Repository{db: db, chunkSize: chunkSize}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx, chunkSize: r.chunkSize}
}

// InsertIfAbsent inserts record unless a live one already exists for its variant. On
// conflict nothing is touched and created is false. The conflict target carries the
// partial index predicate so soft-deleted records never block the insert.
func (r *Repository) InsertIfAbsent(ctx context.Context, record *models.InventoryRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "variant_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "is_deleted = false"}}},
			DoNothing:   true,
		}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByID returns the record whether or not it is soft-deleted.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByVariantID returns the first-created live record for the variant.
func (r *Repository) FindByVariantID(ctx context.Context, variantID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("variant_id = ? AND is_deleted = ?", variantID, false).
		Order("created_at ASC").
		Order("id ASC").
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CompareAndSwap writes the stock fields of next when the stored version still equals
// expectedVersion. It reports false when another writer got there first.
func (r *Repository) CompareAndSwap(ctx context.Context, next *models.InventoryRecord, expectedVersion int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ? AND version = ? AND is_deleted = ?", next.ID, expectedVersion, false).
		Updates(map[string]any{
			"total_stock":     next.TotalStock,
			"reserved_stock":  next.ReservedStock,
			"available_stock": next.AvailableStock,
			"status":          next.Status,
			"last_updated":    next.LastUpdated,
			"version":         next.Version,
			"updated_at":      next.LastUpdated,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CreateMovement appends a ledger row.
func (r *Repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// ListMovements returns the newest ledger rows of a record first.
func (r *Repository) ListMovements(ctx context.Context, inventoryID uuid.UUID, limit int) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	if err := r.db.WithContext(ctx).
		Where("inventory_id = ?", inventoryID).
		Order("created_at DESC").
		Order("version_after DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLowStock pages through live records at or below maxAvailable ordered by
// (available_stock, id), which the available_stock index serves directly.
func (r *Repository) ListLowStock(ctx context.Context, maxAvailable int, cursor *pagination.StockCursor, limit int) ([]models.InventoryRecord, error) {
	query := r.db.WithContext(ctx).
		Where("is_deleted = ? AND available_stock <= ?", false, maxAvailable).
		Where("status <> ?", enums.InventoryStatusDiscontinued)
	if cursor != nil {
		query = query.Where(
			"(available_stock > ? OR (available_stock = ? AND id > ?))",
			cursor.AvailableStock, cursor.AvailableStock, cursor.ID,
		)
	}
	var rows []models.InventoryRecord
	if err := query.
		Order("available_stock ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LiveVariants returns the variants that must own an inventory record: not deleted
// and not archived, optionally limited to one product.
func (r *Repository) LiveVariants(ctx context.Context, productID *uuid.UUID) ([]models.Variant, error) {
	query := r.db.WithContext(ctx).
		Select("id", "product_id", "sku", "status", "created_at").
		Where("is_deleted = ? AND status <> ?", false, enums.VariantStatusArchived)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	var rows []models.Variant
	if err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindVariant returns a variant whether or not it is soft-deleted.
func (r *Repository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).
		Where("id = ?", variantID).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// CountLiveVariants counts the variants LiveVariants would return.
func (r *Repository) CountLiveVariants(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("is_deleted = ? AND status <> ?", false, enums.VariantStatusArchived).
		Count(&count).Error
	return count, err
}

// CountLiveInventory counts non-deleted inventory records.
func (r *Repository) CountLiveInventory(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("is_deleted = ?", false).
		Count(&count).Error
	return count, err
}

// InventoryVariantIDs returns the variant ids that have a live inventory record. A nil
// filter reads them all in one query; otherwise the filter is applied in chunks.
func (r *Repository) InventoryVariantIDs(ctx context.Context, filter []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	out := make(map[uuid.UUID]struct{})
	collect := func(query *gorm.DB) error {
		var ids []uuid.UUID
		if err := query.Pluck("variant_id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			out[id] = struct{}{}
		}
		return nil
	}

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.InventoryRecord{}).
			Where("is_deleted = ?", false)
	}
	if filter == nil {
		if err := collect(base()); err != nil {
			return nil, err
		}
		return out, nil
	}
	for _, chunk := range chunkIDs(filter, r.chunkSize) {
		if err := collect(base().Where("variant_id IN ?", chunk)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LiveInventory returns every non-deleted inventory record.
func (r *Repository) LiveInventory(ctx context.Context) ([]models.InventoryRecord, error) {
	var rows []models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// VariantDeletedFlags returns is_deleted per variant id. Ids with no variant row are absent.
func (r *Repository) VariantDeletedFlags(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(ids))
	for _, chunk := range chunkIDs(ids, r.chunkSize) {
		var rows []models.Variant
		if err := r.db.WithContext(ctx).
			Select("id", "is_deleted").
			Where("id IN ?", chunk).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.ID] = row.IsDeleted
		}
	}
	return out, nil
}

// ProductSKUs returns the sku of every live product among ids.
func (r *Repository) ProductSKUs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	for _, chunk := range chunkIDs(ids, r.chunkSize) {
		var rows []models.Product
		if err := r.db.WithContext(ctx).
			Select("id", "sku").
			Where("id IN ? AND is_deleted = ?", chunk, false).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.ID] = row.SKU
		}
	}
	return out, nil
}

type duplicateRow struct {
	VariantID uuid.UUID
	Count     int
}

// DuplicateGroups returns variant ids owning more than one live record.
func (r *Repository) DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	var rows []duplicateRow
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Select("variant_id, COUNT(*) AS count").
		Where("is_deleted = ?", false).
		Group("variant_id").
		Having("COUNT(*) > ?", 1).
		Order("variant_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	groups := make([]DuplicateGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, DuplicateGroup{VariantID: row.VariantID, Count: row.Count})
	}
	return groups, nil
}

// ListByVariant returns the live records of one variant, first-created first.
func (r *Repository) ListByVariant(ctx context.Context, variantID uuid.UUID) ([]models.InventoryRecord, error) {
	var rows []models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("variant_id = ? AND is_deleted = ?", variantID, false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SoftDelete flags the given records as deleted.
func (r *Repository) SoftDelete(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": at,
			"updated_at": at,
		})
	return res.RowsAffected, res.Error
}

func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]uuid.UUID, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

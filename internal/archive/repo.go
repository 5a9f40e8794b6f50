package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/importgroups-backend/pkg/db"
	"github.com/angelmondragon/importgroups-backend/pkg/db/models"
	"github.com/angelmondragon/importgroups-backend/pkg/enums"
	"github.com/angelmondragon/importgroups-backend/pkg/pagination"
)

// Repository exposes persistence helpers for retired import groups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Save(ctx context.Context, group *models.ArchivedGroup) (bool, error)
	List(ctx context.Context, params listParams) ([]models.ArchivedGroup, *pagination.Cursor, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ArchivedGroup, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an archive repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listParams struct {
	Limit         int
	Cursor        *pagination.Cursor
	TransportMode *enums.TransportMode
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Save inserts the group. A group archived twice reports false without error.
func (r *repositoryImpl) Save(ctx context.Context, group *models.ArchivedGroup) (bool, error) {
	err := r.db.WithContext(ctx).Create(group).Error
	if err == nil {
		return true, nil
	}
	if db.IsUniqueViolation(err, "") {
		return false, nil
	}
	return false, err
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.ArchivedGroup, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.ArchivedGroup{})
	if params.TransportMode != nil {
		query = query.Where("transport_mode = ?", *params.TransportMode)
	}
	if params.Cursor != nil {
		query = query.Where("retired_at < ? OR (retired_at = ? AND id < ?)",
			params.Cursor.At, params.Cursor.At, params.Cursor.ID.String())
	}

	var rows []models.ArchivedGroup
	if err := query.Order("retired_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		last := rows[normalized-1]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{At: last.RetiredAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.ArchivedGroup, error) {
	var row models.ArchivedGroup
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Prune deletes groups retired before the cutoff.
func (r *repositoryImpl) Prune(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("retired_at < ?", before).
		Delete(&models.ArchivedGroup{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

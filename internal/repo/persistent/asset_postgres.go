package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/postgres"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	assetsTable = "assets"

	// Columns
	idColumn           = "id"
	originalNameColumn = "original_name"
	storedNameColumn   = "stored_name"
	categoryColumn     = "category"
	extensionColumn    = "extension"
	bucketColumn       = "year_month"
	pathColumn         = "path"
	sizeColumn         = "size"
	createdAtColumn    = "created_at"
)

type AssetRepo struct {
	*postgres.Postgres
}

func NewAssetRepo(pg *postgres.Postgres) *AssetRepo {
	return &AssetRepo{pg}
}

func (r *AssetRepo) Create(ctx context.Context, asset *entity.StoredAsset) error {
	sql, args, err := r.Builder.
		Insert(assetsTable).
		Columns(
			idColumn,
			originalNameColumn,
			storedNameColumn,
			categoryColumn,
			extensionColumn,
			bucketColumn,
			pathColumn,
			sizeColumn,
			createdAtColumn,
		).
		Values(
			asset.ID,
			asset.OriginalName,
			asset.StoredName,
			asset.Category,
			asset.Extension,
			asset.Bucket,
			asset.Path,
			asset.Size,
			asset.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("AssetRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("AssetRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *AssetRepo) GetByID(ctx context.Context, id string) (*entity.StoredAsset, error) {
	sql, args, err := r.Builder.
		Select(
			idColumn,
			originalNameColumn,
			storedNameColumn,
			categoryColumn,
			extensionColumn,
			bucketColumn,
			pathColumn,
			sizeColumn,
			createdAtColumn,
		).
		From(assetsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("AssetRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var asset entity.StoredAsset
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&asset.ID,
		&asset.OriginalName,
		&asset.StoredName,
		&asset.Category,
		&asset.Extension,
		&asset.Bucket,
		&asset.Path,
		&asset.Size,
		&asset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("AssetRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("AssetRepo - GetByID - executor.QueryRow: %w", err)
	}

	return &asset, nil
}

package db

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/google/uuid"

	"github.com/lexand-dev/vid-skool/internal/core"
)

const defaultPageSize = 20

// AssetRepository persists assets with ent's SQL builder. Lifecycle writes are
// single guarded UPDATE statements so concurrent writers never need a lock.
type AssetRepository struct {
	drv *entsql.Driver
	db  *stdsql.DB
}

// NewAssetRepository constructs an asset repository on an ent SQL driver.
func NewAssetRepository(drv *entsql.Driver) *AssetRepository {
	return &AssetRepository{drv: drv, db: drv.DB()}
}

var _ core.AssetRepository = (*AssetRepository)(nil)

func (r *AssetRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

// CreateAsset inserts a new asset row.
func (r *AssetRepository) CreateAsset(ctx context.Context, asset core.Asset) error {
	query, args := r.builder().Insert(assetsTable).
		Columns(assetColumns...).
		Values(
			asset.ID,
			asset.OwnerID,
			nullableString(asset.Title),
			nullableString(asset.Description),
			nullableString(asset.CategoryRef),
			string(asset.Visibility),
			string(asset.ProcessingStatus),
			asset.ProcessingSeq,
			string(asset.CaptionStatus),
			asset.CaptionSeq,
			refValue(asset.ProviderUploadRef),
			refValue(asset.ProviderAssetRef),
			refValue(asset.ProviderPlaybackRef),
			refValue(asset.ProviderCaptionRef),
			asset.Duration.Milliseconds(),
			refValue(asset.ThumbnailKey),
			refValue(asset.ThumbnailURL),
			asset.ThumbnailRevision,
			asset.CreatedAt.UTC(),
			asset.UpdatedAt.UTC(),
		).
		Query()

	_, err := r.db.ExecContext(ctx, query, args...)
	return translateError(err)
}

// GetAsset fetches an asset by id regardless of owner.
func (r *AssetRepository) GetAsset(ctx context.Context, id uuid.UUID) (*core.Asset, error) {
	return r.getOne(ctx, entsql.EQ(colID, id))
}

// GetOwnedAsset fetches an asset scoped to its owner.
func (r *AssetRepository) GetOwnedAsset(ctx context.Context, id uuid.UUID, ownerID string) (*core.Asset, error) {
	return r.getOne(ctx, ownedBy(id, ownerID))
}

// GetAssetByUploadRef resolves the provider's upload ref to the local row.
func (r *AssetRepository) GetAssetByUploadRef(ctx context.Context, uploadRef string) (*core.Asset, error) {
	if uploadRef == "" {
		return nil, core.ErrNotFound
	}
	return r.getOne(ctx, entsql.EQ(colUploadRef, uploadRef))
}

func (r *AssetRepository) getOne(ctx context.Context, where *entsql.Predicate) (*core.Asset, error) {
	b := r.builder()
	query, args := b.Select(assetColumns...).
		From(b.Table(assetsTable)).
		Where(where).
		Limit(1).
		Query()

	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// ListOwnedAssets lists an owner's assets newest first using offset tokens.
func (r *AssetRepository) ListOwnedAssets(ctx context.Context, filter core.AssetListFilter) ([]core.Asset, string, error) {
	offset, err := parseOffset(filter.PageToken)
	if err != nil {
		return nil, "", err
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	b := r.builder()
	query, args := b.Select(assetColumns...).
		From(b.Table(assetsTable)).
		Where(entsql.EQ(colOwnerID, filter.OwnerID)).
		OrderBy(entsql.Desc(colCreatedAt), entsql.Desc(colID)).
		Offset(offset).
		Limit(pageSize + 1).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	assets := make([]core.Asset, 0, pageSize)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, "", err
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	nextToken := ""
	if len(assets) > pageSize {
		assets = assets[:pageSize]
		nextToken = strconv.Itoa(offset + pageSize)
	}
	return assets, nextToken, nil
}

// UpdateOwnedAsset applies the user-editable fields in one scoped statement.
func (r *AssetRepository) UpdateOwnedAsset(ctx context.Context, id uuid.UUID, ownerID string, patch core.AssetPatch, at time.Time) (*core.Asset, error) {
	update := r.builder().Update(assetsTable).
		Set(colUpdatedAt, at.UTC()).
		Where(ownedBy(id, ownerID))

	if patch.Title != nil {
		update.Set(colTitle, *patch.Title)
	}
	if patch.Description != nil {
		update.Set(colDescription, *patch.Description)
	}
	if patch.Visibility != nil {
		update.Set(colVisibility, string(*patch.Visibility))
	}
	if patch.CategoryRef != nil {
		if *patch.CategoryRef == "" {
			update.SetNull(colCategoryRef)
		} else {
			update.Set(colCategoryRef, *patch.CategoryRef)
		}
	}

	ok, err := r.exec(ctx, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrNotFound
	}
	return r.GetOwnedAsset(ctx, id, ownerID)
}

// DeleteOwnedAsset removes the owned row and returns it as it was.
func (r *AssetRepository) DeleteOwnedAsset(ctx context.Context, id uuid.UUID, ownerID string) (*core.Asset, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	b := r.builder()
	selectQuery, selectArgs := b.Select(assetColumns...).
		From(b.Table(assetsTable)).
		Where(ownedBy(id, ownerID)).
		Query()
	asset, err := scanAsset(tx.QueryRowContext(ctx, selectQuery, selectArgs...))
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	deleteQuery, deleteArgs := b.Delete(assetsTable).Where(ownedBy(id, ownerID)).Query()
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return asset, nil
}

// SwapProcessing writes next only if the row addressed by uploadRef still
// holds expected.
func (r *AssetRepository) SwapProcessing(ctx context.Context, uploadRef string, expected, next core.ProcessingState, at time.Time) (bool, error) {
	update := r.builder().Update(assetsTable).
		Set(colProcessingStatus, string(next.Status)).
		Set(colProcessingSeq, next.Seq).
		Set(colDurationMillis, next.Duration.Milliseconds()).
		Set(colUpdatedAt, at.UTC()).
		Where(entsql.And(
			entsql.EQ(colUploadRef, uploadRef),
			entsql.EQ(colProcessingStatus, string(expected.Status)),
			entsql.EQ(colProcessingSeq, expected.Seq),
			eqRef(colAssetRef, expected.AssetRef),
			eqRef(colPlaybackRef, expected.PlaybackRef),
		))
	setRef(update, colAssetRef, next.AssetRef)
	setRef(update, colPlaybackRef, next.PlaybackRef)
	return r.exec(ctx, update)
}

// SwapCaption is the caption analog of SwapProcessing.
func (r *AssetRepository) SwapCaption(ctx context.Context, uploadRef string, expected, next core.CaptionState, at time.Time) (bool, error) {
	update := r.builder().Update(assetsTable).
		Set(colCaptionStatus, string(next.Status)).
		Set(colCaptionSeq, next.Seq).
		Set(colUpdatedAt, at.UTC()).
		Where(entsql.And(
			entsql.EQ(colUploadRef, uploadRef),
			entsql.EQ(colCaptionStatus, string(expected.Status)),
			entsql.EQ(colCaptionSeq, expected.Seq),
			eqRef(colCaptionRef, expected.CaptionRef),
		))
	setRef(update, colCaptionRef, next.CaptionRef)
	return r.exec(ctx, update)
}

// SwapThumbnail moves the thumbnail pointer and bumps the revision if the
// revision is still the expected one.
func (r *AssetRepository) SwapThumbnail(ctx context.Context, swap core.ThumbnailSwap, at time.Time) (bool, error) {
	where := entsql.And(
		entsql.EQ(colID, swap.AssetID),
		entsql.EQ(colThumbnailRevision, swap.ExpectedRevision),
	)
	if swap.OwnerID != "" {
		where = entsql.And(where, entsql.EQ(colOwnerID, swap.OwnerID))
	}

	update := r.builder().Update(assetsTable).
		Set(colThumbnailRevision, swap.ExpectedRevision+1).
		Set(colUpdatedAt, at.UTC()).
		Where(where)
	setRef(update, colThumbnailKey, swap.Key)
	setRef(update, colThumbnailURL, swap.URL)
	return r.exec(ctx, update)
}

// SetEnrichedText overwrites the title or description produced by an
// enrichment job. It reports false when the asset no longer exists.
func (r *AssetRepository) SetEnrichedText(ctx context.Context, id uuid.UUID, kind core.EnrichmentKind, text string, at time.Time) (bool, error) {
	var column string
	switch kind {
	case core.EnrichmentTitle:
		column = colTitle
	case core.EnrichmentDescription:
		column = colDescription
	default:
		return false, fmt.Errorf("%w: %s does not produce text", core.ErrValidation, kind)
	}

	update := r.builder().Update(assetsTable).
		Set(column, text).
		Set(colUpdatedAt, at.UTC()).
		Where(entsql.EQ(colID, id))
	return r.exec(ctx, update)
}

func (r *AssetRepository) exec(ctx context.Context, update *entsql.UpdateBuilder) (bool, error) {
	query, args := update.Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, translateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func ownedBy(id uuid.UUID, ownerID string) *entsql.Predicate {
	return entsql.And(entsql.EQ(colID, id), entsql.EQ(colOwnerID, ownerID))
}

func eqRef(column, value string) *entsql.Predicate {
	if value == "" {
		return entsql.IsNull(column)
	}
	return entsql.EQ(column, value)
}

func setRef(update *entsql.UpdateBuilder, column, value string) {
	if value == "" {
		update.SetNull(column)
		return
	}
	update.Set(column, value)
}

func refValue(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if sqlgraph.IsUniqueConstraintError(err) {
		return fmt.Errorf("%w: %v", core.ErrConflict, err)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*core.Asset, error) {
	var (
		asset            core.Asset
		title            stdsql.NullString
		description      stdsql.NullString
		categoryRef      stdsql.NullString
		visibility       string
		processingStatus string
		captionStatus    string
		uploadRef        stdsql.NullString
		assetRef         stdsql.NullString
		playbackRef      stdsql.NullString
		captionRef       stdsql.NullString
		thumbnailKey     stdsql.NullString
		thumbnailURL     stdsql.NullString
		durationMillis   int64
	)

	err := row.Scan(
		&asset.ID,
		&asset.OwnerID,
		&title,
		&description,
		&categoryRef,
		&visibility,
		&processingStatus,
		&asset.ProcessingSeq,
		&captionStatus,
		&asset.CaptionSeq,
		&uploadRef,
		&assetRef,
		&playbackRef,
		&captionRef,
		&durationMillis,
		&thumbnailKey,
		&thumbnailURL,
		&asset.ThumbnailRevision,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	asset.Title = stringPtr(title)
	asset.Description = stringPtr(description)
	asset.CategoryRef = stringPtr(categoryRef)
	asset.Visibility = core.Visibility(visibility)
	asset.ProcessingStatus = core.ProcessingStatus(processingStatus)
	asset.CaptionStatus = core.CaptionStatus(captionStatus)
	asset.ProviderUploadRef = uploadRef.String
	asset.ProviderAssetRef = assetRef.String
	asset.ProviderPlaybackRef = playbackRef.String
	asset.ProviderCaptionRef = captionRef.String
	asset.Duration = time.Duration(durationMillis) * time.Millisecond
	asset.ThumbnailKey = thumbnailKey.String
	asset.ThumbnailURL = thumbnailURL.String
	asset.CreatedAt = asset.CreatedAt.UTC()
	asset.UpdatedAt = asset.UpdatedAt.UTC()
	return &asset, nil
}

func stringPtr(value stdsql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func parseOffset(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidPageToken, token)
	}
	return offset, nil
}

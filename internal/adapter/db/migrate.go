package db

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const assetsTable = "assets"

const (
	colID                = "id"
	colOwnerID           = "owner_id"
	colTitle             = "title"
	colDescription       = "description"
	colCategoryRef       = "category_ref"
	colVisibility        = "visibility"
	colProcessingStatus  = "processing_status"
	colProcessingSeq     = "processing_seq"
	colCaptionStatus     = "caption_status"
	colCaptionSeq        = "caption_seq"
	colUploadRef         = "provider_upload_ref"
	colAssetRef          = "provider_asset_ref"
	colPlaybackRef       = "provider_playback_ref"
	colCaptionRef        = "provider_caption_ref"
	colDurationMillis    = "duration_ms"
	colThumbnailKey      = "thumbnail_key"
	colThumbnailURL      = "thumbnail_url"
	colThumbnailRevision = "thumbnail_revision"
	colCreatedAt         = "created_at"
	colUpdatedAt         = "updated_at"
)

var assetColumns = []string{
	colID, colOwnerID, colTitle, colDescription, colCategoryRef, colVisibility,
	colProcessingStatus, colProcessingSeq, colCaptionStatus, colCaptionSeq,
	colUploadRef, colAssetRef, colPlaybackRef, colCaptionRef, colDurationMillis,
	colThumbnailKey, colThumbnailURL, colThumbnailRevision, colCreatedAt, colUpdatedAt,
}

var (
	assetsIDColumn        = &schema.Column{Name: colID, Type: field.TypeUUID, Unique: true}
	assetsOwnerColumn     = &schema.Column{Name: colOwnerID, Type: field.TypeString, Size: 128}
	assetsCreatedAtColumn = &schema.Column{Name: colCreatedAt, Type: field.TypeTime}

	// AssetsTable is the only table of the service.
	AssetsTable = &schema.Table{
		Name: assetsTable,
		Columns: []*schema.Column{
			assetsIDColumn,
			assetsOwnerColumn,
			{Name: colTitle, Type: field.TypeString, Nullable: true},
			{Name: colDescription, Type: field.TypeString, Size: 5000, Nullable: true},
			{Name: colCategoryRef, Type: field.TypeString, Nullable: true},
			{Name: colVisibility, Type: field.TypeString, Size: 16, Default: "private"},
			{Name: colProcessingStatus, Type: field.TypeString, Size: 16, Default: "pending"},
			{Name: colProcessingSeq, Type: field.TypeInt64, Default: 0},
			{Name: colCaptionStatus, Type: field.TypeString, Size: 16, Default: "none"},
			{Name: colCaptionSeq, Type: field.TypeInt64, Default: 0},
			{Name: colUploadRef, Type: field.TypeString, Unique: true, Nullable: true},
			{Name: colAssetRef, Type: field.TypeString, Unique: true, Nullable: true},
			{Name: colPlaybackRef, Type: field.TypeString, Unique: true, Nullable: true},
			{Name: colCaptionRef, Type: field.TypeString, Unique: true, Nullable: true},
			{Name: colDurationMillis, Type: field.TypeInt64, Default: 0},
			{Name: colThumbnailKey, Type: field.TypeString, Nullable: true},
			{Name: colThumbnailURL, Type: field.TypeString, Size: 2048, Nullable: true},
			{Name: colThumbnailRevision, Type: field.TypeInt64, Default: 0},
			assetsCreatedAtColumn,
			{Name: colUpdatedAt, Type: field.TypeTime},
		},
		PrimaryKey: []*schema.Column{assetsIDColumn},
		Indexes: []*schema.Index{
			{
				Name:    "asset_owner_id_created_at",
				Columns: []*schema.Column{assetsOwnerColumn, assetsCreatedAtColumn},
			},
		},
	}
)

// Migrate creates or upgrades the schema on the given driver.
func Migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, AssetsTable); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

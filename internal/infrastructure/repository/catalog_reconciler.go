package repository

import (
	"context"
	"fmt"
	"time"

	domain "github.com/desguapro/catalog-sync/internal/domain/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogReconciler applies a page of supplier records to the local catalog:
// stage the page with COPY, upsert by external id with a content-hash guard,
// and count inserted vs updated rows via the xmax trick. Unchanged rows are
// filtered by the hash guard and surface as skipped.
type CatalogReconciler struct {
	pool *pgxpool.Pool
}

func NewCatalogReconciler(pool *pgxpool.Pool) *CatalogReconciler {
	return &CatalogReconciler{pool: pool}
}

type reconcileTarget struct {
	staging string
	table   string
}

func targetFor(entityType domain.EntityType) (reconcileTarget, error) {
	switch entityType {
	case domain.EntityVehicles:
		return reconcileTarget{staging: "stg_vehicles", table: "vehicles"}, nil
	case domain.EntityParts:
		return reconcileTarget{staging: "stg_parts", table: "parts"}, nil
	}
	return reconcileTarget{}, fmt.Errorf("unknown entity type %q", entityType)
}

// EnsureStaging creates the staging tables the page loop copies into.
// Unlogged: staged rows never need to survive a crash, the page is
// re-fetched from the cursor instead.
func (r *CatalogReconciler) EnsureStaging(ctx context.Context) error {
	for _, staging := range []string{"stg_vehicles", "stg_parts"} {
		if _, err := r.pool.Exec(ctx, fmt.Sprintf(`
CREATE UNLOGGED TABLE IF NOT EXISTS %s (
    job_id       TEXT NOT NULL,
    external_id  BIGINT NOT NULL,
    brand        TEXT,
    model        TEXT,
    version      TEXT,
    year         INT,
    description  TEXT,
    price        NUMERIC(12,2),
    image_count  INT,
    content_hash TEXT
)`, staging)); err != nil {
			return fmt.Errorf("create staging table %s: %w", staging, err)
		}
		if _, err := r.pool.Exec(ctx, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_job ON %s (job_id, external_id)", staging, staging,
		)); err != nil {
			return fmt.Errorf("index staging table %s: %w", staging, err)
		}
	}
	return nil
}

func (r *CatalogReconciler) ReconcilePage(ctx context.Context, jobID string, entityType domain.EntityType, records []domain.SupplierRecord) (domain.ReconcileResult, error) {
	if len(records) == 0 {
		return domain.ReconcileResult{}, nil
	}

	target, err := targetFor(entityType)
	if err != nil {
		return domain.ReconcileResult{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, []any{
			jobID,
			record.ExternalID,
			record.Brand,
			record.Model,
			record.Version,
			record.Year,
			record.Description,
			record.Price,
			len(record.Images),
			record.ContentHash(),
		})
	}

	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{target.staging},
		[]string{"job_id", "external_id", "brand", "model", "version", "year", "description", "price", "image_count", "content_hash"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("copy %s staging: %w", entityType, err)
	}

	var staged int64
	if err := tx.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(DISTINCT external_id) FROM %s WHERE job_id = $1", target.staging),
		jobID,
	).Scan(&staged); err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("count staged %s: %w", entityType, err)
	}

	inserted, updated, err := upsertStaged(ctx, tx, target, jobID, now)
	if err != nil {
		return domain.ReconcileResult{}, err
	}

	if _, err := tx.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE job_id = $1", target.staging), jobID,
	); err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("cleanup %s staging: %w", entityType, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ReconcileResult{}, fmt.Errorf("commit reconcile page: %w", err)
	}

	return domain.ReconcileResult{
		New:       inserted,
		Updated:   updated,
		Unchanged: staged - inserted - updated,
	}, nil
}

// upsertStaged applies the staged page. The hash guard on DO UPDATE keeps
// unchanged rows out of the RETURNING set; last_seen_at still has to be
// stamped for them so full-import deactivation does not flag live rows,
// hence the separate touch statement.
func upsertStaged(ctx context.Context, tx pgx.Tx, target reconcileTarget, jobID string, now time.Time) (int64, int64, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf(`
WITH staged AS (
    SELECT DISTINCT ON (external_id)
      external_id, brand, model, version, year, description, price, image_count, content_hash
    FROM %s
    WHERE job_id = $1
    ORDER BY external_id
), upserted AS (
    INSERT INTO %s (external_id, brand, model, version, year, description, price, image_count, content_hash, active, last_seen_at, created_at, updated_at)
    SELECT external_id, brand, model, version, year, description, price, image_count, content_hash, TRUE, $2, $2, $2
    FROM staged
    ON CONFLICT (external_id) DO UPDATE
      SET brand = EXCLUDED.brand,
          model = EXCLUDED.model,
          version = EXCLUDED.version,
          year = EXCLUDED.year,
          description = EXCLUDED.description,
          price = EXCLUDED.price,
          image_count = EXCLUDED.image_count,
          content_hash = EXCLUDED.content_hash,
          active = TRUE,
          last_seen_at = EXCLUDED.last_seen_at,
          updated_at = EXCLUDED.updated_at
      WHERE %s.content_hash IS DISTINCT FROM EXCLUDED.content_hash
    RETURNING (xmax = 0) AS inserted
)
SELECT inserted FROM upserted
`, target.staging, target.table, target.table), jobID, now)
	if err != nil {
		return 0, 0, fmt.Errorf("upsert %s: %w", target.table, err)
	}
	defer rows.Close()

	inserted, updated, err := countInsertedUpdated(rows)
	if err != nil {
		return 0, 0, err
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`
UPDATE %s t
SET last_seen_at = $2
FROM %s s
WHERE s.job_id = $1 AND s.external_id = t.external_id
`, target.table, target.staging), jobID, now); err != nil {
		return 0, 0, fmt.Errorf("touch %s last_seen_at: %w", target.table, err)
	}

	return inserted, updated, nil
}

// DeactivateMissing soft-deletes rows not observed since the given run
// start. Used after a completed full import to reconcile supplier-side
// deletions without breaking order history references.
func (r *CatalogReconciler) DeactivateMissing(ctx context.Context, entityType domain.EntityType, before time.Time) (int64, error) {
	target, err := targetFor(entityType)
	if err != nil {
		return 0, err
	}

	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`
UPDATE %s
SET active = FALSE, updated_at = NOW()
WHERE active = TRUE AND last_seen_at < $1
`, target.table), before)
	if err != nil {
		return 0, fmt.Errorf("deactivate missing %s: %w", entityType, err)
	}
	return tag.RowsAffected(), nil
}

// CountRows reports total and active row counts for the dashboard.
func (r *CatalogReconciler) CountRows(ctx context.Context, entityType domain.EntityType) (total int64, active int64, err error) {
	target, err := targetFor(entityType)
	if err != nil {
		return 0, 0, err
	}

	if err := r.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE active) FROM %s", target.table,
	)).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("count %s rows: %w", entityType, err)
	}
	return total, active, nil
}

func countInsertedUpdated(rows pgx.Rows) (int64, int64, error) {
	var inserted int64
	var updated int64

	for rows.Next() {
		var isInsert bool
		if err := rows.Scan(&isInsert); err != nil {
			return 0, 0, err
		}
		if isInsert {
			inserted++
		} else {
			updated++
		}
	}

	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	return inserted, updated, nil
}

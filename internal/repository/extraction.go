package repository

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/shopspring/decimal"
)

// ExtractionRepository persists pipeline results and their line items.
type ExtractionRepository interface {
	Save(ctx context.Context, budgetID string, res *entity.ExtractionResult) (*entity.ExtractionRecord, error)
	SaveFailure(ctx context.Context, budgetID, fileName string, contentHash []byte, cause error) (*entity.ExtractionRecord, error)
	FindByHash(ctx context.Context, contentHash []byte) (*entity.ExtractionRecord, error)
	ListItems(ctx context.Context, extractionID uuid.UUID) ([]entity.LineItem, error)
	ListByBudget(ctx context.Context, budgetID string) ([]entity.ExtractionRecord, error)
}

type extractionRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionRepository(db *DB, log *slog.Logger) ExtractionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionRepo{db: db, log: log}
}

const extractionColumns = `id, budget_id, file_name, content_hash, status, format, confidence, item_count, warnings, total, created_at`

func (r *extractionRepo) Save(ctx context.Context, budgetID string, res *entity.ExtractionResult) (*entity.ExtractionRecord, error) {
	if err := common.NewValidator().Field("budget_id", budgetID, common.Required, common.MaxLength(128)).Error(); err != nil {
		return nil, err
	}
	if res == nil {
		return nil, common.NewAppError(common.CodeValidation, "nil extraction result", common.ErrInvalidInput)
	}
	hash, err := decodeHash(res.Document.ContentHash)
	if err != nil {
		return nil, err
	}
	rec := &entity.ExtractionRecord{
		ID:          uuid.New(),
		BudgetID:    budgetID,
		FileName:    res.Document.Name,
		ContentHash: hash,
		Status:      constants.JobStatusExtracted,
		Format:      res.Format,
		Confidence:  res.Confidence,
		ItemCount:   len(res.Items),
		Warnings:    res.Warnings,
		Total:       statedOrSummed(res),
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return nil, r.dbError("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.insertRecord(ctx, tx, rec, ""); err != nil {
		return nil, err
	}
	stmt := r.db.rebind(`INSERT INTO line_items (extraction_id, position, code, description, unit, quantity, unit_price, total_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, it := range res.Items {
		if _, err := tx.ExecContext(ctx, stmt, rec.ID, i, it.Code, it.Description, it.Unit, it.Quantity, it.UnitPrice, it.TotalPrice); err != nil {
			return nil, r.dbError("insert line item", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, r.dbError("commit", err)
	}
	r.log.Info("extraction.saved", "id", rec.ID, "budget_id", budgetID, "items", rec.ItemCount)
	return rec, nil
}

func (r *extractionRepo) SaveFailure(ctx context.Context, budgetID, fileName string, contentHash []byte, cause error) (*entity.ExtractionRecord, error) {
	rec := &entity.ExtractionRecord{
		ID:          uuid.New(),
		BudgetID:    budgetID,
		FileName:    fileName,
		ContentHash: contentHash,
		Status:      constants.JobStatusFailed,
		Format:      constants.FormatUnknown,
		CreatedAt:   time.Now().UTC(),
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := r.insertRecord(ctx, r.db.SQL, rec, msg); err != nil {
		return nil, err
	}
	r.log.Warn("extraction.failed.saved", "id", rec.ID, "budget_id", budgetID, "file", fileName, "error", msg)
	return rec, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *extractionRepo) insertRecord(ctx context.Context, ex execer, rec *entity.ExtractionRecord, errMsg string) error {
	warnings, err := json.Marshal(nonNil(rec.Warnings))
	if err != nil {
		return common.WrapError(err, "encode warnings")
	}
	hash := rec.ContentHash
	if hash == nil {
		hash = []byte{}
	}
	_, err = ex.ExecContext(ctx, r.db.rebind(`INSERT INTO extractions
		(`+extractionColumns+`, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.BudgetID, rec.FileName, hash, string(rec.Status), string(rec.Format),
		rec.Confidence, rec.ItemCount, string(warnings), rec.Total, rec.CreatedAt.UnixMilli(), errMsg)
	if err != nil {
		return r.dbError("insert extraction", err)
	}
	return nil
}

// FindByHash returns the latest successful extraction of a document, or common.ErrNotFound.
func (r *extractionRepo) FindByHash(ctx context.Context, contentHash []byte) (*entity.ExtractionRecord, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.rebind(`SELECT `+extractionColumns+` FROM extractions
		WHERE content_hash = ? AND status = ? ORDER BY created_at DESC LIMIT 1`),
		contentHash, string(constants.JobStatusExtracted))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "no extraction for content hash", common.ErrNotFound)
	}
	if err != nil {
		return nil, r.dbError("find by hash", err)
	}
	return rec, nil
}

func (r *extractionRepo) ListItems(ctx context.Context, extractionID uuid.UUID) ([]entity.LineItem, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT code, description, unit, quantity, unit_price, total_price
		FROM line_items WHERE extraction_id = ? ORDER BY position`), extractionID)
	if err != nil {
		return nil, r.dbError("list items", err)
	}
	defer rows.Close()

	items := []entity.LineItem{}
	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(&it.Code, &it.Description, &it.Unit, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, r.dbError("scan item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbError("list items", err)
	}
	return items, nil
}

func (r *extractionRepo) ListByBudget(ctx context.Context, budgetID string) ([]entity.ExtractionRecord, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(`SELECT `+extractionColumns+` FROM extractions
		WHERE budget_id = ? ORDER BY created_at, id`), budgetID)
	if err != nil {
		return nil, r.dbError("list by budget", err)
	}
	defer rows.Close()

	var out []entity.ExtractionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, r.dbError("scan extraction", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbError("list by budget", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*entity.ExtractionRecord, error) {
	var (
		rec      entity.ExtractionRecord
		status   string
		format   string
		warnings string
		created  int64
	)
	err := s.Scan(&rec.ID, &rec.BudgetID, &rec.FileName, &rec.ContentHash, &status, &format,
		&rec.Confidence, &rec.ItemCount, &warnings, &rec.Total, &created)
	if err != nil {
		return nil, err
	}
	rec.Status = constants.JobStatus(status)
	rec.Format = constants.Format(format)
	rec.CreatedAt = time.UnixMilli(created).UTC()
	if warnings != "" {
		if err := json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func (r *extractionRepo) dbError(op string, err error) error {
	r.log.Error("extraction repository "+op+" failed", "error", err)
	return common.NewAppError(common.CodeDatabase, op, errors.Join(common.ErrDatabase, err))
}

// statedOrSummed prefers the document's stated total over the sum of item totals.
func statedOrSummed(res *entity.ExtractionResult) decimal.NullDecimal {
	if res.Totals.Total.Valid {
		return res.Totals.Total
	}
	if len(res.Items) == 0 {
		return decimal.NullDecimal{}
	}
	return entity.Dec(res.ItemsTotal())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func decodeHash(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, common.NewAppError(common.CodeValidation, "content hash is not hex", common.ErrInvalidInput)
	}
	return b, nil
}

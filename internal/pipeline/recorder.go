package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/async"
	"github.com/joseph-ayodele/budget-extractor/internal/common"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/ingest"
	"github.com/joseph-ayodele/budget-extractor/internal/repository"
)

// Recorder processes queued documents and persists each outcome, skipping files whose content
// was already extracted unless Force is set.
type Recorder struct {
	proc   *Processor
	repo   repository.ExtractionRepository
	logger *slog.Logger

	Force bool
	// OnResult, when set, receives every successful result. It may be called concurrently.
	OnResult func(job async.Job, res *entity.ExtractionResult)
}

func NewRecorder(proc *Processor, repo repository.ExtractionRepository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{proc: proc, repo: repo, logger: logger}
}

// Handle is an async.Handler.
func (r *Recorder) Handle(ctx context.Context, job async.Job) error {
	ctx = common.WithBudgetID(common.WithRequestID(ctx, job.ID.String()), job.BudgetID)
	name := filepath.Base(job.Path)
	if _, err := r.proc.st.Loader.Check(job.Path); err != nil {
		r.logger.Warn("pipeline.record.rejected", "path", job.Path, "error", err)
		return err
	}
	sum, err := ingest.HashFile(job.Path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", name, err)
	}
	hash, err := hex.DecodeString(sum)
	if err != nil {
		return err
	}

	if !r.Force {
		prev, err := r.repo.FindByHash(ctx, hash)
		switch {
		case err == nil:
			r.logger.Info("pipeline.record.duplicate", "path", job.Path, "extraction_id", prev.ID)
			return nil
		case !errors.Is(err, common.ErrNotFound):
			return err
		}
	}

	hint, _ := constants.ParseFormat(job.FormatHint)
	res, err := r.proc.Process(ctx, job.Path, Options{FormatHint: hint})
	if err != nil {
		// only a rejected document is final; anything else may succeed on a later run
		if common.IsFatal(err) {
			if _, serr := r.repo.SaveFailure(ctx, job.BudgetID, name, hash, err); serr != nil {
				r.logger.Error("pipeline.record.failure.save", "path", job.Path, "error", serr)
			}
		}
		return err
	}

	rec, err := r.repo.Save(ctx, job.BudgetID, res)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	r.logger.Info("pipeline.record.ok", "path", job.Path, "extraction_id", rec.ID, "items", rec.ItemCount)
	if r.OnResult != nil {
		r.OnResult(job, res)
	}
	return nil
}

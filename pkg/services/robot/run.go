package robot

import (
	"context"
	"fmt"

	"orderbot/pkg/models"
	"orderbot/pkg/services/receipt"

	"go.uber.org/zap"
)

// OrderSource yields the orders of a run.
type OrderSource interface {
	Fetch(ctx context.Context) ([]models.Order, error)
}

// ReceiptComposer stores the receipt shown after a successful submit.
type ReceiptComposer interface {
	Compose(ctx context.Context, orderNumber string) (receipt.Artifacts, error)
}

// Recorder persists order outcomes.
type Recorder interface {
	Record(ctx context.Context, rec models.OrderRecord) error
}

// Pipeline runs the whole order workflow once: fetch, process every order in
// table order, then archive the output directory.
type Pipeline struct {
	RunID    string
	Orders   OrderSource
	Robot    *Robot
	Receipts ReceiptComposer
	// Archive bundles the output directory and reports the archive path and
	// the number of files stored.
	Archive func() (string, int, error)
	// Ledger is optional.
	Ledger Recorder
	Log    *zap.Logger
}

// Summary describes a finished or aborted run.
type Summary struct {
	RunID   string
	Records []models.OrderRecord
	Archive string
}

// Run processes every order. The first fatal error stops the run; the files
// already written stay in place and the archive is not built.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	log := p.Log.With(zap.String("run", p.RunID))
	sum := Summary{RunID: p.RunID}

	list, err := p.Orders.Fetch(ctx)
	if err != nil {
		return sum, fmt.Errorf("fetch orders: %w", err)
	}
	log.Info("Run started", zap.Int("orders", len(list)))

	for i, o := range list {
		log.Info("Processing order", zap.String("order", o.Number), zap.Int("index", i+1), zap.Int("of", len(list)))
		rec, err := p.process(ctx, o)
		p.record(ctx, log, rec)
		sum.Records = append(sum.Records, rec)
		if err != nil {
			log.Error("Run aborted", zap.String("order", o.Number), zap.Error(err))
			return sum, err
		}
	}

	path, files, err := p.Archive()
	if err != nil {
		return sum, fmt.Errorf("archive receipts: %w", err)
	}
	sum.Archive = path
	log.Info("Run finished", zap.Int("orders", len(sum.Records)), zap.String("archive", path), zap.Int("files", files))
	return sum, nil
}

func (p *Pipeline) process(ctx context.Context, o models.Order) (models.OrderRecord, error) {
	rec := models.OrderRecord{RunID: p.RunID, OrderNumber: o.Number}
	fail := func(err error) (models.OrderRecord, error) {
		rec.Status = models.StatusFailed
		rec.Error = err.Error()
		return rec, err
	}

	p.Robot.DismissDialog(ctx)
	if err := p.Robot.Fill(ctx, o); err != nil {
		return fail(err)
	}
	if err := p.Robot.Preview(ctx); err != nil {
		return fail(err)
	}

	sub, err := p.Robot.Submit(ctx, o.Number)
	rec.Attempts = sub.Attempts
	rec.Reloads = sub.Reloads
	if err != nil {
		return fail(err)
	}
	rec.Status = models.StatusSuccess
	if sub.State == ExhaustedRetries {
		rec.Status = models.StatusExhaustedRetries
	}

	art, err := p.Receipts.Compose(ctx, o.Number)
	if err != nil {
		return fail(fmt.Errorf("receipt for order %s: %w", o.Number, err))
	}
	rec.ReceiptPath = art.Receipt
	rec.ScreenshotPath = art.Screenshot

	if err := p.Robot.OrderAnother(ctx); err != nil {
		return fail(err)
	}
	return rec, nil
}

func (p *Pipeline) record(ctx context.Context, log *zap.Logger, rec models.OrderRecord) {
	if p.Ledger == nil {
		return
	}
	if err := p.Ledger.Record(ctx, rec); err != nil {
		log.Warn("Failed to write ledger entry", zap.String("order", rec.OrderNumber), zap.Error(err))
	}
}

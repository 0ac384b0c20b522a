package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/nemopss/budgetly/ledger"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/models"
)

type Recorder interface {
	Record(ctx context.Context, userID int64, in models.CreateTransaction) (*models.Transaction, error)
}

// key identifies the line across imports: its FITID, or its content when the bank sent none.
func (l Line) key() string {
	if id := strings.TrimSpace(l.FitID); id != "" {
		return "ofx:" + id
	}
	return fmt.Sprintf("ofx:%s:%s:%s", l.Posted.UTC().Format("20060102"), l.Amount.StringFixed(models.MoneyPlaces), strings.ToLower(l.Name))
}

type Result struct {
	Imported   int
	Duplicates int
	Credits    int
}

type Importer struct {
	ledger Recorder
	logger *logging.Logger
}

func New(r Recorder, logger *logging.Logger) *Importer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Importer{ledger: r, logger: logger.WithComponent(logging.ComponentImport)}
}

// Import records every debit line under categoryID. Credits are counted and skipped, lines
// imported before are skipped. progress, if set, is called once per line.
func (im *Importer) Import(ctx context.Context, userID, categoryID int64, lines []Line, progress func()) (Result, error) {
	var res Result
	for _, line := range lines {
		if progress != nil {
			progress()
		}
		if !line.Debit || !line.Amount.IsPositive() {
			res.Credits++
			continue
		}

		_, err := im.ledger.Record(ctx, userID, models.CreateTransaction{
			CategoryID: categoryID,
			Amount:     line.Amount,
			Note:       line.Name,
			Month:      models.MonthOf(line.Posted),
			ExternalID: line.key(),
		})
		switch {
		case ledger.IsDuplicate(err):
			res.Duplicates++
		case err != nil:
			return res, fmt.Errorf("import %s: %w", line.FitID, err)
		default:
			res.Imported++
		}
	}

	im.logger.InfoContext(ctx, "Statement imported", logging.FieldUserID, userID,
		"imported", res.Imported, "duplicates", res.Duplicates, "credits", res.Credits)
	return res, nil
}

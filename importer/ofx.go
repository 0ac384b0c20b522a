// Package importer turns bank statement exports into ledger transactions.
package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/nemopss/budgetly/models"
	"github.com/shopspring/decimal"
)

// Line is one statement transaction. Amount is positive for money spent.
type Line struct {
	FitID  string
	Posted time.Time
	Amount decimal.Decimal
	Name   string
	Debit  bool
}

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// clean fixes formatting mistakes some banks make in SGML exports.
func clean(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagPattern.ReplaceAllString(content, "$1>")
}

// ParseOFX reads bank and credit card statements from an OFX or QFX file.
func ParseOFX(r io.Reader) ([]Line, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(clean(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var lines []Line
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			for _, tx := range stmt.BankTranList.Transactions {
				lines = append(lines, convert(tx))
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			for _, tx := range stmt.BankTranList.Transactions {
				lines = append(lines, convert(tx))
			}
		}
	}
	return lines, nil
}

func convert(tx ofxgo.Transaction) Line {
	// OFX amounts are signed; debits are negative.
	amount := decimal.NewFromBigRat(&tx.TrnAmt.Rat, models.MoneyPlaces)
	name := strings.TrimSpace(string(tx.Name))
	if tx.Payee != nil && tx.Payee.Name != "" {
		name = strings.TrimSpace(string(tx.Payee.Name))
	}
	if name == "" {
		name = strings.TrimSpace(string(tx.Memo))
	}
	return Line{
		FitID:  string(tx.FiTID),
		Posted: tx.DtPosted.Time,
		Amount: amount.Abs(),
		Name:   name,
		Debit:  amount.IsNegative(),
	}
}

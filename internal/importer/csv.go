package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// CSVParser parses generic bank CSV exports by sniffing the header row.
// Banks disagree on column names and on whether withdrawals are a
// negative amount or a separate debit column, so the parser maps
// whatever header it finds onto the fields it knows about.
type CSVParser struct{}

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// columnMap holds the sniffed column indexes; -1 means absent.
type columnMap struct {
	date, description, amount, debit, credit, balance, reference int
}

// Parse reads a headed CSV and returns one record per data row.
func (p *CSVParser) Parse(r io.Reader) ([]model.SourceRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols, err := sniffHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var records []model.SourceRecord
	for i, row := range rows[1:] {
		rec, err := parseCSVRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// sniffHeader maps header names onto known fields. A usable header must
// name a date column, a description column, and either an amount column
// or a debit/credit pair.
func sniffHeader(header []string) (columnMap, error) {
	cols := columnMap{date: -1, description: -1, amount: -1, debit: -1, credit: -1, balance: -1, reference: -1}

	for i, name := range header {
		switch n := strings.ToLower(strings.TrimSpace(name)); {
		case cols.date < 0 && strings.Contains(n, "date"):
			cols.date = i
		case cols.description < 0 && (strings.Contains(n, "description") ||
			strings.Contains(n, "narrative") || strings.Contains(n, "details") ||
			strings.Contains(n, "payee")):
			cols.description = i
		case cols.debit < 0 && strings.Contains(n, "debit"):
			cols.debit = i
		case cols.credit < 0 && strings.Contains(n, "credit"):
			cols.credit = i
		case cols.amount < 0 && strings.Contains(n, "amount"):
			cols.amount = i
		case cols.balance < 0 && strings.Contains(n, "balance"):
			cols.balance = i
		case cols.reference < 0 && (strings.Contains(n, "reference") ||
			strings.Contains(n, "transaction id") || n == "id"):
			cols.reference = i
		}
	}

	if cols.date < 0 || cols.description < 0 {
		return cols, fmt.Errorf("unrecognised CSV header %q: no date or description column", header)
	}
	if cols.amount < 0 && (cols.debit < 0 || cols.credit < 0) {
		return cols, fmt.Errorf("unrecognised CSV header %q: no amount or debit/credit columns", header)
	}
	return cols, nil
}

func parseCSVRow(row []string, cols columnMap) (model.SourceRecord, error) {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := parseDate(field(cols.date))
	if err != nil {
		return model.SourceRecord{}, err
	}

	var amount decimal.Decimal
	if cols.amount >= 0 {
		if amount, err = parseMoney(field(cols.amount)); err != nil {
			return model.SourceRecord{}, fmt.Errorf("parsing amount: %w", err)
		}
	} else {
		debit, err := parseMoney(field(cols.debit))
		if err != nil {
			return model.SourceRecord{}, fmt.Errorf("parsing debit: %w", err)
		}
		credit, err := parseMoney(field(cols.credit))
		if err != nil {
			return model.SourceRecord{}, fmt.Errorf("parsing credit: %w", err)
		}
		amount = credit.Sub(debit.Abs())
	}

	rec := model.SourceRecord{
		Date:       date,
		Amount:     amount,
		Payee:      field(cols.description),
		ExternalID: field(cols.reference),
	}

	if b := field(cols.balance); b != "" {
		balance, err := parseMoney(b)
		if err != nil {
			return model.SourceRecord{}, fmt.Errorf("parsing balance: %w", err)
		}
		rec.ExternalBalance = &balance
	}
	return rec, nil
}

// parseMoney accepts bank-flavoured numbers: thousands separators,
// currency signs, and an empty string meaning zero.
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, ",", ""), "$", ""))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

package importer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// QIFParser parses Quicken Interchange Format exports. Each record is a
// block of single-letter field lines terminated by '^'; only the Bank
// fields this tool stores are read, the rest are ignored.
type QIFParser struct{}

// Format returns the parser name.
func (p *QIFParser) Format() string { return "qif" }

// Parse reads a QIF stream and returns one record per '^' block. Blocks
// without a date or amount are rejected rather than silently dropped.
func (p *QIFParser) Parse(r io.Reader) ([]model.SourceRecord, error) {
	scanner := bufio.NewScanner(r)

	var records []model.SourceRecord
	var cur model.SourceRecord
	var hasDate, hasAmount bool
	block := 1

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}

		code, value := line[0], strings.TrimSpace(line[1:])
		switch code {
		case 'D':
			date, err := parseQIFDate(value)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", block, err)
			}
			cur.Date = date
			hasDate = true
		case 'T', 'U':
			amount, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
			if err != nil {
				return nil, fmt.Errorf("record %d: parsing amount %q: %w", block, value, err)
			}
			cur.Amount = amount
			hasAmount = true
		case 'P':
			cur.Payee = value
		case 'M':
			cur.Memo = value
		case 'N':
			cur.ExternalID = value
		case '^':
			if !hasDate || !hasAmount {
				return nil, fmt.Errorf("record %d: missing date or amount", block)
			}
			records = append(records, cur)
			cur = model.SourceRecord{}
			hasDate, hasAmount = false, false
			block++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading QIF: %w", err)
	}
	if hasDate || hasAmount {
		return nil, fmt.Errorf("record %d: missing '^' terminator", block)
	}
	return records, nil
}

// parseQIFDate handles the apostrophe year shorthand (1/02'06 = 2006)
// on top of the shared layouts.
func parseQIFDate(s string) (time.Time, error) {
	if i := strings.IndexByte(s, '\''); i >= 0 {
		year, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognised date %q", s)
		}
		if year < 100 {
			year += 2000
		}
		s = strings.TrimSpace(s[:i]) + "/" + strconv.Itoa(year)
	}
	return parseDate(s)
}

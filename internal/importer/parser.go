package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/transaction"
)

// ErrNoHeader is returned when no row of the file matches a known layout.
var ErrNoHeader = errors.New("no supported header found: expected date, description and amount columns")

var delimiters = []rune{';', ','}

var dateLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "02/01/06"}

// Row is one data row of an imported file. Err is set when the row could not
// be turned into transaction params; such rows are never submitted.
type Row struct {
	Line   int
	Params transaction.CreateParams
	Err    error
}

// Parsed is the outcome of reading a file.
type Parsed struct {
	Format  string
	Charset string
	Rows    []Row
}

// Parser reads spreadsheet exports of manual transactions. It detects the
// charset, the delimiter and which layout is in use by scanning for a header
// row that matches one of the known profiles; rows above the header are
// ignored.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) (*Parsed, error) {
	utf8r, charset, err := toUTF8(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	for _, comma := range delimiters {
		records, err := readRecords(string(data), comma)
		if err != nil {
			continue
		}

		profile, cols, headerIdx := detectProfile(records)
		if profile == nil {
			continue
		}

		return &Parsed{
			Format:  profile.Name,
			Charset: charset,
			Rows:    parseRows(profile, cols, records[headerIdx+1:]),
		}, nil
	}

	return nil, ErrNoHeader
}

// record is a CSV row with the 1-based line it started on.
type record struct {
	line  int
	cells []string
}

func readRecords(data string, comma rune) ([]record, error) {
	reader := csv.NewReader(strings.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var out []record

	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		out = append(out, record{line: line, cells: cells})
	}
}

func detectProfile(records []record) (*Profile, columns, int) {
	for idx, rec := range records {
		for i := range profiles {
			if cols, ok := profiles[i].match(rec.cells); ok {
				return &profiles[i], cols, idx
			}
		}
	}

	return nil, columns{}, 0
}

func parseRows(p *Profile, cols columns, records []record) []Row {
	var rows []Row

	for _, rec := range records {
		date, ok := parseDate(cell(rec.cells, cols.date))
		if !ok {
			// Blank lines, totals and other footers carry no date.
			continue
		}

		params, skip, err := parseRow(p, cols, rec.cells)
		if skip {
			continue
		}

		params.DueDate = date
		rows = append(rows, Row{Line: rec.line, Params: params, Err: err})
	}

	return rows
}

func parseRow(p *Profile, cols columns, cells []string) (transaction.CreateParams, bool, error) {
	var params transaction.CreateParams

	params.Description = cell(cells, cols.description)
	if params.Description == "" {
		return params, false, apperr.Validation("description", "is empty")
	}

	var err error

	switch p.AmountMode {
	case amountSigned:
		params.Amount, params.Type, err = signedAmount(cell(cells, cols.amount), cell(cells, cols.typ))
	case amountSplit:
		params.Amount, params.Type, err = splitAmount(cell(cells, cols.debit), cell(cells, cols.credit))
	}

	if err != nil {
		return params, false, err
	}

	if params.Amount.IsZero() {
		return params, true, nil
	}

	if params.Status, err = parseStatus(cell(cells, cols.status), params.Type); err != nil {
		return params, false, err
	}

	if s := cell(cells, cols.paymentDate); s != "" {
		paid, ok := parseDate(s)
		if !ok {
			return params, false, apperr.Validation("payment_date", "cannot parse %q", s)
		}

		params.PaymentDate = &paid
	}

	return params, false, nil
}

// signedAmount reads a signed amount. An explicit type column wins over the sign.
func signedAmount(raw, typ string) (decimal.Decimal, transaction.Type, error) {
	d, err := parseAmount(raw)
	if err != nil {
		return d, "", apperr.Validation("amount", "%s", err)
	}

	flow := transaction.TypeIncome
	if d.IsNegative() {
		flow = transaction.TypeExpense
	}

	if typ != "" {
		if flow, err = parseFlow(typ); err != nil {
			return d, "", err
		}
	}

	return d.Abs(), flow, nil
}

func splitAmount(debit, credit string) (decimal.Decimal, transaction.Type, error) {
	if debit != "" {
		d, err := parseAmount(debit)
		if err != nil {
			return d, "", apperr.Validation("debit", "%s", err)
		}

		if !d.IsZero() {
			return d.Abs(), transaction.TypeExpense, nil
		}
	}

	if credit != "" {
		d, err := parseAmount(credit)
		if err != nil {
			return d, "", apperr.Validation("credit", "%s", err)
		}

		return d.Abs(), transaction.TypeIncome, nil
	}

	return decimal.Zero, "", nil
}

func parseFlow(s string) (transaction.Type, error) {
	switch foldHeader(s) {
	case "receita", "entrada", "credito", "income", "c":
		return transaction.TypeIncome, nil
	case "despesa", "saida", "debito", "expense", "d":
		return transaction.TypeExpense, nil
	}

	return "", apperr.Validation("type", "unknown type %q", s)
}

func parseStatus(s string, flow transaction.Type) (ledger.Status, error) {
	switch foldHeader(s) {
	case "", "pendente", "pending", "em aberto", "aberto":
		return ledger.StatusPending, nil
	case "pago", "paid", "recebido", "received", "quitado", "liquidado":
		return ledger.SettledStatus(flow.EntryType()), nil
	}

	return "", apperr.Validation("status", "unknown status %q", s)
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// cell returns the trimmed value at idx, or "" when idx is absent or out of range.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

package importer

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/transaction"
)

// Submitter stores a batch of transactions, one result per params.
//
//go:generate mockgen -source=service.go -destination=submitter_mock.go -package=importer
type Submitter interface {
	CreateBatch(ctx context.Context, params []transaction.CreateParams) []transaction.Result
}

// Describer maps a raw statement description of an income or expense row to
// the preferred one.
type Describer interface {
	Describe(ctx context.Context, flow, raw string) (string, error)
}

type Service struct {
	parser    *Parser
	submitter Submitter
	describer Describer
	log       *zap.Logger
}

// NewService builds an importer. describer may be nil, in which case
// descriptions are imported as written in the file.
func NewService(submitter Submitter, describer Describer, log *zap.Logger) *Service {
	return &Service{
		parser:    NewParser(),
		submitter: submitter,
		describer: describer,
		log:       log,
	}
}

// RowResult is the outcome of one file row.
type RowResult struct {
	Line        int
	Transaction *transaction.Transaction
	Entry       *ledger.Entry
	Err         error
}

type Report struct {
	Format  string
	Charset string
	Rows    []RowResult
}

func (r *Report) Imported() int {
	n := 0

	for _, row := range r.Rows {
		if row.Err == nil {
			n++
		}
	}

	return n
}

func (r *Report) Failed() int {
	return len(r.Rows) - r.Imported()
}

// Preview parses r and applies description rules without storing anything.
func (s *Service) Preview(ctx context.Context, r io.Reader) (*Parsed, error) {
	return s.parse(ctx, r)
}

func (s *Service) parse(ctx context.Context, r io.Reader) (*Parsed, error) {
	parsed, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	if s.describer == nil {
		return parsed, nil
	}

	for i := range parsed.Rows {
		row := &parsed.Rows[i]
		if row.Err != nil {
			continue
		}

		desc, err := s.describer.Describe(ctx, string(row.Params.Type), row.Params.Description)
		if err != nil {
			s.log.Warn("description rule lookup failed",
				zap.Int("line", row.Line),
				zap.Error(err),
			)

			continue
		}

		row.Params.Description = desc
	}

	return parsed, nil
}

// Import parses r and submits every valid row on its own. Rows that fail to
// parse or to store are reported in place and do not affect the others.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Report, error) {
	parsed, err := s.parse(ctx, r)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Format:  parsed.Format,
		Charset: parsed.Charset,
		Rows:    make([]RowResult, len(parsed.Rows)),
	}

	var (
		batch []transaction.CreateParams
		slots []int
	)

	for i, row := range parsed.Rows {
		report.Rows[i] = RowResult{Line: row.Line, Err: row.Err}

		if row.Err == nil {
			batch = append(batch, row.Params)
			slots = append(slots, i)
		}
	}

	if len(batch) > 0 {
		for i, res := range s.submitter.CreateBatch(ctx, batch) {
			slot := &report.Rows[slots[i]]
			slot.Transaction = res.Transaction
			slot.Entry = res.Entry
			slot.Err = res.Err
		}
	}

	s.log.Info("transactions imported",
		zap.String("format", report.Format),
		zap.String("charset", report.Charset),
		zap.Int("imported", report.Imported()),
		zap.Int("failed", report.Failed()),
	)

	return report, nil
}

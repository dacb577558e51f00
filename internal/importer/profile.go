package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSigned is one signed column; negative values are expenses unless a
	// type column says otherwise.
	amountSigned amountMode = iota
	// amountSplit is separate debit and credit columns.
	amountSplit
)

// Profile describes the column layout of a supported spreadsheet export. Each
// field lists the accepted header names after folding.
type Profile struct {
	Name        string
	Date        []string
	Description []string
	AmountMode  amountMode
	Amount      []string
	Debit       []string
	Credit      []string

	// Optional columns.
	Type        []string
	Status      []string
	PaymentDate []string
}

// profiles are tried in order; more specific layouts come first.
var profiles = []Profile{
	{
		Name:        "extrato",
		Date:        []string{"data", "data mov.", "data lancamento"},
		Description: []string{"historico", "descricao", "lancamento"},
		AmountMode:  amountSplit,
		Debit:       []string{"debito", "saida"},
		Credit:      []string{"credito", "entrada"},
	},
	{
		Name:        "lancamentos",
		Date:        []string{"vencimento", "data vencimento", "due date", "data"},
		Description: []string{"descricao", "description", "historico"},
		AmountMode:  amountSigned,
		Amount:      []string{"valor", "amount", "montante"},
		Type:        []string{"tipo", "type"},
		Status:      []string{"status", "situacao"},
		PaymentDate: []string{"data pagamento", "pagamento", "payment date"},
	},
}

// columns maps a profile's logical columns to row indexes; -1 means absent.
type columns struct {
	date, description, amount, debit, credit int
	typ, status, paymentDate                 int
}

// match reports the column positions of p in header, or false when a
// required column is missing.
func (p *Profile) match(header []string) (columns, bool) {
	folded := make(map[string]int, len(header))
	for i, cell := range header {
		if name := foldHeader(cell); name != "" {
			if _, dup := folded[name]; !dup {
				folded[name] = i
			}
		}
	}

	find := func(names []string) int {
		for _, n := range names {
			if i, ok := folded[n]; ok {
				return i
			}
		}

		return -1
	}

	c := columns{
		date:        find(p.Date),
		description: find(p.Description),
		amount:      find(p.Amount),
		debit:       find(p.Debit),
		credit:      find(p.Credit),
		typ:         find(p.Type),
		status:      find(p.Status),
		paymentDate: find(p.PaymentDate),
	}

	if c.date < 0 || c.description < 0 {
		return c, false
	}

	switch p.AmountMode {
	case amountSigned:
		return c, c.amount >= 0
	case amountSplit:
		return c, c.debit >= 0 && c.credit >= 0
	}

	return c, false
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// foldHeader lowercases s and strips accents so "Descrição" matches "descricao".
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)

	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}

	return strings.ToLower(out)
}

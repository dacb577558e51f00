package importer_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/importer"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/transaction"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParser_Lancamentos(t *testing.T) {
	csv := `Relatório de lançamentos;;;;
Empresa;Consultoria Exemplo LTDA;;;

Vencimento;Descrição;Valor;Tipo;Status
31/01/2024;Aluguel escritório;R$ 1.234,56;Despesa;Pendente
05/02/2024;Licença revendida;-50,00;Receita;Recebido
10/02/2024;Reembolso;200,00;;
Total;;1.384,56;;
`

	parsed, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, "lancamentos", parsed.Format)
	assert.Equal(t, "UTF-8", parsed.Charset)
	require.Len(t, parsed.Rows, 3)

	r := parsed.Rows[0]
	require.NoError(t, r.Err)
	assert.Equal(t, 5, r.Line)
	assert.Equal(t, "Aluguel escritório", r.Params.Description)
	assert.Equal(t, "1234.56", r.Params.Amount.StringFixed(2))
	assert.Equal(t, transaction.TypeExpense, r.Params.Type)
	assert.Equal(t, ledger.StatusPending, r.Params.Status)
	assert.Equal(t, date(2024, 1, 31), r.Params.DueDate)

	// The type column wins over the sign.
	r = parsed.Rows[1]
	require.NoError(t, r.Err)
	assert.Equal(t, transaction.TypeIncome, r.Params.Type)
	assert.Equal(t, "50.00", r.Params.Amount.StringFixed(2))
	assert.Equal(t, ledger.StatusReceived, r.Params.Status)

	r = parsed.Rows[2]
	require.NoError(t, r.Err)
	assert.Equal(t, transaction.TypeIncome, r.Params.Type)
	assert.Equal(t, ledger.StatusPending, r.Params.Status)
}

func TestParser_CommaDelimited(t *testing.T) {
	csv := "Due date,Description,Amount,Payment date,Status\n" +
		"2024-03-10,Hosting,-19.90,2024-03-09,paid\n" +
		"2024-03-15,Invoice 42,\"1,500.00\",,\n"

	parsed, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 2)

	r := parsed.Rows[0]
	require.NoError(t, r.Err)
	assert.Equal(t, transaction.TypeExpense, r.Params.Type)
	assert.Equal(t, "19.90", r.Params.Amount.StringFixed(2))
	assert.Equal(t, ledger.StatusPaid, r.Params.Status)
	require.NotNil(t, r.Params.PaymentDate)
	assert.Equal(t, date(2024, 3, 9), *r.Params.PaymentDate)

	r = parsed.Rows[1]
	require.NoError(t, r.Err)
	assert.Equal(t, "1500.00", r.Params.Amount.StringFixed(2))
	assert.Nil(t, r.Params.PaymentDate)
}

func TestParser_Extrato(t *testing.T) {
	csv := `Data;Histórico;Débito;Crédito;Saldo
02/01/2024;Tarifa bancária;12,90;;987,10
03/01/2024;Pix recebido;;1.000,00;1.987,10
04/01/2024;Estorno;0,00;0,00;1.987,10
`

	parsed, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, "extrato", parsed.Format)
	require.Len(t, parsed.Rows, 2, "zero rows are skipped")

	assert.Equal(t, transaction.TypeExpense, parsed.Rows[0].Params.Type)
	assert.Equal(t, "12.90", parsed.Rows[0].Params.Amount.StringFixed(2))
	assert.Equal(t, transaction.TypeIncome, parsed.Rows[1].Params.Type)
	assert.Equal(t, "1000.00", parsed.Rows[1].Params.Amount.StringFixed(2))
}

func TestParser_RowErrors(t *testing.T) {
	csv := `Vencimento;Descrição;Valor;Status
31/01/2024;;10,00;
01/02/2024;Serviço;dez reais;
02/02/2024;Serviço;10,00;talvez
03/02/2024;Serviço;10,00;pago
`

	parsed, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 4)

	wantFields := []string{"description", "amount", "status"}
	for i, field := range wantFields {
		var appErr *apperr.Error
		require.True(t, errors.As(parsed.Rows[i].Err, &appErr), "row %d", i)
		assert.Equal(t, field, appErr.Field)
	}

	require.NoError(t, parsed.Rows[3].Err)
	assert.Equal(t, ledger.StatusReceived, parsed.Rows[3].Params.Status)
}

func TestParser_Latin1(t *testing.T) {
	content := "Vencimento;Descrição;Valor\n31/01/2024;Manutenção;10,00\n"

	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(content))
	require.NoError(t, err)

	parsed, err := importer.NewParser().Parse(bytes.NewReader(latin1))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 1)

	assert.NotEqual(t, "UTF-8", parsed.Charset)
	assert.Equal(t, "Manutenção", parsed.Rows[0].Params.Description)
}

func TestParser_UTF8BOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Vencimento;Descrição;Valor\n31/01/2024;Café;10,00\n")...)

	parsed, err := importer.NewParser().Parse(bytes.NewReader(content))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "Café", parsed.Rows[0].Params.Description)
}

func TestParser_NoHeader(t *testing.T) {
	_, err := importer.NewParser().Parse(strings.NewReader("foo;bar\n1;2\n"))
	assert.ErrorIs(t, err, importer.ErrNoHeader)
}

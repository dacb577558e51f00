package project_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	projectHandler "github.com/MrJamesThe3rd/stageledger/internal/http/project"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

type staticCatalog struct{}

func (staticCatalog) Catalog(context.Context) (*status.Catalog, error) {
	return status.NewCatalog([]status.Definition{
		{Name: "em_andamento", DisplayName: "Em andamento", Color: "#3B82F6", Position: 1},
		{Name: "concluido", DisplayName: "Concluído", Color: "#10B981", IsCompletionStatus: true, Position: 2},
	}), nil
}

type fakeDeriver struct {
	calls   int
	entries *ledger.StageEntries
}

func (f *fakeDeriver) DeriveFromStage(context.Context, *project.Stage, *project.Project) (*ledger.StageEntries, error) {
	f.calls++
	return f.entries, nil
}

type fixture struct {
	srv     http.Handler
	repo    *project.MockRepository
	deriver *fakeDeriver
	hookErr error
	hooked  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:    project.NewMockRepository(ctrl),
		deriver: &fakeDeriver{},
	}

	hook := func(context.Context, *project.Stage, *project.Project) error {
		f.hooked++
		return f.hookErr
	}

	svc := project.NewService(f.repo, staticCatalog{}, hook, zap.NewNop())
	h := projectHandler.NewHandler(svc, staticCatalog{}, f.deriver, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/projects", h.Routes)
	f.srv = r

	return f
}

func acme() *project.Project {
	p := &project.Project{
		ID:                  uuid.New(),
		Name:                "Acme",
		Status:              "ativo",
		MainConsultantID:    uuid.New(),
		TotalValue:          decimal.NewFromInt(4000),
		TaxPercent:          decimal.NewFromInt(10),
		ThirdPartyExpenses:  decimal.Zero,
		MainConsultantValue: decimal.NewFromInt(1200),
	}

	p.Stages = []*project.Stage{
		{
			ID:        uuid.New(),
			ProjectID: p.ID,
			Name:      "Diagnóstico",
			Status:    "concluido",
			Completed: true,
			Value:     decimal.NewFromInt(1000),
			StartDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:        uuid.New(),
			ProjectID: p.ID,
			Name:      "Implantação",
			Status:    "em_andamento",
			Value:     decimal.NewFromInt(3000),
			StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	return p
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, r)

	return rec
}

func TestHandler_Get(t *testing.T) {
	f := newFixture(t)
	p := acme()

	f.repo.EXPECT().GetProject(gomock.Any(), p.ID).Return(p, nil)

	rec := f.do(http.MethodGet, "/projects/"+p.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		NetValue string `json:"net_value"`
		Progress struct {
			Completed int `json:"completed"`
			Total     int `json:"total"`
		} `json:"progress"`
		Stages []struct {
			Name        string `json:"name"`
			EndDate     string `json:"end_date"`
			Overdue     bool   `json:"overdue"`
			StatusLabel struct {
				Label string `json:"label"`
				Color string `json:"color"`
			} `json:"status_label"`
		} `json:"stages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, "2400", body.NetValue)
	assert.Equal(t, 1, body.Progress.Completed)
	assert.Equal(t, 2, body.Progress.Total)
	require.Len(t, body.Stages, 2)
	assert.Equal(t, "Diagnóstico", body.Stages[0].Name)
	assert.Equal(t, "2024-01-31", body.Stages[0].EndDate)
	assert.False(t, body.Stages[0].Overdue)
	assert.Equal(t, "Concluído", body.Stages[0].StatusLabel.Label)
	assert.True(t, body.Stages[1].Overdue)
}

func TestHandler_GetNotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.repo.EXPECT().GetProject(gomock.Any(), id).Return(nil, apperr.NotFound("project", id))

	rec := f.do(http.MethodGet, "/projects/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_SetStageStatus(t *testing.T) {
	f := newFixture(t)
	p := acme()
	stage := p.Stages[1]

	f.repo.EXPECT().GetProject(gomock.Any(), p.ID).Return(p, nil)
	f.repo.EXPECT().GetProjectByStage(gomock.Any(), stage.ID).Return(p, nil)
	f.repo.EXPECT().
		UpdateStageStatus(gomock.Any(), gomock.Any(), true).
		DoAndReturn(func(_ context.Context, change *project.StatusChange, _ bool) (bool, error) {
			assert.Equal(t, "concluido", change.Status)
			assert.Equal(t, stage.ID, change.StageID)

			return true, nil
		})

	rec := f.do(http.MethodPatch, "/projects/"+p.ID.String()+"/stages/"+stage.ID.String()+"/status", `{"status":"concluido"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Stage struct {
			Status    string `json:"status"`
			Completed bool   `json:"completed"`
		} `json:"stage"`
		DerivationError *apperr.Error `json:"derivation_error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, "concluido", body.Stage.Status)
	assert.True(t, body.Stage.Completed)
	assert.Nil(t, body.DerivationError)
	assert.Equal(t, 1, f.hooked)
}

func TestHandler_SetStageStatus_DerivationFailureStillStored(t *testing.T) {
	f := newFixture(t)
	f.hookErr = errors.New("ledger unavailable")

	p := acme()
	stage := p.Stages[1]

	f.repo.EXPECT().GetProject(gomock.Any(), p.ID).Return(p, nil)
	f.repo.EXPECT().GetProjectByStage(gomock.Any(), stage.ID).Return(p, nil)
	f.repo.EXPECT().UpdateStageStatus(gomock.Any(), gomock.Any(), true).Return(true, nil)

	rec := f.do(http.MethodPatch, "/projects/"+p.ID.String()+"/stages/"+stage.ID.String()+"/status", `{"status":"concluido"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Stage struct {
			Status string `json:"status"`
		} `json:"stage"`
		DerivationError *apperr.Error `json:"derivation_error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, "concluido", body.Stage.Status)
	require.NotNil(t, body.DerivationError)
	assert.Equal(t, apperr.Kind("INTERNAL"), body.DerivationError.Kind)
	assert.NotContains(t, rec.Body.String(), "ledger unavailable")
}

func TestHandler_SetStageStatus_StageOfAnotherProject(t *testing.T) {
	f := newFixture(t)
	p := acme()
	other := uuid.New()

	f.repo.EXPECT().GetProject(gomock.Any(), p.ID).Return(p, nil)

	rec := f.do(http.MethodPatch, "/projects/"+p.ID.String()+"/stages/"+other.String()+"/status", `{"status":"concluido"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, f.hooked)
}

func TestHandler_SetStageFlags(t *testing.T) {
	f := newFixture(t)
	p := acme()
	stage := p.Stages[0]

	f.repo.EXPECT().GetProject(gomock.Any(), p.ID).Return(p, nil)
	f.repo.EXPECT().GetProjectByStage(gomock.Any(), stage.ID).Return(p, nil)
	f.repo.EXPECT().
		UpdateStageFlags(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, st *project.Stage, _ project.FlagParams) error {
			assert.True(t, st.ClientApproved)
			assert.True(t, st.InvoiceIssued)
			assert.False(t, st.PaymentReceived)

			return nil
		})

	rec := f.do(http.MethodPatch, "/projects/"+p.ID.String()+"/stages/"+stage.ID.String(),
		`{"client_approved":true,"invoice_issued":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, f.hooked)
}

func TestHandler_Derive(t *testing.T) {
	f := newFixture(t)
	p := acme()
	stage := p.Stages[0]

	f.deriver.entries = &ledger.StageEntries{
		Receivable: &ledger.Entry{
			ID:      uuid.New(),
			Type:    ledger.TypeReceivable,
			Amount:  decimal.NewFromInt(1000),
			DueDate: stage.EndDate,
			Status:  ledger.StatusPending,
		},
	}

	f.repo.EXPECT().GetProject(gomock.Any(), p.ID).Return(p, nil)

	rec := f.do(http.MethodPost, "/projects/"+p.ID.String()+"/stages/"+stage.ID.String()+"/derive", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Receivable *struct {
			Amount string `json:"amount"`
		} `json:"receivable"`
		Payable *struct{} `json:"payable"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	require.NotNil(t, body.Receivable)
	assert.Equal(t, "1000", body.Receivable.Amount)
	assert.Nil(t, body.Payable)
	assert.Equal(t, 1, f.deriver.calls)
}

func TestHandler_Create(t *testing.T) {
	t.Run("stores project with stages", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().
			CreateProject(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *project.Project) error {
				require.Len(t, p.Stages, 1)
				assert.Equal(t, "2024-01-31", p.Stages[0].EndDate.Format(time.DateOnly))

				p.ID = uuid.New()

				return nil
			})

		rec := f.do(http.MethodPost, "/projects", `{
			"name": "Acme",
			"main_consultant_id": "`+uuid.NewString()+`",
			"total_value": "4000",
			"tax_percent": "10",
			"main_consultant_value": "1200",
			"stages": [{"name": "Diagnóstico", "status": "em_andamento", "value": "1000",
				"start_date": "2024-01-02", "end_date": "2024-01-31"}]
		}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("validation error", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(http.MethodPost, "/projects", `{"name": "", "main_consultant_id": "`+uuid.NewString()+`"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"field":"name"`)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(http.MethodPost, "/projects", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_History(t *testing.T) {
	f := newFixture(t)
	p := acme()
	stage := p.Stages[0]
	at := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

	f.repo.EXPECT().GetProject(gomock.Any(), p.ID).Return(p, nil)
	f.repo.EXPECT().ListStageHistory(gomock.Any(), stage.ID).Return([]*project.StatusChange{
		{ID: uuid.New(), StageID: stage.ID, Status: "em_andamento", ChangedAt: at.Add(-time.Hour)},
		{ID: uuid.New(), StageID: stage.ID, Status: "concluido", ChangedAt: at},
	}, nil)

	rec := f.do(http.MethodGet, "/projects/"+p.ID.String()+"/stages/"+stage.ID.String()+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body []struct {
		Status string `json:"status"`
		Label  struct {
			Label string `json:"label"`
		} `json:"label"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 2)
	assert.Equal(t, "em_andamento", body[0].Status)
	assert.Equal(t, "Concluído", body[1].Label.Label)
}

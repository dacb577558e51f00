package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

func TestCatalog_IsCompletion(t *testing.T) {
	configured := status.NewCatalog([]status.Definition{
		{Name: "em_andamento", DisplayName: "Em andamento", Color: "#3B82F6"},
		{Name: "entregue", DisplayName: "Entregue", Color: "#10B981", IsCompletionStatus: true},
		{Name: "concluido", DisplayName: "Concluído", Color: "#059669", IsCompletionStatus: false},
	})

	type testCase struct {
		name    string
		catalog *status.Catalog
		status  string
		want    bool
	}

	tests := []testCase{
		{name: "ConfiguredCompletion", catalog: configured, status: "entregue", want: true},
		{name: "ConfiguredNonCompletion", catalog: configured, status: "em_andamento", want: false},
		{name: "ConfiguredOverridesDefault", catalog: configured, status: "concluido", want: false},
		{name: "UnknownFallsBackToDefault", catalog: configured, status: "aguardando_pagamento", want: false},
		{name: "EmptyCatalogDefault", catalog: status.NewCatalog(nil), status: "concluido", want: true},
		{name: "EmptyCatalogOther", catalog: status.NewCatalog(nil), status: "em_andamento", want: false},
		{name: "NilCatalogDefault", catalog: nil, status: "concluido", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.catalog.IsCompletion(tt.status))
		})
	}
}

func TestCatalog_Display(t *testing.T) {
	c := status.NewCatalog([]status.Definition{
		{Name: "em_andamento", DisplayName: "Em andamento", Color: "#3B82F6"},
		{Name: "sem_cor", DisplayName: "", Color: ""},
	})

	assert.Equal(t, status.Label{Label: "Em andamento", Color: "#3B82F6"}, c.Display("em_andamento"))
	assert.Equal(t, status.Label{Label: "sem_cor", Color: status.NeutralColor}, c.Display("sem_cor"))
	assert.Equal(t, status.Label{Label: "desconhecido", Color: status.NeutralColor}, c.Display("desconhecido"))
}

func TestCatalog_DefinitionsIsACopy(t *testing.T) {
	defs := []status.Definition{{Name: "a", Position: 1}, {Name: "b", Position: 2}}
	c := status.NewCatalog(defs)

	got := c.Definitions()
	got[0].Name = "changed"

	assert.Equal(t, "a", c.Definitions()[0].Name)
	assert.Len(t, got, 2)
}

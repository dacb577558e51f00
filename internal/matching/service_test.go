package matching_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/matching"
)

func TestService_Describe(t *testing.T) {
	type testCase struct {
		name    string
		flow    string
		found   string
		findErr error
		want    string
		wantErr bool
	}

	tests := []testCase{
		{name: "rule matches", flow: "income", found: "Acme monthly fee", want: "Acme monthly fee"},
		{name: "any flow", flow: "", found: "Acme monthly fee", want: "Acme monthly fee"},
		{name: "no rule keeps raw text", flow: "expense", found: "", want: "PIX ACME 0042"},
		{name: "store failure", flow: "income", findErr: errors.New("conn refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := matching.NewMockRepository(ctrl)
			svc := matching.NewService(repo, zap.NewNop())

			repo.EXPECT().FindMatch(gomock.Any(), tt.flow, "PIX ACME 0042").Return(tt.found, tt.findErr)

			got, err := svc.Describe(context.Background(), tt.flow, "PIX ACME 0042")
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Describe_RejectsUnknownFlow(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := matching.NewService(matching.NewMockRepository(ctrl), zap.NewNop())

	_, err := svc.Describe(context.Background(), "transfer", "PIX ACME")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_Learn(t *testing.T) {
	t.Run("stores trimmed rule", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := matching.NewMockRepository(ctrl)
		svc := matching.NewService(repo, zap.NewNop())

		repo.EXPECT().CreateRule(gomock.Any(), matching.Rule{
			Pattern:     "PIX ACME",
			Description: "Acme monthly fee",
			Flow:        "income",
		}).Return(nil)

		err := svc.Learn(context.Background(), matching.Rule{
			Pattern:     "  PIX ACME ",
			Description: "Acme monthly fee",
			Flow:        "income",
		})
		require.NoError(t, err)
	})

	t.Run("rejects invalid rules", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := matching.NewService(matching.NewMockRepository(ctrl), zap.NewNop())

		for _, rule := range []matching.Rule{
			{Pattern: " ", Description: "Acme"},
			{Pattern: "PIX", Description: ""},
			{Pattern: "PIX", Description: "Acme", Flow: "payable"},
		} {
			err := svc.Learn(context.Background(), rule)
			assert.ErrorIs(t, err, apperr.ErrValidation, "rule %+v", rule)
		}
	})
}

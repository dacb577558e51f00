package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
)

func TestError_Is(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name   string
		err    error
		target error
		want   bool
	}

	tests := []testCase{
		{
			name:   "NotFoundMatchesSentinel",
			err:    apperr.NotFound("stage", id),
			target: apperr.ErrNotFound,
			want:   true,
		},
		{
			name:   "WrappedInvalidTransition",
			err:    fmt.Errorf("settling: %w", apperr.InvalidTransition("entry", id, "paid", "settle")),
			target: apperr.ErrInvalidTransition,
			want:   true,
		},
		{
			name:   "DifferentKind",
			err:    apperr.Validation("amount", "must be positive"),
			target: apperr.ErrUnauthorized,
			want:   false,
		},
		{
			name:   "PlainError",
			err:    errors.New("boom"),
			target: apperr.ErrNotFound,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestUnauthorized_HasNoEntityDetail(t *testing.T) {
	err := apperr.Unauthorized()

	assert.Empty(t, err.Entity)
	assert.Empty(t, err.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(fmt.Errorf("x: %w", apperr.Validation("occurrences", "out of range"))))
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(errors.New("boom")))
}

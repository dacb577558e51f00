package status

import (
	"context"
	"fmt"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=status
type Repository interface {
	ListDefinitions(ctx context.Context) ([]Definition, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Catalog loads the configured definitions. An empty table yields an empty
// catalog that still recognises DefaultCompletion.
func (s *Service) Catalog(ctx context.Context) (*Catalog, error) {
	defs, err := s.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading status definitions: %w", err)
	}

	return NewCatalog(defs), nil
}

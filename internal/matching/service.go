// Package matching rewrites raw statement descriptions into the descriptions
// users prefer, using rules learned from earlier imports.
package matching

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
)

// Rule maps statement text containing Pattern to Description. A rule with an
// empty Flow applies to income and expense rows alike.
type Rule struct {
	Pattern     string
	Description string
	Flow        string
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	// FindMatch returns the description of the best rule whose pattern raw
	// contains, or "" when no rule applies. Rules scoped to flow win over
	// unscoped ones, then longer patterns win.
	FindMatch(ctx context.Context, flow, raw string) (string, error)
	CreateRule(ctx context.Context, rule Rule) error
}

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Describe returns the preferred description for a raw statement line of the
// given flow, or raw itself when no rule matches.
func (s *Service) Describe(ctx context.Context, flow, raw string) (string, error) {
	if err := validateFlow(flow); err != nil {
		return "", err
	}

	preferred, err := s.repo.FindMatch(ctx, flow, raw)
	if err != nil {
		return "", err
	}

	if preferred == "" {
		return raw, nil
	}

	return preferred, nil
}

func (s *Service) Learn(ctx context.Context, rule Rule) error {
	rule.Pattern = strings.TrimSpace(rule.Pattern)
	rule.Description = strings.TrimSpace(rule.Description)

	if rule.Pattern == "" {
		return apperr.Validation("pattern", "must not be empty")
	}

	if rule.Description == "" {
		return apperr.Validation("description", "must not be empty")
	}

	if err := validateFlow(rule.Flow); err != nil {
		return err
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return err
	}

	s.log.Info("description rule learned",
		zap.String("pattern", rule.Pattern),
		zap.String("flow", rule.Flow),
	)

	return nil
}

func validateFlow(flow string) error {
	if flow == "" || ledger.Flow(flow).IsValid() {
		return nil
	}

	return apperr.Validation("flow", "must be income or expense")
}

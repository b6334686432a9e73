package alert

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hoylabs/hoy-analytics/internal/domain"
	"github.com/hoylabs/hoy-analytics/internal/tenant"
)

// CreateInput carries the caller-supplied fields of a new rule. The owning
// client id is never part of the input; it is bound from the principal.
type CreateInput struct {
	RuleName  string
	Dimension domain.AlertDimension
	Condition domain.AlertCondition
}

// Service implements alert rule management on top of a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an alert rule service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create validates the input and inserts a new active rule owned by the
// principal's client. Viewers may not create rules.
func (s *Service) Create(ctx context.Context, p domain.Principal, in CreateInput) (*domain.AlertRule, error) {
	if p.Role == domain.RoleViewer {
		return nil, ErrPermissionDenied
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	r := &domain.AlertRule{
		ID:        uuid.NewString(),
		ClientID:  p.ClientID,
		RuleName:  in.RuleName,
		Dimension: in.Dimension,
		Condition: in.Condition,
		Status:    domain.AlertActive,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create alert rule: %w", err)
	}
	return r, nil
}

// List returns the rules visible to the principal, newest first. Only a
// superadmin sees rules across tenants; everyone else sees their own.
func (s *Service) List(ctx context.Context, p domain.Principal) ([]domain.AlertRule, error) {
	scope, err := tenant.ForRules(p)
	if err != nil {
		return nil, err
	}
	rules, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list alert rules: %w", err)
	}
	return rules, nil
}

// UpdateStatus moves a rule between active and resolved and clears the
// triggered latch. The tenant scope is part of the mutation predicate, so a
// rule outside the principal's scope yields ErrNotFound without revealing
// whether it exists.
func (s *Service) UpdateStatus(ctx context.Context, p domain.Principal, id string, status domain.AlertStatus) error {
	if !domain.ValidAlertStatus(status) {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("must be one of active, resolved; got %q", status)}
	}
	scope, err := tenant.ForRules(p)
	if err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, scope, id, status)
}

// MarkTriggered records the first time an active rule's condition held. It is
// called by the evaluator, not by principals, and is a no-op if the latch is
// already set.
func (s *Service) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	return s.repo.MarkTriggered(ctx, id, at.UTC())
}

// ListActive returns active rules across all tenants for evaluation.
func (s *Service) ListActive(ctx context.Context) ([]domain.AlertRule, error) {
	return s.repo.ListActive(ctx)
}

func validateInput(in CreateInput) error {
	if in.RuleName == "" {
		return &ValidationError{Field: "rule_name", Reason: "must not be empty"}
	}
	if !domain.ValidDimension(in.Dimension) {
		return &ValidationError{Field: "dimension", Reason: fmt.Sprintf("unknown dimension %q", in.Dimension)}
	}
	if !domain.ValidConditionMetric(in.Condition.Metric) {
		return &ValidationError{Field: "condition.metric", Reason: fmt.Sprintf("unknown metric %q", in.Condition.Metric)}
	}
	if !domain.ValidOperator(in.Condition.Operator) {
		return &ValidationError{Field: "condition.operator", Reason: fmt.Sprintf("unknown operator %q", in.Condition.Operator)}
	}
	if math.IsNaN(in.Condition.Threshold) || math.IsInf(in.Condition.Threshold, 0) {
		return &ValidationError{Field: "condition.threshold", Reason: "must be a finite number"}
	}
	return nil
}

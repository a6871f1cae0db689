package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/repository"
)

// POAMData is the tenant-bound storage POAMService works through.
type POAMData interface {
	Namespace() string
	ListItems(ctx context.Context, filter repository.ItemFilter) ([]models.POAMItem, error)
	FindItem(ctx context.Context, id string) (*models.POAMItem, error)
	CreateItem(ctx context.Context, item *models.POAMItem) error
	UpdateItem(ctx context.Context, id string, updates map[string]interface{}) (bool, error)
	DeleteItem(ctx context.Context, id string) (bool, error)
	ListSystems(ctx context.Context) ([]models.System, error)
	CreateSystem(ctx context.Context, system *models.System) error
	SystemExists(ctx context.Context, id string) (bool, error)
}

type CreateItemInput struct {
	SystemID            string     `json:"system_id"`
	Title               string     `json:"title" binding:"required,max=255"`
	Description         string     `json:"description"`
	Weakness            string     `json:"weakness"`
	Framework           string     `json:"framework"`
	ControlID           string     `json:"control_id"`
	Severity            string     `json:"severity"`
	Status              string     `json:"status"`
	ScheduledCompletion *time.Time `json:"scheduled_completion"`
}

// UpdateItemInput holds a partial update; nil fields are left alone.
type UpdateItemInput struct {
	Title               *string    `json:"title" binding:"omitempty,max=255"`
	Description         *string    `json:"description"`
	Severity            *string    `json:"severity"`
	Status              *string    `json:"status"`
	ScheduledCompletion *time.Time `json:"scheduled_completion"`
}

type CreateSystemInput struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

// POAMService holds the POA&M rules for one tenant.
type POAMService struct {
	data POAMData
	now  func() time.Time
}

func NewPOAMService(data POAMData) *POAMService {
	return &POAMService{data: data, now: time.Now}
}

func (s *POAMService) Namespace() string {
	return s.data.Namespace()
}

func (s *POAMService) ListItems(ctx context.Context, filter repository.ItemFilter) ([]models.POAMItem, error) {
	if filter.Status != "" && !slices.Contains(models.ItemStatuses, filter.Status) {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("must be one of %s", strings.Join(models.ItemStatuses, ", "))}
	}
	if filter.Severity != "" && !slices.Contains(models.ItemSeverities, filter.Severity) {
		return nil, &ValidationError{Field: "severity", Message: fmt.Sprintf("must be one of %s", strings.Join(models.ItemSeverities, ", "))}
	}
	if filter.SystemID != "" {
		if _, err := uuid.Parse(filter.SystemID); err != nil {
			return nil, &ValidationError{Field: "system_id", Message: "must be a UUID"}
		}
	}
	return s.data.ListItems(ctx, filter)
}

func (s *POAMService) GetItem(ctx context.Context, id string) (*models.POAMItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	item, err := s.data.FindItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *POAMService) CreateItem(ctx context.Context, in CreateItemInput, createdBy string) (*models.POAMItem, error) {
	item := &models.POAMItem{
		Title:               strings.TrimSpace(in.Title),
		Description:         in.Description,
		Weakness:            in.Weakness,
		Framework:           in.Framework,
		ControlID:           in.ControlID,
		Severity:            in.Severity,
		Status:              in.Status,
		ScheduledCompletion: in.ScheduledCompletion,
		CreatedBy:           createdBy,
	}
	if item.Title == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if item.Severity == "" {
		item.Severity = models.SeverityModerate
	}
	if item.Status == "" {
		item.Status = models.StatusOpen
	}
	if err := validateSeverity(item.Severity); err != nil {
		return nil, err
	}
	if err := validateStatus(item.Status); err != nil {
		return nil, err
	}

	if in.SystemID != "" {
		systemID, err := uuid.Parse(in.SystemID)
		if err != nil {
			return nil, &ValidationError{Field: "system_id", Message: "must be a UUID"}
		}
		exists, err := s.data.SystemExists(ctx, in.SystemID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, &ValidationError{Field: "system_id", Message: "system does not exist"}
		}
		item.SystemID = &systemID
	}

	if err := s.data.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create POA&M item: %w", err)
	}
	return item, nil
}

func (s *POAMService) UpdateItem(ctx context.Context, id string, in UpdateItemInput) (*models.POAMItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, &ValidationError{Field: "title", Message: "title cannot be empty"}
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Severity != nil {
		if err := validateSeverity(*in.Severity); err != nil {
			return nil, err
		}
		updates["severity"] = *in.Severity
	}
	if in.Status != nil {
		if err := validateStatus(*in.Status); err != nil {
			return nil, err
		}
		updates["status"] = *in.Status
	}
	if in.ScheduledCompletion != nil {
		updates["scheduled_completion"] = *in.ScheduledCompletion
	}
	if len(updates) == 0 {
		return nil, &ValidationError{Field: "body", Message: "no updatable fields supplied"}
	}
	updates["updated_at"] = s.now().UTC()

	found, err := s.data.UpdateItem(ctx, id, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update POA&M item: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return s.GetItem(ctx, id)
}

func (s *POAMService) DeleteItem(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	found, err := s.data.DeleteItem(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete POA&M item: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *POAMService) ListSystems(ctx context.Context) ([]models.System, error) {
	return s.data.ListSystems(ctx)
}

func (s *POAMService) CreateSystem(ctx context.Context, in CreateSystemInput) (*models.System, error) {
	system := &models.System{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Owner:       in.Owner,
	}
	if system.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := s.data.CreateSystem(ctx, system); err != nil {
		return nil, fmt.Errorf("failed to create system: %w", err)
	}
	return system, nil
}

func validateSeverity(severity string) error {
	if !slices.Contains(models.ItemSeverities, severity) {
		return &ValidationError{Field: "severity", Message: fmt.Sprintf("must be one of %s", strings.Join(models.ItemSeverities, ", "))}
	}
	return nil
}

func validateStatus(status string) error {
	if !slices.Contains(models.ItemStatuses, status) {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("must be one of %s", strings.Join(models.ItemStatuses, ", "))}
	}
	return nil
}

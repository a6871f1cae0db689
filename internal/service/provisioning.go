package service

import (
	"context"
	"strings"

	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/isaacmuchunu/poam-sub001/internal/ratelimit"
	"github.com/isaacmuchunu/poam-sub001/internal/tenant"
	"github.com/rs/zerolog/log"
)

type OrganizationStore interface {
	Upsert(ctx context.Context, org *models.Organization) error
}

type SchemaProvisioner interface {
	ProvisionSchema(ctx context.Context, schema string) error
}

// OrgCreated is the payload of an organization.created event.
type OrgCreated struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier string `json:"tier"`
}

// ProvisioningService prepares storage for new tenants.
type ProvisioningService struct {
	orgs    OrganizationStore
	schemas SchemaProvisioner
}

func NewProvisioningService(orgs OrganizationStore, schemas SchemaProvisioner) *ProvisioningService {
	return &ProvisioningService{orgs: orgs, schemas: schemas}
}

// Provision creates the tenant schema and records the organization. Running it
// again for the same organization only refreshes name and tier.
func (s *ProvisioningService) Provision(ctx context.Context, evt OrgCreated) (*models.Organization, error) {
	evt.ID = strings.TrimSpace(evt.ID)
	evt.Name = strings.TrimSpace(evt.Name)
	if evt.ID == "" {
		return nil, &ValidationError{Field: "id", Message: "organization id is required"}
	}
	if evt.Name == "" {
		evt.Name = evt.ID
	}

	tier := ratelimit.DefaultTier
	if strings.TrimSpace(evt.Tier) != "" {
		parsed, err := ratelimit.ParseTier(evt.Tier)
		if err != nil {
			return nil, &ValidationError{Field: "tier", Message: err.Error()}
		}
		tier = parsed
	}

	namespace := tenant.DeriveNamespace(evt.ID)

	// schema first: an organization row must never point at a missing schema
	if err := s.schemas.ProvisionSchema(ctx, namespace); err != nil {
		return nil, &SystemError{Op: "provision_schema", Err: err}
	}

	org := &models.Organization{
		ID:        evt.ID,
		Name:      evt.Name,
		Tier:      tier.String(),
		Namespace: namespace,
	}
	if err := s.orgs.Upsert(ctx, org); err != nil {
		return nil, &SystemError{Op: "save_organization", Err: err}
	}

	log.Info().
		Str("tenant_id", org.ID).
		Str("namespace", namespace).
		Str("tier", org.Tier).
		Msg("Tenant provisioned")

	return org, nil
}

package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"docqa-backend/internal/model"
	"docqa-backend/internal/repository"
	"docqa-backend/internal/storage/object"
)

type OrganizationService struct {
	orgs  OrganizationStore
	docs  DocumentStore
	store object.Store
}

func NewOrganizationService(orgs OrganizationStore, docs DocumentStore, store object.Store) *OrganizationService {
	return &OrganizationService{orgs: orgs, docs: docs, store: store}
}

// Create makes a new organization with the caller as its admin member.
func (s *OrganizationService) Create(ctx context.Context, user *model.User, name string) (*model.Organization, error) {
	name = strings.TrimSpace(name)
	if user == nil || name == "" {
		return nil, ErrInvalidInput
	}
	if user.OrganizationID != nil {
		return nil, ErrAlreadyInOrganization
	}

	existing, err := s.orgs.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOrganizationExists
	}

	org := &model.Organization{Name: name, CreatedBy: user.Username}
	if err := s.orgs.CreateWithOwner(ctx, org, user.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrOrganizationExists
		case errors.Is(err, repository.ErrOwnerTaken):
			return nil, ErrAlreadyInOrganization
		}
		return nil, err
	}

	orgID := org.ID
	user.OrganizationID = &orgID
	user.IsAdmin = true
	return org, nil
}

// Mine returns the caller's organization.
func (s *OrganizationService) Mine(ctx context.Context, user *model.User) (*model.Organization, error) {
	if user == nil || user.OrganizationID == nil {
		return nil, ErrNoOrganization
	}
	org, err := s.orgs.GetByID(ctx, *user.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}
	return org, nil
}

// Delete removes the caller's organization. name must repeat the organization's
// name as confirmation. Stored files are removed best effort before the rows go.
func (s *OrganizationService) Delete(ctx context.Context, user *model.User, name string) error {
	org, err := s.Mine(ctx, user)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) != org.Name {
		return ErrOrganizationNameMismatch
	}
	if !user.IsAdmin {
		return ErrForbidden
	}

	docs, err := s.docs.ListByOrganization(ctx, org.ID)
	if err != nil {
		return err
	}
	logger := zerolog.Ctx(ctx)
	for _, doc := range docs {
		if err := s.store.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, object.ErrNotFound) {
			logger.Warn().Err(err).Str("storage_key", doc.StorageKey).Msg("delete stored object failed")
		}
	}

	if err := s.orgs.Delete(ctx, org.ID); err != nil {
		return err
	}
	user.OrganizationID = nil
	user.IsAdmin = false
	logger.Info().Str("organization_id", org.ID.String()).Int("documents", len(docs)).Msg("organization deleted")
	return nil
}

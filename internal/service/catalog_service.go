package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// CategoryRequest is the editable category payload.
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// SupplierRequest is the editable supplier payload.
type SupplierRequest struct {
	Name                string `json:"name" binding:"required"`
	ContactPerson       string `json:"contact_person"`
	Phone               string `json:"phone"`
	Email               string `json:"email"`
	Address             string `json:"address"`
	IsCertified         bool   `json:"is_certified"`
	CertificationNumber string `json:"certification_number"`
}

// CatalogService manages categories and suppliers.
type CatalogService struct {
	repo CatalogStore
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo CatalogStore) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, utils.ErrCategoryNotFound)
	}
	return c, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor *models.Actor, req CategoryRequest) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}
	c := &models.Category{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if c.Name == "" {
		return nil, utils.NewValidationError("name", "is required")
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Int64("category_id", c.ID).Str("name", c.Name).Msg("Category created")
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, actor *models.Actor, id int64, req CategoryRequest) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}
	c := &models.Category{ID: id, Name: strings.TrimSpace(req.Name), Description: req.Description}
	if c.Name == "" {
		return nil, utils.NewValidationError("name", "is required")
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return s.GetCategory(ctx, id)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, actor *models.Actor, id int64) error {
	if !actor.IsAdmin() {
		return utils.ErrForbidden
	}
	return s.repo.DeleteCategory(ctx, id)
}

// ListSuppliers returns suppliers; certifiedOnly backs GET /suppliers/certified.
func (s *CatalogService) ListSuppliers(ctx context.Context, certifiedOnly bool) ([]models.Supplier, error) {
	return s.repo.ListSuppliers(ctx, certifiedOnly)
}

func (s *CatalogService) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	sup, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return nil, notFound(err, utils.ErrSupplierNotFound)
	}
	return sup, nil
}

func (s *CatalogService) CreateSupplier(ctx context.Context, actor *models.Actor, req SupplierRequest) (*models.Supplier, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}
	sup, err := supplierFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	log.Info().Int64("supplier_id", sup.ID).Bool("is_certified", sup.IsCertified).Msg("Supplier created")
	return sup, nil
}

func (s *CatalogService) UpdateSupplier(ctx context.Context, actor *models.Actor, id int64, req SupplierRequest) (*models.Supplier, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}
	sup, err := supplierFromRequest(req)
	if err != nil {
		return nil, err
	}
	sup.ID = id
	if err := s.repo.UpdateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	return s.GetSupplier(ctx, id)
}

func supplierFromRequest(req SupplierRequest) (*models.Supplier, error) {
	sup := &models.Supplier{
		Name:                strings.TrimSpace(req.Name),
		ContactPerson:       req.ContactPerson,
		Phone:               req.Phone,
		Email:               req.Email,
		Address:             req.Address,
		IsCertified:         req.IsCertified,
		CertificationNumber: strings.TrimSpace(req.CertificationNumber),
	}
	if sup.Name == "" {
		return nil, utils.NewValidationError("name", "is required")
	}
	if sup.IsCertified && sup.CertificationNumber == "" {
		return nil, utils.NewValidationError("certification_number", "is required for a certified supplier")
	}
	return sup, nil
}

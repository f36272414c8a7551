package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// CategoryService handles category-related business logic.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CreateCategory creates a category for the user. Names are unique per user
// within a kind; the same name may exist as both an income and an expense
// category.
func (s *CategoryService) CreateCategory(userID uint, name string, kind models.CategoryKind) (*models.Category, error) {
	var count int64
	err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND kind = ? AND name = ?", userID, kind, name).
		Count(&count).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{UserID: userID, Kind: kind, Name: name}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetUserCategories returns a paginated list of the user's categories,
// optionally filtered by kind.
func (s *CategoryService) GetUserCategories(userID uint, kind *models.CategoryKind, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	query := s.db.Model(&models.Category{}).Where("user_id = ?", userID)
	if kind != nil {
		query = query.Where("kind = ?", *kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := query.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(categories, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetCategoryByID returns a category owned by the user.
func (s *CategoryService) GetCategoryByID(userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory renames a category, keeping names unique within the kind.
func (s *CategoryService) UpdateCategory(userID, categoryID uint, name string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	var count int64
	err = s.db.Model(&models.Category{}).
		Where("user_id = ? AND kind = ? AND name = ? AND id <> ?", userID, category.Kind, name, category.ID).
		Count(&count).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category.Name = name
	if err := s.db.Save(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// DeleteCategory soft-deletes a category. Transactions keep their rows but
// fall back to the uncategorized bucket in monthly views.
func (s *CategoryService) DeleteCategory(userID, categoryID uint) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Model(&models.Transaction{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return dbtx.Delete(category).Error
	})
	if err != nil {
		return asAppError(err)
	}
	return nil
}

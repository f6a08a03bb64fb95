package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	"gorm.io/gorm"
)

// TemplateStore holds message blueprints, most recently saved first.
type TemplateStore interface {
	List(ctx context.Context) ([]domain.Template, error)
	Save(ctx context.Context, t *domain.Template) error
	SelectByID(ctx context.Context, id string) (*domain.Template, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type GormTemplateRepo struct {
	db *gorm.DB
}

var _ TemplateStore = (*GormTemplateRepo)(nil)

func NewGormTemplateRepo(db *gorm.DB) *GormTemplateRepo {
	return &GormTemplateRepo{db: db}
}

func (r *GormTemplateRepo) List(ctx context.Context) ([]domain.Template, error) {
	var models []TemplateModel
	if err := r.db.WithContext(ctx).Order("seq DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	templates := make([]domain.Template, 0, len(models))
	for i := range models {
		templates = append(templates, *templateModelToDomain(&models[i]))
	}
	return templates, nil
}

// Save always inserts; an existing id is reported as a conflict rather
// than overwritten.
func (r *GormTemplateRepo) Save(ctx context.Context, t *domain.Template) error {
	model := templateModelFromDomain(t)
	if model == nil {
		return errors.New("template is required")
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*t = *templateModelToDomain(model)
	return nil
}

func (r *GormTemplateRepo) SelectByID(ctx context.Context, id string) (*domain.Template, error) {
	var model TemplateModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return templateModelToDomain(&model), nil
}

func (r *GormTemplateRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&TemplateModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormTemplateRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&TemplateModel{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

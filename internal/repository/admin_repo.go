package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pfe-hub/backend/internal/model"
)

// AdminRepository 管理员数据访问接口
type AdminRepository interface {
	Create(ctx context.Context, admin *model.Administrator) error
	GetByID(ctx context.Context, id string) (*model.Administrator, error)
	GetByEmail(ctx context.Context, email string) (*model.Administrator, error)
	List(ctx context.Context) ([]model.Administrator, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type adminRepo struct {
	db *gorm.DB
}

// NewAdminRepo 创建 AdminRepository 实例
func NewAdminRepo(db *gorm.DB) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) Create(ctx context.Context, admin *model.Administrator) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *adminRepo) GetByID(ctx context.Context, id string) (*model.Administrator, error) {
	var admin model.Administrator
	if err := r.db.WithContext(ctx).Where("admin_id = ?", id).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepo) GetByEmail(ctx context.Context, email string) (*model.Administrator, error) {
	var admin model.Administrator
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(email)).
		First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepo) List(ctx context.Context) ([]model.Administrator, error) {
	var admins []model.Administrator
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&admins).Error
	return admins, err
}

func (r *adminRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("admin_id = ?", id).Delete(&model.Administrator{}).Error
}

func (r *adminRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Administrator{}).Count(&n).Error
	return n, err
}

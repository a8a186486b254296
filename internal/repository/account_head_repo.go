package repository

import (
	"context"

	"gorm.io/gorm"

	"purple-port/backend/internal/model"
)

// AccountHeadRepository 会计科目数据访问接口
type AccountHeadRepository interface {
	GetByID(ctx context.Context, id string) (*model.AccountHead, error)
	GetByCode(ctx context.Context, code string) (*model.AccountHead, error)
	List(ctx context.Context) ([]model.AccountHead, error)
}

type accountHeadRepo struct {
	db *gorm.DB
}

// NewAccountHeadRepo 创建 AccountHeadRepository 实例
func NewAccountHeadRepo(db *gorm.DB) AccountHeadRepository {
	return &accountHeadRepo{db: db}
}

func (r *accountHeadRepo) GetByID(ctx context.Context, id string) (*model.AccountHead, error) {
	var h model.AccountHead
	if err := r.db.WithContext(ctx).Where("head_id = ?", id).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *accountHeadRepo) GetByCode(ctx context.Context, code string) (*model.AccountHead, error) {
	var h model.AccountHead
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *accountHeadRepo) List(ctx context.Context) ([]model.AccountHead, error) {
	var list []model.AccountHead
	err := r.db.WithContext(ctx).Order("code ASC").Find(&list).Error
	return list, err
}

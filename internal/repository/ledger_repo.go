package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"purple-port/backend/internal/model"
)

// LedgerFilter 账户列表过滤条件
type LedgerFilter struct {
	HeadType   string
	EntityType string
	Status     string
}

// LedgerRepository 账户数据访问接口
type LedgerRepository interface {
	Create(ctx context.Context, l *model.Ledger) error
	GetByID(ctx context.Context, id string) (*model.Ledger, error)
	// GetForUpdate 以 SELECT ... FOR UPDATE 读取，余额变更前调用
	GetForUpdate(ctx context.Context, id string) (*model.Ledger, error)
	GetByName(ctx context.Context, name string) (*model.Ledger, error)
	GetByEntity(ctx context.Context, entityType, entityID string) (*model.Ledger, error)
	List(ctx context.Context, filter LedgerFilter) ([]model.Ledger, error)
	Update(ctx context.Context, l *model.Ledger) error
	// AddBalance 余额原子增减：balance = balance + delta
	AddBalance(ctx context.Context, id string, delta decimal.Decimal) error
	Delete(ctx context.Context, id string) error
}

type ledgerRepo struct {
	db *gorm.DB
}

// NewLedgerRepo 创建 LedgerRepository 实例
func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) Create(ctx context.Context, l *model.Ledger) error {
	return r.db.WithContext(ctx).Omit("Head").Create(l).Error
}

func (r *ledgerRepo) GetByID(ctx context.Context, id string) (*model.Ledger, error) {
	var l model.Ledger
	if err := r.db.WithContext(ctx).Preload("Head").Where("ledger_id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ledgerRepo) GetForUpdate(ctx context.Context, id string) (*model.Ledger, error) {
	var l model.Ledger
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ledger_id = ?", id).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ledgerRepo) GetByName(ctx context.Context, name string) (*model.Ledger, error) {
	var l model.Ledger
	if err := r.db.WithContext(ctx).Preload("Head").Where("name = ?", name).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ledgerRepo) GetByEntity(ctx context.Context, entityType, entityID string) (*model.Ledger, error) {
	var l model.Ledger
	err := r.db.WithContext(ctx).
		Preload("Head").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ledgerRepo) List(ctx context.Context, filter LedgerFilter) ([]model.Ledger, error) {
	var list []model.Ledger
	db := r.db.WithContext(ctx).Preload("Head")
	if filter.HeadType != "" {
		db = db.Joins("JOIN account_heads ON account_heads.head_id = ledgers.head_id").
			Where("account_heads.type = ?", filter.HeadType)
	}
	if filter.EntityType != "" {
		db = db.Where("ledgers.entity_type = ?", filter.EntityType)
	}
	if filter.Status != "" {
		db = db.Where("ledgers.status = ?", filter.Status)
	}
	err := db.Order("ledgers.name ASC").Find(&list).Error
	return list, err
}

func (r *ledgerRepo) Update(ctx context.Context, l *model.Ledger) error {
	return r.db.WithContext(ctx).
		Model(&model.Ledger{}).
		Where("ledger_id = ?", l.LedgerID).
		Updates(map[string]interface{}{
			"name":        l.Name,
			"description": l.Description,
			"status":      l.Status,
			"updated_by":  l.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}

func (r *ledgerRepo) AddBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&model.Ledger{}).
		Where("ledger_id = ?", id).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
}

func (r *ledgerRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("ledger_id = ?", id).Delete(&model.Ledger{}).Error
}

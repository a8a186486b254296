package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"purple-port/backend/internal/model"
)

// EntryFilter 凭证列表过滤条件
type EntryFilter struct {
	LedgerID string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// LineSums 借贷合计
type LineSums struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// JournalRepository 凭证与分录行数据访问接口
type JournalRepository interface {
	// CreateEntry 连同 Lines 一并写入
	CreateEntry(ctx context.Context, entry *model.JournalEntry) error
	GetEntry(ctx context.Context, id string) (*model.JournalEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]model.JournalEntry, error)
	UpdateEntry(ctx context.Context, entry *model.JournalEntry) error
	UpdateLine(ctx context.Context, line *model.JournalLine) error
	DeleteEntry(ctx context.Context, id string) error
	CountLinesByLedger(ctx context.Context, ledgerID string) (int64, error)
	// SumLinesBefore 某账户在 before 之前的借贷合计
	SumLinesBefore(ctx context.Context, ledgerID string, before time.Time) (LineSums, error)
	// ListLinesInRange 某账户在 [from, to] 的分录行（预加载凭证头）
	ListLinesInRange(ctx context.Context, ledgerID string, from, to time.Time) ([]model.JournalLine, error)
}

type journalRepo struct {
	db *gorm.DB
}

// NewJournalRepo 创建 JournalRepository 实例
func NewJournalRepo(db *gorm.DB) JournalRepository {
	return &journalRepo{db: db}
}

func (r *journalRepo) CreateEntry(ctx context.Context, entry *model.JournalEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *journalRepo) GetEntry(ctx context.Context, id string) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Ledger").
		Where("entry_id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *journalRepo) ListEntries(ctx context.Context, filter EntryFilter) ([]model.JournalEntry, error) {
	var list []model.JournalEntry
	db := r.db.WithContext(ctx).Preload("Lines").Preload("Lines.Ledger")
	if filter.LedgerID != "" {
		db = db.Where("entry_id IN (?)",
			r.db.Model(&model.JournalLine{}).Select("entry_id").Where("ledger_id = ?", filter.LedgerID))
	}
	if filter.From != nil {
		db = db.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("date <= ?", *filter.To)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	err := db.Order("date DESC, created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *journalRepo) UpdateEntry(ctx context.Context, entry *model.JournalEntry) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(entry).Error
}

func (r *journalRepo) UpdateLine(ctx context.Context, line *model.JournalLine) error {
	return r.db.WithContext(ctx).
		Model(&model.JournalLine{}).
		Where("line_id = ?", line.LineID).
		Updates(map[string]interface{}{"debit": line.Debit, "credit": line.Credit}).Error
}

func (r *journalRepo) DeleteEntry(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("entry_id = ?", id).Delete(&model.JournalLine{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("entry_id = ?", id).Delete(&model.JournalEntry{}).Error
}

func (r *journalRepo) CountLinesByLedger(ctx context.Context, ledgerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.JournalLine{}).Where("ledger_id = ?", ledgerID).Count(&n).Error
	return n, err
}

func (r *journalRepo) SumLinesBefore(ctx context.Context, ledgerID string, before time.Time) (LineSums, error) {
	var row struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.JournalLine{}).
		Select("COALESCE(SUM(journal_lines.debit), 0) AS debit, COALESCE(SUM(journal_lines.credit), 0) AS credit").
		Joins("JOIN journal_entries ON journal_entries.entry_id = journal_lines.entry_id").
		Where("journal_lines.ledger_id = ? AND journal_entries.date < ?", ledgerID, before).
		Scan(&row).Error
	if err != nil {
		return LineSums{}, err
	}
	return LineSums{Debit: row.Debit, Credit: row.Credit}, nil
}

func (r *journalRepo) ListLinesInRange(ctx context.Context, ledgerID string, from, to time.Time) ([]model.JournalLine, error) {
	var lines []model.JournalLine
	err := r.db.WithContext(ctx).
		Preload("Entry").
		Joins("JOIN journal_entries ON journal_entries.entry_id = journal_lines.entry_id").
		Where("journal_lines.ledger_id = ? AND journal_entries.date >= ? AND journal_entries.date <= ?", ledgerID, from, to).
		Order("journal_entries.date ASC, journal_entries.created_at ASC").
		Find(&lines).Error
	return lines, err
}

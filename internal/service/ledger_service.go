package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"purple-port/backend/config"
	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/ledger"
	"purple-port/backend/internal/model"
	"purple-port/backend/internal/repository"
	pkgerrors "purple-port/backend/pkg/errors"
)

// ── 会计模块业务错误 ──

var (
	ErrLedgerNotFound          = pkgerrors.NotFound("账户不存在")
	ErrAccountHeadNotFound     = pkgerrors.NotFound("会计科目不存在")
	ErrAdjustmentLedgerMissing = pkgerrors.NotFound("期初调整账户不存在")
	ErrEntryNotFound           = pkgerrors.NotFound("凭证不存在")
	ErrLedgerHasTransactions   = pkgerrors.Conflict("Cannot delete ledger with existing transactions.")
	ErrInvalidAmount           = pkgerrors.Validation("金额必须大于 0")
	ErrSameLedger              = pkgerrors.Validation("借贷账户不能相同")
	ErrNegativeOpening         = pkgerrors.Validation("期初余额不能为负")
	ErrInvalidHeadType         = pkgerrors.Validation("未知的科目类型")
)

// 余额差额低于此值视为一致，不生成调整分录
var balanceTolerance = decimal.NewFromFloat(0.01)

// 系统生成分录的参考号
const (
	refOpening    = "OPENING"
	refManualEdit = "MANUAL_EDIT"
)

// PostEntryInput 一张两行凭证：借 DebitLedgerID，贷 CreditLedgerID
type PostEntryInput struct {
	Date           time.Time
	Description    string
	Amount         decimal.Decimal
	Type           string
	DebitLedgerID  string
	CreditLedgerID string
	Reference      string
	CreatedBy      string
}

// EnsureLedgerInput 按主体查找或创建账户；EntityID 为空时按名称查找
type EnsureLedgerInput struct {
	EntityType string
	EntityID   *string
	HeadCode   string
	Name       string
}

// LedgerService 复式记账业务接口
type LedgerService interface {
	ListAccountHeads(ctx context.Context) ([]dto.AccountHeadResponse, error)

	CreateLedger(ctx context.Context, req *dto.CreateLedgerRequest, callerID string) (*dto.LedgerResponse, error)
	UpdateLedger(ctx context.Context, id string, req *dto.UpdateLedgerRequest, callerID string) (*dto.LedgerResponse, error)
	DeleteLedger(ctx context.Context, id string) error
	GetLedger(ctx context.Context, id string) (*dto.LedgerResponse, error)
	ListLedgers(ctx context.Context, q *dto.LedgerListQuery) ([]dto.LedgerResponse, error)
	EnsureLedger(ctx context.Context, in EnsureLedgerInput) (*model.Ledger, error)

	PostEntry(ctx context.Context, in PostEntryInput) (*dto.TransactionResponse, error)
	RecordTransaction(ctx context.Context, req *dto.RecordTransactionRequest, callerID string) (*dto.TransactionResponse, error)
	UpdateTransaction(ctx context.Context, id string, req *dto.UpdateTransactionRequest, callerID string) (*dto.TransactionResponse, error)
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, q *dto.TransactionListQuery) ([]dto.TransactionResponse, error)

	GetAccountStatement(ctx context.Context, ledgerID, start, end string) (*dto.StatementResponse, error)
	GetFinancialOverview(ctx context.Context) (*dto.FinancialOverviewResponse, error)
}

type ledgerService struct {
	acct   config.AccountingConfig
	repo   *repository.Repository
	clock  attendance.Clock
	now    func() time.Time
	logger *zap.Logger
}

// NewLedgerService 创建 LedgerService 实例
func NewLedgerService(cfg *config.Config, repo *repository.Repository, clock attendance.Clock, now func() time.Time, logger *zap.Logger) LedgerService {
	return &ledgerService{acct: cfg.Accounting, repo: repo, clock: clock, now: now, logger: logger}
}

// ────────────────────── ListAccountHeads ──────────────────────

func (s *ledgerService) ListAccountHeads(ctx context.Context) ([]dto.AccountHeadResponse, error) {
	heads, err := s.repo.AccountHead.List(ctx)
	if err != nil {
		s.logger.Error("查询会计科目失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.AccountHeadResponse, 0, len(heads))
	for _, h := range heads {
		result = append(result, dto.AccountHeadResponse{
			ID:     h.HeadID,
			Code:   h.Code,
			Name:   h.Name,
			Type:   h.Type,
			Nature: ledger.NatureOf(ledger.HeadType(h.Type)).String(),
		})
	}
	return result, nil
}

// ────────────────────── CreateLedger ──────────────────────

func (s *ledgerService) CreateLedger(ctx context.Context, req *dto.CreateLedgerRequest, callerID string) (*dto.LedgerResponse, error) {
	head, err := s.repo.AccountHead.GetByID(ctx, req.HeadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountHeadNotFound
		}
		s.logger.Error("查询会计科目失败", zap.String("head_id", req.HeadID), zap.Error(err))
		return nil, err
	}
	// 科目类型决定期初分录方向，未知类型不允许挂账户
	if !ledger.HeadType(head.Type).Valid() {
		return nil, ErrInvalidHeadType
	}

	opening := decimal.Zero
	if req.OpeningBalance != nil {
		opening = ledger.Money(*req.OpeningBalance)
	}
	if opening.IsNegative() {
		return nil, ErrNegativeOpening
	}
	date, err := s.dateOrToday(req.Date)
	if err != nil {
		return nil, err
	}

	l := &model.Ledger{
		Name:        req.Name,
		HeadID:      head.HeadID,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Description: req.Description,
		Status:      "ACTIVE",
		Balance:     decimal.Zero,
	}
	if l.EntityType == "" {
		l.EntityType = model.EntityInternal
	}
	l.CreatedBy = &callerID
	l.UpdatedBy = &callerID

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Ledger.Create(ctx, l); err != nil {
			return err
		}
		if !opening.IsPositive() {
			return nil
		}

		adj, err := s.adjustmentLedger(ctx, txRepo)
		if err != nil {
			return err
		}
		in := PostEntryInput{
			Date:        date,
			Description: "Opening Balance - " + l.Name,
			Amount:      opening,
			Type:        model.EntryJournal,
			Reference:   refOpening,
			CreatedBy:   callerID,
		}
		if ledger.DebitsNewLedger(ledger.HeadType(head.Type)) {
			in.DebitLedgerID, in.CreditLedgerID = l.LedgerID, adj.LedgerID
		} else {
			in.DebitLedgerID, in.CreditLedgerID = adj.LedgerID, l.LedgerID
		}
		_, err = postEntry(ctx, txRepo, in)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("创建账户失败", zap.String("name", req.Name), zap.Error(err))
		}
		return nil, err
	}

	return s.GetLedger(ctx, l.LedgerID)
}

// ────────────────────── UpdateLedger ──────────────────────

func (s *ledgerService) UpdateLedger(ctx context.Context, id string, req *dto.UpdateLedgerRequest, callerID string) (*dto.LedgerResponse, error) {
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		l, err := txRepo.Ledger.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLedgerNotFound
			}
			return err
		}

		if req.TargetBalance != nil {
			diff := ledger.Money(*req.TargetBalance).Sub(l.Balance)
			if diff.Abs().GreaterThan(balanceTolerance) {
				adj, err := s.adjustmentLedger(ctx, txRepo)
				if err != nil {
					return err
				}
				in := PostEntryInput{
					Date:        s.clock.LocalMidnight(s.now()),
					Description: "Balance adjustment - " + l.Name,
					Amount:      diff.Abs(),
					Type:        model.EntryJournal,
					Reference:   refManualEdit,
					CreatedBy:   callerID,
				}
				if diff.IsPositive() {
					in.DebitLedgerID, in.CreditLedgerID = l.LedgerID, adj.LedgerID
				} else {
					in.DebitLedgerID, in.CreditLedgerID = adj.LedgerID, l.LedgerID
				}
				if _, err := postEntry(ctx, txRepo, in); err != nil {
					return err
				}
			}
		}

		if req.Name != nil {
			l.Name = *req.Name
		}
		if req.Description != nil {
			l.Description = *req.Description
		}
		if req.Status != nil {
			l.Status = *req.Status
		}
		l.UpdatedBy = &callerID
		return txRepo.Ledger.Update(ctx, l)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("更新账户失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.GetLedger(ctx, id)
}

// ────────────────────── DeleteLedger ──────────────────────

func (s *ledgerService) DeleteLedger(ctx context.Context, id string) error {
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if _, err := txRepo.Ledger.GetForUpdate(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLedgerNotFound
			}
			return err
		}

		// 行锁持有期间不会有新分录写入该账户
		n, err := txRepo.Journal.CountLinesByLedger(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrLedgerHasTransactions
		}
		return txRepo.Ledger.Delete(ctx, id)
	})
	if err != nil && !isDomainError(err) {
		s.logger.Error("删除账户失败", zap.String("id", id), zap.Error(err))
	}
	return err
}

// ────────────────────── GetLedger / ListLedgers ──────────────────────

func (s *ledgerService) GetLedger(ctx context.Context, id string) (*dto.LedgerResponse, error) {
	l, err := s.getLedger(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLedgerResponse(l), nil
}

func (s *ledgerService) ListLedgers(ctx context.Context, q *dto.LedgerListQuery) ([]dto.LedgerResponse, error) {
	if q.HeadType != "" && !ledger.HeadType(q.HeadType).Valid() {
		return nil, ErrInvalidHeadType
	}
	list, err := s.repo.Ledger.List(ctx, repository.LedgerFilter{
		HeadType:   q.HeadType,
		EntityType: q.EntityType,
		Status:     q.Status,
	})
	if err != nil {
		s.logger.Error("查询账户列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.LedgerResponse, 0, len(list))
	for i := range list {
		result = append(result, *toLedgerResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── EnsureLedger ──────────────────────

func (s *ledgerService) EnsureLedger(ctx context.Context, in EnsureLedgerInput) (*model.Ledger, error) {
	var l *model.Ledger
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		var err error
		l, err = ensureLedger(ctx, txRepo, in)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("查找或创建账户失败", zap.String("name", in.Name), zap.Error(err))
		}
		return nil, err
	}
	return l, nil
}

// ────────────────────── PostEntry ──────────────────────

func (s *ledgerService) PostEntry(ctx context.Context, in PostEntryInput) (*dto.TransactionResponse, error) {
	var entry *model.JournalEntry
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		var err error
		entry, err = postEntry(ctx, txRepo, in)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("记账失败",
				zap.String("debit", in.DebitLedgerID),
				zap.String("credit", in.CreditLedgerID),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("记账成功",
		zap.String("entry_id", entry.EntryID),
		zap.String("amount", entry.Amount.String()))
	return s.getTransaction(ctx, entry.EntryID)
}

// ────────────────────── RecordTransaction ──────────────────────

func (s *ledgerService) RecordTransaction(ctx context.Context, req *dto.RecordTransactionRequest, callerID string) (*dto.TransactionResponse, error) {
	date, err := s.clock.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return s.PostEntry(ctx, PostEntryInput{
		Date:           date,
		Description:    req.Description,
		Amount:         req.Amount,
		Type:           req.Type,
		DebitLedgerID:  req.ToLedgerID,
		CreditLedgerID: req.FromLedgerID,
		Reference:      req.Reference,
		CreatedBy:      callerID,
	})
}

// ────────────────────── UpdateTransaction ──────────────────────

func (s *ledgerService) UpdateTransaction(ctx context.Context, id string, req *dto.UpdateTransactionRequest, callerID string) (*dto.TransactionResponse, error) {
	var newDate *time.Time
	if req.Date != nil {
		d, err := s.clock.ParseDate(*req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		newDate = &d
	}

	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		entry, err := txRepo.Journal.GetEntry(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}

		if req.Amount != nil {
			newAmount := ledger.Money(*req.Amount)
			if !newAmount.IsPositive() {
				return ErrInvalidAmount
			}
			if !newAmount.Equal(entry.Amount) {
				if err := rescaleEntry(ctx, txRepo, entry, newAmount); err != nil {
					return err
				}
			}
		}

		if req.Description != nil {
			entry.Description = *req.Description
		}
		if req.Reference != nil {
			entry.Reference = *req.Reference
		}
		if newDate != nil {
			entry.Date = *newDate
		}
		entry.UpdatedBy = &callerID
		return txRepo.Journal.UpdateEntry(ctx, entry)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("修改凭证失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.getTransaction(ctx, id)
}

// ────────────────────── DeleteTransaction ──────────────────────

func (s *ledgerService) DeleteTransaction(ctx context.Context, id string) error {
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		entry, err := txRepo.Journal.GetEntry(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}

		if err := lockLedgers(ctx, txRepo, lineLedgerIDs(entry.Lines)...); err != nil {
			return err
		}
		for _, line := range entry.Lines {
			// 冲回：借方行减余额，贷方行加余额
			if err := txRepo.Ledger.AddBalance(ctx, line.LedgerID, ledger.Delta(line.Debit, line.Credit).Neg()); err != nil {
				return err
			}
		}
		return txRepo.Journal.DeleteEntry(ctx, id)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("删除凭证失败", zap.String("id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("凭证已删除并冲回余额", zap.String("entry_id", id))
	return nil
}

// ────────────────────── ListTransactions ──────────────────────

func (s *ledgerService) ListTransactions(ctx context.Context, q *dto.TransactionListQuery) ([]dto.TransactionResponse, error) {
	filter := repository.EntryFilter{LedgerID: q.LedgerID, Limit: q.Limit}
	if q.Start != "" {
		d, err := s.clock.ParseDate(q.Start)
		if err != nil {
			return nil, ErrInvalidDate
		}
		filter.From = &d
	}
	if q.End != "" {
		d, err := s.clock.ParseDate(q.End)
		if err != nil {
			return nil, ErrInvalidDate
		}
		filter.To = &d
	}

	entries, err := s.repo.Journal.ListEntries(ctx, filter)
	if err != nil {
		s.logger.Error("查询凭证列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TransactionResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *toTransactionResponse(s.clock, &entries[i]))
	}
	return result, nil
}

// ────────────────────── GetAccountStatement ──────────────────────

func (s *ledgerService) GetAccountStatement(ctx context.Context, ledgerID, start, end string) (*dto.StatementResponse, error) {
	from, err := s.clock.ParseDate(start)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := s.clock.ParseDate(end)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	l, err := s.getLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	nature := ledger.NatureOf(headType(l))

	before, err := s.repo.Journal.SumLinesBefore(ctx, ledgerID, from)
	if err != nil {
		s.logger.Error("统计期初余额失败", zap.String("ledger_id", ledgerID), zap.Error(err))
		return nil, err
	}
	// 截止日当天全天计入
	lines, err := s.repo.Journal.ListLinesInRange(ctx, ledgerID, from, to.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		s.logger.Error("查询账户分录失败", zap.String("ledger_id", ledgerID), zap.Error(err))
		return nil, err
	}

	input := make([]ledger.Line, 0, len(lines))
	for _, jl := range lines {
		line := ledger.Line{EntryID: jl.EntryID, Debit: jl.Debit, Credit: jl.Credit}
		if jl.Entry != nil {
			line.Date = jl.Entry.Date
			line.Description = jl.Entry.Description
			line.Reference = jl.Entry.Reference
		}
		input = append(input, line)
	}
	st := ledger.Sweep(nature, ledger.OpeningBalance(nature, before.Debit, before.Credit), input)

	resp := &dto.StatementResponse{
		LedgerID:       l.LedgerID,
		LedgerName:     l.Name,
		Nature:         nature.String(),
		Start:          start,
		End:            end,
		OpeningBalance: st.Opening,
		ClosingBalance: st.Closing,
		TotalDebit:     st.Debits,
		TotalCredit:    st.Credits,
		Lines:          make([]dto.StatementLineResponse, 0, len(st.Lines)),
	}
	for _, sl := range st.Lines {
		resp.Lines = append(resp.Lines, dto.StatementLineResponse{
			EntryID:     sl.EntryID,
			Date:        s.clock.FormatDate(sl.Date),
			Description: sl.Description,
			Reference:   sl.Reference,
			Debit:       sl.Debit,
			Credit:      sl.Credit,
			Balance:     sl.Balance,
		})
	}
	return resp, nil
}

// ────────────────────── GetFinancialOverview ──────────────────────

func (s *ledgerService) GetFinancialOverview(ctx context.Context) (*dto.FinancialOverviewResponse, error) {
	list, err := s.repo.Ledger.List(ctx, repository.LedgerFilter{})
	if err != nil {
		s.logger.Error("查询账户列表失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.FinancialOverviewResponse{
		Income:           decimal.Zero,
		Expense:          decimal.Zero,
		CashBankBalance:  decimal.Zero,
		ExpenseBreakdown: []dto.ExpenseItem{},
	}
	for i := range list {
		l := &list[i]
		switch headType(l) {
		case ledger.HeadIncome:
			resp.Income = resp.Income.Add(l.Balance.Neg())
		case ledger.HeadExpense:
			resp.Expense = resp.Expense.Add(l.Balance)
			if !l.Balance.IsZero() {
				resp.ExpenseBreakdown = append(resp.ExpenseBreakdown, dto.ExpenseItem{
					LedgerID: l.LedgerID, LedgerName: l.Name, Amount: l.Balance,
				})
			}
		}
		if l.EntityType == model.EntityBank || l.EntityType == model.EntityCash {
			resp.CashBankBalance = resp.CashBankBalance.Add(l.Balance)
		}
	}
	resp.NetProfit = resp.Income.Sub(resp.Expense)
	sort.SliceStable(resp.ExpenseBreakdown, func(i, j int) bool {
		return resp.ExpenseBreakdown[i].Amount.GreaterThan(resp.ExpenseBreakdown[j].Amount)
	})
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *ledgerService) getLedger(ctx context.Context, id string) (*model.Ledger, error) {
	l, err := s.repo.Ledger.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerNotFound
		}
		s.logger.Error("查询账户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return l, nil
}

func (s *ledgerService) getTransaction(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	entry, err := s.repo.Journal.GetEntry(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		s.logger.Error("查询凭证失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toTransactionResponse(s.clock, entry), nil
}

func (s *ledgerService) adjustmentLedger(ctx context.Context, repo *repository.Repository) (*model.Ledger, error) {
	adj, err := repo.Ledger.GetByName(ctx, s.acct.AdjustmentLedger)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdjustmentLedgerMissing
		}
		return nil, err
	}
	return adj, nil
}

func (s *ledgerService) dateOrToday(v *string) (time.Time, error) {
	if v == nil || *v == "" {
		return s.clock.LocalMidnight(s.now()), nil
	}
	d, err := s.clock.ParseDate(*v)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// postEntry 在给定仓储（通常为事务）上写入两行凭证并同步两个账户余额。
// 借方账户 balance += amount，贷方账户 balance -= amount。
func postEntry(ctx context.Context, repo *repository.Repository, in PostEntryInput) (*model.JournalEntry, error) {
	amount := ledger.Money(in.Amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.DebitLedgerID == in.CreditLedgerID {
		return nil, ErrSameLedger
	}
	if err := lockLedgers(ctx, repo, in.DebitLedgerID, in.CreditLedgerID); err != nil {
		return nil, err
	}

	entryType := in.Type
	if entryType == "" {
		entryType = model.EntryJournal
	}
	entry := &model.JournalEntry{
		Date:        in.Date,
		Description: in.Description,
		Amount:      amount,
		Type:        entryType,
		Reference:   in.Reference,
		Lines: []model.JournalLine{
			{LedgerID: in.DebitLedgerID, Debit: amount, Credit: decimal.Zero},
			{LedgerID: in.CreditLedgerID, Debit: decimal.Zero, Credit: amount},
		},
	}
	if in.CreatedBy != "" {
		entry.CreatedBy = &in.CreatedBy
		entry.UpdatedBy = &in.CreatedBy
	}

	if err := repo.Journal.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := repo.Ledger.AddBalance(ctx, in.DebitLedgerID, amount); err != nil {
		return nil, err
	}
	if err := repo.Ledger.AddBalance(ctx, in.CreditLedgerID, amount.Neg()); err != nil {
		return nil, err
	}
	return entry, nil
}

// rescaleEntry 冲回原分录行影响，按新旧金额比例缩放各行后重新入账
func rescaleEntry(ctx context.Context, repo *repository.Repository, entry *model.JournalEntry, newAmount decimal.Decimal) error {
	if err := lockLedgers(ctx, repo, lineLedgerIDs(entry.Lines)...); err != nil {
		return err
	}
	oldAmount := entry.Amount
	for i := range entry.Lines {
		line := &entry.Lines[i]
		oldDelta := ledger.Delta(line.Debit, line.Credit)
		line.Debit = ledger.Scale(line.Debit, newAmount, oldAmount)
		line.Credit = ledger.Scale(line.Credit, newAmount, oldAmount)
		newDelta := ledger.Delta(line.Debit, line.Credit)

		if err := repo.Ledger.AddBalance(ctx, line.LedgerID, newDelta.Sub(oldDelta)); err != nil {
			return err
		}
		if err := repo.Journal.UpdateLine(ctx, line); err != nil {
			return err
		}
	}
	entry.Amount = newAmount
	return nil
}

// lockLedgers 按 ID 排序后逐个加行锁，避免并发记账死锁
func lockLedgers(ctx context.Context, repo *repository.Repository, ids ...string) error {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	var prev string
	for _, id := range sorted {
		if id == prev {
			continue
		}
		prev = id
		if _, err := repo.Ledger.GetForUpdate(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound(fmt.Sprintf("账户不存在: %s", id))
			}
			return err
		}
	}
	return nil
}

// ensureLedger 查找或创建主体账户，新账户余额为 0
func ensureLedger(ctx context.Context, repo *repository.Repository, in EnsureLedgerInput) (*model.Ledger, error) {
	var (
		l   *model.Ledger
		err error
	)
	if in.EntityID != nil {
		l, err = repo.Ledger.GetByEntity(ctx, in.EntityType, *in.EntityID)
	} else {
		l, err = repo.Ledger.GetByName(ctx, in.Name)
	}
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	head, err := repo.AccountHead.GetByCode(ctx, in.HeadCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountHeadNotFound
		}
		return nil, err
	}
	l = &model.Ledger{
		Name:       in.Name,
		HeadID:     head.HeadID,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Status:     "ACTIVE",
		Balance:    decimal.Zero,
		Head:       head,
	}
	if err := repo.Ledger.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func lineLedgerIDs(lines []model.JournalLine) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.LedgerID)
	}
	return ids
}

func headType(l *model.Ledger) ledger.HeadType {
	if l.Head == nil {
		return ledger.HeadAsset
	}
	return ledger.HeadType(l.Head.Type)
}

func toLedgerResponse(l *model.Ledger) *dto.LedgerResponse {
	resp := &dto.LedgerResponse{
		ID:          l.LedgerID,
		Name:        l.Name,
		HeadID:      l.HeadID,
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		Description: l.Description,
		Status:      l.Status,
		Balance:     l.Balance,
	}
	if l.Head != nil {
		sb := ledger.NewSignedBalance(l.Balance, ledger.HeadType(l.Head.Type))
		resp.HeadCode = l.Head.Code
		resp.HeadType = l.Head.Type
		resp.Nature = sb.Nature.String()
		resp.DisplayBalance = sb.Display()
	} else {
		resp.DisplayBalance = l.Balance
	}
	return resp
}

func toTransactionResponse(clock attendance.Clock, e *model.JournalEntry) *dto.TransactionResponse {
	resp := &dto.TransactionResponse{
		ID:          e.EntryID,
		Date:        clock.FormatDate(e.Date),
		Description: e.Description,
		Amount:      e.Amount,
		Type:        e.Type,
		Reference:   e.Reference,
		Lines:       make([]dto.TransactionLineResponse, 0, len(e.Lines)),
	}
	for _, l := range e.Lines {
		line := dto.TransactionLineResponse{
			ID:       l.LineID,
			LedgerID: l.LedgerID,
			Debit:    l.Debit,
			Credit:   l.Credit,
		}
		if l.Ledger != nil {
			line.LedgerName = l.Ledger.Name
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}

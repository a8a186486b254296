package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"purple-port/backend/config"
	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/model"
	"purple-port/backend/internal/repository"
)

// ── 测试环境 ──

// 固定当前时间：2026-03-10 14:00 IST
var testNow = time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

var testClock = attendance.NewClock(330)

func testConfig() *config.Config {
	return &config.Config{
		Org: config.OrgConfig{
			UTCOffsetMinutes:       330,
			DefaultShiftStart:      "09:00",
			DefaultShiftEnd:        "18:00",
			DefaultGraceMinutes:    15,
			OvernightCutoffHour:    7,
			RegularisationMonthCap: 3,
			RegularisedWorkHours:   8.5,
		},
		Biometric: config.BiometricConfig{
			BridgeEnabled: true,
			BridgeAPIKey:  "bridge-key-for-unit-tests",
			OnlineWindow:  24 * time.Hour,
		},
		Accounting: config.AccountingConfig{
			AdjustmentLedger:    "Opening Balance Adjustment",
			SalaryExpenseLedger: "Salary & Wages",
			SalaryPayableLedger: "Salary Payable",
		},
	}
}

// mockRepos 聚合全部 mock，便于在测试中直接布置数据
type mockRepos struct {
	user         *mockUserRepo
	staff        *mockStaffProfileRepo
	shift        *mockShiftRepo
	assignment   *mockShiftAssignmentRepo
	attendance   *mockAttendanceRepo
	reg          *mockRegularisationRepo
	leave        *mockLeaveRepo
	holiday      *mockHolidayRepo
	heads        *mockAccountHeadRepo
	ledger       *mockLedgerRepo
	journal      *mockJournalRepo
	payroll      *mockPayrollRepo
	systemConfig *mockSystemConfigRepo
}

func newMockRepos() *mockRepos {
	heads := newMockAccountHeadRepo()
	ledgers := newMockLedgerRepo(heads)
	user := newMockUserRepo()
	return &mockRepos{
		user:         user,
		staff:        newMockStaffProfileRepo(user),
		shift:        newMockShiftRepo(),
		assignment:   newMockShiftAssignmentRepo(),
		attendance:   newMockAttendanceRepo(),
		reg:          newMockRegularisationRepo(),
		leave:        newMockLeaveRepo(),
		holiday:      newMockHolidayRepo(),
		heads:        heads,
		ledger:       ledgers,
		journal:      newMockJournalRepo(ledgers),
		payroll:      newMockPayrollRepo(user),
		systemConfig: newMockSystemConfigRepo(),
	}
}

func (m *mockRepos) repository() *repository.Repository {
	return &repository.Repository{
		User:            m.user,
		StaffProfile:    m.staff,
		Shift:           m.shift,
		ShiftAssignment: m.assignment,
		Attendance:      m.attendance,
		Regularisation:  m.reg,
		Leave:           m.leave,
		Holiday:         m.holiday,
		AccountHead:     m.heads,
		Ledger:          m.ledger,
		Journal:         m.journal,
		Payroll:         m.payroll,
		SystemConfig:    m.systemConfig,
	}
}

// newTestResolver 以测试配置与固定时区构造班次解析器
func newTestResolver(m *mockRepos) *ShiftResolver {
	cfg := testConfig()
	return NewShiftResolver(m.repository(), cfg.Org, testClock, zap.NewNop())
}

// addStaff 布置一名员工：用户 + 档案
func (m *mockRepos) addStaff(userID, staffNumber string) *model.StaffProfile {
	m.user.users[userID] = &model.User{UserID: userID, FullName: "Staff " + staffNumber, Email: staffNumber + "@purple.test", Role: model.RoleStaff, IsActive: true}
	p := &model.StaffProfile{
		StaffProfileID: "sp-" + userID,
		UserID:         userID,
		StaffNumber:    staffNumber,
		BaseSalary:     decimal.Zero,
		HRA:            decimal.Zero,
	}
	m.staff.profiles[p.StaffProfileID] = p
	return p
}

// ── Mock StaffProfileRepository ──

type mockStaffProfileRepo struct {
	profiles map[string]*model.StaffProfile
	users    *mockUserRepo
	locked   []string // GetForUpdate 调用记录
}

func newMockStaffProfileRepo(users *mockUserRepo) *mockStaffProfileRepo {
	return &mockStaffProfileRepo{profiles: make(map[string]*model.StaffProfile), users: users}
}

func (m *mockStaffProfileRepo) Create(_ context.Context, p *model.StaffProfile) error {
	if p.StaffProfileID == "" {
		p.StaffProfileID = "sp-" + p.UserID
	}
	m.profiles[p.StaffProfileID] = p
	return nil
}

func (m *mockStaffProfileRepo) GetByID(_ context.Context, id string) (*model.StaffProfile, error) {
	if p, ok := m.profiles[id]; ok {
		return m.withUser(p), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffProfileRepo) GetForUpdate(ctx context.Context, id string) (*model.StaffProfile, error) {
	m.locked = append(m.locked, id)
	p, ok := m.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	cp.User = nil
	return &cp, nil
}

func (m *mockStaffProfileRepo) GetByUserID(_ context.Context, userID string) (*model.StaffProfile, error) {
	for _, p := range m.profiles {
		if p.UserID == userID {
			return m.withUser(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffProfileRepo) GetByStaffNumber(_ context.Context, staffNumber string) (*model.StaffProfile, error) {
	for _, p := range m.profiles {
		if p.StaffNumber == staffNumber {
			return m.withUser(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffProfileRepo) List(_ context.Context) ([]model.StaffProfile, error) {
	var result []model.StaffProfile
	for _, p := range m.profiles {
		result = append(result, *m.withUser(p))
	}
	return result, nil
}

func (m *mockStaffProfileRepo) Update(_ context.Context, p *model.StaffProfile) error {
	cp := *p
	cp.User = nil
	m.profiles[p.StaffProfileID] = &cp
	return nil
}

func (m *mockStaffProfileRepo) withUser(p *model.StaffProfile) *model.StaffProfile {
	cp := *p
	if u, ok := m.users.users[p.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.Shift
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, s *model.Shift) error {
	if s.ShiftID == "" {
		s.ShiftID = "shift-" + s.Name
	}
	m.shifts[s.ShiftID] = s
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) List(_ context.Context) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, s *model.Shift) error {
	cp := *s
	m.shifts[s.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id string) error {
	delete(m.shifts, id)
	return nil
}

// ── Mock ShiftAssignmentRepository ──

type mockShiftAssignmentRepo struct {
	assignments map[string]*model.StaffShiftAssignment
	seq         int
}

func newMockShiftAssignmentRepo() *mockShiftAssignmentRepo {
	return &mockShiftAssignmentRepo{assignments: make(map[string]*model.StaffShiftAssignment)}
}

func (m *mockShiftAssignmentRepo) Create(_ context.Context, a *model.StaffShiftAssignment) error {
	if a.AssignmentID == "" {
		m.seq++
		a.AssignmentID = fmt.Sprintf("asg-%d", m.seq)
	}
	cp := *a
	cp.Shift = nil
	m.assignments[a.AssignmentID] = &cp
	return nil
}

func (m *mockShiftAssignmentRepo) GetByID(_ context.Context, id string) (*model.StaffShiftAssignment, error) {
	if a, ok := m.assignments[id]; ok && a.IsActive {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftAssignmentRepo) FindActiveForDate(_ context.Context, staffProfileID string, date time.Time) (*model.StaffShiftAssignment, error) {
	for _, a := range m.assignments {
		if a.StaffProfileID != staffProfileID || !a.IsActive {
			continue
		}
		if date.Before(a.FromDate) || (a.ToDate != nil && date.After(*a.ToDate)) {
			continue
		}
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftAssignmentRepo) FindOverlapping(_ context.Context, staffProfileID string, from time.Time, to *time.Time) ([]model.StaffShiftAssignment, error) {
	var result []model.StaffShiftAssignment
	for _, a := range m.assignments {
		if a.StaffProfileID != staffProfileID || !a.IsActive {
			continue
		}
		startsAfter := to != nil && a.FromDate.After(*to)
		endsBefore := a.ToDate != nil && a.ToDate.Before(from)
		if !startsAfter && !endsBefore {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockShiftAssignmentRepo) ListByStaff(_ context.Context, staffProfileID string) ([]model.StaffShiftAssignment, error) {
	var result []model.StaffShiftAssignment
	for _, a := range m.assignments {
		if a.StaffProfileID == staffProfileID && a.IsActive {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockShiftAssignmentRepo) Deactivate(_ context.Context, id string) error {
	if a, ok := m.assignments[id]; ok {
		a.IsActive = false
	}
	return nil
}

func (m *mockShiftAssignmentRepo) CountByShift(_ context.Context, shiftID string) (int64, error) {
	var n int64
	for _, a := range m.assignments {
		if a.ShiftID == shiftID && a.IsActive {
			n++
		}
	}
	return n, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[string]*model.AttendanceRecord // key: user_id|unix
	seq     int
	updates int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.AttendanceRecord)}
}

func attendanceKey(userID string, date time.Time) string {
	return fmt.Sprintf("%s|%d", userID, date.Unix())
}

// get 测试断言用，返回存储中的记录
func (m *mockAttendanceRepo) get(userID string, date time.Time) *model.AttendanceRecord {
	return m.records[attendanceKey(userID, date)]
}

func (m *mockAttendanceRepo) Create(_ context.Context, rec *model.AttendanceRecord) error {
	key := attendanceKey(rec.UserID, rec.Date)
	if _, ok := m.records[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if rec.AttendanceID == "" {
		m.seq++
		rec.AttendanceID = fmt.Sprintf("att-%d", m.seq)
	}
	cp := *rec
	m.records[key] = &cp
	return nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, rec *model.AttendanceRecord) error {
	m.updates++
	for key, r := range m.records {
		if r.AttendanceID == rec.AttendanceID {
			delete(m.records, key)
		}
	}
	cp := *rec
	m.records[attendanceKey(rec.UserID, rec.Date)] = &cp
	return nil
}

func (m *mockAttendanceRepo) Delete(_ context.Context, id string) error {
	for key, r := range m.records {
		if r.AttendanceID == id {
			delete(m.records, key)
		}
	}
	return nil
}

func (m *mockAttendanceRepo) GetByUserAndDate(_ context.Context, userID string, date time.Time) (*model.AttendanceRecord, error) {
	if r, ok := m.records[attendanceKey(userID, date)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListByUserRange(_ context.Context, userID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.UserID == userID && !r.Date.Before(from) && !r.Date.After(to) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// ── Mock RegularisationRepository ──

type mockRegularisationRepo struct {
	requests map[string]*model.RegularisationRequest
	seq      int
}

func newMockRegularisationRepo() *mockRegularisationRepo {
	return &mockRegularisationRepo{requests: make(map[string]*model.RegularisationRequest)}
}

func (m *mockRegularisationRepo) Create(_ context.Context, req *model.RegularisationRequest) error {
	m.seq++
	req.RequestID = fmt.Sprintf("reg-%d", m.seq)
	cp := *req
	m.requests[req.RequestID] = &cp
	return nil
}

func (m *mockRegularisationRepo) GetByID(_ context.Context, id string) (*model.RegularisationRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegularisationRepo) Update(_ context.Context, req *model.RegularisationRequest) error {
	cp := *req
	m.requests[req.RequestID] = &cp
	return nil
}

func (m *mockRegularisationRepo) CountByUserInRange(_ context.Context, userID string, from, to time.Time) (int64, error) {
	var n int64
	for _, r := range m.requests {
		if r.UserID == userID && !r.Date.Before(from) && r.Date.Before(to) {
			n++
		}
	}
	return n, nil
}

func (m *mockRegularisationRepo) List(_ context.Context, userID, status string) ([]model.RegularisationRequest, error) {
	var result []model.RegularisationRequest
	for _, r := range m.requests {
		if (userID == "" || r.UserID == userID) && (status == "" || r.Status == status) {
			result = append(result, *r)
		}
	}
	return result, nil
}

// ── Mock LeaveRepository ──

type mockLeaveRepo struct {
	leaves map[string]*model.LeaveRequest
	seq    int
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{leaves: make(map[string]*model.LeaveRequest)}
}

func (m *mockLeaveRepo) Create(_ context.Context, l *model.LeaveRequest) error {
	if l.LeaveID == "" {
		m.seq++
		l.LeaveID = fmt.Sprintf("leave-%d", m.seq)
	}
	cp := *l
	m.leaves[l.LeaveID] = &cp
	return nil
}

func (m *mockLeaveRepo) GetByID(_ context.Context, id string) (*model.LeaveRequest, error) {
	if l, ok := m.leaves[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRepo) Update(_ context.Context, l *model.LeaveRequest) error {
	cp := *l
	m.leaves[l.LeaveID] = &cp
	return nil
}

func (m *mockLeaveRepo) List(_ context.Context, userID, status string) ([]model.LeaveRequest, error) {
	var result []model.LeaveRequest
	for _, l := range m.leaves {
		if (userID == "" || l.UserID == userID) && (status == "" || l.Status == status) {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockLeaveRepo) FindOverlapping(_ context.Context, userID string, start, end time.Time) ([]model.LeaveRequest, error) {
	var result []model.LeaveRequest
	for _, l := range m.leaves {
		if l.UserID == userID && l.Status != model.RequestRejected &&
			!l.StartDate.After(end) && !l.EndDate.Before(start) {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockLeaveRepo) ListApprovedInRange(_ context.Context, userID string, from, to time.Time) ([]model.LeaveRequest, error) {
	var result []model.LeaveRequest
	for _, l := range m.leaves {
		if l.UserID == userID && l.Status == model.RequestApproved &&
			!l.StartDate.After(to) && !l.EndDate.Before(from) {
			result = append(result, *l)
		}
	}
	return result, nil
}

// ── Mock HolidayRepository ──

type mockHolidayRepo struct {
	holidays map[string]*model.Holiday
}

func newMockHolidayRepo() *mockHolidayRepo {
	return &mockHolidayRepo{holidays: make(map[string]*model.Holiday)}
}

func (m *mockHolidayRepo) Create(_ context.Context, h *model.Holiday) error {
	if h.HolidayID == "" {
		h.HolidayID = "hol-" + h.Date.Format("20060102")
	}
	m.holidays[h.HolidayID] = h
	return nil
}

func (m *mockHolidayRepo) GetByID(_ context.Context, id string) (*model.Holiday, error) {
	if h, ok := m.holidays[id]; ok {
		return h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHolidayRepo) GetByDate(_ context.Context, date time.Time) (*model.Holiday, error) {
	for _, h := range m.holidays {
		if h.Date.Equal(date) {
			return h, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHolidayRepo) ListInRange(_ context.Context, from, to time.Time) ([]model.Holiday, error) {
	var result []model.Holiday
	for _, h := range m.holidays {
		if !h.Date.Before(from) && h.Date.Before(to) {
			result = append(result, *h)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockHolidayRepo) Delete(_ context.Context, id string) error {
	delete(m.holidays, id)
	return nil
}

// ── Mock AccountHeadRepository ──

type mockAccountHeadRepo struct {
	heads map[string]*model.AccountHead
}

// newMockAccountHeadRepo 预置与种子迁移一致的科目
func newMockAccountHeadRepo() *mockAccountHeadRepo {
	m := &mockAccountHeadRepo{heads: make(map[string]*model.AccountHead)}
	for _, h := range []model.AccountHead{
		{HeadID: "head-1000", Code: "1000", Name: "Assets", Type: "ASSET"},
		{HeadID: "head-1100", Code: "1100", Name: "Bank & Cash", Type: "ASSET"},
		{HeadID: "head-2000", Code: "2000", Name: "Liabilities", Type: "LIABILITY"},
		{HeadID: "head-3000", Code: "3000", Name: "Equity", Type: "EQUITY"},
		{HeadID: "head-4000", Code: "4000", Name: "Income", Type: "INCOME"},
		{HeadID: "head-6000", Code: "6000", Name: "Expenses", Type: "EXPENSE"},
	} {
		h := h
		m.heads[h.HeadID] = &h
	}
	return m
}

func (m *mockAccountHeadRepo) GetByID(_ context.Context, id string) (*model.AccountHead, error) {
	if h, ok := m.heads[id]; ok {
		return h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccountHeadRepo) GetByCode(_ context.Context, code string) (*model.AccountHead, error) {
	for _, h := range m.heads {
		if h.Code == code {
			return h, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccountHeadRepo) List(_ context.Context) ([]model.AccountHead, error) {
	var result []model.AccountHead
	for _, h := range m.heads {
		result = append(result, *h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// ── Mock LedgerRepository ──

type mockLedgerRepo struct {
	ledgers map[string]*model.Ledger
	heads   *mockAccountHeadRepo
	seq     int
	locked  []string // GetForUpdate 调用记录
}

func newMockLedgerRepo(heads *mockAccountHeadRepo) *mockLedgerRepo {
	return &mockLedgerRepo{ledgers: make(map[string]*model.Ledger), heads: heads}
}

// seed 布置一个账户并返回其 ID
func (m *mockLedgerRepo) seed(name, headCode string) string {
	head, _ := m.heads.GetByCode(context.Background(), headCode)
	l := &model.Ledger{Name: name, HeadID: head.HeadID, EntityType: model.EntityInternal, Status: "ACTIVE", Balance: decimal.Zero}
	_ = m.Create(context.Background(), l)
	return l.LedgerID
}

func (m *mockLedgerRepo) balance(id string) decimal.Decimal {
	return m.ledgers[id].Balance
}

func (m *mockLedgerRepo) Create(_ context.Context, l *model.Ledger) error {
	if l.LedgerID == "" {
		m.seq++
		l.LedgerID = fmt.Sprintf("ledger-%d", m.seq)
	}
	cp := *l
	cp.Head = nil
	m.ledgers[l.LedgerID] = &cp
	return nil
}

func (m *mockLedgerRepo) GetByID(_ context.Context, id string) (*model.Ledger, error) {
	if l, ok := m.ledgers[id]; ok {
		return m.withHead(l), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLedgerRepo) GetForUpdate(ctx context.Context, id string) (*model.Ledger, error) {
	m.locked = append(m.locked, id)
	return m.GetByID(ctx, id)
}

func (m *mockLedgerRepo) GetByName(_ context.Context, name string) (*model.Ledger, error) {
	for _, l := range m.ledgers {
		if l.Name == name {
			return m.withHead(l), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLedgerRepo) GetByEntity(_ context.Context, entityType, entityID string) (*model.Ledger, error) {
	for _, l := range m.ledgers {
		if l.EntityType == entityType && l.EntityID != nil && *l.EntityID == entityID {
			return m.withHead(l), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLedgerRepo) List(_ context.Context, filter repository.LedgerFilter) ([]model.Ledger, error) {
	var result []model.Ledger
	for _, l := range m.ledgers {
		wl := m.withHead(l)
		if filter.HeadType != "" && (wl.Head == nil || wl.Head.Type != filter.HeadType) {
			continue
		}
		if filter.EntityType != "" && l.EntityType != filter.EntityType {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		result = append(result, *wl)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Update 与真实实现一致，只更新元数据，不触碰余额
func (m *mockLedgerRepo) Update(_ context.Context, l *model.Ledger) error {
	stored, ok := m.ledgers[l.LedgerID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Name = l.Name
	stored.Description = l.Description
	stored.Status = l.Status
	stored.UpdatedBy = l.UpdatedBy
	return nil
}

func (m *mockLedgerRepo) AddBalance(_ context.Context, id string, delta decimal.Decimal) error {
	l, ok := m.ledgers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.Balance = l.Balance.Add(delta)
	return nil
}

func (m *mockLedgerRepo) Delete(_ context.Context, id string) error {
	delete(m.ledgers, id)
	return nil
}

func (m *mockLedgerRepo) withHead(l *model.Ledger) *model.Ledger {
	cp := *l
	if h, ok := m.heads.heads[l.HeadID]; ok {
		hc := *h
		cp.Head = &hc
	}
	return &cp
}

// ── Mock JournalRepository ──

type mockJournalRepo struct {
	entries map[string]*model.JournalEntry
	ledgers *mockLedgerRepo
	seq     int
}

func newMockJournalRepo(ledgers *mockLedgerRepo) *mockJournalRepo {
	return &mockJournalRepo{entries: make(map[string]*model.JournalEntry), ledgers: ledgers}
}

func (m *mockJournalRepo) CreateEntry(_ context.Context, e *model.JournalEntry) error {
	m.seq++
	e.EntryID = fmt.Sprintf("entry-%d", m.seq)
	for i := range e.Lines {
		e.Lines[i].LineID = fmt.Sprintf("%s-line-%d", e.EntryID, i+1)
		e.Lines[i].EntryID = e.EntryID
	}
	cp := *e
	cp.Lines = append([]model.JournalLine(nil), e.Lines...)
	m.entries[e.EntryID] = &cp
	return nil
}

func (m *mockJournalRepo) GetEntry(_ context.Context, id string) (*model.JournalEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	cp.Lines = make([]model.JournalLine, len(e.Lines))
	for i, l := range e.Lines {
		if led, ok := m.ledgers.ledgers[l.LedgerID]; ok {
			lc := *led
			l.Ledger = &lc
		}
		cp.Lines[i] = l
	}
	return &cp, nil
}

func (m *mockJournalRepo) ListEntries(ctx context.Context, filter repository.EntryFilter) ([]model.JournalEntry, error) {
	var result []model.JournalEntry
	for id, e := range m.entries {
		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Date.After(*filter.To) {
			continue
		}
		if filter.LedgerID != "" && !touches(e, filter.LedgerID) {
			continue
		}
		full, _ := m.GetEntry(ctx, id)
		result = append(result, *full)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (m *mockJournalRepo) UpdateEntry(_ context.Context, e *model.JournalEntry) error {
	stored, ok := m.entries[e.EntryID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	lines := stored.Lines
	cp := *e
	cp.Lines = lines
	m.entries[e.EntryID] = &cp
	return nil
}

func (m *mockJournalRepo) UpdateLine(_ context.Context, line *model.JournalLine) error {
	for _, e := range m.entries {
		for i := range e.Lines {
			if e.Lines[i].LineID == line.LineID {
				e.Lines[i].Debit = line.Debit
				e.Lines[i].Credit = line.Credit
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockJournalRepo) DeleteEntry(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

func (m *mockJournalRepo) CountLinesByLedger(_ context.Context, ledgerID string) (int64, error) {
	var n int64
	for _, e := range m.entries {
		for _, l := range e.Lines {
			if l.LedgerID == ledgerID {
				n++
			}
		}
	}
	return n, nil
}

func (m *mockJournalRepo) SumLinesBefore(_ context.Context, ledgerID string, before time.Time) (repository.LineSums, error) {
	sums := repository.LineSums{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, e := range m.entries {
		if !e.Date.Before(before) {
			continue
		}
		for _, l := range e.Lines {
			if l.LedgerID == ledgerID {
				sums.Debit = sums.Debit.Add(l.Debit)
				sums.Credit = sums.Credit.Add(l.Credit)
			}
		}
	}
	return sums, nil
}

func (m *mockJournalRepo) ListLinesInRange(_ context.Context, ledgerID string, from, to time.Time) ([]model.JournalLine, error) {
	var result []model.JournalLine
	for _, e := range m.entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		header := *e
		header.Lines = nil
		for _, l := range e.Lines {
			if l.LedgerID == ledgerID {
				l.Entry = &header
				result = append(result, l)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Entry.Date.Before(result[j].Entry.Date) })
	return result, nil
}

func touches(e *model.JournalEntry, ledgerID string) bool {
	for _, l := range e.Lines {
		if l.LedgerID == ledgerID {
			return true
		}
	}
	return false
}

// ── Mock PayrollRepository ──

type mockPayrollRepo struct {
	runs  map[string]*model.PayrollRun
	slips map[string]*model.PayrollSlip
	users *mockUserRepo
	seq   int
}

func newMockPayrollRepo(users *mockUserRepo) *mockPayrollRepo {
	return &mockPayrollRepo{
		runs:  make(map[string]*model.PayrollRun),
		slips: make(map[string]*model.PayrollSlip),
		users: users,
	}
}

func (m *mockPayrollRepo) CreateRun(_ context.Context, run *model.PayrollRun) error {
	m.seq++
	run.RunID = fmt.Sprintf("run-%d", m.seq)
	cp := *run
	m.runs[run.RunID] = &cp
	return nil
}

func (m *mockPayrollRepo) GetRun(_ context.Context, month, year int) (*model.PayrollRun, error) {
	for _, r := range m.runs {
		if r.Month == month && r.Year == year {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPayrollRepo) GetRunForUpdate(ctx context.Context, month, year int) (*model.PayrollRun, error) {
	return m.GetRun(ctx, month, year)
}

func (m *mockPayrollRepo) GetRunByID(_ context.Context, runID string) (*model.PayrollRun, error) {
	if r, ok := m.runs[runID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPayrollRepo) UpdateRun(_ context.Context, run *model.PayrollRun) error {
	cp := *run
	cp.Slips = nil
	m.runs[run.RunID] = &cp
	return nil
}

func (m *mockPayrollRepo) ListRuns(_ context.Context, year int) ([]model.PayrollRun, error) {
	var result []model.PayrollRun
	for _, r := range m.runs {
		if year == 0 || r.Year == year {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockPayrollRepo) GetSlip(_ context.Context, runID, userID string) (*model.PayrollSlip, error) {
	for _, s := range m.slips {
		if s.RunID == runID && s.UserID == userID {
			return m.withUser(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPayrollRepo) GetSlipByID(_ context.Context, slipID string) (*model.PayrollSlip, error) {
	if s, ok := m.slips[slipID]; ok {
		return m.withUser(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPayrollRepo) UpsertSlip(_ context.Context, slip *model.PayrollSlip) error {
	for id, s := range m.slips {
		if s.RunID == slip.RunID && s.UserID == slip.UserID {
			cp := *slip
			cp.SlipID = id
			cp.User = nil
			m.slips[id] = &cp
			slip.SlipID = id
			return nil
		}
	}
	m.seq++
	slip.SlipID = fmt.Sprintf("slip-%d", m.seq)
	cp := *slip
	cp.User = nil
	m.slips[slip.SlipID] = &cp
	return nil
}

func (m *mockPayrollRepo) ListSlips(_ context.Context, runID string) ([]model.PayrollSlip, error) {
	var result []model.PayrollSlip
	for _, s := range m.slips {
		if s.RunID == runID {
			result = append(result, *m.withUser(s))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *mockPayrollRepo) DeleteSlip(_ context.Context, slipID string) error {
	delete(m.slips, slipID)
	return nil
}

func (m *mockPayrollRepo) withUser(s *model.PayrollSlip) *model.PayrollSlip {
	cp := *s
	if u, ok := m.users.users[s.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp
}

// ── Mock SystemConfigRepository ──

type mockSystemConfigRepo struct {
	cfg *model.SystemConfig
}

// newMockSystemConfigRepo 默认无配置行，服务应回退到配置文件默认值
func newMockSystemConfigRepo() *mockSystemConfigRepo {
	return &mockSystemConfigRepo{}
}

func (m *mockSystemConfigRepo) Get(_ context.Context) (*model.SystemConfig, error) {
	if m.cfg == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.cfg
	return &cp, nil
}

func (m *mockSystemConfigRepo) Update(_ context.Context, cfg *model.SystemConfig) error {
	cp := *cfg
	m.cfg = &cp
	return nil
}

// ── Fake TokenStore / BridgeHeartbeat ──

type fakeRedis struct {
	blacklist map[string]time.Duration
	seen      map[string]time.Time
	err       error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{blacklist: make(map[string]time.Duration), seen: make(map[string]time.Time)}
}

func (f *fakeRedis) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if ttl > 0 {
		f.blacklist[jti] = ttl
	}
	return nil
}

func (f *fakeRedis) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.blacklist[jti]
	return ok, nil
}

func (f *fakeRedis) TouchBridge(_ context.Context, deviceID string, at time.Time, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.seen[deviceID] = at
	return nil
}

func (f *fakeRedis) BridgeLastSeen(_ context.Context, deviceID string) (time.Time, bool, error) {
	if f.err != nil {
		return time.Time{}, false, f.err
	}
	t, ok := f.seen[deviceID]
	return t, ok, nil
}

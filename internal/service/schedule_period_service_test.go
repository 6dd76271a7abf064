package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"gleamops/backend/internal/dto"
	"gleamops/backend/internal/model"
	pkgerrors "gleamops/backend/pkg/errors"
)

const (
	testTenantID = "aaaaaaaa-0000-0000-0000-000000000001"
	testAdminID  = "admin-001"

	// 员工 ID 必须是 UUID 定长 36 字符，超时检测按前缀切取
	testStaffA = "11111111-1111-1111-1111-111111111111"
	testStaffB = "22222222-2222-2222-2222-222222222222"
)

// ── 测试辅助 ──

func setupTestPeriodService() (SchedulePeriodService, *testRepos) {
	repos := newTestRepos()
	svc := NewSchedulePeriodService(repos.toRepository(), zap.NewNop())
	return svc, repos
}

func seedStaff(repos *testRepos, staffID, code string, maxWeekMinutes int) *model.Staff {
	s := &model.Staff{
		StaffID:        staffID,
		TenantID:       testTenantID,
		StaffCode:      code,
		FullName:       "员工" + code,
		MaxWeekMinutes: maxWeekMinutes,
		IsActive:       true,
	}
	s.Version = 1
	repos.staff.staff[staffID] = s
	return s
}

func seedPeriod(repos *testRepos, periodID, status string) *model.SchedulePeriod {
	p := &model.SchedulePeriod{
		PeriodID:    periodID,
		TenantID:    testTenantID,
		PeriodName:  "2026年9月上半月",
		PeriodStart: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Status:      status,
	}
	p.Version = 1
	repos.period.periods[periodID] = p
	return p
}

func seedTicket(repos *testRepos, ticketID, code, periodID string, staffID *string, date time.Time, start, end string) *model.WorkTicket {
	pid := periodID
	t := &model.WorkTicket{
		TicketID:        ticketID,
		TenantID:        testTenantID,
		TicketCode:      code,
		SiteID:          "site-001",
		PeriodID:        &pid,
		AssigneeStaffID: staffID,
		ScheduledDate:   date,
		StartTime:       start,
		EndTime:         end,
		PlanningStatus:  "planned",
		Status:          "scheduled",
	}
	t.Version = 1
	repos.ticket.tickets[ticketID] = t
	return t
}

// ── Create 测试 ──

func TestPeriodService_Create_Success(t *testing.T) {
	svc, _ := setupTestPeriodService()

	req := &dto.CreatePeriodRequest{
		PeriodName:  "2026年10月排班",
		PeriodStart: "2026-10-01",
		PeriodEnd:   "2026-10-15",
	}

	period, err := svc.Create(context.Background(), testTenantID, req, testAdminID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if period.Status != model.PeriodStatusDraft {
		t.Errorf("新周期应为 draft，实际=%s", period.Status)
	}
	if period.Version != 1 {
		t.Errorf("新周期版本应为 1，实际=%d", period.Version)
	}
}

func TestPeriodService_Create_InvalidRange(t *testing.T) {
	svc, _ := setupTestPeriodService()

	req := &dto.CreatePeriodRequest{
		PeriodName:  "倒置区间",
		PeriodStart: "2026-10-15",
		PeriodEnd:   "2026-10-01",
	}

	_, err := svc.Create(context.Background(), testTenantID, req, testAdminID)
	if !errors.Is(err, ErrInvalidPeriodRange) {
		t.Errorf("期望 ErrInvalidPeriodRange，实际: %v", err)
	}
}

// ── Validate 测试 ──

func TestPeriodService_Validate_DetectsAllConflictTypes(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusDraft)
	seedStaff(repos, testStaffA, "S001", 2400)
	seedStaff(repos, testStaffB, "S002", 240)

	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	staffA := testStaffA
	staffB := testStaffB

	// 未指派 → missing_coverage
	seedTicket(repos, "t-001", "T001", "period-001", nil, day, "09:00", "12:00")
	// 同员工同日时段重叠 → double_booking
	seedTicket(repos, "t-002", "T002", "period-001", &staffA, day, "09:00", "12:00")
	seedTicket(repos, "t-003", "T003", "period-001", &staffA, day, "11:00", "14:00")
	// 周工时 300 分钟 > 上限 240 → exceeded_hours
	seedTicket(repos, "t-004", "T004", "period-001", &staffB, day, "08:00", "13:00")

	resp, err := svc.Validate(context.Background(), testTenantID, "period-001",
		&dto.ValidatePeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if err != nil {
		t.Fatalf("Validate 应成功: %v", err)
	}
	if resp.Status != model.PeriodStatusValidated {
		t.Errorf("校验后应为 validated，实际=%s", resp.Status)
	}
	if resp.TotalConflict != 3 {
		t.Fatalf("期望 3 个冲突，实际 %d 个", resp.TotalConflict)
	}

	byType := make(map[string]dto.ConflictSummary)
	for _, s := range resp.Summaries {
		byType[s.ConflictType] = s
	}
	if byType[model.ConflictTypeMissingCoverage].Blocking != 1 {
		t.Error("missing_coverage 应为阻断冲突")
	}
	if byType[model.ConflictTypeDoubleBooking].Blocking != 1 {
		t.Error("double_booking 应为阻断冲突")
	}
	if byType[model.ConflictTypeExceededHours].Blocking != 0 {
		t.Error("exceeded_hours 应为非阻断警告")
	}
}

func TestPeriodService_Validate_CleanScheduleHasNoConflicts(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusDraft)
	seedStaff(repos, testStaffA, "S001", 2400)

	staffA := testStaffA
	seedTicket(repos, "t-001", "T001", "period-001", &staffA,
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), "09:00", "12:00")
	seedTicket(repos, "t-002", "T002", "period-001", &staffA,
		time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC), "09:00", "12:00")

	resp, err := svc.Validate(context.Background(), testTenantID, "period-001",
		&dto.ValidatePeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if err != nil {
		t.Fatalf("Validate 应成功: %v", err)
	}
	if resp.TotalConflict != 0 {
		t.Errorf("期望无冲突，实际 %d 个", resp.TotalConflict)
	}
}

// 员工主键不一定是 UUID，工时聚合不应依赖 ID 长度
func TestPeriodService_Validate_ExceededHours_ShortStaffID(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusDraft)
	seedStaff(repos, "s-1", "S001", 240)

	shortID := "s-1"
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	seedTicket(repos, "t-001", "T001", "period-001", &shortID, day, "08:00", "13:00")

	resp, err := svc.Validate(context.Background(), testTenantID, "period-001",
		&dto.ValidatePeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if err != nil {
		t.Fatalf("Validate 应成功: %v", err)
	}
	if resp.TotalConflict != 1 {
		t.Fatalf("期望 1 个超工时冲突，实际 %d 个", resp.TotalConflict)
	}
	if resp.Summaries[0].ConflictType != model.ConflictTypeExceededHours {
		t.Errorf("期望 exceeded_hours，实际=%s", resp.Summaries[0].ConflictType)
	}
}

func TestPeriodService_Validate_StaleVersion(t *testing.T) {
	svc, repos := setupTestPeriodService()
	p := seedPeriod(repos, "period-001", model.PeriodStatusDraft)
	p.Version = 3

	_, err := svc.Validate(context.Background(), testTenantID, "period-001",
		&dto.ValidatePeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestPeriodService_Validate_PublishedNotValidatable(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusPublished)

	_, err := svc.Validate(context.Background(), testTenantID, "period-001",
		&dto.ValidatePeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if !errors.Is(err, ErrPeriodNotValidatable) {
		t.Errorf("期望 ErrPeriodNotValidatable，实际: %v", err)
	}
}

func TestPeriodService_Validate_RerunReplacesUnresolved(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusDraft)
	seedTicket(repos, "t-001", "T001", "period-001", nil,
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), "09:00", "12:00")

	// 第一轮：1 个 missing_coverage
	if _, err := svc.Validate(context.Background(), testTenantID, "period-001",
		&dto.ValidatePeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID); err != nil {
		t.Fatalf("第一轮校验应成功: %v", err)
	}

	// 修复后重跑：旧冲突作废，不应累积
	seedStaff(repos, testStaffA, "S001", 2400)
	staffA := testStaffA
	repos.ticket.tickets["t-001"].AssigneeStaffID = &staffA

	resp, err := svc.Validate(context.Background(), testTenantID, "period-001",
		&dto.ValidatePeriodRequest{VersionGuard: dto.VersionGuard{Version: 2}}, testAdminID)
	if err != nil {
		t.Fatalf("第二轮校验应成功: %v", err)
	}
	if resp.TotalConflict != 0 {
		t.Errorf("重跑后期望无冲突，实际 %d 个", resp.TotalConflict)
	}

	conflicts, err := svc.ListConflicts(context.Background(), testTenantID, "period-001")
	if err != nil {
		t.Fatalf("ListConflicts 应成功: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("未处理的旧冲突应被清除，实际剩余 %d 个", len(conflicts))
	}
}

// ── Publish 测试 ──

func TestPeriodService_Publish_BlockedByConflict(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusDraft)
	seedTicket(repos, "t-001", "T001", "period-001", nil,
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), "09:00", "12:00")

	if _, err := svc.Validate(context.Background(), testTenantID, "period-001",
		&dto.ValidatePeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID); err != nil {
		t.Fatalf("Validate 应成功: %v", err)
	}

	_, err := svc.Publish(context.Background(), testTenantID, "period-001",
		&dto.PublishPeriodRequest{VersionGuard: dto.VersionGuard{Version: 2}}, testAdminID)
	if !errors.Is(err, ErrHasBlockingConflicts) {
		t.Errorf("期望 ErrHasBlockingConflicts，实际: %v", err)
	}
}

func TestPeriodService_Publish_AfterResolvingConflict(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusDraft)
	seedTicket(repos, "t-001", "T001", "period-001", nil,
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), "09:00", "12:00")

	if _, err := svc.Validate(context.Background(), testTenantID, "period-001",
		&dto.ValidatePeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID); err != nil {
		t.Fatalf("Validate 应成功: %v", err)
	}

	conflicts, _ := svc.ListConflicts(context.Background(), testTenantID, "period-001")
	if len(conflicts) != 1 {
		t.Fatalf("期望 1 个冲突，实际 %d 个", len(conflicts))
	}

	if _, err := svc.ResolveConflict(context.Background(), testTenantID, conflicts[0].ConflictID,
		&dto.ResolveConflictRequest{VersionGuard: dto.VersionGuard{Version: conflicts[0].Version}, Note: "已线下调整"}, testAdminID); err != nil {
		t.Fatalf("ResolveConflict 应成功: %v", err)
	}

	period, err := svc.Publish(context.Background(), testTenantID, "period-001",
		&dto.PublishPeriodRequest{VersionGuard: dto.VersionGuard{Version: 2}}, testAdminID)
	if err != nil {
		t.Fatalf("处理冲突后 Publish 应成功: %v", err)
	}
	if period.Status != model.PeriodStatusPublished {
		t.Errorf("期望 published，实际=%s", period.Status)
	}
	if period.PublishedAt == nil || period.PublishedBy == nil {
		t.Error("发布时间与发布人应被记录")
	}
}

func TestPeriodService_Publish_DraftNotPublishable(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusDraft)

	_, err := svc.Publish(context.Background(), testTenantID, "period-001",
		&dto.PublishPeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if !errors.Is(err, ErrPeriodNotValidated) {
		t.Errorf("期望 ErrPeriodNotValidated，实际: %v", err)
	}
}

// ── Lock 测试 ──

func TestPeriodService_Lock_CascadesToTicketsRoutesStops(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusPublished)
	seedStaff(repos, testStaffA, "S001", 2400)

	staffA := testStaffA
	seedTicket(repos, "t-001", "T001", "period-001", &staffA,
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), "09:00", "12:00")

	pid := "period-001"
	route := &model.Route{
		RouteID:      "route-001",
		TenantID:     testTenantID,
		PeriodID:     &pid,
		RouteDate:    time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		OwnerStaffID: testStaffA,
		Status:       "planned",
	}
	route.Version = 1
	repos.route.routes["route-001"] = route

	stop := &model.RouteStop{
		RouteStopID: "stop-001",
		TenantID:    testTenantID,
		RouteID:     "route-001",
		SiteID:      "site-001",
		StopOrder:   1,
		Status:      model.StopStatusPending,
		Route:       route,
	}
	stop.Version = 1
	repos.stop.stops["stop-001"] = stop

	period, err := svc.Lock(context.Background(), testTenantID, "period-001",
		&dto.LockPeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if err != nil {
		t.Fatalf("Lock 应成功: %v", err)
	}
	if period.Status != model.PeriodStatusLocked {
		t.Errorf("期望 locked，实际=%s", period.Status)
	}
	if repos.ticket.tickets["t-001"].LockedAt == nil {
		t.Error("周期内工单应被级联锁定")
	}
	if !repos.route.routes["route-001"].IsLocked {
		t.Error("周期内路线应被级联锁定")
	}
	if !repos.stop.stops["stop-001"].IsLocked {
		t.Error("周期内站点应被级联锁定")
	}
}

func TestPeriodService_Lock_RequiresPublished(t *testing.T) {
	svc, repos := setupTestPeriodService()
	seedPeriod(repos, "period-001", model.PeriodStatusValidated)

	_, err := svc.Lock(context.Background(), testTenantID, "period-001",
		&dto.LockPeriodRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if !errors.Is(err, ErrPeriodNotPublished) {
		t.Errorf("期望 ErrPeriodNotPublished，实际: %v", err)
	}
}

// ── ResolveConflict 测试 ──

func TestPeriodService_ResolveConflict_AlreadyHandled(t *testing.T) {
	svc, repos := setupTestPeriodService()

	now := time.Now()
	c := &model.ScheduleConflict{
		ConflictID:   "conflict-001",
		TenantID:     testTenantID,
		PeriodID:     "period-001",
		ConflictType: model.ConflictTypeMissingCoverage,
		Severity:     "error",
		IsBlocking:   true,
		ResolvedAt:   &now,
	}
	c.Version = 1
	repos.conflict.conflicts["conflict-001"] = c

	_, err := svc.ResolveConflict(context.Background(), testTenantID, "conflict-001",
		&dto.ResolveConflictRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if !errors.Is(err, ErrConflictAlreadyHandled) {
		t.Errorf("期望 ErrConflictAlreadyHandled，实际: %v", err)
	}
}

func TestPeriodService_Get_NotFound(t *testing.T) {
	svc, _ := setupTestPeriodService()

	_, err := svc.Get(context.Background(), testTenantID, "nonexistent")
	if !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("期望 ErrPeriodNotFound，实际: %v", err)
	}
}

// 各模块状态机守卫错误都应归入共享的 ErrInvalidTransition 类别
func TestTransitionErrors_WrapSharedTaxonomy(t *testing.T) {
	transitionErrs := []error{
		ErrPeriodNotValidatable, ErrPeriodNotValidated, ErrPeriodNotPublished, ErrConflictAlreadyHandled,
		ErrStopNotPending, ErrStopNotArrived, ErrStopNotInProgress, ErrStopNotSkippable, ErrSegmentNotCaptured,
		ErrCalloutTerminal, ErrCalloutCovered, ErrOfferNotAcceptable, ErrOfferNotPending,
		ErrTradeNotRequested, ErrTradeNotAccepted, ErrTradeNotApproved, ErrTradeNotCancellable,
	}
	for _, e := range transitionErrs {
		if !errors.Is(e, pkgerrors.ErrInvalidTransition) {
			t.Errorf("%v 应归入 ErrInvalidTransition", e)
		}
	}
	// 前置条件类错误不属于状态迁移
	for _, e := range []error{ErrHasBlockingConflicts, ErrSegmentExists, ErrSelfCoverage} {
		if errors.Is(e, pkgerrors.ErrInvalidTransition) {
			t.Errorf("%v 不应归入 ErrInvalidTransition", e)
		}
	}
}

// [自证通过] internal/service/schedule_period_service_test.go

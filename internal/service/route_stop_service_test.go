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

// ── 测试辅助 ──

func setupTestRouteStopService() (RouteStopService, *testRepos) {
	repos := newTestRepos()
	svc := NewRouteStopService(repos.toRepository(), zap.NewNop())
	return svc, repos
}

func seedRoute(repos *testRepos, routeID string, date time.Time) *model.Route {
	r := &model.Route{
		RouteID:      routeID,
		TenantID:     testTenantID,
		RouteDate:    date,
		OwnerStaffID: testStaffA,
		Status:       "active",
	}
	r.Version = 1
	repos.route.routes[routeID] = r
	return r
}

func seedStop(repos *testRepos, stopID string, route *model.Route, order int, status string) *model.RouteStop {
	s := &model.RouteStop{
		RouteStopID: stopID,
		TenantID:    testTenantID,
		RouteID:     route.RouteID,
		SiteID:      "site-001",
		StopOrder:   order,
		Status:      status,
		Route:       route,
	}
	s.Version = 1
	repos.stop.stops[stopID] = s
	return s
}

// ── 站点进程测试 ──

func TestRouteStopService_FullStopLifecycle(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	route := seedRoute(repos, "route-001", time.Now())
	stop := seedStop(repos, "stop-001", route, 1, model.StopStatusPending)

	ctx := context.Background()

	got, err := svc.ArriveStop(ctx, testTenantID, "stop-001",
		&dto.ArriveStopRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if err != nil {
		t.Fatalf("ArriveStop 应成功: %v", err)
	}
	if got.Status != model.StopStatusArrived || got.ArrivedAt == nil {
		t.Fatalf("到达后状态应为 arrived 且记录时间，实际=%s", got.Status)
	}

	got, err = svc.StartStop(ctx, testTenantID, "stop-001",
		&dto.StartStopRequest{VersionGuard: dto.VersionGuard{Version: got.Version}}, testAdminID)
	if err != nil {
		t.Fatalf("StartStop 应成功: %v", err)
	}
	if got.Status != model.StopStatusInProgress || got.ActualStartAt == nil {
		t.Fatalf("开始作业后状态应为 in_progress，实际=%s", got.Status)
	}

	got, err = svc.CompleteStop(ctx, testTenantID, "stop-001",
		&dto.CompleteStopRequest{VersionGuard: dto.VersionGuard{Version: got.Version}, Note: "完成清洁"}, testAdminID)
	if err != nil {
		t.Fatalf("CompleteStop 应成功: %v", err)
	}
	if got.Status != model.StopStatusCompleted {
		t.Errorf("期望 completed，实际=%s", got.Status)
	}
	if got.DepartedAt == nil {
		t.Error("完成时应记录离场时间，供下一站行程结算")
	}
	if stop.Note != "完成清洁" {
		t.Errorf("完成备注应写入，实际=%s", stop.Note)
	}
}

func TestRouteStopService_Arrive_CapturesInboundTravel(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	route := seedRoute(repos, "route-001", time.Now())

	departed := time.Now().Add(-12 * time.Minute)
	prev := seedStop(repos, "stop-001", route, 1, model.StopStatusCompleted)
	prev.DepartedAt = &departed

	seedStop(repos, "stop-002", route, 2, model.StopStatusPending)

	_, err := svc.ArriveStop(context.Background(), testTenantID, "stop-002",
		&dto.ArriveStopRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if err != nil {
		t.Fatalf("ArriveStop 应成功: %v", err)
	}

	seg, err := repos.segment.GetByStopPair(context.Background(), testTenantID, "stop-001", "stop-002")
	if err != nil {
		t.Fatalf("应自动补录上一站到本站的行程段: %v", err)
	}
	if seg.Source != "auto" || seg.Status != "captured" {
		t.Errorf("自动行程段应为 auto/captured，实际=%s/%s", seg.Source, seg.Status)
	}
	if seg.ActualMinutes != 12 {
		t.Errorf("期望行程 12 分钟，实际=%d", seg.ActualMinutes)
	}
	if seg.PayableMinutes != seg.ActualMinutes {
		t.Error("计薪分钟默认应等于实际分钟")
	}
}

func TestRouteStopService_Arrive_NotPending(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	route := seedRoute(repos, "route-001", time.Now())
	seedStop(repos, "stop-001", route, 1, model.StopStatusCompleted)

	_, err := svc.ArriveStop(context.Background(), testTenantID, "stop-001",
		&dto.ArriveStopRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if !errors.Is(err, ErrStopNotPending) {
		t.Errorf("期望 ErrStopNotPending，实际: %v", err)
	}
}

func TestRouteStopService_Arrive_LockedStop(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	route := seedRoute(repos, "route-001", time.Now())
	stop := seedStop(repos, "stop-001", route, 1, model.StopStatusPending)
	stop.IsLocked = true

	_, err := svc.ArriveStop(context.Background(), testTenantID, "stop-001",
		&dto.ArriveStopRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if !errors.Is(err, pkgerrors.ErrBlockedByLock) {
		t.Errorf("期望 ErrBlockedByLock，实际: %v", err)
	}
}

func TestRouteStopService_Arrive_LockedRoute(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	route := seedRoute(repos, "route-001", time.Now())
	route.IsLocked = true
	seedStop(repos, "stop-001", route, 1, model.StopStatusPending)

	_, err := svc.ArriveStop(context.Background(), testTenantID, "stop-001",
		&dto.ArriveStopRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if !errors.Is(err, pkgerrors.ErrBlockedByLock) {
		t.Errorf("周期锁定后路线上的站点应拒绝变更，实际: %v", err)
	}
}

func TestRouteStopService_Skip_FromArrived(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	route := seedRoute(repos, "route-001", time.Now())
	seedStop(repos, "stop-001", route, 1, model.StopStatusArrived)

	got, err := svc.SkipStop(context.Background(), testTenantID, "stop-001",
		&dto.SkipStopRequest{VersionGuard: dto.VersionGuard{Version: 1}, SkipReason: "现场无法进入"}, testAdminID)
	if err != nil {
		t.Fatalf("SkipStop 应成功: %v", err)
	}
	if got.Status != model.StopStatusSkipped {
		t.Errorf("期望 skipped，实际=%s", got.Status)
	}
	if got.SkipReason != "现场无法进入" {
		t.Errorf("跳过原因应被记录，实际=%s", got.SkipReason)
	}
}

func TestRouteStopService_Skip_CompletedNotSkippable(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	route := seedRoute(repos, "route-001", time.Now())
	seedStop(repos, "stop-001", route, 1, model.StopStatusCompleted)

	_, err := svc.SkipStop(context.Background(), testTenantID, "stop-001",
		&dto.SkipStopRequest{VersionGuard: dto.VersionGuard{Version: 1}, SkipReason: "误操作"}, testAdminID)
	if !errors.Is(err, ErrStopNotSkippable) {
		t.Errorf("期望 ErrStopNotSkippable，实际: %v", err)
	}
}

// ── 行程段测试 ──

func TestRouteStopService_CaptureTravel_Manual(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	seedRoute(repos, "route-001", time.Now())

	est := 10
	seg, err := svc.CaptureTravelSegment(context.Background(), testTenantID, &dto.CaptureTravelRequest{
		RouteID:          "route-001",
		FromStopID:       "stop-001",
		ToStopID:         "stop-002",
		ActualMinutes:    15,
		EstimatedMinutes: &est,
	}, testAdminID)
	if err != nil {
		t.Fatalf("CaptureTravelSegment 应成功: %v", err)
	}
	if seg.Source != "manual" {
		t.Errorf("手工补录来源应为 manual，实际=%s", seg.Source)
	}
	if seg.PayableMinutes != 15 {
		t.Errorf("计薪分钟应默认等于实际分钟，实际=%d", seg.PayableMinutes)
	}
}

func TestRouteStopService_CaptureTravel_Duplicate(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	seedRoute(repos, "route-001", time.Now())

	req := &dto.CaptureTravelRequest{
		RouteID:       "route-001",
		FromStopID:    "stop-001",
		ToStopID:      "stop-002",
		ActualMinutes: 15,
	}
	if _, err := svc.CaptureTravelSegment(context.Background(), testTenantID, req, testAdminID); err != nil {
		t.Fatalf("首次补录应成功: %v", err)
	}

	_, err := svc.CaptureTravelSegment(context.Background(), testTenantID, req, testAdminID)
	if !errors.Is(err, ErrSegmentExists) {
		t.Errorf("期望 ErrSegmentExists，实际: %v", err)
	}
}

func TestRouteStopService_ApproveTravel_WithOverride(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	seedRoute(repos, "route-001", time.Now())

	seg := &model.TravelSegment{
		SegmentID:      "seg-001",
		TenantID:       testTenantID,
		RouteID:        "route-001",
		FromStopID:     "stop-001",
		ToStopID:       "stop-002",
		ActualMinutes:  25,
		PayableMinutes: 25,
		Source:         "auto",
		Status:         "captured",
	}
	seg.Version = 1
	repos.segment.segments["seg-001"] = seg

	payable := 20
	got, err := svc.ApproveTravelSegment(context.Background(), testTenantID, "seg-001",
		&dto.ApproveTravelRequest{VersionGuard: dto.VersionGuard{Version: 1}, PayableMinutes: &payable}, testAdminID)
	if err != nil {
		t.Fatalf("ApproveTravelSegment 应成功: %v", err)
	}
	if got.Status != "approved" || got.ApprovedAt == nil {
		t.Errorf("审批后应为 approved，实际=%s", got.Status)
	}
	if got.PayableMinutes != 20 {
		t.Errorf("计薪分钟应被覆写为 20，实际=%d", got.PayableMinutes)
	}
}

func TestRouteStopService_CaptureTravel_LockedRoute(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	route := seedRoute(repos, "route-001", time.Now())
	route.IsLocked = true

	_, err := svc.CaptureTravelSegment(context.Background(), testTenantID, &dto.CaptureTravelRequest{
		RouteID:       "route-001",
		FromStopID:    "stop-001",
		ToStopID:      "stop-002",
		ActualMinutes: 15,
	}, testAdminID)
	if !errors.Is(err, pkgerrors.ErrBlockedByLock) {
		t.Errorf("锁定线路不应接受行程段补录，实际: %v", err)
	}
}

func TestRouteStopService_ApproveTravel_LockedRoute(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	route := seedRoute(repos, "route-001", time.Now())
	route.IsLocked = true

	seg := &model.TravelSegment{
		SegmentID:      "seg-001",
		TenantID:       testTenantID,
		RouteID:        "route-001",
		FromStopID:     "stop-001",
		ToStopID:       "stop-002",
		ActualMinutes:  25,
		PayableMinutes: 25,
		Source:         "auto",
		Status:         "captured",
	}
	seg.Version = 1
	repos.segment.segments["seg-001"] = seg

	payable := 10
	_, err := svc.ApproveTravelSegment(context.Background(), testTenantID, "seg-001",
		&dto.ApproveTravelRequest{VersionGuard: dto.VersionGuard{Version: 1}, PayableMinutes: &payable}, testAdminID)
	if !errors.Is(err, pkgerrors.ErrBlockedByLock) {
		t.Errorf("锁定线路上的行程段不应可审批，实际: %v", err)
	}
	if seg.Status != "captured" || seg.PayableMinutes != 25 {
		t.Errorf("行程段不应被改动: status=%s payable=%d", seg.Status, seg.PayableMinutes)
	}
}

func TestRouteStopService_ApproveTravel_AlreadyApproved(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	seedRoute(repos, "route-001", time.Now())

	seg := &model.TravelSegment{
		SegmentID: "seg-001",
		TenantID:  testTenantID,
		RouteID:   "route-001",
		Status:    "approved",
	}
	seg.Version = 1
	repos.segment.segments["seg-001"] = seg

	_, err := svc.ApproveTravelSegment(context.Background(), testTenantID, "seg-001",
		&dto.ApproveTravelRequest{VersionGuard: dto.VersionGuard{Version: 1}}, testAdminID)
	if !errors.Is(err, ErrSegmentNotCaptured) {
		t.Errorf("期望 ErrSegmentNotCaptured，实际: %v", err)
	}
}

// ── 今夜看板测试 ──

func TestRouteStopService_TonightBoard(t *testing.T) {
	svc, repos := setupTestRouteStopService()
	today := time.Now()
	route := seedRoute(repos, "route-001", today)

	siteA := &model.Site{SiteID: "site-001", TenantID: testTenantID, SiteCode: "A", Name: "市中心写字楼"}
	siteB := &model.Site{SiteID: "site-002", TenantID: testTenantID, SiteCode: "B", Name: "北区仓库"}
	repos.site.sites["site-001"] = siteA
	repos.site.sites["site-002"] = siteB

	staffA := testStaffA
	done := seedStop(repos, "stop-001", route, 1, model.StopStatusCompleted)
	done.Site = siteA
	next := seedStop(repos, "stop-002", route, 2, model.StopStatusPending)
	next.Site = siteA
	next.AssigneeStaffID = &staffA
	skipped := seedStop(repos, "stop-003", route, 3, model.StopStatusSkipped)
	skipped.SiteID = "site-002"
	skipped.Site = siteB

	// site-001 存在一个未关闭的缺勤事件
	event := seedCallout(repos, "evt-001", model.CalloutStatusReported, testStaffB)
	siteID := "site-001"
	event.SiteID = &siteID

	board, err := svc.TonightBoard(context.Background(), testTenantID, testStaffA, today)
	if err != nil {
		t.Fatalf("TonightBoard 应成功: %v", err)
	}
	if len(board.Sites) != 2 {
		t.Fatalf("期望 2 个站点汇总，实际 %d 个", len(board.Sites))
	}

	byID := make(map[string]dto.BoardSiteSummary)
	for _, s := range board.Sites {
		byID[s.SiteID] = s
	}
	a := byID["site-001"]
	if a.TotalStops != 2 || a.CompletedStop != 1 {
		t.Errorf("site-001 汇总错误: total=%d completed=%d", a.TotalStops, a.CompletedStop)
	}
	if a.OpenCallouts != 1 {
		t.Errorf("site-001 应有 1 个未关闭缺勤，实际=%d", a.OpenCallouts)
	}
	if byID["site-002"].Skipped != 1 {
		t.Errorf("site-002 应有 1 个跳过站点，实际=%d", byID["site-002"].Skipped)
	}

	if board.MyNext == nil {
		t.Fatal("应返回我的下一站")
	}
	if board.MyNext.RouteStopID != "stop-002" {
		t.Errorf("下一站应为 stop-002，实际=%s", board.MyNext.RouteStopID)
	}
}

func TestRouteStopService_TonightBoard_NoStops(t *testing.T) {
	svc, _ := setupTestRouteStopService()

	board, err := svc.TonightBoard(context.Background(), testTenantID, "", time.Now())
	if err != nil {
		t.Fatalf("TonightBoard 应成功: %v", err)
	}
	if len(board.Sites) != 0 {
		t.Errorf("无站点时应返回空看板，实际 %d 个", len(board.Sites))
	}
	if board.MyNext != nil {
		t.Error("未关联员工时不应返回下一站")
	}
}

// [自证通过] internal/service/route_stop_service_test.go

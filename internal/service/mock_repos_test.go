package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"gleamops/backend/internal/model"
	"gleamops/backend/internal/repository"
	pkgerrors "gleamops/backend/pkg/errors"
)

// 内存版 Repository 实现，行为对齐 GORM 实现：
// 查不到返回 gorm.ErrRecordNotFound，Update 做版本号比对并自增，
// 版本不匹配返回 ErrOptimisticLock

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%03d", len(m.users)+1)
	}
	if user.Version == 0 {
		user.Version = 1
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, tenantID, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok && u.TenantID == tenantID {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.users[user.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	m.users[user.UserID] = user
	return nil
}

// ── Mock StaffRepository ──

type mockStaffRepo struct {
	staff map[string]*model.Staff
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{staff: make(map[string]*model.Staff)}
}

func (m *mockStaffRepo) Create(_ context.Context, staff *model.Staff) error {
	if staff.StaffID == "" {
		staff.StaffID = fmt.Sprintf("staff-%03d", len(m.staff)+1)
	}
	if staff.Version == 0 {
		staff.Version = 1
	}
	m.staff[staff.StaffID] = staff
	return nil
}

func (m *mockStaffRepo) GetByID(_ context.Context, tenantID, id string) (*model.Staff, error) {
	if s, ok := m.staff[id]; ok && s.TenantID == tenantID {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffRepo) ListActive(_ context.Context, tenantID string) ([]model.Staff, error) {
	var result []model.Staff
	for _, s := range m.staff {
		if s.TenantID == tenantID && s.IsActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockStaffRepo) Update(_ context.Context, staff *model.Staff) error {
	stored, ok := m.staff[staff.StaffID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != staff.Version {
		return pkgerrors.ErrOptimisticLock
	}
	staff.Version++
	m.staff[staff.StaffID] = staff
	return nil
}

// ── Mock SiteRepository ──

type mockSiteRepo struct {
	sites map[string]*model.Site
}

func newMockSiteRepo() *mockSiteRepo {
	return &mockSiteRepo{sites: make(map[string]*model.Site)}
}

func (m *mockSiteRepo) Create(_ context.Context, site *model.Site) error {
	if site.SiteID == "" {
		site.SiteID = fmt.Sprintf("site-%03d", len(m.sites)+1)
	}
	if site.Version == 0 {
		site.Version = 1
	}
	m.sites[site.SiteID] = site
	return nil
}

func (m *mockSiteRepo) GetByID(_ context.Context, tenantID, id string) (*model.Site, error) {
	if s, ok := m.sites[id]; ok && s.TenantID == tenantID {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSiteRepo) ListActive(_ context.Context, tenantID string) ([]model.Site, error) {
	var result []model.Site
	for _, s := range m.sites {
		if s.TenantID == tenantID && s.IsActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

// ── Mock WorkTicketRepository ──

type mockWorkTicketRepo struct {
	tickets map[string]*model.WorkTicket
}

func newMockWorkTicketRepo() *mockWorkTicketRepo {
	return &mockWorkTicketRepo{tickets: make(map[string]*model.WorkTicket)}
}

func (m *mockWorkTicketRepo) Create(_ context.Context, ticket *model.WorkTicket) error {
	if ticket.TicketID == "" {
		ticket.TicketID = fmt.Sprintf("ticket-%03d", len(m.tickets)+1)
	}
	if ticket.Version == 0 {
		ticket.Version = 1
	}
	m.tickets[ticket.TicketID] = ticket
	return nil
}

func (m *mockWorkTicketRepo) GetByID(_ context.Context, tenantID, id string) (*model.WorkTicket, error) {
	if t, ok := m.tickets[id]; ok && t.TenantID == tenantID {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkTicketRepo) ListByPeriod(_ context.Context, tenantID, periodID string) ([]model.WorkTicket, error) {
	var result []model.WorkTicket
	for _, t := range m.tickets {
		if t.TenantID == tenantID && t.PeriodID != nil && *t.PeriodID == periodID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockWorkTicketRepo) ListByStaffAndRange(_ context.Context, tenantID, staffID string, from, to time.Time) ([]model.WorkTicket, error) {
	var result []model.WorkTicket
	for _, t := range m.tickets {
		if t.TenantID != tenantID || t.AssigneeStaffID == nil || *t.AssigneeStaffID != staffID {
			continue
		}
		if t.ScheduledDate.Before(from) || t.ScheduledDate.After(to) {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockWorkTicketRepo) Update(_ context.Context, ticket *model.WorkTicket) error {
	stored, ok := m.tickets[ticket.TicketID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != ticket.Version {
		return pkgerrors.ErrOptimisticLock
	}
	ticket.Version++
	m.tickets[ticket.TicketID] = ticket
	return nil
}

func (m *mockWorkTicketRepo) LockByPeriod(_ context.Context, tenantID, periodID, lockedBy string, lockedAt time.Time) (int64, error) {
	var n int64
	for _, t := range m.tickets {
		if t.TenantID == tenantID && t.PeriodID != nil && *t.PeriodID == periodID && t.LockedAt == nil {
			at := lockedAt
			by := lockedBy
			t.LockedAt = &at
			t.LockedBy = &by
			n++
		}
	}
	return n, nil
}

// ── Mock SchedulePeriodRepository ──

type mockSchedulePeriodRepo struct {
	periods map[string]*model.SchedulePeriod
}

func newMockSchedulePeriodRepo() *mockSchedulePeriodRepo {
	return &mockSchedulePeriodRepo{periods: make(map[string]*model.SchedulePeriod)}
}

func (m *mockSchedulePeriodRepo) Create(_ context.Context, period *model.SchedulePeriod) error {
	if period.PeriodID == "" {
		period.PeriodID = fmt.Sprintf("period-%03d", len(m.periods)+1)
	}
	if period.Version == 0 {
		period.Version = 1
	}
	m.periods[period.PeriodID] = period
	return nil
}

func (m *mockSchedulePeriodRepo) GetByID(_ context.Context, tenantID, id string) (*model.SchedulePeriod, error) {
	if p, ok := m.periods[id]; ok && p.TenantID == tenantID {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSchedulePeriodRepo) List(_ context.Context, tenantID, status string, siteID *string, offset, limit int) ([]model.SchedulePeriod, int64, error) {
	var result []model.SchedulePeriod
	for _, p := range m.periods {
		if p.TenantID != tenantID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		if siteID != nil && (p.SiteID == nil || *p.SiteID != *siteID) {
			continue
		}
		result = append(result, *p)
	}
	return result, int64(len(result)), nil
}

func (m *mockSchedulePeriodRepo) Update(_ context.Context, period *model.SchedulePeriod) error {
	stored, ok := m.periods[period.PeriodID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != period.Version {
		return pkgerrors.ErrOptimisticLock
	}
	period.Version++
	m.periods[period.PeriodID] = period
	return nil
}

// ── Mock ScheduleConflictRepository ──

type mockConflictRepo struct {
	conflicts map[string]*model.ScheduleConflict
}

func newMockConflictRepo() *mockConflictRepo {
	return &mockConflictRepo{conflicts: make(map[string]*model.ScheduleConflict)}
}

func (m *mockConflictRepo) BatchCreate(_ context.Context, conflicts []model.ScheduleConflict) error {
	for i := range conflicts {
		c := conflicts[i]
		if c.ConflictID == "" {
			c.ConflictID = fmt.Sprintf("conflict-%03d", len(m.conflicts)+1)
		}
		if c.Version == 0 {
			c.Version = 1
		}
		m.conflicts[c.ConflictID] = &c
	}
	return nil
}

func (m *mockConflictRepo) GetByID(_ context.Context, tenantID, id string) (*model.ScheduleConflict, error) {
	if c, ok := m.conflicts[id]; ok && c.TenantID == tenantID {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockConflictRepo) ListByPeriod(_ context.Context, tenantID, periodID string) ([]model.ScheduleConflict, error) {
	var result []model.ScheduleConflict
	for _, c := range m.conflicts {
		if c.TenantID == tenantID && c.PeriodID == periodID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockConflictRepo) CountBlockingUnresolved(_ context.Context, tenantID, periodID string) (int64, error) {
	var n int64
	for _, c := range m.conflicts {
		if c.TenantID == tenantID && c.PeriodID == periodID && c.IsBlocking && c.ResolvedAt == nil {
			n++
		}
	}
	return n, nil
}

func (m *mockConflictRepo) DeleteUnresolvedByPeriod(_ context.Context, tenantID, periodID string) error {
	for id, c := range m.conflicts {
		if c.TenantID == tenantID && c.PeriodID == periodID && c.ResolvedAt == nil {
			delete(m.conflicts, id)
		}
	}
	return nil
}

func (m *mockConflictRepo) Update(_ context.Context, conflict *model.ScheduleConflict) error {
	stored, ok := m.conflicts[conflict.ConflictID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != conflict.Version {
		return pkgerrors.ErrOptimisticLock
	}
	conflict.Version++
	m.conflicts[conflict.ConflictID] = conflict
	return nil
}

// ── Mock RouteRepository ──

type mockRouteRepo struct {
	routes map[string]*model.Route
}

func newMockRouteRepo() *mockRouteRepo {
	return &mockRouteRepo{routes: make(map[string]*model.Route)}
}

func (m *mockRouteRepo) Create(_ context.Context, route *model.Route) error {
	if route.RouteID == "" {
		route.RouteID = fmt.Sprintf("route-%03d", len(m.routes)+1)
	}
	if route.Version == 0 {
		route.Version = 1
	}
	m.routes[route.RouteID] = route
	return nil
}

func (m *mockRouteRepo) GetByID(_ context.Context, tenantID, id string) (*model.Route, error) {
	if r, ok := m.routes[id]; ok && r.TenantID == tenantID {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRouteRepo) ListByDate(_ context.Context, tenantID string, date time.Time) ([]model.Route, error) {
	var result []model.Route
	for _, r := range m.routes {
		if r.TenantID == tenantID && sameDay(r.RouteDate, date) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRouteRepo) Update(_ context.Context, route *model.Route) error {
	stored, ok := m.routes[route.RouteID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != route.Version {
		return pkgerrors.ErrOptimisticLock
	}
	route.Version++
	m.routes[route.RouteID] = route
	return nil
}

func (m *mockRouteRepo) LockByPeriod(_ context.Context, tenantID, periodID, lockedBy string, lockedAt time.Time) (int64, error) {
	var n int64
	for _, r := range m.routes {
		if r.TenantID == tenantID && r.PeriodID != nil && *r.PeriodID == periodID && !r.IsLocked {
			at := lockedAt
			by := lockedBy
			r.IsLocked = true
			r.LockedAt = &at
			r.LockedBy = &by
			n++
		}
	}
	return n, nil
}

// ── Mock RouteStopRepository ──

type mockRouteStopRepo struct {
	stops map[string]*model.RouteStop
}

func newMockRouteStopRepo() *mockRouteStopRepo {
	return &mockRouteStopRepo{stops: make(map[string]*model.RouteStop)}
}

func (m *mockRouteStopRepo) BatchCreate(_ context.Context, stops []model.RouteStop) error {
	for i := range stops {
		s := stops[i]
		if s.RouteStopID == "" {
			s.RouteStopID = fmt.Sprintf("stop-%03d", len(m.stops)+1)
		}
		if s.Version == 0 {
			s.Version = 1
		}
		m.stops[s.RouteStopID] = &s
	}
	return nil
}

func (m *mockRouteStopRepo) GetByID(_ context.Context, tenantID, id string) (*model.RouteStop, error) {
	if s, ok := m.stops[id]; ok && s.TenantID == tenantID {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRouteStopRepo) ListByRoute(_ context.Context, tenantID, routeID string) ([]model.RouteStop, error) {
	var result []model.RouteStop
	for _, s := range m.stops {
		if s.TenantID == tenantID && s.RouteID == routeID {
			result = append(result, *s)
		}
	}
	return result, nil
}

// ListByDate 借助站点上挂的 Route 关联判断日期（GORM 实现为 JOIN routes）
func (m *mockRouteStopRepo) ListByDate(_ context.Context, tenantID string, date time.Time) ([]model.RouteStop, error) {
	var result []model.RouteStop
	for _, s := range m.stops {
		if s.TenantID == tenantID && s.Route != nil && sameDay(s.Route.RouteDate, date) {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockRouteStopRepo) NextPendingForStaff(_ context.Context, tenantID, staffID string, date time.Time) (*model.RouteStop, error) {
	var next *model.RouteStop
	for _, s := range m.stops {
		if s.TenantID != tenantID || s.Status != model.StopStatusPending {
			continue
		}
		if s.AssigneeStaffID == nil || *s.AssigneeStaffID != staffID {
			continue
		}
		if s.Route == nil || !sameDay(s.Route.RouteDate, date) {
			continue
		}
		if next == nil || s.StopOrder < next.StopOrder {
			next = s
		}
	}
	if next == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return next, nil
}

func (m *mockRouteStopRepo) Update(_ context.Context, stop *model.RouteStop) error {
	stored, ok := m.stops[stop.RouteStopID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != stop.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stop.Version++
	m.stops[stop.RouteStopID] = stop
	return nil
}

func (m *mockRouteStopRepo) LockByPeriod(_ context.Context, tenantID, periodID, _ string, _ time.Time) (int64, error) {
	var n int64
	for _, s := range m.stops {
		if s.TenantID != tenantID || s.IsLocked {
			continue
		}
		if s.Route == nil || s.Route.PeriodID == nil || *s.Route.PeriodID != periodID {
			continue
		}
		s.IsLocked = true
		n++
	}
	return n, nil
}

// ── Mock TravelSegmentRepository ──

type mockTravelSegmentRepo struct {
	segments map[string]*model.TravelSegment
}

func newMockTravelSegmentRepo() *mockTravelSegmentRepo {
	return &mockTravelSegmentRepo{segments: make(map[string]*model.TravelSegment)}
}

func (m *mockTravelSegmentRepo) Create(_ context.Context, seg *model.TravelSegment) error {
	if seg.SegmentID == "" {
		seg.SegmentID = fmt.Sprintf("seg-%03d", len(m.segments)+1)
	}
	if seg.Version == 0 {
		seg.Version = 1
	}
	m.segments[seg.SegmentID] = seg
	return nil
}

func (m *mockTravelSegmentRepo) GetByID(_ context.Context, tenantID, id string) (*model.TravelSegment, error) {
	if s, ok := m.segments[id]; ok && s.TenantID == tenantID {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTravelSegmentRepo) GetByStopPair(_ context.Context, tenantID, fromStopID, toStopID string) (*model.TravelSegment, error) {
	for _, s := range m.segments {
		if s.TenantID == tenantID && s.FromStopID == fromStopID && s.ToStopID == toStopID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTravelSegmentRepo) ListByRoute(_ context.Context, tenantID, routeID string) ([]model.TravelSegment, error) {
	var result []model.TravelSegment
	for _, s := range m.segments {
		if s.TenantID == tenantID && s.RouteID == routeID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockTravelSegmentRepo) Update(_ context.Context, seg *model.TravelSegment) error {
	stored, ok := m.segments[seg.SegmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != seg.Version {
		return pkgerrors.ErrOptimisticLock
	}
	seg.Version++
	m.segments[seg.SegmentID] = seg
	return nil
}

// ── Mock CalloutEventRepository ──

type mockCalloutRepo struct {
	events map[string]*model.CalloutEvent
}

func newMockCalloutRepo() *mockCalloutRepo {
	return &mockCalloutRepo{events: make(map[string]*model.CalloutEvent)}
}

func (m *mockCalloutRepo) Create(_ context.Context, event *model.CalloutEvent) error {
	if event.CalloutEventID == "" {
		event.CalloutEventID = fmt.Sprintf("evt-%03d", len(m.events)+1)
	}
	if event.Version == 0 {
		event.Version = 1
	}
	m.events[event.CalloutEventID] = event
	return nil
}

func (m *mockCalloutRepo) GetByID(_ context.Context, tenantID, id string) (*model.CalloutEvent, error) {
	if e, ok := m.events[id]; ok && e.TenantID == tenantID {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCalloutRepo) List(_ context.Context, tenantID, status string, staffID *string, _, _ int) ([]model.CalloutEvent, int64, error) {
	var result []model.CalloutEvent
	for _, e := range m.events {
		if e.TenantID != tenantID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		if staffID != nil && e.AffectedStaffID != *staffID {
			continue
		}
		result = append(result, *e)
	}
	return result, int64(len(result)), nil
}

func (m *mockCalloutRepo) ListOverdueReported(_ context.Context, before time.Time) ([]model.CalloutEvent, error) {
	var result []model.CalloutEvent
	for _, e := range m.events {
		if e.Status == model.CalloutStatusReported && e.ReportedAt.Before(before) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockCalloutRepo) CountOpenBySite(_ context.Context, tenantID string, siteIDs []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, e := range m.events {
		if e.TenantID != tenantID || e.SiteID == nil || e.IsTerminal() {
			continue
		}
		for _, sid := range siteIDs {
			if sid == *e.SiteID {
				out[sid]++
			}
		}
	}
	return out, nil
}

func (m *mockCalloutRepo) Update(_ context.Context, event *model.CalloutEvent) error {
	stored, ok := m.events[event.CalloutEventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != event.Version {
		return pkgerrors.ErrOptimisticLock
	}
	event.Version++
	m.events[event.CalloutEventID] = event
	return nil
}

// ── Mock CoverageOfferRepository ──

type mockOfferRepo struct {
	offers map[string]*model.CoverageOffer
}

func newMockOfferRepo() *mockOfferRepo {
	return &mockOfferRepo{offers: make(map[string]*model.CoverageOffer)}
}

func (m *mockOfferRepo) Create(_ context.Context, offer *model.CoverageOffer) error {
	if offer.OfferID == "" {
		offer.OfferID = fmt.Sprintf("offer-%03d", len(m.offers)+1)
	}
	if offer.Version == 0 {
		offer.Version = 1
	}
	m.offers[offer.OfferID] = offer
	return nil
}

func (m *mockOfferRepo) GetByID(_ context.Context, tenantID, id string) (*model.CoverageOffer, error) {
	if o, ok := m.offers[id]; ok && o.TenantID == tenantID {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOfferRepo) GetPendingByEvent(_ context.Context, tenantID, eventID string) (*model.CoverageOffer, error) {
	for _, o := range m.offers {
		if o.TenantID == tenantID && o.CalloutEventID == eventID && o.Status == model.OfferStatusPending {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOfferRepo) ListByEvent(_ context.Context, tenantID, eventID string) ([]model.CoverageOffer, error) {
	var result []model.CoverageOffer
	for _, o := range m.offers {
		if o.TenantID == tenantID && o.CalloutEventID == eventID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (m *mockOfferRepo) ListDuePending(_ context.Context, before time.Time) ([]model.CoverageOffer, error) {
	var result []model.CoverageOffer
	for _, o := range m.offers {
		if o.Status == model.OfferStatusPending && o.ExpiresAt.Before(before) {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (m *mockOfferRepo) Update(_ context.Context, offer *model.CoverageOffer) error {
	stored, ok := m.offers[offer.OfferID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != offer.Version {
		return pkgerrors.ErrOptimisticLock
	}
	offer.Version++
	m.offers[offer.OfferID] = offer
	return nil
}

// ── Mock ShiftTradeRepository ──

type mockShiftTradeRepo struct {
	trades map[string]*model.ShiftTradeRequest
}

func newMockShiftTradeRepo() *mockShiftTradeRepo {
	return &mockShiftTradeRepo{trades: make(map[string]*model.ShiftTradeRequest)}
}

func (m *mockShiftTradeRepo) Create(_ context.Context, trade *model.ShiftTradeRequest) error {
	if trade.TradeID == "" {
		trade.TradeID = fmt.Sprintf("trade-%03d", len(m.trades)+1)
	}
	if trade.Version == 0 {
		trade.Version = 1
	}
	m.trades[trade.TradeID] = trade
	return nil
}

func (m *mockShiftTradeRepo) GetByID(_ context.Context, tenantID, id string) (*model.ShiftTradeRequest, error) {
	if t, ok := m.trades[id]; ok && t.TenantID == tenantID {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftTradeRepo) List(_ context.Context, tenantID, status string, staffID *string, _, _ int) ([]model.ShiftTradeRequest, int64, error) {
	var result []model.ShiftTradeRequest
	for _, t := range m.trades {
		if t.TenantID != tenantID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		if staffID != nil && t.InitiatorStaffID != *staffID &&
			(t.TargetStaffID == nil || *t.TargetStaffID != *staffID) {
			continue
		}
		result = append(result, *t)
	}
	return result, int64(len(result)), nil
}

func (m *mockShiftTradeRepo) ListOpenByTicket(_ context.Context, tenantID, ticketID string) ([]model.ShiftTradeRequest, error) {
	var result []model.ShiftTradeRequest
	for _, t := range m.trades {
		if t.TenantID != tenantID || t.TicketID != ticketID {
			continue
		}
		switch t.Status {
		case model.TradeStatusRequested, model.TradeStatusAccepted, model.TradeStatusApproved:
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockShiftTradeRepo) Update(_ context.Context, trade *model.ShiftTradeRequest) error {
	stored, ok := m.trades[trade.TradeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != trade.Version {
		return pkgerrors.ErrOptimisticLock
	}
	trade.Version++
	m.trades[trade.TradeID] = trade
	return nil
}

// ── Mock TimeEntryRepository ──

type mockTimeEntryRepo struct {
	entries map[string]*model.TimeEntry
}

func newMockTimeEntryRepo() *mockTimeEntryRepo {
	return &mockTimeEntryRepo{entries: make(map[string]*model.TimeEntry)}
}

func (m *mockTimeEntryRepo) Create(_ context.Context, entry *model.TimeEntry) error {
	if entry.TimeEntryID == "" {
		entry.TimeEntryID = fmt.Sprintf("te-%03d", len(m.entries)+1)
	}
	if entry.Version == 0 {
		entry.Version = 1
	}
	m.entries[entry.TimeEntryID] = entry
	return nil
}

func (m *mockTimeEntryRepo) GetByID(_ context.Context, tenantID, id string) (*model.TimeEntry, error) {
	if e, ok := m.entries[id]; ok && e.TenantID == tenantID {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeEntryRepo) ListApprovedByRange(_ context.Context, tenantID string, from, to time.Time) ([]model.TimeEntry, error) {
	var result []model.TimeEntry
	for _, e := range m.entries {
		if e.TenantID != tenantID || e.Status != "approved" {
			continue
		}
		if e.WorkDate.Before(from) || e.WorkDate.After(to) {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockTimeEntryRepo) SumMinutesByStaffAndRange(_ context.Context, tenantID, staffID string, from, to time.Time) (int, error) {
	total := 0
	for _, e := range m.entries {
		if e.TenantID != tenantID || e.StaffID != staffID || e.Status != "approved" {
			continue
		}
		if e.WorkDate.Before(from) || e.WorkDate.After(to) {
			continue
		}
		total += e.Minutes
	}
	return total, nil
}

func (m *mockTimeEntryRepo) Update(_ context.Context, entry *model.TimeEntry) error {
	stored, ok := m.entries[entry.TimeEntryID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != entry.Version {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version++
	m.entries[entry.TimeEntryID] = entry
	return nil
}

// ── Mock PayrollMappingRepository ──

type mockMappingRepo struct {
	mappings map[string]*model.PayrollExportMapping
}

func newMockMappingRepo() *mockMappingRepo {
	return &mockMappingRepo{mappings: make(map[string]*model.PayrollExportMapping)}
}

func (m *mockMappingRepo) Create(_ context.Context, mapping *model.PayrollExportMapping) error {
	if mapping.MappingID == "" {
		mapping.MappingID = fmt.Sprintf("mapping-%03d", len(m.mappings)+1)
	}
	if mapping.Version == 0 {
		mapping.Version = 1
	}
	m.mappings[mapping.MappingID] = mapping
	return nil
}

func (m *mockMappingRepo) GetByID(_ context.Context, tenantID, id string) (*model.PayrollExportMapping, error) {
	if mp, ok := m.mappings[id]; ok && mp.TenantID == tenantID {
		return mp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMappingRepo) ListActive(_ context.Context, tenantID string) ([]model.PayrollExportMapping, error) {
	var result []model.PayrollExportMapping
	for _, mp := range m.mappings {
		if mp.TenantID == tenantID && mp.IsActive {
			result = append(result, *mp)
		}
	}
	return result, nil
}

// ── Mock PayrollExportRunRepository ──

type mockExportRunRepo struct {
	runs  map[string]*model.PayrollExportRun
	items []model.PayrollExportItem
}

func newMockExportRunRepo() *mockExportRunRepo {
	return &mockExportRunRepo{runs: make(map[string]*model.PayrollExportRun)}
}

func (m *mockExportRunRepo) Create(_ context.Context, run *model.PayrollExportRun) error {
	if run.RunID == "" {
		run.RunID = fmt.Sprintf("run-%03d", len(m.runs)+1)
	}
	if run.Version == 0 {
		run.Version = 1
	}
	m.runs[run.RunID] = run
	return nil
}

func (m *mockExportRunRepo) GetByID(_ context.Context, tenantID, id string) (*model.PayrollExportRun, error) {
	if r, ok := m.runs[id]; ok && r.TenantID == tenantID {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExportRunRepo) List(_ context.Context, tenantID, status string, _, _ int) ([]model.PayrollExportRun, int64, error) {
	var result []model.PayrollExportRun
	for _, r := range m.runs {
		if r.TenantID != tenantID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (m *mockExportRunRepo) BatchCreateItems(_ context.Context, items []model.PayrollExportItem) error {
	for i := range items {
		item := items[i]
		if item.ItemID == "" {
			item.ItemID = fmt.Sprintf("item-%03d", len(m.items)+1)
		}
		m.items = append(m.items, item)
	}
	return nil
}

func (m *mockExportRunRepo) ListItems(_ context.Context, tenantID, runID string) ([]model.PayrollExportItem, error) {
	var result []model.PayrollExportItem
	for _, item := range m.items {
		if item.TenantID == tenantID && item.RunID == runID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *mockExportRunRepo) Update(_ context.Context, run *model.PayrollExportRun) error {
	stored, ok := m.runs[run.RunID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != run.Version {
		return pkgerrors.ErrOptimisticLock
	}
	run.Version++
	m.runs[run.RunID] = run
	return nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	logs []model.ScheduleAuditLog
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.ScheduleAuditLog) error {
	if log.AuditLogID == "" {
		log.AuditLogID = fmt.Sprintf("audit-%03d", len(m.logs)+1)
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) ListByEntity(_ context.Context, tenantID, entityType, entityID string, _, _ int) ([]model.ScheduleAuditLog, int64, error) {
	var result []model.ScheduleAuditLog
	for _, l := range m.logs {
		if l.TenantID == tenantID && l.EntityType == entityType && l.EntityID == entityID {
			result = append(result, l)
		}
	}
	return result, int64(len(result)), nil
}

// ── 测试用聚合 ──

// testRepos 全量 mock 仓库集合；toRepository 返回的聚合 db 为 nil，
// Transaction 退化为直接执行 fn
type testRepos struct {
	user      *mockUserRepo
	staff     *mockStaffRepo
	site      *mockSiteRepo
	ticket    *mockWorkTicketRepo
	period    *mockSchedulePeriodRepo
	conflict  *mockConflictRepo
	route     *mockRouteRepo
	stop      *mockRouteStopRepo
	segment   *mockTravelSegmentRepo
	callout   *mockCalloutRepo
	offer     *mockOfferRepo
	trade     *mockShiftTradeRepo
	timeEntry *mockTimeEntryRepo
	mapping   *mockMappingRepo
	exportRun *mockExportRunRepo
	auditLog  *mockAuditLogRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		user:      newMockUserRepo(),
		staff:     newMockStaffRepo(),
		site:      newMockSiteRepo(),
		ticket:    newMockWorkTicketRepo(),
		period:    newMockSchedulePeriodRepo(),
		conflict:  newMockConflictRepo(),
		route:     newMockRouteRepo(),
		stop:      newMockRouteStopRepo(),
		segment:   newMockTravelSegmentRepo(),
		callout:   newMockCalloutRepo(),
		offer:     newMockOfferRepo(),
		trade:     newMockShiftTradeRepo(),
		timeEntry: newMockTimeEntryRepo(),
		mapping:   newMockMappingRepo(),
		exportRun: newMockExportRunRepo(),
		auditLog:  newMockAuditLogRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:           r.user,
		Staff:          r.staff,
		Site:           r.site,
		WorkTicket:     r.ticket,
		SchedulePeriod: r.period,
		Conflict:       r.conflict,
		Route:          r.route,
		RouteStop:      r.stop,
		TravelSegment:  r.segment,
		Callout:        r.callout,
		Offer:          r.offer,
		ShiftTrade:     r.trade,
		TimeEntry:      r.timeEntry,
		Mapping:        r.mapping,
		ExportRun:      r.exportRun,
		AuditLog:       r.auditLog,
	}
}

// [自证通过] internal/service/mock_repos_test.go

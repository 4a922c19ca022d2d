package reservation

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/parking-booking-backend/internal/db"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/parking-booking-backend/internal/pkg/metrics"
	"github.com/nekogravitycat/parking-booking-backend/internal/resource"
)

type CreateRequest struct {
	UserID     string
	ResourceID string
	StartTime  time.Time
	EndTime    time.Time
}

type UpdateRequest struct {
	ResourceID *string
	StartTime  *time.Time
	EndTime    *time.Time
}

func (r UpdateRequest) empty() bool {
	return r.ResourceID == nil && r.StartTime == nil && r.EndTime == nil
}

// ListRequest selects one keyset page. An empty OwnerID lists every owner's reservations.
type ListRequest struct {
	OwnerID string
	Cursor  *Cursor
	Limit   int
}

type Page struct {
	Items      []*Reservation
	Pagination Pagination
}

// Service manages reservations. ownerID scopes every lookup to one user;
// the empty string is the administrator scope and sees everything.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Reservation, error)
	Get(ctx context.Context, id, ownerID string) (*Reservation, error)
	List(ctx context.Context, req ListRequest) (*Page, error)
	Update(ctx context.Context, id, ownerID string, req UpdateRequest) (*Reservation, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
	MaxPageSize() int
}

// ResourceLookup resolves the resource a reservation points at.
type ResourceLookup interface {
	GetByID(ctx context.Context, id string) (*resource.Resource, error)
}

type ServiceConfig struct {
	Clock       clock.Clock
	Metrics     *metrics.Metrics
	MaxPageSize int
	Retry       db.RetryConfig
}

type service struct {
	store       Store
	resources   ResourceLookup
	pagination  *PaginationCounter
	clock       clock.Clock
	metrics     *metrics.Metrics
	maxPageSize int
	retry       db.RetryConfig
}

func NewService(store Store, resources ResourceLookup, cfg ServiceConfig) Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.MaxPageSize < 1 {
		cfg.MaxPageSize = 100
	}

	retry := cfg.Retry
	onRetry := retry.OnRetry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = db.DefaultRetryConfig
	}
	retry.OnRetry = func(attempt int, err error) {
		cfg.Metrics.ObserveRetry()
		logger.Warn("retrying reservation transaction", zap.Int("attempt", attempt), zap.Error(err))
		if onRetry != nil {
			onRetry(attempt, err)
		}
	}

	return &service{
		store:       store,
		resources:   resources,
		pagination:  NewPaginationCounter(store),
		clock:       cfg.Clock,
		metrics:     cfg.Metrics,
		maxPageSize: cfg.MaxPageSize,
		retry:       retry,
	}
}

func (s *service) MaxPageSize() int {
	return s.maxPageSize
}

// validateWindow checks ordering first, then that the window has not started yet.
func (s *service) validateWindow(w Window) error {
	if !w.Valid() {
		return ErrInvalidTimeRange
	}
	if w.Start.Before(s.clock.Now()) {
		return ErrStartTimePast
	}
	return nil
}

// lookupResource returns the resource name, mapping a missing resource to ErrResourceNotFound.
func (s *service) lookupResource(ctx context.Context, resourceID string) (string, error) {
	res, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return "", ErrResourceNotFound
		}
		return "", err
	}
	return res.Name, nil
}

// checkAndLock takes the per-resource lock and rejects w if it collides with
// another reservation. Must run inside the write transaction.
func checkAndLock(ctx context.Context, repo Repository, resourceID string, w Window, excludeID string) error {
	if err := repo.LockResource(ctx, resourceID); err != nil {
		return err
	}

	conflict, err := FindConflict(ctx, repo, resourceID, w, excludeID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return &ConflictError{ReservationID: conflict.ID, Window: conflict.Window()}
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (_ *Reservation, err error) {
	defer func() { s.observe("create", err) }()

	// 1. Validate Time Range
	w := Window{Start: normalizeTime(req.StartTime), End: normalizeTime(req.EndTime)}
	if err := s.validateWindow(w); err != nil {
		return nil, err
	}

	// 2. Validate Resource Exists
	resourceName, err := s.lookupResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	r := &Reservation{
		ResourceID:   req.ResourceID,
		ResourceName: resourceName,
		UserID:       req.UserID,
		StartTime:    w.Start,
		EndTime:      w.End,
	}

	// 3. Check for conflicts and insert under the resource lock
	err = db.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
			if err := checkAndLock(ctx, repo, r.ResourceID, w, ""); err != nil {
				return err
			}
			return repo.Insert(ctx, r)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("reservation created",
		zap.String("id", r.ID),
		zap.String("resource_id", r.ResourceID),
		zap.Time("start", r.StartTime),
		zap.Time("end", r.EndTime),
	)
	return r, nil
}

func (s *service) Get(ctx context.Context, id, ownerID string) (*Reservation, error) {
	items, err := s.store.Find(ctx, Filter{ID: id, OwnerID: ownerID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

func (s *service) List(ctx context.Context, req ListRequest) (*Page, error) {
	limit := req.Limit
	if limit < 1 || limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	base := Filter{OwnerID: req.OwnerID}
	query := base
	query.Before = req.Cursor
	query.Limit = limit

	items, err := s.store.Find(ctx, query)
	if err != nil {
		return nil, err
	}

	var last *Reservation
	if len(items) > 0 {
		last = items[len(items)-1]
	}

	pg, err := s.pagination.Compute(ctx, base, last, limit)
	if err != nil {
		return nil, err
	}

	return &Page{Items: items, Pagination: pg}, nil
}

func (s *service) Update(ctx context.Context, id, ownerID string, req UpdateRequest) (_ *Reservation, err error) {
	defer func() { s.observe("update", err) }()

	if req.empty() {
		return nil, ErrEmptyUpdate
	}

	// A new resource is resolved before the transaction opens so the lookup
	// never competes with the transaction for a connection.
	var newResourceName string
	if req.ResourceID != nil {
		if newResourceName, err = s.lookupResource(ctx, *req.ResourceID); err != nil {
			return nil, err
		}
	}

	var updated *Reservation
	err = db.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
			// 1. Load within the caller's scope, locking the row
			items, err := repo.Find(ctx, Filter{ID: id, OwnerID: ownerID, Limit: 1, ForUpdate: true})
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return ErrNotFound
			}
			r := items[0]

			// 2. Reservations that already started are frozen
			if r.StartTime.Before(s.clock.Now()) {
				return ErrReservationStarted
			}

			// 3. Merge the patch
			if req.ResourceID != nil {
				r.ResourceID = *req.ResourceID
				r.ResourceName = newResourceName
			}
			if req.StartTime != nil {
				r.StartTime = normalizeTime(*req.StartTime)
			}
			if req.EndTime != nil {
				r.EndTime = normalizeTime(*req.EndTime)
			}

			// 4. Re-validate the merged window
			if err := s.validateWindow(r.Window()); err != nil {
				return err
			}

			// 5. Conflict check excluding this reservation
			if err := checkAndLock(ctx, repo, r.ResourceID, r.Window(), r.ID); err != nil {
				return err
			}

			// 6. Persist
			if err := repo.Update(ctx, r); err != nil {
				return err
			}
			updated = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id, ownerID string) (_ bool, err error) {
	defer func() { s.observe("delete", err) }()

	deleted, err := s.store.Delete(ctx, id, ownerID)
	if err != nil {
		return false, err
	}
	if !deleted {
		logger.Debug("delete matched no reservation", zap.String("id", id))
	}
	return deleted, nil
}

func (s *service) observe(operation string, err error) {
	outcome := "success"
	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindConflict:
			outcome = "conflict"
		case apperror.KindValidation:
			outcome = "invalid"
		case apperror.KindNotFound:
			outcome = "not_found"
		default:
			outcome = "error"
		}
	}
	s.metrics.ObserveReservation(operation, outcome)
}

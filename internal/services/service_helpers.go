package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/guru-digital-pelangi/pelangi-service/internal/cache"
	"github.com/guru-digital-pelangi/pelangi-service/internal/events"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/monitoring"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
	"github.com/guru-digital-pelangi/pelangi-service/internal/validator"
)

// Dependencies are shared by every service implementation. Publisher,
// Cache and Metrics are optional.
type Dependencies struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator
	Publisher events.EventPublisher
	Cache     *cache.CacheManager
	Metrics   *monitoring.Metrics
	Now       func() time.Time
}

type serviceBase struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	cache     *cache.CacheManager
	metrics   *monitoring.Metrics
	clock     func() time.Time
}

func newServiceBase(deps Dependencies) serviceBase {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	v := deps.Validator
	if v == nil {
		v = validator.New()
	}
	clock := deps.Now
	if clock == nil {
		clock = time.Now
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewMockEventPublisher(logger)
	}
	return serviceBase{
		repo:      deps.Repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		clock:     clock,
	}
}

func (b *serviceBase) now() time.Time {
	return b.clock()
}

// validate runs struct tag rules and returns service-level validation errors.
func (b *serviceBase) validate(req interface{}) error {
	return FromValidatorErrors(b.validator.Validate(req))
}

// ===== OUTBOX =====

// outbox collects side effects produced inside a transaction. They are
// applied by flush once the transaction has committed.
type outbox struct {
	events     []*events.Event
	activities []*models.Activity
	hooks      []func(ctx context.Context)
}

func (o *outbox) event(eventType string, data interface{}) {
	o.events = append(o.events, events.NewEvent(eventType, data))
}

func (o *outbox) activity(a *models.Activity) {
	o.activities = append(o.activities, a)
}

func (o *outbox) afterCommit(fn func(ctx context.Context)) {
	o.hooks = append(o.hooks, fn)
}

func (o *outbox) merge(other *outbox) {
	o.events = append(o.events, other.events...)
	o.activities = append(o.activities, other.activities...)
	o.hooks = append(o.hooks, other.hooks...)
}

// flush writes feed entries, publishes events and runs hooks. Failures are
// logged and never surface to the caller: the business write already committed.
func (b *serviceBase) flush(ctx context.Context, out *outbox) {
	if out == nil {
		return
	}
	for _, a := range out.activities {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = b.now()
		}
		if err := b.repo.Activity().Create(ctx, a); err != nil {
			b.logger.Warn("Failed to record activity", "type", a.Type, "error", err)
		}
	}
	for _, e := range out.events {
		if err := b.publisher.Publish(ctx, e); err != nil {
			b.metrics.IncEventPublishFailure(e.Type)
			b.logger.Warn("Failed to publish event", "event_id", e.ID, "type", e.Type, "error", err)
		}
	}
	for _, fn := range out.hooks {
		fn(ctx)
	}
}

func (b *serviceBase) invalidateLeaderboard(ctx context.Context) {
	if b.cache != nil {
		cache.InvalidateLeaderboardCache(ctx, b.cache)
	}
}

func (b *serviceBase) invalidateStats(ctx context.Context) {
	if b.cache != nil {
		cache.InvalidateStatsCache(ctx, b.cache)
	}
}

// ===== SMALL HELPERS =====

func requireRole(p models.Principal, resource, action string, roles ...models.UserRole) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return NewPermissionError(p.UserID, 0, resource, action, "role "+string(p.Role)+" is not allowed")
}

func requireAdmin(p models.Principal, resource, action string) error {
	return requireRole(p, resource, action, models.RoleAdmin)
}

func requireStaff(p models.Principal, resource, action string) error {
	return requireRole(p, resource, action, models.RoleAdmin, models.RoleTeacher)
}

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// listWindow applies paging defaults and returns limit and offset.
func listWindow(params *models.ListParams) (int, int) {
	params.Normalize()
	return params.Size, params.Offset()
}

func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func derefUint(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/guru-digital-pelangi/pelangi-service/internal/cache"
	"github.com/guru-digital-pelangi/pelangi-service/internal/events"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// XP sources reported to metrics
const (
	xpSourceManual     = "manual"
	xpSourceSubmission = "submission"
	xpSourceChallenge  = "challenge"
	xpSourceBadge      = "badge"
)

type xpService struct {
	serviceBase
	access AccessPolicy
}

func NewXPService(deps Dependencies, access AccessPolicy) XPService {
	return &xpService{serviceBase: newServiceBase(deps), access: access}
}

// XPForScore converts a graded score into XP using the fixed tier table.
func XPForScore(score float64, points int) int {
	if points <= 0 {
		return 0
	}
	pct := score / float64(points) * 100
	switch {
	case pct >= 90:
		return 50
	case pct >= 80:
		return 40
	case pct >= 70:
		return 30
	case pct >= 60:
		return 20
	case pct >= 50:
		return 10
	default:
		return 0
	}
}

// ComputeLevelInfo picks the highest level whose threshold is reached.
func ComputeLevelInfo(levels []*models.Level, totalXP int) (*models.LevelInfo, error) {
	if len(levels) == 0 {
		return nil, NewInternalError("compute level", fmt.Errorf("level table is empty"))
	}
	sorted := make([]*models.Level, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	hasBase := false
	for _, l := range sorted {
		if l.XPRequired == 0 {
			hasBase = true
			break
		}
	}
	if !hasBase {
		return nil, NewInternalError("compute level", fmt.Errorf("no level starts at 0 xp"))
	}

	idx := -1
	for i, l := range sorted {
		if l.XPRequired <= totalXP {
			idx = i
		}
	}
	if idx < 0 {
		idx = 0
	}
	cur := sorted[idx]

	info := &models.LevelInfo{
		Level:             cur.Level,
		LevelName:         cur.Name,
		Benefits:          cur.Benefits,
		CurrentXP:         totalXP,
		XPForCurrentLevel: cur.XPRequired,
	}
	if idx == len(sorted)-1 {
		info.IsMaxLevel = true
		info.ProgressToNextLevel = 100
		return info, nil
	}

	next := sorted[idx+1]
	needed := next.XPRequired
	info.XPForNextLevel = &needed
	span := next.XPRequired - cur.XPRequired
	if span <= 0 {
		info.ProgressToNextLevel = 100
		return info, nil
	}
	progress := float64(totalXP-cur.XPRequired) / float64(span) * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	info.ProgressToNextLevel = progress
	return info, nil
}

// ===== GRANTS =====

func (s *xpService) GrantXP(ctx context.Context, studentID uint, amount int, reason string) (*models.XPGrantResult, error) {
	var (
		result *models.XPGrantResult
		out    outbox
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		result, err = s.grantInTx(ctx, tx, &out, xpGrant{StudentID: studentID, Amount: amount, Source: xpSourceManual, Reason: reason})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, &out)
	return result, nil
}

func (s *xpService) ManualGrant(ctx context.Context, p models.Principal, req *models.GrantXPRequest) (*models.XPGrantResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := requireStaff(p, "xp", "grant"); err != nil {
		return nil, err
	}

	student, err := s.repo.Student().GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if p.IsTeacher() {
		if student.ClassID == nil {
			return nil, NewPermissionError(p.UserID, student.ID, "xp", "grant", "student has no class")
		}
		if err := s.access.CheckClassAccess(ctx, p, *student.ClassID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Granting XP manually", "student_id", student.ID, "amount", req.Amount, "granted_by", p.UserID)

	var (
		result *models.XPGrantResult
		out    outbox
	)
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		result, err = s.grantInTx(ctx, tx, &out, xpGrant{
			StudentID: student.ID,
			Amount:    req.Amount,
			Source:    xpSourceManual,
			Reason:    req.Reason,
			ActorID:   p.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	studentID := student.ID
	out.activity(&models.Activity{
		UserID:      p.UserID,
		StudentID:   &studentID,
		Type:        models.ActivityXPGranted,
		Title:       fmt.Sprintf("%s mendapat %d XP", student.FullName, req.Amount),
		Description: req.Reason,
		Metadata:    toJSON(map[string]interface{}{"amount": req.Amount, "total_xp": result.TotalXP}),
	})
	s.flush(ctx, &out)
	return result, nil
}

// xpGrant describes one additive grant. ActorID is the user credited in the feed.
type xpGrant struct {
	StudentID uint
	Amount    int
	Source    string
	Reason    string
	ActorID   uint
}

// grantInTx adds g.Amount to the student's total and refreshes the level columns.
// It must run inside a transaction-bound repository.
func (b *serviceBase) grantInTx(ctx context.Context, tx repositories.Repository, out *outbox, g xpGrant) (*models.XPGrantResult, error) {
	studentID, amount, source, reason := g.StudentID, g.Amount, g.Source, g.Reason
	if amount < 0 {
		return nil, NewValidationError("amount", "must not be negative", amount)
	}
	if _, err := tx.Student().GetByID(ctx, studentID); err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}

	previousLevel := 1
	if existing, err := tx.StudentXP().GetByStudentID(ctx, studentID); err == nil {
		previousLevel = existing.Level
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get student xp: %w", err)
	}

	row, err := tx.StudentXP().Apply(ctx, studentID, models.XPOperation{Kind: models.XPIncrement, Amount: amount})
	if repositories.IsNotFoundError(err) {
		row, err = tx.StudentXP().Apply(ctx, studentID, models.XPOperation{Kind: models.XPCreate, Amount: amount})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply xp: %w", err)
	}

	levels, err := tx.Level().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	info, err := ComputeLevelInfo(levels, row.TotalXP)
	if err != nil {
		return nil, err
	}

	if info.Level != row.Level || info.LevelName != row.LevelName {
		if err := tx.StudentXP().UpdateLevel(ctx, studentID, info.Level, info.LevelName); err != nil {
			return nil, fmt.Errorf("failed to update level: %w", err)
		}
	}

	result := &models.XPGrantResult{
		StudentID:     studentID,
		Amount:        amount,
		TotalXP:       row.TotalXP,
		PreviousLevel: previousLevel,
		Level:         info.Level,
		LeveledUp:     info.Level > previousLevel,
	}

	if amount > 0 {
		out.event(events.TypeXPGranted, events.XPGrantedData{
			StudentID: studentID,
			Amount:    amount,
			TotalXP:   row.TotalXP,
			Reason:    reason,
		})
	}
	if info.Level != previousLevel {
		out.event(events.TypeLevelUp, events.LevelUpData{
			StudentID:     studentID,
			PreviousLevel: previousLevel,
			NewLevel:      info.Level,
			LevelName:     info.LevelName,
			TotalXP:       row.TotalXP,
		})
		sid := studentID
		out.activity(&models.Activity{
			UserID:      g.ActorID,
			StudentID:   &sid,
			Type:        models.ActivityLevelUp,
			Title:       fmt.Sprintf("Naik ke level %d (%s)", info.Level, info.LevelName),
			Description: reason,
			Metadata:    toJSON(map[string]interface{}{"previous_level": previousLevel, "level": info.Level}),
		})
	}

	leveledUp := result.LeveledUp
	out.afterCommit(func(ctx context.Context) {
		b.metrics.ObserveXP(source, amount)
		if leveledUp {
			b.metrics.IncLevelUp()
		}
		b.invalidateLeaderboard(ctx)
	})
	return result, nil
}

// ===== READS =====

func (s *xpService) ComputeLevel(ctx context.Context, totalXP int) (*models.LevelInfo, error) {
	if totalXP < 0 {
		return nil, NewValidationError("total_xp", "must not be negative", totalXP)
	}
	levels, err := s.ListLevels(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeLevelInfo(levels, totalXP)
}

func (s *xpService) GetStudentProgress(ctx context.Context, p models.Principal, studentID uint) (*models.StudentProgress, error) {
	student, err := s.repo.Student().GetByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, ErrStudentNotFound, "get student")
	}
	if err := s.access.CheckStudentResource(ctx, p, student.ID, derefUint(student.ClassID), nil); err != nil {
		return nil, err
	}
	return s.progressFor(ctx, student)
}

func (s *xpService) progressFor(ctx context.Context, student *models.Student) (*models.StudentProgress, error) {
	xp, err := s.repo.StudentXP().GetByStudentID(ctx, student.ID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get student xp: %w", err)
		}
		xp = &models.StudentXp{StudentID: student.ID, Level: 1}
	}

	info, err := s.ComputeLevel(ctx, xp.TotalXP)
	if err != nil {
		return nil, err
	}

	badges, err := s.repo.StudentBadge().ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student badges: %w", err)
	}
	if badges == nil {
		badges = []models.StudentBadge{}
	}

	rank, err := s.repo.StudentXP().Rank(ctx, student.ID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get rank: %w", err)
	}

	return &models.StudentProgress{
		StudentID: student.ID,
		FullName:  student.FullName,
		XP:        *xp,
		LevelInfo: *info,
		Badges:    badges,
		Rank:      rank,
	}, nil
}

func (s *xpService) Leaderboard(ctx context.Context, limit int, classID *uint) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	load := func() ([]models.LeaderboardEntry, error) {
		entries, err := s.repo.StudentXP().Leaderboard(ctx, limit, classID)
		if err != nil {
			return nil, fmt.Errorf("failed to load leaderboard: %w", err)
		}
		for i := range entries {
			entries[i].Rank = i + 1
		}
		if entries == nil {
			entries = []models.LeaderboardEntry{}
		}
		return entries, nil
	}

	if s.cache == nil {
		return load()
	}
	return cache.GetOrLoad(ctx, s.cache.Leaderboard, cache.LeaderboardKey(limit, classID),
		cache.LeaderboardCacheConfig.TTL, load)
}

// ===== LEVEL TABLE =====

func (s *xpService) ListLevels(ctx context.Context) ([]*models.Level, error) {
	levels, err := s.repo.Level().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	return levels, nil
}

func (s *xpService) CreateLevel(ctx context.Context, p models.Principal, req *models.LevelCreateRequest) (*models.Level, error) {
	if err := requireAdmin(p, "level", "create"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	level := &models.Level{
		Level:      req.Level,
		Name:       strings.TrimSpace(req.Name),
		XPRequired: req.XPRequired,
		Benefits:   req.Benefits,
		Icon:       req.Icon,
	}

	s.logger.Info("Creating level", "level", level.Level, "xp_required", level.XPRequired)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		existing, err := tx.Level().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list levels: %w", err)
		}
		if err := s.checkLevelTable(append(existing, level)); err != nil {
			return err
		}
		if err := tx.Level().Create(ctx, level); err != nil {
			return conflictOr(err, "level", fmt.Sprintf("level %d already exists", level.Level), "create level")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLevels(ctx)
	return level, nil
}

func (s *xpService) UpdateLevel(ctx context.Context, p models.Principal, ordinal int, req *models.LevelUpdateRequest) (*models.Level, error) {
	if err := requireAdmin(p, "level", "update"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	var updated *models.Level
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		levels, err := tx.Level().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list levels: %w", err)
		}

		for _, l := range levels {
			if l.Level == ordinal {
				updated = l
				break
			}
		}
		if updated == nil {
			return ErrLevelNotFound
		}

		if req.Name != nil {
			updated.Name = strings.TrimSpace(*req.Name)
		}
		if req.XPRequired != nil {
			updated.XPRequired = *req.XPRequired
		}
		if req.Benefits != nil {
			updated.Benefits = *req.Benefits
		}
		if req.Icon != nil {
			updated.Icon = req.Icon
		}

		if err := s.checkLevelTable(levels); err != nil {
			return err
		}
		return tx.Level().Update(ctx, updated)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Level updated", "level", ordinal, "updated_by", p.UserID)
	s.invalidateLevels(ctx)
	return updated, nil
}

func (s *xpService) DeleteLevel(ctx context.Context, p models.Principal, ordinal int) error {
	if err := requireAdmin(p, "level", "delete"); err != nil {
		return err
	}

	level, err := s.repo.Level().GetByLevel(ctx, ordinal)
	if err != nil {
		return notFoundOr(err, ErrLevelNotFound, "get level")
	}
	if level.IsProtected() {
		return NewConflictError("level", fmt.Sprintf("system level %d cannot be deleted", ordinal))
	}

	if err := s.repo.Level().Delete(ctx, ordinal); err != nil {
		return notFoundOr(err, ErrLevelNotFound, "delete level")
	}

	s.logger.Info("Level deleted", "level", ordinal, "deleted_by", p.UserID)
	s.invalidateLevels(ctx)
	return nil
}

func (s *xpService) checkLevelTable(levels []*models.Level) error {
	sorted := make([]*models.Level, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	if verrs := s.validator.GetBusinessValidator().ValidateLevelTable(sorted); len(verrs) > 0 {
		return FromValidatorErrors(verrs)
	}
	return nil
}

// invalidateLevels drops the table again after commit; a read racing the
// transaction may have cached the old rows.
func (s *xpService) invalidateLevels(ctx context.Context) {
	if s.cache == nil {
		return
	}
	cache.InvalidateLevelCache(ctx, s.cache)
}

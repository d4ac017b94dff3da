package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/guru-digital-pelangi/pelangi-service/internal/cache"
	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

// ===== LEVELS =====

type levelPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewLevelPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.LevelRepository {
	return &levelPostgreSQL{db: db, cacheManager: cacheManager}
}

func (r *levelPostgreSQL) List(ctx context.Context) ([]*models.Level, error) {
	var levels []*models.Level

	// Try cache first
	if err := r.cacheManager.Level.Get(ctx, cache.LevelTableKey, &levels); err == nil {
		return levels, nil
	}

	if err := r.db.WithContext(ctx).Order("level ASC").Find(&levels).Error; err != nil {
		return nil, handleDBError(err, "list levels")
	}

	if err := r.cacheManager.Level.Set(ctx, cache.LevelTableKey, levels, cache.LevelCacheConfig.TTL); err != nil {
		cache.LogCacheError(ctx, "set level table", err)
	}
	return levels, nil
}

func (r *levelPostgreSQL) GetByLevel(ctx context.Context, level int) (*models.Level, error) {
	var row models.Level
	if err := r.db.WithContext(ctx).Where("level = ?", level).First(&row).Error; err != nil {
		return nil, handleDBError(err, "get level")
	}
	return &row, nil
}

func (r *levelPostgreSQL) Create(ctx context.Context, level *models.Level) error {
	if err := r.db.WithContext(ctx).Create(level).Error; err != nil {
		return handleDBError(err, "create level")
	}
	cache.InvalidateLevelCache(ctx, r.cacheManager)
	return nil
}

func (r *levelPostgreSQL) Update(ctx context.Context, level *models.Level) error {
	if err := r.db.WithContext(ctx).Save(level).Error; err != nil {
		return handleDBError(err, "update level")
	}
	cache.InvalidateLevelCache(ctx, r.cacheManager)
	return nil
}

func (r *levelPostgreSQL) Delete(ctx context.Context, level int) error {
	result := r.db.WithContext(ctx).Where("level = ?", level).Delete(&models.Level{})
	if result.Error != nil {
		return handleDBError(result.Error, "delete level")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete level")
	}
	cache.InvalidateLevelCache(ctx, r.cacheManager)
	return nil
}

// ===== STUDENT XP =====

type studentXPPostgreSQL struct {
	db *gorm.DB
}

func NewStudentXPPostgreSQL(db *gorm.DB) repositories.StudentXPRepository {
	return &studentXPPostgreSQL{db: db}
}

func (r *studentXPPostgreSQL) GetByStudentID(ctx context.Context, studentID uint) (*models.StudentXp, error) {
	var xp models.StudentXp
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&xp).Error; err != nil {
		return nil, handleDBError(err, "get student xp")
	}
	return &xp, nil
}

func (r *studentXPPostgreSQL) Apply(ctx context.Context, studentID uint, op models.XPOperation) (*models.StudentXp, error) {
	if op.Amount < 0 {
		return nil, errors.New("xp operation amount must not be negative")
	}

	now := time.Now()
	db := r.db.WithContext(ctx)

	switch op.Kind {
	case models.XPIncrement:
		result := db.Model(&models.StudentXp{}).
			Where("student_id = ?", studentID).
			Updates(map[string]interface{}{
				"total_xp":         gorm.Expr("total_xp + ?", op.Amount),
				"last_activity_at": now,
				"updated_at":       now,
			})
		if result.Error != nil {
			return nil, handleDBError(result.Error, "increment student xp")
		}
		if result.RowsAffected == 0 {
			return nil, handleDBError(gorm.ErrRecordNotFound, "increment student xp")
		}

	case models.XPCreate:
		row := &models.StudentXp{
			StudentID:      studentID,
			TotalXP:        op.Amount,
			Level:          1,
			LevelName:      "Pemula",
			LastActivityAt: &now,
		}
		// Concurrent first grants sum instead of overwriting each other
		if err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_xp":         gorm.Expr("student_xps.total_xp + excluded.total_xp"),
				"last_activity_at": now,
				"updated_at":       now,
			}),
		}).Create(row).Error; err != nil {
			return nil, handleDBError(err, "create student xp")
		}

	default:
		return nil, errors.New("unknown xp operation kind")
	}

	return r.GetByStudentID(ctx, studentID)
}

func (r *studentXPPostgreSQL) UpdateLevel(ctx context.Context, studentID uint, level int, levelName string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.StudentXp{}).
		Where("student_id = ?", studentID).
		Updates(map[string]interface{}{"level": level, "level_name": levelName}).Error; err != nil {
		return handleDBError(err, "update student level")
	}
	return nil
}

func (r *studentXPPostgreSQL) BumpStreak(ctx context.Context, studentID uint, kind repositories.StreakKind, reset bool) error {
	column := string(kind)
	if kind != repositories.AttendanceStreak && kind != repositories.AssignmentStreak {
		return errors.New("unknown streak kind")
	}

	value := gorm.Expr(column + " + 1")
	if reset {
		value = gorm.Expr("0")
	}

	if err := r.db.WithContext(ctx).
		Model(&models.StudentXp{}).
		Where("student_id = ?", studentID).
		Update(column, value).Error; err != nil {
		return handleDBError(err, "update streak")
	}
	return nil
}

func (r *studentXPPostgreSQL) leaderboardQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("student_xps sx").
		Joins("JOIN students s ON s.id = sx.student_id AND s.deleted_at IS NULL")
}

func (r *studentXPPostgreSQL) Leaderboard(ctx context.Context, limit int, classID *uint) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry

	query := r.leaderboardQuery(ctx).
		Select("s.id AS student_id, s.full_name, s.class_id, COALESCE(c.name, '') AS class_name, sx.total_xp, sx.level, sx.level_name").
		Joins("LEFT JOIN classes c ON c.id = s.class_id").
		Order("sx.total_xp DESC, s.full_name ASC, s.id ASC")
	if classID != nil {
		query = query.Where("s.class_id = ?", *classID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(&entries).Error; err != nil {
		return nil, handleDBError(err, "get leaderboard")
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (r *studentXPPostgreSQL) Rank(ctx context.Context, studentID uint) (int, error) {
	var me struct {
		TotalXP  int
		FullName string
	}
	if err := r.leaderboardQuery(ctx).
		Select("sx.total_xp, s.full_name").
		Where("sx.student_id = ?", studentID).
		Take(&me).Error; err != nil {
		return 0, handleDBError(err, "get student rank")
	}

	var ahead int64
	if err := r.leaderboardQuery(ctx).
		Where("sx.total_xp > ? OR (sx.total_xp = ? AND s.full_name < ?)", me.TotalXP, me.TotalXP, me.FullName).
		Count(&ahead).Error; err != nil {
		return 0, handleDBError(err, "count students ahead")
	}
	return int(ahead) + 1, nil
}

// ===== BADGES =====

type badgePostgreSQL struct {
	db *gorm.DB
}

func NewBadgePostgreSQL(db *gorm.DB) repositories.BadgeRepository {
	return &badgePostgreSQL{db: db}
}

func (r *badgePostgreSQL) Create(ctx context.Context, badge *models.Badge) error {
	if err := r.db.WithContext(ctx).Create(badge).Error; err != nil {
		return handleDBError(err, "create badge")
	}
	return nil
}

func (r *badgePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.WithContext(ctx).First(&badge, id).Error; err != nil {
		return nil, handleDBError(err, "get badge by id")
	}
	return &badge, nil
}

func (r *badgePostgreSQL) GetByName(ctx context.Context, name string) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&badge).Error; err != nil {
		return nil, handleDBError(err, "get badge by name")
	}
	return &badge, nil
}

func (r *badgePostgreSQL) Update(ctx context.Context, badge *models.Badge) error {
	if err := r.db.WithContext(ctx).Save(badge).Error; err != nil {
		return handleDBError(err, "update badge")
	}
	return nil
}

func (r *badgePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Badge{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete badge")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete badge")
	}
	return nil
}

func (r *badgePostgreSQL) List(ctx context.Context, activeOnly bool) ([]*models.Badge, error) {
	var badges []*models.Badge

	query := r.db.WithContext(ctx).
		Model(&models.Badge{}).
		Select("badges.*, (SELECT COUNT(*) FROM student_badges sb WHERE sb.badge_id = badges.id) AS award_count")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Order("name ASC").Find(&badges).Error; err != nil {
		return nil, handleDBError(err, "list badges")
	}
	return badges, nil
}

func (r *badgePostgreSQL) CountAwards(ctx context.Context, badgeID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StudentBadge{}).
		Where("badge_id = ?", badgeID).
		Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count badge awards")
	}
	return count, nil
}

type studentBadgePostgreSQL struct {
	db *gorm.DB
}

func NewStudentBadgePostgreSQL(db *gorm.DB) repositories.StudentBadgeRepository {
	return &studentBadgePostgreSQL{db: db}
}

func (r *studentBadgePostgreSQL) Create(ctx context.Context, sb *models.StudentBadge) error {
	if err := r.db.WithContext(ctx).Omit("Badge", "Student").Create(sb).Error; err != nil {
		return handleDBError(err, "award badge")
	}
	return nil
}

func (r *studentBadgePostgreSQL) GetByID(ctx context.Context, id uint) (*models.StudentBadge, error) {
	var sb models.StudentBadge
	if err := r.db.WithContext(ctx).Preload("Badge").First(&sb, id).Error; err != nil {
		return nil, handleDBError(err, "get student badge")
	}
	return &sb, nil
}

func (r *studentBadgePostgreSQL) Get(ctx context.Context, studentID, badgeID uint) (*models.StudentBadge, error) {
	var sb models.StudentBadge
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND badge_id = ?", studentID, badgeID).
		First(&sb).Error; err != nil {
		return nil, handleDBError(err, "get student badge")
	}
	return &sb, nil
}

func (r *studentBadgePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.StudentBadge{}, id)
	if result.Error != nil {
		return handleDBError(result.Error, "revoke badge")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "revoke badge")
	}
	return nil
}

func (r *studentBadgePostgreSQL) ListByStudent(ctx context.Context, studentID uint) ([]models.StudentBadge, error) {
	var badges []models.StudentBadge
	if err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("student_id = ?", studentID).
		Order("awarded_at DESC").
		Find(&badges).Error; err != nil {
		return nil, handleDBError(err, "list student badges")
	}
	return badges, nil
}

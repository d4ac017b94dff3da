package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
	"github.com/guru-digital-pelangi/pelangi-service/internal/repositories"
)

// fakeStore is an in-memory stand-in for the relational store. Reads return
// copies so services only change state through repository writes.
type fakeStore struct {
	nextID uint

	users              map[uint]*models.User
	students           map[uint]*models.Student
	classes            map[uint]*models.Class
	subjects           map[uint]*models.Subject
	classSubjects      map[uint]*models.ClassSubject
	teacherAssignments map[uint]*models.ClassTeacherSubject
	enrollments        map[uint]*models.StudentSubjectEnrollment
	assignments        map[uint]*models.Assignment
	submissions        map[uint]*models.AssignmentSubmission
	grades             map[uint]*models.Grade
	attendances        map[uint]*models.Attendance
	levels             map[int]*models.Level
	xp                 map[uint]*models.StudentXp // by student id
	badges             map[uint]*models.Badge
	studentBadges      map[uint]*models.StudentBadge
	challenges         map[uint]*models.Challenge
	participants       map[uint]*models.ChallengeParticipant
	questions          map[uint]*models.Question
	activities         []models.Activity

	// failSubmissionUpdate forces submission writes to fail for these student ids
	failSubmissionUpdate map[uint]bool
	// failEnrollmentBatch and failSubmissionBatch fail CreateBatch after
	// writing the first row, leaving a partial batch for the rollback to undo
	failEnrollmentBatch bool
	failSubmissionBatch bool
	// beforeGuardedWrite runs once ahead of the next guarded update, standing
	// in for a writer that commits between our read and our write
	beforeGuardedWrite func(s *fakeStore)
}

var errForcedFailure = errors.New("forced failure")

func newFakeStore() *fakeStore {
	s := &fakeStore{
		users:                map[uint]*models.User{},
		students:             map[uint]*models.Student{},
		classes:              map[uint]*models.Class{},
		subjects:             map[uint]*models.Subject{},
		classSubjects:        map[uint]*models.ClassSubject{},
		teacherAssignments:   map[uint]*models.ClassTeacherSubject{},
		enrollments:          map[uint]*models.StudentSubjectEnrollment{},
		assignments:          map[uint]*models.Assignment{},
		submissions:          map[uint]*models.AssignmentSubmission{},
		grades:               map[uint]*models.Grade{},
		attendances:          map[uint]*models.Attendance{},
		levels:               map[int]*models.Level{},
		xp:                   map[uint]*models.StudentXp{},
		badges:               map[uint]*models.Badge{},
		studentBadges:        map[uint]*models.StudentBadge{},
		challenges:           map[uint]*models.Challenge{},
		participants:         map[uint]*models.ChallengeParticipant{},
		questions:            map[uint]*models.Question{},
		failSubmissionUpdate: map[uint]bool{},
	}
	for _, l := range models.DefaultLevels() {
		level := l
		s.id(&level.ID)
		s.levels[level.Level] = &level
	}
	return s
}

func (s *fakeStore) id(target *uint) uint {
	s.nextID++
	*target = s.nextID
	return s.nextID
}

func cloneMap[K comparable, V any](m map[K]*V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		c := *v
		out[k] = &c
	}
	return out
}

func (s *fakeStore) snapshot() *fakeStore {
	c := *s
	c.users = cloneMap(s.users)
	c.students = cloneMap(s.students)
	c.classes = cloneMap(s.classes)
	c.subjects = cloneMap(s.subjects)
	c.classSubjects = cloneMap(s.classSubjects)
	c.teacherAssignments = cloneMap(s.teacherAssignments)
	c.enrollments = cloneMap(s.enrollments)
	c.assignments = cloneMap(s.assignments)
	c.submissions = cloneMap(s.submissions)
	c.grades = cloneMap(s.grades)
	c.attendances = cloneMap(s.attendances)
	c.levels = cloneMap(s.levels)
	c.xp = cloneMap(s.xp)
	c.badges = cloneMap(s.badges)
	c.studentBadges = cloneMap(s.studentBadges)
	c.challenges = cloneMap(s.challenges)
	c.participants = cloneMap(s.participants)
	c.questions = cloneMap(s.questions)
	c.activities = append([]models.Activity(nil), s.activities...)
	return &c
}

func (s *fakeStore) runBeforeGuardedWrite() {
	if hook := s.beforeGuardedWrite; hook != nil {
		s.beforeGuardedWrite = nil
		hook(s)
	}
}

func sortedIDs[V any](m map[uint]*V) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func containsUint(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ===== REPOSITORY =====

type fakeRepo struct {
	s *fakeStore
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{s: newFakeStore()}
}

func (r *fakeRepo) User() repositories.UserRepository       { return fakeUsers{r.s} }
func (r *fakeRepo) Student() repositories.StudentRepository { return fakeStudents{r.s} }
func (r *fakeRepo) Class() repositories.ClassRepository     { return fakeClasses{r.s} }
func (r *fakeRepo) Subject() repositories.SubjectRepository { return fakeSubjects{r.s} }
func (r *fakeRepo) ClassSubject() repositories.ClassSubjectRepository {
	return fakeClassSubjects{r.s}
}
func (r *fakeRepo) TeacherAssignment() repositories.TeacherAssignmentRepository {
	return fakeTeacherAssignments{r.s}
}
func (r *fakeRepo) Enrollment() repositories.EnrollmentRepository { return fakeEnrollments{r.s} }
func (r *fakeRepo) Assignment() repositories.AssignmentRepository { return fakeAssignments{r.s} }
func (r *fakeRepo) Submission() repositories.SubmissionRepository { return fakeSubmissions{r.s} }
func (r *fakeRepo) Grade() repositories.GradeRepository           { return fakeGrades{r.s} }
func (r *fakeRepo) Attendance() repositories.AttendanceRepository { return fakeAttendances{r.s} }
func (r *fakeRepo) Level() repositories.LevelRepository           { return fakeLevels{r.s} }
func (r *fakeRepo) StudentXP() repositories.StudentXPRepository   { return fakeXP{r.s} }
func (r *fakeRepo) Badge() repositories.BadgeRepository           { return fakeBadges{r.s} }
func (r *fakeRepo) StudentBadge() repositories.StudentBadgeRepository {
	return fakeStudentBadges{r.s}
}
func (r *fakeRepo) Challenge() repositories.ChallengeRepository { return fakeChallenges{r.s} }
func (r *fakeRepo) ChallengeParticipant() repositories.ChallengeParticipantRepository {
	return fakeParticipants{r.s}
}
func (r *fakeRepo) Question() repositories.QuestionRepository   { return fakeQuestions{r.s} }
func (r *fakeRepo) Activity() repositories.ActivityRepository   { return fakeActivities{r.s} }
func (r *fakeRepo) Dashboard() repositories.DashboardRepository { return fakeDashboard{r.s} }

// WithTransaction restores the previous state when fn fails.
func (r *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	before := r.s.snapshot()
	if err := fn(r); err != nil {
		hook := r.s.beforeGuardedWrite
		*r.s = *before
		r.s.beforeGuardedWrite = hook
		return err
	}
	return nil
}

func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

// ===== PEOPLE =====

type fakeUsers struct{ s *fakeStore }

func (f fakeUsers) Create(ctx context.Context, u *models.User) error {
	for _, existing := range f.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&u.ID)
	c := *u
	f.s.users[u.ID] = &c
	return nil
}

func (f fakeUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := f.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeUsers) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	for _, u := range f.s.users {
		if u.ExternalID != nil && *u.ExternalID == externalID {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeUsers) Update(ctx context.Context, u *models.User) error {
	if _, ok := f.s.users[u.ID]; !ok {
		return repositories.ErrNotFound
	}
	c := *u
	f.s.users[u.ID] = &c
	return nil
}

func (f fakeUsers) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, id := range sortedIDs(f.s.users) {
		u := *f.s.users[id]
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		out = append(out, &u)
	}
	return window(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

type fakeStudents struct{ s *fakeStore }

func (f fakeStudents) Create(ctx context.Context, st *models.Student) error {
	for _, existing := range f.s.students {
		if existing.StudentID == st.StudentID {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&st.ID)
	c := *st
	c.Class, c.XP = nil, nil
	f.s.students[st.ID] = &c
	return nil
}

func (f fakeStudents) load(st *models.Student) *models.Student {
	c := *st
	if c.ClassID != nil {
		if class, ok := f.s.classes[*c.ClassID]; ok {
			cc := *class
			c.Class = &cc
		}
	}
	if xp, ok := f.s.xp[c.ID]; ok {
		x := *xp
		c.XP = &x
	}
	return &c
}

func (f fakeStudents) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	st, ok := f.s.students[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return f.load(st), nil
}

func (f fakeStudents) GetByNISN(ctx context.Context, nisn string) (*models.Student, error) {
	for _, st := range f.s.students {
		if st.StudentID == nisn {
			return f.load(st), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeStudents) GetByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	for _, st := range f.s.students {
		if st.UserID != nil && *st.UserID == userID {
			return f.load(st), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeStudents) Update(ctx context.Context, st *models.Student) error {
	if _, ok := f.s.students[st.ID]; !ok {
		return repositories.ErrNotFound
	}
	c := *st
	c.Class, c.XP = nil, nil
	f.s.students[st.ID] = &c
	return nil
}

func (f fakeStudents) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.students[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.students, id)
	return nil
}

func (f fakeStudents) List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	var out []*models.Student
	for _, id := range sortedIDs(f.s.students) {
		st := f.s.students[id]
		if filters.ClassID != nil && (st.ClassID == nil || *st.ClassID != *filters.ClassID) {
			continue
		}
		if filters.ClassIDs != nil && (st.ClassID == nil || !containsUint(filters.ClassIDs, *st.ClassID)) {
			continue
		}
		if filters.Status != nil && st.Status != *filters.Status {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(st.FullName), strings.ToLower(filters.Search)) {
			continue
		}
		out = append(out, f.load(st))
	}
	return window(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeStudents) ListByClass(ctx context.Context, classID uint) ([]*models.Student, error) {
	var out []*models.Student
	for _, id := range sortedIDs(f.s.students) {
		st := f.s.students[id]
		if st.ClassID != nil && *st.ClassID == classID {
			out = append(out, f.load(st))
		}
	}
	return out, nil
}

func (f fakeStudents) ListActiveByGradeLevel(ctx context.Context, gradeLevel int) ([]*models.Student, error) {
	var out []*models.Student
	for _, id := range sortedIDs(f.s.students) {
		st := f.s.students[id]
		if st.Status != models.StudentActive || st.ClassID == nil {
			continue
		}
		class, ok := f.s.classes[*st.ClassID]
		if !ok || (gradeLevel != 0 && class.GradeLevel != gradeLevel) {
			continue
		}
		out = append(out, f.load(st))
	}
	return out, nil
}

func (f fakeStudents) CountByClass(ctx context.Context, classID uint) (int64, error) {
	list, _ := f.ListByClass(ctx, classID)
	return int64(len(list)), nil
}

// ===== SCHOOL STRUCTURE =====

type fakeClasses struct{ s *fakeStore }

func (f fakeClasses) Create(ctx context.Context, c *models.Class) error {
	for _, existing := range f.s.classes {
		if existing.Name == c.Name {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&c.ID)
	cp := *c
	f.s.classes[c.ID] = &cp
	return nil
}

func (f fakeClasses) withCount(c *models.Class) *models.Class {
	cp := *c
	cp.StudentCount, _ = fakeStudents{f.s}.CountByClass(context.Background(), c.ID)
	return &cp
}

func (f fakeClasses) GetByID(ctx context.Context, id uint) (*models.Class, error) {
	c, ok := f.s.classes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return f.withCount(c), nil
}

func (f fakeClasses) GetByName(ctx context.Context, name string) (*models.Class, error) {
	for _, c := range f.s.classes {
		if c.Name == name {
			return f.withCount(c), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeClasses) Update(ctx context.Context, c *models.Class) error {
	if _, ok := f.s.classes[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *c
	f.s.classes[c.ID] = &cp
	return nil
}

func (f fakeClasses) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.classes[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.classes, id)
	return nil
}

func (f fakeClasses) List(ctx context.Context, filters repositories.ClassFilters) ([]*models.Class, int64, error) {
	var out []*models.Class
	for _, id := range sortedIDs(f.s.classes) {
		c := f.s.classes[id]
		if filters.IDs != nil && !containsUint(filters.IDs, id) {
			continue
		}
		if filters.GradeLevel != nil && c.GradeLevel != *filters.GradeLevel {
			continue
		}
		out = append(out, f.withCount(c))
	}
	return window(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

type fakeSubjects struct{ s *fakeStore }

func (f fakeSubjects) Create(ctx context.Context, sub *models.Subject) error {
	for _, existing := range f.s.subjects {
		if existing.Code == sub.Code {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&sub.ID)
	cp := *sub
	f.s.subjects[sub.ID] = &cp
	return nil
}

func (f fakeSubjects) GetByID(ctx context.Context, id uint) (*models.Subject, error) {
	sub, ok := f.s.subjects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (f fakeSubjects) GetByCode(ctx context.Context, code string) (*models.Subject, error) {
	for _, sub := range f.s.subjects {
		if sub.Code == code {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeSubjects) Update(ctx context.Context, sub *models.Subject) error {
	if _, ok := f.s.subjects[sub.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *sub
	f.s.subjects[sub.ID] = &cp
	return nil
}

func (f fakeSubjects) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.subjects[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.subjects, id)
	return nil
}

func (f fakeSubjects) List(ctx context.Context, filters repositories.SubjectFilters) ([]*models.Subject, int64, error) {
	var out []*models.Subject
	for _, id := range sortedIDs(f.s.subjects) {
		cp := *f.s.subjects[id]
		out = append(out, &cp)
	}
	return window(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

type fakeClassSubjects struct{ s *fakeStore }

func (f fakeClassSubjects) Create(ctx context.Context, cs *models.ClassSubject) error {
	for _, existing := range f.s.classSubjects {
		if existing.ClassID == cs.ClassID && existing.SubjectID == cs.SubjectID {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&cs.ID)
	cp := *cs
	cp.Subject = nil
	f.s.classSubjects[cs.ID] = &cp
	return nil
}

func (f fakeClassSubjects) Get(ctx context.Context, classID, subjectID uint) (*models.ClassSubject, error) {
	for _, cs := range f.s.classSubjects {
		if cs.ClassID == classID && cs.SubjectID == subjectID {
			cp := *cs
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeClassSubjects) Update(ctx context.Context, cs *models.ClassSubject) error {
	if _, ok := f.s.classSubjects[cs.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *cs
	cp.Subject = nil
	f.s.classSubjects[cs.ID] = &cp
	return nil
}

func (f fakeClassSubjects) ListByClass(ctx context.Context, classID uint) ([]*models.ClassSubject, error) {
	var out []*models.ClassSubject
	for _, id := range sortedIDs(f.s.classSubjects) {
		cs := *f.s.classSubjects[id]
		if cs.ClassID != classID {
			continue
		}
		if sub, ok := f.s.subjects[cs.SubjectID]; ok {
			cp := *sub
			cs.Subject = &cp
		}
		out = append(out, &cs)
	}
	return out, nil
}

type fakeTeacherAssignments struct{ s *fakeStore }

func (f fakeTeacherAssignments) Create(ctx context.Context, cts *models.ClassTeacherSubject) error {
	for _, existing := range f.s.teacherAssignments {
		if existing.ClassID == cts.ClassID && existing.TeacherID == cts.TeacherID && existing.SubjectID == cts.SubjectID {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&cts.ID)
	cp := *cts
	f.s.teacherAssignments[cts.ID] = &cp
	return nil
}

func (f fakeTeacherAssignments) Get(ctx context.Context, classID, teacherID, subjectID uint) (*models.ClassTeacherSubject, error) {
	for _, cts := range f.s.teacherAssignments {
		if cts.ClassID == classID && cts.TeacherID == teacherID && cts.SubjectID == subjectID {
			cp := *cts
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeTeacherAssignments) Update(ctx context.Context, cts *models.ClassTeacherSubject) error {
	if _, ok := f.s.teacherAssignments[cts.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *cts
	f.s.teacherAssignments[cts.ID] = &cp
	return nil
}

func (f fakeTeacherAssignments) ListByClass(ctx context.Context, classID uint) ([]*models.ClassTeacherSubject, error) {
	var out []*models.ClassTeacherSubject
	for _, id := range sortedIDs(f.s.teacherAssignments) {
		cts := *f.s.teacherAssignments[id]
		if cts.ClassID == classID {
			out = append(out, &cts)
		}
	}
	return out, nil
}

func (f fakeTeacherAssignments) HasClassAccess(ctx context.Context, teacherID, classID uint) (bool, error) {
	for _, cts := range f.s.teacherAssignments {
		if cts.IsActive && cts.TeacherID == teacherID && cts.ClassID == classID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeTeacherAssignments) HasClassSubjectAccess(ctx context.Context, teacherID, classID, subjectID uint) (bool, error) {
	for _, cts := range f.s.teacherAssignments {
		if cts.IsActive && cts.TeacherID == teacherID && cts.ClassID == classID && cts.SubjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeTeacherAssignments) ListClassIDsByTeacher(ctx context.Context, teacherID uint) ([]uint, error) {
	ids := []uint{}
	for _, id := range sortedIDs(f.s.teacherAssignments) {
		cts := f.s.teacherAssignments[id]
		if cts.IsActive && cts.TeacherID == teacherID && !containsUint(ids, cts.ClassID) {
			ids = append(ids, cts.ClassID)
		}
	}
	return ids, nil
}

func (f fakeTeacherAssignments) ListSubjectIDs(ctx context.Context, teacherID, classID uint) ([]uint, error) {
	ids := []uint{}
	for _, id := range sortedIDs(f.s.teacherAssignments) {
		cts := f.s.teacherAssignments[id]
		if cts.IsActive && cts.TeacherID == teacherID && cts.ClassID == classID && !containsUint(ids, cts.SubjectID) {
			ids = append(ids, cts.SubjectID)
		}
	}
	return ids, nil
}

type fakeEnrollments struct{ s *fakeStore }

func (f fakeEnrollments) CreateBatch(ctx context.Context, enrollments []*models.StudentSubjectEnrollment) error {
	for i, e := range enrollments {
		if f.s.failEnrollmentBatch && i > 0 {
			return errForcedFailure
		}
		for _, existing := range f.s.enrollments {
			if existing.StudentID == e.StudentID && existing.SubjectID == e.SubjectID && existing.ClassID == e.ClassID {
				return repositories.ErrDuplicate
			}
		}
		f.s.id(&e.ID)
		cp := *e
		f.s.enrollments[e.ID] = &cp
	}
	return nil
}

func (f fakeEnrollments) ListByClassSubject(ctx context.Context, classID, subjectID uint) ([]*models.StudentSubjectEnrollment, error) {
	var out []*models.StudentSubjectEnrollment
	for _, id := range sortedIDs(f.s.enrollments) {
		e := *f.s.enrollments[id]
		if e.ClassID == classID && e.SubjectID == subjectID {
			out = append(out, &e)
		}
	}
	return out, nil
}

// ===== COURSEWORK =====

type fakeAssignments struct{ s *fakeStore }

func (f fakeAssignments) Create(ctx context.Context, a *models.Assignment) error {
	f.s.id(&a.ID)
	cp := *a
	cp.Class, cp.Subject, cp.Submissions = nil, nil, nil
	f.s.assignments[a.ID] = &cp
	return nil
}

func (f fakeAssignments) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	a, ok := f.s.assignments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeAssignments) Update(ctx context.Context, a *models.Assignment) error {
	if _, ok := f.s.assignments[a.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *a
	cp.Class, cp.Subject, cp.Submissions = nil, nil, nil
	f.s.assignments[a.ID] = &cp
	return nil
}

func (f fakeAssignments) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.assignments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.assignments, id)
	for sid, sub := range f.s.submissions {
		if sub.AssignmentID == id {
			delete(f.s.submissions, sid)
		}
	}
	return nil
}

func (f fakeAssignments) List(ctx context.Context, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	var out []*models.Assignment
	for _, id := range sortedIDs(f.s.assignments) {
		a := *f.s.assignments[id]
		if filters.TeacherID != nil && a.TeacherID != *filters.TeacherID {
			continue
		}
		if filters.ClassID != nil && a.ClassID != *filters.ClassID {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		if filters.Type != nil && a.Type != *filters.Type {
			continue
		}
		out = append(out, &a)
	}
	return window(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

type fakeSubmissions struct{ s *fakeStore }

func (f fakeSubmissions) Create(ctx context.Context, sub *models.AssignmentSubmission) error {
	for _, existing := range f.s.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&sub.ID)
	cp := *sub
	cp.Assignment, cp.Student = nil, nil
	f.s.submissions[sub.ID] = &cp
	return nil
}

func (f fakeSubmissions) CreateBatch(ctx context.Context, subs []*models.AssignmentSubmission) error {
	for i, sub := range subs {
		if f.s.failSubmissionBatch && i > 0 {
			return errForcedFailure
		}
		if err := f.Create(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

func (f fakeSubmissions) GetByID(ctx context.Context, id uint) (*models.AssignmentSubmission, error) {
	sub, ok := f.s.submissions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *sub
	if a, ok := f.s.assignments[cp.AssignmentID]; ok {
		ac := *a
		cp.Assignment = &ac
	}
	return &cp, nil
}

func (f fakeSubmissions) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (*models.AssignmentSubmission, error) {
	for _, sub := range f.s.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeSubmissions) Update(ctx context.Context, sub *models.AssignmentSubmission) error {
	if f.s.failSubmissionUpdate[sub.StudentID] {
		return errForcedFailure
	}
	if _, ok := f.s.submissions[sub.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *sub
	cp.Assignment, cp.Student = nil, nil
	f.s.submissions[sub.ID] = &cp
	return nil
}

func (f fakeSubmissions) UpdateFrom(ctx context.Context, sub *models.AssignmentSubmission, from repositories.SubmissionGuard) error {
	f.s.runBeforeGuardedWrite()
	current, ok := f.s.submissions[sub.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if current.Status != from.Status || current.XPAwarded != from.XPAwarded {
		return repositories.ErrStale
	}
	return f.Update(ctx, sub)
}

func (f fakeSubmissions) ListByAssignment(ctx context.Context, assignmentID uint) ([]*models.AssignmentSubmission, error) {
	var out []*models.AssignmentSubmission
	for _, id := range sortedIDs(f.s.submissions) {
		sub := *f.s.submissions[id]
		if sub.AssignmentID != assignmentID {
			continue
		}
		if st, ok := f.s.students[sub.StudentID]; ok {
			sc := *st
			sub.Student = &sc
		}
		out = append(out, &sub)
	}
	return out, nil
}

func (f fakeSubmissions) ListByStudent(ctx context.Context, studentID uint) ([]*models.AssignmentSubmission, error) {
	var out []*models.AssignmentSubmission
	for _, id := range sortedIDs(f.s.submissions) {
		sub := *f.s.submissions[id]
		if sub.StudentID != studentID {
			continue
		}
		if a, ok := f.s.assignments[sub.AssignmentID]; ok {
			ac := *a
			sub.Assignment = &ac
		}
		out = append(out, &sub)
	}
	return out, nil
}

func (f fakeSubmissions) CountByStatus(ctx context.Context, assignmentID uint) (repositories.SubmissionStatusCounts, error) {
	counts := repositories.SubmissionStatusCounts{}
	for _, sub := range f.s.submissions {
		if sub.AssignmentID == assignmentID {
			counts[sub.Status]++
		}
	}
	return counts, nil
}

func (f fakeSubmissions) AverageScore(ctx context.Context, assignmentID uint) (float64, error) {
	var sum float64
	var n int
	for _, sub := range f.s.submissions {
		if sub.AssignmentID == assignmentID && sub.Status == models.SubmissionGraded && sub.Score != nil {
			sum += *sub.Score
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

type fakeGrades struct{ s *fakeStore }

func (f fakeGrades) Create(ctx context.Context, g *models.Grade) error {
	f.s.id(&g.ID)
	cp := *g
	cp.Student, cp.Subject = nil, nil
	f.s.grades[g.ID] = &cp
	return nil
}

func (f fakeGrades) GetByID(ctx context.Context, id uint) (*models.Grade, error) {
	g, ok := f.s.grades[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f fakeGrades) Update(ctx context.Context, g *models.Grade) error {
	if _, ok := f.s.grades[g.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *g
	f.s.grades[g.ID] = &cp
	return nil
}

func (f fakeGrades) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.grades[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.grades, id)
	return nil
}

func (f fakeGrades) List(ctx context.Context, filters repositories.GradeFilters) ([]*models.Grade, int64, error) {
	var out []*models.Grade
	for _, id := range sortedIDs(f.s.grades) {
		g := *f.s.grades[id]
		if filters.StudentID != nil && g.StudentID != *filters.StudentID {
			continue
		}
		if filters.ClassID != nil && g.ClassID != *filters.ClassID {
			continue
		}
		if filters.SubjectID != nil && g.SubjectID != *filters.SubjectID {
			continue
		}
		if filters.SubjectIDs != nil && !containsUint(filters.SubjectIDs, g.SubjectID) {
			continue
		}
		out = append(out, &g)
	}
	return window(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeGrades) AveragesBySubject(ctx context.Context, studentID uint) ([]models.SubjectGradeRecap, error) {
	bySubject := map[uint]*models.SubjectGradeRecap{}
	sums := map[uint]float64{}
	for _, id := range sortedIDs(f.s.grades) {
		g := f.s.grades[id]
		if g.StudentID != studentID {
			continue
		}
		r, ok := bySubject[g.SubjectID]
		if !ok {
			r = &models.SubjectGradeRecap{SubjectID: g.SubjectID}
			if sub, ok := f.s.subjects[g.SubjectID]; ok {
				r.SubjectName = sub.Name
			}
			bySubject[g.SubjectID] = r
		}
		r.GradeCount++
		sums[g.SubjectID] += g.Percentage()
	}
	out := []models.SubjectGradeRecap{}
	for _, id := range sortedIDs(bySubject) {
		r := *bySubject[id]
		r.Average = sums[id] / float64(r.GradeCount)
		out = append(out, r)
	}
	return out, nil
}

type fakeAttendances struct{ s *fakeStore }

func sameSubject(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f fakeAttendances) Upsert(ctx context.Context, a *models.Attendance) error {
	for id, existing := range f.s.attendances {
		if existing.StudentID == a.StudentID && existing.ClassID == a.ClassID &&
			sameSubject(existing.SubjectID, a.SubjectID) && existing.Date.Equal(a.Date) {
			a.ID = id
			cp := *a
			f.s.attendances[id] = &cp
			return nil
		}
	}
	f.s.id(&a.ID)
	cp := *a
	f.s.attendances[a.ID] = &cp
	return nil
}

func (f fakeAttendances) GetByID(ctx context.Context, id uint) (*models.Attendance, error) {
	a, ok := f.s.attendances[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeAttendances) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.attendances[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.attendances, id)
	return nil
}

func (f fakeAttendances) List(ctx context.Context, filters repositories.AttendanceFilters) ([]*models.Attendance, int64, error) {
	var out []*models.Attendance
	for _, id := range sortedIDs(f.s.attendances) {
		a := *f.s.attendances[id]
		if filters.StudentID != nil && a.StudentID != *filters.StudentID {
			continue
		}
		if filters.ClassID != nil && a.ClassID != *filters.ClassID {
			continue
		}
		if filters.SubjectID != nil && !sameSubject(a.SubjectID, filters.SubjectID) {
			continue
		}
		if filters.SubjectIDs != nil && a.SubjectID != nil && !containsUint(filters.SubjectIDs, *a.SubjectID) {
			continue
		}
		out = append(out, &a)
	}
	return window(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeAttendances) CountByStatus(ctx context.Context, studentID uint, from, to *time.Time) (repositories.AttendanceCounts, error) {
	counts := repositories.AttendanceCounts{}
	for _, a := range f.s.attendances {
		if a.StudentID != studentID {
			continue
		}
		if from != nil && a.Date.Before(*from) {
			continue
		}
		if to != nil && a.Date.After(*to) {
			continue
		}
		counts[a.Status]++
	}
	return counts, nil
}

// ===== GAMIFICATION =====

type fakeLevels struct{ s *fakeStore }

func (f fakeLevels) List(ctx context.Context) ([]*models.Level, error) {
	out := make([]*models.Level, 0, len(f.s.levels))
	for _, l := range f.s.levels {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (f fakeLevels) GetByLevel(ctx context.Context, level int) (*models.Level, error) {
	l, ok := f.s.levels[level]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f fakeLevels) Create(ctx context.Context, l *models.Level) error {
	if _, ok := f.s.levels[l.Level]; ok {
		return repositories.ErrDuplicate
	}
	f.s.id(&l.ID)
	cp := *l
	f.s.levels[l.Level] = &cp
	return nil
}

func (f fakeLevels) Update(ctx context.Context, l *models.Level) error {
	if _, ok := f.s.levels[l.Level]; !ok {
		return repositories.ErrNotFound
	}
	cp := *l
	f.s.levels[l.Level] = &cp
	return nil
}

func (f fakeLevels) Delete(ctx context.Context, level int) error {
	if _, ok := f.s.levels[level]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.levels, level)
	return nil
}

type fakeXP struct{ s *fakeStore }

func (f fakeXP) GetByStudentID(ctx context.Context, studentID uint) (*models.StudentXp, error) {
	x, ok := f.s.xp[studentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

func (f fakeXP) Apply(ctx context.Context, studentID uint, op models.XPOperation) (*models.StudentXp, error) {
	if op.Amount < 0 {
		return nil, errors.New("xp operation amount must not be negative")
	}
	x, ok := f.s.xp[studentID]
	switch op.Kind {
	case models.XPIncrement:
		if !ok {
			return nil, repositories.ErrNotFound
		}
		x.TotalXP += op.Amount
	case models.XPCreate:
		if ok {
			x.TotalXP += op.Amount
		} else {
			x = &models.StudentXp{StudentID: studentID, TotalXP: op.Amount, Level: 1, LevelName: "Pemula"}
			f.s.id(&x.ID)
			f.s.xp[studentID] = x
		}
	}
	cp := *x
	return &cp, nil
}

func (f fakeXP) UpdateLevel(ctx context.Context, studentID uint, level int, levelName string) error {
	if x, ok := f.s.xp[studentID]; ok {
		x.Level, x.LevelName = level, levelName
	}
	return nil
}

func (f fakeXP) BumpStreak(ctx context.Context, studentID uint, kind repositories.StreakKind, reset bool) error {
	x, ok := f.s.xp[studentID]
	if !ok {
		return nil
	}
	target := &x.AttendanceStreak
	if kind == repositories.AssignmentStreak {
		target = &x.AssignmentStreak
	}
	if reset {
		*target = 0
	} else {
		*target++
	}
	return nil
}

func (f fakeXP) Leaderboard(ctx context.Context, limit int, classID *uint) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	for studentID, x := range f.s.xp {
		st, ok := f.s.students[studentID]
		if !ok {
			continue
		}
		if classID != nil && (st.ClassID == nil || *st.ClassID != *classID) {
			continue
		}
		e := models.LeaderboardEntry{StudentID: studentID, FullName: st.FullName, ClassID: st.ClassID,
			TotalXP: x.TotalXP, Level: x.Level, LevelName: x.LevelName}
		if st.ClassID != nil {
			if c, ok := f.s.classes[*st.ClassID]; ok {
				e.ClassName = c.Name
			}
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalXP != entries[j].TotalXP {
			return entries[i].TotalXP > entries[j].TotalXP
		}
		return entries[i].FullName < entries[j].FullName
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (f fakeXP) Rank(ctx context.Context, studentID uint) (int, error) {
	entries, _ := f.Leaderboard(ctx, 0, nil)
	for _, e := range entries {
		if e.StudentID == studentID {
			return e.Rank, nil
		}
	}
	return 0, repositories.ErrNotFound
}

type fakeBadges struct{ s *fakeStore }

func (f fakeBadges) Create(ctx context.Context, b *models.Badge) error {
	for _, existing := range f.s.badges {
		if existing.Name == b.Name {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&b.ID)
	cp := *b
	f.s.badges[b.ID] = &cp
	return nil
}

func (f fakeBadges) GetByID(ctx context.Context, id uint) (*models.Badge, error) {
	b, ok := f.s.badges[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *b
	cp.AwardCount, _ = f.CountAwards(ctx, id)
	return &cp, nil
}

func (f fakeBadges) GetByName(ctx context.Context, name string) (*models.Badge, error) {
	for id, b := range f.s.badges {
		if b.Name == name {
			return f.GetByID(ctx, id)
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeBadges) Update(ctx context.Context, b *models.Badge) error {
	if _, ok := f.s.badges[b.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *b
	f.s.badges[b.ID] = &cp
	return nil
}

func (f fakeBadges) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.badges[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.badges, id)
	return nil
}

func (f fakeBadges) List(ctx context.Context, activeOnly bool) ([]*models.Badge, error) {
	var out []*models.Badge
	for _, id := range sortedIDs(f.s.badges) {
		if activeOnly && !f.s.badges[id].IsActive {
			continue
		}
		b, _ := f.GetByID(ctx, id)
		out = append(out, b)
	}
	return out, nil
}

func (f fakeBadges) CountAwards(ctx context.Context, badgeID uint) (int64, error) {
	var n int64
	for _, sb := range f.s.studentBadges {
		if sb.BadgeID == badgeID {
			n++
		}
	}
	return n, nil
}

type fakeStudentBadges struct{ s *fakeStore }

func (f fakeStudentBadges) Create(ctx context.Context, sb *models.StudentBadge) error {
	for _, existing := range f.s.studentBadges {
		if existing.StudentID == sb.StudentID && existing.BadgeID == sb.BadgeID {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&sb.ID)
	cp := *sb
	cp.Badge, cp.Student = nil, nil
	f.s.studentBadges[sb.ID] = &cp
	return nil
}

func (f fakeStudentBadges) GetByID(ctx context.Context, id uint) (*models.StudentBadge, error) {
	sb, ok := f.s.studentBadges[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *sb
	return &cp, nil
}

func (f fakeStudentBadges) Get(ctx context.Context, studentID, badgeID uint) (*models.StudentBadge, error) {
	for _, sb := range f.s.studentBadges {
		if sb.StudentID == studentID && sb.BadgeID == badgeID {
			cp := *sb
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeStudentBadges) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.studentBadges[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.studentBadges, id)
	return nil
}

func (f fakeStudentBadges) ListByStudent(ctx context.Context, studentID uint) ([]models.StudentBadge, error) {
	out := []models.StudentBadge{}
	for _, id := range sortedIDs(f.s.studentBadges) {
		sb := *f.s.studentBadges[id]
		if sb.StudentID != studentID {
			continue
		}
		if b, ok := f.s.badges[sb.BadgeID]; ok {
			bc := *b
			sb.Badge = &bc
		}
		out = append(out, sb)
	}
	return out, nil
}

type fakeChallenges struct{ s *fakeStore }

func (f fakeChallenges) Create(ctx context.Context, c *models.Challenge) error {
	f.s.id(&c.ID)
	cp := *c
	cp.Participants = nil
	f.s.challenges[c.ID] = &cp
	return nil
}

func (f fakeChallenges) GetByID(ctx context.Context, id uint) (*models.Challenge, error) {
	c, ok := f.s.challenges[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	cp.ParticipantCount, _ = fakeParticipants{f.s}.CountByChallenge(ctx, id)
	return &cp, nil
}

func (f fakeChallenges) Update(ctx context.Context, c *models.Challenge) error {
	if _, ok := f.s.challenges[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *c
	cp.Participants = nil
	f.s.challenges[c.ID] = &cp
	return nil
}

func (f fakeChallenges) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.challenges[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.challenges, id)
	return nil
}

func (f fakeChallenges) List(ctx context.Context, filters repositories.ChallengeFilters) ([]*models.Challenge, int64, error) {
	var out []*models.Challenge
	for _, id := range sortedIDs(f.s.challenges) {
		c, _ := f.GetByID(ctx, id)
		if filters.IsActive != nil && c.IsActive != *filters.IsActive {
			continue
		}
		if filters.CreatedBy != nil && c.CreatedBy != *filters.CreatedBy {
			continue
		}
		out = append(out, c)
	}
	return window(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeChallenges) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, c := range f.s.challenges {
		if c.StatusAt(now) == models.ChallengeActive {
			n++
		}
	}
	return n, nil
}

type fakeParticipants struct{ s *fakeStore }

func (f fakeParticipants) Create(ctx context.Context, p *models.ChallengeParticipant) error {
	for _, existing := range f.s.participants {
		if existing.ChallengeID == p.ChallengeID && existing.StudentID == p.StudentID {
			return repositories.ErrDuplicate
		}
	}
	f.s.id(&p.ID)
	cp := *p
	cp.Challenge, cp.Student = nil, nil
	f.s.participants[p.ID] = &cp
	return nil
}

func (f fakeParticipants) GetByID(ctx context.Context, id uint) (*models.ChallengeParticipant, error) {
	p, ok := f.s.participants[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakeParticipants) Get(ctx context.Context, challengeID, studentID uint) (*models.ChallengeParticipant, error) {
	for _, p := range f.s.participants {
		if p.ChallengeID == challengeID && p.StudentID == studentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeParticipants) Update(ctx context.Context, p *models.ChallengeParticipant) error {
	if _, ok := f.s.participants[p.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *p
	cp.Challenge, cp.Student = nil, nil
	f.s.participants[p.ID] = &cp
	return nil
}

func (f fakeParticipants) UpdateFromStatus(ctx context.Context, p *models.ChallengeParticipant, from models.ParticipantStatus) error {
	f.s.runBeforeGuardedWrite()
	current, ok := f.s.participants[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if current.Status != from {
		return repositories.ErrStale
	}
	return f.Update(ctx, p)
}

func (f fakeParticipants) ListByChallenge(ctx context.Context, challengeID uint, status *models.ParticipantStatus) ([]*models.ChallengeParticipant, error) {
	var out []*models.ChallengeParticipant
	for _, id := range sortedIDs(f.s.participants) {
		p := *f.s.participants[id]
		if p.ChallengeID != challengeID || (status != nil && p.Status != *status) {
			continue
		}
		if st, ok := f.s.students[p.StudentID]; ok {
			sc := *st
			p.Student = &sc
		}
		out = append(out, &p)
	}
	return out, nil
}

func (f fakeParticipants) ListByStudent(ctx context.Context, studentID uint) ([]*models.ChallengeParticipant, error) {
	var out []*models.ChallengeParticipant
	for _, id := range sortedIDs(f.s.participants) {
		p := *f.s.participants[id]
		if p.StudentID != studentID {
			continue
		}
		if c, ok := f.s.challenges[p.ChallengeID]; ok {
			cc := *c
			p.Challenge = &cc
		}
		out = append(out, &p)
	}
	return out, nil
}

func (f fakeParticipants) CountByChallenge(ctx context.Context, challengeID uint) (int64, error) {
	var n int64
	for _, p := range f.s.participants {
		if p.ChallengeID == challengeID {
			n++
		}
	}
	return n, nil
}

// ===== QUESTION BANK, FEED, DASHBOARD =====

type fakeQuestions struct{ s *fakeStore }

func (f fakeQuestions) Create(ctx context.Context, q *models.Question) error {
	f.s.id(&q.ID)
	cp := *q
	f.s.questions[q.ID] = &cp
	return nil
}

func (f fakeQuestions) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	q, ok := f.s.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (f fakeQuestions) Update(ctx context.Context, q *models.Question) error {
	if _, ok := f.s.questions[q.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *q
	f.s.questions[q.ID] = &cp
	return nil
}

func (f fakeQuestions) Delete(ctx context.Context, id uint) error {
	if _, ok := f.s.questions[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.questions, id)
	return nil
}

func (f fakeQuestions) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var out []*models.Question
	for _, id := range sortedIDs(f.s.questions) {
		q := *f.s.questions[id]
		if filters.CreatedBy != nil && q.CreatedBy != *filters.CreatedBy {
			continue
		}
		if filters.Type != nil && q.Type != *filters.Type {
			continue
		}
		out = append(out, &q)
	}
	return window(out, filters.Limit, filters.Offset), int64(len(out)), nil
}

func (f fakeQuestions) GetRandomQuestions(ctx context.Context, filters repositories.RandomQuestionFilters) ([]*models.Question, error) {
	var out []*models.Question
	for _, id := range sortedIDs(f.s.questions) {
		q := *f.s.questions[id]
		if containsUint(filters.ExcludeIDs, id) || (filters.CreatedBy != nil && q.CreatedBy != *filters.CreatedBy) {
			continue
		}
		out = append(out, &q)
	}
	return window(out, filters.Count, 0), nil
}

type fakeActivities struct{ s *fakeStore }

func (f fakeActivities) Create(ctx context.Context, a *models.Activity) error {
	f.s.id(&a.ID)
	f.s.activities = append(f.s.activities, *a)
	return nil
}

func (f fakeActivities) ListRecent(ctx context.Context, filters repositories.ActivityFilters) ([]models.Activity, error) {
	var out []models.Activity
	for i := len(f.s.activities) - 1; i >= 0; i-- {
		a := f.s.activities[i]
		if filters.UserID != nil && a.UserID != *filters.UserID {
			continue
		}
		if filters.StudentID != nil && (a.StudentID == nil || *a.StudentID != *filters.StudentID) {
			continue
		}
		out = append(out, a)
	}
	return window(out, filters.Limit, 0), nil
}

type fakeDashboard struct{ s *fakeStore }

func (f fakeDashboard) GetStats(ctx context.Context, scope repositories.DashboardScope) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{TotalSubjects: int64(len(f.s.subjects))}
	for _, st := range f.s.students {
		if scope.ClassIDs == nil || (st.ClassID != nil && containsUint(scope.ClassIDs, *st.ClassID)) {
			stats.TotalStudents++
		}
	}
	for id := range f.s.classes {
		if scope.ClassIDs == nil || containsUint(scope.ClassIDs, id) {
			stats.TotalClasses++
		}
	}
	for _, a := range f.s.assignments {
		if scope.TeacherID == nil || a.TeacherID == *scope.TeacherID {
			stats.TotalAssignments++
		}
	}
	stats.ActiveChallenges, _ = fakeChallenges{f.s}.CountActive(ctx, scope.Now)
	return stats, nil
}

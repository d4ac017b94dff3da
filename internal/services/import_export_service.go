package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/guru-digital-pelangi/pelangi-service/internal/models"
)

const (
	recapSheet       = "Rekap Nilai"
	leaderboardSheet = "Leaderboard"
	importMaxRows    = 500
)

type importExportService struct {
	serviceBase
	access AccessPolicy
	xp     XPService
}

func NewImportExportService(deps Dependencies, access AccessPolicy, xp XPService) ImportExportService {
	return &importExportService{serviceBase: newServiceBase(deps), access: access, xp: xp}
}

// ExportClassGradeRecap writes one row per student with the average of every
// active class subject followed by the overall average.
func (s *importExportService) ExportClassGradeRecap(ctx context.Context, p models.Principal, classID uint, w io.Writer) error {
	class, err := s.repo.Class().GetByID(ctx, classID)
	if err != nil {
		return notFoundOr(err, ErrClassNotFound, "get class")
	}
	if err := s.access.CheckClassAccess(ctx, p, classID); err != nil {
		return err
	}

	classSubjects, err := s.repo.ClassSubject().ListByClass(ctx, classID)
	if err != nil {
		return fmt.Errorf("failed to list class subjects: %w", err)
	}
	var subjects []*models.Subject
	for _, cs := range classSubjects {
		if cs.IsActive && cs.Subject != nil {
			subjects = append(subjects, cs.Subject)
		}
	}
	students, err := s.repo.Student().ListByClass(ctx, classID)
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", recapSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"No", "NISN", "Nama"}
	for _, subject := range subjects {
		header = append(header, subject.Name)
	}
	header = append(header, "Rata-rata")
	if err := writeHeader(f, recapSheet, header); err != nil {
		return err
	}

	for i, student := range students {
		recap, err := s.repo.Grade().AveragesBySubject(ctx, student.ID)
		if err != nil {
			return fmt.Errorf("failed to average grades: %w", err)
		}
		averages := make(map[uint]float64, len(recap))
		for _, r := range recap {
			averages[r.SubjectID] = r.Average
		}

		row := []interface{}{i + 1, student.StudentID, student.FullName}
		var sum float64
		var counted int
		for _, subject := range subjects {
			avg, ok := averages[subject.ID]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, round1(avg))
			sum += avg
			counted++
		}
		if counted > 0 {
			row = append(row, round1(sum/float64(counted)))
		} else {
			row = append(row, "-")
		}
		if err := writeRow(f, recapSheet, i+2, row); err != nil {
			return err
		}
	}

	s.logger.Info("Exported grade recap", "class_id", classID, "class", class.Name, "students", len(students))
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (s *importExportService) ExportLeaderboard(ctx context.Context, limit int, classID *uint, w io.Writer) error {
	entries, err := s.xp.Leaderboard(ctx, limit, classID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", leaderboardSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeHeader(f, leaderboardSheet, []interface{}{"Peringkat", "Nama", "Kelas", "Total XP", "Level", "Nama Level"}); err != nil {
		return err
	}
	for i, e := range entries {
		row := []interface{}{e.Rank, e.FullName, e.ClassName, e.TotalXP, e.Level, e.LevelName}
		if err := writeRow(f, leaderboardSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ImportStudents reads NISN, full name and gender from the first sheet, skipping
// the header row. Every row is created on its own; failures are tallied by row.
func (s *importExportService) ImportStudents(ctx context.Context, p models.Principal, classID uint, r io.Reader) (*models.BulkOperationResult, error) {
	if err := requireAdmin(p, "student", "import"); err != nil {
		return nil, err
	}
	if _, err := s.repo.Class().GetByID(ctx, classID); err != nil {
		return nil, notFoundOr(err, ErrClassNotFound, "get class")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, NewValidationError("file", "not a readable xlsx workbook", nil)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) > importMaxRows+1 {
		return nil, NewValidationError("file", fmt.Sprintf("at most %d students per import", importMaxRows), len(rows)-1)
	}

	result := &models.BulkOperationResult{}
	for i, row := range rows {
		if i == 0 || blankRow(row) {
			continue
		}
		rowNumber := i + 1

		req := &models.StudentCreateRequest{
			StudentID: cell(row, 0),
			FullName:  cell(row, 1),
			ClassID:   &classID,
		}
		if g := normalizeGender(cell(row, 2)); g != "" {
			req.Gender = &g
		}
		if err := s.validate(req); err != nil {
			result.FailRow(rowNumber, err)
			continue
		}

		student := &models.Student{
			StudentID: req.StudentID,
			FullName:  req.FullName,
			Gender:    req.Gender,
			ClassID:   req.ClassID,
			Status:    models.StudentActive,
		}
		if err := createStudentWithXP(ctx, s.repo, student); err != nil {
			result.FailRow(rowNumber, err)
			continue
		}
		result.Succeed()
	}

	if result.Successful > 0 {
		s.invalidateStats(ctx)
	}
	s.logger.Info("Imported students", "class_id", classID,
		"successful", result.Successful, "failed", result.Failed, "total", result.Total)
	return result, nil
}

// ===== HELPERS =====

func writeHeader(f *excelize.File, sheet string, header []interface{}) error {
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("failed to resolve header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNumber int, values []interface{}) error {
	start, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return fmt.Errorf("failed to resolve row %d: %w", rowNumber, err)
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNumber, err)
	}
	return nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func normalizeGender(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "L", "LAKI-LAKI", "LAKI LAKI":
		return "L"
	case "P", "PEREMPUAN":
		return "P"
	}
	return strings.ToUpper(strings.TrimSpace(v))
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

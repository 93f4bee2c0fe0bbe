// export.go — выгрузка записей обслуживания компании в XLSX или CSV.
package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

// Форматы выгрузки.
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
)

// exportPageSize — размер страницы при чтении записей для выгрузки.
const exportPageSize = 500

const exportSheet = "Service Records"

var exportHeaders = []string{
	"Certificate Number", "Service Date", "Retest Date", "Status", "Certificate Status",
	"Engineer", "Equipment", "Notes",
}

// ExportService формирует файлы выгрузки.
type ExportService struct {
	records   *ServiceRecordService
	companies repository.CompanyRepository
}

// NewExportService создаёт сервис выгрузки.
func NewExportService(records *ServiceRecordService, companies repository.CompanyRepository) *ExportService {
	return &ExportService{records: records, companies: companies}
}

// ExportResult — метаданные сформированного файла.
type ExportResult struct {
	Filename    string
	ContentType string
	Rows        int
}

// ContentTypeFor возвращает MIME-тип формата.
func ContentTypeFor(format string) string {
	if format == ExportFormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Export читает все записи компании и пишет файл в w.
func (s *ExportService) Export(ctx context.Context, actor rbac.Subject, companyID, format string, w io.Writer) (*ExportResult, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatXLSX && format != ExportFormatCSV {
		return nil, validationf("format должен быть xlsx или csv")
	}
	if !rbac.CanAccess(actor, rbac.ActionRead, companyID) {
		return nil, ErrForbidden
	}
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	rows, err := s.collect(ctx, actor, companyID)
	if err != nil {
		return nil, err
	}

	switch format {
	case ExportFormatXLSX:
		err = writeXLSX(w, rows)
	default:
		err = writeCSV(w, rows)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования файла: %w", err)
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("%s-service-records.%s", slugify(company.Name), format),
		ContentType: ContentTypeFor(format),
		Rows:        len(rows),
	}, nil
}

func (s *ExportService) collect(ctx context.Context, actor rbac.Subject, companyID string) ([][]string, error) {
	now := s.records.now()
	var out [][]string
	for offset := 0; ; offset += exportPageSize {
		page, _, err := s.records.List(ctx, actor, companyID, repository.Page{Limit: exportPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, rec := range page {
			out = append(out, exportRow(rec, now, s.records.dueWindow))
		}
		if len(page) < exportPageSize {
			return out, nil
		}
	}
}

func exportRow(rec *model.ServiceRecord, now time.Time, window time.Duration) []string {
	status, _ := retest.Status(rec.RetestDate, now, window)
	var equipment []string
	for _, l := range rec.Equipment {
		if l.Empty() {
			continue
		}
		item := deref(l.Name)
		if sn := deref(l.Serial); sn != "" {
			item += " (" + sn + ")"
		}
		equipment = append(equipment, strings.TrimSpace(item))
	}
	return []string{
		deref(rec.CertificateNumber),
		rec.ServiceDate.Format(retest.DateLayout),
		rec.RetestDate.Format(retest.DateLayout),
		deref(rec.Status),
		status,
		deref(rec.EngineerName),
		strings.Join(equipment, "; "),
		deref(rec.Notes),
	}
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
	}
	last, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetColWidth(exportSheet, "A", last, 18); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// slugify приводит название компании к виду, пригодному для имени файла.
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "company"
	}
	return out
}

package services

import (
	"bytes"
	"fmt"

	"agency_site_go/models"
	"agency_site_go/services/i18n"

	"github.com/xuri/excelize/v2"
)

// exportColumn is one spreadsheet column: an i18n header key and a getter.
type exportColumn struct {
	header string
	value  func(models.Submission) any
}

func leadColumn(header string, get func(*models.Lead) any) exportColumn {
	return exportColumn{header: header, value: func(s models.Submission) any { return get(s.Base()) }}
}

func exportColumns(kind models.LeadKind, lang string) []exportColumn {
	label := func(prefix, v string) string {
		if v == "" {
			return ""
		}
		return i18n.Translate(lang, prefix+v)
	}

	cols := []exportColumn{
		leadColumn("admin.created", func(l *models.Lead) any { return l.CreatedAt.Format("2006-01-02 15:04") }),
		leadColumn("form.name", func(l *models.Lead) any { return l.Name }),
		leadColumn("form.email", func(l *models.Lead) any { return l.Email }),
		leadColumn("form.phone", func(l *models.Lead) any { return l.Phone }),
		leadColumn("admin.status", func(l *models.Lead) any { return i18n.Translate(lang, "status."+l.Status) }),
		leadColumn("admin.locale", func(l *models.Lead) any { return l.Locale }),
	}

	switch kind {
	case models.LeadKindContact:
		cols = append(cols,
			exportColumn{"form.company", func(s models.Submission) any { return s.(*models.ContactMessage).Company }},
		)
	case models.LeadKindConsultation:
		cols = append(cols,
			exportColumn{"form.company", func(s models.Submission) any { return s.(*models.ConsultationRequest).Company }},
			exportColumn{"form.website", func(s models.Submission) any { return s.(*models.ConsultationRequest).Website }},
			exportColumn{"form.topic", func(s models.Submission) any { return s.(*models.ConsultationRequest).Topic }},
			exportColumn{"form.preferred_date", func(s models.Submission) any {
				if d := s.(*models.ConsultationRequest).PreferredDate; d != nil {
					return d.Format("2006-01-02")
				}
				return ""
			}},
			exportColumn{"form.preferred_contact", func(s models.Submission) any {
				return label("form.contact_options.", s.(*models.ConsultationRequest).PreferredContact)
			}},
		)
	case models.LeadKindInquiry:
		cols = append(cols,
			exportColumn{"form.service", func(s models.Submission) any { return label("services.", s.(*models.ServiceInquiry).Service) }},
			exportColumn{"form.company", func(s models.Submission) any { return s.(*models.ServiceInquiry).Company }},
			exportColumn{"form.budget", func(s models.Submission) any { return label("form.budget_options.", s.(*models.ServiceInquiry).Budget) }},
			exportColumn{"form.timeline", func(s models.Submission) any {
				return label("form.timeline_options.", s.(*models.ServiceInquiry).Timeline)
			}},
			exportColumn{"admin.attachment", func(s models.Submission) any { return s.(*models.ServiceInquiry).FileOriginalName }},
		)
	}

	return append(cols, leadColumn("form.message", func(l *models.Lead) any { return l.Message }))
}

// ExportLeadsXLSX writes submissions of one kind to a single-sheet workbook
// with localized headers.
func ExportLeadsXLSX(kind models.LeadKind, subs []models.Submission, lang string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := i18n.Translate(lang, "kind."+string(kind))
	if r := []rune(sheet); len(r) > 31 {
		sheet = string(r[:31])
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	cols := exportColumns(kind, lang)
	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, i18n.Translate(lang, col.header))
	}
	for r, sub := range subs {
		if sub.Kind() != kind {
			return nil, fmt.Errorf("cannot export %s in a %s sheet", sub.Kind(), kind)
		}
		for c, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, col.value(sub))
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)
	f.SetColWidth(sheet, "A", lastCol, 20)
	f.SetColWidth(sheet, lastCol, lastCol, 60)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: false, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

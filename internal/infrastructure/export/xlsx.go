// Package export renders pay statements as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/money"
)

const (
	// ContentTypeXLSX is the media type of the workbook
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxSheetName = 31
	headerRow    = 4
)

var columns = []struct {
	title string
	width float64
}{
	{"No", 5},
	{"Date", 12},
	{"Type", 11},
	{"Category", 11},
	{"Description", 32},
	{"Detail", 28},
	{"Card", 18},
	{"Pay", 12},
}

var sheetNameCleaner = strings.NewReplacer(
	"[", "", "]", "", ":", "", "*", "", "?", "", "/", "-", "\\", "-",
)

// XLSXWriter writes one worksheet per statement, plus a summary sheet
// when more than one statement is exported.
type XLSXWriter struct {
	summarySheet string
	logger       *zap.Logger
}

// NewXLSXWriter creates an excelize backed port.StatementWriter
func NewXLSXWriter(summarySheet string, logger *zap.Logger) *XLSXWriter {
	if summarySheet == "" {
		summarySheet = "Summary"
	}
	return &XLSXWriter{summarySheet: summarySheet, logger: logger}
}

func (x *XLSXWriter) ContentType() string { return ContentTypeXLSX }
func (x *XLSXWriter) Extension() string   { return ".xlsx" }

// Write renders statements into a workbook on w
func (x *XLSXWriter) Write(w io.Writer, statements []port.Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	// excelize starts with a default sheet. The summary takes it over when
	// there is one, otherwise the first statement does.
	defaultSheet := f.GetSheetName(0)
	withSummary := len(statements) != 1
	if withSummary {
		if err := f.SetSheetName(defaultSheet, x.summarySheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	used := map[string]bool{strings.ToLower(x.summarySheet): withSummary}
	names := make([]string, len(statements))
	for i, st := range statements {
		name := uniqueSheetName(fmt.Sprintf("%s %s", st.Claim.Period, st.Claim.OwnerID), used)
		names[i] = name
		if !withSummary {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := x.writeStatement(f, name, st, styles); err != nil {
			return fmt.Errorf("failed to write statement for claim %d: %w", st.Claim.ID, err)
		}
	}

	if len(statements) > 1 {
		if err := x.writeSummary(f, statements, names, styles); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	x.logger.Info("Statements exported", zap.Int("statement_count", len(statements)))
	return nil
}

type styleSet struct {
	header int
	number int
	total  int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}

	// built-in format 3 is #,##0
	s.number, err = f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return s, fmt.Errorf("failed to create number style: %w", err)
	}

	s.total, err = f.NewStyle(&excelize.Style{NumFmt: 3, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return s, fmt.Errorf("failed to create total style: %w", err)
	}
	return s, nil
}

func (x *XLSXWriter) writeStatement(f *excelize.File, sheet string, st port.Statement, styles styleSet) error {
	claim := st.Claim
	checked := "no"
	if claim.ManagerChecked {
		checked = "yes"
	}

	head := [][]interface{}{
		{st.CompanyName},
		{"Period", claim.Period.String(), "Employee", claim.OwnerID, "Status", string(claim.Status), "Checked", checked},
		{"Memo", claim.Memo},
	}
	for i, values := range head {
		if err := f.SetSheetRow(sheet, cell(1, i+1), &values); err != nil {
			return err
		}
	}

	titles := make([]interface{}, len(columns))
	for i, c := range columns {
		titles[i] = c.title
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, c.width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(sheet, cell(1, headerRow), &titles); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(1, headerRow), cell(len(columns), headerRow), styles.header); err != nil {
		return err
	}

	r := headerRow + 1
	for i, row := range claim.Rows {
		var pay int64
		if i < len(st.Summary.Pays) {
			pay = st.Summary.Pays[i]
		}
		values := []interface{}{
			i + 1,
			row.Date,
			string(row.Type),
			string(row.Category),
			row.Description,
			detail(row),
			cardName(row, st.CardNames),
			pay,
		}
		if err := f.SetSheetRow(sheet, cell(1, r), &values); err != nil {
			return err
		}
		r++
	}
	if r > headerRow+1 {
		if err := f.SetCellStyle(sheet, cell(len(columns), headerRow+1), cell(len(columns), r-1), styles.number); err != nil {
			return err
		}
	}

	r++
	for _, cat := range categoryOrder {
		amount, ok := st.Summary.ByCategory[cat]
		if !ok {
			continue
		}
		if err := setPair(f, sheet, r, string(cat), amount, styles.number); err != nil {
			return err
		}
		r++
	}
	return setPair(f, sheet, r, "Total", st.Summary.Total, styles.total)
}

func (x *XLSXWriter) writeSummary(f *excelize.File, statements []port.Statement, names []string, styles styleSet) error {
	sheet := x.summarySheet

	titles := []interface{}{"Employee", "Period", "Status", "Checked", "Rows", "Total", "Sheet"}
	if err := f.SetSheetRow(sheet, cell(1, 1), &titles); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(1, 1), cell(len(titles), 1), styles.header); err != nil {
		return err
	}

	var grand int64
	for i, st := range statements {
		values := []interface{}{
			st.Claim.OwnerID,
			st.Claim.Period.String(),
			string(st.Claim.Status),
			st.Claim.ManagerChecked,
			len(st.Claim.Rows),
			st.Summary.Total,
			names[i],
		}
		if err := f.SetSheetRow(sheet, cell(1, i+2), &values); err != nil {
			return err
		}
		grand += st.Summary.Total
	}

	last := len(statements) + 1
	if err := f.SetCellStyle(sheet, cell(6, 2), cell(6, last), styles.number); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell(5, last+1), "Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell(6, last+1), grand); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell(6, last+1), cell(6, last+1), styles.total)
}

var categoryOrder = []entity.Category{
	entity.CategoryLunch,
	entity.CategoryDinner,
	entity.CategoryParty,
	entity.CategoryMeeting,
	entity.CategoryUtility,
	entity.CategoryFuel,
	entity.CategoryEtc,
}

func setPair(f *excelize.File, sheet string, row int, label string, amount int64, style int) error {
	col := len(columns)
	if err := f.SetCellValue(sheet, cell(col-1, row), label); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell(col, row), amount); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell(col, row), cell(col, row), style)
}

func detail(row entity.ExpenseRow) string {
	switch row.Type {
	case entity.RowTypeFuel:
		s := fmt.Sprintf("%s %s km", row.FuelType, row.Distance)
		if toll := money.Parse(row.TollFee); toll > 0 {
			s += fmt.Sprintf(", toll %s", money.Format(toll))
		}
		return s
	case entity.RowTypeCorporate:
		return row.Merchant
	default:
		s := money.Format(money.Parse(row.Amount))
		if row.People > 0 {
			s += fmt.Sprintf(" / %d people", row.People)
		}
		return s
	}
}

func cardName(row entity.ExpenseRow, names map[string]string) string {
	if row.CorporateCardID == "" {
		return ""
	}
	if name, ok := names[row.CorporateCardID]; ok && name != "" {
		return name
	}
	return row.CorporateCardID
}

func uniqueSheetName(base string, used map[string]bool) string {
	base = truncate(strings.TrimSpace(sheetNameCleaner.Replace(base)), maxSheetName)
	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

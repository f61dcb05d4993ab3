package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"plazabi/internal/core"
)

// utf8BOM keeps spreadsheet tools from mangling accented headers.
const utf8BOM = "\uFEFF"

var recordHeaders = []string{"ID", "Data", "Praça", "Categoria", "Detalhes"}

// RecordsCSV renders the history export: semicolon-separated, BOM-prefixed,
// one row per record in the order given. The category column carries the
// exported tab, not each record's own kind, matching the dashboard export.
// Free text that contains the separator or line breaks comes out quoted.
func RecordsCSV(records []core.Record, category core.Category) []byte {
	var b bytes.Buffer
	b.WriteString(utf8BOM)

	w := csv.NewWriter(&b)
	w.Comma = ';'
	w.Write(recordHeaders)
	for _, r := range records {
		w.Write([]string{r.ID, r.Date, r.PlazaName, string(category), r.Observations})
	}
	w.Flush()
	return b.Bytes()
}

// Filename names the export after the tab and moment it was taken.
func Filename(category core.Category, now time.Time) string {
	return fmt.Sprintf("historico_%s_%s.csv", category, now.UTC().Format(time.RFC3339))
}

// ParseEmployeesCSV reads a roster import. The separator is sniffed from the
// header line, quotes are stripped, short rows are skipped and the status
// column defaults to active.
func ParseEmployeesCSV(data []byte, now time.Time) []core.Employee {
	lines := strings.Split(strings.TrimPrefix(string(data), utf8BOM), "\n")
	if len(lines) == 0 {
		return nil
	}

	separator := ","
	if strings.Contains(lines[0], ";") {
		separator = ";"
	}

	var employees []core.Employee
	for i, line := range lines[1:] {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		cols := strings.Split(line, separator)
		if len(cols) < 6 {
			continue
		}
		for j := range cols {
			cols[j] = strings.Trim(strings.TrimSpace(cols[j]), `"`)
		}

		gender := "M"
		if strings.EqualFold(cols[4], "F") {
			gender = "F"
		}
		status := core.EmployeeActive
		if len(cols) > 6 && cols[6] != "" {
			status = cols[6]
		}
		employees = append(employees, core.Employee{
			ID:             fmt.Sprintf("imp-%d-%d", now.UnixMilli(), i+1),
			RegistrationID: cols[0],
			Name:           cols[1],
			Role:           cols[2],
			Plaza:          cols[3],
			Gender:         gender,
			AdmissionDate:  cols[5],
			Status:         status,
		})
	}
	return employees
}

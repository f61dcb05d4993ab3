package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"plazabi/internal/core"
)

func TestRecordsCSV(t *testing.T) {
	records := []core.Record{
		{ID: "a", Date: "2025-12-01", PlazaName: "PP1", Observations: "tudo ok"},
		{ID: "b", Date: "2025-12-02", PlazaName: "PP5", Observations: "linha;com\nquebra"},
	}
	got := string(RecordsCSV(records, core.CategorySafety))

	if !strings.HasPrefix(got, "\uFEFF") {
		t.Error("missing BOM prefix")
	}
	lines := strings.SplitN(strings.TrimPrefix(got, "\uFEFF"), "\n", 3)
	if lines[0] != "ID;Data;Praça;Categoria;Detalhes" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "a;2025-12-01;PP1;safety;tudo ok" {
		t.Errorf("row = %q", lines[1])
	}

	// Free text with the separator or line breaks comes out quoted, so the
	// row structure survives a round trip.
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(got, "\uFEFF")))
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[2][4] != "linha;com\nquebra" {
		t.Errorf("quoted field = %q", rows[2][4])
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 12, 15, 10, 30, 0, 0, time.UTC)
	got := Filename(core.CategoryOperational, now)
	if got != "historico_operational_2025-12-15T10:30:00Z.csv" {
		t.Errorf("filename = %q", got)
	}
}

func TestParseEmployeesCSV(t *testing.T) {
	now := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	csv := "Matrícula;Nome;Cargo;Praça;Gênero;Admissão;Status\n" +
		`"2024010";"Ana Souza";Operadora;PP2;F;2024-01-10;Ativo` + "\r\n" +
		"2024011;Bruno Costa;Segurança;PP6;m;2024-02-01\n" +
		"curta;linha\n" +
		"\n"

	got := ParseEmployeesCSV([]byte(csv), now)
	if len(got) != 2 {
		t.Fatalf("parsed = %d employees, want 2", len(got))
	}
	if got[0].Name != "Ana Souza" || got[0].Gender != "F" || got[0].Status != "Ativo" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Gender != "M" || got[1].Status != core.EmployeeActive {
		t.Errorf("defaults = %+v", got[1])
	}
	if !strings.HasPrefix(got[0].ID, "imp-") {
		t.Errorf("id = %q", got[0].ID)
	}
}

func TestParseEmployeesCSVCommaSeparator(t *testing.T) {
	csv := "reg,name,role,plaza,gender,admission\n1,N,R,PP1,F,2024-01-01\n"
	got := ParseEmployeesCSV([]byte(csv), time.Now())
	if len(got) != 1 || got[0].Plaza != "PP1" {
		t.Fatalf("parsed = %+v", got)
	}
}

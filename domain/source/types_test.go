package source

import (
	"testing"
)

func TestKindForPath(t *testing.T) {
	cases := []struct {
		path string
		kind FileKind
		ok   bool
	}{
		{"clients.xlsx", KindExcel, true},
		{"/data/VENDAS_2024.XLSX", KindExcel, true},
		{"macro.xlsm", KindExcel, true},
		{"old-export.xls", KindLegacy, true},
		{"itens.csv", KindCSV, true},
		{"notes.txt", "", false},
		{"README", "", false},
	}

	for _, tc := range cases {
		kind, ok := KindForPath(tc.path)
		if ok != tc.ok || kind != tc.kind {
			t.Errorf("KindForPath(%q) = (%q, %v), want (%q, %v)", tc.path, kind, ok, tc.kind, tc.ok)
		}
	}
}

func TestRawRowIsBlank(t *testing.T) {
	blank := RawRow{Cells: []string{"", "  ", "\t"}}
	if !blank.IsBlank() {
		t.Error("Expected all-whitespace row to be blank")
	}

	filled := RawRow{Cells: []string{"", "x"}}
	if filled.IsBlank() {
		t.Error("Expected row with content to not be blank")
	}

	empty := RawRow{}
	if !empty.IsBlank() {
		t.Error("Expected zero-cell row to be blank")
	}
}

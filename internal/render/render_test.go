package render

import (
	"bytes"
	"strings"
	"testing"
)

type table struct{}

func (table) Headers() []string { return []string{"ID", "NAME"} }
func (table) Rows() [][]string  { return [][]string{{"a", "alpha"}, {"long-id", "b"}} }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"tsv", FormatTSV, false},
		{"ndjson", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	data := map[string]int{"boards": 2}
	tests := []struct {
		format Format
		want   string
	}{
		{FormatTable, "ID       NAME\n-------  -----\na        alpha\nlong-id  b\n"},
		{FormatTSV, "ID\tNAME\na\talpha\nlong-id\tb\n"},
		{FormatJSON, "{\n  \"boards\": 2\n}\n"},
		{FormatYAML, "boards: 2\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewRenderer(&buf, Options{Format: tt.format}).Render(data, table{}); err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Render() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestRenderTable_EmptyAndPorcelain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{Format: FormatTable})
	if err := r.RenderTable([]string{"A"}, nil); err != nil || buf.Len() != 0 {
		t.Fatalf("empty table wrote %q, err %v", buf.String(), err)
	}

	r = NewRenderer(&buf, Options{Format: FormatTable, Porcelain: true})
	if err := r.RenderTable(table{}.Headers(), table{}.Rows()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "ID\tNAME\n") {
		t.Errorf("porcelain table = %q", buf.String())
	}
}

func TestHours(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{0.75, "45m"},
		{2, "2h"},
		{1.5, "1h 30m"},
	}
	for _, tt := range tests {
		if got := Hours(tt.in); got != tt.want {
			t.Errorf("Hours(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

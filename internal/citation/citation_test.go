package citation

import "testing"

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare doi",
			input: "10.1000/xyz123",
			want:  "10.1000/xyz123",
		},
		{
			name:  "https url prefix",
			input: "https://doi.org/10.1000/XYZ123",
			want:  "10.1000/xyz123",
		},
		{
			name:  "http url prefix",
			input: "http://doi.org/10.1000/xyz123",
			want:  "10.1000/xyz123",
		},
		{
			name:  "bare host prefix",
			input: "doi.org/10.1000/xyz123",
			want:  "10.1000/xyz123",
		},
		{
			name:  "doi scheme prefix",
			input: "DOI:10.1000/xyz123",
			want:  "10.1000/xyz123",
		},
		{
			name:  "surrounding whitespace",
			input: "  10.1000/xyz123  ",
			want:  "10.1000/xyz123",
		},
		{
			name:  "uppercase suffix folds",
			input: "10.1234/ABC.DEF",
			want:  "10.1234/abc.def",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDOI(tt.input); got != tt.want {
				t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFirstAuthor(t *testing.T) {
	rec := Record{Authors: []string{"Smith, J.", "Doe, A."}}
	if got := rec.FirstAuthor(); got != "Smith, J." {
		t.Errorf("FirstAuthor() = %q, want %q", got, "Smith, J.")
	}
	if got := (Record{}).FirstAuthor(); got != "" {
		t.Errorf("FirstAuthor() on empty record = %q, want empty", got)
	}
}

func TestHasIdentifier(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{name: "doi only", rec: Record{DOI: "10.1000/xyz"}, want: true},
		{name: "url only", rec: Record{URL: "https://example.com/paper"}, want: true},
		{name: "neither", rec: Record{Title: "A Study of Things"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.HasIdentifier(); got != tt.want {
				t.Errorf("HasIdentifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

package render

import (
	"testing"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"svg", FormatSVG, false},
		{"PNG", FormatPNG, false},
		{".pdf", FormatPDF, false},
		{"dot", FormatDOT, false},
		{"gif", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !rerrors.Is(err, rerrors.ErrCodeUnsupported) {
				t.Errorf("err code = %s", rerrors.GetCode(err))
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	tests := map[Format]string{
		FormatSVG: "image/svg+xml",
		FormatPNG: "image/png",
		FormatPDF: "application/pdf",
		FormatDOT: "text/vnd.graphviz",
	}
	for f, want := range tests {
		if got := f.ContentType(); got != want {
			t.Errorf("%s.ContentType() = %q, want %q", f, got, want)
		}
	}
}

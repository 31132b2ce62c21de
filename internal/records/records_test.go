package records

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/solatis/stemkeeper/internal/stock"
	"github.com/solatis/stemkeeper/internal/types"
)

func TestParseDesign(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Recipe
	}{
		{
			name:  "single species",
			input: "AS6a4",
			want: types.Recipe{Name: 'A', Size: types.Small, Total: 4,
				Allotments: []types.Allotment{{Species: 0, Max: 6}}},
		},
		{
			name:  "trailing number is the total",
			input: "BS9a2b9",
			want: types.Recipe{Name: 'B', Size: types.Small, Total: 9,
				Allotments: []types.Allotment{{Species: 0, Max: 9}, {Species: 1, Max: 2}}},
		},
		{
			name:  "large with multi digit counts",
			input: "ZL10z12c20",
			want: types.Recipe{Name: 'Z', Size: types.Large, Total: 20,
				Allotments: []types.Allotment{{Species: 25, Max: 10}, {Species: 2, Max: 12}}},
		},
		{
			name:  "no species",
			input: "QL0",
			want:  types.Recipe{Name: 'Q', Size: types.Large, Total: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDesign(tt.input)
			if err != nil {
				t.Fatalf("ParseDesign(%q) error = %v, want nil", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDesign(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDesign_Errors(t *testing.T) {
	tests := []struct {
		input      string
		wantErr    error
		wantOffset int
	}{
		{"", types.ErrEmptyRecord, 0},
		{"aS6a4", types.ErrInvalidDesignName, 0},
		{"A", types.ErrInvalidSize, 1},
		{"AM6a4", types.ErrInvalidSize, 1},
		{"AS6A4", types.ErrInvalidSpecies, 3},
		{"AS6a4x", types.ErrTrailingInput, 5},
		{"AS6a2b4c", types.ErrTrailingInput, 7},
		{"AS6a4!", types.ErrInvalidSpecies, 5},
		{"ASa4", types.ErrMissingCount, 2},
		{"AS6a", types.ErrMissingTotal, 4},
		{"AS", types.ErrMissingTotal, 2},
		{"AS2a3a5", types.ErrDuplicateSpecies, 5},
		{"AS200a4", types.ErrCountOutOfRange, 2},
		{"AS2a128", types.ErrCountOutOfRange, 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseDesign(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseDesign(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("ParseDesign(%q) error type = %T, want *SyntaxError", tt.input, err)
			}
			if syntaxErr.Kind != KindDesign {
				t.Errorf("Kind = %v, want %v", syntaxErr.Kind, KindDesign)
			}
			if syntaxErr.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", syntaxErr.Offset, tt.wantOffset)
			}
		})
	}
}

func TestParseStem(t *testing.T) {
	stem, err := ParseStem("qL")
	if err != nil {
		t.Fatalf("ParseStem(qL) error = %v, want nil", err)
	}
	if want := (types.Stem{Species: 16, Size: types.Large}); stem != want {
		t.Errorf("ParseStem(qL) = %+v, want %+v", stem, want)
	}

	tests := []struct {
		input   string
		wantErr error
	}{
		{"", types.ErrEmptyRecord},
		{"a", types.ErrInvalidSize},
		{"aX", types.ErrInvalidSize},
		{"AS", types.ErrInvalidSpecies},
		{"aSS", types.ErrTrailingInput},
		{"aS ", types.ErrTrailingInput},
	}
	for _, tt := range tests {
		if _, err := ParseStem(tt.input); !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseStem(%q) error = %v, want %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestFormatBouquet(t *testing.T) {
	var b stock.Bouquet
	b.Design = 'B'
	b.Size = types.Small
	b.Stems[1] = 2
	b.Stems[0] = 7
	b.Stems[25] = 12

	if got := FormatBouquet(b); got != "BS7a2b12z" {
		t.Errorf("FormatBouquet() = %q, want %q", got, "BS7a2b12z")
	}
	if got := string(AppendBouquet([]byte("> "), b)); got != "> BS7a2b12z" {
		t.Errorf("AppendBouquet() = %q, want %q", got, "> BS7a2b12z")
	}
}

func TestFormatRecipe_RoundTrip(t *testing.T) {
	for _, in := range []string{"AS6a4", "BS9a2b9", "ZL10z12c20", "QL0"} {
		recipe, err := ParseDesign(in)
		if err != nil {
			t.Fatalf("ParseDesign(%q) error = %v, want nil", in, err)
		}
		if got := FormatRecipe(recipe); got != in {
			t.Errorf("FormatRecipe(ParseDesign(%q)) = %q", in, got)
		}
	}
}

func TestReader_Sections(t *testing.T) {
	input := "AS6a4\r\nBL9a2b9\n\naS\nbL\n\nignored\n"
	r := NewReader(strings.NewReader(input))

	if _, err := r.NextStem(); !errors.Is(err, ErrDesignsPending) {
		t.Fatalf("NextStem() before designs error = %v, want %v", err, ErrDesignsPending)
	}

	var names []string
	for {
		recipe, err := r.NextDesign()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextDesign() error = %v, want nil", err)
		}
		names = append(names, recipe.Name.String()+recipe.Size.String())
	}
	if want := []string{"AS", "BL"}; !reflect.DeepEqual(names, want) {
		t.Errorf("designs = %v, want %v", names, want)
	}

	var stems []types.Stem
	for {
		stem, err := r.NextStem()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextStem() error = %v, want nil", err)
		}
		stems = append(stems, stem)
	}
	want := []types.Stem{{Species: 0, Size: types.Small}, {Species: 1, Size: types.Large}}
	if !reflect.DeepEqual(stems, want) {
		t.Errorf("stems = %v, want %v", stems, want)
	}

	if _, err := r.NextStem(); err != io.EOF {
		t.Errorf("NextStem() after section error = %v, want EOF", err)
	}
	if _, err := r.NextDesign(); err != io.EOF {
		t.Errorf("NextDesign() after section error = %v, want EOF", err)
	}
}

func TestReader_EndOfInputEndsBothSections(t *testing.T) {
	r := NewReader(strings.NewReader("AS6a4"))
	if _, err := r.NextDesign(); err != nil {
		t.Fatalf("NextDesign() error = %v, want nil", err)
	}
	if _, err := r.NextDesign(); err != io.EOF {
		t.Fatalf("NextDesign() error = %v, want EOF", err)
	}
	if _, err := r.NextStem(); err != io.EOF {
		t.Fatalf("NextStem() error = %v, want EOF", err)
	}
}

func TestReader_ErrorCarriesLine(t *testing.T) {
	r := NewReader(strings.NewReader("AS6a4\nBS9\n\naS\naQ\n"))
	for i := 0; i < 2; i++ {
		if _, err := r.NextDesign(); err != nil {
			t.Fatalf("NextDesign() error = %v, want nil", err)
		}
	}
	if _, err := r.NextDesign(); err != io.EOF {
		t.Fatalf("NextDesign() error = %v, want EOF", err)
	}
	if _, err := r.NextStem(); err != nil {
		t.Fatalf("NextStem() error = %v, want nil", err)
	}

	_, err := r.NextStem()
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("NextStem() error = %v, want *SyntaxError", err)
	}
	if syntaxErr.Line != 5 {
		t.Errorf("Line = %d, want 5", syntaxErr.Line)
	}
	if syntaxErr.Kind != KindStem {
		t.Errorf("Kind = %v, want %v", syntaxErr.Kind, KindStem)
	}
	if !strings.Contains(err.Error(), "line 5") {
		t.Errorf("error %q does not name line 5", err.Error())
	}
	if !errors.Is(err, types.ErrInvalidSize) {
		t.Errorf("NextStem() error = %v, want %v", err, types.ErrInvalidSize)
	}
}

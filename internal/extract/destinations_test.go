package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDestinations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "server order kept",
			body: `<option value="">Pilih</option><option value="A">a</option><option value="C">c</option><option value="B">b</option>`,
			want: []string{"A", "C", "B"},
		},
		{
			name: "duplicates kept",
			body: `<option value="3">x</option><option value="3">x</option><option value="1">y</option>`,
			want: []string{"3", "3", "1"},
		},
		{
			name: "wrapped in select",
			body: "<select>\n<option value='7'>Makassar</option>\n<option value='12'>Bitung</option>\n</select>",
			want: []string{"7", "12"},
		},
		{
			name: "no options",
			body: `<p>Page Expired</p>`,
			want: []string{},
		},
		{
			name: "empty body",
			body: ``,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDestinations(tt.body)
			if err != nil {
				t.Fatalf("ParseDestinations failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJoinDestinations(t *testing.T) {
	if got := JoinDestinations([]string{"A", "C", "B"}); got != "A,C,B" {
		t.Errorf("Expected 'A,C,B', got '%s'", got)
	}
	if got := JoinDestinations(nil); got != "" {
		t.Errorf("Expected empty string, got '%s'", got)
	}
}

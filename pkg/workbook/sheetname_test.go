package workbook

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSheetNamer_Name(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "plain names",
			input: []string{"launches", "pads"},
			want:  []string{"launches", "pads"},
		},
		{
			name:  "truncated to limit",
			input: []string{"a_really_long_resource_name_that_overflows"},
			want:  []string{"a_really_long_resource_name_tha"},
		},
		{
			name: "collision after truncation",
			input: []string{
				"vehicle_configurations_by_provider_2023",
				"vehicle_configurations_by_provider_2024",
				"vehicle_configurations_by_provider_2025",
			},
			want: []string{
				"vehicle_configurations_by_provi",
				"vehicle_configurations_by_pro_2",
				"vehicle_configurations_by_pro_3",
			},
		},
		{
			name:  "case-insensitive collision",
			input: []string{"Tags", "tags"},
			want:  []string{"Tags", "tags_2"},
		},
		{
			name:  "invalid characters",
			input: []string{"a:b/c\\d?e*f[g]"},
			want:  []string{"a_b_c_d_e_f_g_"},
		},
		{
			name:  "quotes trimmed and empty fallback",
			input: []string{"'quoted'", "''"},
			want:  []string{"quoted", "Sheet"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			namer := NewSheetNamer()
			for i, in := range tt.input {
				got := namer.Name(in)
				if got != tt.want[i] {
					t.Errorf("Name(%q) = %q, want %q", in, got, tt.want[i])
				}
				if utf8.RuneCountInString(got) > MaxSheetNameLen {
					t.Errorf("Name(%q) = %q exceeds %d runes", in, got, MaxSheetNameLen)
				}
			}
		})
	}
}

func TestSheetNamer_MultibyteTruncation(t *testing.T) {
	namer := NewSheetNamer()
	got := namer.Name(strings.Repeat("é", 40))

	if utf8.RuneCountInString(got) != MaxSheetNameLen {
		t.Errorf("rune count = %d, want %d", utf8.RuneCountInString(got), MaxSheetNameLen)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
}

package workbook

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLen is the longest sheet name a workbook accepts.
const MaxSheetNameLen = 31

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// SheetNamer hands out unique, valid sheet names. Names are compared
// case-insensitively, as spreadsheet applications do.
type SheetNamer struct {
	used map[string]bool
}

// NewSheetNamer creates a namer with no names taken.
func NewSheetNamer() *SheetNamer {
	return &SheetNamer{used: make(map[string]bool)}
}

// Name returns the sheet name for a resource. Invalid characters become "_",
// the result is cut to MaxSheetNameLen runes, and a name already handed out
// gets a "_2", "_3", ... suffix within the same limit.
func (n *SheetNamer) Name(resource string) string {
	base := sheetNameReplacer.Replace(resource)
	base = strings.Trim(base, "'")
	if base == "" {
		base = "Sheet"
	}

	name := truncate(base, MaxSheetNameLen)
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := "_" + strconv.Itoa(i)
		name = truncate(base, MaxSheetNameLen-len(suffix)) + suffix
	}

	n.used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

package export

import (
	"fmt"
	"regexp"
	"strings"
)

// colName: 1 -> A; 27 -> AA
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func cell(col, row int) string { return fmt.Sprintf("%s%d", colName(col), row) }

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|\s]+`)

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	return invalidFileRe.ReplaceAllString(s, "_")
}

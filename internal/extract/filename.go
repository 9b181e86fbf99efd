package extract

import "strings"

// AdIDFromFilename recovers <id> from names shaped like prefix_<id>.<ext>.
// It returns "" when the name does not follow that pattern.
func AdIDFromFilename(name string) string {
	_, rest, ok := strings.Cut(name, "_")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, ".")
	return id
}

// Package format renders sizes and durations for reports.
package format

import "fmt"

const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
	TB = GB * 1024
)

var units = []struct {
	size int64
	name string
}{
	{TB, "TB"},
	{GB, "GB"},
	{MB, "MB"},
	{KB, "KB"},
}

// Bytes formats a byte count in binary units with one decimal, e.g.
// "16.0 GB". Counts under 1 KB are printed exactly.
func Bytes(b int64) string {
	sign := ""
	if b < 0 {
		sign, b = "-", -b
	}
	for _, u := range units {
		if b >= u.size {
			return fmt.Sprintf("%s%.1f %s", sign, float64(b)/float64(u.size), u.name)
		}
	}
	return fmt.Sprintf("%s%d B", sign, b)
}

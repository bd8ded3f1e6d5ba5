package cli

import "fmt"

// FormatMB formats a size in megabytes, as used by max_file_size_mb.
// Zero or negative means no bound.
func FormatMB(mb float64) string {
	if mb <= 0 {
		return "unbounded"
	}
	return FormatBytes(int64(mb * 1024 * 1024))
}

// FormatBytes formats bytes to human readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatScore formats a similarity score for tables.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.4f", score)
}

package cli

import "testing"

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1572864, "1.50 MB"},
		{1073741824, "1.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatMB(t *testing.T) {
	tests := []struct {
		mb   float64
		want string
	}{
		{0, "unbounded"},
		{-1, "unbounded"},
		{0.1, "102.40 KB"},
		{3, "3.00 MB"},
		{1000, "1000.00 MB"},
		{2048, "2.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatMB(tt.mb); got != tt.want {
				t.Errorf("FormatMB(%v) = %q, want %q", tt.mb, got, tt.want)
			}
		})
	}
}

func TestFormatScore(t *testing.T) {
	if got := FormatScore(0.987654); got != "0.9877" {
		t.Errorf("FormatScore = %q", got)
	}
	if got := FormatScore(-1); got != "-1.0000" {
		t.Errorf("FormatScore(-1) = %q", got)
	}
}

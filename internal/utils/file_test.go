package utils

import "testing"

func TestMimeTypeFromExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"rose.jpg", "image/jpeg"},
		{"ROSE.JPEG", "image/jpeg"},
		{"/tmp/fern.png", "image/png"},
		{"leaf.webp", "image/webp"},
		{"notes.txt", ""},
		{"noextension", ""},
	}

	for _, tt := range tests {
		if got := MimeTypeFromExtension(tt.filename); got != tt.want {
			t.Errorf("MimeTypeFromExtension(%q) = %q, want %q", tt.filename, got, tt.want)
		}
		if got := IsImageFile(tt.filename); got != (tt.want != "") {
			t.Errorf("IsImageFile(%q) = %v", tt.filename, got)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{3 << 20, "3.0 MB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

package images

import "testing"

func TestMimeTypeFor(t *testing.T) {
	tests := []struct{ in, want string }{
		{"selfie.jpg", "image/jpeg"},
		{"selfie.JPEG", "image/jpeg"},
		{"selfie.png", "image/png"},
		{"selfie.webp", "image/webp"},
		{"selfie", "image/jpeg"},
	}
	for _, tt := range tests {
		if got := mimeTypeFor(tt.in); got != tt.want {
			t.Errorf("mimeTypeFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

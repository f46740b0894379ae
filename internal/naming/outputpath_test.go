package naming

import "testing"

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		token string
		want  string
	}{
		{"absolute mov to mp4", "/a/b/clip.mov", "mp4", "/a/b/clip_converted.mp4"},
		{"same container", "/media/show.mkv", "mkv", "/media/show_converted.mkv"},
		{"multiple dots", "/media/my.show.s01e01.avi", "mov", "/media/my.show.s01e01_converted.mov"},
		{"no extension", "/media/raw", "mkv", "/media/raw_converted.mkv"},
		{"relative no dir", "clip.mp4", "avi", "clip_converted.avi"},
		{"relative dir", "in/clip.mp4", "mkv", "in/clip_converted.mkv"},
		{"dot file", "/tmp/.hidden", "mp4", "/tmp/.hidden_converted.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputPath(tt.input, tt.token); got != tt.want {
				t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.input, tt.token, got, tt.want)
			}
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"clip.mov", "clip"},
		{"a.b.c", "a.b"},
		{"noext", "noext"},
		{".profile", ".profile"},
		{".", "."},
		{"..", ".."},
		{"", ""},
		{"trailing.", "trailing"},
	}
	for _, tt := range tests {
		if got := Stem(tt.in); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

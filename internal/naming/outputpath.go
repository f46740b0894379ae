package naming

import (
	"path/filepath"
	"strings"
)

// Suffix is appended to the input's base name for every output file.
const Suffix = "_converted"

// OutputPath builds the output file path for an input and a container token.
// token is the file extension without dot (e.g. "mkv", "mp4").
//
//	/a/b/clip.mov + mp4  ->  /a/b/clip_converted.mp4
func OutputPath(input, token string) string {
	dir, file := filepath.Split(input)
	return filepath.Join(dir, Stem(file)+Suffix+"."+token)
}

// Stem returns file without its final extension. Names whose only dot is the
// leading one (".profile") and the special names "." and ".." are returned
// unchanged.
func Stem(file string) string {
	if file == "." || file == ".." {
		return file
	}
	i := strings.LastIndexByte(file, '.')
	if i <= 0 {
		return file
	}
	return file[:i]
}

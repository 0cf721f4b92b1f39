package storage

import (
	"fmt"
	"strings"
)

// CleanFolder normalises a folder path to start and end with a slash.
func CleanFolder(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// IsUnder reports whether path is the folder itself or lies below it.
func IsUnder(path, folder string) bool {
	folder = CleanFolder(folder)
	if folder == "/" {
		return strings.HasPrefix(path, "/")
	}
	return strings.HasPrefix(path, folder) || path+"/" == folder
}

// ParentFolder returns the folder containing path.
func ParentFolder(path string) (string, error) {
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		return "", fmt.Errorf("root has no parent")
	}
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return "", fmt.Errorf("invalid path %q", path)
	}
	return trimmed[:i+1], nil
}

// ParentCategory returns the parent of a category path such as
// "topics/ice/sea/". ok is false for top-level categories.
func ParentCategory(path string) (parent string, ok bool) {
	lead := ""
	if strings.HasPrefix(path, "/") {
		lead = "/"
	}
	trimmed := strings.Trim(path, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return "", false
	}
	return lead + trimmed[:i+1], true
}

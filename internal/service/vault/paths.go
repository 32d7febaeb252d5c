package vault

import (
	"path"
	"strings"
	"unicode/utf8"

	"filevault/internal/config"

	"github.com/google/uuid"
)

// pathSeparator joins folder names into a materialized path
const pathSeparator = "/"

// normalizeFolderName trims whitespace and surrounding slashes
func normalizeFolderName(name string) string {
	return strings.Trim(strings.TrimSpace(name), pathSeparator)
}

// normalizeFolderPath turns user input into a stored folder path ("" = none)
func normalizeFolderPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), pathSeparator)
	switch p {
	case "null", "NULL":
		return ""
	}
	return p
}

// joinPath computes a child's materialized path
func joinPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + pathSeparator + name
}

// isSelfOrDescendantPath reports whether candidate is ancestor itself or lies below it
func isSelfOrDescendantPath(candidate, ancestor string) bool {
	return candidate == ancestor || strings.HasPrefix(candidate, ancestor+pathSeparator)
}

// sanitizeFileName keeps the part after the last "/" and replaces any
// remaining backslash with "_". Backslashes are not path separators here, so
// a Windows path is kept whole. Over-long names are cut to
// MaxFileNameLength characters, keeping the extension.
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = path.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" || name == "." || name == "_" {
		return config.DefaultFileName
	}
	return truncateRunes(name, config.MaxFileNameLength)
}

// truncateRunes cuts name to at most max characters on rune boundaries,
// keeping its extension when the extension itself fits
func truncateRunes(name string, max int) string {
	if utf8.RuneCountInString(name) <= max {
		return name
	}
	ext := path.Ext(name)
	extLen := utf8.RuneCountInString(ext)
	if extLen >= max {
		ext, extLen = "", 0
	}
	stem := []rune(strings.TrimSuffix(name, ext))
	return string(stem[:max-extLen]) + ext
}

// blobKey derives a fresh, collision-free blob key for an upload
func blobKey(projectID, fileName string) string {
	return projectID + pathSeparator + uuid.NewString() + "-" + fileName
}

func ptrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

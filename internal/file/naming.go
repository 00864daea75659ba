package file

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var allowedExtensions = map[string]struct{}{
	"txt": {}, "pdf": {}, "png": {}, "jpg": {}, "jpeg": {},
	"gif": {}, "csv": {}, "xlsx": {}, "docx": {},
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// AllowedExtension reports whether the text after the last dot of name,
// compared case-insensitively, is an accepted upload extension.
func AllowedExtension(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	_, ok := allowedExtensions[strings.ToLower(name[i+1:])]
	return ok
}

// SanitizeFilename reduces name to a flat ASCII name made of letters, digits,
// '_', '.' and '-'. Path separators become '_' and leading or trailing dots
// and underscores are removed, so the result never escapes its prefix. It
// returns "" when nothing usable remains.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte(' ')
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		}
	}

	name = strings.Join(strings.Fields(b.String()), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// StorageKey derives the object key for an upload received at now:
// "<unix seconds>.<microseconds>_<sanitized name>".
func StorageKey(name string, now time.Time) string {
	safe := SanitizeFilename(name)
	if safe == "" {
		safe = "file"
	}
	return fmt.Sprintf("%d.%06d_%s", now.Unix(), now.Nanosecond()/int(time.Microsecond), safe)
}

package pagearchive

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const DefaultRoot = "saved_pages"

// Archive writes page html to <root>/<timestamp>/<name>. The timestamped
// directory is created on the first save, a nil *Archive drops everything.
type Archive struct {
	directory string
	created   bool
}

func New(root string, now time.Time) *Archive {
	return &Archive{
		directory: filepath.Join(root, now.Format("20060102_150405")),
	}
}

func (a *Archive) Dir() string {
	if a == nil {
		return ""
	}
	return a.directory
}

func (a *Archive) Save(name, html string) {
	if a == nil {
		return
	}
	if !a.created {
		err := os.MkdirAll(a.directory, 0777)
		if err != nil {
			slog.Warn("failed to create page archive", "dir", a.directory, "err", err)
			return
		}
		a.created = true
	}
	path := filepath.Join(a.directory, name)
	err := os.WriteFile(path, []byte(html), 0600)
	if err != nil {
		slog.Warn("failed to save page", "path", path, "err", err)
		return
	}
	slog.Debug("saved page", "path", path)
}

var unsafeFilename = regexp.MustCompile(`[<>:"/\\|?*]`)

// SafeName replaces characters that are not allowed in filenames and
// truncates the result to max runes.
func SafeName(name string, max int) string {
	name = unsafeFilename.ReplaceAllString(name, "_")
	runes := []rune(name)
	if len(runes) > max {
		runes = runes[:max]
	}
	return string(runes)
}

package pagearchive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestArchive(t *testing.T) {
	root := t.TempDir()
	archive := New(root, time.Date(2025, time.January, 2, 15, 4, 5, 0, time.UTC))
	require.Equal(t, filepath.Join(root, "20250102_150405"), archive.Dir())

	_, err := os.Stat(archive.Dir())
	require.True(t, os.IsNotExist(err))

	archive.Save("landing_page.html", "<html></html>")
	contents, err := os.ReadFile(filepath.Join(archive.Dir(), "landing_page.html"))
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(contents))
}

func TestNilArchive(t *testing.T) {
	var archive *Archive
	archive.Save("x.html", "ignored")
	require.Equal(t, "", archive.Dir())
}

func TestSafeName(t *testing.T) {
	require.Equal(t, "a_b_c_d", SafeName(`a/b:c?d`, 50))
	require.Equal(t, "_________", SafeName(`<>:"/\|?*`, 50))
	require.Equal(t, "abc", SafeName("abcdef", 3))
	require.Equal(t, "ünï", SafeName("ünïcode", 3))
	long := strings.Repeat("x", 80)
	require.Len(t, SafeName(long, 50), 50)
}

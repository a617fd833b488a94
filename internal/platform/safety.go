package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun reports whether the binary was built by "go run" or "go test".
// Both place the executable under the system temp dir or suffix it .test.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveDataPath returns the store file to use. With forceTemp set, the
// file is re-rooted under <tmp>/slotbook-dev so development runs never touch
// real data. Paths already inside the temp dir are trusted as is.
func ResolveDataPath(userPath string, forceTemp bool) string {
	if userPath == "" {
		userPath = DefaultDataPath
	}
	if !forceTemp {
		return userPath
	}

	clean := filepath.Clean(userPath)
	if abs, err := filepath.Abs(clean); err == nil {
		if rel, err := filepath.Rel(os.TempDir(), abs); err == nil && !strings.HasPrefix(rel, "..") {
			return clean
		}
	}

	// Keep the parent directory name so data/db.json and other/db.json
	// stay apart.
	name := filepath.Base(clean)
	parent := filepath.Base(filepath.Dir(clean))
	if parent == "." || parent == string(os.PathSeparator) {
		parent = "default"
	}
	return filepath.Join(os.TempDir(), "slotbook-dev", parent, name)
}

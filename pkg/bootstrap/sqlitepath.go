package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/screens/pkg/dotdir"
)

const defaultSQLiteName = "screens.db"

// ResolveSQLitePath picks the SQLite database path. Order of precedence:
//  1. Provided override (storage.sqlite_path or --sqlite)
//  2. SCREENS_SQLITE environment variable
//  3. An existing screens.db in the working directory or a known data dir
//  4. screens.db inside the resolved .screens/ directory
func ResolveSQLitePath(override, configDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("SCREENS_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving sqlite path: %w", err)
	}
	return filepath.Join(dir, defaultSQLiteName), nil
}

func sqliteCandidates() []string {
	candidates := []string{
		defaultSQLiteName,
		filepath.Join(".screens", defaultSQLiteName),
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "screens", defaultSQLiteName),
		}, candidates...)
	}

	return candidates
}

//go:build integration
// +build integration

package integration

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// The cache never talks to SQLite and the engine only goes through the
// storage interfaces. Confining the driver imports keeps that structural:
// only the storage adapter and the migration runner may touch database/sql.
func TestSQLiteDriverImportsAreConfinedToStorage(t *testing.T) {
	driverImports := map[string]struct{}{
		"database/sql":       {},
		"modernc.org/sqlite": {},
	}
	allowedPrefixes := []string{
		"internal/platform/storage/sqlitemigrate/",
		"internal/services/ladder/storage/sqlite/",
	}

	root := integrationRepoRoot(t)
	var violations []string

	for _, dir := range []string{"internal", "cmd"} {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}

			fset := token.NewFileSet()
			file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
			if err != nil {
				return err
			}
			for _, spec := range file.Imports {
				importPath, err := strconv.Unquote(spec.Path.Value)
				if err != nil {
					return err
				}
				if _, ok := driverImports[importPath]; !ok {
					continue
				}
				rel, err := filepath.Rel(root, path)
				if err != nil {
					return err
				}
				rel = filepath.ToSlash(rel)
				if hasAllowedPrefix(rel, allowedPrefixes) {
					continue
				}
				violations = append(violations, rel+" imports "+importPath)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("scan %s driver imports: %v", dir, err)
		}
	}

	if len(violations) > 0 {
		t.Fatalf("sqlite driver imports must stay inside the storage layer:\n- %s", strings.Join(violations, "\n- "))
	}
}

func hasAllowedPrefix(rel string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const versionLayout = "20060102150405"

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Postgres-only syntax that breaks the SQLite kiosks running the same files.
var nonPortable = []struct {
	needle string
	reason string
}{
	{"::", "postgres cast syntax"},
	{"now()", "use CURRENT_TIMESTAMP"},
	{"gen_random_uuid", "ids are generated by the application"},
	{"create extension", "extensions are not available on sqlite"},
	{"create type", "enum types are not available on sqlite"},
}

// ValidateDir checks the migrations in dir: file naming, unique versions, an
// Up section before a Down section, and SQL that both supported dialects accept.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("list %q: %w", dir, err)
	}

	versions := make(map[string]string, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		match := migrationFileRe.FindStringSubmatch(name)
		if match == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if other, dup := versions[match[1]]; dup {
			return fmt.Errorf("version %s used by both %q and %q", match[1], other, name)
		}
		versions[match[1]] = name

		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		if err := lintMigration(string(body)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func lintMigration(body string) error {
	up := strings.Index(body, "-- +goose Up")
	down := strings.Index(body, "-- +goose Down")
	if up < 0 || down < 0 || down < up {
		return errors.New(`expected "-- +goose Up" followed by "-- +goose Down"`)
	}

	for i, line := range strings.Split(body, "\n") {
		stmt := strings.ToLower(line)
		if cut := strings.Index(stmt, "--"); cut >= 0 {
			stmt = stmt[:cut]
		}
		for _, np := range nonPortable {
			if strings.Contains(stmt, np.needle) {
				return fmt.Errorf("line %d uses %q: %s", i+1, np.needle, np.reason)
			}
		}
	}
	return nil
}

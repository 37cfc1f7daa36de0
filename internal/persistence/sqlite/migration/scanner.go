package migration

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// migrationFilePattern matches {version}_{description}.sql
var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// FSScanner reads migrations from the root of a filesystem.
type FSScanner struct {
	fsys fs.FS
}

// NewScanner creates a scanner over fsys. Use fs.Sub to point it at a subdirectory.
func NewScanner(fsys fs.FS) *FSScanner {
	return &FSScanner{fsys: fsys}
}

// Scan returns all migrations sorted by numeric version.
func (s *FSScanner) Scan() ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, NewMigrationError("", ".", "read directory", err)
	}

	var migrations []Migration
	seen := make(map[int]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		migration, err := s.parse(entry.Name())
		if err != nil {
			return nil, err
		}

		version, _ := strconv.Atoi(migration.Version)
		if existing, ok := seen[version]; ok {
			return nil, NewMigrationError(migration.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: found in both %s and %s", ErrDuplicateVersion, existing, entry.Name()))
		}
		seen[version] = entry.Name()

		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return versionNumber(migrations[i].Version) < versionNumber(migrations[j].Version)
	})

	return migrations, nil
}

// ValidateFileName checks if migration file follows naming convention
func ValidateFileName(filename string) error {
	if !migrationFilePattern.MatchString(filename) {
		return fmt.Errorf("%w: filename '%s' does not match pattern '{version}_{description}.sql'",
			ErrInvalidMigrationFile, filename)
	}
	return nil
}

func (s *FSScanner) parse(name string) (Migration, error) {
	if err := ValidateFileName(name); err != nil {
		return Migration{}, NewMigrationError("", name, "validate filename", err)
	}
	matches := migrationFilePattern.FindStringSubmatch(name)
	version := matches[1]

	content, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return Migration{}, NewMigrationError(version, name, "read file", err)
	}

	sql := string(content)
	if strings.TrimSpace(stripComments(sql)) == "" {
		return Migration{}, NewMigrationError(version, name, "validate content",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}
	if err := checkParentheses(stripComments(sql)); err != nil {
		return Migration{}, NewMigrationError(version, name, "validate SQL syntax", err)
	}

	description := descriptionFromContent(sql)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	return Migration{
		Version:     version,
		Description: description,
		SQL:         sql,
		FilePath:    name,
		Checksum:    fmt.Sprintf("%x", sha256.Sum256(content)),
	}, nil
}

func stripComments(sql string) string {
	var b strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		if idx := strings.Index(line, "--"); idx != -1 {
			line = line[:idx]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func checkParentheses(sql string) error {
	depth := 0
	for _, char := range sql {
		switch char {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unmatched closing parenthesis", ErrInvalidMigrationFile)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: unmatched opening parenthesis", ErrInvalidMigrationFile)
	}
	return nil
}

// descriptionFromContent reads a leading "-- Description: ..." comment.
func descriptionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if rest, ok := strings.CutPrefix(line, "-- Description:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func versionNumber(version string) int {
	n, _ := strconv.Atoi(version)
	return n
}

package credentials

import (
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian-pos/internal/platform/filestore"
)

// MigratePlaintext walks the users file and replaces plaintext password
// columns with bcrypt hashes, leaving comments, headers and already
// hashed entries untouched. It returns the number of migrated records.
// Nothing is written when no record needs migration.
func MigratePlaintext(store *filestore.Store, path string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lines, err := store.ReadAll(path)
	if err != nil {
		return 0, err
	}

	migrated := 0
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || isHeaderLine(trimmed) {
			out = append(out, line)
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			out = append(out, line)
			continue
		}
		password := strings.TrimSpace(fields[2])
		if strings.HasPrefix(password, "$2") {
			out = append(out, line)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return migrated, err
		}
		fields[2] = string(hash)
		out = append(out, strings.Join(fields, ","))
		migrated++
		logger.Info("migrated plaintext password", slog.String("username", strings.TrimSpace(fields[1])))
	}

	if migrated == 0 {
		return 0, nil
	}
	if err := store.OverwriteAll(path, out); err != nil {
		return 0, err
	}
	return migrated, nil
}

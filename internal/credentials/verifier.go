package credentials

import (
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verifier matches presented credentials against the store. Lookup miss
// and wrong password are indistinguishable to the caller: both return
// false, never an error, so nothing leaks which part was wrong.
type Verifier struct {
	repo   *Repository
	logger *slog.Logger
}

// NewVerifier constructs a Verifier.
func NewVerifier(repo *Repository, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{repo: repo, logger: logger}
}

// Verify checks username and password, and the role when requiredRole is
// non-empty. Stored values that are not bcrypt hashes fail closed; there
// is no plaintext fallback.
func (v *Verifier) Verify(username, password, requiredRole string) bool {
	if username == "" || password == "" {
		return false
	}
	cred, err := v.repo.FindByUsername(username)
	if err != nil {
		return false
	}
	if !strings.HasPrefix(cred.PasswordHash, "$2") {
		v.logger.Warn("credential has a non-bcrypt hash, failing closed", slog.String("username", username))
		return false
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return false
	}
	if strings.TrimSpace(requiredRole) == "" {
		return true
	}
	return RoleMatches(cred.Role, requiredRole)
}

// RoleMatches accepts an exact case-insensitive match or a prefix
// relationship in either direction, so a stored "CASHIER1" satisfies a
// required "CASHIER". The two-way prefix rule is deliberate legacy
// behaviour and is known to be permissive.
func RoleMatches(stored, required string) bool {
	s := strings.ToUpper(strings.TrimSpace(stored))
	q := strings.ToUpper(strings.TrimSpace(required))
	if q == "" {
		return true
	}
	return s == q || strings.HasPrefix(s, q) || strings.HasPrefix(q, s)
}

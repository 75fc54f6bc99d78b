package credentials

// Canonical roles. The store itself does not constrain the role column;
// legacy files carry variants like "CASHIER1" which the verifier's
// prefix matching tolerates.
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleCashier = "CASHIER"
)

// Credential is one login record. PasswordHash is opaque to everything
// except the verifier; it is never compared in plaintext.
type Credential struct {
	ID           string `json:"id"`
	Username     string `json:"username" validate:"required"`
	PasswordHash string `json:"-" validate:"required"`
	Role         string `json:"role" validate:"required"`
}

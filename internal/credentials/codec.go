package credentials

import (
	"fmt"
	"strings"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Header is the first line of a freshly created users file.
const Header = "id,username,password_hash,role"

// EncodeLine serialises one credential as a store line.
func EncodeLine(c Credential) string {
	return fmt.Sprintf("%s,%s,%s,%s", c.ID, c.Username, c.PasswordHash, c.Role)
}

// DecodeLine parses one store line into a credential.
func DecodeLine(line string) (Credential, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 4 {
		return Credential{}, shared.NewValidationError("credential line", fmt.Sprintf("expected 4 columns, got %d", len(fields)))
	}
	return Credential{
		ID:           strings.TrimSpace(fields[0]),
		Username:     strings.TrimSpace(fields[1]),
		PasswordHash: strings.TrimSpace(fields[2]),
		Role:         strings.TrimSpace(fields[3]),
	}, nil
}

// Package credentials owns the user login store and the verifier that
// checks presented credentials against it.
package credentials

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian-pos/internal/platform/filestore"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

var validate = validator.New()

// Repository is the exclusive owner of the persisted credential set. Adds
// are append-only; update and delete rewrite the whole file.
type Repository struct {
	store  *filestore.Store
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	items  []Credential
	doc    *filestore.Document
	seeded bool
}

// Open loads the credential store at path. A missing file is an empty store.
func Open(store *filestore.Store, path string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{store: store, path: path, logger: logger}
	lines, err := store.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	r.items, r.doc, r.seeded = decodeStore(lines, logger)
	return r, nil
}

// All returns a snapshot copy of every credential.
func (r *Repository) All() []Credential {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Credential, len(r.items))
	copy(out, r.items)
	return out
}

// FindByID returns the credential with the given ID.
func (r *Repository) FindByID(id string) (Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := indexOf(r.items, id)
	if idx < 0 {
		return Credential{}, shared.NewNotFoundError("credential", id)
	}
	return r.items[idx], nil
}

// FindByUsername returns the first credential with the given username.
// Usernames are expected unique but the store does not enforce it.
func (r *Repository) FindByUsername(username string) (Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if c.Username == username {
			return c, nil
		}
	}
	return Credential{}, shared.NewNotFoundError("credential", username)
}

// NextID returns the next free credential ID, recomputed from the live
// set on every call.
func (r *Repository) NextID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextIDLocked()
}

// Add validates and appends a new credential, assigning an ID when empty.
func (r *Repository) Add(c Credential) (Credential, error) {
	if err := validateCredential(c); err != nil {
		return Credential{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(c)
}

// Update replaces the stored credential with the same ID and rewrites the
// file. An unknown ID falls back to Add, matching legacy tolerance.
func (r *Repository) Update(c Credential) (Credential, error) {
	if err := validateCredential(c); err != nil {
		return Credential{}, err
	}
	if c.ID == "" {
		return Credential{}, shared.NewValidationError("id", "must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := indexOf(r.items, c.ID)
	if idx < 0 {
		r.logger.Debug("update of unknown credential falls back to add", slog.String("id", c.ID))
		return r.addLocked(c)
	}
	items := make([]Credential, len(r.items))
	copy(items, r.items)
	items[idx] = c
	if err := r.replaceLocked(items, r.doc); err != nil {
		return Credential{}, err
	}
	return c, nil
}

// Delete removes the credential if present and rewrites the file.
// Deleting an absent ID is a no-op, not an error.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := indexOf(r.items, id)
	if idx < 0 {
		return nil
	}
	items := make([]Credential, 0, len(r.items)-1)
	items = append(items, r.items[:idx]...)
	items = append(items, r.items[idx+1:]...)
	doc := r.doc.Clone()
	doc.RemoveRecord(id)
	return r.replaceLocked(items, doc)
}

func (r *Repository) addLocked(c Credential) (Credential, error) {
	if c.ID == "" {
		c.ID = r.nextIDLocked()
	} else if indexOf(r.items, c.ID) >= 0 {
		return Credential{}, shared.NewValidationError("id", fmt.Sprintf("credential %s already exists", c.ID))
	}
	if !r.seeded {
		items := make([]Credential, len(r.items), len(r.items)+1)
		copy(items, r.items)
		items = append(items, c)
		doc := r.doc.Clone()
		doc.AppendRecord(c.ID)
		if err := r.replaceLocked(items, doc); err != nil {
			return Credential{}, err
		}
		return c, nil
	}
	if err := r.store.AppendLine(r.path, EncodeLine(c)); err != nil {
		return Credential{}, err
	}
	r.items = append(r.items, c)
	r.doc.AppendRecord(c.ID)
	return c, nil
}

func (r *Repository) replaceLocked(items []Credential, doc *filestore.Document) error {
	if err := r.store.OverwriteAll(r.path, render(doc, items)); err != nil {
		return err
	}
	r.items, r.doc, r.seeded = items, doc, true
	return nil
}

func (r *Repository) nextIDLocked() string {
	max := 0
	for _, c := range r.items {
		if n, ok := numericID(c.ID); ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("u%02d", max+1)
}

func validateCredential(c Credential) error {
	if strings.ContainsAny(c.Username, ",\"") {
		return shared.NewValidationError("username", "must not contain commas or quotes")
	}
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return shared.NewValidationError(strings.ToLower(fieldErrs[0].Field()), "must not be empty")
		}
		return shared.NewValidationError("credential", err.Error())
	}
	return nil
}

func decodeStore(lines []string, logger *slog.Logger) ([]Credential, *filestore.Document, bool) {
	doc := filestore.NewDocument()
	if len(lines) == 0 {
		doc.AppendVerbatim(Header)
		return nil, doc, false
	}
	var items []Credential
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || isHeaderLine(trimmed) {
			doc.AppendVerbatim(line)
			continue
		}
		c, err := DecodeLine(line)
		if err != nil {
			logger.Warn("skipping undecodable credential line", slog.String("line", line), slog.Any("error", err))
			continue
		}
		if indexOf(items, c.ID) >= 0 {
			logger.Warn("skipping duplicate credential id", slog.String("id", c.ID))
			continue
		}
		items = append(items, c)
		doc.AppendRecord(c.ID)
	}
	return items, doc, true
}

// isHeaderLine treats a line whose first column is the literal "id", or
// that names the username column, as a header.
func isHeaderLine(line string) bool {
	fields := strings.Split(line, ",")
	if len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "id") {
		return true
	}
	return strings.Contains(strings.ToLower(line), "username")
}

func render(doc *filestore.Document, items []Credential) []string {
	byID := make(map[string]Credential, len(items))
	for _, c := range items {
		byID[c.ID] = c
	}
	return doc.Render(func(id string) (string, bool) {
		c, ok := byID[id]
		if !ok {
			return "", false
		}
		return EncodeLine(c), true
	})
}

func indexOf(items []Credential, id string) int {
	for i, c := range items {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func numericID(id string) (int, bool) {
	var sb strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(sb.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

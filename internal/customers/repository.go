// Package customers owns the customer roster: tier-aware pricing model,
// line codec and the flat-file backed repository.
package customers

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/meridian-pos/meridian-pos/internal/platform/filestore"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository is the exclusive owner of the persisted customer set.
type Repository struct {
	store  *filestore.Store
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	items  []Customer
	doc    *filestore.Document
	seeded bool
}

// Open loads the customer store at path. A missing file is an empty store.
func Open(store *filestore.Store, path string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{store: store, path: path, logger: logger}
	lines, err := store.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("open customer store: %w", err)
	}
	r.items, r.doc, r.seeded = decodeStore(lines, logger)
	return r, nil
}

// All returns a snapshot copy of every customer.
func (r *Repository) All() []Customer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Customer, len(r.items))
	copy(out, r.items)
	return out
}

// FindByID returns the customer with the given ID.
func (r *Repository) FindByID(id string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := indexOf(r.items, id)
	if idx < 0 {
		return Customer{}, shared.NewNotFoundError("customer", id)
	}
	return r.items[idx], nil
}

// NextID returns the next free customer ID, recomputed from the live set
// on every call.
func (r *Repository) NextID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextIDLocked()
}

// Add validates and persists a new customer, assigning an ID when empty.
func (r *Repository) Add(c Customer) (Customer, error) {
	if err := validateCustomer(c); err != nil {
		return Customer{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(c)
}

// Update replaces the stored customer with the same ID and rewrites the
// file. A tier change swaps the record's pricing variant in place while
// preserving the ID. An unknown ID falls back to Add, matching legacy
// tolerance.
func (r *Repository) Update(c Customer) (Customer, error) {
	if err := validateCustomer(c); err != nil {
		return Customer{}, err
	}
	if c.ID == "" {
		return Customer{}, shared.NewValidationError("id", "must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := indexOf(r.items, c.ID)
	if idx < 0 {
		r.logger.Debug("update of unknown customer falls back to add", slog.String("id", c.ID))
		return r.addLocked(c)
	}
	items := make([]Customer, len(r.items))
	copy(items, r.items)
	items[idx] = c
	if err := r.replaceLocked(items, r.doc); err != nil {
		return Customer{}, err
	}
	return c, nil
}

// Delete removes the customer if present and rewrites the file. Deleting
// an absent ID is a no-op, not an error.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := indexOf(r.items, id)
	if idx < 0 {
		return nil
	}
	items := make([]Customer, 0, len(r.items)-1)
	items = append(items, r.items[:idx]...)
	items = append(items, r.items[idx+1:]...)
	doc := r.doc.Clone()
	doc.RemoveRecord(id)
	return r.replaceLocked(items, doc)
}

func (r *Repository) addLocked(c Customer) (Customer, error) {
	if c.ID == "" {
		c.ID = r.nextIDLocked()
	} else if indexOf(r.items, c.ID) >= 0 {
		return Customer{}, shared.NewValidationError("id", fmt.Sprintf("customer %s already exists", c.ID))
	}
	if !r.seeded {
		items := make([]Customer, len(r.items), len(r.items)+1)
		copy(items, r.items)
		items = append(items, c)
		doc := r.doc.Clone()
		doc.AppendRecord(c.ID)
		if err := r.replaceLocked(items, doc); err != nil {
			return Customer{}, err
		}
		return c, nil
	}
	if err := r.store.AppendLine(r.path, EncodeLine(c)); err != nil {
		return Customer{}, err
	}
	r.items = append(r.items, c)
	r.doc.AppendRecord(c.ID)
	return c, nil
}

func (r *Repository) replaceLocked(items []Customer, doc *filestore.Document) error {
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
	return fmt.Sprintf("c%02d", max+1)
}

func decodeStore(lines []string, logger *slog.Logger) ([]Customer, *filestore.Document, bool) {
	doc := filestore.NewDocument()
	if len(lines) == 0 {
		doc.AppendVerbatim(Header)
		return nil, doc, false
	}
	var items []Customer
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || isHeaderLine(trimmed) {
			doc.AppendVerbatim(line)
			continue
		}
		c, err := DecodeLine(line)
		if err != nil {
			logger.Warn("skipping undecodable customer line", slog.String("line", line), slog.Any("error", err))
			continue
		}
		if indexOf(items, c.ID) >= 0 {
			logger.Warn("skipping duplicate customer id", slog.String("id", c.ID))
			continue
		}
		items = append(items, c)
		doc.AppendRecord(c.ID)
	}
	return items, doc, true
}

func isHeaderLine(line string) bool {
	fields := strings.Split(line, ",")
	return len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "customer_id")
}

func render(doc *filestore.Document, items []Customer) []string {
	byID := make(map[string]Customer, len(items))
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

func indexOf(items []Customer, id string) int {
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

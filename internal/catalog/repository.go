// Package catalog owns the product record set: the flat-file backed
// repository, the line codec and the change watcher that keeps read-only
// consumers in sync with admin-side edits.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-pos/meridian-pos/internal/platform/filestore"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository is the exclusive owner of the persisted product set. It
// loads the whole file on construction and keeps an authoritative
// in-memory copy; callers only ever receive deep copies.
type Repository struct {
	store  *filestore.Store
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	items  []Product
	doc    *filestore.Document
	seeded bool

	group singleflight.Group
}

// Open loads the product store at path. A missing file is an empty store.
func Open(store *filestore.Store, path string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{store: store, path: path, logger: logger}
	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("open product store: %w", err)
	}
	return r, nil
}

// Reload re-reads the file and replaces the in-memory set. Concurrent
// calls are collapsed into a single read.
func (r *Repository) Reload() error {
	_, err, _ := r.group.Do("reload", func() (interface{}, error) {
		lines, err := r.store.ReadAll(r.path)
		if err != nil {
			return nil, err
		}
		items, doc, seeded := decodeStore(lines, r.logger)
		r.mu.Lock()
		r.items, r.doc, r.seeded = items, doc, seeded
		r.mu.Unlock()
		return nil, nil
	})
	return err
}

// All returns a snapshot copy of every product.
func (r *Repository) All() []Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneItems(r.items)
}

// Count returns the number of products currently loaded.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// FindByID returns the product with the given ID.
func (r *Repository) FindByID(id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := indexOf(r.items, id)
	if idx < 0 {
		return Product{}, shared.NewNotFoundError("product", id)
	}
	return r.items[idx].Clone(), nil
}

// FindByName returns the first product whose name matches case-insensitively.
func (r *Repository) FindByName(name string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.items {
		if strings.EqualFold(p.Name, name) {
			return p.Clone(), nil
		}
	}
	return Product{}, shared.NewNotFoundError("product", name)
}

// NextID returns the next free product ID. It is recomputed from the live
// set on every call so deletions never cause a later collision.
func (r *Repository) NextID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextIDLocked()
}

// Add validates and persists a new product, assigning an ID when empty.
func (r *Repository) Add(p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	p = p.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(p)
}

// Update replaces the stored product with the same ID and rewrites the
// file. An unknown ID falls back to Add, matching legacy tolerance.
func (r *Repository) Update(p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	if p.ID == "" {
		return Product{}, shared.NewValidationError("id", "must not be empty")
	}
	p = p.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := indexOf(r.items, p.ID)
	if idx < 0 {
		r.logger.Debug("update of unknown product falls back to add", slog.String("id", p.ID))
		return r.addLocked(p)
	}
	items := cloneItems(r.items)
	items[idx] = p
	if err := r.replaceLocked(items, r.doc); err != nil {
		return Product{}, err
	}
	return p.Clone(), nil
}

// Delete removes the product if present and rewrites the file. Deleting
// an absent ID is a no-op, not an error.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := indexOf(r.items, id)
	if idx < 0 {
		return nil
	}
	items := cloneItems(r.items)
	items = append(items[:idx], items[idx+1:]...)
	doc := r.doc.Clone()
	doc.RemoveRecord(id)
	return r.replaceLocked(items, doc)
}

// SetDiscount adds or replaces one discount rule on a product.
func (r *Repository) SetDiscount(id string, qty int, price float64) error {
	if qty <= 0 {
		return shared.NewValidationError("quantity", "must be positive")
	}
	if price < 0 {
		return shared.NewValidationError("price", "must not be negative")
	}
	return r.mutateRules(id, func(rules map[int]float64) {
		rules[qty] = price
	})
}

// RemoveDiscount drops one discount rule threshold from a product.
func (r *Repository) RemoveDiscount(id string, qty int) error {
	return r.mutateRules(id, func(rules map[int]float64) {
		delete(rules, qty)
	})
}

// ClearDiscounts drops every discount rule from a product.
func (r *Repository) ClearDiscounts(id string) error {
	return r.mutateRules(id, func(rules map[int]float64) {
		for qty := range rules {
			delete(rules, qty)
		}
	})
}

// CommitStockDecrements applies a set of stock decrements atomically. The
// file is re-read first so edits from other writers are honoured, every
// line is validated against current stock, and only then is anything
// written. On any shortfall nothing changes, on disk or in memory.
func (r *Repository) CommitStockDecrements(decrements map[string]int) error {
	if len(decrements) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	lines, err := r.store.ReadAll(r.path)
	if err != nil {
		return err
	}
	items, doc, _ := decodeStore(lines, r.logger)

	ids := make([]string, 0, len(decrements))
	for id := range decrements {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		qty := decrements[id]
		if qty <= 0 {
			return shared.NewValidationError("quantity", "must be positive")
		}
		idx := indexOf(items, id)
		if idx < 0 {
			return shared.NewNotFoundError("product", id)
		}
		if qty > items[idx].Stock {
			return &shared.StockError{
				ProductID: id,
				Name:      items[idx].Name,
				Requested: qty,
				Available: items[idx].Stock,
			}
		}
	}
	for _, id := range ids {
		idx := indexOf(items, id)
		items[idx].Stock -= decrements[id]
	}
	if err := r.store.OverwriteAll(r.path, render(doc, items)); err != nil {
		return err
	}
	r.items, r.doc, r.seeded = items, doc, true
	return nil
}

func (r *Repository) mutateRules(id string, fn func(map[int]float64)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := indexOf(r.items, id)
	if idx < 0 {
		return shared.NewNotFoundError("product", id)
	}
	items := cloneItems(r.items)
	if items[idx].DiscountRules == nil {
		items[idx].DiscountRules = make(map[int]float64)
	}
	fn(items[idx].DiscountRules)
	return r.replaceLocked(items, r.doc)
}

func (r *Repository) addLocked(p Product) (Product, error) {
	if p.ID == "" {
		p.ID = r.nextIDLocked()
	} else if indexOf(r.items, p.ID) >= 0 {
		return Product{}, shared.NewValidationError("id", fmt.Sprintf("product %s already exists", p.ID))
	}
	if !r.seeded {
		items := append(cloneItems(r.items), p)
		doc := r.doc.Clone()
		doc.AppendRecord(p.ID)
		if err := r.replaceLocked(items, doc); err != nil {
			return Product{}, err
		}
		return p.Clone(), nil
	}
	if err := r.store.AppendLine(r.path, EncodeLine(p)); err != nil {
		return Product{}, err
	}
	r.items = append(r.items, p)
	r.doc.AppendRecord(p.ID)
	return p.Clone(), nil
}

// replaceLocked persists first and swaps the in-memory state only on
// success, so a storage fault leaves the repository as it was.
func (r *Repository) replaceLocked(items []Product, doc *filestore.Document) error {
	if err := r.store.OverwriteAll(r.path, render(doc, items)); err != nil {
		return err
	}
	r.items, r.doc, r.seeded = items, doc, true
	return nil
}

func (r *Repository) nextIDLocked() string {
	max := 0
	for _, p := range r.items {
		if n, ok := numericID(p.ID); ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("p%02d", max+1)
}

func decodeStore(lines []string, logger *slog.Logger) ([]Product, *filestore.Document, bool) {
	doc := filestore.NewDocument()
	if len(lines) == 0 {
		doc.AppendVerbatim(Header)
		return nil, doc, false
	}
	var items []Product
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || isHeaderLine(trimmed) {
			doc.AppendVerbatim(line)
			continue
		}
		p, err := DecodeLine(line, logger)
		if err != nil {
			logger.Warn("skipping undecodable product line", slog.String("line", line), slog.Any("error", err))
			continue
		}
		if indexOf(items, p.ID) >= 0 {
			logger.Warn("skipping duplicate product id", slog.String("id", p.ID))
			continue
		}
		items = append(items, p)
		doc.AppendRecord(p.ID)
	}
	return items, doc, true
}

func isHeaderLine(line string) bool {
	fields := splitFields(line)
	return len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "product_id")
}

func render(doc *filestore.Document, items []Product) []string {
	byID := make(map[string]Product, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	return doc.Render(func(id string) (string, bool) {
		p, ok := byID[id]
		if !ok {
			return "", false
		}
		return EncodeLine(p), true
	})
}

func cloneItems(items []Product) []Product {
	out := make([]Product, len(items))
	for i, p := range items {
		out[i] = p.Clone()
	}
	return out
}

func indexOf(items []Product, id string) int {
	for i, p := range items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// numericID extracts the numeric part of an ID like "p07". Unparsable IDs
// are ignored for ID generation.
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

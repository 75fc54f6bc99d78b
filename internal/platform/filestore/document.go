package filestore

// Document models a store file as an ordered mix of verbatim lines
// (header, comments, blanks) and record slots keyed by ID. Rewrites walk
// the layout so hand-edited annotations survive round-trips in place.
type Document struct {
	lines []documentLine
}

type documentLine struct {
	raw    string
	id     string
	record bool
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// AppendVerbatim adds a pass-through line (header, comment or blank).
func (d *Document) AppendVerbatim(raw string) {
	d.lines = append(d.lines, documentLine{raw: raw})
}

// AppendRecord adds a record slot at the end of the layout.
func (d *Document) AppendRecord(id string) {
	d.lines = append(d.lines, documentLine{id: id, record: true})
}

// RemoveRecord drops the record slot for id. Unknown IDs are a no-op.
func (d *Document) RemoveRecord(id string) {
	for i, line := range d.lines {
		if line.record && line.id == id {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return
		}
	}
}

// HasRecord reports whether a record slot exists for id.
func (d *Document) HasRecord(id string) bool {
	for _, line := range d.lines {
		if line.record && line.id == id {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the layout, used to restore state
// when a rewrite fails after in-memory mutation.
func (d *Document) Clone() *Document {
	lines := make([]documentLine, len(d.lines))
	copy(lines, d.lines)
	return &Document{lines: lines}
}

// Render produces the file content. Verbatim lines are emitted as-is;
// record slots are encoded through the callback, which returns false for
// records that no longer exist and should be skipped.
func (d *Document) Render(encode func(id string) (string, bool)) []string {
	out := make([]string, 0, len(d.lines))
	for _, line := range d.lines {
		if !line.record {
			out = append(out, line.raw)
			continue
		}
		if encoded, ok := encode(line.id); ok {
			out = append(out, encoded)
		}
	}
	return out
}

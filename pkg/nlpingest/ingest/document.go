package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// IDField is the top-level field holding a document's identifier.
const IDField = "_id"

// ErrFieldNotFound is returned when a path does not resolve to a value.
var ErrFieldNotFound = errors.New("field not found")

// FieldTypeError reports a value of an unexpected type at Path.
type FieldTypeError struct {
	Path string
	Want string
	Got  any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field [%s] of type [%T] cannot be used as %s", e.Path, e.Got, e.Want)
}

// Document is a mutable tree of fields addressed by dotted paths such as
// "user.address.city". It is not safe for concurrent use.
type Document struct {
	fields map[string]any
}

// NewDocument wraps fields. A nil map starts an empty document.
func NewDocument(fields map[string]any) *Document {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Document{fields: fields}
}

// Fields returns the underlying tree.
func (d *Document) Fields() map[string]any {
	return d.fields
}

// ID returns the document identifier, or "" when it has none.
func (d *Document) ID() string {
	id, _ := d.fields[IDField].(string)
	return id
}

// SetID stores the document identifier.
func (d *Document) SetID(id string) {
	d.fields[IDField] = id
}

// Get returns the value at path.
func (d *Document) Get(path string) (any, error) {
	parent, leaf, err := d.walk(path, false)
	if err != nil {
		return nil, err
	}
	v, ok := parent[leaf]
	if !ok {
		return nil, fmt.Errorf("%w: [%s]", ErrFieldNotFound, path)
	}
	return v, nil
}

// GetString returns the string at path. A null value reads as "".
func (d *Document) GetString(path string) (string, error) {
	v, err := d.Get(path)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	}
	return "", &FieldTypeError{Path: path, Want: "string", Got: v}
}

// Has reports whether path resolves to a value.
func (d *Document) Has(path string) bool {
	_, err := d.Get(path)
	return err == nil
}

// Set stores value at path, creating intermediate objects as needed.
func (d *Document) Set(path string, value any) error {
	parent, leaf, err := d.walk(path, true)
	if err != nil {
		return err
	}
	parent[leaf] = value
	return nil
}

// Remove deletes the value at path.
func (d *Document) Remove(path string) error {
	parent, leaf, err := d.walk(path, false)
	if err != nil {
		return err
	}
	if _, ok := parent[leaf]; !ok {
		return fmt.Errorf("%w: [%s]", ErrFieldNotFound, path)
	}
	delete(parent, leaf)
	return nil
}

// walk resolves every segment of path but the last and returns the object
// holding it.
func (d *Document) walk(path string, create bool) (map[string]any, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("%w: empty path", ErrFieldNotFound)
	}
	parts := strings.Split(path, ".")
	cur := d.fields
	for i, p := range parts[:len(parts)-1] {
		next, ok := cur[p]
		if !ok || next == nil {
			if !create {
				return nil, "", fmt.Errorf("%w: [%s]", ErrFieldNotFound, path)
			}
			m := make(map[string]any)
			cur[p] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return nil, "", &FieldTypeError{Path: strings.Join(parts[:i+1], "."), Want: "object", Got: next}
		}
		cur = m
	}
	return cur, parts[len(parts)-1], nil
}

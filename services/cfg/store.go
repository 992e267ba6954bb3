// services/cfg/store.go
package cfg

import (
	"encoding/json"
	"sort"
	"strings"

	"canbridge-go/errcode"
	"canbridge-go/types"
	"canbridge-go/x/strconvx"
)

// Store owns every persisted configuration struct. Components register
// a pointer under a fixed key at boot; the store round-trips the lot
// through the Flash collaborator as one JSON document and fires each
// owner's change callback synchronously whenever its value is touched
// (Load, Set, Default). Everything here runs on the scheduler thread.
type Store struct {
	flash   types.Flash
	entries []*entry
}

type entry struct {
	key      string
	value    any // pointer to the registered struct
	def      json.RawMessage
	onChange func()
}

func NewStore(flash types.Flash) *Store {
	return &Store{flash: flash}
}

// Register adds a persisted struct under key. v must be a pointer to a
// JSON-serializable struct; its current contents become the "default"
// snapshot. onChange may be nil. Registration order is the enumerate
// order. Panics on duplicate key to catch mistakes at start-up.
func (s *Store) Register(key string, v any, onChange func()) {
	if key == "" {
		panic("cfg: empty key")
	}
	if s.find(key) != nil {
		panic("cfg: duplicate key " + key)
	}
	def, err := json.Marshal(v)
	if err != nil {
		panic("cfg: unserializable value for " + key)
	}
	s.entries = append(s.entries, &entry{key: key, value: v, def: def, onChange: onChange})
}

func (s *Store) find(key string) *entry {
	for _, e := range s.entries {
		if e.key == key {
			return e
		}
	}
	return nil
}

func (e *entry) fire() {
	if e.onChange != nil {
		e.onChange()
	}
}

// Load reads the persisted document and applies it to every registered
// struct present in it, firing callbacks as it goes. A blank flash is
// not an error; the in-memory defaults simply stand.
func (s *Store) Load() error {
	blob, err := s.flash.ReadAll()
	if err != nil {
		return &errcode.E{C: errcode.Storage, Op: "load", Err: err}
	}
	if len(blob) == 0 {
		return nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(blob, &doc); err != nil {
		return &errcode.E{C: errcode.Storage, Op: "load", Err: err}
	}
	for _, e := range s.entries {
		raw, ok := doc[e.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, e.value); err != nil {
			// A single corrupt section does not poison the rest.
			continue
		}
		e.fire()
	}
	return nil
}

// Save writes every registered struct back to flash.
func (s *Store) Save() error {
	doc := map[string]json.RawMessage{}
	for _, e := range s.entries {
		raw, err := json.Marshal(e.value)
		if err != nil {
			return &errcode.E{C: errcode.Storage, Op: "save", Err: err}
		}
		doc[e.key] = raw
	}
	blob, err := json.Marshal(doc)
	if err != nil {
		return &errcode.E{C: errcode.Storage, Op: "save", Err: err}
	}
	if err := s.flash.WriteAll(blob); err != nil {
		return &errcode.E{C: errcode.Storage, Op: "save", Err: err}
	}
	return nil
}

// Default restores every registered struct to its registration-time
// snapshot and fires callbacks.
func (s *Store) Default() {
	for _, e := range s.entries {
		if json.Unmarshal(e.def, e.value) == nil {
			e.fire()
		}
	}
}

// -----------------------------------------------------------------------------
// Field addressing ("key.field.subfield" / "key.filter.3.id1")
// -----------------------------------------------------------------------------

// Set parses value (JSON literal, falling back to a bare string) into
// the addressed field and fires the owning entry's callback.
func (s *Store) Set(path, value string) error {
	e, segs, err := s.resolve(path)
	if err != nil {
		return err
	}
	doc, err := explode(e.value)
	if err != nil {
		return err
	}
	var leaf any
	if json.Unmarshal([]byte(value), &leaf) != nil {
		leaf = value
	}
	if err := setLeaf(doc, segs, leaf); err != nil {
		return err
	}
	if err := implode(doc, e.value); err != nil {
		return err
	}
	e.fire()
	return nil
}

// Get returns the addressed field encoded as a JSON literal.
func (s *Store) Get(path string) (string, error) {
	e, segs, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	doc, err := explode(e.value)
	if err != nil {
		return "", err
	}
	leaf, err := getLeaf(doc, segs)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(leaf)
	if err != nil {
		return "", errcode.BadData
	}
	return string(raw), nil
}

// Enumerate emits every "key.path value" pair through emit, keys in
// registration order, fields sorted within each struct.
func (s *Store) Enumerate(emit func(line string)) {
	for _, e := range s.entries {
		doc, err := explode(e.value)
		if err != nil {
			continue
		}
		walkLeaves(e.key, doc, emit)
	}
}

func (s *Store) resolve(path string) (*entry, []string, error) {
	segs := strings.Split(path, ".")
	e := s.find(segs[0])
	if e == nil {
		return nil, nil, errcode.UnknownKey
	}
	if len(segs) < 2 {
		return nil, nil, errcode.InvalidParams
	}
	return e, segs[1:], nil
}

// explode round-trips a struct into generic JSON containers so fields
// can be addressed without reflection on the concrete type.
func explode(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errcode.BadData
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errcode.BadData
	}
	return doc, nil
}

func implode(doc, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errcode.BadData
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errcode.BadData
	}
	return nil
}

func setLeaf(doc any, segs []string, leaf any) error {
	if len(segs) == 0 {
		return errcode.InvalidParams
	}
	last := len(segs) - 1
	parent, err := descend(doc, segs[:last])
	if err != nil {
		return err
	}
	switch c := parent.(type) {
	case map[string]any:
		if _, ok := c[segs[last]]; !ok {
			return errcode.UnknownKey
		}
		c[segs[last]] = leaf
		return nil
	case []any:
		i, err := index(c, segs[last])
		if err != nil {
			return err
		}
		c[i] = leaf
		return nil
	}
	return errcode.UnknownKey
}

func getLeaf(doc any, segs []string) (any, error) {
	return descend(doc, segs)
}

func descend(doc any, segs []string) (any, error) {
	cur := doc
	for _, seg := range segs {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, errcode.UnknownKey
			}
			cur = v
		case []any:
			i, err := index(c, seg)
			if err != nil {
				return nil, err
			}
			cur = c[i]
		default:
			return nil, errcode.UnknownKey
		}
	}
	return cur, nil
}

func index(c []any, seg string) (int, error) {
	i, err := strconvx.Atoi(seg)
	if err != nil || i < 0 || i >= len(c) {
		return 0, errcode.UnknownKey
	}
	return i, nil
}

func walkLeaves(prefix string, doc any, emit func(string)) {
	switch c := doc.(type) {
	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkLeaves(prefix+"."+k, c[k], emit)
		}
	case []any:
		for i, v := range c {
			walkLeaves(prefix+"."+strconvx.Itoa(i), v, emit)
		}
	default:
		raw, err := json.Marshal(c)
		if err != nil {
			return
		}
		emit(prefix + " " + string(raw))
	}
}

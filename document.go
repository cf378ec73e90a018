package cfbf

import "strings"

// ObjectID identifies a storage or stream within a Document. The zero
// value, RootStorage, names the implicit root storage.
type ObjectID uint32

// RootStorage is the ObjectID of the implicit root storage, valid as the
// parent argument to AddStream/AddStorage.
const RootStorage ObjectID = 0

// object is a single storage or stream before rendering: a name, a
// parent link, and (for streams) payload. It carries no left/right/child
// links of its own — those are derived at render time by the directory
// builder from the parent/children relationship.
type object struct {
	name      string
	isStorage bool
	parent    ObjectID
	data      []byte // nil for storages
}

// Document is an in-memory CFBF container under construction. Build one
// with NewDocument, populate it with AddStream/AddStorage/AddFile, then
// call Render to produce the on-disk bytes.
//
// A Document is not safe for concurrent use; it is owned by whichever
// goroutine constructs it.
type Document struct {
	objects []object // objects[id-1] is the object with ObjectID(id)
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{}
}

// child looks up an existing storage named name directly under parent,
// for AddFile's "reuse an existing storage along the path" behavior.
func (d *Document) child(parent ObjectID, name string) (ObjectID, bool) {
	upper := strings.ToUpper(name)
	for i, o := range d.objects {
		if o.parent == parent && o.isStorage && strings.ToUpper(o.name) == upper {
			return ObjectID(i + 1), true
		}
	}
	return 0, false
}

// siblingExists reports whether parent already has a child named name,
// regardless of type — used to reject duplicate names.
func (d *Document) siblingExists(parent ObjectID, name string) bool {
	upper := strings.ToUpper(name)
	for _, o := range d.objects {
		if o.parent == parent && strings.ToUpper(o.name) == upper {
			return true
		}
	}
	return false
}

// validateName rejects names CFBF cannot represent: empty, containing
// the structurally significant "/" or ":" characters, or whose UTF-16LE
// encoding plus NUL terminator would not fit the 64-byte on-disk name
// field.
func validateName(name string) error {
	if name == "" {
		return newError(KindInvalidName, "name must not be empty")
	}
	if strings.ContainsAny(name, "/:") {
		return newError(KindInvalidName, "name %q must not contain '/' or ':'", name)
	}
	n, err := utf16LEBytes(name)
	if err != nil {
		return newError(KindInvalidName, "name %q is not valid UTF-16: %v", name, err)
	}
	if len(n)+2 > maxNameBytes {
		return ErrFilenameTooLong
	}
	return nil
}

func (d *Document) addObject(parent ObjectID, name string, isStorage bool, data []byte) (ObjectID, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	if d.siblingExists(parent, name) {
		return 0, newError(KindInvalidName, "duplicate name %q under parent %d", name, parent)
	}
	if len(data) > maxStreamSize {
		return 0, ErrFileSizeLimitExceeded
	}
	d.objects = append(d.objects, object{name: name, isStorage: isStorage, parent: parent, data: data})
	return ObjectID(len(d.objects)), nil
}

// AddStream appends a stream named name under parent (RootStorage for
// the top level) holding data. The new object's id is its 1-based
// insertion order among all objects added so far.
func (d *Document) AddStream(parent ObjectID, name string, data []byte) (ObjectID, error) {
	return d.addObject(parent, name, false, data)
}

// AddStorage appends a storage named name under parent and returns its
// id for use as a parent in later calls.
func (d *Document) AddStorage(parent ObjectID, name string) (ObjectID, error) {
	return d.addObject(parent, name, true, nil)
}

// AddFile splits path on "/", creating any missing storages along the
// way, and adds the final path component as a stream holding data. A
// trailing "/" is rejected: it would name an empty final component.
func (d *Document) AddFile(path string, data []byte) (ObjectID, error) {
	if path == "" || strings.HasSuffix(path, "/") {
		return 0, newError(KindInvalidName, "path %q must be non-empty and not end in '/'", path)
	}
	parts := strings.Split(path, "/")
	parent := RootStorage
	for _, part := range parts[:len(parts)-1] {
		if id, ok := d.child(parent, part); ok {
			parent = id
			continue
		}
		id, err := d.AddStorage(parent, part)
		if err != nil {
			return 0, err
		}
		parent = id
	}
	return d.AddStream(parent, parts[len(parts)-1], data)
}

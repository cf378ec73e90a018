package cfbf

import (
	"bytes"
	"encoding/binary"
	"sort"
	"strings"
)

// nodeLinks is the flattened id -> (child, left, right) mapping for one
// directory entry, keyed by directory entry id (0 = Root Entry, 1..N =
// user objects in insertion order).
type nodeLinks struct {
	left, right, child SectorID
}

// sortSiblings orders ids by the CFBF canonical sibling order: shorter
// UTF-16LE uppercase name first, ties broken by lexicographic UTF-16LE
// comparison.
func sortSiblings(doc *Document, ids []ObjectID) {
	keys := make(map[ObjectID][]uint16, len(ids))
	for _, id := range ids {
		keys[id] = upperUTF16(doc.objects[id-1].name)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := keys[ids[i]], keys[ids[j]]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}

// upperUTF16 returns the UTF-16 code units of strings.ToUpper(s). Sorting
// compares code units directly, not the encoded little-endian bytes; the
// two orders agree while every code unit is at most 0xFF and can differ
// above that.
func upperUTF16(s string) []uint16 {
	b, _ := utf16LEBytes(strings.ToUpper(s))
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return units
}

// buildDirEntryLinks shapes each storage's children into a balanced
// binary sibling tree over an arena of object ids (never an
// owning-pointer graph) and flattens it into per-id left/right/child
// links.
func buildDirEntryLinks(doc *Document) map[ObjectID]*nodeLinks {
	links := make(map[ObjectID]*nodeLinks, len(doc.objects)+1)
	links[RootStorage] = &nodeLinks{left: NoStream, right: NoStream, child: NoStream}
	for i := range doc.objects {
		links[ObjectID(i+1)] = &nodeLinks{left: NoStream, right: NoStream, child: NoStream}
	}

	childrenOf := make(map[ObjectID][]ObjectID)
	for i, o := range doc.objects {
		childrenOf[o.parent] = append(childrenOf[o.parent], ObjectID(i+1))
	}

	var shape func(ids []ObjectID) SectorID
	shape = func(ids []ObjectID) SectorID {
		if len(ids) == 0 {
			return NoStream
		}
		sortSiblings(doc, ids)
		mid := len(ids) / 2
		root := ids[mid]
		left := shape(ids[:mid])
		right := shape(ids[mid+1:])
		links[root].left = left
		links[root].right = right
		return SectorID(root)
	}

	var walk func(parent ObjectID)
	walk = func(parent ObjectID) {
		kids := append([]ObjectID(nil), childrenOf[parent]...)
		links[parent].child = shape(kids)
		for _, k := range kids {
			if doc.objects[k-1].isStorage {
				walk(k)
			}
		}
	}
	walk(RootStorage)
	return links
}

// encodeDirEntry serializes one 128-byte directory record.
func encodeDirEntry(name string, objType, color uint8, l *nodeLinks, startSector SectorID, size uint64) ([]byte, error) {
	buf := make([]byte, dirEntrySize)
	var nameLen uint16
	if name != "" {
		enc, err := utf16LEBytes(name)
		if err != nil {
			return nil, newError(KindInvalidName, "name %q is not valid UTF-16: %v", name, err)
		}
		if len(enc)+2 > maxNameBytes {
			return nil, ErrFilenameTooLong
		}
		copy(buf[0:64], enc)
		nameLen = uint16(len(enc) + 2)
	}
	binary.LittleEndian.PutUint16(buf[64:66], nameLen)
	buf[66] = objType
	buf[67] = color
	binary.LittleEndian.PutUint32(buf[68:72], uint32(l.left))
	binary.LittleEndian.PutUint32(buf[72:76], uint32(l.right))
	binary.LittleEndian.PutUint32(buf[76:80], uint32(l.child))
	// bytes 80:96 CLSID, 96:100 state bits, 100:116 timestamps: all zero.
	// FILETIMEs and CLSIDs are not writable in this implementation.
	binary.LittleEndian.PutUint32(buf[116:120], uint32(startSector))
	binary.LittleEndian.PutUint64(buf[120:128], size)
	return buf, nil
}

// buildDirectory encodes the full directory stream: the Root Entry, then
// every user object in insertion order, padded with unused records to a
// multiple of four entries. objStart/objSize are indexed by ObjectID-1
// and must already reflect each object's sector allocation.
func buildDirectory(doc *Document, miniStreamStart SectorID, miniStreamSize uint64, objStart []SectorID, objSize []uint64) ([]byte, error) {
	if len(doc.objects) == 0 {
		return nil, ErrEmpty
	}
	links := buildDirEntryLinks(doc)

	var out bytes.Buffer
	root, err := encodeDirEntry("Root Entry", objRootStorage, colorBlack, links[RootStorage], miniStreamStart, miniStreamSize)
	if err != nil {
		return nil, err
	}
	out.Write(root)

	for i, o := range doc.objects {
		id := ObjectID(i + 1)
		objType := uint8(objStream)
		if o.isStorage {
			objType = objStorage
		}
		entry, err := encodeDirEntry(o.name, objType, colorBlack, links[id], objStart[i], objSize[i])
		if err != nil {
			return nil, err
		}
		out.Write(entry)
	}

	total := len(doc.objects) + 1
	unused, err := encodeDirEntry("", objUnknown, colorRed, &nodeLinks{left: NoStream, right: NoStream, child: NoStream}, EndOfChain, 0)
	if err != nil {
		return nil, err
	}
	for total%4 != 0 {
		out.Write(unused)
		total++
	}

	data := out.Bytes()
	if pad := len(data) % int(sectorSize); pad != 0 {
		data = append(data, make([]byte, int(sectorSize)-pad)...)
	}
	return data, nil
}

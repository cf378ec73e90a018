// Copyright 2013 Richard Lehane. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cfbf

import "encoding/binary"

// dirEntryRecord is one decoded 128-byte directory record.
type dirEntryRecord struct {
	name                     string
	objType                  uint8
	left, right, child       SectorID
	clsid                    [16]byte
	createTime, modifiedTime uint64
	startSector              SectorID
	size                     uint64
}

// readDirectory walks the directory stream (chained through the regular
// FAT starting at header.dirSectorLoc) and decodes every 128-byte
// record. Unused pad records are kept in place (not filtered) because
// sibling/child links reference records by position.
func (r *Reader) readDirectory() error {
	raw, err := r.readChainBytes(r.header.dirSectorLoc)
	if err != nil {
		return err
	}
	n := len(raw) / int(dirEntrySize)
	if n == 0 {
		return newError(KindMalformedHeader, "directory stream is empty")
	}
	entries := make([]*dirEntryRecord, n)
	for i := 0; i < n; i++ {
		rec := raw[i*int(dirEntrySize) : (i+1)*int(dirEntrySize)]
		var rawName [32]uint16
		for j := 0; j < 32; j++ {
			rawName[j] = binary.LittleEndian.Uint16(rec[j*2 : j*2+2])
		}
		nameLen := binary.LittleEndian.Uint16(rec[64:66])
		name, err := decodeName(rawName, nameLen)
		if err != nil {
			return err
		}
		e := &dirEntryRecord{
			name:         name,
			objType:      rec[66],
			left:         SectorID(binary.LittleEndian.Uint32(rec[68:72])),
			right:        SectorID(binary.LittleEndian.Uint32(rec[72:76])),
			child:        SectorID(binary.LittleEndian.Uint32(rec[76:80])),
			createTime:   binary.LittleEndian.Uint64(rec[100:108]),
			modifiedTime: binary.LittleEndian.Uint64(rec[108:116]),
			startSector:  SectorID(binary.LittleEndian.Uint32(rec[116:120])),
			size:         binary.LittleEndian.Uint64(rec[120:128]),
		}
		copy(e.clsid[:], rec[80:96])
		entries[i] = e
	}
	r.entries = entries
	return nil
}

// traverseItem is one node yielded by traverse: its directory record
// index, the names of the ancestor storages above it, outermost first
// (not including its own name), and the create/modified times inherited from
// the nearest ancestor storage that set one.
type traverseItem struct {
	idx              int
	ancestors        []string
	ancestorCreate   uint64
	ancestorModified uint64
	err              error
}

// traverse performs an in-order walk of the directory's sibling tree to
// reconstruct paths: visit left, self, right, then child. It runs as a
// goroutine feeding an unbuffered channel, the same shape
// richardlehane-mscfb's Reader.Next() consumes (that package's traverse
// method body is not present in the retrieved source; this is a
// from-scratch reimplementation that keeps the channel-iterator idiom
// its Next()/Quit() pair implies).
//
// Ancestry is threaded through the recursion itself rather than
// recovered afterward from a flat (index, depth) stream: siblings'
// own subtrees are interleaved into the in-order sequence between a
// storage's self-yield and its child's yields, so a post-hoc depth
// counter cannot tell which storage a given depth belongs to. Passing
// the ancestor slice and timestamps as recursion arguments gives each
// branch its own copy for free.
func (r *Reader) traverse(id SectorID, ancestors []string, ancestorCreate, ancestorModified uint64) chan traverseItem {
	ch := make(chan traverseItem)
	go func() {
		defer close(ch)
		var walk func(id SectorID, ancestors []string, create, modified uint64) bool
		walk = func(id SectorID, ancestors []string, create, modified uint64) bool {
			if id == NoStream {
				return true
			}
			if int(id) < 0 || int(id) >= len(r.entries) {
				ch <- traverseItem{err: newError(KindOutOfRangeSector, "directory link references entry %d, outside the directory (len %d)", id, len(r.entries))}
				return false
			}
			e := r.entries[id]
			if !walk(e.left, ancestors, create, modified) {
				return false
			}
			ch <- traverseItem{idx: int(id), ancestors: ancestors, ancestorCreate: create, ancestorModified: modified}
			if !walk(e.right, ancestors, create, modified) {
				return false
			}
			childCreate, childModified := create, modified
			if e.objType == objStorage || e.objType == objRootStorage {
				if e.createTime != 0 {
					childCreate = e.createTime
				}
				if e.modifiedTime != 0 {
					childModified = e.modifiedTime
				}
			}
			childAncestors := append(append([]string(nil), ancestors...), e.name)
			return walk(e.child, childAncestors, childCreate, childModified)
		}
		walk(id, ancestors, ancestorCreate, ancestorModified)
	}()
	return ch
}

// walkEntries drives traverse from the Root Entry and returns every
// directory record paired with its full slash-joined path (prefixed
// "Root Entry") and, for streams, timestamps inherited from the nearest
// ancestor storage when the stream's own are zero.
func (r *Reader) walkEntries() ([]walkedEntry, error) {
	iter := r.traverse(0, nil, 0, 0)
	var out []walkedEntry
	for item := range iter {
		if item.err != nil {
			return nil, item.err
		}
		e := r.entries[item.idx]

		create := e.createTime
		if create == 0 {
			create = item.ancestorCreate
		}
		modified := e.modifiedTime
		if modified == 0 {
			modified = item.ancestorModified
		}

		fullPath := append(append([]string(nil), item.ancestors...), e.name)
		out = append(out, walkedEntry{
			record:   e,
			path:     joinPath(fullPath),
			created:  create,
			modified: modified,
		})
	}
	if len(out) == 0 {
		return nil, newError(KindMalformedHeader, "directory has no Root Entry")
	}
	return out, nil
}

type walkedEntry struct {
	record   *dirEntryRecord
	path     string
	created  uint64
	modified uint64
}

func joinPath(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "/" + p
	}
	return out
}

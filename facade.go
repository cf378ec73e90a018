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

import (
	"encoding/hex"
	"time"
)

// FileEntry describes one stream found by Files.
type FileEntry struct {
	Path        string // slash-joined, prefixed "Root Entry"
	StartSector uint32
	Size        uint64
	CLSID       string // 16 bytes, hex-encoded; all zero for ordinary streams

	Created  *time.Time
	Modified *time.Time

	// MiniStreamSector is set iff Size < the mini-stream cutoff (4096):
	// it carries the Root Entry's start sector, which callers need to
	// resolve mini-sectors themselves if they bypass FileData.
	MiniStreamSector *uint32
}

// Files enumerates every stream in the CFBF container held by data,
// equivalent to richardlehane-mscfb's package doc example collapsed from
// a streaming iterator into a single result slice.
func Files(data []byte) ([]FileEntry, error) {
	r, err := New(data)
	if err != nil {
		return nil, err
	}
	walked, err := r.walkEntries()
	if err != nil {
		return nil, err
	}
	rootStart := uint32(r.entries[0].startSector)

	var out []FileEntry
	for _, w := range walked {
		if w.record.objType != objStream {
			continue
		}
		fe := FileEntry{
			Path:        w.path,
			StartSector: uint32(w.record.startSector),
			Size:        w.record.size,
			CLSID:       hex.EncodeToString(w.record.clsid[:]),
		}
		if created, ok := filetimeToTime(w.created); ok {
			fe.Created = &created
		}
		if modified, ok := filetimeToTime(w.modified); ok {
			fe.Modified = &modified
		}
		if w.record.size < miniStreamCutoff {
			ms := rootStart
			fe.MiniStreamSector = &ms
		}
		out = append(out, fe)
	}
	return out, nil
}

// FileData returns the payload of entry, truncated to entry.Size.
func FileData(data []byte, entry FileEntry) ([]byte, error) {
	r, err := New(data)
	if err != nil {
		return nil, err
	}
	return r.extractStream(SectorID(entry.StartSector), entry.Size)
}

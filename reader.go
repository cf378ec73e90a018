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

// Reader gives access to the storages and streams of an in-memory CFBF
// container. Build one with New, then use walkEntries (via the
// package-level Files/FileData helpers) to enumerate streams.
type Reader struct {
	data    []byte
	header  *headerFields
	fat     []SectorID
	entries []*dirEntryRecord

	miniFATLocs    []SectorID // chain of mini-FAT sectors
	miniFAT        []SectorID // mini-FAT, indexed by mini-sector id
	miniStreamLocs []SectorID // chain of regular sectors backing the mini-stream
}

// New parses the CFBF header, FAT/DIFAT and directory of data and
// returns a ready-to-query Reader. data must be the whole container;
// New does not retain any resources beyond data itself.
func New(data []byte) (*Reader, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	difat, err := parseDIFAT(data, h)
	if err != nil {
		return nil, err
	}
	fat, err := buildFAT(data, difat)
	if err != nil {
		return nil, err
	}
	r := &Reader{data: data, header: h, fat: fat}
	if err := r.readDirectory(); err != nil {
		return nil, err
	}
	if err := r.readMiniStreamLocs(); err != nil {
		return nil, err
	}
	return r, nil
}

// buildFAT concatenates every FAT sector named by difat into a single
// array indexed directly by sector id, rather than scanned on each
// lookup — exactly what richardlehane-mscfb already does.
func buildFAT(data []byte, difat []SectorID) ([]SectorID, error) {
	entriesPerSector := int(sectorSize / 4)
	fat := make([]SectorID, 0, len(difat)*entriesPerSector)
	for _, sn := range difat {
		sector, err := readSector(data, sn)
		if err != nil {
			return nil, err
		}
		for i := 0; i < entriesPerSector; i++ {
			off := i * 4
			fat = append(fat, SectorID(binary.LittleEndian.Uint32(sector[off:off+4])))
		}
	}
	return fat, nil
}

// getChain follows the FAT from start and returns the ordered sector
// list. A FreeSect entry mid-chain means the chain is unterminated
// (corrupt); chain length is bounded by len(fat) to detect cycles; any
// value in (MaxRegSect, DIFSect) that is not a known sentinel is also an
// error.
func (r *Reader) getChain(start SectorID) ([]SectorID, error) {
	if start == EndOfChain {
		return nil, nil
	}
	var chain []SectorID
	sn := start
	for {
		if int(sn) < 0 || int(sn) >= len(r.fat) {
			return nil, newError(KindOutOfRangeSector, "chain references sector %d, outside the FAT (len %d)", sn, len(r.fat))
		}
		chain = append(chain, sn)
		if len(chain) > len(r.fat) {
			return nil, newError(KindCyclicChain, "chain starting at sector %d exceeds the FAT length", start)
		}
		next := r.fat[sn]
		switch {
		case next == EndOfChain:
			return chain, nil
		case next == FreeSect:
			return nil, newError(KindCorruptFAT, "chain starting at sector %d hits an unallocated (FreeSect) entry", start)
		case next > MaxRegSect && next != FATSect && next != DIFSect:
			return nil, newError(KindCorruptFAT, "chain starting at sector %d hits unknown sentinel 0x%08X", start, uint32(next))
		case next > MaxRegSect:
			return nil, newError(KindCorruptFAT, "chain starting at sector %d hits a FAT/DIFAT sector marker mid-chain", start)
		default:
			sn = next
		}
	}
}

// readChainBytes reads and concatenates the sectors in a chain starting
// at start.
func (r *Reader) readChainBytes(start SectorID) ([]byte, error) {
	chain, err := r.getChain(start)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(chain)*int(sectorSize))
	for _, sn := range chain {
		sector, err := readSector(r.data, sn)
		if err != nil {
			return nil, err
		}
		buf = append(buf, sector...)
	}
	return buf, nil
}

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

// readMiniStreamLocs builds the mini-FAT and the chain of regular
// sectors backing the mini-stream. Grounded on
// richardlehane-mscfb/streams.go's setMiniStream. It is a no-op if the
// container has no mini-stream.
func (r *Reader) readMiniStreamLocs() error {
	root := r.entries[0]
	if root.startSector == EndOfChain || r.header.miniFATSectorLoc == EndOfChain {
		return nil
	}
	miniFATBytes, err := r.readChainBytes(r.header.miniFATSectorLoc)
	if err != nil {
		return err
	}
	r.miniFAT = make([]SectorID, len(miniFATBytes)/4)
	for i := range r.miniFAT {
		r.miniFAT[i] = SectorID(binary.LittleEndian.Uint32(miniFATBytes[i*4 : i*4+4]))
	}
	locs, err := r.getChain(root.startSector)
	if err != nil {
		return err
	}
	r.miniStreamLocs = locs
	return nil
}

// miniSectorOffset returns the byte offset within r.data of mini-sector
// msn, found by locating which regular sector of the mini-stream holds
// it (sectorSize/miniSectorSize mini-sectors per regular sector).
func (r *Reader) miniSectorOffset(msn SectorID) (int64, error) {
	perSector := SectorID(sectorSize / miniSectorSize)
	sec := msn / perSector
	off := msn % perSector
	if int(sec) < 0 || int(sec) >= len(r.miniStreamLocs) {
		return 0, newError(KindOutOfRangeSector, "mini-sector %d is outside the mini-stream (len %d)", msn, len(r.miniStreamLocs))
	}
	base := int64(headerLen) + int64(r.miniStreamLocs[sec])*int64(sectorSize)
	return base + int64(off)*int64(miniSectorSize), nil
}

// miniChain follows the mini-FAT from start, analogous to getChain but
// over mini-sectors.
func (r *Reader) miniChain(start SectorID) ([]SectorID, error) {
	if start == EndOfChain {
		return nil, nil
	}
	var chain []SectorID
	sn := start
	for {
		if int(sn) < 0 || int(sn) >= len(r.miniFAT) {
			return nil, newError(KindOutOfRangeSector, "mini-chain references mini-sector %d, outside the mini-FAT (len %d)", sn, len(r.miniFAT))
		}
		chain = append(chain, sn)
		if len(chain) > len(r.miniFAT) {
			return nil, newError(KindCyclicChain, "mini-chain starting at mini-sector %d exceeds the mini-FAT length", start)
		}
		next := r.miniFAT[sn]
		switch next {
		case EndOfChain:
			return chain, nil
		case FreeSect:
			return nil, newError(KindCorruptFAT, "mini-chain starting at mini-sector %d hits an unallocated (FreeSect) entry", start)
		default:
			sn = next
		}
	}
}

// extractStream returns the payload of a stream with the given start
// sector and size, resolving through the mini-stream when size is below
// the cutoff and through the regular FAT otherwise.
func (r *Reader) extractStream(start SectorID, size uint64) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	if size < miniStreamCutoff {
		chain, err := r.miniChain(start)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 0, len(chain)*int(miniSectorSize))
		for _, msn := range chain {
			off, err := r.miniSectorOffset(msn)
			if err != nil {
				return nil, err
			}
			end := off + int64(miniSectorSize)
			if end > int64(len(r.data)) {
				return nil, newError(KindOutOfRangeSector, "mini-sector %d is past the end of the container", msn)
			}
			buf = append(buf, r.data[off:end]...)
		}
		return truncateTo(buf, size), nil
	}
	raw, err := r.readChainBytes(start)
	if err != nil {
		return nil, err
	}
	return truncateTo(raw, size), nil
}

func truncateTo(b []byte, size uint64) []byte {
	if uint64(len(b)) > size {
		return b[:size]
	}
	return b
}

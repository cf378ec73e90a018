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

// headerFields is the 512-byte CFBF header, version 3 (512-byte sectors).
type headerFields struct {
	minorVersion       uint16
	majorVersion       uint16
	numFATSectors      uint32
	dirSectorLoc       SectorID
	miniFATSectorLoc   SectorID
	numMiniFATSectors  uint32
	difatSectorLoc     SectorID
	numDifatSectors    uint32
	initialDifat       [headerDifatLen]SectorID
}

// newHeaderFields returns a header with the fixed version-3 values
// (512-byte sectors, 64-byte mini-sectors) and its embedded DIFAT
// FreeSect-padded.
func newHeaderFields() *headerFields {
	h := &headerFields{
		minorVersion:     0x003E,
		majorVersion:     0x0003,
		dirSectorLoc:     EndOfChain,
		miniFATSectorLoc: EndOfChain,
		difatSectorLoc:   EndOfChain,
	}
	for i := range h.initialDifat {
		h.initialDifat[i] = FreeSect
	}
	return h
}

// decodeHeader parses the 512-byte header at the start of data.
func decodeHeader(data []byte) (*headerFields, error) {
	if len(data) < headerLen {
		return nil, newError(KindMalformedHeader, "container shorter than one header sector (%d bytes)", len(data))
	}
	sig := binary.LittleEndian.Uint64(data[0:8])
	if sig != signature {
		return nil, newError(KindMalformedHeader, "bad magic")
	}
	h := &headerFields{
		minorVersion:      binary.LittleEndian.Uint16(data[24:26]),
		majorVersion:       binary.LittleEndian.Uint16(data[26:28]),
		numFATSectors:      binary.LittleEndian.Uint32(data[44:48]),
		dirSectorLoc:       SectorID(binary.LittleEndian.Uint32(data[48:52])),
		miniFATSectorLoc:   SectorID(binary.LittleEndian.Uint32(data[60:64])),
		numMiniFATSectors:  binary.LittleEndian.Uint32(data[64:68]),
		difatSectorLoc:     SectorID(binary.LittleEndian.Uint32(data[68:72])),
		numDifatSectors:    binary.LittleEndian.Uint32(data[72:76]),
	}
	if h.majorVersion != 0x0003 {
		return nil, newError(KindMalformedHeader, "unsupported major version 0x%04x (only CFBF v3 is supported)", h.majorVersion)
	}
	sectorShift := binary.LittleEndian.Uint16(data[30:32])
	if sectorShift != 9 {
		return nil, newError(KindMalformedHeader, "unsupported sector shift %d (only 512-byte sectors are supported)", sectorShift)
	}
	for i := 0; i < headerDifatLen; i++ {
		off := 76 + i*4
		h.initialDifat[i] = SectorID(binary.LittleEndian.Uint32(data[off : off+4]))
	}
	return h, nil
}

// encode serializes the header to a fresh 512-byte sector.
func (h *headerFields) encode() []byte {
	buf := make([]byte, headerLen)
	binary.LittleEndian.PutUint64(buf[0:8], signature)
	binary.LittleEndian.PutUint16(buf[24:26], h.minorVersion)
	binary.LittleEndian.PutUint16(buf[26:28], h.majorVersion)
	binary.LittleEndian.PutUint16(buf[28:30], 0xFFFE) // byte order
	binary.LittleEndian.PutUint16(buf[30:32], 9)       // sector shift: 2^9 = 512
	binary.LittleEndian.PutUint16(buf[32:34], 6)       // mini sector shift: 2^6 = 64
	// bytes 34:40 reserved, zero
	// bytes 40:44 directory sector count, zero for v3
	binary.LittleEndian.PutUint32(buf[44:48], h.numFATSectors)
	binary.LittleEndian.PutUint32(buf[48:52], uint32(h.dirSectorLoc))
	// bytes 52:56 transaction signature, zero
	binary.LittleEndian.PutUint32(buf[56:60], uint32(miniStreamCutoff))
	binary.LittleEndian.PutUint32(buf[60:64], uint32(h.miniFATSectorLoc))
	binary.LittleEndian.PutUint32(buf[64:68], h.numMiniFATSectors)
	binary.LittleEndian.PutUint32(buf[68:72], uint32(h.difatSectorLoc))
	binary.LittleEndian.PutUint32(buf[72:76], h.numDifatSectors)
	for i, v := range h.initialDifat {
		off := 76 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(v))
	}
	return buf
}

// parseDIFAT reconstructs the full DIFAT (sequence of FAT sector IDs) by
// following the header's embedded 109 entries plus any chained DIFAT
// sectors.
func parseDIFAT(data []byte, h *headerFields) ([]SectorID, error) {
	difat := make([]SectorID, 0, headerDifatLen)
	for _, sn := range h.initialDifat {
		if sn != FreeSect {
			difat = append(difat, sn)
		}
	}
	sn := h.difatSectorLoc
	seen := make(map[SectorID]bool)
	for sn != EndOfChain {
		if sn > MaxRegSect {
			return nil, newError(KindCorruptFAT, "DIFAT chain link %d is not a valid sector or end-of-chain", sn)
		}
		if seen[sn] {
			return nil, newError(KindCyclicChain, "DIFAT chain revisits sector %d", sn)
		}
		seen[sn] = true
		sector, err := readSector(data, sn)
		if err != nil {
			return nil, err
		}
		for i := 0; i < difatChainLen; i++ {
			off := i * 4
			entry := SectorID(binary.LittleEndian.Uint32(sector[off : off+4]))
			if entry != FreeSect {
				difat = append(difat, entry)
			}
		}
		sn = SectorID(binary.LittleEndian.Uint32(sector[difatChainLen*4:]))
	}
	return difat, nil
}

// readSector returns the sectorSize bytes of regular sector sn, which
// follows the 512-byte header.
func readSector(data []byte, sn SectorID) ([]byte, error) {
	start := int64(headerLen) + int64(sn)*int64(sectorSize)
	end := start + int64(sectorSize)
	if start < 0 || end > int64(len(data)) {
		return nil, newError(KindOutOfRangeSector, "sector %d (offset %d) is past the end of the container", sn, start)
	}
	return data[start:end], nil
}

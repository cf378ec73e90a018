package cfbf

import "encoding/binary"

// finalizeFATSizing runs a fixed-point loop: given the count of FAT
// entries already emitted for data sectors (mini-stream, directory,
// mini-FAT), compute how many additional FAT sectors and DIFAT sectors
// are required to describe the FAT and DIFAT themselves, since those
// sectors need FAT entries of their own.
//
// The loop is monotonic in extra: each iteration either grows extra by
// exactly the prior shortfall or leaves it unchanged and returns, which
// guarantees termination.
func finalizeFATSizing(dataEntries int) (fatCount, fatSectCount, difatSectorCount int) {
	r := dataEntries * 4
	extra := 0
	for {
		fatFATBytes := ceilDiv(r, int(sectorSize)) * 4
		fatCountPrime := ceilDiv(r+fatFATBytes, int(sectorSize)) + extra
		difatOverflow := fatCountPrime - headerDifatLen
		if difatOverflow < 0 {
			difatOverflow = 0
		}
		difatSectors := ceilDiv(difatOverflow*4, 508)
		fatDifatBytes := difatSectors * 4
		// Every one of the fatCountPrime FAT sectors needs an entry of its
		// own, not just the ones the data-only estimate counted.
		fatCountPrime2 := ceilDiv(r+fatCountPrime*4+fatDifatBytes, int(sectorSize))

		if fatCountPrime2 > fatCountPrime {
			extra += fatCountPrime2 - fatCountPrime
			continue
		}
		return fatCountPrime, fatCountPrime, difatSectors
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// finalizeFAT appends the self-describing FAT/DIFAT sector entries to
// fatEntries, returning the encoded FAT sector(s), the encoded DIFAT
// sector chain (possibly empty), and the header fields those sectors
// occupy.
func finalizeFAT(start SectorID, fatEntries []SectorID) (fatSectors []byte, difatSectors []byte, fatCount int, difatSectorLoc SectorID, difatSectorCount int) {
	fatCount, fatSectCount, difatCount := finalizeFATSizing(len(fatEntries))

	entries := append([]SectorID(nil), fatEntries...)
	for i := 0; i < fatSectCount; i++ {
		entries = append(entries, FATSect)
	}
	for i := 0; i < difatCount; i++ {
		entries = append(entries, DIFSect)
	}

	fatSectors = encodeFATEntries(entries)

	if difatCount == 0 {
		return fatSectors, nil, fatCount, EndOfChain, 0
	}

	difatSectorLoc = start + SectorID(fatCount)
	overflow := make([]SectorID, 0, difatCount*difatChainLen)
	for i := 0; i < fatCount; i++ {
		overflow = append(overflow, start+SectorID(i))
	}
	// the first 109 FAT sector ids live in the header; only the
	// remainder needs DIFAT chunks.
	if len(overflow) > headerDifatLen {
		overflow = overflow[headerDifatLen:]
	} else {
		overflow = nil
	}

	buf := make([]byte, 0, difatCount*int(sectorSize))
	for i := 0; i < difatCount; i++ {
		sector := make([]byte, sectorSize)
		for j := 0; j < difatChainLen; j++ {
			idx := i*difatChainLen + j
			var v SectorID
			if idx < len(overflow) {
				v = overflow[idx]
			} else {
				v = FreeSect
			}
			binary.LittleEndian.PutUint32(sector[j*4:j*4+4], uint32(v))
		}
		next := EndOfChain
		if i < difatCount-1 {
			next = difatSectorLoc + SectorID(i) + 1
		}
		binary.LittleEndian.PutUint32(sector[difatChainLen*4:], uint32(next))
		buf = append(buf, sector...)
	}
	return fatSectors, buf, fatCount, difatSectorLoc, difatCount
}

// headerDIFAT returns the header's embedded 109 DIFAT entries: the FAT
// sector ids starting at start, FreeSect-padded.
func headerDIFAT(start SectorID, fatCount int) [headerDifatLen]SectorID {
	var out [headerDifatLen]SectorID
	for i := range out {
		if i < fatCount {
			out[i] = start + SectorID(i)
		} else {
			out[i] = FreeSect
		}
	}
	return out
}

// encodeFATEntries serializes FAT entries to bytes, 0xFF-padded to a
// whole sector.
func encodeFATEntries(entries []SectorID) []byte {
	n := len(entries)
	sectors := ceilDiv(n*4, int(sectorSize))
	buf := make([]byte, sectors*int(sectorSize))
	for i := range buf {
		buf[i] = 0xFF
	}
	for i, v := range entries {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], uint32(v))
	}
	return buf
}

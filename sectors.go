package cfbf

// sectorAllocator accumulates regular (512-byte) sector data and the FAT
// entries describing it. It has no notion of streams or storages —
// callers decide what bytes mean.
type sectorAllocator struct {
	data    []byte
	entries []SectorID // one entry per sector in data, parallel to it
}

// allocate appends data (zero-padded to a whole number of sectors) to the
// allocator and returns the starting sector of the resulting chain, or
// EndOfChain if data is empty.
func (a *sectorAllocator) allocate(data []byte) SectorID {
	return allocateInto(&a.data, &a.entries, data, sectorSize)
}

// miniAllocator is the same shape as sectorAllocator but in 64-byte
// mini-sector units. It is only ever used for streams with
// 0 < len(data) < miniStreamCutoff.
type miniAllocator struct {
	data    []byte
	entries []SectorID
}

func (a *miniAllocator) allocate(data []byte) SectorID {
	return allocateInto(&a.data, &a.entries, data, miniSectorSize)
}

// allocateInto appends data to a byte buffer and extends its parallel
// chain-entries slice, parameterized by the unit size (512 for regular
// sectors, 64 for mini-sectors).
func allocateInto(buf *[]byte, entries *[]SectorID, data []byte, unit uint32) SectorID {
	if len(data) == 0 {
		return EndOfChain
	}
	start := SectorID(len(*buf) / int(unit))
	n := (len(data) + int(unit) - 1) / int(unit)

	padded := make([]byte, n*int(unit))
	copy(padded, data)
	*buf = append(*buf, padded...)

	for i := 0; i < n; i++ {
		if i == n-1 {
			*entries = append(*entries, EndOfChain)
		} else {
			*entries = append(*entries, start+SectorID(i)+1)
		}
	}
	return start
}

package cfbf

import "bytes"

// Render produces the on-disk bytes for doc: each stream/storage's data
// is allocated into the mini-stream or the regular sector region, the
// mini-stream is itself allocated as a regular stream, then the
// directory is built and allocated, then the mini-FAT is allocated,
// then the FAT is finalized and the DIFAT emitted, then the header is
// prepended.
//
// Render never partially commits: every error below is returned before
// any byte of output is produced.
func (d *Document) Render() ([]byte, error) {
	if len(d.objects) == 0 {
		return nil, ErrEmpty
	}

	var sectors sectorAllocator
	var minis miniAllocator

	objStart := make([]SectorID, len(d.objects))
	objSize := make([]uint64, len(d.objects))

	for i, o := range d.objects {
		if o.isStorage {
			// Storages always record size = 0 and start_sector = 0.
			objStart[i] = 0
			objSize[i] = 0
			continue
		}
		objSize[i] = uint64(len(o.data))
		switch {
		case len(o.data) == 0:
			objStart[i] = EndOfChain
		case uint64(len(o.data)) < miniStreamCutoff:
			objStart[i] = minis.allocate(o.data)
		default:
			objStart[i] = sectors.allocate(o.data)
		}
	}

	miniStreamStart := sectors.allocate(minis.data)
	miniStreamSize := uint64(len(minis.data))

	dirBytes, err := buildDirectory(d, miniStreamStart, miniStreamSize, objStart, objSize)
	if err != nil {
		return nil, err
	}
	dirStart := sectors.allocate(dirBytes)

	miniFATBytes := encodeFATEntries(minis.entries)
	miniFATStart := sectors.allocate(miniFATBytes)
	numMiniFATSectors := len(miniFATBytes) / int(sectorSize)

	fatStart := SectorID(len(sectors.data) / int(sectorSize))
	fatSectors, difatSectors, fatCount, difatLoc, difatCount := finalizeFAT(fatStart, sectors.entries)

	h := newHeaderFields()
	h.numFATSectors = uint32(fatCount)
	h.dirSectorLoc = dirStart
	h.miniFATSectorLoc = miniFATStart
	h.numMiniFATSectors = uint32(numMiniFATSectors)
	h.difatSectorLoc = difatLoc
	h.numDifatSectors = uint32(difatCount)
	h.initialDifat = headerDIFAT(fatStart, fatCount)

	var out bytes.Buffer
	out.Grow(headerLen + len(sectors.data) + len(fatSectors) + len(difatSectors))
	out.Write(h.encode())
	out.Write(sectors.data)
	out.Write(fatSectors)
	out.Write(difatSectors)
	return out.Bytes(), nil
}

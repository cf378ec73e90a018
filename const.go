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

// Package cfbf reads and writes the Microsoft Compound File Binary Format
// (CFBF), also known as OLE2 / Composite Document File v2. A CFBF
// container is a FAT-like filesystem embedded in a single byte stream,
// storing a tree of named storages (directories) and streams (files). It
// is the substrate for legacy Office documents, MSI installers, and many
// other OLE containers.
//
// Only CFBF version 3 (512-byte sectors) is supported, matching the
// overwhelming majority of containers in the wild.
package cfbf

// SectorID identifies a 512-byte sector, or carries one of the sentinel
// meanings below.
type SectorID uint32

// Sentinel sector IDs, per MS-CFB. Values above MaxRegSect are reserved.
const (
	MaxRegSect SectorID = 0xFFFFFFFA // highest ordinary sector ID
	DIFSect    SectorID = 0xFFFFFFFC // this FAT slot names a DIFAT sector
	FATSect    SectorID = 0xFFFFFFFD // this FAT slot names a FAT sector
	EndOfChain SectorID = 0xFFFFFFFE // chain terminator
	FreeSect   SectorID = 0xFFFFFFFF // unused slot
	NoStream   SectorID = 0xFFFFFFFF // directory entry has no sibling/child
)

const (
	signature uint64 = 0xE11AB1A1E011CFD0

	sectorSize       uint32 = 512
	miniSectorSize   uint32 = 64
	dirEntrySize     uint32 = 128
	miniStreamCutoff uint64 = 4096

	headerLen      = 512
	headerDifatLen = 109 // DIFAT entries embedded in the header
	difatChainLen  = 127 // DIFAT entries per chained DIFAT sector (+1 next pointer)

	maxStreamSize = 2_147_483_647 // largest representable stream size (2 GiB - 1)
	maxNameBytes  = 64            // UTF-16LE name + NUL terminator, on-disk field width
)

// Directory entry object types, per MS-CFB.
const (
	objUnknown     uint8 = 0x00
	objStorage     uint8 = 0x01
	objStream      uint8 = 0x02
	objRootStorage uint8 = 0x05
)

// Directory entry color flags. This implementation always writes black:
// CFBF readers are required to tolerate trees that are not strictly
// red-black, so no coloring algorithm is implemented.
const (
	colorRed   uint8 = 0x00
	colorBlack uint8 = 0x01
)

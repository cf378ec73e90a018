package cfbf

import (
	"bytes"
	"strings"
	"testing"
)

// Rendering a document with no objects fails up front.
func TestRenderEmptyDocument(t *testing.T) {
	_, err := NewDocument().Render()
	if err != ErrEmpty {
		t.Fatalf("Render() on empty document = %v, want ErrEmpty", err)
	}
}

// A name whose UTF-16LE encoding overflows the 64-byte field is rejected.
func TestAddStreamFilenameTooLong(t *testing.T) {
	name := strings.Repeat("a", 32) // 32 * 2 bytes (UTF-16LE) + 2 (NUL) = 66 > 64
	d := NewDocument()
	if _, err := d.AddStream(RootStorage, name, []byte("x")); err != ErrFilenameTooLong {
		t.Fatalf("AddStream with 32-char name = %v, want ErrFilenameTooLong", err)
	}
}

func TestAddStreamRejectsSlashAndColon(t *testing.T) {
	d := NewDocument()
	for _, name := range []string{"a/b", "a:b"} {
		if _, err := d.AddStream(RootStorage, name, nil); err == nil {
			t.Fatalf("AddStream(%q) succeeded, want error", name)
		}
	}
}

func TestAddStreamRejectsDuplicateNames(t *testing.T) {
	d := NewDocument()
	if _, err := d.AddStream(RootStorage, "dup", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddStream(RootStorage, "DUP", []byte("b")); err == nil {
		t.Fatal("AddStream with duplicate (case-insensitive) name succeeded, want error")
	}
}

// checkHeaderInvariants verifies every rendered container is a whole
// number of 512-byte sectors starting with the CFBF magic.
func checkHeaderInvariants(t *testing.T, data []byte) {
	t.Helper()
	if len(data)%512 != 0 {
		t.Fatalf("output length %d is not a multiple of 512", len(data))
	}
	want := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	if !bytes.Equal(data[:8], want) {
		t.Fatalf("bad magic: %x", data[:8])
	}
}

// A single small stream round-trips through the mini-stream.
func TestRenderSingleSmallStream(t *testing.T) {
	d := NewDocument()
	if _, err := d.AddStream(RootStorage, "example.txt", []byte("Hello, World!")); err != nil {
		t.Fatal(err)
	}
	data, err := d.Render()
	if err != nil {
		t.Fatal(err)
	}
	checkHeaderInvariants(t, data)

	files, err := Files(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	f := files[0]
	if f.Path != "Root Entry/example.txt" {
		t.Fatalf("path = %q", f.Path)
	}
	if f.Size != 13 {
		t.Fatalf("size = %d, want 13", f.Size)
	}
	if f.MiniStreamSector == nil {
		t.Fatal("expected a mini-stream entry")
	}
	content, err := FileData(data, f)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "Hello, World!" {
		t.Fatalf("content = %q", content)
	}
}

// A nested storage plus a stream above the mini-stream cutoff.
func TestRenderNestedStorageAndLargeStream(t *testing.T) {
	d := NewDocument()
	if _, err := d.AddStream(RootStorage, "example.txt", []byte("Hello, World!")); err != nil {
		t.Fatal(err)
	}
	dirID, err := d.AddStorage(RootStorage, "DirectoryA")
	if err != nil {
		t.Fatal(err)
	}
	big := "START" + strings.Repeat("a", 4200) + "END"
	if _, err := d.AddStream(dirID, "example2.txt", []byte(big)); err != nil {
		t.Fatal(err)
	}

	data, err := d.Render()
	if err != nil {
		t.Fatal(err)
	}
	checkHeaderInvariants(t, data)

	files, err := Files(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}

	byPath := make(map[string]FileEntry, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	big2, ok := byPath["Root Entry/DirectoryA/example2.txt"]
	if !ok {
		t.Fatalf("missing nested stream, got paths: %v", files)
	}
	if big2.Size != uint64(len(big)) {
		t.Fatalf("nested stream size = %d, want %d", big2.Size, len(big))
	}
	if big2.MiniStreamSector != nil {
		t.Fatal("4208-byte stream should not be a mini-stream entry")
	}
	content, err := FileData(data, big2)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != big {
		t.Fatal("large stream round-trip mismatch")
	}

	small, ok := byPath["Root Entry/example.txt"]
	if !ok {
		t.Fatal("missing root-level stream")
	}
	if small.Size != 13 || small.MiniStreamSector == nil {
		t.Fatalf("unexpected root-level entry: %+v", small)
	}
}

// Four mini-streams come back out in canonical sibling order.
func TestRenderCanonicalSiblingOrder(t *testing.T) {
	d := NewDocument()
	names := []string{"example.txt", "example2.txt", "example3.txt", "example4.txt"}
	payloads := []string{
		"abc",
		"START" + strings.Repeat("a", 3000) + "END",
		"hello",
		strings.Repeat("b", 65),
	}
	for i, n := range names {
		if _, err := d.AddStream(RootStorage, n, []byte(payloads[i])); err != nil {
			t.Fatal(err)
		}
	}
	data, err := d.Render()
	if err != nil {
		t.Fatal(err)
	}
	files, err := Files(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 4 {
		t.Fatalf("got %d files, want 4", len(files))
	}
	for i, f := range files {
		want := "Root Entry/" + names[i]
		if f.Path != want {
			t.Fatalf("entry %d path = %q, want %q (full order: %v)", i, f.Path, want, files)
		}
		if f.MiniStreamSector == nil {
			t.Fatalf("entry %d (%s) should be a mini-stream entry", i, f.Path)
		}
		content, err := FileData(data, f)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != payloads[i] {
			t.Fatalf("entry %d content mismatch", i)
		}
	}
}

// An empty stream round-trips to "" and records EndOfChain.
func TestRenderEmptyStream(t *testing.T) {
	d := NewDocument()
	if _, err := d.AddStream(RootStorage, "empty.bin", nil); err != nil {
		t.Fatal(err)
	}
	data, err := d.Render()
	if err != nil {
		t.Fatal(err)
	}
	files, err := Files(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Size != 0 {
		t.Fatalf("unexpected files: %+v", files)
	}
	if files[0].StartSector != uint32(EndOfChain) {
		t.Fatalf("empty stream start sector = %d, want EndOfChain", files[0].StartSector)
	}
	content, err := FileData(data, files[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(content) != 0 {
		t.Fatalf("content = %q, want empty", content)
	}
}

// A large stream forces DIFAT sectors beyond the header's 109 slots.
func TestRenderForcesDIFATOverflow(t *testing.T) {
	d := NewDocument()
	payload := make([]byte, 58_000_008)
	if _, err := d.AddStream(RootStorage, "big.bin", payload); err != nil {
		t.Fatal(err)
	}
	data, err := d.Render()
	if err != nil {
		t.Fatal(err)
	}
	checkHeaderInvariants(t, data)

	h, err := decodeHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.difatSectorLoc == EndOfChain || h.numDifatSectors == 0 {
		t.Fatalf("expected DIFAT overflow, got difatSectorLoc=%v numDifatSectors=%d", h.difatSectorLoc, h.numDifatSectors)
	}

	files, err := Files(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Size != uint64(len(payload)) {
		t.Fatalf("unexpected files: %+v", files)
	}
	content, err := FileData(data, files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content, payload) {
		t.Fatal("58MB stream round-trip mismatch")
	}
}

// A multi-megabyte stream exercises the FAT allocation fixed point.
func TestRenderSevenMegabyteStream(t *testing.T) {
	d := NewDocument()
	payload := make([]byte, 7_000_008)
	for i := range payload {
		payload[i] = byte(i)
	}
	if _, err := d.AddStream(RootStorage, "seven.bin", payload); err != nil {
		t.Fatal(err)
	}
	data, err := d.Render()
	if err != nil {
		t.Fatal(err)
	}
	checkHeaderInvariants(t, data)

	files, err := Files(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Size != uint64(len(payload)) {
		t.Fatalf("unexpected files: %+v", files)
	}
	content, err := FileData(data, files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content, payload) {
		t.Fatal("7MB stream round-trip mismatch")
	}
}

// Invariant 8: re-running the finalizer (i.e. Render) twice on documents
// built the same way yields identical bytes.
func TestRenderIsDeterministic(t *testing.T) {
	build := func() []byte {
		d := NewDocument()
		d.AddStream(RootStorage, "a.txt", []byte("hello"))
		sub, _ := d.AddStorage(RootStorage, "Sub")
		d.AddStream(sub, "b.txt", bytes.Repeat([]byte{1}, 5000))
		data, err := d.Render()
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	a := build()
	b := build()
	if !bytes.Equal(a, b) {
		t.Fatal("Render is not deterministic across identical documents")
	}
}

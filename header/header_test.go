package header_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mewkiz/bgen/header"
	"github.com/mewkiz/bgen/internal/breader"
	"github.com/mewkiz/bgen/internal/compress"
)

// buildHeader assembles a minimal valid BGEN prologue + header with the
// given flags and no sample block.
func buildHeader(t *testing.T, nbVariants, nbSamples uint32, flags uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	const headerSize = 20
	// offset: bytes of header data to follow after the "offset" field
	// itself, i.e. header_size. First variant starts at offset+4.
	binary.Write(&buf, binary.LittleEndian, uint32(headerSize))
	binary.Write(&buf, binary.LittleEndian, uint32(headerSize))
	binary.Write(&buf, binary.LittleEndian, nbVariants)
	binary.Write(&buf, binary.LittleEndian, nbSamples)
	buf.WriteString("bgen")
	binary.Write(&buf, binary.LittleEndian, flags)
	return buf.Bytes()
}

func TestParseBasic(t *testing.T) {
	data := buildHeader(t, 199, 500, uint32(compress.Zlib)|(uint32(header.LayoutV12)<<2))
	br := breader.New(bytes.NewReader(data))
	h, err := header.Parse(br)
	if err != nil {
		t.Fatal(err)
	}
	if h.NbVariants != 199 || h.NbSamples != 500 {
		t.Fatalf("got %+v", h)
	}
	if h.Layout != header.LayoutV12 {
		t.Fatalf("got layout %v", h.Layout)
	}
	if h.Compression != compress.Zlib {
		t.Fatalf("got compression %v", h.Compression)
	}
	if h.HasSampleIdentifiers {
		t.Fatal("expected no sample identifiers")
	}
	if h.FirstVariantOffset != 20+4 {
		t.Fatalf("got first variant offset %d", h.FirstVariantOffset)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildHeader(t, 1, 1, uint32(header.LayoutV11)<<2)
	data[16] = 'X' // corrupt magic
	br := breader.New(bytes.NewReader(data))
	if _, err := header.Parse(br); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestParseRejectsInvalidLayout(t *testing.T) {
	data := buildHeader(t, 1, 1, uint32(0)<<2) // layout 0 is invalid
	br := breader.New(bytes.NewReader(data))
	if _, err := header.Parse(br); err == nil {
		t.Fatal("expected error for layout 0")
	}
}

func TestParseSampleBlock(t *testing.T) {
	const headerSize = 20
	flags := uint32(compress.None) | (uint32(header.LayoutV12) << 2) | (1 << 31)

	var hdr bytes.Buffer
	// Sample block: block_size, n, then n u16-prefixed names.
	var sampleBlock bytes.Buffer
	binary.Write(&sampleBlock, binary.LittleEndian, uint32(2))
	names := []string{"sample_001", "sample_002"}
	for _, name := range names {
		binary.Write(&sampleBlock, binary.LittleEndian, uint16(len(name)))
		sampleBlock.WriteString(name)
	}
	sampleBlockBody := sampleBlock.Bytes()
	fullSampleBlock := append(
		func() []byte {
			var b bytes.Buffer
			binary.Write(&b, binary.LittleEndian, uint32(len(sampleBlockBody)))
			return b.Bytes()
		}(),
		sampleBlockBody...,
	)

	offset := uint32(headerSize) + uint32(len(fullSampleBlock))
	binary.Write(&hdr, binary.LittleEndian, offset)
	binary.Write(&hdr, binary.LittleEndian, uint32(headerSize))
	binary.Write(&hdr, binary.LittleEndian, uint32(1))
	binary.Write(&hdr, binary.LittleEndian, uint32(2))
	hdr.WriteString("bgen")
	binary.Write(&hdr, binary.LittleEndian, flags)
	hdr.Write(fullSampleBlock)

	br := breader.New(bytes.NewReader(hdr.Bytes()))
	h, err := header.Parse(br)
	if err != nil {
		t.Fatal(err)
	}
	if !h.HasSampleIdentifiers {
		t.Fatal("expected sample identifiers")
	}
	if len(h.SampleIDs) != 2 || h.SampleIDs[0] != "sample_001" || h.SampleIDs[1] != "sample_002" {
		t.Fatalf("got %+v", h.SampleIDs)
	}
}

package bgen_test

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mewkiz/bgen"
)

// buildExampleFile writes a tiny two-variant, one-sample BGEN file plus its
// sidecar index to a temporary directory and returns the BGEN path. Real
// BGEN files come from genotype imputation pipelines; this example
// synthesizes one so the package has a runnable, self-contained demo
// instead of depending on checked-in binary fixtures.
func buildExampleFile() (string, error) {
	var buf bytes.Buffer
	const headerSize = 20
	binary.Write(&buf, binary.LittleEndian, uint32(headerSize))
	binary.Write(&buf, binary.LittleEndian, uint32(headerSize))
	binary.Write(&buf, binary.LittleEndian, uint32(2)) // nb_variants
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // nb_samples
	buf.WriteString("bgen")
	binary.Write(&buf, binary.LittleEndian, uint32(2)<<2) // layout 2, no compression

	type v struct {
		name, chrom        string
		pos                uint32
		a1, a2             string
		homrefRaw, hetRaw byte
	}
	variants := []v{
		{"rs1", "01", 1000, "A", "G", 255, 0}, // homozygous reference
		{"rs2", "01", 2000, "C", "T", 0, 255}, // heterozygous
	}

	var offsets []int64
	for _, variant := range variants {
		offsets = append(offsets, int64(buf.Len()))

		var body bytes.Buffer
		binary.Write(&body, binary.LittleEndian, uint32(1))
		binary.Write(&body, binary.LittleEndian, uint16(2))
		body.WriteByte(2)
		body.WriteByte(2)
		body.WriteByte(2)
		body.WriteByte(0)
		body.WriteByte(8)
		body.WriteByte(variant.homrefRaw)
		body.WriteByte(variant.hetRaw)

		writeLen2(&buf, variant.name)
		writeLen2(&buf, variant.name)
		writeLen2(&buf, variant.chrom)
		binary.Write(&buf, binary.LittleEndian, variant.pos)
		binary.Write(&buf, binary.LittleEndian, uint16(2))
		writeLen4(&buf, variant.a1)
		writeLen4(&buf, variant.a2)
		binary.Write(&buf, binary.LittleEndian, uint32(body.Len()))
		buf.Write(body.Bytes())
	}

	dir, err := os.MkdirTemp("", "bgen-example")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "example.bgen")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}

	db, err := sql.Open("sqlite", path+".bgi")
	if err != nil {
		return "", err
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE Variant (
		chromosome TEXT, position INTEGER, rsid TEXT,
		allele1 TEXT, allele2 TEXT, file_start_position INTEGER
	);`); err != nil {
		return "", err
	}
	for i, variant := range variants {
		if _, err := db.Exec(`INSERT INTO Variant VALUES (?, ?, ?, ?, ?, ?)`,
			variant.chrom, variant.pos, variant.name, variant.a1, variant.a2, offsets[i]); err != nil {
			return "", err
		}
	}
	return path, nil
}

func writeLen2(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
}

func writeLen4(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func ExampleOpen() {
	path, err := buildExampleFile()
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(filepath.Dir(path))

	r, err := bgen.Open(path)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	fmt.Printf("variants=%d samples=%d\n", r.NbVariants(), r.NbSamples())
	for {
		rec, err := r.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Fatal(err)
		}
		fmt.Printf("%s %s:%d dosage=%.1f\n", rec.Variant.Name, rec.Variant.Chromosome, rec.Variant.Position, rec.Data.Dosages.Data[0])
	}
	// Output:
	// variants=2 samples=1
	// rs1 01:1000 dosage=0.0
	// rs2 01:2000 dosage=1.0
}

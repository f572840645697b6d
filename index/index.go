// Package index implements the Index Client: a read-only view over a
// BGEN file's sidecar ".bgi" index, a single-file relational store with a
// Variant table mapping variant identity to file offset. It follows the
// teacher pack's elliotnunn-BeHierarchic/prefetch.go idiom of registering a
// fixed array of queries by iota and preparing them once against
// database/sql, here against the pure-Go modernc.org/sqlite driver instead
// of a custom sqlite cache schema.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/mewkiz/bgen/variant"
	"github.com/mewkiz/pkg/errutil"
)

const (
	queryCountAndBounds = iota
	queryOffsetsAll
	queryOffsetsByRegion
	queryMetadataPage
	nQuery
)

var queriesToCompile = [nQuery]string{
	queryCountAndBounds:  `SELECT COUNT(*), MIN(file_start_position), MAX(file_start_position) FROM Variant;`,
	queryOffsetsAll:      `SELECT file_start_position FROM Variant ORDER BY file_start_position ASC;`,
	queryOffsetsByRegion: `SELECT file_start_position FROM Variant WHERE chromosome = ? AND position BETWEEN ? AND ? ORDER BY file_start_position ASC;`,
	queryMetadataPage:    `SELECT chromosome, position, rsid, allele1, allele2 FROM Variant ORDER BY file_start_position ASC LIMIT ? OFFSET ?;`,
}

// Index is a read-only handle onto a BGEN file's sidecar index.
type Index struct {
	db *sql.DB
	q  [nQuery]*sql.Stmt
}

// SidecarPath returns the conventional sidecar path for a BGEN file: the
// same basename with a ".bgi" suffix appended.
func SidecarPath(bgenPath string) string {
	return bgenPath + ".bgi"
}

// Open opens the sidecar index adjacent to bgenPath. Returns an error
// classified by the caller as MissingIndex if the sidecar file is absent.
func Open(bgenPath string) (*Index, error) {
	path := SidecarPath(bgenPath)
	if _, err := os.Stat(path); err != nil {
		return nil, errutil.Newf("index: sidecar not found: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errutil.Err(err)
	}
	db.SetMaxOpenConns(1)

	idx := &Index{db: db}
	for i, query := range queriesToCompile {
		stmt, err := db.Prepare(query)
		if err != nil {
			db.Close()
			return nil, errutil.Newf("index: prepare failed for query %d: %v", i, err)
		}
		idx.q[i] = stmt
	}
	slog.Debug("bgen: index opened", "path", path)
	return idx, nil
}

// Close releases the underlying database handle. Idempotent.
func (idx *Index) Close() error {
	if idx == nil || idx.db == nil {
		return nil
	}
	err := idx.db.Close()
	idx.db = nil
	return err
}

// CountAndBounds returns the number of variants in the index, and the
// minimum and maximum file_start_position across all rows.
func (idx *Index) CountAndBounds(ctx context.Context) (count int64, min, max int64, err error) {
	row := idx.q[queryCountAndBounds].QueryRowContext(ctx)
	if err := row.Scan(&count, &min, &max); err != nil {
		return 0, 0, 0, errutil.Err(err)
	}
	return count, min, max, nil
}

// OffsetsAll returns every variant's file offset, ascending.
func (idx *Index) OffsetsAll(ctx context.Context) ([]int64, error) {
	rows, err := idx.q[queryOffsetsAll].QueryContext(ctx)
	if err != nil {
		return nil, errutil.Err(err)
	}
	defer rows.Close()
	return scanOffsets(rows)
}

// OffsetsByRsids returns the offsets of variants whose rsid is in names.
// Order is unspecified; duplicates are preserved if the file has duplicate
// rsids. Implemented as one query per name (rather than a single IN
// clause) to keep the prepared-statement set static, matching the
// teacher's fixed queriesToCompile array.
func (idx *Index) OffsetsByRsids(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var out []int64
	for _, name := range names {
		offs, err := idx.offsetsByRsid(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, offs...)
	}
	return out, nil
}

func (idx *Index) offsetsByRsid(ctx context.Context, name string) ([]int64, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT file_start_position FROM Variant WHERE rsid = ?;`, name)
	if err != nil {
		return nil, errutil.Err(err)
	}
	defer rows.Close()
	return scanOffsets(rows)
}

// OffsetsByRegion returns the offsets of variants on chrom with position in
// [start, end] inclusive.
func (idx *Index) OffsetsByRegion(ctx context.Context, chrom string, start, end uint32) ([]int64, error) {
	rows, err := idx.q[queryOffsetsByRegion].QueryContext(ctx, chrom, start, end)
	if err != nil {
		return nil, errutil.Err(err)
	}
	defer rows.Close()
	return scanOffsets(rows)
}

func scanOffsets(rows *sql.Rows) ([]int64, error) {
	var out []int64
	for rows.Next() {
		var off int64
		if err := rows.Scan(&off); err != nil {
			return nil, errutil.Err(err)
		}
		out = append(out, off)
	}
	if err := rows.Err(); err != nil {
		return nil, errutil.Err(err)
	}
	return out, nil
}

// IterVariantInfo calls fn with successive batches of identity-only
// metadata, batchSize rows at a time, without touching the BGEN data
// stream. Iteration stops at the first error returned by fn or the store.
func (idx *Index) IterVariantInfo(ctx context.Context, batchSize int, fn func([]variant.Info) error) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	for offset := 0; ; offset += batchSize {
		rows, err := idx.q[queryMetadataPage].QueryContext(ctx, batchSize, offset)
		if err != nil {
			return errutil.Err(err)
		}
		var page []variant.Info
		for rows.Next() {
			var v variant.Info
			if err := rows.Scan(&v.Chromosome, &v.Position, &v.Name, &v.Allele1, &v.Allele2); err != nil {
				rows.Close()
				return errutil.Err(err)
			}
			page = append(page, v)
		}
		closeErr := rows.Close()
		if err := rows.Err(); err != nil {
			return errutil.Err(err)
		}
		if closeErr != nil {
			return errutil.Err(closeErr)
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < batchSize {
			return nil
		}
	}
}

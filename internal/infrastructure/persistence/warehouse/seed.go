package warehouse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CSV SEEDER
// ══════════════════════════════════════════════════════════════════════════════

const seedBatchSize = 500

// Seeder loads CSV extracts into warehouse tables. Each file maps to the
// table of the same base name; the load is truncate-then-insert inside one
// transaction per table, so a failed file leaves its table untouched.
type Seeder struct {
	conn     *Connection
	registry *Registry
	logger   *slog.Logger
}

// NewSeeder creates a seeder over a warehouse connection. The registry
// provides the set of loadable tables and their column contracts.
func NewSeeder(conn *Connection, registry *Registry, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{conn: conn, registry: registry, logger: logger}
}

// SeedReport summarizes a directory load.
type SeedReport struct {
	Tables int
	Rows   int
	Loaded map[string]int
}

// SeedDir loads every *.csv file in dir, in name order. Files that do not
// map to a catalog table fail the load.
func (s *Seeder) SeedDir(ctx context.Context, dir string) (*SeedReport, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("seed: list %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("seed: no csv files in %s", dir)
	}
	sort.Strings(matches)

	report := &SeedReport{Loaded: make(map[string]int)}
	for _, path := range matches {
		n, err := s.SeedFile(ctx, path)
		if err != nil {
			return nil, err
		}
		table := tableForFile(path)
		report.Tables++
		report.Rows += n
		report.Loaded[table] = n
	}

	return report, nil
}

// SeedFile loads one CSV file and returns the number of rows inserted.
func (s *Seeder) SeedFile(ctx context.Context, path string) (int, error) {
	table := tableForFile(path)

	valid, ok := s.validColumns(table)
	if !ok {
		return 0, fmt.Errorf("seed: %s does not map to a catalog table", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()

	header, reader, err := openCSV(f)
	if err != nil {
		return 0, fmt.Errorf("seed: %s: %w", filepath.Base(path), err)
	}

	for _, col := range header {
		if !valid[col] {
			return 0, fmt.Errorf("seed: %s: column %q not in catalog for table %s", filepath.Base(path), col, table)
		}
	}

	start := time.Now()
	insertSQL := s.insertStatement(table, header)
	truncateSQL := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY",
		pgx.Identifier{s.registry.Schema(), table}.Sanitize())

	rows := 0
	err = s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, truncateSQL); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}

		batch := &pgx.Batch{}
		line := 1
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			line++
			if err != nil {
				return fmt.Errorf("row %d: %w", line, err)
			}

			args := make([]any, len(record))
			for i, field := range record {
				field = strings.TrimSpace(field)
				if field == "" {
					// NULL; the server casts non-empty text to the
					// column type.
					args[i] = nil
					continue
				}
				args[i] = field
			}

			batch.Queue(insertSQL, args...)
			rows++

			if batch.Len() >= seedBatchSize {
				if err := flushBatch(ctx, tx, batch); err != nil {
					return err
				}
				batch = &pgx.Batch{}
			}
		}

		return flushBatch(ctx, tx, batch)
	})
	if err != nil {
		return 0, fmt.Errorf("seed: %s: %w", filepath.Base(path), err)
	}

	s.logger.Info("seeded table",
		slog.String("table", table),
		slog.Int("rows", rows),
		slog.Duration("elapsed", time.Since(start)),
	)

	return rows, nil
}

func flushBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch insert: %w", err)
		}
	}
	return br.Close()
}

func (s *Seeder) insertStatement(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgx.Identifier{s.registry.Schema(), table}.Sanitize())
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i+1)
	}
	b.WriteString(")")
	return b.String()
}

// validColumns returns the loadable column set for a table: the catalog
// columns plus, for child tables, the join key.
func (s *Seeder) validColumns(table string) (map[string]bool, bool) {
	add := func(set map[string]bool, cols ...string) {
		for _, c := range cols {
			set[c] = true
		}
	}

	check := func(desc EntityDescriptor) (map[string]bool, bool) {
		if desc.Table == table {
			set := make(map[string]bool)
			add(set, desc.Columns...)
			return set, true
		}
		for _, rel := range desc.Relations {
			if rel.Table == table {
				set := make(map[string]bool)
				add(set, rel.JoinKey)
				add(set, rel.Columns...)
				return set, true
			}
		}
		return nil, false
	}

	for _, et := range []shared.EntityType{shared.EntityStudent, shared.EntityRole, shared.EntityJobDescription} {
		if desc, ok := s.registry.Entity(et); ok {
			if set, found := check(desc); found {
				return set, true
			}
		}
	}
	if set, found := check(s.registry.Template()); found {
		return set, true
	}

	return nil, false
}

func tableForFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// openCSV prepares a reader over a CSV file: strips a UTF-8 BOM, sniffs
// the delimiter from the header line, and returns the parsed header plus
// a reader positioned at the first data row. Field counts are validated
// against the header on every row.
func openCSV(f io.Reader) ([]string, *csv.Reader, error) {
	br := bufio.NewReader(f)

	if peek, err := br.Peek(3); err == nil && bytes.Equal(peek, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	headPeek, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	headLine := string(headPeek)
	if i := strings.IndexByte(headLine, '\n'); i >= 0 {
		headLine = headLine[:i]
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(headLine)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
		if header[i] == "" {
			return nil, nil, fmt.Errorf("header column %d is empty", i+1)
		}
	}

	return header, reader, nil
}

// sniffDelimiter picks the most frequent candidate separator in the
// header line. Comma wins ties.
func sniffDelimiter(line string) rune {
	best := ','
	bestCount := strings.Count(line, ",")
	for _, d := range []rune{';', '\t', '|'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

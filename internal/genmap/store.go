package genmap

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

// Store provides access to a genetic map persisted in a DuckDB database,
// so repeated runs skip text parsing of large map files.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens an existing (or to-be-created) DuckDB map store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes all points of an Interpolater into the store, replacing any
// existing map.
func (s *Store) Save(ip *Interpolater) error {
	if _, err := s.db.Exec(`
		CREATE OR REPLACE TABLE genetic_map (
			chrom INTEGER NOT NULL,
			pos   BIGINT  NOT NULL,
			cm    DOUBLE  NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create genetic_map table: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO genetic_map (chrom, pos, cm) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, chrom := range ip.Chromosomes() {
		pos, cm := ip.Points(chrom)
		for i := range pos {
			if _, err := stmt.Exec(chrom, pos[i], cm[i]); err != nil {
				tx.Rollback()
				return fmt.Errorf("insert map point: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit map points: %w", err)
	}
	return nil
}

// Load reads the stored map back into an Interpolater.
func (s *Store) Load() (*Interpolater, error) {
	rows, err := s.db.Query(`
		SELECT chrom, pos, cm
		FROM genetic_map
		ORDER BY chrom, pos
	`)
	if err != nil {
		return nil, fmt.Errorf("query genetic_map: %w", err)
	}
	defer rows.Close()

	ip := New()
	n := 0
	for rows.Next() {
		var chrom int
		var pos int64
		var cm float64
		if err := rows.Scan(&chrom, &pos, &cm); err != nil {
			return nil, fmt.Errorf("scan map point: %w", err)
		}
		ip.Add(chrom, int(pos), cm)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read map points: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("map store %s is empty", s.path)
	}
	return ip, nil
}

// LoadChrom reads a single chromosome's points into an Interpolater.
func (s *Store) LoadChrom(chrom int) (*Interpolater, error) {
	rows, err := s.db.Query(`
		SELECT pos, cm
		FROM genetic_map
		WHERE chrom = ?
		ORDER BY pos
	`, chrom)
	if err != nil {
		return nil, fmt.Errorf("query genetic_map: %w", err)
	}
	defer rows.Close()

	ip := New()
	n := 0
	for rows.Next() {
		var pos int64
		var cm float64
		if err := rows.Scan(&pos, &cm); err != nil {
			return nil, fmt.Errorf("scan map point: %w", err)
		}
		ip.Add(chrom, int(pos), cm)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read map points: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("map store %s has no points for chromosome %d", s.path, chrom)
	}
	return ip, nil
}

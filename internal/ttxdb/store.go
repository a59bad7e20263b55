package ttxdb

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists a DB snapshot to a sqlite file between acquisition runs,
// through database/sql and modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if necessary) a sqlite-backed page store at path.
func OpenStore(path string) (*Store, error) {
	sdb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ttxdb: open store: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS pages (
	page INTEGER NOT NULL,
	sub INTEGER NOT NULL,
	control INTEGER NOT NULL,
	acquired INTEGER NOT NULL,
	rep_count INTEGER NOT NULL,
	row_idx INTEGER NOT NULL,
	data BLOB NOT NULL,
	PRIMARY KEY (page, sub, row_idx)
);
CREATE TABLE IF NOT EXISTS cni_freq (
	cni INTEGER PRIMARY KEY,
	count INTEGER NOT NULL
);
`
	if _, err := sdb.Exec(schema); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("ttxdb: init schema: %w", err)
	}
	return &Store{db: sdb}, nil
}

// Close releases the underlying sqlite connection.
func (s *Store) Close() error { return s.db.Close() }

// Save writes every page and the CNI frequency map from db into the store,
// replacing prior content in a single transaction.
func (s *Store) Save(db *DB) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ttxdb: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pages"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM cni_freq"); err != nil {
		return err
	}

	pageStmt, err := tx.Prepare("INSERT INTO pages(page, sub, control, acquired, rep_count, row_idx, data) VALUES (?,?,?,?,?,?,?)")
	if err != nil {
		return err
	}
	defer pageStmt.Close()

	for k, p := range db.pages {
		for i := 0; i < NumLines; i++ {
			if !p.HaveLines[i] {
				continue
			}
			if _, err := pageStmt.Exec(k.Page, k.Sub, p.Control, p.Acquired.Unix(), p.RepCount, i, p.Lines[i][:]); err != nil {
				return fmt.Errorf("ttxdb: insert page row: %w", err)
			}
		}
	}

	cniStmt, err := tx.Prepare("INSERT INTO cni_freq(cni, count) VALUES (?,?)")
	if err != nil {
		return err
	}
	defer cniStmt.Close()
	for cni, n := range db.cniFreq {
		if _, err := cniStmt.Exec(cni, n); err != nil {
			return fmt.Errorf("ttxdb: insert cni_freq: %w", err)
		}
	}

	return tx.Commit()
}

// Load reads a previously saved snapshot into a fresh DB.
func (s *Store) Load() (*DB, error) {
	db := New()

	rows, err := s.db.Query("SELECT page, sub, control, acquired, rep_count, row_idx, data FROM pages ORDER BY page, sub, row_idx")
	if err != nil {
		return nil, fmt.Errorf("ttxdb: query pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var page, sub uint16
		var control uint32
		var acquired int64
		var repCount, rowIdx int
		var data []byte
		if err := rows.Scan(&page, &sub, &control, &acquired, &repCount, &rowIdx, &data); err != nil {
			return nil, fmt.Errorf("ttxdb: scan page row: %w", err)
		}
		k := Key{page, sub}
		p, ok := db.pages[k]
		if !ok {
			p = &Page{Key: k, Control: control, Acquired: time.Unix(acquired, 0), RepCount: repCount}
			db.pages[k] = p
		}
		if rowIdx >= 0 && rowIdx < NumLines {
			var line [LineWidth]byte
			copy(line[:], data)
			p.setLine(rowIdx, line)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cniRows, err := s.db.Query("SELECT cni, count FROM cni_freq")
	if err != nil {
		return nil, fmt.Errorf("ttxdb: query cni_freq: %w", err)
	}
	defer cniRows.Close()
	for cniRows.Next() {
		var cni uint16
		var count int
		if err := cniRows.Scan(&cni, &count); err != nil {
			return nil, err
		}
		db.cniFreq[cni] = count
	}
	return db, cniRows.Err()
}

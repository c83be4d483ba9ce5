// Package nwbfile persists an nwb.Document to a single sqlite file.
//
// The file keeps the document hierarchy (document metadata, processing
// modules, time series) in three tables. Numeric arrays are stored as
// gzip-compressed .npy blobs so they can be pulled out with any numpy-aware
// tool.
package nwbfile

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/banshee-data/motion-energy/internal/nwb"
	_ "modernc.org/sqlite"
)

// ErrNoDocument is returned by Read when nothing has been written yet.
var ErrNoDocument = errors.New("nwbfile: file has no document")

// File is an open container file.
type File struct {
	db   *sql.DB
	path string
}

// Create creates a new container file. It fails if path already exists.
func Create(path string) (*File, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("nwbfile: %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("nwbfile: %w", err)
	}
	return Open(path)
}

// Open opens (or creates) a container file and migrates its schema.
func Open(path string) (*File, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("nwbfile: open %s: %w", path, err)
	}
	// A single connection keeps the file consistent for the one writer.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("nwbfile: open %s: %w", path, err)
	}

	f := &File{db: db, path: path}
	if err := f.migrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("nwbfile: %s: %w", path, err)
	}
	return f, nil
}

// Path returns the file's location on disk.
func (f *File) Path() string { return f.path }

// Close closes the underlying database.
func (f *File) Close() error { return f.db.Close() }

// Write replaces the file's contents with doc in a single transaction.
func (f *File) Write(doc *nwb.Document) (err error) {
	tx, err := f.db.Begin()
	if err != nil {
		return fmt.Errorf("nwbfile: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"time_series", "processing_modules", "document"} {
		if _, err = tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("nwbfile: clear %s: %w", table, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO document (
			id, identifier, session_description, session_start_ns, file_create_ns, source_script
		) VALUES (1, ?, ?, ?, ?, ?)`,
		doc.Identifier, doc.SessionDescription,
		toNanos(doc.SessionStartTime), toNanos(doc.FileCreateDate), doc.SourceScript,
	)
	if err != nil {
		return fmt.Errorf("nwbfile: write document: %w", err)
	}

	for i, m := range doc.ProcessingModules {
		res, err := tx.Exec(
			`INSERT INTO processing_modules (position, name, description) VALUES (?, ?, ?)`,
			i, m.Name, m.Description,
		)
		if err != nil {
			return fmt.Errorf("nwbfile: write module %s: %w", m.Name, err)
		}
		moduleID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for j, ts := range m.Series {
			if err := writeSeries(tx, moduleID, j, ts); err != nil {
				return fmt.Errorf("nwbfile: write %s/%s: %w", m.Name, ts.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("nwbfile: commit: %w", err)
	}
	return nil
}

func writeSeries(tx *sql.Tx, moduleID int64, position int, ts *nwb.TimeSeries) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	data, err := encodeFloats(ts.Data)
	if err != nil {
		return err
	}
	timestamps, err := encodeFloats(ts.Timestamps)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO time_series (
			module_id, position, name, description, comments, unit, num_samples, data, timestamps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		moduleID, position, ts.Name, ts.Description, ts.Comments, ts.Unit, len(ts.Data), data, timestamps,
	)
	return err
}

// Read loads the document stored in the file.
func (f *File) Read() (*nwb.Document, error) {
	doc := &nwb.Document{}
	var startNs, createNs int64
	err := f.db.QueryRow(`
		SELECT identifier, session_description, session_start_ns, file_create_ns, source_script
		FROM document WHERE id = 1`,
	).Scan(&doc.Identifier, &doc.SessionDescription, &startNs, &createNs, &doc.SourceScript)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("nwbfile: read document: %w", err)
	}
	doc.SessionStartTime = fromNanos(startNs)
	doc.FileCreateDate = fromNanos(createNs)

	rows, err := f.db.Query(`SELECT module_id, name, description FROM processing_modules ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("nwbfile: read modules: %w", err)
	}
	ids := []int64{}
	for rows.Next() {
		var id int64
		m := &nwb.ProcessingModule{}
		if err := rows.Scan(&id, &m.Name, &m.Description); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
		doc.ProcessingModules = append(doc.ProcessingModules, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		series, err := f.readSeries(id)
		if err != nil {
			return nil, fmt.Errorf("nwbfile: read module %s: %w", doc.ProcessingModules[i].Name, err)
		}
		doc.ProcessingModules[i].Series = series
	}
	return doc, nil
}

func (f *File) readSeries(moduleID int64) ([]*nwb.TimeSeries, error) {
	rows, err := f.db.Query(`
		SELECT name, description, comments, unit, num_samples, data, timestamps
		FROM time_series WHERE module_id = ? ORDER BY position`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*nwb.TimeSeries
	for rows.Next() {
		ts := &nwb.TimeSeries{}
		var n int
		var data, timestamps []byte
		if err := rows.Scan(&ts.Name, &ts.Description, &ts.Comments, &ts.Unit, &n, &data, &timestamps); err != nil {
			return nil, err
		}
		if ts.Data, err = decodeFloats(data); err != nil {
			return nil, fmt.Errorf("%s data: %w", ts.Name, err)
		}
		if ts.Timestamps, err = decodeFloats(timestamps); err != nil {
			return nil, fmt.Errorf("%s timestamps: %w", ts.Name, err)
		}
		if len(ts.Data) != n {
			return nil, fmt.Errorf("%s: stored %d samples, decoded %d", ts.Name, n, len(ts.Data))
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// toNanos maps the zero time to 0 since UnixNano is undefined for it.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

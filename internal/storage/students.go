package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/gradebook/internal/domain"
)

// InsertStudent inserts a new student and returns its assigned ID.
func (db *DB) InsertStudent(name string) (int64, error) {
	var id int64
	err := db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO students (name) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("failed to insert student %q: %w", name, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID for student %q: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindStudentByID retrieves a student by ID. It returns nil, nil when no
// such student exists.
func (db *DB) FindStudentByID(id int64) (*domain.Student, error) {
	var s domain.Student
	err := db.conn.QueryRow(`
		SELECT id, name
		FROM students WHERE id = ?
	`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find student %d: %w", id, err)
	}
	return &s, nil
}

// ListStudents returns every student ordered by ID.
func (db *DB) ListStudents() ([]domain.Student, error) {
	rows, err := db.conn.Query(`
		SELECT id, name
		FROM students
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// UpdateStudentName renames a student. It returns ErrNotFound when no row
// matched the ID.
func (db *DB) UpdateStudentName(id int64, name string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE students
			SET name = ?
			WHERE id = ?
		`, name, id)
		if err != nil {
			return fmt.Errorf("failed to update name for student %d: %w", id, err)
		}
		return requireAffected(res, id)
	})
}

// DeleteStudent removes a student and every grade linked to it in a single
// transaction. Grades go first. It returns ErrNotFound when the student row
// did not exist; any orphaned grades for that ID are still removed.
func (db *DB) DeleteStudent(id int64) error {
	var missing bool
	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM grades WHERE student_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete grades for student %d: %w", id, err)
		}
		res, err := tx.Exec(`DELETE FROM students WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete student %d: %w", id, err)
		}
		if err := requireAffected(res, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				missing = true
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	if missing {
		return fmt.Errorf("student %d: %w", id, ErrNotFound)
	}
	return nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for student %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("student %d: %w", id, ErrNotFound)
	}
	return nil
}

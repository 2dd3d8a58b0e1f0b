package storage

import (
	"database/sql"
	"fmt"

	"github.com/conorfennell/gradebook/internal/domain"
)

// InsertGrade records a grade for a student and returns the grade's ID.
// The student ID is not checked against the students table.
func (db *DB) InsertGrade(studentID int64, value float64) (int64, error) {
	var id int64
	err := db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO grades (student_id, grade_value)
			VALUES (?, ?)
		`, studentID, value)
		if err != nil {
			return fmt.Errorf("failed to insert grade for student %d: %w", studentID, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID for grade of student %d: %w", studentID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GradesByStudentID returns all grades linked to a student ID, oldest first.
func (db *DB) GradesByStudentID(studentID int64) ([]domain.Grade, error) {
	rows, err := db.conn.Query(`
		SELECT id, student_id, grade_value
		FROM grades WHERE student_id = ?
		ORDER BY id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get grades for student %d: %w", studentID, err)
	}
	defer rows.Close()

	var grades []domain.Grade
	for rows.Next() {
		var g domain.Grade
		if err := rows.Scan(&g.ID, &g.StudentID, &g.Value); err != nil {
			return nil, fmt.Errorf("failed to scan grade row for student %d: %w", studentID, err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// AverageGrade returns the arithmetic mean of a student's grades as
// computed by SQLite. It returns ErrNoGrades when there is nothing to
// average.
func (db *DB) AverageGrade(studentID int64) (float64, error) {
	var avg sql.NullFloat64
	err := db.conn.QueryRow(`
		SELECT AVG(grade_value)
		FROM grades WHERE student_id = ?
	`, studentID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average grades for student %d: %w", studentID, err)
	}
	if !avg.Valid {
		return 0, fmt.Errorf("student %d: %w", studentID, ErrNoGrades)
	}
	return avg.Float64, nil
}

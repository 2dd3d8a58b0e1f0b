// Package records is the student-records access layer used by the shell.
//
// Every operation reports success as a bool (or a value plus an ok flag).
// Storage errors are logged and folded into the same false/absent outcome
// as "no matching row", so callers only ever branch on one flag. Code that
// needs to tell the two apart should call the storage package directly,
// which returns storage.ErrNotFound and storage.ErrNoGrades.
package records

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/conorfennell/gradebook/internal/domain"
	"github.com/conorfennell/gradebook/internal/storage"
)

// Store is the open storage handle every operation runs against.
// *storage.DB satisfies it.
type Store interface {
	InsertStudent(name string) (int64, error)
	FindStudentByID(id int64) (*domain.Student, error)
	UpdateStudentName(id int64, name string) error
	DeleteStudent(id int64) error
	InsertGrade(studentID int64, value float64) (int64, error)
	GradesByStudentID(studentID int64) ([]domain.Grade, error)
	AverageGrade(studentID int64) (float64, error)
}

var _ Store = (*storage.DB)(nil)

// CreateStudent adds a student with the given name. Empty names are accepted.
func CreateStudent(store Store, name string) bool {
	id, err := store.InsertStudent(name)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("Error creating student")
		return false
	}
	log.Debug().Int64("student_id", id).Msg("Student created")
	return true
}

// ReadStudent looks a student up by ID. ok is false when the student does
// not exist or the lookup failed.
func ReadStudent(store Store, id int64) (domain.Student, bool) {
	s, err := store.FindStudentByID(id)
	if err != nil {
		log.Error().Err(err).Int64("student_id", id).Msg("Error reading student")
		return domain.Student{}, false
	}
	if s == nil {
		return domain.Student{}, false
	}
	return *s, true
}

// AddGrade records a grade for id. The student is not required to exist.
func AddGrade(store Store, id int64, value float64) bool {
	if _, err := store.InsertGrade(id, value); err != nil {
		log.Error().Err(err).Int64("student_id", id).Float64("grade", value).Msg("Error adding grade")
		return false
	}
	return true
}

// UpdateStudentName renames a student, reporting true only when exactly
// that student was updated.
func UpdateStudentName(store Store, id int64, name string) bool {
	if err := store.UpdateStudentName(id, name); err != nil {
		logUnlessNotFound(err, id, "Error updating student")
		return false
	}
	return true
}

// DeleteStudent removes a student along with its grades. It reports true
// only when the student row was removed.
func DeleteStudent(store Store, id int64) bool {
	if err := store.DeleteStudent(id); err != nil {
		logUnlessNotFound(err, id, "Error deleting student")
		return false
	}
	return true
}

// CalculateAverage returns the mean of a student's grades. ok is false when
// there are no grades or the query failed.
func CalculateAverage(store Store, id int64) (float64, bool) {
	avg, err := store.AverageGrade(id)
	if err != nil {
		if !errors.Is(err, storage.ErrNoGrades) {
			log.Error().Err(err).Int64("student_id", id).Msg("Error calculating average")
		}
		return 0, false
	}
	return avg, true
}

// ListGrades returns the grades recorded for id, oldest first.
func ListGrades(store Store, id int64) ([]domain.Grade, bool) {
	grades, err := store.GradesByStudentID(id)
	if err != nil {
		log.Error().Err(err).Int64("student_id", id).Msg("Error listing grades")
		return nil, false
	}
	return grades, true
}

func logUnlessNotFound(err error, id int64, msg string) {
	if errors.Is(err, storage.ErrNotFound) {
		log.Debug().Int64("student_id", id).Msg("No matching student")
		return
	}
	log.Error().Err(err).Int64("student_id", id).Msg(msg)
}

package storage

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}
	return db
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("first EnsureSchema failed: %v", err)
	}
	if _, err := db.InsertStudent("Ada"); err != nil {
		t.Fatalf("InsertStudent failed: %v", err)
	}
	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("second EnsureSchema failed: %v", err)
	}
	db.Close()

	// Reopen as a fresh process would.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("failed to reopen db: %v", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema after reopen failed: %v", err)
	}

	s, err := db.FindStudentByID(1)
	if err != nil {
		t.Fatalf("FindStudentByID returned error: %v", err)
	}
	if s == nil || s.Name != "Ada" {
		t.Fatalf("expected student Ada to survive reopen, got %+v", s)
	}
}

func TestInsertStudent_AssignsIncreasingIDs(t *testing.T) {
	db := openTestDB(t)

	first, err := db.InsertStudent("Ada")
	if err != nil {
		t.Fatalf("InsertStudent returned error: %v", err)
	}
	second, err := db.InsertStudent("Ada")
	if err != nil {
		t.Fatalf("InsertStudent with duplicate name returned error: %v", err)
	}
	if second <= first {
		t.Fatalf("expected increasing IDs, got %d then %d", first, second)
	}

	// AUTOINCREMENT never hands out a deleted ID again.
	if err := db.DeleteStudent(second); err != nil {
		t.Fatalf("DeleteStudent returned error: %v", err)
	}
	third, err := db.InsertStudent("Grace")
	if err != nil {
		t.Fatalf("InsertStudent returned error: %v", err)
	}
	if third <= second {
		t.Fatalf("expected ID after %d, got %d", second, third)
	}
}

func TestFindStudentByID_Missing(t *testing.T) {
	db := openTestDB(t)

	s, err := db.FindStudentByID(42)
	if err != nil {
		t.Fatalf("expected no error for missing student, got %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil student, got %+v", s)
	}
}

func TestUpdateStudentName(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertStudent("Ada")
	if err != nil {
		t.Fatalf("InsertStudent returned error: %v", err)
	}

	if err := db.UpdateStudentName(id, "Ada Lovelace"); err != nil {
		t.Fatalf("UpdateStudentName returned error: %v", err)
	}
	s, err := db.FindStudentByID(id)
	if err != nil || s == nil {
		t.Fatalf("FindStudentByID failed: %v", err)
	}
	if s.Name != "Ada Lovelace" {
		t.Fatalf("expected updated name, got %q", s.Name)
	}

	if err := db.UpdateStudentName(id+100, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteStudent_CascadesGrades(t *testing.T) {
	db := openTestDB(t)

	keep, _ := db.InsertStudent("Keep")
	drop, _ := db.InsertStudent("Drop")
	for _, v := range []float64{70, 80} {
		if _, err := db.InsertGrade(drop, v); err != nil {
			t.Fatalf("InsertGrade returned error: %v", err)
		}
	}
	if _, err := db.InsertGrade(keep, 55); err != nil {
		t.Fatalf("InsertGrade returned error: %v", err)
	}

	if err := db.DeleteStudent(drop); err != nil {
		t.Fatalf("DeleteStudent returned error: %v", err)
	}

	grades, err := db.GradesByStudentID(drop)
	if err != nil {
		t.Fatalf("GradesByStudentID returned error: %v", err)
	}
	if len(grades) != 0 {
		t.Fatalf("expected grades to be removed, got %d", len(grades))
	}

	kept, err := db.GradesByStudentID(keep)
	if err != nil {
		t.Fatalf("GradesByStudentID returned error: %v", err)
	}
	if len(kept) != 1 || kept[0].Value != 55 {
		t.Fatalf("expected other student's grade to survive, got %+v", kept)
	}

	if err := db.DeleteStudent(drop); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteStudent_MissingStudentClearsOrphans(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.InsertGrade(99, 10); err != nil {
		t.Fatalf("InsertGrade for unknown student returned error: %v", err)
	}

	if err := db.DeleteStudent(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	grades, err := db.GradesByStudentID(99)
	if err != nil {
		t.Fatalf("GradesByStudentID returned error: %v", err)
	}
	if len(grades) != 0 {
		t.Fatalf("expected orphaned grades to be removed, got %d", len(grades))
	}
}

func TestAverageGrade(t *testing.T) {
	db := openTestDB(t)

	id, _ := db.InsertStudent("Ada")

	if _, err := db.AverageGrade(id); !errors.Is(err, ErrNoGrades) {
		t.Fatalf("expected ErrNoGrades, got %v", err)
	}

	for _, v := range []float64{90, 80, 72.5} {
		if _, err := db.InsertGrade(id, v); err != nil {
			t.Fatalf("InsertGrade returned error: %v", err)
		}
	}

	avg, err := db.AverageGrade(id)
	if err != nil {
		t.Fatalf("AverageGrade returned error: %v", err)
	}
	if math.Abs(avg-80.8333) > 0.001 {
		t.Fatalf("expected average around 80.83, got %f", avg)
	}
}

func TestListStudents(t *testing.T) {
	db := openTestDB(t)

	students, err := db.ListStudents()
	if err != nil {
		t.Fatalf("ListStudents returned error: %v", err)
	}
	if len(students) != 0 {
		t.Fatalf("expected empty roster, got %d", len(students))
	}

	for _, name := range []string{"Ada", "Grace", ""} {
		if _, err := db.InsertStudent(name); err != nil {
			t.Fatalf("InsertStudent(%q) returned error: %v", name, err)
		}
	}

	students, err = db.ListStudents()
	if err != nil {
		t.Fatalf("ListStudents returned error: %v", err)
	}
	if len(students) != 3 {
		t.Fatalf("expected 3 students, got %d", len(students))
	}
	if students[0].Name != "Ada" || students[2].Name != "" {
		t.Fatalf("unexpected roster order: %+v", students)
	}
}

func TestOperationsFailAfterClose(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	db.Close()

	if _, err := db.InsertStudent("Ada"); err == nil {
		t.Fatal("expected InsertStudent to fail on a closed database")
	}
	if _, err := db.FindStudentByID(1); err == nil {
		t.Fatal("expected FindStudentByID to fail on a closed database")
	}
}

func TestDSNWithPragmas(t *testing.T) {
	testCases := []struct {
		path     string
		expected string
	}{
		{path: "students.db", expected: "students.db?_pragma=busy_timeout(5000)"},
		{path: "file:x.db?mode=ro", expected: "file:x.db?mode=ro&_pragma=busy_timeout(5000)"},
	}
	for _, tc := range testCases {
		if got := dsnWithPragmas(tc.path); got != tc.expected {
			t.Errorf("dsnWithPragmas(%q) = %q, expected %q", tc.path, got, tc.expected)
		}
	}
}

func TestOpen_PathWithQueryString(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "uri.db") + "?mode=rwc"

	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open db with query string: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if _, err := db.InsertStudent("Ada"); err != nil {
		t.Fatalf("InsertStudent returned error: %v", err)
	}
}

func TestDeleteStudent_RollsBackGradesWhenStudentDeleteFails(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertStudent("Ada")
	if err != nil {
		t.Fatalf("InsertStudent returned error: %v", err)
	}
	for _, v := range []float64{90, 80} {
		if _, err := db.InsertGrade(id, v); err != nil {
			t.Fatalf("InsertGrade returned error: %v", err)
		}
	}

	if _, err := db.conn.Exec(`
		CREATE TRIGGER block_student_delete BEFORE DELETE ON students
		BEGIN SELECT RAISE(ABORT, 'student delete blocked'); END
	`); err != nil {
		t.Fatalf("failed to install trigger: %v", err)
	}

	err = db.DeleteStudent(id)
	if err == nil {
		t.Fatal("expected DeleteStudent to fail")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a storage error, got ErrNotFound: %v", err)
	}

	grades, err := db.GradesByStudentID(id)
	if err != nil {
		t.Fatalf("GradesByStudentID returned error: %v", err)
	}
	if len(grades) != 2 {
		t.Fatalf("expected grade delete to be rolled back, got %d grades", len(grades))
	}

	s, err := db.FindStudentByID(id)
	if err != nil || s == nil {
		t.Fatalf("expected student to remain, got %+v, %v", s, err)
	}
}

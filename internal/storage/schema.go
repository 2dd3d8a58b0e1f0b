package storage

// schemaStatements are applied in order by EnsureSchema. The foreign key on
// grades is declarative only: the connection never turns on
// PRAGMA foreign_keys, so student_id stays a soft reference.
var schemaStatements = []string{
	`-- The 'students' table holds one row per enrolled student.
CREATE TABLE IF NOT EXISTS students (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);`,
	`-- The 'grades' table holds every recorded grade, linked back to its student.
CREATE TABLE IF NOT EXISTS grades (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    student_id INTEGER NOT NULL,
    grade_value REAL NOT NULL,

    FOREIGN KEY(student_id) REFERENCES students(id)
);`,
}

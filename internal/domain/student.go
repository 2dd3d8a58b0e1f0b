package domain

// Student is a single enrolled student. IDs are assigned by the database
// and never reused.
type Student struct {
	ID   int64
	Name string
}

// Grade is one recorded grade. StudentID is a soft reference to a
// Student; nothing stops it from pointing at a student that no longer
// exists.
type Grade struct {
	ID        int64
	StudentID int64
	Value     float64
}

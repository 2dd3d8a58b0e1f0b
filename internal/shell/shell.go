package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/conorfennell/gradebook/internal/parser"
	"github.com/conorfennell/gradebook/internal/records"
)

const menu = `
========== MENU ==========
1. Create Student
2. Read Student (by ID)
3. Add Grade to Student
4. Update Student Name
5. Delete Student
6. Calculate Average
7. Exit
==========================
`

// errEOF signals that input ran out while prompting.
var errEOF = errors.New("end of input")

// Shell runs the interactive menu against a record store.
type Shell struct {
	store records.Store
	in    *bufio.Reader
	out   io.Writer
}

// New creates a shell reading commands from in and writing to out.
func New(store records.Store, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		store: store,
		in:    bufio.NewReader(in),
		out:   out,
	}
}

// Run loops over the menu until the user exits or input ends. Invalid
// input prints a message and shows the menu again.
func Run(store records.Store, in io.Reader, out io.Writer) error {
	return New(store, in, out).Run()
}

// Run is the menu loop. End of input is treated like choosing Exit.
func (s *Shell) Run() error {
	for {
		fmt.Fprint(s.out, menu)
		raw, err := s.prompt("Choose an option: ")
		if err != nil {
			return s.finish(err)
		}

		choice, err := parser.ParseChoice(raw)
		if err != nil {
			fmt.Fprintln(s.out, "Invalid choice. Please try again.")
			continue
		}
		if choice == parser.Exit {
			fmt.Fprintln(s.out, "Exiting. Goodbye!")
			return nil
		}

		if err := s.dispatch(choice); err != nil {
			return s.finish(err)
		}
	}
}

func (s *Shell) dispatch(choice parser.Choice) error {
	switch choice {
	case parser.CreateStudent:
		return s.createStudent()
	case parser.ReadStudent:
		return s.readStudent()
	case parser.AddGrade:
		return s.addGrade()
	case parser.UpdateName:
		return s.updateName()
	case parser.DeleteStudent:
		return s.deleteStudent()
	case parser.CalculateAverage:
		return s.calculateAverage()
	}
	return nil
}

func (s *Shell) createStudent() error {
	name, err := s.prompt("Enter student name: ")
	if err != nil {
		return err
	}
	if records.CreateStudent(s.store, name) {
		fmt.Fprintln(s.out, "Student created successfully.")
	} else {
		fmt.Fprintln(s.out, "Failed to create student.")
	}
	return nil
}

func (s *Shell) readStudent() error {
	id, ok, err := s.promptID("Enter Student ID to read: ")
	if err != nil || !ok {
		return err
	}
	student, found := records.ReadStudent(s.store, id)
	if !found {
		fmt.Fprintln(s.out, "Student not found.")
		return nil
	}
	fmt.Fprintf(s.out, "ID: %d, Name: %s\n", student.ID, student.Name)
	if grades, ok := records.ListGrades(s.store, id); ok && len(grades) > 0 {
		values := make([]string, len(grades))
		for i, g := range grades {
			values[i] = fmt.Sprintf("%.2f", g.Value)
		}
		fmt.Fprintf(s.out, "Grades: %s\n", strings.Join(values, ", "))
	}
	return nil
}

func (s *Shell) addGrade() error {
	id, ok, err := s.promptID("Enter Student ID to add grade: ")
	if err != nil || !ok {
		return err
	}
	raw, err := s.prompt("Enter Grade (float): ")
	if err != nil {
		return err
	}
	grade, err := parser.ParseGrade(raw)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid grade.")
		return nil
	}
	if records.AddGrade(s.store, id, grade) {
		fmt.Fprintln(s.out, "Grade added successfully.")
	} else {
		fmt.Fprintln(s.out, "Failed to add grade.")
	}
	return nil
}

func (s *Shell) updateName() error {
	id, ok, err := s.promptID("Enter Student ID to update: ")
	if err != nil || !ok {
		return err
	}
	name, err := s.prompt("Enter new student name: ")
	if err != nil {
		return err
	}
	if records.UpdateStudentName(s.store, id, name) {
		fmt.Fprintln(s.out, "Student updated successfully.")
	} else {
		fmt.Fprintln(s.out, "Failed to update student or student not found.")
	}
	return nil
}

func (s *Shell) deleteStudent() error {
	id, ok, err := s.promptID("Enter Student ID to delete: ")
	if err != nil || !ok {
		return err
	}
	if records.DeleteStudent(s.store, id) {
		fmt.Fprintln(s.out, "Student deleted.")
	} else {
		fmt.Fprintln(s.out, "Failed to delete student or student not found.")
	}
	return nil
}

func (s *Shell) calculateAverage() error {
	id, ok, err := s.promptID("Enter Student ID for average calculation: ")
	if err != nil || !ok {
		return err
	}
	if avg, found := records.CalculateAverage(s.store, id); found {
		fmt.Fprintf(s.out, "Average grade: %.2f\n", avg)
	} else {
		fmt.Fprintln(s.out, "No grades found or error occurred.")
	}
	return nil
}

// prompt writes label and reads one line of any length with its "\n" or
// "\r\n" terminator stripped. A final line without a terminator is still
// returned; errEOF is only reported once nothing is left to read.
func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		if line == "" {
			return "", errEOF
		}
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// promptID reads an ID. ok is false when the input was rejected, in which
// case "Invalid ID." has already been printed.
func (s *Shell) promptID(label string) (id int64, ok bool, err error) {
	raw, err := s.prompt(label)
	if err != nil {
		return 0, false, err
	}
	id, err = parser.ParseID(raw)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid ID.")
		return 0, false, nil
	}
	return id, true, nil
}

func (s *Shell) finish(err error) error {
	if errors.Is(err, errEOF) {
		fmt.Fprintln(s.out)
		return nil
	}
	return err
}

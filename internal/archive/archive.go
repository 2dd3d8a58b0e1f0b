package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"
	"go.yaml.in/yaml/v3"

	"github.com/conorfennell/gradebook/internal/domain"
	"github.com/conorfennell/gradebook/internal/storage"
)

// RosterFile is the name of the snapshot inside the archive directory.
const RosterFile = "roster.yaml"

// Source is the read side of the record store needed to build a roster.
type Source interface {
	ListStudents() ([]domain.Student, error)
	GradesByStudentID(studentID int64) ([]domain.Grade, error)
	AverageGrade(studentID int64) (float64, error)
}

// Roster is the document written to RosterFile.
type Roster struct {
	Students []StudentRecord `yaml:"students"`
}

// StudentRecord is one student in a roster snapshot. Average is omitted
// for students without grades.
type StudentRecord struct {
	ID      int64     `yaml:"id"`
	Name    string    `yaml:"name"`
	Grades  []float64 `yaml:"grades,omitempty"`
	Average *float64  `yaml:"average,omitempty"`
}

// BuildRoster reads every student with their grades and average.
func BuildRoster(src Source) (*Roster, error) {
	students, err := src.ListStudents()
	if err != nil {
		return nil, err
	}

	roster := &Roster{Students: make([]StudentRecord, 0, len(students))}
	for _, s := range students {
		rec := StudentRecord{ID: s.ID, Name: s.Name}

		grades, err := src.GradesByStudentID(s.ID)
		if err != nil {
			return nil, err
		}
		for _, g := range grades {
			rec.Grades = append(rec.Grades, g.Value)
		}

		avg, err := src.AverageGrade(s.ID)
		switch {
		case err == nil:
			rec.Average = &avg
		case !errors.Is(err, storage.ErrNoGrades):
			return nil, err
		}

		roster.Students = append(roster.Students, rec)
	}
	return roster, nil
}

// Snapshot writes the current roster into dir and commits it. dir is
// initialised as a git repository if it isn't one already. It returns the
// new commit hash, or "" when the roster matches the last commit.
func Snapshot(src Source, dir string, now time.Time) (string, error) {
	roster, err := BuildRoster(src)
	if err != nil {
		return "", fmt.Errorf("failed to build roster: %w", err)
	}

	data, err := yaml.Marshal(roster)
	if err != nil {
		return "", fmt.Errorf("failed to encode roster: %w", err)
	}

	repo, err := openOrInit(dir)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(dir, RosterFile), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write roster to %s: %w", dir, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree for archive at %s: %w", dir, err)
	}

	if _, err := worktree.Add(RosterFile); err != nil {
		return "", fmt.Errorf("failed to stage roster in %s: %w", dir, err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status for archive at %s: %w", dir, err)
	}
	if fs, changed := status[RosterFile]; !changed || fs.Staging == git.Unmodified {
		log.Info().Str("dir", dir).Msg("Roster unchanged since last snapshot")
		return "", nil
	}

	hash, err := worktree.Commit(fmt.Sprintf("Roster snapshot %s", now.Format(time.RFC3339)), &git.CommitOptions{
		Author: &object.Signature{
			Name:  "gradebook",
			Email: "gradebook@localhost",
			When:  now,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit roster in %s: %w", dir, err)
	}

	log.Info().
		Str("dir", dir).
		Str("commit", hash.String()).
		Int("students", len(roster.Students)).
		Msg("Roster snapshot committed")
	return hash.String(), nil
}

func openOrInit(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("failed to open archive repo at %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory %s: %w", dir, err)
	}
	log.Info().Str("dir", dir).Msg("Initialising archive repository")
	repo, err = git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to init archive repo at %s: %w", dir, err)
	}
	return repo, nil
}

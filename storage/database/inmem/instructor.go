package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/instructor"
)

type instructorRepository struct {
	db *DB
}

var _ instructor.Repository = (*instructorRepository)(nil) // interface compliance check

func NewInstructorRepository(db *DB) instructor.Repository {
	return &instructorRepository{db: db}
}

func (repo *instructorRepository) live() []instructor.Instructor {
	insts := make([]instructor.Instructor, 0, len(repo.db.t.instructors))
	for _, inst := range repo.db.t.instructors {
		if inst.DeletedAt == nil {
			insts = append(insts, inst)
		}
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].ID < insts[j].ID })
	return insts
}

func (repo *instructorRepository) GetInstructor(ctx context.Context, id string) (instructor.Instructor, error) {
	defer repo.db.lock(ctx)()

	if inst, ok := repo.db.t.instructors[id]; ok && inst.DeletedAt == nil {
		return inst, nil
	}
	return instructor.Instructor{}, core.NewNotFoundError("instructor", id)
}

func (repo *instructorRepository) QueryInstructors(ctx context.Context) ([]instructor.Instructor, error) {
	defer repo.db.lock(ctx)()
	return repo.live(), nil
}

// SaveInstructor inserts or replaces an instructor. The directory is owned elsewhere; this feeds tests and tooling.
func (db *DB) SaveInstructor(inst instructor.Instructor) instructor.Instructor {
	db.mu.Lock()
	defer db.mu.Unlock()

	if inst.ID == "" {
		inst.ID = newID()
	}
	db.t.instructors[inst.ID] = inst
	return inst
}

package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/instructor"
)

type instructorRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	DeletedAt null.Time `db:"deleted_at"`
}

func (r instructorRow) toInstructor() instructor.Instructor {
	return instructor.Instructor{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		CreatedAt: r.CreatedAt.UTC(),
		DeletedAt: r.DeletedAt.Ptr(),
	}
}

const instructorColumns = "id, name, email, created_at, deleted_at"

type instructorRepository struct {
	db *DB
}

var _ instructor.Repository = (*instructorRepository)(nil) // interface compliance check

func NewInstructorRepository(db *DB) instructor.Repository {
	return &instructorRepository{db: db}
}

func (repo *instructorRepository) GetInstructor(ctx context.Context, id string) (instructor.Instructor, error) {
	if !validID(id) {
		return instructor.Instructor{}, core.NewNotFoundError("instructor", id)
	}
	w := liveWhere().add("id = ?", id)

	var row instructorRow
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, "SELECT "+instructorColumns+" FROM instructors "+w.String(), w.args...); err != nil {
		return instructor.Instructor{}, trapNoRowsErr(err, "instructor", id, "getting instructor")
	}
	return row.toInstructor(), nil
}

func (repo *instructorRepository) QueryInstructors(ctx context.Context) ([]instructor.Instructor, error) {
	var rows []instructorRow
	q := "SELECT " + instructorColumns + " FROM instructors " + liveWhere().String() + " ORDER BY id"
	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &rows, q); err != nil {
		return nil, mapErr(err, "querying instructors")
	}
	insts := make([]instructor.Instructor, 0, len(rows))
	for _, r := range rows {
		insts = append(insts, r.toInstructor())
	}
	return insts, nil
}

package instructor

import (
	"context"
	"time"
)

type Instructor struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

// Repository reads the instructor directory. Tombstoned instructors are never returned.
type Repository interface {
	GetInstructor(ctx context.Context, id string) (Instructor, error)
	QueryInstructors(ctx context.Context) ([]Instructor, error)
}

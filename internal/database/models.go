package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table row. Email is stored lower-cased; the unique
// constraint on it is the final authority for duplicate signups.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash *string   `bun:"password_hash"`
	GoogleID     *string   `bun:"google_id"`
	ImageURL     *string   `bun:"image_url"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Task is the tasks table row. OwnerID is denormalized so owner scoping
// is a plain query predicate, never a join.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	OwnerID     uuid.UUID  `bun:"owner_id,notnull,type:uuid"`
	Title       string     `bun:"title,notnull"`
	Description string     `bun:"description,notnull,default:''"`
	DueDate     *time.Time `bun:"due_date"`
	Priority    string     `bun:"priority,notnull"`
	Status      string     `bun:"status,notnull"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

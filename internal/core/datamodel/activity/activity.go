package activity

import "database/sql"

// Entry is one row of the append-only activity_logs table. CreatedAt is
// assigned by the database and may be NULL for rows written by older clients.
type Entry struct {
	ID        string       `db:"id" gorm:"primaryKey;size:36"`
	UserID    string       `db:"user_id" gorm:"column:user_id;size:64;index;not null"`
	Action    string       `db:"action" gorm:"column:action;size:64;not null"`
	CreatedAt sql.NullTime `db:"created_at" gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "activity_logs"
}

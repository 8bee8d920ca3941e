package subject

import "time"

// Defaults exist for every caller and can never be deleted.
var Defaults = []string{"Math", "History", "Science", "Literature"}

// IsDefault reports whether name is one of Defaults.
func IsDefault(name string) bool {
	for _, d := range Defaults {
		if d == name {
			return true
		}
	}
	return false
}

// UserSubject is a custom subject owned by one user ("guest" included).
type UserSubject struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	Owner     string    `gorm:"type:varchar(255);not null;index:uniq_owner_subject,unique,priority:1" json:"user"`
	Subject   string    `gorm:"type:varchar(128);not null;index:uniq_owner_subject,unique,priority:2" json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserSubject) TableName() string { return "user_subjects" }

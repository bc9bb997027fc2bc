package models

import "time"

// Student represents a learner enrolled in a class. UserID links the student
// to the account that receives result notifications.
type Student struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"size:64;index" json:"user_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	StudentNo  string    `gorm:"size:64" json:"student_no"`
	RollNumber int       `gorm:"not null;default:0" json:"roll_number"`
	Section    string    `gorm:"size:32" json:"section"`
	ClassName  string    `gorm:"size:64;index" json:"class_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

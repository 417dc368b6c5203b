// model.go this code defines the data model for the application
package datastore

import (
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SubjectName is the closed set of subjects the application serves. It is the
// single definition consumed by request validation and by the Subject model.
type SubjectName string

const (
	SubjectMaths   SubjectName = "maths"
	SubjectScience SubjectName = "science"
	SubjectHistory SubjectName = "history"
)

var allSubjects = []SubjectName{SubjectMaths, SubjectScience, SubjectHistory}

// AllSubjects returns the enumerated subjects in declaration order
func AllSubjects() []SubjectName {
	return slices.Clone(allSubjects)
}

// Valid reports whether s is one of the enumerated subjects
func (s SubjectName) Valid() bool {
	return slices.Contains(allSubjects, s)
}

func (s SubjectName) String() string {
	return string(s)
}

// ParseSubject normalizes raw input (trim, then lowercase) and reports whether
// the result is an enumerated subject.
func ParseSubject(raw string) (SubjectName, bool) {
	name := SubjectName(strings.ToLower(strings.TrimSpace(raw)))
	return name, name.Valid()
}

// Subject is a course area that owns notes and question papers
type Subject struct {
	ID             uint            `gorm:"primaryKey"`
	Name           SubjectName     `gorm:"type:varchar(20);uniqueIndex;not null"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	Notes          []Note          `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
	QuestionPapers []QuestionPaper `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE"`
}

// BeforeSave rejects names outside the enumeration
func (s *Subject) BeforeSave(_ *gorm.DB) error {
	if !s.Name.Valid() {
		return validationError("subject name must be one of maths, science, history", "name", s.Name)
	}
	return nil
}

// Note is a text study note belonging to a subject
type Note struct {
	ID        uint      `gorm:"primaryKey"`
	SubjectID uint      `gorm:"index;not null"`
	Title     string    `gorm:"type:varchar(200);not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// QuestionPaper is a downloadable PDF belonging to a subject.
// File is relative to the media root, e.g. "question_papers/maths-2023.pdf".
type QuestionPaper struct {
	ID        uint      `gorm:"primaryKey"`
	SubjectID uint      `gorm:"index;not null"`
	Title     string    `gorm:"type:varchar(200);not null"`
	File      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// UploadDir is the media subdirectory question papers are stored under
const UploadDir = "question_papers"

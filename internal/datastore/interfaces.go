// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// Interface abstracts the underlying database implementation
type Interface interface {
	Open() error
	Close() error
	Ping(ctx context.Context) error

	GetSubjectByName(ctx context.Context, name SubjectName) (*Subject, error)
	ListNotes(ctx context.Context, subjectID uint) ([]Note, error)
	ListQuestionPapers(ctx context.Context, subjectID uint) ([]QuestionPaper, error)
	GetQuestionPaper(ctx context.Context, id uint) (*QuestionPaper, error)

	// Seeding and data entry, used by the migrate command and tests
	SeedSubjects(ctx context.Context) (int, error)
	SaveNote(ctx context.Context, note *Note) error
	SaveQuestionPaper(ctx context.Context, paper *QuestionPaper) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a store for the enabled backend. Validation guarantees exactly
// one is enabled; nil is returned otherwise.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// performAutoMigration brings the schema up to date for all models
func performAutoMigration(db *gorm.DB, dbType string) error {
	start := time.Now()
	if err := db.AutoMigrate(&Subject{}, &Note{}, &QuestionPaper{}); err != nil {
		return dbError(err, "auto_migrate", "db_type", dbType)
	}
	GetLogger().Debug("database migration complete",
		logger.String("db_type", dbType),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

func (ds *DataStore) checkOpen() error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// Ping verifies database connectivity
func (ds *DataStore) Ping(ctx context.Context) error {
	if err := ds.checkOpen(); err != nil {
		return err
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "ping")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dbError(err, "ping")
	}
	return nil
}

// closeDB releases the underlying connection pool
func (ds *DataStore) closeDB() error {
	if err := ds.checkOpen(); err != nil {
		return err
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	return nil
}

// GetSubjectByName looks up a subject row by its enumerated name
func (ds *DataStore) GetSubjectByName(ctx context.Context, name SubjectName) (*Subject, error) {
	if err := ds.checkOpen(); err != nil {
		return nil, err
	}
	var subject Subject
	err := ds.DB.WithContext(ctx).Where("name = ?", name).First(&subject).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("subject", name)
		}
		return nil, dbError(err, "get_subject", "subject", string(name))
	}
	return &subject, nil
}

// ListNotes returns a subject's notes in primary key order
func (ds *DataStore) ListNotes(ctx context.Context, subjectID uint) ([]Note, error) {
	if err := ds.checkOpen(); err != nil {
		return nil, err
	}
	notes := []Note{}
	err := ds.DB.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("id ASC").
		Find(&notes).Error
	if err != nil {
		return nil, dbError(err, "list_notes", "subject_id", subjectID)
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

// ListQuestionPapers returns a subject's question papers in primary key order
func (ds *DataStore) ListQuestionPapers(ctx context.Context, subjectID uint) ([]QuestionPaper, error) {
	if err := ds.checkOpen(); err != nil {
		return nil, err
	}
	papers := []QuestionPaper{}
	err := ds.DB.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("id ASC").
		Find(&papers).Error
	if err != nil {
		return nil, dbError(err, "list_question_papers", "subject_id", subjectID)
	}
	if papers == nil {
		papers = []QuestionPaper{}
	}
	return papers, nil
}

// GetQuestionPaper fetches one question paper by id
func (ds *DataStore) GetQuestionPaper(ctx context.Context, id uint) (*QuestionPaper, error) {
	if err := ds.checkOpen(); err != nil {
		return nil, err
	}
	var paper QuestionPaper
	err := ds.DB.WithContext(ctx).First(&paper, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("question paper", id)
		}
		return nil, dbError(err, "get_question_paper", "id", id)
	}
	return &paper, nil
}

// SeedSubjects inserts any enumerated subject that has no row yet and
// returns how many were created.
func (ds *DataStore) SeedSubjects(ctx context.Context) (int, error) {
	if err := ds.checkOpen(); err != nil {
		return 0, err
	}
	created := 0
	for _, name := range AllSubjects() {
		subject := Subject{Name: name}
		result := ds.DB.WithContext(ctx).Where(Subject{Name: name}).FirstOrCreate(&subject)
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				continue
			}
			return created, dbError(result.Error, "seed_subjects", "subject", string(name))
		}
		if result.RowsAffected > 0 {
			created++
			GetLogger().Info("subject seeded", logger.String("subject", string(name)))
		}
	}
	return created, nil
}

// SaveNote inserts or updates a note
func (ds *DataStore) SaveNote(ctx context.Context, note *Note) error {
	if err := ds.checkOpen(); err != nil {
		return err
	}
	if err := ds.DB.WithContext(ctx).Save(note).Error; err != nil {
		return dbError(err, "save_note", "subject_id", note.SubjectID)
	}
	return nil
}

// SaveQuestionPaper inserts or updates a question paper
func (ds *DataStore) SaveQuestionPaper(ctx context.Context, paper *QuestionPaper) error {
	if err := ds.checkOpen(); err != nil {
		return err
	}
	if err := ds.DB.WithContext(ctx).Save(paper).Error; err != nil {
		return dbError(err, "save_question_paper", "subject_id", paper.SubjectID)
	}
	return nil
}

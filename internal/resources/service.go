// Package resources assembles the notes and question papers published for a
// subject.
package resources

import (
	"context"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/edulearn/edulearn-api/internal/datastore"
	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// Store is the subset of the datastore the service reads from
type Store interface {
	GetSubjectByName(ctx context.Context, name datastore.SubjectName) (*datastore.Subject, error)
	ListNotes(ctx context.Context, subjectID uint) ([]datastore.Note, error)
	ListQuestionPapers(ctx context.Context, subjectID uint) ([]datastore.QuestionPaper, error)
}

// NoteSummary is a note as listed for a subject
type NoteSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PaperSummary is a question paper as listed for a subject. The stored file
// path is deliberately absent.
type PaperSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Bundle is everything published for one subject
type Bundle struct {
	Subject        datastore.SubjectName `json:"subject"`
	Notes          []NoteSummary         `json:"notes"`
	QuestionPapers []PaperSummary        `json:"question_papers"`
	Message        string                `json:"message"`
}

// Service reads subject resources from the store
type Service struct {
	store Store
}

// NewService creates a resource service over store
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetLogger returns the resources module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("resources")
}

// Greeting returns the message shown with a subject's resources
func Greeting(name datastore.SubjectName) string {
	// Casers keep state and must not be shared between goroutines
	return "Resources for " + cases.Title(language.English).String(string(name)) + "!"
}

// GetResources returns the bundle for subjectName. Names outside the subject
// enumeration are rejected as not found without touching the store.
func (s *Service) GetResources(ctx context.Context, subjectName string) (*Bundle, error) {
	log := GetLogger().WithContext(ctx)

	name, ok := datastore.ParseSubject(subjectName)
	if !ok {
		log.Info("unknown subject requested", logger.String("subject", subjectName))
		return nil, subjectNotFound(string(name))
	}

	subject, err := s.store.GetSubjectByName(ctx, name)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Warn("subject has no record", logger.String("subject", string(name)))
			return nil, subjectNotFound(string(name))
		}
		return nil, s.storeError(ctx, err, "get_subject", name)
	}

	notes, err := s.store.ListNotes(ctx, subject.ID)
	if err != nil {
		return nil, s.storeError(ctx, err, "list_notes", name)
	}

	papers, err := s.store.ListQuestionPapers(ctx, subject.ID)
	if err != nil {
		return nil, s.storeError(ctx, err, "list_question_papers", name)
	}

	bundle := &Bundle{
		Subject:        subject.Name,
		Notes:          make([]NoteSummary, 0, len(notes)),
		QuestionPapers: make([]PaperSummary, 0, len(papers)),
		Message:        Greeting(subject.Name),
	}
	for i := range notes {
		bundle.Notes = append(bundle.Notes, NoteSummary{
			ID:        notes[i].ID,
			Title:     notes[i].Title,
			Content:   notes[i].Content,
			CreatedAt: notes[i].CreatedAt,
		})
	}
	for i := range papers {
		bundle.QuestionPapers = append(bundle.QuestionPapers, PaperSummary{
			ID:        papers[i].ID,
			Title:     papers[i].Title,
			CreatedAt: papers[i].CreatedAt,
		})
	}

	log.Info("retrieved resources for subject",
		logger.String("subject", string(subject.Name)),
		logger.Int("notes", len(bundle.Notes)),
		logger.Int("question_papers", len(bundle.QuestionPapers)))
	return bundle, nil
}

func subjectNotFound(name string) error {
	return errors.Newf("Subject '%s' not found", name).
		Component("resources").
		Category(errors.CategoryNotFound).
		Context("operation", "get_resources").
		Context("subject", name).
		Build()
}

// storeError turns any store failure into an internal error; the cause is
// logged, not returned to the caller.
func (s *Service) storeError(ctx context.Context, err error, operation string, name datastore.SubjectName) error {
	GetLogger().WithContext(ctx).Error("error retrieving resources",
		logger.String("operation", operation),
		logger.String("subject", string(name)),
		logger.Error(err))
	return errors.New(err).
		Component("resources").
		Category(errors.CategoryInternal).
		Context("operation", operation).
		Context("subject", string(name)).
		Build()
}

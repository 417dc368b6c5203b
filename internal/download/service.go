// Package download resolves question papers to readable PDF files under the
// media root.
package download

import (
	"context"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/edulearn/edulearn-api/internal/datastore"
	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
	"github.com/edulearn/edulearn-api/internal/securefs"
)

// ContentType is the media type every question paper is served as
const ContentType = "application/pdf"

// Store looks up question paper records
type Store interface {
	GetQuestionPaper(ctx context.Context, id uint) (*datastore.QuestionPaper, error)
}

// File is an open question paper ready to stream. The caller closes Content.
type File struct {
	Name        string
	Title       string
	ContentType string
	Size        int64
	ModTime     time.Time
	Content     io.ReadSeekCloser
}

// Service opens question papers for download
type Service struct {
	store Store
	media *securefs.SecureFS
}

// NewService creates a download service reading files from media
func NewService(store Store, media *securefs.SecureFS) *Service {
	return &Service{store: store, media: media}
}

// GetLogger returns the download module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("download")
}

// Open resolves id to its file. A missing record, a missing file and a path
// that escapes the media root are all reported as not found.
func (s *Service) Open(ctx context.Context, id uint) (*File, error) {
	log := GetLogger().WithContext(ctx).With(logger.Uint("question_paper_id", id))

	paper, err := s.store.GetQuestionPaper(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Info("question paper does not exist")
			return nil, paperNotFound(id, "Question paper not found")
		}
		log.Error("question paper lookup failed", logger.Error(err))
		return nil, errors.New(err).
			Component("download").
			Category(errors.CategoryInternal).
			Context("operation", "get_question_paper").
			Context("question_paper_id", id).
			Build()
	}

	log = log.With(logger.String("file", paper.File))

	file, info, err := s.media.OpenRegular(paper.File)
	switch {
	case err == nil:
	case securefs.IsEscape(err):
		log.Warn("question paper path escapes media root", logger.Error(err))
		return nil, paperNotFound(id, "Question paper file not found")
	case errors.Is(err, fs.ErrNotExist):
		log.Error("question paper file not found")
		return nil, paperNotFound(id, "Question paper file not found")
	default:
		log.Error("error opening question paper", logger.Error(err))
		return nil, errors.New(err).
			Component("download").
			Category(errors.CategoryFileIO).
			Context("operation", "open_file").
			Context("question_paper_id", id).
			Build()
	}

	log.Info("serving question paper",
		logger.String("title", paper.Title),
		logger.Int64("size", info.Size()))

	return &File{
		Name:        path.Base(paper.File),
		Title:       paper.Title,
		ContentType: ContentType,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Content:     file,
	}, nil
}

func paperNotFound(id uint, message string) error {
	return errors.Newf("%s", message).
		Component("download").
		Category(errors.CategoryNotFound).
		Context("operation", "download").
		Context("question_paper_id", id).
		Build()
}

package download

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/datastore"
	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/securefs"
)

const samplePDF = "%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n%%EOF\n"

type fixture struct {
	store   datastore.Interface
	media   *securefs.SecureFS
	subject *datastore.Subject
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = ":memory:"
	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	_, err := store.SeedSubjects(t.Context())
	require.NoError(t, err)
	subject, err := store.GetSubjectByName(t.Context(), datastore.SubjectMaths)
	require.NoError(t, err)

	media, err := securefs.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = media.Close() })

	return &fixture{store: store, media: media, subject: subject, svc: NewService(store, media)}
}

func (f *fixture) addPaper(t *testing.T, file string) *datastore.QuestionPaper {
	t.Helper()
	paper := &datastore.QuestionPaper{SubjectID: f.subject.ID, Title: "Maths 2023", File: file}
	require.NoError(t, f.store.SaveQuestionPaper(t.Context(), paper))
	return paper
}

func TestOpenServesFile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.media.WriteFile("question_papers/maths-2023.pdf", []byte(samplePDF), 0o600))
	paper := f.addPaper(t, "question_papers/maths-2023.pdf")

	file, err := f.svc.Open(t.Context(), paper.ID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Content.Close() })

	assert.Equal(t, "maths-2023.pdf", file.Name)
	assert.Equal(t, "Maths 2023", file.Title)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, int64(len(samplePDF)), file.Size)
	assert.False(t, file.ModTime.IsZero())

	body, err := io.ReadAll(file.Content)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, string(body))
}

func TestOpenUnknownID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	file, err := f.svc.Open(t.Context(), 9999)
	require.Error(t, err)
	assert.Nil(t, file)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "Question paper not found", err.Error())
}

func TestOpenRemovedFile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.media.WriteFile("question_papers/old.pdf", []byte(samplePDF), 0o600))
	paper := f.addPaper(t, "question_papers/old.pdf")
	require.NoError(t, f.media.Remove("question_papers/old.pdf"))

	file, err := f.svc.Open(t.Context(), paper.ID)
	require.Error(t, err)
	assert.Nil(t, file)
	assert.True(t, errors.IsNotFound(err), "a removed file is not found, not an internal error")
	assert.Equal(t, "Question paper file not found", err.Error())
}

func TestOpenPathEscapingRoot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, stored := range []string{"../outside.pdf", "/etc/passwd", "question_papers/../../x.pdf"} {
		t.Run(stored, func(t *testing.T) {
			paper := f.addPaper(t, stored)
			file, err := f.svc.Open(t.Context(), paper.ID)
			require.Error(t, err)
			assert.Nil(t, file)
			assert.True(t, errors.IsNotFound(err))
		})
	}
}

func TestOpenDirectoryIsInternal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.media.MkdirAll("question_papers/folder.pdf", 0o750))
	paper := f.addPaper(t, "question_papers/folder.pdf")

	_, err := f.svc.Open(t.Context(), paper.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryFileIO, errors.CategoryOf(err))
}

func TestOpenUnreadableFileIsInternal(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.media.WriteFile("question_papers/locked.pdf", []byte(samplePDF), 0o600))
	require.NoError(t, os.Chmod(filepath.Join(f.media.BaseDir(), "question_papers", "locked.pdf"), 0o000))
	paper := f.addPaper(t, "question_papers/locked.pdf")

	_, err := f.svc.Open(t.Context(), paper.ID)
	require.Error(t, err)
	assert.False(t, errors.IsNotFound(err))
	assert.Equal(t, errors.CategoryFileIO, errors.CategoryOf(err))
}

// failingStore returns a database error for every lookup
type failingStore struct{}

func (failingStore) GetQuestionPaper(context.Context, uint) (*datastore.QuestionPaper, error) {
	return nil, errors.Newf("database is locked").Category(errors.CategoryDatabase).Build()
}

func TestOpenStoreFailureIsInternal(t *testing.T) {
	t.Parallel()

	media, err := securefs.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = media.Close() })

	_, err = NewService(failingStore{}, media).Open(t.Context(), 1)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryInternal, errors.CategoryOf(err))
}

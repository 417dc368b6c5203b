package datastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulearn/edulearn-api/internal/conf"
)

func newFileStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = path

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestExportCopiesRowsAndRemapsSubjects(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	dir := t.TempDir()

	src := newFileStore(t, filepath.Join(dir, "source.db"))
	// Create subjects in reverse order so source and target ids differ
	for _, name := range []SubjectName{SubjectHistory, SubjectScience, SubjectMaths} {
		require.NoError(t, src.DB.Create(&Subject{Name: name}).Error)
	}
	srcMaths, err := src.GetSubjectByName(ctx, SubjectMaths)
	require.NoError(t, err)
	for i := range 7 {
		require.NoError(t, src.SaveNote(ctx, &Note{SubjectID: srcMaths.ID, Title: "Note", Content: string(rune('a' + i))}))
	}
	paper := &QuestionPaper{SubjectID: srcMaths.ID, Title: "Maths 2023", File: "question_papers/maths-2023.pdf"}
	require.NoError(t, src.SaveQuestionPaper(ctx, paper))

	dst := newFileStore(t, filepath.Join(dir, "target.db"))
	_, err = dst.SeedSubjects(ctx)
	require.NoError(t, err)

	stats, err := Export(ctx, src, dst, 3)
	require.NoError(t, err)
	require.Len(t, stats.Tables, 3)
	assert.Equal(t, int64(3), stats.Tables[0].Copied)
	assert.Equal(t, int64(7), stats.Tables[1].Copied)
	assert.Equal(t, int64(1), stats.Tables[2].Copied)
	assert.Equal(t, int64(11), stats.Total())

	dstMaths, err := dst.GetSubjectByName(ctx, SubjectMaths)
	require.NoError(t, err)
	assert.NotEqual(t, srcMaths.ID, dstMaths.ID, "fixture should exercise id remapping")

	notes, err := dst.ListNotes(ctx, dstMaths.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 7)

	got, err := dst.GetQuestionPaper(ctx, paper.ID)
	require.NoError(t, err, "question paper keeps its primary key")
	assert.Equal(t, dstMaths.ID, got.SubjectID)
	assert.Equal(t, paper.File, got.File)

	mismatches, err := VerifyExport(ctx, src, dst)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	// Running again overwrites instead of duplicating
	_, err = Export(ctx, src, dst, 0)
	require.NoError(t, err)
	notes, err = dst.ListNotes(ctx, dstMaths.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 7)
}

func TestExportCountsRowsAcrossBatches(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	src := newTestStore(t)
	_, err := src.SeedSubjects(ctx)
	require.NoError(t, err)
	science, err := src.GetSubjectByName(ctx, SubjectScience)
	require.NoError(t, err)
	for i := range 5 {
		require.NoError(t, src.SaveNote(ctx, &Note{SubjectID: science.ID, Title: "Note", Content: string(rune('a' + i))}))
	}

	dst := newTestStore(t)

	// 5 rows in batches of 2 gives three callbacks of 2, 2 and 1 rows
	stats, err := Export(ctx, src, dst, 2)
	require.NoError(t, err)
	require.Len(t, stats.Tables, 3)
	assert.Equal(t, "notes", stats.Tables[1].Table)
	assert.Equal(t, int64(5), stats.Tables[1].Copied)
	assert.Equal(t, int64(0), stats.Tables[2].Copied)
	assert.Equal(t, int64(8), stats.Total())
}

func TestVerifyExportReportsMissingRows(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	src := newTestStore(t)
	_, err := src.SeedSubjects(ctx)
	require.NoError(t, err)
	maths, err := src.GetSubjectByName(ctx, SubjectMaths)
	require.NoError(t, err)
	require.NoError(t, src.SaveQuestionPaper(ctx, &QuestionPaper{SubjectID: maths.ID, Title: "P", File: "question_papers/p.pdf"}))

	dst := newTestStore(t)

	mismatches, err := VerifyExport(ctx, src, dst)
	require.NoError(t, err)
	require.Len(t, mismatches, 2)
	assert.Equal(t, "subjects: 3 row(s) missing", mismatches[0].String())
	assert.Equal(t, Mismatch{Table: "question_papers", Missing: 1}, mismatches[1])
}

func TestExportRequiresOpenStores(t *testing.T) {
	t.Parallel()

	closed := &SQLiteStore{Settings: &conf.Settings{}}
	_, err := Export(t.Context(), closed, newTestStore(t), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

//go:build integration

package datastore

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/edulearn/edulearn-api/internal/conf"
)

func TestMySQLStoreIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 3*time.Minute)
	defer cancel()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("edulearn"),
		tcmysql.WithUsername("edulearn"),
		tcmysql.WithPassword("edulearn"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(endpoint)
	require.NoError(t, err)

	settings := &conf.Settings{}
	settings.Output.MySQL = conf.MySQLSettings{
		Enabled:  true,
		Username: "edulearn",
		Password: "edulearn",
		Database: "edulearn",
		Host:     host,
		Port:     port,
	}

	store := New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(ctx))

	created, err := store.SeedSubjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	maths, err := store.GetSubjectByName(ctx, SubjectMaths)
	require.NoError(t, err)

	require.NoError(t, store.SaveNote(ctx, &Note{SubjectID: maths.ID, Title: "Fractions", Content: "Halves and quarters"}))
	notes, err := store.ListNotes(ctx, maths.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Fractions", notes[0].Title)

	papers, err := store.ListQuestionPapers(ctx, maths.ID)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

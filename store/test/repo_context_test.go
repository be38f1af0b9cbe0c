package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/feeta/store"
)

func TestRepoContextStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	fullName := "octo/" + t.Name()

	missing, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: fullName})
	require.NoError(t, err)
	require.Nil(t, missing)

	projectContext := &store.ProjectContext{
		ProjectSummary: "A task planner",
		TechStack: store.TechStack{
			Language:         "Go",
			FrameworkBackend: "echo",
			KeyLibraries:     []string{"genai"},
		},
		ArchitectureOverview: "layered",
		KeyModules: []store.KeyModule{
			{ModuleName: "planner", Description: "plans", RelevantFiles: []string{"plan.go"}},
		},
	}
	created, err := ts.UpsertRepoContext(ctx, &store.UpsertRepoContext{
		FullName: fullName,
		Context:  projectContext,
		Language: "Go",
		Metadata: store.RepoContextMetadata{FileCount: 42, HasReadme: true, TechStack: projectContext.TechStack},
	})
	require.NoError(t, err)
	require.Equal(t, fullName, created.FullName)
	require.Equal(t, int32(1), created.AccessCount)
	require.Equal(t, projectContext, created.Context)
	require.Equal(t, 42, created.Metadata.FileCount)
	require.True(t, created.Metadata.HasReadme)

	got, err := ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: fullName})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, int32(2), got.AccessCount)
	require.Equal(t, projectContext, got.Context)

	got, err = ts.GetRepoContext(ctx, &store.FindRepoContext{FullName: fullName})
	require.NoError(t, err)
	require.Equal(t, int32(3), got.AccessCount)

	// Upsert keeps a single row per full name and still counts the access.
	projectContext.ProjectSummary = "A better task planner"
	updated, err := ts.UpsertRepoContext(ctx, &store.UpsertRepoContext{
		FullName: fullName,
		Context:  projectContext,
		Language: "Go",
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, int32(4), updated.AccessCount)
	require.Equal(t, "A better task planner", updated.Context.ProjectSummary)
	require.Equal(t, 0, updated.Metadata.FileCount)
}

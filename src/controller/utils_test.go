package controller

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordermonitor/src/model"
)

type recordingJournal struct {
	created []*model.Exception
	err     error
}

func (r *recordingJournal) Create(_ context.Context, exc *model.Exception) error {
	r.created = append(r.created, exc)
	return r.err
}

func TestCaptureIgnoresNilError(t *testing.T) {
	repo := &recordingJournal{}
	Capture(context.Background(), repo, "svc", "mod", "m", "error", nil, nil)
	assert.Empty(t, repo.created)
}

func TestCapturePersistsException(t *testing.T) {
	repo := &recordingJournal{}
	Capture(context.Background(), repo, "svc", "bulk", "resolve_selected", "error",
		errors.New("boom"), map[string]interface{}{"order_ids": []string{"1", "2"}})

	require.Len(t, repo.created, 1)
	exc := repo.created[0]
	assert.Equal(t, "svc", exc.Service)
	assert.Equal(t, "bulk", exc.Module)
	assert.Equal(t, "resolve_selected", exc.Method)
	assert.Equal(t, "boom", exc.Message)
	assert.Equal(t, "error", exc.Level)
	assert.NotEmpty(t, exc.Stack)
	assert.False(t, exc.CreatedAt.IsZero())

	var ctx map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(exc.Context), &ctx))
	assert.Equal(t, []interface{}{"1", "2"}, ctx["order_ids"])
}

func TestCaptureSurvivesJournalFailure(t *testing.T) {
	repo := &recordingJournal{err: errors.New("db down")}
	assert.NotPanics(t, func() {
		Capture(context.Background(), repo, "svc", "mod", "m", "error", errors.New("boom"), nil)
	})
	require.Len(t, repo.created, 1)
	assert.Empty(t, repo.created[0].Context)
}

func TestCaptureWithoutJournal(t *testing.T) {
	assert.NotPanics(t, func() {
		Capture(context.Background(), nil, "svc", "mod", "m", "error", errors.New("boom"), nil)
	})
}

func TestCapturerUsesConfiguredService(t *testing.T) {
	t.Setenv("SERVICE_NAME", "monitor_test")
	t.Setenv("CAPTURE_LEVEL", "warn")

	repo := &recordingJournal{}
	capture := Capturer(repo, "maintenance")
	capture(context.Background(), "toggle", errors.New("rejected"), nil)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "monitor_test", repo.created[0].Service)
	assert.Equal(t, "maintenance", repo.created[0].Module)
	assert.Equal(t, "toggle", repo.created[0].Method)
	assert.Equal(t, "warn", repo.created[0].Level)
}

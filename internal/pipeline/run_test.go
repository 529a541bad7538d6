package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courseflags/internal/config"
	"courseflags/internal/storage"
)

func writeInputs(t *testing.T, cfg config.Config, primary [][]any) {
	t.Helper()
	require.NoError(t, os.WriteFile(cfg.PrimaryPath, mkXLSX(t, primary), 0o644))
	require.NoError(t, os.WriteFile(cfg.UERefPath, []byte("\xEF\xBB\xBFCourse Code,Course Name\nmath101,Calculus\n PHYS201 ,Physics\nmath101,Calculus again\n"), 0o644))
	require.NoError(t, os.WriteFile(cfg.URRefPath, []byte("Code\nphys201\nCHEM100\n\n"), 0o644))
}

func TestRunSmoke(t *testing.T) {
	cfg := config.ForDir(t.TempDir())
	writeInputs(t, cfg, [][]any{
		{"Title", "Course Code", "Credits"},
		{"Calculus", " math101 ", 3},
		{"Chemistry", "CHEM100", 4},
		{"Physics", "phys201", 4},
		{"Mystery", nil, 1},
		{"Biology", "BIO110", 3},
	})

	res, err := NewAnnotationService(cfg, nil).Run()
	require.NoError(t, err)
	assert.Equal(t, cfg.OutputPath, res.OutputPath)
	assert.Equal(t, AnnotateStats{Rows: 5, UEYes: 2, URYes: 2}, res.Stats)
	assert.Equal(t, 2, res.UERefSize)
	assert.Equal(t, 2, res.URRefSize)
	assert.NotEmpty(t, res.TraceID)

	out, err := LoadTable(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Course Code", "Credits", "UE", "UR"}, out.Columns)

	want := [][]string{
		{"Calculus", " math101 ", "3", "yes", "no"},
		{"Chemistry", "CHEM100", "4", "no", "yes"},
		{"Physics", "phys201", "4", "yes", "yes"},
		{"Mystery", "", "1", "no", "no"},
		{"Biology", "BIO110", "3", "no", "no"},
	}
	require.Len(t, out.Rows, len(want))
	for i, row := range out.Rows {
		assert.Equal(t, want[i], texts(row), "row %d", i)
	}
}

func TestRunMissingCourseCodeWritesNothing(t *testing.T) {
	cfg := config.ForDir(t.TempDir())
	writeInputs(t, cfg, [][]any{
		{"Title", "Code"},
		{"Calculus", "MATH101"},
	})

	_, err := NewAnnotationService(cfg, nil).Run()
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, cfg.PrimaryPath, schemaErr.Source)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunMissingReferenceFails(t *testing.T) {
	cfg := config.ForDir(t.TempDir())
	writeInputs(t, cfg, [][]any{{"Course Code"}, {"A1"}})
	require.NoError(t, os.Remove(cfg.URRefPath))

	_, err := NewAnnotationService(cfg, nil).Run()
	require.Error(t, err)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := config.ForDir(dir)
	writeInputs(t, cfg, [][]any{{"Course Code"}, {"MATH101"}, {"X1"}})

	db, err := storage.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	res, err := NewAnnotationService(cfg, db).Run()
	require.NoError(t, err)

	runs, err := db.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.TraceID, runs[0].TraceID)
	assert.Equal(t, 2, runs[0].RowCount)
	assert.Equal(t, 1, runs[0].UEYes)
	assert.Equal(t, 0, runs[0].URYes)
	assert.Equal(t, cfg.OutputPath, runs[0].OutputPath)
	assert.Contains(t, runs[0].Timings, "totalMs")
}

func TestRunPrimaryWithBlankRows(t *testing.T) {
	cfg := config.ForDir(t.TempDir())
	writeInputs(t, cfg, [][]any{
		{},
		{"Course Code", "Title"},
		{"math101", "Calculus"},
		{},
		{"chem100", "Chemistry"},
	})

	res, err := NewAnnotationService(cfg, nil).Run()
	require.NoError(t, err)
	assert.Equal(t, AnnotateStats{Rows: 2, UEYes: 1, URYes: 1}, res.Stats)

	out, err := LoadTable(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Course Code", "Title", "UE", "UR"}, out.Columns)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, []string{"math101", "Calculus", "yes", "no"}, texts(out.Rows[0]))
	assert.Equal(t, []string{"chem100", "Chemistry", "no", "yes"}, texts(out.Rows[1]))
}

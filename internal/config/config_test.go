package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsRelativeToBaseDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BASE_DIR", dir)
	t.Setenv("ALL_COURSES_PATH", DefaultPrimaryFile)
	t.Setenv("UE_CODES_PATH", DefaultUEFile)
	t.Setenv("UR_CODES_PATH", DefaultURFile)
	t.Setenv("OUTPUT_PATH", DefaultOutputFile)
	t.Setenv("RUN_HISTORY_DB", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.BaseDir)
	assert.Equal(t, filepath.Join(dir, "ExportToExcel (36).xlsx"), cfg.PrimaryPath)
	assert.Equal(t, filepath.Join(dir, "ExportToExcel (37).csv"), cfg.UERefPath)
	assert.Equal(t, filepath.Join(dir, "ExportToExcel (38).csv"), cfg.URRefPath)
	assert.Equal(t, filepath.Join(dir, "all_courses_with_ue_ur2.xlsx"), cfg.OutputPath)
	assert.Empty(t, cfg.HistoryDBPath)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "out.xlsx")
	t.Setenv("BASE_DIR", dir)
	t.Setenv("UE_CODES_PATH", "refs/ue.csv")
	t.Setenv("OUTPUT_PATH", abs)
	t.Setenv("RUN_HISTORY_DB", "runs.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "refs", "ue.csv"), cfg.UERefPath)
	assert.Equal(t, abs, cfg.OutputPath)
	assert.Equal(t, filepath.Join(dir, "runs.db"), cfg.HistoryDBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBlankPathEnv(t *testing.T) {
	for _, key := range []string{"ALL_COURSES_PATH", "UE_CODES_PATH", "UR_CODES_PATH", "OUTPUT_PATH"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv("BASE_DIR", t.TempDir())
			t.Setenv(key, "  ")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidateRejectsOutputOverInput(t *testing.T) {
	cfg := ForDir(t.TempDir())
	require.NoError(t, cfg.Validate())

	cfg.OutputPath = cfg.PrimaryPath
	require.Error(t, cfg.Validate())

	cfg = ForDir(t.TempDir())
	cfg.UERefPath = " "
	require.Error(t, cfg.Validate())
}

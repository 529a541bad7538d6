package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPrimaryFile = "ExportToExcel (36).xlsx"
	DefaultUEFile      = "ExportToExcel (37).csv"
	DefaultURFile      = "ExportToExcel (38).csv"
	DefaultOutputFile  = "all_courses_with_ue_ur2.xlsx"
)

type Config struct {
	BaseDir string

	PrimaryPath string
	UERefPath   string
	URRefPath   string
	OutputPath  string

	HistoryDBPath string
	LogLevel      string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	baseDir, err := resolveBaseDir()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BaseDir: baseDir,

		HistoryDBPath: optionalPath(baseDir, getEnv("RUN_HISTORY_DB", "")),
		LogLevel:      getEnv("LOG_LEVEL", "warn"),
	}

	for _, p := range []struct {
		key, fallback string
		dst           *string
	}{
		{"ALL_COURSES_PATH", DefaultPrimaryFile, &cfg.PrimaryPath},
		{"UE_CODES_PATH", DefaultUEFile, &cfg.UERefPath},
		{"UR_CODES_PATH", DefaultURFile, &cfg.URRefPath},
		{"OUTPUT_PATH", DefaultOutputFile, &cfg.OutputPath},
	} {
		if *p.dst, err = pathEnv(baseDir, p.key, p.fallback); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// ForDir builds a config with the default file names rooted at dir.
func ForDir(dir string) Config {
	return Config{
		BaseDir:     dir,
		PrimaryPath: filepath.Join(dir, DefaultPrimaryFile),
		UERefPath:   filepath.Join(dir, DefaultUEFile),
		URRefPath:   filepath.Join(dir, DefaultURFile),
		OutputPath:  filepath.Join(dir, DefaultOutputFile),
		LogLevel:    "warn",
	}
}

func (c Config) Validate() error {
	for name, value := range map[string]string{
		"ALL_COURSES_PATH": c.PrimaryPath,
		"UE_CODES_PATH":    c.UERefPath,
		"UR_CODES_PATH":    c.URRefPath,
		"OUTPUT_PATH":      c.OutputPath,
	} {
		if err := c.Require(name, value); err != nil {
			return err
		}
	}
	out := filepath.Clean(c.OutputPath)
	for _, in := range []string{c.PrimaryPath, c.UERefPath, c.URRefPath} {
		if filepath.Clean(in) == out {
			return fmt.Errorf("output path %s would overwrite an input file", c.OutputPath)
		}
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func resolveBaseDir() (string, error) {
	if dir := strings.TrimSpace(getEnv("BASE_DIR", "")); dir != "" {
		return filepath.Abs(dir)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func resolvePath(baseDir, value string) string {
	if filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(baseDir, value)
}

// pathEnv resolves a required path setting. A variable that is set but blank
// is an error rather than a silent fallback to baseDir.
func pathEnv(baseDir, key, fallback string) (string, error) {
	value := getEnv(key, fallback)
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s is set but empty", key)
	}
	return resolvePath(baseDir, value), nil
}

func optionalPath(baseDir, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return resolvePath(baseDir, value)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

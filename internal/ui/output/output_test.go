package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	apperrors "amcli/internal/core/errors"
	"amcli/internal/shared/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, raw string) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimRight(raw, "\n"), "\n")
	require.Len(t, lines, 1, "expected exactly one JSON line, got %q", raw)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &doc))
	return doc
}

func TestJSON_Success(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := New(JSON, &stdout, &stderr, nil)
	assert.Equal(t, JSON, out.Mode())

	out.Progress("working...")
	out.Table("Registered Projects", []string{"Name"}, [][]string{{"sfx"}})
	out.Success(map[string]any{"name": "sfx"})

	doc := decodeLine(t, stdout.String())
	assert.Equal(t, true, doc["ok"])
	assert.Equal(t, map[string]any{"name": "sfx"}, doc["value"])
	assert.NotContains(t, doc, "error")
	assert.Empty(t, stderr.String())
}

func TestJSON_NilValueKeepsValueKey(t *testing.T) {
	var stdout bytes.Buffer
	New(JSON, &stdout, &bytes.Buffer{}, nil).Success(nil)

	assert.Equal(t, "{\"ok\":true,\"value\":null}\n", stdout.String())
	doc := decodeLine(t, stdout.String())
	assert.Contains(t, doc, "value")
	assert.NotContains(t, doc, "error")
}

func TestJSON_CliError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := New(JSON, &stdout, &stderr, nil)

	out.Error(apperrors.ProjectNotInitialized("/work/sfx"), apperrors.CodeUnknown)

	doc := decodeLine(t, stdout.String())
	assert.Equal(t, false, doc["ok"])
	details := doc["error"].(map[string]any)
	assert.Equal(t, float64(-29001), details["code"])
	assert.Equal(t, "project_not_initialized", details["type"])
	assert.Equal(t, "Not a project directory", details["message"])
	assert.Equal(t, "No .amproject file found in the directory", details["why"])
	assert.Equal(t, "Initialize a project with 'am project init <name>'", details["suggestion"])
	assert.Equal(t, "/work/sfx", details["context"])
	assert.NotContains(t, doc, "value")
	assert.Empty(t, stderr.String())
}

func TestJSON_ErrorOmitsEmptyContext(t *testing.T) {
	var stdout bytes.Buffer
	New(JSON, &stdout, &bytes.Buffer{}, nil).Error(apperrors.ProjectNotRegistered("x"), apperrors.CodeUnknown)

	details := decodeLine(t, stdout.String())["error"].(map[string]any)
	assert.NotContains(t, details, "context")
}

func TestJSON_PlainErrorUsesFallbackCode(t *testing.T) {
	env := BuildError(errors.New("disk on fire"), apperrors.CodeSDKNotFound)
	require.NotNil(t, env.Error)
	assert.False(t, env.OK)
	assert.Equal(t, apperrors.CodeSDKNotFound, env.Error.Code)
	assert.Equal(t, "sdk_not_found", env.Error.Type)
	assert.Equal(t, "disk on fire", env.Error.Message)
	assert.Equal(t, "disk on fire", env.Error.Why)
	assert.Equal(t, apperrors.DefaultSuggestion(apperrors.CodeSDKNotFound), env.Error.Suggestion)
}

func TestJSON_UnencodableValue(t *testing.T) {
	var stdout bytes.Buffer
	New(JSON, &stdout, &bytes.Buffer{}, nil).Success(make(chan int))

	doc := decodeLine(t, stdout.String())
	assert.Equal(t, false, doc["ok"])
}

func TestInteractive_SuccessAndProgress(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := logging.New(logging.Config{})
	out := New(Interactive, &stdout, &stderr, logger)

	out.Progress("Registering project...")
	out.Success("Project sfx registered successfully")

	text := stdout.String()
	assert.Contains(t, text, "Registering project...")
	assert.Contains(t, text, "✓ Project sfx registered successfully")
	assert.Empty(t, stderr.String())

	history := strings.Join(logger.History(), "\n")
	assert.Contains(t, history, "OUTPUT ✓ Project sfx registered successfully")
}

func TestInteractive_Error(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := New(Interactive, &stdout, &stderr, nil)

	out.Error(apperrors.ProjectNotInitialized("/work/sfx"), apperrors.CodeUnknown)

	text := stderr.String()
	assert.Contains(t, text, "Error: Not a project directory")
	assert.Contains(t, text, "/work/sfx")
	assert.Contains(t, text, "Why: No .amproject file found in the directory")
	assert.Contains(t, text, "Fix: Initialize a project with 'am project init <name>'")
	assert.Empty(t, stdout.String())
}

func TestInteractive_TableAlignsColumns(t *testing.T) {
	var stdout bytes.Buffer
	out := New(Interactive, &stdout, &bytes.Buffer{}, nil)

	out.Table("Registered Projects",
		[]string{"Name", "Path"},
		[][]string{{"sfx", "/a"}, {"music_main", ""}})

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Registered Projects", lines[0])
	assert.Equal(t, "Name        Path", lines[1])
	assert.Equal(t, strings.Repeat("─", 16), lines[2])
	assert.Equal(t, "sfx         /a", lines[3])
	assert.Equal(t, "music_main  -", lines[4])
}

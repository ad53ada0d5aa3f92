package project

import (
	apperrors "amcli/internal/core/errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"sfx", "My Game", "music-main", "a_b_1"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", "   ", "bad/name", "dot.name", "émoji"} {
		err := ValidateName(bad)
		require.Error(t, err, bad)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeFieldValidation))
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "my_game_sfx", NormalizeName("My Game-SFX"))
	assert.Equal(t, "plain", NormalizeName(" plain "))
}

func TestReadMarker_Missing(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadMarker(dir)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProjectNotInitialized))
	assert.Equal(t, dir, apperrors.Classify(err).Context)
}

func TestReadMarker_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerFile), []byte("{"), 0o644))
	_, err := ReadMarker(dir)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeSchemaValidation))
}

func TestScaffoldAndCountAssets(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sfx")
	cfg := NewConfiguration("sfx")
	require.NoError(t, Scaffold(dir, cfg))
	assert.True(t, HasMarker(dir))

	read, err := ReadMarker(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, read)

	sounds := filepath.Join(dir, "sources", "sounds")
	require.NoError(t, os.WriteFile(filepath.Join(sounds, "a.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sounds, "b.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sounds, "notes.txt"), []byte(""), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(sounds, "dir.json"), 0o755))

	counts, err := CountAssets(dir, read)
	require.NoError(t, err)
	assert.Len(t, counts, len(AssetTypes))
	assert.Equal(t, 2, counts["sounds"])
	assert.Equal(t, 0, counts["events"])
}

func TestCountAssets_NoSources(t *testing.T) {
	counts, err := CountAssets(t.TempDir(), Configuration{})
	require.NoError(t, err)
	for _, kind := range AssetTypes {
		assert.Equal(t, 0, counts[kind])
	}
}

func TestCopyTemplate(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, Scaffold(src, NewConfiguration("template_proj")))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sources", "events", "play.json"), []byte("{}"), 0o644))

	dst := filepath.Join(t.TempDir(), "game")
	require.NoError(t, CopyTemplate(src, dst, NewConfiguration("game")))

	cfg, err := ReadMarker(dst)
	require.NoError(t, err)
	assert.Equal(t, "game", cfg.Name)
	_, err = os.Stat(filepath.Join(dst, "sources", "events", "play.json"))
	assert.NoError(t, err)
}

func TestCopyTemplate_MissingSource(t *testing.T) {
	err := CopyTemplate(filepath.Join(t.TempDir(), "nope"), t.TempDir(), NewConfiguration("x"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTemplateCopyFailed))
}

func TestCopyTemplate_RefusesDestinationInsideTemplate(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, Scaffold(src, NewConfiguration("template_proj")))
	dst := filepath.Join(src, "child")

	err := CopyTemplate(src, dst, NewConfiguration("child"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTemplateCopyFailed))
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))

	err = CopyTemplate(src, src, NewConfiguration("same"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTemplateCopyFailed))
}

func TestCopyTemplate_SiblingWithSharedPrefixIsAllowed(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "tpl")
	require.NoError(t, Scaffold(src, NewConfiguration("tpl")))

	dst := filepath.Join(root, "tpl_copy")
	require.NoError(t, CopyTemplate(src, dst, NewConfiguration("tpl_copy")))
	assert.True(t, HasMarker(dst))
}

func TestCopyTemplate_FailureRemovesPartialCopy(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sources", "sounds"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sources", "sounds", "hit.json"), []byte("{}"), 0o644))
	// A directory in place of the marker makes the final marker write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(src, MarkerFile, "stale"), 0o755))

	dst := filepath.Join(t.TempDir(), "game")
	err := CopyTemplate(src, dst, NewConfiguration("game"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTemplateCopyFailed))
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCopyTemplate_FailureEmptiesExistingDestination(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "readme.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, MarkerFile), 0o755))

	dst := t.TempDir()
	err := CopyTemplate(src, dst, NewConfiguration("game"))
	require.Error(t, err)

	empty, err := IsEmptyDir(dst)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestIsEmptyDir(t *testing.T) {
	dir := t.TempDir()
	empty, err := IsEmptyDir(dir)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), nil, 0o644))
	empty, err = IsEmptyDir(dir)
	require.NoError(t, err)
	assert.False(t, empty)

	empty, err = IsEmptyDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.True(t, empty)
}

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerInfo(t *testing.T) {
	dir := t.TempDir()
	writeBlankPDF(t, dir, "b.pdf", 1)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeBlankPDF(t, filepath.Join(dir, "nested"), "a.pdf", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.pdf"), []byte("x"), 0o644))

	s := newTestService(t, dir, nil)
	result, err := s.PDFServerInfo(context.Background(), PDFServerInfoRequest{}, "test-server", "1.0.0-test", dir)
	require.NoError(t, err)

	assert.Equal(t, "test-server", result.ServerName)
	assert.Equal(t, "1.0.0-test", result.Version)
	assert.Equal(t, dir, result.DefaultDirectory)
	assert.Equal(t, 100.0, result.DPI)
	assert.Equal(t, "local", result.Namer)
	assert.Equal(t, []string{"text", "checkbox", "listbox", "choice", "radio"}, result.FieldKinds)
	assert.Contains(t, result.SupportedFormats, "png")
	assert.Contains(t, result.UsageGuidance, "page_<n>_field_<k>")

	var tools []string
	for _, tool := range result.AvailableTools {
		tools = append(tools, tool.Name)
		assert.NotEqual(t, "Tool description not available", tool.Description, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"pdf_add_fields", "pdf_detect_fields", "pdf_auto_add_fields",
		"pdf_list_fields", "pdf_validate_file", "pdf_server_info",
	}, tools)

	require.Len(t, result.DirectoryContents, 2)
	assert.Equal(t, "b.pdf", result.DirectoryContents[0].Name)
	assert.Equal(t, filepath.Join(dir, "nested", "a.pdf"), result.DirectoryContents[1].Path)
}

func TestServerInfo_InvalidDirectoryFallsBack(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, dir, nil)

	result, err := s.PDFServerInfo(context.Background(), PDFServerInfoRequest{}, "s", "v", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, dir, result.DefaultDirectory)
	assert.Empty(t, result.DirectoryContents)
}

func TestFiles_Cache(t *testing.T) {
	dir := t.TempDir()
	writeBlankPDF(t, dir, "one.pdf", 1)
	files := NewFiles(1024 * 1024)

	first, err := files.List(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Len(t, first.Files, 1)

	writeBlankPDF(t, dir, "two.pdf", 1)
	cached, err := files.List(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Len(t, cached.Files, 1)

	files.Forget(dir)
	fresh, err := files.List(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, fresh.FromCache)
	assert.Len(t, fresh.Files, 2)

	files.ttl = time.Nanosecond
	time.Sleep(time.Millisecond)
	expired, err := files.List(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, expired.FromCache)
}

func TestFiles_SkipsOversized(t *testing.T) {
	dir := t.TempDir()
	writeBlankPDF(t, dir, "small.pdf", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.pdf"), make([]byte, 4096), 0o644))

	res, err := NewFiles(2048).List(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "small.pdf", res.Files[0].Name)
}

func TestFiles_Truncates(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < scanFileLimit+5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%03d.pdf", i)), []byte("%PDF"), 0o644))
	}

	res, err := NewFiles(1024).List(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Files, scanFileLimit)
}

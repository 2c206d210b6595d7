package pocket

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/pocketpick/internal/apperr"
	"github.com/starford/pocketpick/internal/models"
	"github.com/starford/pocketpick/internal/testutil"
)

func testService(t *testing.T) (*Service, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewService(WithLogger(logger)), &logs
}

func TestAdd_Simple(t *testing.T) {
	svc, _ := testService(t)
	dbPath := testutil.TestDBPath(t)

	item, err := svc.Add(context.Background(), models.AddCommand{
		ID:     "test-item-1",
		Text:   "This is a test item",
		Tags:   []string{"test", "example"},
		DBPath: dbPath,
	})
	require.NoError(t, err)
	assert.Equal(t, "test-item-1", item.ID)
	assert.Equal(t, "This is a test item", item.Text)
	assert.Equal(t, []string{"test", "example"}, item.Tags)

	rows := testutil.ReadRows(t, dbPath)
	require.Len(t, rows, 1)
	assert.Equal(t, "test-item-1", rows[0].ID)
	assert.Equal(t, "This is a test item", rows[0].Text)
	assert.Equal(t, []string{"test", "example"}, rows[0].Tags)
}

func TestAdd_TagNormalization(t *testing.T) {
	svc, _ := testService(t)
	dbPath := testutil.TestDBPath(t)

	item, err := svc.Add(context.Background(), models.AddCommand{
		ID:     "test-normalize",
		Text:   "Item with tags to normalize",
		Tags:   []string{"TAG", "with space", "under_score"},
		DBPath: dbPath,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tag", "with-space", "under-score"}, item.Tags)

	rows := testutil.ReadRows(t, dbPath)
	require.Len(t, rows, 1)
	assert.Equal(t, item.Tags, rows[0].Tags)
}

func TestAdd_CreatedRoundTrips(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 8, 30, 0, 123456789, time.FixedZone("CEST", 2*60*60))
	svc := NewService(WithClock(func() time.Time { return fixed }))
	dbPath := testutil.TestDBPath(t)

	item, err := svc.Add(context.Background(), models.AddCommand{ID: "ts", Text: "t", DBPath: dbPath})
	require.NoError(t, err)
	assert.True(t, item.Created.Equal(fixed))

	rows := testutil.ReadRows(t, dbPath)
	require.Len(t, rows, 1)
	stored, err := time.Parse(models.TimeLayout, rows[0].Created)
	require.NoError(t, err)
	assert.True(t, stored.Equal(item.Created), "stored %v, returned %v", stored, item.Created)
	assert.Equal(t, item.Created.Format(models.TimeLayout), rows[0].Created)
}

func TestAdd_CreatedIsAssignedAtInsert(t *testing.T) {
	svc, _ := testService(t)
	before := time.Now().UTC()
	item, err := svc.Add(context.Background(), models.AddCommand{ID: "now", Text: "x", DBPath: testutil.TestDBPath(t)})
	require.NoError(t, err)
	after := time.Now().UTC()

	assert.False(t, item.Created.Before(before.Truncate(time.Microsecond)))
	assert.False(t, item.Created.After(after))
}

func TestAdd_DuplicateID(t *testing.T) {
	svc, logs := testService(t)
	dbPath := testutil.TestDBPath(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, models.AddCommand{ID: "duplicate-id", Text: "First item with this ID", Tags: []string{"test"}, DBPath: dbPath})
	require.NoError(t, err)

	_, err = svc.Add(ctx, models.AddCommand{ID: "duplicate-id", Text: "Second item with same ID", Tags: []string{"other"}, DBPath: dbPath})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	assert.Contains(t, logs.String(), "item already exists")

	rows := testutil.ReadRows(t, dbPath)
	require.Len(t, rows, 1)
	assert.Equal(t, "First item with this ID", rows[0].Text)
	assert.Equal(t, []string{"test"}, rows[0].Tags)
}

func TestAdd_DBPathWithQueryChar(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "what?.db")

	_, err := svc.Add(ctx, models.AddCommand{ID: "a", Text: "x", DBPath: dbPath})
	require.NoError(t, err)

	assert.FileExists(t, dbPath)
	assert.NoFileExists(t, filepath.Join(dir, "what"))

	_, err = svc.Add(ctx, models.AddCommand{ID: "a", Text: "y", DBPath: dbPath})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
}

func TestAdd_InvalidCommand(t *testing.T) {
	svc, _ := testService(t)
	dbPath := testutil.TestDBPath(t)

	_, err := svc.Add(context.Background(), models.AddCommand{Text: "no id", DBPath: dbPath})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, statErr := os.Stat(dbPath)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "database must not be created for an invalid command")
}

func TestAdd_StoreFailurePropagates(t *testing.T) {
	svc, logs := testService(t)
	// A directory where the database file should be cannot be opened.
	dbPath := t.TempDir()

	_, err := svc.Add(context.Background(), models.AddCommand{ID: "x", Text: "x", DBPath: dbPath})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrAlreadyExists)
	assert.Contains(t, logs.String(), "add item failed")
}

func TestAddFile_Simple(t *testing.T) {
	svc, _ := testService(t)
	dbPath := testutil.TestDBPath(t)
	file := testutil.TestFile(t, "content.txt", "This is test content from a file")

	item, err := svc.AddFile(context.Background(), models.AddFileCommand{
		ID:       "test-file-1",
		FilePath: file,
		Tags:     []string{"test", "file"},
		DBPath:   dbPath,
	})
	require.NoError(t, err)
	assert.Equal(t, "test-file-1", item.ID)
	assert.Equal(t, "This is test content from a file", item.Text)
	assert.Equal(t, []string{"test", "file"}, item.Tags)

	rows := testutil.ReadRows(t, dbPath)
	require.Len(t, rows, 1)
	assert.Equal(t, "This is test content from a file", rows[0].Text)
	assert.Equal(t, []string{"test", "file"}, rows[0].Tags)
}

func TestAddFile_TagNormalization(t *testing.T) {
	svc, _ := testService(t)
	dbPath := testutil.TestDBPath(t)
	file := testutil.TestFile(t, "content.txt", "content")

	item, err := svc.AddFile(context.Background(), models.AddFileCommand{
		ID:       "test-file-normalize",
		FilePath: file,
		Tags:     []string{"FILE", "with space", "under_score"},
		DBPath:   dbPath,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"file", "with-space", "under-score"}, item.Tags)

	rows := testutil.ReadRows(t, dbPath)
	require.Len(t, rows, 1)
	assert.Equal(t, item.Tags, rows[0].Tags)
}

func TestAddFile_VerbatimContent(t *testing.T) {
	svc, _ := testService(t)
	content := "line one\r\n\ttabbed\n\nтекст ✓\n"
	file := testutil.TestFile(t, "verbatim.md", content)

	item, err := svc.AddFile(context.Background(), models.AddFileCommand{ID: "v", FilePath: file, DBPath: testutil.TestDBPath(t)})
	require.NoError(t, err)
	assert.Equal(t, content, item.Text)
}

func TestAddFile_Nonexistent(t *testing.T) {
	svc, _ := testService(t)
	dbPath := testutil.TestDBPath(t)

	_, err := svc.AddFile(context.Background(), models.AddFileCommand{
		ID:       "test-nonexistent",
		FilePath: "/nonexistent/file/path.txt",
		Tags:     []string{"test"},
		DBPath:   dbPath,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, statErr := os.Stat(dbPath)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "store must not be touched when the file is missing")
}

func TestAddFile_NonexistentLeavesRowsUnchanged(t *testing.T) {
	svc, _ := testService(t)
	dbPath := testutil.TestDBPath(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, models.AddCommand{ID: "existing", Text: "x", DBPath: dbPath})
	require.NoError(t, err)

	_, err = svc.AddFile(ctx, models.AddFileCommand{ID: "missing", FilePath: filepath.Join(t.TempDir(), "nope.txt"), DBPath: dbPath})
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)
	assert.Len(t, testutil.ReadRows(t, dbPath), 1)
}

func TestAddFile_Directory(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.AddFile(context.Background(), models.AddFileCommand{ID: "dir", FilePath: t.TempDir(), DBPath: testutil.TestDBPath(t)})
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)
}

func TestAddFile_InvalidUTF8(t *testing.T) {
	svc, logs := testService(t)
	file := testutil.TestFile(t, "binary.bin", string([]byte{0xff, 0xfe, 0x00, 0x41}))

	_, err := svc.AddFile(context.Background(), models.AddFileCommand{ID: "bin", FilePath: file, DBPath: testutil.TestDBPath(t)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrFileNotFound)
	assert.Contains(t, logs.String(), "read file failed")
}

func TestAddFile_DuplicateID(t *testing.T) {
	svc, _ := testService(t)
	dbPath := testutil.TestDBPath(t)
	file := testutil.TestFile(t, "content.txt", "This is test content from a file")
	ctx := context.Background()

	_, err := svc.AddFile(ctx, models.AddFileCommand{ID: "duplicate-file-id", FilePath: file, Tags: []string{"test"}, DBPath: dbPath})
	require.NoError(t, err)

	_, err = svc.AddFile(ctx, models.AddFileCommand{ID: "duplicate-file-id", FilePath: file, Tags: []string{"different"}, DBPath: dbPath})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	rows := testutil.ReadRows(t, dbPath)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"test"}, rows[0].Tags)
}

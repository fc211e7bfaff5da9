package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/zenops/valuation-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createFileTestAssignment(t *testing.T, env *testEnv) *domain.Assignment {
	t.Helper()
	bank := createTestBank(t, env.db, "File Bank")
	branch := createTestBranch(t, env.db, bank, "File Branch")
	a, err := env.assignments.Create(context.Background(), adminActor(), &domain.CreateAssignmentRequest{
		BankID: &bank.ID, BranchID: &branch.ID,
	})
	require.NoError(t, err)
	return a
}

func TestFileService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("upload stores blob under a derived name", func(t *testing.T) {
		env := newTestEnv(t)
		a := createFileTestAssignment(t, env)

		file, err := env.files.Upload(ctx, adminActor(), a.ID, "valuation report.pdf", "application/pdf", strings.NewReader("report body"))
		require.NoError(t, err)

		assert.Equal(t, "valuation report.pdf", file.Filename)
		assert.True(t, strings.HasPrefix(file.StoredName, a.ID.String()+"_"))
		assert.True(t, strings.HasSuffix(file.StoredName, ".pdf"))
		assert.NotContains(t, file.StoredName, "valuation")
		assert.EqualValues(t, len("report body"), file.SizeBytes)
	})

	t.Run("path traversal in filename is stripped", func(t *testing.T) {
		env := newTestEnv(t)
		a := createFileTestAssignment(t, env)

		file, err := env.files.Upload(ctx, adminActor(), a.ID, "../../etc/passwd", "text/plain", strings.NewReader("x"))
		require.NoError(t, err)
		assert.Equal(t, "passwd", file.Filename)
		assert.NotContains(t, file.StoragePath, "..")
	})

	t.Run("empty filename is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		a := createFileTestAssignment(t, env)

		_, err := env.files.Upload(ctx, adminActor(), a.ID, "   ", "text/plain", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("upload to missing assignment is not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.files.Upload(ctx, adminActor(), uuid.New(), "a.pdf", "application/pdf", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("upload emits a file uploaded event", func(t *testing.T) {
		env := newTestEnv(t)
		a := createFileTestAssignment(t, env)

		_, err := env.files.Upload(ctx, adminActor(), a.ID, "a.pdf", "application/pdf", strings.NewReader("x"))
		require.NoError(t, err)

		events := eventsFor(t, env, a.ID)
		require.Len(t, events, 2)
		assert.Equal(t, domain.ActivityFileUploaded, events[0].Type)
	})

	t.Run("two uploads of the same filename get distinct blobs", func(t *testing.T) {
		env := newTestEnv(t)
		a := createFileTestAssignment(t, env)

		f1, err := env.files.Upload(ctx, adminActor(), a.ID, "same.pdf", "application/pdf", strings.NewReader("one"))
		require.NoError(t, err)
		f2, err := env.files.Upload(ctx, adminActor(), a.ID, "same.pdf", "application/pdf", strings.NewReader("two"))
		require.NoError(t, err)

		assert.NotEqual(t, f1.StoredName, f2.StoredName)
		assert.NotEqual(t, f1.StoragePath, f2.StoragePath)
	})
}

func TestFileService_ListAndDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("list for missing assignment is not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.files.List(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list is empty then grows in upload order", func(t *testing.T) {
		env := newTestEnv(t)
		a := createFileTestAssignment(t, env)

		files, err := env.files.List(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, files)

		for i := 1; i <= 3; i++ {
			_, err := env.files.Upload(ctx, adminActor(), a.ID, fmt.Sprintf("doc%d.pdf", i), "application/pdf", strings.NewReader("x"))
			require.NoError(t, err)
		}

		files, err = env.files.List(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.Equal(t, "doc1.pdf", files[0].Filename)
		assert.Equal(t, "doc3.pdf", files[2].Filename)
	})

	t.Run("download round-trips the content", func(t *testing.T) {
		env := newTestEnv(t)
		a := createFileTestAssignment(t, env)

		uploaded, err := env.files.Upload(ctx, adminActor(), a.ID, "notes.txt", "text/plain", strings.NewReader("site notes"))
		require.NoError(t, err)

		file, reader, err := env.files.Download(ctx, uploaded.ID)
		require.NoError(t, err)
		defer reader.Close()

		assert.Equal(t, "notes.txt", file.Filename)
		body, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "site notes", string(body))
	})

	t.Run("download of unknown file is not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.files.Download(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("detail view nests files after upload", func(t *testing.T) {
		env := newTestEnv(t)
		a := createFileTestAssignment(t, env)

		detail, err := env.assignments.GetDetail(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, detail.Files)

		_, err = env.files.Upload(ctx, adminActor(), a.ID, "photo.jpg", "image/jpeg", strings.NewReader("jpg"))
		require.NoError(t, err)

		detail, err = env.assignments.GetDetail(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, detail.Files, 1)
		assert.Equal(t, "photo.jpg", detail.Files[0].Filename)
	})
}

func TestFileService_DeleteAssignmentCleansBlobs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := createFileTestAssignment(t, env)

	uploaded, err := env.files.Upload(ctx, adminActor(), a.ID, "gone.pdf", "application/pdf", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, env.assignments.Delete(ctx, adminActor(), a.ID))

	// Metadata row and blob are both gone.
	_, _, err = env.files.Download(ctx, uploaded.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.store.Download(ctx, uploaded.StoragePath)
	assert.Error(t, err)
}

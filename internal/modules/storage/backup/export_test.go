package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quillpost/core/internal/config"
	"github.com/quillpost/core/internal/database/dbtest"
	"github.com/quillpost/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/gorm"
)

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	u := models.UserModel{Name: "Ann", Email: "ann@example.com", Password: "$2a$hash", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&u).Error)
	cat := models.CategoryModel{Name: "Go", Slug: "go", PostsCount: 1}
	require.NoError(t, db.Create(&cat).Error)
	p := models.PostModel{Title: "Hi", Slug: "hi", Content: "Body", CategoryID: cat.ID, AuthorID: u.ID, Tags: models.StringArray{"go"}, IsPublished: true}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Create(&models.CommentModel{PostID: p.ID, UserID: u.ID, Content: "first"}).Error)
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		files[f.Name] = b
	}
	return files
}

func decodeDocs(t *testing.T, payload []byte) []bson.M {
	t.Helper()
	var docs []bson.M
	for len(payload) > 0 {
		require.GreaterOrEqual(t, len(payload), 4)
		n := int(binary.LittleEndian.Uint32(payload[:4]))
		var doc bson.M
		require.NoError(t, bson.Unmarshal(payload[:n], &doc))
		docs = append(docs, doc)
		payload = payload[n:]
	}
	return docs
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
}

func TestCreateArchive(t *testing.T) {
	db := dbtest.New(t)
	seed(t, db)
	dir := t.TempDir()

	art, err := NewExporter(db, dir, WithClock(fixedClock)).Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backup-2026-03-04T05-06-07.zip", art.Filename)
	assert.Equal(t, map[string]int{"users": 1, "categories": 1, "posts": 1}, art.Counts)

	onDisk, err := os.ReadFile(filepath.Join(dir, art.Filename))
	require.NoError(t, err)
	assert.Equal(t, art.Data, onDisk)

	files := readArchive(t, art.Data)
	var mf manifest
	require.NoError(t, json.Unmarshal(files[manifestFile], &mf))
	assert.Equal(t, archiveFormat, mf.Format)
	assert.Equal(t, "sqlite", mf.Engine)
	assert.Equal(t, Collections, mf.Collections)

	users := decodeDocs(t, files[archiveDBDir+"/users.bson"])
	require.Len(t, users, 1)
	assert.Equal(t, "ann@example.com", users[0]["email"])
	assert.NotContains(t, users[0], "password")

	posts := decodeDocs(t, files[archiveDBDir+"/posts.bson"])
	require.Len(t, posts, 1)
	comments, ok := posts[0]["comments"].(bson.A)
	require.True(t, ok)
	require.Len(t, comments, 1)
	assert.Equal(t, "first", comments[0].(bson.M)["content"])
}

func TestCreateEmptyDatabase(t *testing.T) {
	art, err := NewExporter(dbtest.New(t), t.TempDir()).Create(context.Background())
	require.NoError(t, err)
	files := readArchive(t, art.Data)
	assert.Empty(t, files[archiveDBDir+"/posts.bson"])
	assert.Contains(t, files, manifestFile)
}

type stubUploader struct {
	key string
	err error
}

func (s *stubUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	s.key = key
	if s.err != nil {
		return "", s.err
	}
	return "https://example.test/" + key, nil
}

func TestCreateUploads(t *testing.T) {
	up := &stubUploader{}
	art, err := NewExporter(dbtest.New(t), t.TempDir(), WithClock(fixedClock), WithUploader(up, "")).Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026/03/backup-2026-03-04T05-06-07.zip", up.key)
	assert.Equal(t, "https://example.test/"+up.key, art.RemoteURL)

	failing := &stubUploader{err: errors.New("offline")}
	art, err = NewExporter(dbtest.New(t), t.TempDir(), WithUploader(failing, "")).Create(context.Background())
	require.NoError(t, err)
	assert.Empty(t, art.RemoteURL)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(dbtest.New(t), dir, WithClock(fixedClock))

	items, err := exp.List()
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = exp.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	items, err = exp.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, strings.HasSuffix(items[0].Filename, ".zip"))
}

func TestRenderObjectKey(t *testing.T) {
	now := fixedClock()
	assert.Equal(t, "2026/03/a.zip", renderObjectKey("", "a.zip", now))
	assert.Equal(t, "x/04/a.zip", renderObjectKey("/x//{d}/{filename}", "a.zip", now))
	assert.Equal(t, "a.zip", renderObjectKey("/", "a.zip", now))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "12 B", formatSize(12))
	assert.Equal(t, "2.00 KB", formatSize(2048))
	assert.Equal(t, "1.50 MB", formatSize(3<<19))
}

func TestS3Uploader(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, body = r.URL.Path, b
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up, err := NewS3Uploader(config.S3Config{
		Bucket:          "blog",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Prefix:          "/nightly/",
	})
	require.NoError(t, err)
	require.NotNil(t, up)

	url, err := up.Upload(context.Background(), "/2026/a.zip", []byte("zipdata"), "application/zip")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/blog/nightly/2026/a.zip", url)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/blog/nightly/2026/a.zip", path)
	assert.Contains(t, string(body), "zipdata")
}

func TestNewS3UploaderConfig(t *testing.T) {
	up, err := NewS3Uploader(config.S3Config{})
	assert.NoError(t, err)
	assert.Nil(t, up)

	_, err = NewS3Uploader(config.S3Config{Bucket: "b"})
	assert.Error(t, err)
}

package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/quillpost/core/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Exporter dumps the blog collections into a zip of BSON files.
type Exporter struct {
	db          *gorm.DB
	dir         string
	uploader    Uploader
	keyTemplate string
	logger      *zap.Logger
	now         func() time.Time
}

type Option func(*Exporter)

func WithUploader(u Uploader, keyTemplate string) Option {
	return func(e *Exporter) {
		e.uploader = u
		e.keyTemplate = keyTemplate
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l.Named("backup")
		}
	}
}

// WithClock overrides the time source used for file names and the manifest.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func NewExporter(db *gorm.DB, dir string, opts ...Option) *Exporter {
	e := &Exporter{db: db, dir: dir, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create builds an archive, writes it to the backup dir and uploads it when
// an uploader is configured. Upload failures are logged, not returned: the
// local file is still a valid backup.
func (e *Exporter) Create(ctx context.Context) (*Artifact, error) {
	now := e.now()
	data, counts, err := e.build(ctx, now)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("backup-%s.zip", now.Format("2006-01-02T15-04-05"))
	filePath := filepath.Join(e.dir, filename)
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return nil, err
	}

	art := &Artifact{Filename: filename, Path: filePath, Data: data, Counts: counts}
	if e.uploader != nil {
		key := renderObjectKey(e.keyTemplate, filename, now)
		url, err := e.uploader.Upload(ctx, key, data, "application/zip")
		if err != nil {
			e.logger.Warn("upload backup", zap.String("key", key), zap.Error(err))
		} else {
			art.RemoteURL = url
		}
	}
	e.logger.Info("backup created", zap.String("file", filename), zap.Any("counts", counts))
	return art, nil
}

// List returns the archives in the backup dir.
func (e *Exporter) List() ([]fileItem, error) {
	items := []fileItem{}
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return items, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, fileItem{Filename: entry.Name(), Size: formatSize(info.Size())})
	}
	return items, nil
}

func (e *Exporter) build(ctx context.Context, now time.Time) ([]byte, map[string]int, error) {
	db := e.db.WithContext(ctx)
	docs := map[string][]bson.M{}

	var users []models.UserModel
	if err := db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, nil, fmt.Errorf("export users: %w", err)
	}
	for i := range users {
		docs["users"] = append(docs["users"], userDoc(&users[i]))
	}

	var cats []models.CategoryModel
	if err := db.Order("created_at ASC").Find(&cats).Error; err != nil {
		return nil, nil, fmt.Errorf("export categories: %w", err)
	}
	for i := range cats {
		docs["categories"] = append(docs["categories"], categoryDoc(&cats[i]))
	}

	var posts []models.PostModel
	err := db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("post_comments.created_at ASC")
	}).Order("created_at ASC").Find(&posts).Error
	if err != nil {
		return nil, nil, fmt.Errorf("export posts: %w", err)
	}
	for i := range posts {
		docs["posts"] = append(docs["posts"], postDoc(&posts[i]))
	}

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	counts := make(map[string]int, len(Collections))
	for _, name := range Collections {
		payload, err := encodeBSON(docs[name])
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s: %w", name, err)
		}
		f, err := w.Create(path.Join(archiveDBDir, name+".bson"))
		if err != nil {
			return nil, nil, err
		}
		if _, err := f.Write(payload); err != nil {
			return nil, nil, err
		}
		counts[name] = len(docs[name])
	}

	mf, err := json.Marshal(manifest{
		Format:      archiveFormat,
		Version:     formatVersion,
		Engine:      e.db.Dialector.Name(),
		CreatedAt:   now.UTC(),
		Collections: Collections,
		Counts:      counts,
	})
	if err != nil {
		return nil, nil, err
	}
	f, err := w.Create(manifestFile)
	if err != nil {
		return nil, nil, err
	}
	if _, err := f.Write(mf); err != nil {
		return nil, nil, err
	}
	if err := w.Close(); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), counts, nil
}

// encodeBSON concatenates documents the way mongodump lays out a collection.
func encodeBSON(docs []bson.M) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	for _, doc := range docs {
		b, err := bson.Marshal(doc)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// Password hashes never leave the database.
func userDoc(u *models.UserModel) bson.M {
	return bson.M{
		"_id":       u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      u.Role,
		"avatar":    u.Avatar,
		"bio":       u.Bio,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

func categoryDoc(c *models.CategoryModel) bson.M {
	return bson.M{
		"_id":         c.ID,
		"name":        c.Name,
		"description": c.Description,
		"slug":        c.Slug,
		"postsCount":  c.PostsCount,
		"createdAt":   c.CreatedAt,
		"updatedAt":   c.UpdatedAt,
	}
}

func postDoc(p *models.PostModel) bson.M {
	comments := make(bson.A, 0, len(p.Comments))
	for _, cm := range p.Comments {
		comments = append(comments, bson.M{
			"_id":       cm.ID,
			"user":      cm.UserID,
			"content":   cm.Content,
			"createdAt": cm.CreatedAt,
		})
	}
	tags := bson.A{}
	for _, t := range p.Tags {
		tags = append(tags, t)
	}
	return bson.M{
		"_id":           p.ID,
		"title":         p.Title,
		"slug":          p.Slug,
		"content":       p.Content,
		"excerpt":       p.Excerpt,
		"category":      p.CategoryID,
		"author":        p.AuthorID,
		"tags":          tags,
		"featuredImage": p.FeaturedImage,
		"isPublished":   p.IsPublished,
		"viewCount":     p.ViewCount,
		"comments":      comments,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
}

func renderObjectKey(template, filename string, now time.Time) string {
	tpl := strings.TrimSpace(template)
	if tpl == "" {
		tpl = defaultKeyTemplate
	}
	key := strings.NewReplacer(
		"{Y}", now.Format("2006"),
		"{m}", now.Format("01"),
		"{d}", now.Format("02"),
		"{filename}", filename,
	).Replace(tpl)
	key = normalizeObjectKey(key)
	if key == "" {
		return filename
	}
	return key
}

func normalizeObjectKey(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return key
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

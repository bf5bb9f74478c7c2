package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var ErrObjectExists = errors.New("object already exists")

// ObjectStore is the photo bucket: write once, then hand out a public URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	PublicURL(key string) string
}

const cacheControl = "public, max-age=3600"

type GCS struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// OpenGCS connects to Cloud Storage. baseURL overrides the default
// https://storage.googleapis.com/<bucket> prefix, e.g. for a CDN.
func OpenGCS(ctx context.Context, bucket, baseURL, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCS{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	obj := g.client.Bucket(g.bucket).Object(key).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = cacheControl

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (g *GCS) PublicURL(key string) string {
	return g.baseURL + "/" + key
}

// Disk stores objects under a local directory. Handler serves them back.
type Disk struct {
	dir     string
	baseURL string
}

func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *Disk) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	_ = ctx
	_ = contentType

	p := filepath.Join(d.dir, filepath.FromSlash(path.Clean("/" + key)))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return ErrObjectExists
	}
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return err
	}
	return f.Close()
}

func (d *Disk) PublicURL(key string) string {
	return d.baseURL + "/" + key
}

// Handler serves stored objects by key. Directory listings are not served.
func (d *Disk) Handler() http.Handler {
	fs := http.FileServer(http.Dir(d.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", cacheControl)
		fs.ServeHTTP(w, r)
	})
}

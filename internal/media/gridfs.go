package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const gridFSPrefix = "/media/"

// GridFS keeps media next to the post documents, in the same database.
type GridFS struct {
	bucket *gridfs.Bucket
}

func NewGridFS(db *mongo.Database) (*GridFS, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("media"))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFS{bucket: bucket}, nil
}

func (g *GridFS) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	id, err := g.bucket.UploadFromStream(name, bytes.NewReader(data), opts)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return gridFSPrefix + id.Hex(), nil
}

func (g *GridFS) Delete(ctx context.Context, ref string) error {
	id, err := primitive.ObjectIDFromHex(strings.TrimPrefix(ref, gridFSPrefix))
	if err != nil {
		return fmt.Errorf("media ref %q: %w", ref, ErrNotFound)
	}
	if err := g.bucket.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil
		}
		return fmt.Errorf("delete media %s: %w", ref, err)
	}
	return nil
}

func (g *GridFS) Owns(ref string) bool {
	return strings.HasPrefix(ref, gridFSPrefix)
}

func (g *GridFS) Accepts(string) bool {
	return true
}

// Open reads a whole media file. id is the hex part of the reference.
func (g *GridFS) Open(ctx context.Context, id string) ([]byte, string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", ErrNotFound
	}
	var buf bytes.Buffer
	if _, err := g.bucket.DownloadToStream(oid, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("download media %s: %w", id, err)
	}
	data := buf.Bytes()
	return data, http.DetectContentType(data), nil
}

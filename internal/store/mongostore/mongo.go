// Package mongostore keeps one MongoDB document per post. Comments live
// inside the post document and change through $push and $pull.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BorisDmv/vignettes/internal/models"
	"github.com/BorisDmv/vignettes/internal/store"
)

type postDocument struct {
	Id        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Author    string             `bson:"author"`
	Content   string             `bson:"content"`
	ImageURL  string             `bson:"imageUrl,omitempty"`
	AudioURL  string             `bson:"audioUrl,omitempty"`
	Hashtags  []string           `bson:"hashtags"`
	Comments  []models.Comment   `bson:"comments"`
	CreatedAt time.Time          `bson:"created_at"`
}

// post derives the display date from the server timestamp.
func (d postDocument) post() models.Post {
	p := models.Post{
		ID:        d.Id.Hex(),
		Title:     d.Title,
		Author:    d.Author,
		Date:      models.PostDate(d.CreatedAt.Local()),
		Content:   d.Content,
		ImageURL:  d.ImageURL,
		AudioURL:  d.AudioURL,
		Hashtags:  d.Hashtags,
		Comments:  d.Comments,
		CreatedAt: d.CreatedAt.UTC(),
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	return p
}

type MongoStorage struct {
	client *mongo.Client
	posts  *mongo.Collection
	now    func() time.Time
}

// Connect dials the server and pings it once.
func Connect(ctx context.Context, dbURL, dbName string) (*MongoStorage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dbURL))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return New(client.Database(dbName)), nil
}

func New(db *mongo.Database) *MongoStorage {
	return &MongoStorage{
		client: db.Client(),
		posts:  db.Collection("posts"),
		now:    time.Now,
	}
}

// Database is shared with the GridFS media bucket.
func (s *MongoStorage) Database() *mongo.Database {
	return s.posts.Database()
}

func (s *MongoStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureSchema creates the index FetchAll sorts on.
func (s *MongoStorage) EnsureSchema(ctx context.Context) error {
	_, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}, options.CreateIndexes().SetMaxTime(10*time.Second))
	if err != nil {
		return store.Transport("ensure indexes", err)
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.NotFound("post", id)
	}
	return oid, nil
}

func (s *MongoStorage) FetchAll(ctx context.Context) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, store.Transport("find posts", err)
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			log.Printf("Cursor closing failed: %s", err.Error())
		}
	}(cursor, ctx)

	posts := make([]models.Post, 0)
	for cursor.Next(ctx) {
		var doc postDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, store.Transport("decode post", err)
		}
		posts = append(posts, doc.post())
	}
	if err := cursor.Err(); err != nil {
		return nil, store.Transport("iterate posts", err)
	}
	return posts, nil
}

func (s *MongoStorage) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	if err := store.ValidateInput(in); err != nil {
		return models.Post{}, err
	}
	stamped := store.NewPost(in, s.now())
	doc := postDocument{
		Title:     stamped.Title,
		Author:    stamped.Author,
		Content:   stamped.Content,
		ImageURL:  stamped.ImageURL,
		AudioURL:  stamped.AudioURL,
		Hashtags:  stamped.Hashtags,
		Comments:  []models.Comment{},
		CreatedAt: stamped.CreatedAt.Truncate(time.Millisecond),
	}
	res, err := s.posts.InsertOne(ctx, doc)
	if err != nil {
		return models.Post{}, store.Transport("insert post", err)
	}
	doc.Id = res.InsertedID.(primitive.ObjectID)
	return doc.post(), nil
}

func (s *MongoStorage) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	if err := store.ValidatePatch(patch); err != nil {
		return models.Post{}, err
	}
	oid, err := objectID(id)
	if err != nil {
		return models.Post{}, err
	}

	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.ImageURL != nil {
		set["imageUrl"] = *patch.ImageURL
	}
	if patch.AudioURL != nil {
		set["audioUrl"] = *patch.AudioURL
	}
	if patch.Hashtags != nil {
		set["hashtags"] = models.NormalizeHashtags(*patch.Hashtags)
	}

	var doc postDocument
	if patch.Empty() {
		err = s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = s.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, store.NotFound("post", id)
		}
		return models.Post{}, store.Transport("update post", err)
	}
	return doc.post(), nil
}

func (s *MongoStorage) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return store.Transport("delete post", err)
	}
	if res.DeletedCount == 0 {
		return store.NotFound("post", id)
	}
	return nil
}

func (s *MongoStorage) AppendComment(ctx context.Context, postID string, c models.Comment) error {
	if err := store.ValidateComment(c); err != nil {
		return err
	}
	oid, err := objectID(postID)
	if err != nil {
		return err
	}
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"comments": c}})
	if err != nil {
		return store.Transport("append comment", err)
	}
	if res.MatchedCount == 0 {
		return store.NotFound("post", postID)
	}
	return nil
}

func (s *MongoStorage) RemoveComment(ctx context.Context, postID, commentID string) error {
	oid, err := objectID(postID)
	if err != nil {
		return err
	}
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"comments": bson.M{"id": commentID}}},
	)
	if err != nil {
		return store.Transport("remove comment", err)
	}
	if res.MatchedCount == 0 {
		return store.NotFound("post", postID)
	}
	if res.ModifiedCount == 0 {
		return store.NotFound("comment", commentID)
	}
	return nil
}

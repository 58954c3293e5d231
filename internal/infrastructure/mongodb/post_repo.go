package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leon37/Inkpost/internal/model"
	"github.com/leon37/Inkpost/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postDocument struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Title     string               `bson:"title"`
	Content   string               `bson:"content"`
	Author    primitive.ObjectID   `bson:"author"`
	Likes     []primitive.ObjectID `bson:"likes"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`

	// $lookup 展开后的作者，只在聚合查询里出现
	AuthorDocs []userDocument `bson:"authorDocs,omitempty"`
}

func (d *postDocument) toModel() *model.Post {
	likes := make([]string, 0, len(d.Likes))
	for _, id := range d.Likes {
		likes = append(likes, id.Hex())
	}
	post := &model.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		AuthorID:  d.Author.Hex(),
		Likes:     likes,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.AuthorDocs) > 0 {
		a := d.AuthorDocs[0]
		post.Author = &model.Author{ID: a.ID.Hex(), Username: a.Username, Email: a.Email}
	}
	return post
}

type PostRepository struct {
	coll *mongo.Collection
}

func NewPostRepository(db *mongo.Database) repository.PostRepository {
	return &PostRepository{coll: db.Collection(PostsCollection)}
}

// populateAuthor 相当于 populate('author', 'username email')
var populateAuthor = mongo.Pipeline{
	{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: UsersCollection},
		{Key: "localField", Value: "author"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "authorDocs"},
	}}},
	{{Key: "$project", Value: bson.D{{Key: "authorDocs.password", Value: 0}}}},
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	authorID, err := primitive.ObjectIDFromHex(post.AuthorID)
	if err != nil {
		return fmt.Errorf("invalid author id %q: %w", post.AuthorID, err)
	}

	now := time.Now().UTC()
	doc := postDocument{
		ID:        primitive.NewObjectID(),
		Title:     post.Title,
		Content:   post.Content,
		Author:    authorID,
		Likes:     []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}

	post.ID = doc.ID.Hex()
	post.Likes = []string{}
	post.CreatedAt, post.UpdatedAt = now, now
	return nil
}

func (r *PostRepository) List(ctx context.Context, offset, limit int) ([]model.Post, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, err
	}

	// _id 是 ObjectID，按 _id 升序即插入顺序
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$skip", Value: int64(offset)}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	pipeline = append(pipeline, populateAuthor...)

	docs, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}

	posts := make([]model.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, *docs[i].toModel())
	}
	return posts, total, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// 非法 id 不可能对应任何帖子
		return nil, repository.ErrNotFound
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}},
		{{Key: "$limit", Value: 1}},
	}
	pipeline = append(pipeline, populateAuthor...)

	docs, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	return docs[0].toModel(), nil
}

func (r *PostRepository) UpdateByAuthor(ctx context.Context, id, authorID string, patch model.PostPatch) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	aid, _ := primitive.ObjectIDFromHex(authorID) // 非法 author 按零值处理，不会命中任何文档

	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if patch.Title != "" {
		set = append(set, bson.E{Key: "title", Value: patch.Title})
	}
	if patch.Content != "" {
		set = append(set, bson.E{Key: "content", Value: patch.Content})
	}

	var doc postDocument
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "author", Value: aid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missOrForeign(ctx, oid)
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *PostRepository) DeleteByAuthor(ctx context.Context, id, authorID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	aid, _ := primitive.ObjectIDFromHex(authorID)

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}, {Key: "author", Value: aid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return r.missOrForeign(ctx, oid)
	}
	return nil
}

func (r *PostRepository) AddLike(ctx context.Context, id, userID string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, repository.ErrNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	// 过滤条件里排除已点赞的用户，检查和写入在同一条命令里完成
	var doc postDocument
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "likes", Value: bson.D{{Key: "$ne", Value: uid}}}},
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "likes", Value: uid}}}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.D{{Key: "likes", Value: 1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		exists, err := r.exists(ctx, oid)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, repository.ErrDuplicateKey
		}
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return len(doc.Likes), nil
}

func (r *PostRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]postDocument, error) {
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *PostRepository) exists(ctx context.Context, oid primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// missOrForeign 条件写未命中: 帖子不存在或不是作者本人
func (r *PostRepository) missOrForeign(ctx context.Context, oid primitive.ObjectID) error {
	exists, err := r.exists(ctx, oid)
	if err != nil {
		return err
	}
	if exists {
		return repository.ErrNotOwner
	}
	return repository.ErrNotFound
}

package vectordb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leon37/Inkpost/internal/model"
	"github.com/leon37/Inkpost/internal/repository"
	pb "github.com/qdrant/go-client/qdrant"
)

type QdrantRepository struct {
	client *QdrantClient
}

// NewQdrantRepository 构造函数
func NewQdrantRepository(client *QdrantClient) repository.PostIndex {
	return &QdrantRepository{client: client}
}

// PointID Qdrant 只接受整数或 UUID 作为点 ID，帖子 id 可能是 ObjectID，
// 这里用 UUIDv5 做稳定映射，原始 id 放在 payload 里
func PointID(postID string) *pb.PointId {
	return &pb.PointId{
		PointIdOptions: &pb.PointId_Uuid{Uuid: uuid.NewSHA1(uuid.NameSpaceOID, []byte(postID)).String()},
	}
}

func (r *QdrantRepository) Save(ctx context.Context, post *model.Post, vector []float32) error {
	points := []*pb.PointStruct{
		{
			Id: PointID(post.ID),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vector},
				},
			},
			Payload: map[string]*pb.Value{
				"post_id":   {Kind: &pb.Value_StringValue{StringValue: post.ID}},
				"title":     {Kind: &pb.Value_StringValue{StringValue: post.Title}},
				"author_id": {Kind: &pb.Value_StringValue{StringValue: post.AuthorID}},
				"timestamp": {Kind: &pb.Value_IntegerValue{IntegerValue: time.Now().Unix()}},
			},
		},
	}

	wait := true
	_, err := r.client.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.client.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (r *QdrantRepository) SearchSimilar(ctx context.Context, queryVector []float32, excludeID string, limit int) ([]repository.SimilarPost, error) {
	// 排除帖子自身
	filter := &pb.Filter{
		MustNot: []*pb.Condition{{
			ConditionOneOf: &pb.Condition_HasId{
				HasId: &pb.HasIdCondition{HasId: []*pb.PointId{PointID(excludeID)}},
			},
		}},
	}

	searchResult, err := r.client.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.client.collection,
		Vector:         queryVector,
		Limit:          uint64(limit),
		Filter:         filter,
		// 必须开启 Enable，否则只返回 ID 和 Score
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	return toSimilarPosts(searchResult.GetResult()), nil
}

func (r *QdrantRepository) Delete(ctx context.Context, postID string) error {
	_, err := r.client.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.client.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: []*pb.PointId{PointID(postID)}},
			},
		},
	})
	return err
}

func toSimilarPosts(points []*pb.ScoredPoint) []repository.SimilarPost {
	out := make([]repository.SimilarPost, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		out = append(out, repository.SimilarPost{
			ID:    payload["post_id"].GetStringValue(),
			Title: payload["title"].GetStringValue(),
			Score: point.GetScore(),
		})
	}
	return out
}

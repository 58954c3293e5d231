package vectordb

import (
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
)

func TestPointID_Stable(t *testing.T) {
	a := PointID("65a1f0c2e4b0a1b2c3d4e5f6").GetUuid()
	b := PointID("65a1f0c2e4b0a1b2c3d4e5f6").GetUuid()
	c := PointID("018f2b6e-7c3a-7d11-8e00-e7de40e76670").GetUuid()

	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestToSimilarPosts(t *testing.T) {
	points := []*pb.ScoredPoint{
		{
			Id:    PointID("p1"),
			Score: 0.92,
			Payload: map[string]*pb.Value{
				"post_id": {Kind: &pb.Value_StringValue{StringValue: "p1"}},
				"title":   {Kind: &pb.Value_StringValue{StringValue: "Go generics"}},
			},
		},
		{Id: PointID("p2"), Score: 0.5},
	}

	got := toSimilarPosts(points)
	assert.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "Go generics", got[0].Title)
	assert.InDelta(t, 0.92, got[0].Score, 1e-6)
	assert.Empty(t, got[1].ID)
}

package vectordb

import (
	"context"
	"fmt"
	"log/slog"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type QdrantClient struct {
	conn       *grpc.ClientConn
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	vectorSize uint64
}

// NewQdrantClient 初始化连接 (gRPC)
func NewQdrantClient(host string, port int, collection string, vectorSize uint64) (*QdrantClient, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("did not connect to qdrant: %w", err)
	}

	return &QdrantClient{
		conn:       conn,
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: collection,
		vectorSize: vectorSize,
	}, nil
}

// Close 关闭连接
func (q *QdrantClient) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// InitCollection 确保向量集合存在
func (q *QdrantClient) InitCollection(ctx context.Context) error {
	exists, err := q.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: q.collection,
	})
	if err == nil && exists != nil {
		// 换了 embedding 模型但没换集合时维度会对不上，写入全部失败，启动时就报出来
		size := exists.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size != 0 && size != q.vectorSize {
			return fmt.Errorf("collection %s has vector size %d, configured %d", q.collection, size, q.vectorSize)
		}
		slog.Info("Qdrant collection already exists", "collection", q.collection)
		return nil
	}

	slog.Info("Creating Qdrant collection", "collection", q.collection, "dim", q.vectorSize)
	_, err = q.client.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     q.vectorSize,
					Distance: pb.Distance_Cosine, // 余弦相似度最适合文本语义检索
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

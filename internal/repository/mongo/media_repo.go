package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Himejjad/media-app/internal/domain"
	"github.com/Himejjad/media-app/internal/repository"
)

const mediaCollectionName = "media"

// mongoMediaRepository implements repository.MediaRepository
type mongoMediaRepository struct {
	collection *mongo.Collection
}

// NewMongoMediaRepository creates a new media catalog repository backed by MongoDB.
func NewMongoMediaRepository(db *mongo.Database) repository.MediaRepository {
	return &mongoMediaRepository{
		collection: db.Collection(mediaCollectionName),
	}
}

// Create inserts a new catalog record. The identifier and timestamps are
// assigned here; the caller's struct is updated in place.
func (r *mongoMediaRepository) Create(ctx context.Context, media *domain.Media) (primitive.ObjectID, error) {
	if media.S3Key == "" || media.URL == "" {
		return primitive.NilObjectID, errors.New("media requires s3Key and url")
	}

	media.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	media.CreatedAt = now
	media.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, media)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single catalog record.
func (r *mongoMediaRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Media, error) {
	var media domain.Media
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&media)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &media, nil
}

// Delete removes a catalog record by id.
func (r *mongoMediaRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List runs the filtered, sorted, paginated query and counts the total
// matches with the same filter.
func (r *mongoMediaRepository) List(ctx context.Context, opts domain.ListOptions) (*repository.ListResult, error) {
	filter := bson.M{}
	if opts.Type != "" {
		filter["type"] = opts.Type
	}

	dir := -1
	if opts.Order == domain.OrderAsc {
		dir = 1
	}
	skip := int64(opts.Page-1) * int64(opts.Limit)

	findOpts := options.Find().
		SetSort(bson.D{{Key: opts.Sort, Value: dir}}).
		SetSkip(skip).
		SetLimit(int64(opts.Limit))

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []domain.Media{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &repository.ListResult{Items: items, Total: total}, nil
}

// Stats aggregates count and cumulative size per media type.
func (r *mongoMediaRepository) Stats(ctx context.Context) (*domain.StatsSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "totalSize", Value: bson.D{{Key: "$sum", Value: "$size"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Type      string `bson:"_id"`
		Count     int64  `bson:"count"`
		TotalSize int64  `bson:"totalSize"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	summary := &domain.StatsSummary{}
	for _, row := range rows {
		summary.Total += row.Count
		summary.TotalSize += row.TotalSize
		switch domain.MediaType(row.Type) {
		case domain.MediaTypeImage:
			summary.Images = row.Count
			summary.ImagesSize = row.TotalSize
		case domain.MediaTypeAudio:
			summary.Audio = row.Count
			summary.AudioSize = row.TotalSize
		}
	}
	return summary, nil
}

// EnsureMediaIndexes creates the indexes the list and search paths rely on.
func EnsureMediaIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Covers the type filter with the default createdAt ordering.
			Keys: bson.D{{Key: "type", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "name", Value: "text"}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

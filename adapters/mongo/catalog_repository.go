package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
)

// containsLimit caps substring candidate fetches; the resolver ranks the
// candidates, it does not need the whole catalog.
const containsLimit = 50

type CatalogRepository struct {
	collection *mongo.Collection
}

// NewCatalogRepository creates a MongoDB-backed catalog repository over the
// clips collection.
func NewCatalogRepository(db *mongo.Database) repositories.CatalogRepository {
	return &CatalogRepository{
		collection: db.Collection("clips"),
	}
}

// FindExact implements repositories.CatalogRepository. Text matching is
// case-insensitive on the trimmed query; inactive clips never match.
func (r *CatalogRepository) FindExact(ctx context.Context, q repositories.ClipQuery) (*entities.CatalogClip, error) {
	filter := clipFilter(q)
	filter["texts."+string(q.MatchLanguage)] = exactPattern(q.Text)

	var clip entities.CatalogClip
	err := r.collection.FindOne(ctx, filter).Decode(&clip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find clip for %q: %w", q.Text, err)
	}
	return &clip, nil
}

// FindContains implements repositories.CatalogRepository.
func (r *CatalogRepository) FindContains(ctx context.Context, q repositories.ClipQuery) ([]*entities.CatalogClip, error) {
	filter := clipFilter(q)
	filter["texts."+string(q.MatchLanguage)] = containsPattern(q.Text)

	opts := options.Find().
		SetLimit(containsLimit).
		SetSort(bson.M{"created_at": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search clips for %q: %w", q.Text, err)
	}
	defer cursor.Close(ctx)

	var clips []*entities.CatalogClip
	if err := cursor.All(ctx, &clips); err != nil {
		return nil, fmt.Errorf("failed to decode clip candidates: %w", err)
	}
	return clips, nil
}

// CountByTemplate implements repositories.CatalogRepository.
func (r *CatalogRepository) CountByTemplate(ctx context.Context, templateID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"template_id": templateID,
		"active":      true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count segments for template %s: %w", templateID, err)
	}
	return count, nil
}

// Insert implements repositories.CatalogRepository.
func (r *CatalogRepository) Insert(ctx context.Context, clip *entities.CatalogClip) error {
	if clip == nil {
		return errors.New("clip cannot be nil")
	}
	now := time.Now()
	if clip.CreatedAt.IsZero() {
		clip.CreatedAt = now
	}
	clip.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, clip)
	if err != nil {
		return fmt.Errorf("failed to insert clip: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		clip.ID = oid.Hex()
	}
	return nil
}

// Update implements repositories.CatalogRepository.
// DeactivateByTemplate implements repositories.CatalogRepository.
func (r *CatalogRepository) DeactivateByTemplate(ctx context.Context, templateID string) (int64, error) {
	filter := bson.M{"template_id": templateID, "active": true}
	update := bson.M{"$set": bson.M{"active": false, "updated_at": time.Now()}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate segments of template %s: %w", templateID, err)
	}
	return result.ModifiedCount, nil
}

func (r *CatalogRepository) Update(ctx context.Context, clip *entities.CatalogClip) error {
	if clip == nil {
		return errors.New("clip cannot be nil")
	}
	if clip.ID == "" {
		return errors.New("clip ID cannot be empty")
	}
	objectID, err := primitive.ObjectIDFromHex(clip.ID)
	if err != nil {
		return fmt.Errorf("invalid clip ID %s: %w", clip.ID, err)
	}

	clip.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"texts":       clip.Texts,
		"audio_paths": clip.AudioPaths,
		"active":      clip.Active,
		"updated_at":  clip.UpdatedAt,
	}}
	result, err := r.collection.UpdateByID(ctx, objectID, update)
	if err != nil {
		return fmt.Errorf("failed to update clip %s: %w", clip.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("clip %s not found", clip.ID)
	}
	return nil
}

// clipFilter builds the filter parts shared by every clip query: active
// records only, matching template scope, with audio stored for the target
// language.
func clipFilter(q repositories.ClipQuery) bson.M {
	filter := bson.M{
		"active":                                 true,
		"audio_paths." + string(q.AudioLanguage): bson.M{"$exists": true, "$nin": bson.A{nil, ""}},
	}
	if q.TemplateID != "" {
		filter["template_id"] = q.TemplateID
	} else {
		filter["template_id"] = bson.M{"$in": bson.A{nil, ""}}
	}
	return filter
}

func exactPattern(text string) primitive.Regex {
	return primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(text)) + "$",
		Options: "i",
	}
}

func containsPattern(text string) primitive.Regex {
	return primitive.Regex{
		Pattern: regexp.QuoteMeta(strings.TrimSpace(text)),
		Options: "i",
	}
}

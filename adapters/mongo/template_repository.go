package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wras-dhh/server/domain"
	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
)

type TemplateRepository struct {
	collection *mongo.Collection
}

// NewTemplateRepository creates a MongoDB-backed template repository.
func NewTemplateRepository(db *mongo.Database) repositories.TemplateRepository {
	return &TemplateRepository{
		collection: db.Collection("templates"),
	}
}

// GetByID implements repositories.TemplateRepository. Inactive templates
// report domain.ErrNotFound like missing ones.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*entities.AnnouncementTemplate, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var template entities.AnnouncementTemplate
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID, "active": true}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template %s: %w", id, err)
	}
	return &template, nil
}

// FindByEnglishText implements repositories.TemplateRepository.
func (r *TemplateRepository) FindByEnglishText(ctx context.Context, text string) (*entities.AnnouncementTemplate, error) {
	filter := bson.M{
		"active": true,
		"texts." + string(entities.LanguageEnglish): exactPattern(text),
	}
	var template entities.AnnouncementTemplate
	err := r.collection.FindOne(ctx, filter).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find template by text: %w", err)
	}
	return &template, nil
}

// List implements repositories.TemplateRepository.
func (r *TemplateRepository) List(ctx context.Context) ([]*entities.AnnouncementTemplate, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []*entities.AnnouncementTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}
	return templates, nil
}

// Insert implements repositories.TemplateRepository.
func (r *TemplateRepository) Insert(ctx context.Context, template *entities.AnnouncementTemplate) error {
	if template == nil {
		return errors.New("template cannot be nil")
	}
	now := time.Now()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, template)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		template.ID = oid.Hex()
	}
	return nil
}

// Deactivate implements repositories.TemplateRepository. The record stays
// for history but disappears from every active-filtered read.
func (r *TemplateRepository) Deactivate(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	update := bson.M{"$set": bson.M{"active": false, "updated_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "active": true}, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate template %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

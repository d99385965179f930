package slotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotpass/database"
	"slotpass/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrTemplateExists is returned when a (facility, slot type) template is
// already defined.
var ErrTemplateExists = errors.New("slot template already exists")

// SlotRepository stores slot templates and the capacity rows the
// materializer expands them into.
type SlotRepository interface {
	CreateTemplate(ctx context.Context, tmpl *models.SlotTemplate) error
	GetTemplateByID(ctx context.Context, templateID string) (*models.SlotTemplate, error)
	GetTemplatesByFacility(ctx context.Context, facilityID string) ([]models.SlotTemplate, error)
	ListExpiredTemplates(ctx context.Context, before string) ([]models.SlotTemplate, error)
	UpdateTemplateValidTill(ctx context.Context, templateID, validTill string) error
	UpdateTemplateCapacity(ctx context.Context, templateID string, capacity int) error

	CapacitySlotExists(ctx context.Context, facilityID, date, slotType string) (bool, error)
	InsertCapacitySlot(ctx context.Context, slot *models.CapacitySlot) error

	// MaxBooked returns the highest booked counter across the capacity rows
	// of (facility, slot type), zero when none exist.
	MaxBooked(ctx context.Context, facilityID, slotType string) (int, error)
}

// MongoSlotRepo implements SlotRepository using MongoDB.
type MongoSlotRepo struct {
	templateColl *mongo.Collection
	slotColl     *mongo.Collection
}

// NewMongoSlotRepo constructs a new instance of MongoSlotRepo.
func NewMongoSlotRepo() *MongoSlotRepo {
	db := database.DB()
	return &MongoSlotRepo{
		templateColl: db.Collection("slot_templates"),
		slotColl:     db.Collection("facility_slots"),
	}
}

func (r *MongoSlotRepo) CreateTemplate(ctx context.Context, tmpl *models.SlotTemplate) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	if _, err := r.templateColl.InsertOne(ctx, tmpl); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrTemplateExists
		}
		return fmt.Errorf("insert slot template failed: %w", err)
	}
	return nil
}

func (r *MongoSlotRepo) GetTemplateByID(ctx context.Context, templateID string) (*models.SlotTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var tmpl models.SlotTemplate
	err := r.templateColl.FindOne(ctx, bson.M{"id": templateID}).Decode(&tmpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching template %s: %w", templateID, err)
	}
	return &tmpl, nil
}

func (r *MongoSlotRepo) GetTemplatesByFacility(ctx context.Context, facilityID string) ([]models.SlotTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.templateColl.Find(ctx, bson.M{"facility_id": facilityID})
	if err != nil {
		return nil, fmt.Errorf("error listing templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []models.SlotTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *MongoSlotRepo) ListExpiredTemplates(ctx context.Context, before string) ([]models.SlotTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.templateColl.Find(ctx, bson.M{"valid_till": bson.M{"$lt": before}})
	if err != nil {
		return nil, fmt.Errorf("error listing expired templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []models.SlotTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *MongoSlotRepo) UpdateTemplateValidTill(ctx context.Context, templateID, validTill string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"valid_till": validTill, "updated_at": time.Now()}}
	if _, err := r.templateColl.UpdateOne(ctx, bson.M{"id": templateID}, update); err != nil {
		return fmt.Errorf("error extending template %s: %w", templateID, err)
	}
	return nil
}

func (r *MongoSlotRepo) UpdateTemplateCapacity(ctx context.Context, templateID string, capacity int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"capacity": capacity, "updated_at": time.Now()}}
	if _, err := r.templateColl.UpdateOne(ctx, bson.M{"id": templateID}, update); err != nil {
		return fmt.Errorf("error updating template capacity: %w", err)
	}
	return nil
}

func (r *MongoSlotRepo) CapacitySlotExists(ctx context.Context, facilityID, date, slotType string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"facility_id": facilityID, "date": date, "slot_type": slotType}
	count, err := r.slotColl.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking capacity slot: %w", err)
	}
	return count > 0, nil
}

func (r *MongoSlotRepo) InsertCapacitySlot(ctx context.Context, slot *models.CapacitySlot) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	if _, err := r.slotColl.InsertOne(ctx, slot); err != nil {
		// Concurrent materialization of the same date is benign; the unique
		// index keeps the row single and insert-only semantics hold.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert capacity slot failed: %w", err)
	}
	return nil
}

func (r *MongoSlotRepo) MaxBooked(ctx context.Context, facilityID, slotType string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"facility_id": facilityID, "slot_type": slotType}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "max_booked": bson.M{"$max": "$booked"}}}},
	}
	cursor, err := r.slotColl.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("error aggregating booked counters: %w", err)
	}
	defer cursor.Close(ctx)

	var out []struct {
		MaxBooked int `bson:"max_booked"`
	}
	if err := cursor.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].MaxBooked, nil
}

package mongorepo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
)

var byCreation = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.products.InsertOne(ctx, p)
	return mapErr(err)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) GetProductsByOwner(ctx context.Context, ownerID string) ([]models.Product, error) {
	cur, err := s.products.Find(ctx, bson.M{"user": ownerID}, options.Find().SetSort(byCreation))
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]models.Product, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return items, nil
}

func (s *Store) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	total, err := s.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, nil, fmt.Errorf("mongo count: %w", err)
	}

	opts := options.Find().
		SetSort(byCreation).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := s.products.Find(ctx, bson.M{}, opts)
	if err != nil {
		return 0, nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]models.Product, 0, limit)
	if err := cur.All(ctx, &items); err != nil {
		return 0, nil, fmt.Errorf("mongo decode: %w", err)
	}
	return total, items, nil
}

// SaveProduct sets the mutable fields only; the owner is never rewritten.
func (s *Store) SaveProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = s.now()
	res, err := s.products.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":         p.Name,
		"image":        p.Image,
		"description":  p.Description,
		"price":        p.Price,
		"countInStock": p.CountInStock,
		"updatedAt":    p.UpdatedAt,
	}})
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

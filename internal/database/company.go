package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"MudaBot/entity"
)

// companiesForState finds active partner companies serving the given state.
// An empty state matches nothing: without a normalized origin there is no
// one to notify.
func (m *MongoDB) companiesForState(ctx context.Context, connection *mongo.Client, state string) ([]entity.Company, error) {
	if state == "" {
		return nil, nil
	}

	collection := connection.Database(m.database).Collection(companiesCollection)
	filter := bson.D{
		{Key: "active", Value: true},
		{Key: "states", Value: state},
	}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer cursor.Close(ctx)

	var companies []entity.Company
	if err := cursor.All(ctx, &companies); err != nil {
		return nil, fmt.Errorf("mongodb decode error: %w", err)
	}

	return companies, nil
}

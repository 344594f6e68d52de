package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"MudaBot/entity"
	"MudaBot/internal/lib/sl"
)

// Save persists a completed quote and returns which partner companies were
// notified. Implements intake.QuoteSaver.
func (m *MongoDB) Save(ctx context.Context, facts entity.TripFacts, estimate entity.Estimate) (*entity.QuoteResult, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	companies, err := m.companiesForState(ctx, connection, estimate.OriginState)
	if err != nil {
		m.log.With(
			slog.String("state", estimate.OriginState),
			sl.Err(err),
		).Error("matching companies")
		return nil, err
	}

	record := entity.QuoteRecord{
		TrackingCode: newTrackingCode(),
		Facts:        facts,
		Estimate:     estimate,
		CreatedAt:    time.Now(),
	}

	notified := make([]entity.NotifiedCompany, 0, len(companies))
	for _, c := range companies {
		record.NotifiedCompanies = append(record.NotifiedCompanies, c.Name)
		notified = append(notified, entity.NotifiedCompany{
			Name:        c.Name,
			Phone:       c.Phone,
			ContactLink: contactLink(c, record.TrackingCode),
		})
	}

	collection := connection.Database(m.database).Collection(quotesCollection)
	res, err := collection.InsertOne(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("mongodb insert error: %w", err)
	}

	recordID := ""
	if oid, ok := res.InsertedID.(interface{ Hex() string }); ok {
		recordID = oid.Hex()
	}

	return &entity.QuoteResult{
		RecordID:          recordID,
		TrackingCode:      record.TrackingCode,
		NotifiedCompanies: notified,
	}, nil
}

// RecentQuotes lists the latest persisted quotes for the dashboard.
func (m *MongoDB) RecentQuotes(ctx context.Context, limit int64) ([]entity.QuoteRecord, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(quotesCollection)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer cursor.Close(ctx)

	var quotes []entity.QuoteRecord
	if err := cursor.All(ctx, &quotes); err != nil {
		return nil, fmt.Errorf("mongodb decode error: %w", err)
	}

	return quotes, nil
}

// newTrackingCode mints a short user-facing code.
func newTrackingCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// contactLink builds the click-to-chat link for a company, pre-filled with
// the tracking code.
func contactLink(c entity.Company, trackingCode string) string {
	phone := c.WhatsApp
	if phone == "" {
		phone = c.Phone
	}
	digits := ""
	for _, ch := range phone {
		if ch >= '0' && ch <= '9' {
			digits += string(ch)
		}
	}
	if digits == "" {
		return ""
	}
	return fmt.Sprintf("https://wa.me/%s?text=Mudan%%C3%%A7a%%20%s", digits, trackingCode)
}

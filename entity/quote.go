package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripFacts holds the answers collected during an intake conversation.
// Fields are filled monotonically as the dialogue advances.
type TripFacts struct {
	Origin        string `json:"origin" bson:"origin"`
	Destination   string `json:"destination" bson:"destination"`
	PropertyType  string `json:"property_type" bson:"property_type"`
	SizeEstimate  string `json:"size_estimate" bson:"size_estimate"`
	HasElevator   bool   `json:"has_elevator" bson:"has_elevator"`
	Floor         int    `json:"floor" bson:"floor"`
	NeedsPacking  bool   `json:"needs_packing" bson:"needs_packing"`
	ContactName   string `json:"contact_name" bson:"contact_name"`
	Email         string `json:"email" bson:"email"`
	MovingDate    string `json:"moving_date,omitempty" bson:"moving_date,omitempty"` // YYYY-MM-DD, empty when skipped
	WantsItemList bool   `json:"wants_item_list" bson:"wants_item_list"`
	ItemList      string `json:"item_list,omitempty" bson:"item_list,omitempty"`
}

// Estimate is the price-estimation result for a trip.
type Estimate struct {
	DistanceKm       float64 `json:"distance_km" bson:"distance_km"`
	PriceMin         float64 `json:"price_min" bson:"price_min"`
	PriceMax         float64 `json:"price_max" bson:"price_max"`
	Explanation      string  `json:"explanation" bson:"explanation"`
	OriginCity       string  `json:"origin_city" bson:"origin_city"`
	OriginState      string  `json:"origin_state" bson:"origin_state"`
	DestinationCity  string  `json:"destination_city" bson:"destination_city"`
	DestinationState string  `json:"destination_state" bson:"destination_state"`
}

// QuoteRecord is the persisted quote document.
type QuoteRecord struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TrackingCode      string             `json:"tracking_code" bson:"tracking_code"`
	Facts             TripFacts          `json:"facts" bson:"facts"`
	Estimate          Estimate           `json:"estimate" bson:"estimate"`
	NotifiedCompanies []string           `json:"notified_companies" bson:"notified_companies"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
}

// NotifiedCompany describes a partner company notified about a new quote.
type NotifiedCompany struct {
	Name        string `json:"name" bson:"name"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty"`
	ContactLink string `json:"contact_link,omitempty" bson:"contact_link,omitempty"`
}

// QuoteResult is what the persistence layer reports back to the finalizer.
type QuoteResult struct {
	RecordID          string            `json:"record_id"`
	TrackingCode      string            `json:"tracking_code,omitempty"`
	NotifiedCompanies []NotifiedCompany `json:"notified_companies"`
}

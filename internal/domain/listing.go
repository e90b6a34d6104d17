package domain

import "time"

type Storage string

const (
	Storage64GB  Storage = "64GB"
	Storage128GB Storage = "128GB"
	Storage256GB Storage = "256GB"
	Storage512GB Storage = "512GB"
	Storage1TB   Storage = "1TB"
	Storage2TB   Storage = "2TB"
)

// StorageOptions lists capacities in the order clients display them.
var StorageOptions = []Storage{Storage64GB, Storage128GB, Storage256GB, Storage512GB, Storage1TB, Storage2TB}

func (s Storage) Valid() bool {
	for _, o := range StorageOptions {
		if s == o {
			return true
		}
	}
	return false
}

type Condition string

const (
	ConditionGood    Condition = "yaxshi"
	ConditionAverage Condition = "ortacha"
	ConditionPoor    Condition = "yaxshi_emas"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionGood, ConditionAverage, ConditionPoor:
		return true
	}
	return false
}

type City string

var CityOptions = []City{
	"Toshkent", "Samarqand", "Buxoro", "Namangan", "Andijon", "Fargona", "Qarshi",
	"Nukus", "Urganch", "Jizzax", "Navoiy", "Guliston", "Termiz", "Chirchiq",
}

func (c City) Valid() bool {
	for _, o := range CityOptions {
		if c == o {
			return true
		}
	}
	return false
}

// Listing is a phone offered for sale.
type Listing struct {
	ListingID     string    `json:"id" dynamodbav:"listing_id"`
	Name          string    `json:"name" dynamodbav:"name"`
	Description   *string   `json:"description" dynamodbav:"description"`
	Price         float64   `json:"price" dynamodbav:"price"`
	Storage       Storage   `json:"storage" dynamodbav:"storage"`
	Condition     Condition `json:"condition" dynamodbav:"condition"`
	City          City      `json:"city" dynamodbav:"city"`
	BrandID       *string   `json:"brand_id" dynamodbav:"brand_id"`
	BatteryHealth *int      `json:"battery_health" dynamodbav:"battery_health"`
	OwnerID       string    `json:"owner_id" dynamodbav:"owner_id"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
	Images        []string  `json:"images,omitempty" dynamodbav:"-"`
}

// ListingImage orders the object keys attached to a listing. Index 0 is primary.
type ListingImage struct {
	ListingID    string    `json:"listing_id" dynamodbav:"listing_id"`
	DisplayOrder int       `json:"display_order" dynamodbav:"display_order"`
	ObjectKey    string    `json:"object_key" dynamodbav:"object_key"`
	IsPrimary    bool      `json:"is_primary" dynamodbav:"is_primary"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}

type Brand struct {
	BrandID   string    `json:"id" dynamodbav:"brand_id"`
	Name      string    `json:"name" dynamodbav:"name"`
	LogoURL   *string   `json:"logo_url" dynamodbav:"logo_url"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type BrandInput struct {
	Name    string  `json:"name" validate:"required"`
	LogoURL *string `json:"logo_url" validate:"omitempty,url"`
}

type CreateListingRequest struct {
	Name          string    `json:"name" validate:"required"`
	Description   *string   `json:"description"`
	Price         float64   `json:"price" validate:"gte=0"`
	Storage       Storage   `json:"storage" validate:"required,storage"`
	Condition     Condition `json:"condition" validate:"required,condition"`
	City          City      `json:"city" validate:"required,city"`
	BrandID       *string   `json:"brand_id"`
	BatteryHealth *int      `json:"battery_health" validate:"omitempty,min=0,max=100"`
}

type UpdateListingRequest struct {
	Name          *string    `json:"name" validate:"omitempty,min=1"`
	Description   *string    `json:"description"`
	Price         *float64   `json:"price" validate:"omitempty,gte=0"`
	Storage       *Storage   `json:"storage" validate:"omitempty,storage"`
	Condition     *Condition `json:"condition" validate:"omitempty,condition"`
	City          *City      `json:"city" validate:"omitempty,city"`
	BrandID       *string    `json:"brand_id"`
	BatteryHealth *int       `json:"battery_health" validate:"omitempty,min=0,max=100"`
}

type SetImagesRequest struct {
	ObjectKeys []string `json:"object_keys" validate:"max=10,dive,required"`
}

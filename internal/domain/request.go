package domain

import "time"

// SearchRequest is a saved search whose owner wants to hear about new matching listings.
type SearchRequest struct {
	RequestID string     `json:"id" dynamodbav:"request_id"`
	UserID    string     `json:"user_id" dynamodbav:"user_id"`
	Keywords  string     `json:"keywords" dynamodbav:"keywords"`
	MinPrice  *float64   `json:"min_price" dynamodbav:"min_price"`
	MaxPrice  *float64   `json:"max_price" dynamodbav:"max_price"`
	City      *City      `json:"city" dynamodbav:"city"`
	Storage   *Storage   `json:"storage" dynamodbav:"storage"`
	Condition *Condition `json:"condition" dynamodbav:"condition"`
	BrandID   *string    `json:"brand_id" dynamodbav:"brand_id"`
	IsActive  bool       `json:"is_active" dynamodbav:"is_active"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateSearchRequest struct {
	Keywords  string     `json:"keywords" validate:"required"`
	MinPrice  *float64   `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice  *float64   `json:"max_price" validate:"omitempty,gte=0"`
	City      *City      `json:"city" validate:"omitempty,city"`
	Storage   *Storage   `json:"storage" validate:"omitempty,storage"`
	Condition *Condition `json:"condition" validate:"omitempty,condition"`
	BrandID   *string    `json:"brand_id"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

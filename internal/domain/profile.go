package domain

import "time"

type Profile struct {
	UserID    string    `json:"id" dynamodbav:"user_id"`
	FullName  *string   `json:"full_name" dynamodbav:"full_name"`
	AvatarURL *string   `json:"avatar_url" dynamodbav:"avatar_url"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,max=120"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// Like marks a listing as liked by a user. PK: user_id, SK: listing_id.
type Like struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	ListingID string    `json:"listing_id" dynamodbav:"listing_id"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

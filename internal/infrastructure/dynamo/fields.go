package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUpdatedAt = "updated_at"
	fieldIsActive  = "is_active"
	fieldIsRead    = "is_read"
	fieldContent   = "content"
)

// Global secondary index names shared by Bootstrap and the repos.
const (
	indexOwnerCreated    = "owner_id-created_at-index"
	indexCityCreated     = "city-created_at-index"
	indexUserCreated     = "user_id-created_at-index"
	indexSenderCreated   = "sender_id-created_at-index"
	indexReceiverCreated = "receiver_id-created_at-index"
	indexListingCreated  = "listing_id-created_at-index"
)

package dynamo

// DynamoDB attribute names used in keys and expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldParishID       = "parish_id"
	fieldNotificationID = "notification_id"
	fieldUserID         = "user_id"
	fieldEndpoint       = "endpoint"
	fieldTitle          = "title"
	fieldMessage        = "message"
	fieldType           = "type"
	fieldImageURL       = "image_url"
	fieldUpdatedAt      = "updated_at"

	indexParishID = "parish_id-index"
)

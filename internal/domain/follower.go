package domain

// ParishFollower associates an end user with the parish they follow.
// PK: user_id; GSI parish_id-index.
type ParishFollower struct {
	UserID   string `json:"userId" dynamodbav:"user_id"`
	ParishID string `json:"parishId" dynamodbav:"parish_id"`
}

// ParishOwner is the authoritative parish -> owning account mapping.
type ParishOwner struct {
	ParishID       string `json:"parishId" dynamodbav:"parish_id"`
	OwnerAccountID string `json:"ownerAccountId" dynamodbav:"owner_account_id"`
}

const (
	RoleParish   = "parish"
	RoleFollower = "follower"
)

package constant

// Chat message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Document lifecycle statuses
const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

// Document types
const (
	DocumentTypeTermsOfService = "terms_of_service"
	DocumentTypePrivacyPolicy  = "privacy_policy"
	DocumentTypeContract       = "contract"
	DocumentTypeAgreement      = "agreement"
	DocumentTypeOther          = "other"
)

// Event types published to the NATS bus
const (
	EventUserRegistered         = "USER_REGISTERED"
	EventUserLogin              = "USER_LOGIN"
	EventUserDeleted            = "USER_DELETED"
	EventDocumentAnalyzed       = "DOCUMENT_ANALYZED"
	EventDocumentAnalysisFailed = "DOCUMENT_ANALYSIS_FAILED"
	EventDocumentMasked         = "DOCUMENT_MASKED"
)

package dto

type MaskTextRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

type MaskTextResponse struct {
	OriginalText string `json:"original_text"`
	MaskedText   string `json:"masked_text"`
	ModelUsed    string `json:"model_used"`
}

type MaskedContentResponse struct {
	OriginalContent string `json:"original_content"`
	MaskedContent   string `json:"masked_content"`
	OriginalLength  int    `json:"original_length"`
	MaskedLength    int    `json:"masked_length"`
	MaskedAt        string `json:"masked_at"`
	ModelUsed       string `json:"model_used"`
}

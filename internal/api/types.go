package api

// GenerateAnnouncementRequest starts one four-language generation job.
type GenerateAnnouncementRequest struct {
	TemplateID string            `json:"template_id"`
	Bindings   map[string]string `json:"placeholder_values"`
}

// GenerateAnnouncementResponse returns the key clients poll for progress.
type GenerateAnnouncementResponse struct {
	GenerationKey string `json:"generation_key"`
	Status        string `json:"status"`
}

// CreateAudioFileRequest creates a catalog entry from English text.
type CreateAudioFileRequest struct {
	Text string `json:"text"`
}

// TextToISLRequest builds a sign-language page from typed text.
type TextToISLRequest struct {
	Text string `json:"text"`
}

// CreateTemplateRequest registers an announcement template. Texts maps
// language names to the template text; english is required.
type CreateTemplateRequest struct {
	Category string            `json:"category"`
	Title    string            `json:"title"`
	Texts    map[string]string `json:"texts"`
}

// DeleteTemplateResponse reports a template soft-delete, including how many
// harvested segments went with it.
type DeleteTemplateResponse struct {
	ID                  string `json:"id"`
	SegmentsDeactivated int64  `json:"segments_deactivated"`
}

// PublishRequest publishes a presentation page for one flow.
type PublishRequest struct {
	Title       string            `json:"title,omitempty"`
	VideoURL    string            `json:"video_url"`
	AudioURL    string            `json:"audio_url"`
	Texts       map[string]string `json:"texts"`
	TrainNumber string            `json:"train_number,omitempty"`
}

// PublishResponse carries the public URL of the written page.
type PublishResponse struct {
	PageURL string `json:"page_url"`
}

// ClearResponse lists the files a clear operation removed.
type ClearResponse struct {
	Removed []string `json:"removed"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

package pdf

import "github.com/MeKo-Tech/digitread/internal/pipeline"

// PageResult holds the recognition results for one PDF page.
type PageResult struct {
	PageNumber int           `json:"page_number"`
	Images     []ImageResult `json:"images"`
}

// ImageResult is the recognition result for one embedded image. Images in
// which nothing was recognized carry Error instead of Result.
type ImageResult struct {
	ImageIndex int                         `json:"image_index"`
	Width      int                         `json:"width"`
	Height     int                         `json:"height"`
	Result     *pipeline.RecognitionResult `json:"result,omitempty"`
	Error      string                      `json:"error,omitempty"`
}

// DocumentResult holds the results for a whole PDF document.
type DocumentResult struct {
	Filename   string         `json:"filename"`
	TotalPages int            `json:"total_pages"`
	Pages      []PageResult   `json:"pages"`
	Processing ProcessingInfo `json:"processing"`
}

// ProcessingInfo contains timing information.
type ProcessingInfo struct {
	ExtractionTimeMs  int64 `json:"extraction_time_ms"`
	RecognitionTimeMs int64 `json:"recognition_time_ms"`
	TotalTimeMs       int64 `json:"total_time_ms"`
}

// Predictions returns the recognized digit strings in page and image order.
func (d *DocumentResult) Predictions() []string {
	var out []string
	for _, p := range d.Pages {
		for _, img := range p.Images {
			if img.Result != nil {
				out = append(out, img.Result.Prediction)
			}
		}
	}
	return out
}

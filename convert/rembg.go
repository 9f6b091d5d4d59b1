package convert

import (
	"context"

	"github.com/google/generative-ai-go/genai"
)

const rembgPrompt = "Remove the background from this image completely. " +
	"Return the subject on a fully transparent background as a PNG. " +
	"Do not alter the subject in any other way."

// BackgroundService removes image backgrounds through the Gemini image
// model. A nil client leaves the feature disabled.
type BackgroundService struct {
	client *genai.Client
	model  string
}

// NewBackgroundService creates a new background removal service
func NewBackgroundService(client *genai.Client) *BackgroundService {
	return &BackgroundService{client: client, model: "gemini-2.5-flash-image"}
}

// Enabled reports whether a Gemini client is configured.
func (s *BackgroundService) Enabled() bool {
	return s != nil && s.client != nil
}

// Remove sends the image to the model and returns the returned PNG bytes.
func (s *BackgroundService) Remove(ctx context.Context, data []byte) ([]byte, error) {
	if !s.Enabled() {
		return nil, invalidInput("background removal is not configured on this server")
	}

	// Gemini accepts PNG input regardless of the upload format, so the
	// image is normalized first. This also rejects non-images before the
	// API call.
	img, _, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	pngData, _, err := encodeImage(img, "png", 95)
	if err != nil {
		return nil, err
	}

	model := s.client.GenerativeModel(s.model)
	resp, err := model.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(rembgPrompt),
	)
	if err != nil {
		return nil, processing("background removal failed", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
				return blob.Data, nil
			}
		}
	}
	return nil, processing("model returned no image", nil)
}

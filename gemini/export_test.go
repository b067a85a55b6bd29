package gemini

import "google.golang.org/genai"

// Exported for testing.
var (
	DeriveTitle = deriveTitle
	ExtractText = extractText
)

type Response = genai.GenerateContentResponse

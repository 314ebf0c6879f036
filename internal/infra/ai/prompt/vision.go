package prompt

// Prompts for the OpenAI vision fallback provider. Each capability asks for
// the same shape of answer the Gradio endpoint would return, so the rest of
// the pipeline does not care which provider served the request.

// FullAnalysisSystem asks for a single JSON object of image metadata.
func FullAnalysisSystem() string {
	return `You are an image analysis service. You must produce one valid JSON object only (no markdown, no code fences, no commentary) describing the attached image.

Requirements:
- Output must be a single JSON object.
- Include at least: width, height, format, mode, aspect_ratio, orientation, dominant_colors (array of hex strings), unique_color_estimate, has_text (boolean).
- orientation must be one of: landscape, portrait, square.
- Use numbers for numeric fields, not strings.`
}

// OrientationSystem asks for a bare orientation label.
func OrientationSystem() string {
	return `Classify the attached image orientation. Respond with exactly one lowercase word and nothing else: landscape, portrait, or square.`
}

// ColorsSystem asks for a short plain-text color summary.
func ColorsSystem() string {
	return `Summarize the color content of the attached image in plain text: approximate number of distinct colors and the dominant colors as hex codes. Two or three short lines, no markdown.`
}

// TextInfoSystem asks for a JSON object describing visible text.
func TextInfoSystem() string {
	return `Inspect the attached image for visible text. Respond with one valid JSON object only (no markdown) with fields: has_text (boolean), text_regions (integer), extracted_text (string, empty when none).`
}

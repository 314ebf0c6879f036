package middleware

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

// MaxImageBytes caps uploaded image payloads (decoded request body).
const MaxImageBytes = 10 << 20 // 10 MiB

// ValidateCapability checks if the capability name is in the allowed list
func ValidateCapability(capability string) error {
	allowed := map[string]bool{
		"analyze_image":         true,
		"get_image_orientation": true,
		"count_colors":          true,
		"extract_text_info":     true,
	}

	if !allowed[strings.ToLower(capability)] {
		return fmt.Errorf("invalid capability: %s (allowed: analyze_image, get_image_orientation, count_colors, extract_text_info)", capability)
	}
	return nil
}

// ValidateEndpointURL validates the remote analysis endpoint address
func ValidateEndpointURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("endpoint URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("endpoint URL has no host")
	}

	return nil
}

// ValidateImagePayload checks an uploaded image payload before decoding
func ValidateImagePayload(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("image payload cannot be empty")
	}
	if len(data) > MaxImageBytes {
		return fmt.Errorf("image payload exceeds %d bytes", MaxImageBytes)
	}
	return nil
}

// ValidateAnalysisID validates analysis ID format (UUID)
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}

	pattern := `^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`
	matched, _ := regexp.MatchString(pattern, strings.ToLower(id))
	if !matched {
		return fmt.Errorf("invalid analysis ID format")
	}

	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

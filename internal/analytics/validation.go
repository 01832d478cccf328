// Package analytics provides tour view event capture and processing.
package analytics

import "fmt"

const (
	maxIDLength       = 64
	maxTagLength      = 40
	maxTagsPerEvent   = 10
	visitorHashLength = 16
)

// ValidateViewEventPayload validates view event payload fields.
func ValidateViewEventPayload(payload ViewEventPayload) error {
	if payload.TourID == "" {
		return fmt.Errorf("tour_id is required")
	}
	if len(payload.TourID) > maxIDLength {
		return fmt.Errorf("tour_id too long")
	}
	if len(payload.UserID) > maxIDLength {
		return fmt.Errorf("user_id too long")
	}
	if payload.Source != "" && payload.Source != "api" && payload.Source != "web" {
		return fmt.Errorf("source must be api or web")
	}
	if payload.VisitorHash == "" {
		return fmt.Errorf("visitor_hash is required")
	}
	if len(payload.VisitorHash) != visitorHashLength || !isHex(payload.VisitorHash) {
		return fmt.Errorf("visitor_hash must be %d hex chars", visitorHashLength)
	}
	if payload.ViewedAt <= 0 {
		return fmt.Errorf("viewed_at must be set")
	}
	if len(payload.Tags) > maxTagsPerEvent {
		return fmt.Errorf("too many tags")
	}
	for _, tag := range payload.Tags {
		if tag == "" {
			return fmt.Errorf("tags must not be empty")
		}
		if len(tag) > maxTagLength {
			return fmt.Errorf("tag too long")
		}
	}
	return nil
}

func isHex(value string) bool {
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F') {
			continue
		}
		return false
	}
	return true
}

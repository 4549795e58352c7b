// internal/domain/models/interaction.go
package models

import "time"

// Interaction is a timestamped text record of something the user's Meera
// device saw or did. Backends return them newest first.
type Interaction struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

package testutils

import (
	"fmt"
	"time"

	"github.com/papercomputeco/screens/pkg/generate"
)

// NewTestScreen creates a simple completed screen for testing
func NewTestScreen(generationID string, index int, name string) *generate.Screen {
	return &generate.Screen{
		ID:           fmt.Sprintf("%s-%d-%s", generationID, index, name),
		GenerationID: generationID,
		Index:        index,
		Name:         name,
		Description:  "The " + name + " screen",
		Code:         "<div>" + name + "</div>",
		CreatedAt:    time.Unix(1735689600, 0).UTC().Add(time.Duration(index) * time.Second),
	}
}

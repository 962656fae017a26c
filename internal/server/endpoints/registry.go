package endpoints

import (
	"github.com/wikiquiz/wikiquiz/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health and status
		&HealthEndpoint{},
		&StatusEndpoint{},

		// The message protocol
		&MessageEndpoint{},

		// Prompt catalog
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},

		// Provider call history
		&ListCallsEndpoint{},
	}
}

package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wikiquiz/wikiquiz/internal/api"
	"github.com/wikiquiz/wikiquiz/internal/providers"
	"github.com/wikiquiz/wikiquiz/internal/svcctx"
)

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ProviderStatus reports one registered provider and its limiter state.
type ProviderStatus struct {
	Name    string                       `json:"name"`
	Limiter *providers.RateLimiterStatus `json:"limiter,omitempty"`
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server      string           `json:"server"`
	Providers   []ProviderStatus `json:"providers"`
	Primary     string           `json:"primary"`
	Secondary   string           `json:"secondary,omitempty"`
	CurrentPage string           `json:"current_page,omitempty"`
}

// StatusEndpoint handles GET /api/status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Server status
//	@Description	Registered providers, fallback defaults, and the current page
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/api/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Server: "running"}

	if registry := svcctx.RegistryFrom(r.Context()); registry != nil {
		for _, name := range registry.List() {
			st := ProviderStatus{Name: name}
			if p, err := registry.Get(name); err == nil {
				if l, ok := p.(interface{ Limiter() *providers.RateLimiter }); ok {
					ls := l.Limiter().Status()
					st.Limiter = &ls
				}
			}
			resp.Providers = append(resp.Providers, st)
		}
		resp.Primary, resp.Secondary = registry.Defaults()
	}

	if coord := svcctx.CoordinatorFrom(r.Context()); coord != nil {
		resp.CurrentPage = coord.CurrentURL()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/api/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

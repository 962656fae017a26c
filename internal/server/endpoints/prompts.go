package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wikiquiz/wikiquiz/internal/api"
	"github.com/wikiquiz/wikiquiz/internal/prompts"
)

// PromptsResponse lists the embedded prompt catalog.
type PromptsResponse struct {
	Prompts []prompts.Prompt `json:"prompts"`
}

// PromptResponse carries a single prompt.
type PromptResponse struct {
	Prompt prompts.Prompt `json:"prompt"`
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List prompts
//	@Description	Get the embedded prompt template catalog
//	@Tags			prompts
//	@Produce		json
//	@Success		200	{object}	PromptsResponse
//	@Router			/api/prompts [get]
func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PromptsResponse{Prompts: prompts.Catalog()})
}

func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List the prompt template catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptsResponse
			if err := client.Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp.Prompts)
		},
	}
}

// GetPromptEndpoint handles GET /api/prompts/{key}.
type GetPromptEndpoint struct{}

func (e *GetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts/{key}", e.handler
}

func (e *GetPromptEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Get a prompt
//	@Description	Get one prompt template by key
//	@Tags			prompts
//	@Produce		json
//	@Param			key	path		string	true	"Prompt key, e.g. quiz.summary.standard"
//	@Success		200	{object}	PromptResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/prompts/{key} [get]
func (e *GetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	for _, p := range prompts.Catalog() {
		if p.Key == key {
			writeJSON(w, http.StatusOK, PromptResponse{Prompt: p})
			return
		}
	}
	writeError(w, http.StatusNotFound, "prompt not found: "+key)
}

func (e *GetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt <key>",
		Short: "Get one prompt template by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			if err := client.Get(cmd.Context(), "/api/prompts/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp.Prompt)
		},
	}
}

package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wikiquiz/wikiquiz/internal/api"
	"github.com/wikiquiz/wikiquiz/internal/calllog"
	"github.com/wikiquiz/wikiquiz/internal/svcctx"
)

// CallsResponse lists recent provider calls, newest first.
type CallsResponse struct {
	Calls []calllog.Call `json:"calls"`
}

// ListCallsEndpoint handles GET /api/calls.
type ListCallsEndpoint struct{}

func (e *ListCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/calls", e.handler
}

func (e *ListCallsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Recent provider calls
//	@Description	List recent LLM generation attempts, newest first
//	@Tags			calls
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum calls to return (default 20)"
//	@Success		200		{object}	CallsResponse
//	@Router			/api/calls [get]
func (e *ListCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	recorder := svcctx.CallLogFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "call recorder not available")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	calls := recorder.Recent(r.Context(), limit)
	if calls == nil {
		calls = []calllog.Call{}
	}
	writeJSON(w, http.StatusOK, CallsResponse{Calls: calls})
}

func (e *ListCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List recent provider calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CallsResponse
			path := "/api/calls?limit=" + strconv.Itoa(limit)
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp.Calls)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum calls to return")
	return cmd
}

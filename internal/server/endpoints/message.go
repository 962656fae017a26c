package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wikiquiz/wikiquiz/internal/api"
	"github.com/wikiquiz/wikiquiz/internal/errcode"
	"github.com/wikiquiz/wikiquiz/internal/pages"
	"github.com/wikiquiz/wikiquiz/internal/prompts"
	"github.com/wikiquiz/wikiquiz/internal/protocol"
	"github.com/wikiquiz/wikiquiz/internal/quiz"
	"github.com/wikiquiz/wikiquiz/internal/settings"
	"github.com/wikiquiz/wikiquiz/internal/svcctx"
)

// MessageEndpoint handles POST /api/message, the typed message protocol.
// Every known kind dispatches through a static table; unknown kinds get
// the fixed invalid-command response. Protocol-level failures are reported
// in-band with HTTP 200 so the caller always sees a typed body.
type MessageEndpoint struct{}

func (e *MessageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/message", e.handler
}

func (e *MessageEndpoint) RequiresInit() bool { return true }

// handlerFunc processes one decoded message kind.
type handlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// handler godoc
//
//	@Summary		Dispatch a protocol message
//	@Description	Accepts a tagged envelope {type, payload} and returns the kind's typed response
//	@Tags			message
//	@Accept			json
//	@Produce		json
//	@Param			message	body		protocol.Request	true	"Message envelope"
//	@Success		200		{object}	protocol.Ack
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/message [post]
func (e *MessageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid message envelope")
		return
	}

	ctx := r.Context()
	table := map[string]handlerFunc{
		protocol.KindInitialization:  handleInitialization,
		protocol.KindGetData:         handleGetData,
		protocol.KindGetQuizContent:  handleGetQuizContent,
		protocol.KindToggleSidebar:   handleToggleSidebar,
		protocol.KindGetSidebarState: handleGetSidebarState,
		protocol.KindToggleSettings:  handleToggleSettings,
		protocol.KindGetSettings:     handleGetSettings,
		protocol.KindClientError:     handleClientError,
	}

	h, ok := table[req.Type]
	if !ok {
		if logger := svcctx.LoggerFrom(ctx); logger != nil {
			logger.Warn("unknown message kind", "type", req.Type)
		}
		writeJSON(w, http.StatusOK, protocol.InvalidCommand())
		return
	}

	resp, err := h(ctx, req.Payload)
	if err != nil {
		if logger := svcctx.LoggerFrom(ctx); logger != nil {
			logger.Warn("message failed", "type", req.Type, "error", err)
		}
		writeJSON(w, http.StatusOK, protocol.ErrorResponse{
			Success: false,
			Error:   protocol.ErrorFrom(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleInitialization(ctx context.Context, _ json.RawMessage) (any, error) {
	return protocol.Ack{Success: true}, nil
}

func handleGetData(ctx context.Context, payload json.RawMessage) (any, error) {
	var p protocol.GetDataPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errcode.Wrap(errcode.MsgNoHandler, false, err)
	}
	if !pages.IsArticleURL(p.URL) {
		return nil, errcode.New(errcode.WikiHTTP4xx, false)
	}

	svc := svcctx.PagesFrom(ctx)
	if coord := svcctx.CoordinatorFrom(ctx); coord != nil {
		// Populates the cache with duplicate and in-flight suppression.
		// The read below is a cache hit whenever the trigger was dropped
		// for an already-current page.
		coord.HandlePageUpdate(ctx, p.URL)
	}

	rec, err := svc.EnsurePage(ctx, p.URL)
	if err != nil {
		return nil, err
	}
	_, tree, err := svc.SectionTree(ctx, p.URL)
	if err != nil {
		return nil, err
	}

	return protocol.GetDataResponse{
		Success:  true,
		Title:    rec.Title,
		Summary:  rec.Summary,
		Sections: tree,
	}, nil
}

func handleGetQuizContent(ctx context.Context, payload json.RawMessage) (any, error) {
	var p protocol.GetQuizContentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errcode.Wrap(errcode.MsgNoHandler, false, err)
	}

	svc := svcctx.PagesFrom(ctx)
	gen := svcctx.GeneratorFrom(ctx)
	store := svcctx.SettingsFrom(ctx)
	tracker := svcctx.TrackerFrom(ctx)

	var (
		token  string
		params quiz.Params
	)

	switch p.QuizType {
	case protocol.QuizTypeSummary:
		token = tracker.Begin(p.URL + "#summary")
		topic, bucket, err := svc.SummaryBucket(ctx, p.URL)
		if err != nil {
			return nil, err
		}
		params = quiz.Params{
			Topic:  topic,
			Scope:  prompts.ScopeSummary,
			Bucket: bucket,
		}
	case protocol.QuizTypeSection:
		if p.SectionIndex == nil {
			return nil, errcode.New(errcode.WikiSectionNotFound, false)
		}
		token = tracker.Begin(fmt.Sprintf("%s#section-%d", p.URL, *p.SectionIndex))
		topic, sectionTitle, bucket, err := svc.SectionBucket(ctx, p.URL, *p.SectionIndex)
		if err != nil {
			return nil, err
		}
		params = quiz.Params{
			Topic:        topic,
			Scope:        prompts.ScopeSection,
			SectionTitle: sectionTitle,
			Bucket:       bucket,
		}
	default:
		return nil, errcode.New(errcode.MsgNoHandler, false)
	}

	// Settings are read fresh per request, never cached across requests.
	params.Settings = store.Get(ctx)
	params.PageURL = p.URL

	content, err := gen.Generate(ctx, params)
	if err != nil {
		return nil, err
	}

	// A newer request for the same target supersedes this one; the result
	// is discarded rather than delivered out of order.
	if !tracker.IsCurrent(token) {
		if logger := svcctx.LoggerFrom(ctx); logger != nil {
			logger.Debug("discarding stale quiz result", "url", p.URL)
		}
		return protocol.GetQuizContentResponse{Success: false, Stale: true}, nil
	}

	return protocol.GetQuizContentResponse{
		Success: true,
		Quiz:    content,
		Topic:   params.Topic,
		Section: params.SectionTitle,
	}, nil
}

func handleToggleSidebar(ctx context.Context, payload json.RawMessage) (any, error) {
	var p protocol.ToggleSidebarPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errcode.Wrap(errcode.MsgNoHandler, false, err)
	}

	store := svcctx.SettingsFrom(ctx)
	if err := store.SetSidebarEnabled(ctx, p.Enabled); err != nil {
		return nil, err
	}
	return protocol.SidebarResponse{Success: true, Enabled: p.Enabled}, nil
}

func handleGetSidebarState(ctx context.Context, _ json.RawMessage) (any, error) {
	store := svcctx.SettingsFrom(ctx)
	return protocol.SidebarResponse{Success: true, Enabled: store.SidebarEnabled(ctx)}, nil
}

func handleToggleSettings(ctx context.Context, payload json.RawMessage) (any, error) {
	var p protocol.ToggleSettingsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errcode.Wrap(errcode.MsgNoHandler, false, err)
	}

	store := svcctx.SettingsFrom(ctx)

	// Whole-value replacement: read, apply overrides, write back.
	next := store.Get(ctx)
	if p.QuestionDifficulty != nil {
		next.QuestionDifficulty = settings.Difficulty(*p.QuestionDifficulty)
	}
	if p.NumQuestions != nil {
		next.NumQuestions = *p.NumQuestions
	}
	if err := store.Set(ctx, next); err != nil {
		return nil, err
	}
	return protocol.SettingsResponse{Success: true, Settings: next}, nil
}

func handleGetSettings(ctx context.Context, _ json.RawMessage) (any, error) {
	store := svcctx.SettingsFrom(ctx)
	return protocol.SettingsResponse{Success: true, Settings: store.Get(ctx)}, nil
}

func handleClientError(ctx context.Context, payload json.RawMessage) (any, error) {
	var p protocol.ClientErrorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errcode.Wrap(errcode.MsgNoHandler, false, err)
	}

	if logger := svcctx.LoggerFrom(ctx); logger != nil {
		logger.Error("client reported error", "code", p.Code, "message", p.Message)
	}
	return protocol.Ack{Success: true}, nil
}

func (e *MessageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var msgType string
	var msgPayload string
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Send a raw protocol message",
		Long: `Send a protocol message to the running server.

The payload is a JSON object matching the message kind's schema.

Examples:
  wikiquiz api message --type initialization
  wikiquiz api message --type getData --payload '{"url":"https://en.wikipedia.org/wiki/Go_(programming_language)"}'
  wikiquiz api message --type getSettings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := protocol.Request{Type: msgType}
			if msgPayload != "" {
				req.Payload = json.RawMessage(msgPayload)
			}
			var resp json.RawMessage
			if err := client.Post(cmd.Context(), "/api/message", req, &resp); err != nil {
				return err
			}
			var out any
			if err := json.Unmarshal(resp, &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
	cmd.Flags().StringVar(&msgType, "type", "", "Message kind (required)")
	cmd.Flags().StringVar(&msgPayload, "payload", "", "JSON payload for the message")
	cmd.MarkFlagRequired("type")
	return cmd
}

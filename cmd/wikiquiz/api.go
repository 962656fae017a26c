package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wikiquiz/wikiquiz/internal/api"
	"github.com/wikiquiz/wikiquiz/internal/protocol"
	"github.com/wikiquiz/wikiquiz/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running wikiquiz server via HTTP.

These commands require a running server (wikiquiz serve).
Use --server to specify a custom server URL.

Examples:
  wikiquiz api health                               # Check server health
  wikiquiz api page <url>                           # Fetch article data
  wikiquiz api quiz <url>                           # Generate a summary quiz
  wikiquiz api quiz <url> --section 3               # Generate a section quiz
  wikiquiz api settings get                         # Show user settings`,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "User settings commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

// sendMessage posts one protocol message and prints the raw typed response.
func sendMessage(cmd *cobra.Command, kind string, payload any) error {
	client := api.NewClient(getServerURL())
	req := protocol.Request{Type: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		req.Payload = raw
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
}

var pageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Fetch article title, summary, and section tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendMessage(cmd, protocol.KindGetData, protocol.GetDataPayload{URL: args[0]})
	},
}

var quizSection int

var quizCmd = &cobra.Command{
	Use:   "quiz <url>",
	Short: "Generate a quiz for an article",
	Long: `Generate a multiple-choice quiz from an article's summary, or from one
section when --section is given. Question count and difficulty come from
the stored user settings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := protocol.GetQuizContentPayload{
			URL:      args[0],
			QuizType: protocol.QuizTypeSummary,
		}
		if cmd.Flags().Changed("section") {
			payload.QuizType = protocol.QuizTypeSection
			payload.SectionIndex = &quizSection
		}
		return sendMessage(cmd, protocol.KindGetQuizContent, payload)
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current user settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendMessage(cmd, protocol.KindGetSettings, nil)
	},
}

var (
	setDifficulty   string
	setNumQuestions int
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update user settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := protocol.ToggleSettingsPayload{}
		if cmd.Flags().Changed("difficulty") {
			payload.QuestionDifficulty = &setDifficulty
		}
		if cmd.Flags().Changed("questions") {
			payload.NumQuestions = &setNumQuestions
		}
		if payload.QuestionDifficulty == nil && payload.NumQuestions == nil {
			return fmt.Errorf("nothing to set: pass --difficulty and/or --questions")
		}
		return sendMessage(cmd, protocol.KindToggleSettings, payload)
	},
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Endpoint-backed commands
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.MessageEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ListPromptsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.GetPromptEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ListCallsEndpoint{}).Command(getServerURL))

	// Convenience wrappers over the message protocol
	quizCmd.Flags().IntVar(&quizSection, "section", 0, "Section index for a section quiz")
	apiCmd.AddCommand(pageCmd)
	apiCmd.AddCommand(quizCmd)

	settingsSetCmd.Flags().StringVar(&setDifficulty, "difficulty", "", "Question difficulty: easy, medium, or hard")
	settingsSetCmd.Flags().IntVar(&setNumQuestions, "questions", 0, "Number of questions: 4 or 7")
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	apiCmd.AddCommand(settingsCmd)

	rootCmd.AddCommand(apiCmd)
}

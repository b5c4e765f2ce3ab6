// Command assistantctl talks to a running site assistant backend: it can
// chat through the terminal widget or post a form straight to the relay.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/optm-media/site-assistant/backend/internal/model/submission"
	"github.com/optm-media/site-assistant/backend/internal/service/relay"
	"github.com/optm-media/site-assistant/backend/internal/widget"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var server string

	root := &cobra.Command{
		Use:           "assistantctl",
		Short:         "Chat with or submit to the site assistant backend",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&server, "server", defaultServer(), "backend base URL")

	root.AddCommand(newChatCmd(&server), newSubmitCmd(&server))
	return root
}

func defaultServer() string {
	if v := strings.TrimSpace(os.Getenv("ASSISTANT_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func newChatCmd(server *string) *cobra.Command {
	var (
		scriptID string
		dark     bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the chat widget in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			conn, err := widget.Connect(ctx, *server, scriptID, &http.Client{Timeout: 10 * time.Second})
			cancel()
			if err != nil {
				return err
			}
			defer conn.Close()

			model := widget.New("OPTM Media Solutions · Virtual Assistant", conn, conn.Frames(), dark)
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&scriptID, "script", "", "script id (server default when empty)")
	cmd.Flags().BoolVar(&dark, "dark", false, "start with the dark theme")
	return cmd
}

func newSubmitCmd(server *string) *cobra.Command {
	var (
		p        submission.Payload
		formType string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Post one form submission to the relay",
		Example: `  assistantctl submit --form-type feedback --email ada@example.com --feedback "Lovely site"
  assistantctl submit --form-type job --name Ada --email ada@example.com --job-role Designer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := submission.ParseFormType(formType)
			if err != nil {
				return err
			}
			p.FormType = ft
			p = p.Scoped()
			if err := p.Validate(); err != nil {
				return fmt.Errorf("invalid submission: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := relay.NewClient(*server, nil)
			if err := client.Submit(ctx, p); err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"endpoint":  client.Endpoint(),
				"form_type": p.FormType,
			}).Info("submission accepted")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&formType, "form-type", "", "business, job or feedback")
	f.StringVar(&p.Email, "email", "", "contact email")
	f.StringVar(&p.Name, "name", "", "applicant name (job)")
	f.StringVar(&p.BusinessName, "business-name", "", "business name (business)")
	f.StringVar(&p.BusinessOffer, "business-offer", "", "offer details (business)")
	f.StringVar(&p.Feedback, "feedback", "", "feedback text (feedback)")
	f.StringVar(&p.JobRole, "job-role", "", "role sought (job)")
	f.StringVar(&p.JobInterest, "job-interest", "", "why the role interests you (job)")
	f.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	_ = cmd.MarkFlagRequired("form-type")
	return cmd
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nguyentranbao-ct/product-hub/internal/client/productapi"
	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/formerror"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/submission"
	"github.com/nguyentranbao-ct/product-hub/internal/terminal"
	"github.com/spf13/cobra"
)

// errNotRecommended ends the command with a non-zero status after the
// outcome has already been printed.
var errNotRecommended = errors.New("product not recommended")

type recommendConfig struct {
	API           string        `env:"PRODUCT_HUB_API" envDefault:"http://localhost:8080"`
	WebURL        string        `env:"PRODUCT_HUB_WEB_URL"`
	Token         string        `env:"PRODUCT_HUB_TOKEN"`
	Timeout       time.Duration `env:"PRODUCT_HUB_TIMEOUT" envDefault:"30s"`
	FailurePolicy string        `env:"PRODUCT_HUB_SEARCH_FAILURE_POLICY" envDefault:"abort"`
}

type recommendFlags struct {
	recommendConfig
	draft     models.ProductDraft
	role      string
	yes       bool
	skipCheck bool
}

func newRecommendCmd() *cobra.Command {
	f := &recommendFlags{}
	c := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a product, checking the directory for duplicates first",
		Example: `  product-hub recommend --name WidgetX --tagline "Widgets for teams" \
    --website https://widgetx.io --tag tools --tag productivity`,
		PreRunE: func(c *cobra.Command, _ []string) error {
			return f.loadEnv(c)
		},
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runRecommend(ctx, c.InOrStdin(), c.OutOrStdout(), *f)
		},
	}
	f.register(c)
	return c
}

func (f *recommendFlags) register(c *cobra.Command) {
	flags := c.Flags()
	flags.StringVar(&f.draft.Name, "name", "", "product name")
	flags.StringVar(&f.draft.Tagline, "tagline", "", "one line pitch")
	flags.StringVar(&f.draft.Description, "description", "", "longer description")
	flags.StringVar(&f.draft.Website, "website", "", "product website URL")
	flags.StringVar(&f.draft.Logo, "logo", "", "logo image URL")
	flags.StringSliceVar(&f.draft.Screenshots, "screenshot", nil, "screenshot URL, repeatable")
	flags.StringSliceVar(&f.draft.Tags, "tag", nil, "tag, repeatable")
	flags.StringSliceVar(&f.draft.Platforms, "platform", nil, "platform, repeatable")
	flags.StringVar(&f.role, "role", string(models.ProductRoleHunter), "maker or hunter")
	flags.StringVar(&f.API, "api", "http://localhost:8080", "product-hub API base URL (env PRODUCT_HUB_API)")
	flags.StringVar(&f.WebURL, "web", "", "web app base URL used when printing the editor link (env PRODUCT_HUB_WEB_URL)")
	flags.StringVar(&f.Token, "token", "", "bearer token (env PRODUCT_HUB_TOKEN)")
	flags.DurationVar(&f.Timeout, "timeout", 30*time.Second, "per request timeout (env PRODUCT_HUB_TIMEOUT)")
	flags.StringVar(&f.FailurePolicy, "search-failure", config.SearchFailureAbort,
		"abort or bypass when the duplicate check fails (env PRODUCT_HUB_SEARCH_FAILURE_POLICY)")
	flags.BoolVarP(&f.yes, "yes", "y", false, "continue without asking when duplicates are found")
	flags.BoolVar(&f.skipCheck, "skip-duplicate-check", false, "create without searching first")
	_ = c.MarkFlagRequired("name")
}

// loadEnv fills every connection setting the command line left unset from
// the environment. Flags win over env.
func (f *recommendFlags) loadEnv(c *cobra.Command) error {
	var fromEnv recommendConfig
	if err := env.Parse(&fromEnv); err != nil {
		return fmt.Errorf("parse recommend env: %w", err)
	}

	flags := c.Flags()
	if !flags.Changed("api") {
		f.API = fromEnv.API
	}
	if !flags.Changed("web") {
		f.WebURL = fromEnv.WebURL
	}
	if !flags.Changed("token") {
		f.Token = fromEnv.Token
	}
	if !flags.Changed("timeout") {
		f.Timeout = fromEnv.Timeout
	}
	if !flags.Changed("search-failure") {
		f.FailurePolicy = fromEnv.FailurePolicy
	}
	return nil
}

func runRecommend(ctx context.Context, in io.Reader, out io.Writer, f recommendFlags) error {
	f.draft.Role = models.ProductRole(f.role)

	client := productapi.New(f.API, f.Token, f.Timeout)
	prompt := terminal.NewPrompt(in, out,
		terminal.WithAssumeYes(f.yes),
		terminal.WithWebURL(f.WebURL),
	)

	orch, err := submission.New(client, client, prompt, prompt, prompt,
		formerror.NewTranslator(config.DefaultCreateFailedMessage),
		submission.WithSearchFailurePolicy(f.FailurePolicy),
	)
	if err != nil {
		return err
	}

	var opts []submission.SubmitOption
	if f.skipCheck {
		opts = append(opts, submission.SkipDuplicateCheck())
	}

	report, err := orch.Submit(ctx, f.draft, opts...)
	if err != nil {
		return err
	}
	switch report.Outcome {
	case submission.OutcomeCreated:
		return nil
	case submission.OutcomeDismissed:
		fmt.Fprintln(out, "Nothing was created.")
		return nil
	default:
		return errNotRecommended
	}
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/matproj/internal/assistant"
	"github.com/kailas-cloud/matproj/internal/config"
	dbRedis "github.com/kailas-cloud/matproj/internal/db/redis"
	"github.com/kailas-cloud/matproj/internal/metrics"
	budgetRepo "github.com/kailas-cloud/matproj/internal/repository/budget"
	"github.com/kailas-cloud/matproj/internal/usecase/budget"
)

func newAskCmd(o *options) *cobra.Command {
	var showTools bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question answered by a chat model using Materials Project data",
		Long: `Ask a free-form question. An OpenAI-compatible chat model looks data up through
Materials Project tools and answers in prose.

The chat endpoint is configured in the assistant section of the config file, or with
$OPENAI_API_KEY and $OPENAI_BASE_URL.

Examples:
  matproj ask "Which iron oxides are stable and have a band gap above 1 eV?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acfg := o.cfg.Assistant
			if acfg.APIKey == "" {
				acfg.APIKey = o.v.GetString("openai_api_key")
			}
			if acfg.BaseURL == "" {
				acfg.BaseURL = o.v.GetString("openai_base_url")
			}

			c, err := o.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			m, err := metrics.NewAssistant(prometheus.NewRegistry())
			if err != nil {
				return fmt.Errorf("assistant metrics: %w", err)
			}
			tracker, closeBudget, err := o.tokenBudget(cmd.Context(), acfg)
			if err != nil {
				return err
			}
			defer closeBudget()

			a, err := assistant.New(&assistant.Config{
				APIKey:   acfg.APIKey,
				BaseURL:  acfg.BaseURL,
				Model:    acfg.Model,
				MaxTurns: acfg.MaxTurns,
				Logger:   o.logger,
				Metrics:  m,
				Budget:   tracker,
			}, assistant.NewClientBackend(c))
			if err != nil {
				return err //nolint:wrapcheck // names the missing setting
			}

			ans, err := a.Ask(cmd.Context(), strings.Join(args, " "))
			if showTools {
				for _, tc := range ans.ToolCalls {
					status := "ok"
					if tc.Err != nil {
						status = tc.Err.Error()
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "tool %s %s: %s\n", tc.Name, tc.Arguments, status)
				}
			}
			if err != nil {
				return err //nolint:wrapcheck // assistant errors name the operation
			}
			if o.output != formatTable {
				return printValue(cmd.OutOrStdout(), o.output, map[string]any{
					"answer": ans.Text,
					"turns":  ans.Turns,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ans.Text)
			return err
		},
	}
	cmd.Flags().BoolVar(&showTools, "show-tools", false, "Print the tool calls made while answering")
	_ = o.v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = o.v.BindEnv("openai_base_url", "OPENAI_BASE_URL")
	return cmd
}

// tokenBudget builds the assistant's token budget, shared through Redis when a cache is configured.
func (o *options) tokenBudget(ctx context.Context, acfg config.AssistantConfig) (*budget.Tracker, func(), error) {
	tracker := budget.NewTracker(acfg.Model, acfg.DailyTokenLimit, acfg.MonthlyTokenLimit,
		budget.Action(acfg.BudgetAction), o.logger)
	if o.cfg.Cache.Addr == "" || (acfg.DailyTokenLimit == 0 && acfg.MonthlyTokenLimit == 0) {
		return tracker, func() {}, nil
	}

	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    []string{o.cfg.Cache.Addr},
		Password: o.cfg.Cache.Password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("budget store: %w", err)
	}
	tracker.WithStore(ctx, budgetRepo.New(s, budgetRepo.DefaultDailyTTL, budgetRepo.DefaultMonthlyTTL))
	return tracker, s.Close, nil
}

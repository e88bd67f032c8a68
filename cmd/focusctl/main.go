package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/focustube-backend/internal/app"
	"github.com/yungbote/focustube-backend/internal/data/db"
	types "github.com/yungbote/focustube-backend/internal/domain"
	focusrules "github.com/yungbote/focustube-backend/internal/modules/focus"
	"github.com/yungbote/focustube-backend/internal/platform/envutil"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
	"github.com/yungbote/focustube-backend/internal/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var policyFile string

	root := &cobra.Command{
		Use:           "focusctl",
		Short:         "Operator tools for the focus session engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&policyFile, "policy", envutil.String("FOCUS_POLICY_FILE", ""), "focus policy YAML file")

	root.AddCommand(newPolicyCmd(&policyFile))
	root.AddCommand(newJudgeCmd(&policyFile))
	root.AddCommand(newMigrateCmd())
	return root
}

type policyView struct {
	ValidThreshold     float64 `yaml:"valid_threshold"`
	RecoveryWindow     string  `yaml:"recovery_window"`
	MaxRecoveries      int     `yaml:"max_recoveries"`
	HeartbeatCap       string  `yaml:"heartbeat_cap"`
	HiddenBudgetRatio  float64 `yaml:"hidden_budget_ratio"`
	PauseBudgetRatio   float64 `yaml:"pause_budget_ratio"`
	PerfectDaySessions int     `yaml:"perfect_day_sessions"`
	EarlyBirdHour      int     `yaml:"early_bird_hour"`
	NightOwlHour       int     `yaml:"night_owl_hour"`
	PointsPerMinute    int     `yaml:"points_per_minute"`
}

func writePolicy(w io.Writer, p focusrules.Policy) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(policyView{
		ValidThreshold:     p.ValidThreshold,
		RecoveryWindow:     p.RecoveryWindow.String(),
		MaxRecoveries:      p.MaxRecoveries,
		HeartbeatCap:       p.HeartbeatCap.String(),
		HiddenBudgetRatio:  p.HiddenBudgetRatio,
		PauseBudgetRatio:   p.PauseBudgetRatio,
		PerfectDaySessions: p.PerfectDaySessions,
		EarlyBirdHour:      p.EarlyBirdHour,
		NightOwlHour:       p.NightOwlHour,
		PointsPerMinute:    p.PointsPerMinute,
	})
}

func newPolicyCmd(policyFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Validate the policy file and print the effective policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := focusrules.LoadPolicyFile(*policyFile)
			if err != nil {
				return err
			}
			return writePolicy(cmd.OutOrStdout(), p)
		},
	}
}

type judgeOutput struct {
	Decision   string  `json:"decision"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Degraded   bool    `json:"degraded"`
	Threshold  float64 `json:"threshold"`
}

func newJudgeCmd(policyFile *string) *cobra.Command {
	var provider, topic, title, description string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Score one video against a topic without touching any session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := focusrules.LoadPolicyFile(*policyFile)
			if err != nil {
				return err
			}
			provider = strings.ToLower(strings.TrimSpace(provider))
			if provider != app.JudgeProviderOpenAI && provider != app.JudgeProviderLexical {
				return fmt.Errorf("unsupported provider %q", provider)
			}
			cfg := app.Config{
				JudgeProvider: provider,
				OpenAI:        app.OpenAIConfigFromEnv(),
				Judge: services.JudgeConfig{
					Provider:       provider,
					MaxRetries:     envutil.Int("JUDGE_MAX_RETRIES", 2),
					AttemptTimeout: timeout,
				},
			}
			judge, err := app.NewJudge(logger.Nop(), cfg)
			if err != nil {
				return err
			}
			j := judge.Judge(cmd.Context(), strings.ToLower(topic), title, description)
			decision := types.DecisionInvalid
			if j.Confidence >= p.ValidThreshold {
				decision = types.DecisionValid
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(judgeOutput{
				Decision:   decision,
				Confidence: j.Confidence,
				Reason:     j.Reason,
				Degraded:   j.Degraded,
				Threshold:  p.ValidThreshold,
			})
		},
	}
	cmd.Flags().StringVar(&provider, "provider", app.JudgeProviderLexical, "judge provider (openai|lexical)")
	cmd.Flags().StringVar(&topic, "topic", "", "session topic")
	cmd.Flags().StringVar(&title, "title", "", "video title")
	cmd.Flags().StringVar(&description, "description", "", "video description")
	cmd.Flags().DurationVar(&timeout, "timeout", 8*time.Second, "per-attempt timeout")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and focus indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(envutil.String("LOG_MODE", "development"))
			if err != nil {
				return err
			}
			defer log.Sync()

			svc, err := db.Open(app.DBConfigFromEnv(), log)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			gdb := svc.DB().WithContext(ctx)
			if err := db.AutoMigrateAll(gdb); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrated %d models on %s\n", len(types.AllModels()), svc.Driver())
			return err
		},
	}
}

// Package main provides the skirmish binary: it loads a roster, runs one
// encounter to its end and prints the narrative.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatflow/internal/config"
	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/narrative"
	"github.com/cory-johannsen/combatflow/internal/observability"
	"github.com/cory-johannsen/combatflow/internal/skirmish"
)

var rootCmd = &cobra.Command{
	Use:   "skirmish",
	Short: "Run one combat encounter from a roster directory",
	Long: `Loads combatant templates, AI domains and Lua scripts, rolls initiative,
then runs turns until one side remains or the turn limit is hit.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSkirmish,
}

func init() {
	f := rootCmd.Flags()
	f.String("config", "", "path to configuration file")
	f.String("roster", "", "directory of combatant template YAML files")
	f.String("domains", "", "directory of HTN AI domain YAML files")
	f.String("scripts", "", "Lua script root; empty disables scripting")
	f.Uint64("seed", 0, "dice seed; 0 uses crypto/rand")
	f.Int("max-turns", 0, "stop after this many turns; 0 uses the configured limit")
	f.Bool("interactive", false, "let a human decide for interactive templates")
}

// loadConfig layers flags over the config file over the environment over defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v := config.New()
	bindings := map[string]string{
		"roster":    "content.roster_dir",
		"domains":   "content.domain_dir",
		"scripts":   "scripting.dir",
		"seed":      "engine.seed",
		"max-turns": "engine.max_turns",
	}
	for flag, key := range bindings {
		if cmd.Flags().Changed(flag) {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return config.Config{}, err
			}
		}
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return config.LoadFromViper(v)
}

func runSkirmish(cmd *cobra.Command, _ []string) error {
	start := time.Now()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var prompter *skirmish.TerminalPrompter
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		prompter = skirmish.NewTerminalPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	s, err := newSkirmish(cfg, logger, prompter)
	if err != nil {
		return err
	}
	defer s.Close()

	cat, err := narrative.NewCatalog()
	if err != nil {
		return err
	}
	renderer := narrative.NewRenderer(narrative.BaseLocale, cat)
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := s.Run(ctx, func(events []combat.Event) error {
		return renderer.Render(out, events)
	})
	if err != nil {
		return err
	}

	logger.Info("skirmish finished",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("turns", res.Turns),
		zap.Duration("elapsed", time.Since(start)),
	)
	switch res.Outcome {
	case skirmish.OutcomeVictory:
		fmt.Fprintf(out, "%s wins after %d turns.\n", res.Winner, res.Turns)
	case skirmish.OutcomeDraw:
		fmt.Fprintf(out, "Nobody is left standing after %d turns.\n", res.Turns)
	case skirmish.OutcomeTurnLimit:
		fmt.Fprintf(out, "The fight is called after %d turns with %d still standing.\n", res.Turns, len(res.Survivors))
	}
	return nil
}

// newSkirmish keeps a nil *TerminalPrompter from becoming a non-nil interface.
func newSkirmish(cfg config.Config, logger *zap.Logger, p *skirmish.TerminalPrompter) (*skirmish.Skirmish, error) {
	if p == nil {
		return skirmish.New(cfg, logger, nil)
	}
	return skirmish.New(cfg, logger, p)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}

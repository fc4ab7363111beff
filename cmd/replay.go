package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/acumenlabs/acumen/core/bank"
	"github.com/acumenlabs/acumen/core/estimator"
	"github.com/acumenlabs/acumen/core/exposure"
	"github.com/acumenlabs/acumen/core/irt"
	"github.com/acumenlabs/acumen/core/scoring"
	"github.com/acumenlabs/acumen/core/selection"
	"github.com/acumenlabs/acumen/core/session"
	"github.com/acumenlabs/acumen/core/stopping"
)

var (
	replayBankPath   string
	replayConfigPath string
	replayLogPath    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded response log through the adaptive scorer",
	Long: `Replay drives the adaptive engine item-by-item from a response
log recorded during a conventional fixed-form test, then compares the
adaptive (IRT) score against the legacy proportion-correct score mapped
through approximate equating. This "shadow" mode validates adaptive
scoring against historical data without administering anything.`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayBankPath, "bank", "b", "", "Item bank YAML file (required)")
	replayCmd.Flags().StringVarP(&replayConfigPath, "config", "c", "", "Engine config YAML file")
	replayCmd.Flags().StringVarP(&replayLogPath, "log", "l", "", "Recorded response log YAML file (required)")
	_ = replayCmd.MarkFlagRequired("bank")
	_ = replayCmd.MarkFlagRequired("log")
}

// responseLog is the on-disk replay input.
type responseLog struct {
	ExamineeID string `yaml:"examinee_id"`
	Entries    []struct {
		ItemID  string `yaml:"item_id"`
		Correct bool   `yaml:"correct"`
	} `yaml:"entries"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig(replayConfigPath)
	if err != nil {
		return err
	}
	pool, err := bank.LoadFile(replayBankPath)
	if err != nil {
		return err
	}
	provider := bank.NewProvider()
	provider.Publish(pool)

	data, err := os.ReadFile(replayLogPath)
	if err != nil {
		return fmt.Errorf("read response log: %w", err)
	}
	var rlog responseLog
	if err := yaml.Unmarshal(data, &rlog); err != nil {
		return fmt.Errorf("parse response log: %w", err)
	}
	if len(rlog.Entries) == 0 {
		return fmt.Errorf("response log %s has no entries", replayLogPath)
	}

	byID := make(map[string]irt.CalibratedItem, pool.Len())
	for _, it := range pool.Items() {
		byID[it.ID()] = it
	}

	// Replay never records exposure: it is retrospective, not a live
	// administration.
	sel, err := selection.New(selection.Config{
		TargetWeights: cfg.Domains,
		MinPerDomain:  cfg.MinPerDomain,
		RandomesqueK:  cfg.RandomesqueK,
	}, exposure.NewSelector(nil), nil)
	if err != nil {
		return err
	}
	engine := session.NewEngine(
		estimator.New(),
		sel,
		stopping.New(cfg.Stopping),
		provider,
		cfg.Scale,
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	)

	s := engine.Initialize(rlog.ExamineeID, "", nil)
	correct := 0
	replayed := 0
	for _, entry := range rlog.Entries {
		item, ok := byID[entry.ItemID]
		if !ok {
			return fmt.Errorf("response log references unknown item %s", entry.ItemID)
		}
		if !irt.Usable(item) {
			// Legacy forms can contain items that were never calibrated;
			// they contribute to the CTT score only.
			if entry.Correct {
				correct++
			}
			continue
		}
		res, err := engine.ProcessResponse(s, irt.Response{
			ItemID:  item.ID(),
			A:       item.Discrimination(),
			B:       item.Difficulty(),
			Domain:  item.Domain(),
			Correct: entry.Correct,
		})
		if err != nil {
			return err
		}
		replayed++
		if entry.Correct {
			correct++
		}
		if res.Done {
			break
		}
	}

	result, err := engine.Finalize(s, s.StoppedReason)
	if err != nil {
		return err
	}

	accuracy := float64(correct) / float64(len(rlog.Entries))
	cttTheta := scoring.EquateCTTToIRT(accuracy)
	cttScore := scoring.Convert(cttTheta, result.SE, cfg.Scale)

	fmt.Printf("examinee %s: replayed %d of %d responses\n\n",
		rlog.ExamineeID, replayed, len(rlog.Entries))
	fmt.Println(scoreLine("adaptive  (IRT)", result.Score))
	fmt.Println(scoreLine("legacy →  (CTT)", cttScore))
	fmt.Printf("\ntheta adaptive=%+.3f equated=%+.3f accuracy=%.1f%%\n",
		result.Theta, cttTheta, accuracy*100)

	if len(result.DomainAccuracy) > 0 {
		fmt.Println("\ndomain accuracy:")
		for d, a := range result.DomainAccuracy {
			fmt.Printf("  %-12s %5.1f%%\n", d, a*100)
		}
	}
	return nil
}

package cmd

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/acumenlabs/acumen/core/bank"
	"github.com/acumenlabs/acumen/core/config"
	"github.com/acumenlabs/acumen/core/estimator"
	"github.com/acumenlabs/acumen/core/exposure"
	"github.com/acumenlabs/acumen/core/irt"
	"github.com/acumenlabs/acumen/core/scoring"
	"github.com/acumenlabs/acumen/core/selection"
	"github.com/acumenlabs/acumen/core/session"
	"github.com/acumenlabs/acumen/core/stopping"
)

var (
	simBankPath   string
	simConfigPath string
	simSessions   int
	simTheta      float64
	simSeed       int64
	simVerbose    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulated adaptive sessions against an item bank",
	Long: `Simulate drives complete adaptive sessions against a YAML item
bank, answering each item from a simulated examinee of known ability.
It reports per-session scores and an exposure summary, which makes it
useful for validating bank coverage and stopping behavior before a bank
goes live.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simBankPath, "bank", "b", "", "Item bank YAML file (required)")
	simulateCmd.Flags().StringVarP(&simConfigPath, "config", "c", "", "Engine config YAML file")
	simulateCmd.Flags().IntVarP(&simSessions, "sessions", "n", 1, "Number of sessions to simulate")
	simulateCmd.Flags().Float64VarP(&simTheta, "theta", "t", 0.0, "True ability of the simulated examinee")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (0 uses a random seed)")
	simulateCmd.Flags().BoolVarP(&simVerbose, "verbose", "v", false, "Log every administered item")
	_ = simulateCmd.MarkFlagRequired("bank")
}

func loadEngineConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFile(path)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadEngineConfig(simConfigPath)
	if err != nil {
		return err
	}
	pool, err := bank.LoadFile(simBankPath)
	if err != nil {
		return err
	}
	provider := bank.NewProvider()
	provider.Publish(pool)

	level := slog.LevelInfo
	if simVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	rng := rand.New(rand.NewSource(simSeed))
	if simSeed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	monitor := exposure.NewMonitor()
	sel, err := selection.New(selection.Config{
		TargetWeights: cfg.Domains,
		MinPerDomain:  cfg.MinPerDomain,
		RandomesqueK:  cfg.RandomesqueK,
	}, exposure.NewSelector(rng), monitor)
	if err != nil {
		return err
	}

	engine := session.NewEngine(
		estimator.New(),
		sel,
		stopping.New(cfg.Stopping),
		provider,
		cfg.Scale,
		logger,
	)

	fmt.Printf("bank: %d items (%d usable), simulating theta=%.2f over %d session(s)\n\n",
		pool.Len(), pool.UsableCount(), simTheta, simSessions)

	for i := 0; i < simSessions; i++ {
		res, err := runOneSession(engine, rng, fmt.Sprintf("sim-%03d", i))
		if err != nil {
			return err
		}
		fmt.Printf("session %-8s score=%3d [%d, %d]  theta=%+.2f se=%.3f items=%d reason=%s\n",
			res.SessionID, res.Score.Value, res.Score.CILower, res.Score.CIUpper,
			res.Theta, res.SE, res.NumItems, res.Reason)
	}

	printExposureSummary(monitor, cfg.Exposure.AlertThreshold)
	return nil
}

func runOneSession(engine *session.Engine, rng *rand.Rand, examinee string) (session.Result, error) {
	s := engine.Initialize(examinee, "", nil)
	item, err := engine.FirstItem(s)
	if err != nil {
		return session.Result{}, err
	}
	if item == nil {
		return session.Result{}, fmt.Errorf("bank has no usable items")
	}

	for {
		// Answer stochastically from the 2PL model at the true ability.
		p := irt.Probability(simTheta, item.Discrimination(), item.Difficulty())
		resp := irt.Response{
			ItemID:  item.ID(),
			A:       item.Discrimination(),
			B:       item.Difficulty(),
			Domain:  item.Domain(),
			Correct: rng.Float64() < p,
		}
		res, err := engine.ProcessResponse(s, resp)
		if err != nil {
			return session.Result{}, err
		}
		if res.Done {
			break
		}
		item = res.NextItem
	}
	return engine.Finalize(s, s.StoppedReason)
}

func printExposureSummary(monitor *exposure.Monitor, threshold float64) {
	over := monitor.Overexposed(threshold)
	if len(over) == 0 {
		fmt.Printf("\nexposure: %d selections, none above %.0f%%\n", monitor.Total(), threshold*100)
		return
	}
	fmt.Printf("\nexposure: %d selections, %d item(s) above %.0f%%:\n",
		monitor.Total(), len(over), threshold*100)
	for _, ir := range over {
		fmt.Printf("  %-20s %5.1f%% (%d)\n", ir.ItemID, ir.Rate*100, ir.Count)
	}
}

// scoreLine is shared with replay output.
func scoreLine(label string, sc scoring.Score) string {
	return fmt.Sprintf("%s: score=%d [%d, %d] percentile=%.1f",
		label, sc.Value, sc.CILower, sc.CIUpper, sc.Percentile)
}

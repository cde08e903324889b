package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

var rankCmd = &cobra.Command{
	Use:   "rank [category...]",
	Short: "Run a ranking pass",
	Long:  "Ranks the given categories, or every category of the current period when none is given.",
	RunE:  runRank,
}

var rollupCmd = &cobra.Command{
	Use:   "rollup [category...]",
	Short: "Rebuild team roll-ups",
	Long:  "Rebuilds every rostered team for the given categories, or the current period when none is given.",
	RunE:  runRollup,
}

func categoriesFromArgs(args []string) ([]models.CategoryKey, error) {
	if len(args) == 0 {
		return logic.CurrentPeriodCategories(time.Now()), nil
	}
	keys := make([]models.CategoryKey, 0, len(args))
	for _, arg := range args {
		key, err := models.ParseCategoryKey(arg)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func runRank(cmd *cobra.Command, args []string) error {
	keys, err := categoriesFromArgs(args)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var errs []error
	for _, key := range keys {
		resp, err := a.ranking.RankPeriod(cmd.Context(), key, nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		fmt.Fprintf(os.Stdout, "%-22s  %2d leaderboards  %4d neighbor documents\n", key, len(resp.Leaderboards), resp.Neighbors)
	}
	return errors.Join(errs...)
}

func runRollup(cmd *cobra.Command, args []string) error {
	keys, err := categoriesFromArgs(args)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.rollup.RollupAll(cmd.Context(), keys); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Rolled up %d categories\n", len(keys))
	return nil
}

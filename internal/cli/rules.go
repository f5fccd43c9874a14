package cli

import (
	"fmt"
	"strconv"

	"github.com/openfloor/debateprep/internal/engine"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [participantID]",
	Short: "List a participant's critique rules",
	Long:  "List critique rules in guidance order (strength descending, most recent first).",
	Args:  cobra.ExactArgs(1),
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	participantID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid participant id %q", args[0])
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	eng := engine.New(db)
	rules, err := eng.ListRules(participantID)
	if err != nil {
		return err
	}

	if len(rules) == 0 {
		fmt.Println("No rules recorded.")
		return nil
	}

	for _, r := range rules {
		fmt.Printf("%d. [%.2f] %s\n", r.ID, r.Strength, r.Rule)
		fmt.Printf("   guidance: %s\n", r.Guidance)
		if r.BadPattern != "" {
			fmt.Printf("   pattern: %s\n", r.BadPattern)
		}
	}
	return nil
}

var guidanceMaxTokens int

var guidanceCmd = &cobra.Command{
	Use:   "guidance [participantID]",
	Short: "Show composed guidance for a participant",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuidance,
}

func init() {
	guidanceCmd.Flags().IntVar(&guidanceMaxTokens, "max-tokens", 200, "Token budget for the composed guidance")
}

func runGuidance(cmd *cobra.Command, args []string) error {
	participantID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid participant id %q", args[0])
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	eng := engine.New(db)
	guidance, _, err := eng.ComposeGuidance(participantID, guidanceMaxTokens)
	if err != nil {
		return err
	}

	if guidance == "" {
		fmt.Println("No active guidance.")
		return nil
	}
	fmt.Println(guidance)
	return nil
}

package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/openfloor/debateprep/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [sessionID]",
	Short: "Export a session transcript",
	Long:  "Export a debate session with participants and transcript to markdown, html, or plain text.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Export format: markdown, html, text")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	sessionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	sess, err := db.GetSession(sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %d not found", sessionID)
	}
	participants, err := db.ListParticipants(sessionID)
	if err != nil {
		return err
	}
	turns, err := db.ListTurns(sessionID)
	if err != nil {
		return err
	}

	content, err := export.Session(sess, participants, turns, format, "")
	if err != nil {
		return err
	}

	if exportOut == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(exportOut, []byte(content), 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(os.Stderr, "exported session %d to %s\n", sessionID, exportOut)
	return nil
}

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schoolcms/schoolcms/internal/model"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Inspect the admin activity log",
	}

	cmd.AddCommand(newActivityListCmd())
	cmd.AddCommand(newActivityClearCmd())

	return cmd
}

// ---------- activity list ----------

func newActivityListCmd() *cobra.Command {
	var (
		page       int
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded activities, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivityList(cmd.OutOrStdout(), page, limit, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Entries per page")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runActivityList(out io.Writer, page, limit int, jsonOutput bool) error {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmdCtx()
	activities, err := st.ListActivities(ctx, page, limit)
	if err != nil {
		return err
	}
	total, err := st.CountActivities(ctx)
	if err != nil {
		return err
	}
	return printActivities(out, activities, model.NewPagination(total, page, limit), jsonOutput)
}

func printActivities(out io.Writer, activities []model.Activity, p model.Pagination, jsonOutput bool) error {
	if jsonOutput {
		if activities == nil {
			activities = []model.Activity{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"activities": activities,
			"pagination": p,
		})
	}

	if len(activities) == 0 {
		fmt.Fprintln(out, "No activities recorded.")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-20s %-16s %-6s %s\n", "ID", "TIME", "TYPE", "ACTOR", "DESCRIPTION")
	for _, a := range activities {
		actor := "-"
		if a.UserID != nil {
			actor = fmt.Sprint(*a.UserID)
		}
		fmt.Fprintf(out, "%-6d %-20s %-16s %-6s %s\n",
			a.ID, a.CreatedAt.Local().Format("2006-01-02 15:04:05"), a.Type, actor, a.Description)
	}
	fmt.Fprintf(out, "\npage %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
	return nil
}

// ---------- activity clear ----------

func newActivityClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete the entire activity log?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			return runActivityClear(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runActivityClear(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.ClearActivities(cmdCtx())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %d activities.\n", n)
	return nil
}

// confirm asks a yes/no question and reports whether the answer was yes.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

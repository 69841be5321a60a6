package tools

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/kaidokert/fsfw-sub000/cfdpd"
	"github.com/kaidokert/fsfw-sub000/std/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type HistoryList struct {
	limit int
}

func CmdHistory() *cobra.Command {
	hl := HistoryList{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "history CONFIG-FILE",
		Short:   "List finished transactions",
		Long: `List the transactions archived by a CFDP entity.
The archive location is read from the entity configuration file.`,
		Args:    cobra.ExactArgs(1),
		Example: `  cfdpd history cfdpd.yml -n 20`,
		Run:     hl.run,
	}

	cmd.Flags().IntVarP(&hl.limit, "count", "n", 0, "number of transactions to list, newest first")
	return cmd
}

func (hl *HistoryList) String() string {
	return "history"
}

func (hl *HistoryList) run(_ *cobra.Command, args []string) {
	config, err := cfdpd.ReadConfig(args[0])
	if err != nil {
		log.Fatal(hl, "Invalid configuration", "file", args[0], "err", err)
		return
	}
	if config.HistoryDb == "" {
		log.Fatal(hl, "No history_db configured", "file", args[0])
		return
	}

	h, err := cfdpd.OpenHistory(config.HistoryDb)
	if err != nil {
		log.Fatal(hl, "Unable to open history", "err", err)
		return
	}
	defer h.Close()

	recs, err := h.List(hl.limit)
	if err != nil {
		log.Fatal(hl, "Unable to list history", "err", err)
		return
	}
	PrintHistory(os.Stdout, recs)
}

// PrintHistory renders archived transactions as a table.
func PrintHistory(w io.Writer, recs []cfdpd.Record) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Transaction", "Source", "Destination", "Size", "Received",
		"Condition", "Delivery", "Status", "Finished"})

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, r := range recs {
		table.Append([]string{
			r.TransactionId,
			r.SourceFile,
			r.DestFile,
			strconv.FormatUint(r.FileSize, 10),
			strconv.FormatUint(r.Received, 10),
			r.Condition,
			r.Delivery,
			r.FileStatus,
			r.FinishedAt.Format(time.DateTime),
		})
	}
	table.Render()

	if len(recs) == 0 {
		fmt.Fprintln(w, "No transactions")
	}
}

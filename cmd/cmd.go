package cmd

import (
	"github.com/kaidokert/fsfw-sub000/cfdpd"
	"github.com/kaidokert/fsfw-sub000/std/utils"
	"github.com/kaidokert/fsfw-sub000/tools"
	"github.com/spf13/cobra"
)

const banner = `
        __     _           _
   ___ / _| __| |_ __   __| |
  / __| |_ / _  | '_ \ / _  |
 | (__|  _| (_| | |_) | (_| |
  \___|_|  \__,_| .__/ \__,_|
                |_|

CCSDS File Delivery Protocol Entity
`

var CmdRoot = &cobra.Command{
	Use:     "cfdpd",
	Short:   "CCSDS File Delivery Protocol Entity",
	Long:    banner[1:],
	Version: utils.Version,
}

func init() {
	cobra.EnableCommandSorting = false
	CmdRoot.Root().CompletionOptions.HiddenDefaultCmd = true
	CmdRoot.PersistentFlags().BoolP("help", "h", false, "Print usage")
	CmdRoot.PersistentFlags().Lookup("help").Hidden = true

	CmdRoot.AddGroup(&cobra.Group{ID: "run", Title: "CFDP Entity"})
	cfdpd.CmdCfdpd.Use = "run CONFIG-FILE"
	cfdpd.CmdCfdpd.Short = "Start the CFDP receiving entity"
	CmdRoot.AddCommand(cfdpd.CmdCfdpd)

	CmdRoot.AddGroup(&cobra.Group{ID: "tools", Title: "Debug Tools"})
	CmdRoot.AddCommand(tools.Cmds()...)
}

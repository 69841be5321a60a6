// Package tools holds the debug commands of cfdpd.
package tools

import "github.com/spf13/cobra"

// Cmds returns the tool commands, all in the "tools" group.
func Cmds() []*cobra.Command {
	return []*cobra.Command{
		CmdPdu(),
		CmdPut(),
		CmdHistory(),
	}
}

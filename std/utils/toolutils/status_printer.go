package toolutils

import (
	"fmt"
	"io"
	"strings"
)

// StatusPrinter prints right-aligned key=value lines.
type StatusPrinter struct {
	File    io.Writer
	Padding int
}

func (s StatusPrinter) Print(key string, value any) {
	pad := s.Padding - len(key)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(s.File, "%s%s=%v\n", strings.Repeat(" ", pad), key, value)
}

// Section prints a header line separating groups of keys.
func (s StatusPrinter) Section(name string) {
	fmt.Fprintf(s.File, "%s\n", name)
}

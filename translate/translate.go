// Package translate localizes the diagnostic messages of the simulator and
// assembler.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	printerOnce sync.Once
	printer     *message.Printer
)

// load picks the printer from the host locale list, falling back to en-US.
func load() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("lc3: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// SetLanguage forces the message printer to a specific language tag.
// Used by tests and hosts that do not want the environment locale.
func SetLanguage(tag language.Tag) {
	printerOnce.Do(func() {})
	printer = message.NewPrinter(tag)
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	printerOnce.Do(load)
	return printer.Sprintf(key, args...)
}

// Plain formats an integer without digit grouping, for line numbers,
// offsets and literal values.
func Plain(n int) any {
	return number.Decimal(n, number.NoSeparator())
}

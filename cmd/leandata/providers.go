package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rxtech-lab/argo-lean-data/pkg/marketdata"
)

// printProviders writes one line per registered provider.
func printProviders(out io.Writer) error {
	renderer := lipgloss.NewRenderer(out)
	titleStyle := renderer.NewStyle().Bold(true)
	helpStyle := renderer.NewStyle().Faint(true)

	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		classes := make([]string, 0, len(info.AssetClasses))
		for _, class := range info.AssetClasses {
			classes = append(classes, string(class))
		}

		auth := "no key"
		if info.RequiresAuth {
			auth = "api key"
		}

		_, err = fmt.Fprintf(out, "%-8s %s [%s] (%s)\n         %s\n",
			info.Name,
			titleStyle.Render(info.DisplayName),
			strings.Join(classes, ","),
			auth,
			helpStyle.Render(info.Description),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

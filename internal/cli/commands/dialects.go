package commands

import (
	"strings"

	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/spf13/cobra"
)

type dialectInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Quote       string   `json:"quote" yaml:"quote"`
	Placeholder string   `json:"placeholder" yaml:"placeholder"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported SQL dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContextWithoutEngine(cmd).Renderer

			var infos []dialectInfo
			for _, name := range dialect.List() {
				d, ok := dialect.Get(name)
				if !ok {
					continue
				}
				q := d.Identifiers.Quote
				infos = append(infos, dialectInfo{
					Name:        d.Name,
					Aliases:     d.Aliases,
					Quote:       string([]byte{q.Open, q.Close}),
					Placeholder: d.FormatPlaceholder(1),
				})
			}

			if ok, err := r.Encode(infos); ok {
				return err
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{info.Name, strings.Join(info.Aliases, ", "), info.Quote, info.Placeholder})
			}
			r.Table([]string{"Dialect", "Aliases", "Quote", "Placeholder"}, rows)
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/db8labs/db8-agent/internal/caption"
)

func newGenerateCmd() *cobra.Command {
	var (
		attrs  caption.Attributes
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a caption for the given attributes without storing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if dryRun {
				b, err := caption.NewBuilder(cfg.LLM.Prompt)
				if err != nil {
					return err
				}
				tag, prompt := b.Build(attrs)
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s\n", tag, prompt)
				return err
			}

			cc := newCaptionCache(cfg)
			defer func() { _ = cc.Close() }()

			listings, err := newListingService(cfg, nil, cc)
			if err != nil {
				return err
			}
			p, err := listings.Preview(cmd.Context(), attrs)
			if err != nil {
				return fmt.Errorf("generate %s caption: %w", p.Tag, err)
			}

			out := struct {
				Tag     caption.Tag               `json:"template_tag"`
				Cached  bool                      `json:"cached"`
				Caption *caption.GeneratedCaption `json:"caption"`
				Display string                    `json:"caption_final"`
			}{p.Tag, p.Cached, p.Caption, p.Caption.Display()}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&attrs.PropertyType, "type", "", "property type, e.g. apartamento, casa, terreno")
	f.StringVar(&attrs.PropertyStandard, "standard", "", "property standard, e.g. luxo, medio, economico")
	f.StringVar(&attrs.City, "city", "", "city")
	f.StringVar(&attrs.Neighborhood, "neighborhood", "", "neighborhood")
	f.StringVar(&attrs.InvestmentValue, "value", "", "asking price as displayed, e.g. \"R$ 2.500.000\"")
	f.Float64Var(&attrs.BuiltAreaM2, "area", 0, "built area in square meters")
	f.StringVar(&attrs.Highlights, "highlights", "", "comma-separated highlights")
	f.StringVar(&attrs.OriginalDescription, "description", "", "original description, used when highlights are empty")
	f.BoolVar(&dryRun, "dry-run", false, "print the prompt without calling the provider")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("standard")
	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// promptsFile is the on-disk shape for exported prompts, matching the
// prompts section of the config file.
type promptsFile struct {
	Prompts struct {
		GIS      string `yaml:"gis"`
		Mayor    string `yaml:"mayor"`
		Assessor string `yaml:"assessor"`
	} `yaml:"prompts"`
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Export or import the per-role search prompts",
	Long:  "The exported YAML slots directly into the prompts section of config.yaml, so prompts can be versioned and shared between operators.",
}

var promptsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the active prompts as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pf promptsFile
		pf.Prompts.GIS = cfg.Prompts.GIS
		pf.Prompts.Mayor = cfg.Prompts.Mayor
		pf.Prompts.Assessor = cfg.Prompts.Assessor

		raw, err := yaml.Marshal(&pf)
		if err != nil {
			return eris.Wrap(err, "prompts export: marshal")
		}

		if len(args) == 0 {
			_, err = os.Stdout.Write(raw)
			return err
		}
		if err := os.WriteFile(args[0], raw, 0o644); err != nil {
			return eris.Wrap(err, "prompts export: write")
		}
		fmt.Fprintf(os.Stderr, "Prompts written to %s\n", args[0])
		return nil
	},
}

var promptsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge prompts from a YAML file into config.yaml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "prompts import: read")
		}

		var pf promptsFile
		if err := yaml.Unmarshal(raw, &pf); err != nil {
			return eris.Wrap(err, "prompts import: parse")
		}
		if pf.Prompts.GIS == "" && pf.Prompts.Mayor == "" && pf.Prompts.Assessor == "" {
			return eris.New("prompts import: no prompts found in file")
		}

		// Merge into the existing config file so unrelated settings survive.
		doc := map[string]any{}
		if existing, err := os.ReadFile("config.yaml"); err == nil {
			if err := yaml.Unmarshal(existing, &doc); err != nil {
				return eris.Wrap(err, "prompts import: parse config.yaml")
			}
		}

		prompts, _ := doc["prompts"].(map[string]any)
		if prompts == nil {
			prompts = map[string]any{}
		}
		if pf.Prompts.GIS != "" {
			prompts["gis"] = pf.Prompts.GIS
		}
		if pf.Prompts.Mayor != "" {
			prompts["mayor"] = pf.Prompts.Mayor
		}
		if pf.Prompts.Assessor != "" {
			prompts["assessor"] = pf.Prompts.Assessor
		}
		doc["prompts"] = prompts

		out, err := yaml.Marshal(doc)
		if err != nil {
			return eris.Wrap(err, "prompts import: marshal config")
		}
		if err := os.WriteFile("config.yaml", out, 0o644); err != nil {
			return eris.Wrap(err, "prompts import: write config.yaml")
		}

		fmt.Fprintln(os.Stderr, "Prompts merged into config.yaml")
		return nil
	},
}

func init() {
	promptsCmd.AddCommand(promptsExportCmd)
	promptsCmd.AddCommand(promptsImportCmd)
	rootCmd.AddCommand(promptsCmd)
}

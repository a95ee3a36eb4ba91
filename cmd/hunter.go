package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var hunterCmd = &cobra.Command{
	Use:   "hunter",
	Short: "One-shot hunter.io lookups",
	Long:  "Run a single email-finder or email-verifier lookup outside an enrichment run.",
}

var hunterFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find the most likely email for a person at a domain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		first, _ := cmd.Flags().GetString("first")
		last, _ := cmd.Flags().GetString("last")
		domain, _ := cmd.Flags().GetString("domain")
		if first == "" || last == "" || domain == "" {
			return eris.New("hunter find: --first, --last and --domain are required")
		}

		resp, err := newHunterClient().FindEmail(cmd.Context(), first, last, domain)
		if err != nil {
			return err
		}
		if resp.Pending {
			fmt.Fprintln(os.Stderr, "Lookup still in progress server-side; try again shortly.")
			return nil
		}
		return printJSON(resp)
	},
}

var hunterVerifyCmd = &cobra.Command{
	Use:   "verify <email>",
	Short: "Verify deliverability of an email address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newHunterClient().VerifyEmail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if resp.Pending {
			fmt.Fprintln(os.Stderr, "Verification still in progress server-side; try again shortly.")
			return nil
		}
		if resp.InvalidEmail() {
			fmt.Fprintln(os.Stderr, "Address rejected as invalid.")
		}
		return printJSON(resp)
	},
}

func init() {
	hunterFindCmd.Flags().String("first", "", "first name")
	hunterFindCmd.Flags().String("last", "", "last name")
	hunterFindCmd.Flags().String("domain", "", "organization domain, e.g. examplecounty.gov")

	hunterCmd.AddCommand(hunterFindCmd)
	hunterCmd.AddCommand(hunterVerifyCmd)
	rootCmd.AddCommand(hunterCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

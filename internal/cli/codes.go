package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyike/bestfour/internal/codes"
)

// newCodesCmd creates the codes command
func newCodesCmd(flags *globalFlags, o *options) *cobra.Command {
	codesCmd := &cobra.Command{
		Use:   "codes",
		Short: "Inspect and refresh the security code registry",
	}

	codesCmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Download the TWSE and TPEx listings into the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, o)
			if err != nil {
				return err
			}
			defer a.Close()

			client := codes.NewISINClient(a.cfg.ISINBaseURL, a.cfg.UserAgent, a.cfg.HTTPTimeout, a.logger)
			entries, err := client.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no codes found at %s", a.cfg.ISINBaseURL)
			}
			if err := codes.Save(a.cfg.CodesPath(), entries); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(
				fmt.Sprintf("Saved %d codes to %s", len(entries), a.cfg.CodesPath())))
			return nil
		},
	})

	codesCmd.AddCommand(&cobra.Command{
		Use:   "show <code>",
		Short: "Show the registry entry of a code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, o)
			if err != nil {
				return err
			}
			defer a.Close()

			info, ok := a.registry.Lookup(args[0])
			if !ok {
				return fmt.Errorf("code %s is not in the registry", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderCodeInfo(info))
			return nil
		},
	})

	var limit int
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search codes by code prefix, name or industry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, o)
			if err != nil {
				return err
			}
			defer a.Close()

			idx, err := codes.NewIndex(a.registry)
			if err != nil {
				return err
			}
			defer idx.Close()

			hits, err := idx.Search(args[0], limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderCodeList(hits))
			return nil
		},
	}
	searchCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")
	codesCmd.AddCommand(searchCmd)

	return codesCmd
}

package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/matproj/internal/usecase/health"
	"github.com/kailas-cloud/matproj/internal/version"
)

func newFieldsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <category>",
		Short: "List the fields a category returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, r, err := o.rester(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			fields := r.AvailableFields()
			if o.output != formatTable {
				return printValue(cmd.OutOrStdout(), o.output, fields)
			}
			for _, f := range fields {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), f); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newVersionsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <category>",
		Short: "List the database versions a category can be queried at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, r, err := o.rester(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			versions, err := r.Versions(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck // SDK errors name the operation
			}
			if o.output != formatTable {
				return printValue(cmd.OutOrStdout(), o.output, versions)
			}
			for _, v := range versions {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), v); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newHeartbeatCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat",
		Short: "Show API status and the current database version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			hb, err := c.Heartbeat(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck // SDK errors name the operation
			}
			if o.output != formatTable {
				return printValue(cmd.OutOrStdout(), o.output, hb)
			}
			t := newTable(cmd.OutOrStdout())
			t.AddHeader("STATUS", "VERSION", "DB VERSION")
			t.AddLine(hb.Status, hb.Version, hb.DBVersion)
			t.Print()
			return nil
		},
	}
}

func newHealthCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the API and the response cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			r := c.Health(cmd.Context())
			if o.output != formatTable {
				if err := printValue(cmd.OutOrStdout(), o.output, map[string]any{
					"status": r.Status,
					"checks": r.Checks,
					"errors": r.Errors,
				}); err != nil {
					return err
				}
			} else {
				names := make([]string, 0, len(r.Checks))
				for name := range r.Checks {
					names = append(names, name)
				}
				sort.Strings(names)

				t := newTable(cmd.OutOrStdout())
				t.AddHeader("COMPONENT", "STATUS", "ERROR")
				for _, name := range names {
					t.AddLine(name, string(r.Checks[name]), cell(nilIfEmpty(r.Errors[name])))
				}
				t.Print()
			}
			if r.Status == health.Unhealthy {
				return errors.New("api is unreachable")
			}
			return nil
		},
	}
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the matproj version",
		Args:  cobra.NoArgs,
		// The version command needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "matproj", version.String())
			return err
		},
	}
}

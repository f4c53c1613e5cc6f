package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"claimgate/internal/client"
	"claimgate/internal/device"

	"github.com/spf13/cobra"
)

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show this device's claim record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := a.flow()
			if err != nil {
				return err
			}
			st := flow.Status()
			out := cmd.OutOrStdout()

			switch {
			case st.Storage == device.StateUnavailable:
				fmt.Fprintln(out, "Device: unrestricted (device storage unavailable)")
			case st.Restricted:
				fmt.Fprintf(out, "Device: restricted (%d days remaining)\n", st.RemainingDays)
			default:
				fmt.Fprintln(out, "Device: unrestricted")
			}
			if st.Record != nil {
				fmt.Fprintf(out, "Option: %s\n", st.Record.SelectedOption)
				fmt.Fprintf(out, "Claimed at: %s\n", st.Record.ClaimedAt.Local().Format(time.RFC1123))
				fmt.Fprintf(out, "Expires at: %s\n", st.Record.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func (a *app) claimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <option>",
		Short: "Claim the materials for one edition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := a.flow()
			if err != nil {
				return err
			}

			grant, err := flow.Claim(cmd.Context(), args[0])
			if err != nil {
				var f *client.Failure
				if errors.As(err, &f) {
					a.logger.Debug("Claim refused", "kind", f.Kind, "status", f.Status, "error", f.Err)
					return errors.New(f.Message)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Claimed %s\n", grant.ClaimedOption)
			fmt.Fprintf(out, "Link: %s\n", grant.Linkage)
			fmt.Fprintf(out, "Extraction code: %s\n", grant.ExtractionCode)
			return nil
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear this device's claim record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := a.flow()
			if err != nil {
				return err
			}
			if err := flow.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Device record cleared.")
			return nil
		},
	}
}

func (a *app) catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the editions offered by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.client().Catalog(cmd.Context())
			if err != nil {
				var f *client.Failure
				if errors.As(err, &f) {
					return errors.New(f.Message)
				}
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, o := range opts {
				fmt.Fprintf(w, "%s\t%s\n", o.ID, o.Name)
			}
			return w.Flush()
		},
	}
}

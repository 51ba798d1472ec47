// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/credstore/internal/credential"
)

// NewPlayerCmd creates the player subcommand tree.
func NewPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Administer player credentials",
	}

	cmd.AddCommand(newPlayerRegisterCmd())
	cmd.AddCommand(newPlayerUnregisterCmd())
	cmd.AddCommand(newPlayerPasswdCmd())
	cmd.AddCommand(newPlayerCheckCmd())
	cmd.AddCommand(newPlayerLoginCmd())
	cmd.AddCommand(newPlayerInfoCmd())
	cmd.AddCommand(newPlayerByIPCmd())
	cmd.AddCommand(newPlayerByUUIDCmd())
	cmd.AddCommand(newPlayerTOTPCmd())

	return cmd
}

func newPlayerRegisterCmd() *cobra.Command {
	var ip string
	cmd := &cobra.Command{
		Use:   "register <nickname> <password>",
		Short: "Register a player with a password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				rec, err := a.accounts.Register(ctx, args[0], args[1], ip)
				if err != nil {
					return err //nolint:wrapcheck // account errors carry their own codes
				}
				cmd.Printf("Registered %s (%s)\n", rec.Nickname, rec.LocalUUID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&ip, "ip", "", "registration IP to record")
	return cmd
}

func newPlayerUnregisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <nickname>",
		Short: "Delete a player's credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.accounts.Unregister(ctx, args[0]); err != nil {
					return err //nolint:wrapcheck // account errors carry their own codes
				}
				cmd.Printf("Unregistered %s\n", args[0])
				return nil
			})
		},
	}
}

func newPlayerPasswdCmd() *cobra.Command {
	var (
		oldPassword string
		force       bool
	)
	cmd := &cobra.Command{
		Use:   "passwd <nickname> <new-password>",
		Short: "Change a player's password",
		Long: `Change a player's password. The current password is required via --old
unless --force is given, the player has no local password, or
account.require_old_password is false.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var err error
				if force {
					err = a.accounts.ForceChangePassword(ctx, args[0], args[1])
				} else {
					err = a.accounts.ChangePassword(ctx, args[0], oldPassword, args[1])
				}
				if err != nil {
					return err //nolint:wrapcheck // account errors carry their own codes
				}
				cmd.Printf("Password changed for %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&oldPassword, "old", "", "current password")
	cmd.Flags().BoolVar(&force, "force", false, "change without checking the current password")
	return cmd
}

func newPlayerCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <nickname> <password>",
		Short: "Check a password against the stored hash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ok, err := a.accounts.CheckPassword(ctx, args[0], args[1])
				if err != nil {
					return err //nolint:wrapcheck // account errors carry their own codes
				}
				if !ok {
					return oops.Code("ACCOUNT_WRONG_PASSWORD").
						With("nickname", credential.Key(args[0])).
						Errorf("password does not match")
				}
				cmd.Println("Password matches")
				return nil
			})
		},
	}
}

func newPlayerLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <nickname> <ip>",
		Short: "Record a successful login",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return a.accounts.RecordLogin(ctx, args[0], args[1]) //nolint:wrapcheck // account errors carry their own codes
			})
		},
	}
}

// playerView is the printable part of a record. Hashes and secrets are
// summarized, never shown.
type playerView struct {
	Nickname       string    `json:"nickname"`
	LocalUUID      string    `json:"local_uuid,omitempty"`
	LinkedUUID     string    `json:"linked_uuid,omitempty"`
	HasPassword    bool      `json:"has_password"`
	TOTPEnabled    bool      `json:"totp_enabled"`
	RegistrationIP string    `json:"registration_ip,omitempty"`
	RegisteredAt   time.Time `json:"registered_at,omitzero"`
	LastLoginIP    string    `json:"last_login_ip,omitempty"`
	LastLoginAt    time.Time `json:"last_login_at,omitzero"`
	HashIssuedAt   time.Time `json:"hash_issued_at,omitzero"`
}

func newPlayerView(rec credential.Record) playerView {
	v := playerView{
		Nickname:       rec.Nickname,
		LocalUUID:      rec.LocalUUID,
		LinkedUUID:     rec.LinkedExternalUUID,
		HasPassword:    !rec.IsUnauthenticated(),
		TOTPEnabled:    rec.TOTPSecret != "",
		RegistrationIP: rec.RegistrationIP,
		LastLoginIP:    rec.LastLoginIP,
	}
	if rec.RegisteredAtMillis > 0 {
		v.RegisteredAt = time.UnixMilli(rec.RegisteredAtMillis).UTC()
	}
	if rec.LastLoginAtMillis > 0 {
		v.LastLoginAt = time.UnixMilli(rec.LastLoginAtMillis).UTC()
	}
	if rec.HashIssuedAtMillis > 0 {
		v.HashIssuedAt = rec.HashIssuedAt().UTC()
	}
	return v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeInfo(w io.Writer, v playerView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Nickname", v.Nickname},
		{"Local UUID", orDash(v.LocalUUID)},
		{"Linked UUID", orDash(v.LinkedUUID)},
		{"Password", fmt.Sprintf("%t", v.HasPassword)},
		{"TOTP", fmt.Sprintf("%t", v.TOTPEnabled)},
		{"Registered", formatTime(v.RegisteredAt)},
		{"Registration IP", orDash(v.RegistrationIP)},
		{"Last login", formatTime(v.LastLoginAt)},
		{"Last login IP", orDash(v.LastLoginIP)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1]) //nolint:errcheck // flushed below
	}
	return tw.Flush() //nolint:wrapcheck // output errors surface as-is
}

func writeList(w io.Writer, recs []credential.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NICKNAME\tPASSWORD\tREGISTERED\tLAST LOGIN") //nolint:errcheck // flushed below
	for _, rec := range recs {
		v := newPlayerView(rec)
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", v.Nickname, v.HasPassword, formatTime(v.RegisteredAt), formatTime(v.LastLoginAt)) //nolint:errcheck // flushed below
	}
	return tw.Flush() //nolint:wrapcheck // output errors surface as-is
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return oops.Code("OUTPUT_FAILED").Wrap(err)
	}
	return nil
}

func newPlayerInfoCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "info <nickname>",
		Short: "Show a player's credential record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				rec, err := a.accounts.Info(ctx, args[0])
				if err != nil {
					return err //nolint:wrapcheck // account errors carry their own codes
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), newPlayerView(rec))
				}
				return writeInfo(cmd.OutOrStdout(), newPlayerView(rec))
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func newListCmd(use, short string, list func(ctx context.Context, a *app, arg string) ([]credential.Record, error)) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				recs, err := list(ctx, a, args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					views := make([]playerView, len(recs))
					for i, rec := range recs {
						views[i] = newPlayerView(rec)
					}
					return writeJSON(cmd.OutOrStdout(), views)
				}
				return writeList(cmd.OutOrStdout(), recs)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func newPlayerByIPCmd() *cobra.Command {
	return newListCmd("by-ip <ip>", "List players registered from an IP",
		func(ctx context.Context, a *app, ip string) ([]credential.Record, error) {
			return a.repo.GetByIP(ctx, ip) //nolint:wrapcheck // repository errors carry their own codes
		})
}

func newPlayerByUUIDCmd() *cobra.Command {
	return newListCmd("by-uuid <uuid>", "List players linked to an external UUID",
		func(ctx context.Context, a *app, id string) ([]credential.Record, error) {
			return a.repo.GetByLinkedUUID(ctx, id) //nolint:wrapcheck // repository errors carry their own codes
		})
}

func newPlayerTOTPCmd() *cobra.Command {
	var disable bool
	cmd := &cobra.Command{
		Use:   "totp <nickname> [secret]",
		Short: "Set or clear a player's TOTP secret",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if disable == (len(args) == 2) {
				return oops.Code("INVALID_ARGUMENTS").Errorf("give either a secret or --clear")
			}
			secret := ""
			if !disable {
				secret = args[1]
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.accounts.SetTOTPSecret(ctx, args[0], secret); err != nil {
					return err //nolint:wrapcheck // account errors carry their own codes
				}
				if disable {
					cmd.Printf("TOTP disabled for %s\n", args[0])
				} else {
					cmd.Printf("TOTP enabled for %s\n", args[0])
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&disable, "clear", false, "remove the TOTP secret")
	return cmd
}

package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"dharmaverse/models"
	"dharmaverse/utils"

	"github.com/spf13/cobra"
)

type tokenOptions struct {
	userID string
	name   string
	role   string
	ttl    time.Duration
	asJSON bool
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	o := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an operator or test user",
		Long: `Mint a bearer token signed with auth.jwt_secret.

Examples:
  dharmaverse token --user admin-1 --name "Site Admin" --role admin
  dharmaverse token --user u-42 --role user --ttl 1h --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.ValidRole(o.role) {
				return fmt.Errorf("unknown role %q (want user, moderator or admin)", o.role)
			}

			cfg, err := opts.load(false)
			if err != nil {
				return err
			}

			ttl := cfg.Auth.TokenTTL
			if o.ttl > 0 {
				ttl = o.ttl
			}
			name := o.name
			if name == "" {
				name = o.userID
			}

			issuer := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, ttl)
			token, expiresAt, err := issuer.Issue(o.userID, name, o.role)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if o.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"token":      token,
					"user_id":    o.userID,
					"role":       o.role,
					"expires_at": time.Unix(expiresAt, 0).UTC().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&o.userID, "user", "u", "", "user id placed in the token")
	cmd.Flags().StringVarP(&o.name, "name", "n", "", "display name (defaults to the user id)")
	cmd.Flags().StringVarP(&o.role, "role", "r", models.RoleUser, "role: user, moderator or admin")
	cmd.Flags().DurationVar(&o.ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print the token with its metadata as JSON")
	cmd.MarkFlagRequired("user")
	return cmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/courier/pkg/auth"
	"github.com/blackcoderx/courier/pkg/core"
	"github.com/blackcoderx/courier/pkg/storage"
)

func init() {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain and inspect credentials",
	}

	var (
		params auth.OAuth2Params
		saveAs string
	)
	oauthCmd := &cobra.Command{
		Use:   "oauth2",
		Short: "Fetch an OAuth2 access token",
		Example: `  courier auth oauth2 --token-url https://auth.example.com/token --client-id id --client-secret secret --save-as API_TOKEN
  # then: courier send GET {{BASE_URL}}/me --auth bearer --token '{{API_TOKEN}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.FetchToken(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), auth.FormatToken(token))

			if saveAs != "" {
				env := envName
				if env == "" {
					env = "dev"
				}
				if err := storage.SetVariables(core.FolderName, env, map[string]string{saveAs: token.AccessToken}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nSaved as {{%s}} in environment '%s'\n", saveAs, env)
			}
			return nil
		},
	}
	fl := oauthCmd.Flags()
	fl.StringVar(&params.Flow, "flow", auth.FlowClientCredentials, "grant type: client_credentials or password")
	fl.StringVar(&params.TokenURL, "token-url", "", "token endpoint")
	fl.StringVar(&params.ClientID, "client-id", "", "client ID")
	fl.StringVar(&params.ClientSecret, "client-secret", "", "client secret")
	fl.StringSliceVar(&params.Scopes, "scope", nil, "scopes to request (repeatable)")
	fl.StringVar(&params.Username, "username", "", "resource owner username (password flow)")
	fl.StringVar(&params.Password, "password", "", "resource owner password (password flow)")
	fl.StringVar(&saveAs, "save-as", "", "store the access token under this variable in the environment")

	jwtCmd := &cobra.Command{
		Use:   "jwt TOKEN",
		Short: "Decode a JWT's header and claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := auth.ParseJWT(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	basicCmd := &cobra.Command{
		Use:   "basic USER:PASSWORD | TOKEN",
		Short: "Encode credentials for --auth basic, or decode a Basic token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user, pass, err := auth.DecodeBasic(args[0]); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Username: %s\nPassword: %s\n", user, pass)
				return nil
			}
			user, pass, ok := strings.Cut(args[0], ":")
			if !ok {
				return fmt.Errorf("expected USER:PASSWORD or a Basic token")
			}
			fmt.Fprintln(cmd.OutOrStdout(), auth.EncodeBasic(user, pass))
			return nil
		},
	}

	authCmd.AddCommand(oauthCmd, jwtCmd, basicCmd)
	rootCmd.AddCommand(authCmd)
}

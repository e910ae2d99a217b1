package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/blackcoderx/courier/pkg/core"
	"github.com/blackcoderx/courier/pkg/exchange"
	"github.com/blackcoderx/courier/pkg/sandbox"
	"github.com/blackcoderx/courier/pkg/storage"
)

func init() {
	var (
		flags       requestFlags
		collection  string
		folder      string
		position    int
		interactive bool
	)

	saveCmd := &cobra.Command{
		Use:   "save NAME METHOD URL",
		Short: "Save a request for later runs",
		Example: `  courier save "list users" GET {{BASE_URL}}/users --collection users --assert 'status == 200'
  courier save --interactive`,
		Args: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return cobra.MaximumNArgs(3)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var name, method, url string
			if len(args) == 3 {
				name, method, url = args[0], args[1], args[2]
			}

			script := sandbox.DefaultScript
			if interactive {
				if err := saveForm(&name, &method, &url, &collection, &folder, &flags.data, &script); err != nil {
					return err
				}
			}

			req, err := flags.build(method, url)
			if err != nil {
				return err
			}
			if sandbox.ShouldRun(script) {
				req.TestScript = script
			}
			schema, err := flags.schema()
			if err != nil {
				return err
			}

			path, err := storage.SaveRequest(core.FolderName, storage.SavedRequest{
				Name:       name,
				Collection: collection,
				Folder:     folder,
				Position:   position,
				Request:    req,
				Assertions: flags.assertions(),
				Schema:     schema,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved '%s' to %s\n", name, path)
			return nil
		},
	}
	flags.bind(saveCmd)
	saveCmd.Flags().StringVar(&collection, "collection", "", "collection to save into")
	saveCmd.Flags().StringVar(&folder, "folder", "", "folder inside the collection")
	saveCmd.Flags().IntVar(&position, "position", 0, "order inside the folder")
	saveCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "fill in the request with a form")

	var listCollection string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				reqs []storage.SavedRequest
				err  error
			)
			if listCollection != "" {
				reqs, err = storage.ListByCollection(core.FolderName, listCollection)
			} else {
				reqs, err = storage.ListRequests(core.FolderName)
			}
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved requests.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMETHOD\tURL\tCOLLECTION")
			for _, r := range reqs {
				where := r.Collection
				if r.Folder != "" {
					where += "/" + r.Folder
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.HistoryMethod(), r.URL, where)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&listCollection, "collection", "", "only list this collection, in run order")

	rootCmd.AddCommand(saveCmd, listCmd, newEnvCmd())
}

// saveForm asks for the request fields that are still empty. script starts
// as the editor template and is only kept once edited.
func saveForm(name, method, url, collection, folder, body, script *string) error {
	if *method == "" {
		*method = string(exchange.MethodGet)
	}

	methods := make([]string, 0, len(exchange.Methods))
	for _, m := range exchange.Methods {
		methods = append(methods, string(m))
	}

	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New(field + " is required")
			}
			return nil
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(name).Validate(required("name")),
			huh.NewSelect[string]().Title("Method").Options(huh.NewOptions(methods...)...).Value(method),
			huh.NewInput().Title("URL").Placeholder("{{BASE_URL}}/users").Value(url).Validate(required("URL")),
		),
		huh.NewGroup(
			huh.NewInput().Title("Collection").Description("Leave empty for a loose request").Value(collection),
			huh.NewInput().Title("Folder").Value(folder),
			huh.NewText().Title("Body").Value(body),
		),
		huh.NewGroup(
			huh.NewText().Title("Test script").Lines(8).Value(script),
		),
	)
	return form.Run()
}

func newEnvCmd() *cobra.Command {
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Manage environments",
	}

	envCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := storage.ListEnvironments(core.FolderName)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	})

	envCmd.AddCommand(&cobra.Command{
		Use:   "set NAME KEY=VALUE...",
		Short: "Set variables in an environment, creating it if needed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars := make(map[string]string, len(args)-1)
			for _, kv := range args[1:] {
				key, value, ok := strings.Cut(kv, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid variable %q (expected KEY=VALUE)", kv)
				}
				vars[key] = value
			}
			if err := storage.SetVariables(core.FolderName, args[0], vars); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated environment '%s'\n", args[0])
			return nil
		},
	})

	return envCmd
}

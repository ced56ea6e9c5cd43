package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	apiclient "github.com/FordLabs/PeopleMover/pkg/api/client"
)

type apiFlags struct {
	baseURL    string
	token      string
	accessCode string
	output     string
}

// render prints rows as a table on a terminal and as JSON otherwise, unless
// --output picks one.
func (f *apiFlags) render(cmd *cobra.Command, header []string, rows [][]string, raw any) error {
	out := cmd.OutOrStdout()
	mode := f.output
	if mode == "auto" {
		mode = "json"
		if file, ok := out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			mode = "table"
		}
	}
	switch mode {
	case "json":
		return writeJSON(out, raw)
	case "table":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(header, "\t"))
		for _, row := range rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown --output %q (want auto, table or json)", f.output)
	}
}

func (f *apiFlags) client(cmd *cobra.Command) (*apiclient.Client, error) {
	cli, err := apiclient.New(f.baseURL, apiclient.WithToken(f.token))
	if err != nil {
		return nil, err
	}
	if f.token == "" && f.accessCode != "" {
		if _, err := cli.Login(commandContext(cmd), f.accessCode); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}
	return cli, nil
}

func newReportCmd() *cobra.Command {
	flags := &apiFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Read reports from a running PeopleMover API",
	}
	cmd.PersistentFlags().StringVar(&flags.baseURL, "api", envOr("PEOPLEMOVER_API", "http://localhost:8080"), "API base URL")
	cmd.PersistentFlags().StringVar(&flags.token, "token", os.Getenv("PEOPLEMOVER_TOKEN"), "Bearer token")
	cmd.PersistentFlags().StringVar(&flags.accessCode, "access-code", "", "Access code to exchange for a token when --token is empty")
	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "auto", "Output format: auto, table or json")

	today := time.Now().Format("2006-01-02")

	var peopleDate string
	people := &cobra.Command{
		Use:   "people SPACE_UUID",
		Short: "Who works on which product on --date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := flags.client(cmd)
			if err != nil {
				return err
			}
			rows, err := cli.PeopleReport(commandContext(cmd), args[0], peopleDate)
			if err != nil {
				return err
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{row.ProductName, row.PersonName, row.PersonRole})
			}
			return flags.render(cmd, []string{"PRODUCT", "PERSON", "ROLE"}, table, rows)
		},
	}
	people.Flags().StringVar(&peopleDate, "date", today, "Report date (YYYY-MM-DD)")

	var moveDate string
	reassignments := &cobra.Command{
		Use:   "reassignments SPACE_UUID",
		Short: "Who moved between products on --date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := flags.client(cmd)
			if err != nil {
				return err
			}
			moves, err := cli.Reassignments(commandContext(cmd), args[0], moveDate)
			if err != nil {
				return err
			}
			table := make([][]string, 0, len(moves))
			for _, m := range moves {
				table = append(table, []string{m.Person.Name, m.FromProductName, m.ToProductName})
			}
			return flags.render(cmd, []string{"PERSON", "FROM", "TO"}, table, moves)
		},
	}
	reassignments.Flags().StringVar(&moveDate, "date", today, "Date of the moves (YYYY-MM-DD)")

	spaces := &cobra.Command{
		Use:   "spaces",
		Short: "Every space with its members (report administrators only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := flags.client(cmd)
			if err != nil {
				return err
			}
			rows, err := cli.SpaceReport(commandContext(cmd))
			if err != nil {
				var apiErr apiclient.APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
					return fmt.Errorf("not a report administrator: %w", err)
				}
				return err
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{row.SpaceName, row.CreatedBy, strings.Join(row.Users, ",")})
			}
			return flags.render(cmd, []string{"SPACE", "CREATED BY", "USERS"}, table, rows)
		},
	}

	cmd.AddCommand(people, reassignments, spaces)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

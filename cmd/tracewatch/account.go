package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/console/internal/credentials"
	"github.com/GriffinCanCode/AgentOS/console/internal/settings"
)

func newLoginCmd(a *app) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Long: `Log in to the console and store the access token in the credentials file.

On a fresh console the submitted password becomes the console password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auth := credentials.NewAuth(a.api)
			out := cmd.OutOrStdout()

			first, err := auth.CheckFirstTime(cmd.Context())
			if err != nil {
				return err
			}
			if first {
				fmt.Fprintln(out, "No password is set yet; the password you enter will become the console password.")
			}

			if !passwordStdin {
				fmt.Fprint(out, "Password: ")
			}
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}

			token, err := auth.Login(cmd.Context(), password)
			if err != nil {
				return err
			}
			if err := a.store.Save(credentials.Credentials{BaseURL: a.cfg.API.URL, Token: token}); err != nil {
				return err
			}
			fmt.Fprintf(out, "Logged in; token saved to %s\n", a.store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin without prompting")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the tracing settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := settings.New(a.api).Fetch(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "llm_tracing_content: %t\n", t.LLMTracingContent)
			return nil
		},
	}
	cmd.AddCommand(newSettingsSetCmd(a))
	return cmd
}

func newSettingsSetCmd(a *app) *cobra.Command {
	var (
		content string
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the tracing settings",
		Long: `Update the tracing settings.

Enabling LLM content tracing shows a disclosure and asks for confirmation
unless --yes is given.`,
		Example: `  tracewatch settings set --content=false
  tracewatch settings set --content=true --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enable, err := strconv.ParseBool(content)
			if err != nil {
				return fmt.Errorf("--content: %w", err)
			}
			out := cmd.OutOrStdout()

			consented := yes
			if enable && !consented {
				fmt.Fprintln(out, settings.Disclosure)
				fmt.Fprint(out, "\nType 'yes' to enable content tracing: ")
				answer, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				consented = strings.EqualFold(answer, "yes")
			}

			if err := settings.New(a.api).Save(cmd.Context(), settings.Tracing{LLMTracingContent: enable}, consented); err != nil {
				return err
			}
			fmt.Fprintln(out, "Tracing settings saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Record full LLM request and response content (true or false)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Accept the content tracing disclosure")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

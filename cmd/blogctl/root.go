package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rpupo63/verbavista-backend/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:8080"

var errNotLoggedIn = errors.New("not logged in, run `blogctl login` first")

// app is the state shared by every command of one invocation.
type app struct {
	apiURL    string
	credsPath string
	verbose   bool

	session *client.Session
	client  *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "blogctl",
		Short:         "Write and manage posts on a verbaVista server",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	apiURL := os.Getenv("BLOGCTL_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", apiURL, "API base URL (env BLOGCTL_API_URL)")
	root.PersistentFlags().StringVar(&a.credsPath, "credentials", "", "credentials file (default in the user config dir)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every persistence attempt")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newPasswdCmd(a),
		newPostsCmd(a),
		newCategoriesCmd(a),
		newTagsCmd(a),
		newUploadCmd(a),
		newEditCmd(a),
		newSaveCmd(a),
		newPublishCmd(a),
	)
	return root
}

func (a *app) init() error {
	level := zerolog.WarnLevel
	if a.verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	a.apiURL = strings.TrimSuffix(a.apiURL, "/")
	if a.credsPath == "" {
		path, err := defaultCredentialsPath()
		if err != nil {
			return err
		}
		a.credsPath = path
	}

	a.session = client.NewSession()
	creds, err := loadCredentials(a.credsPath)
	if err != nil {
		return err
	}
	// a token is only good for the server that issued it
	if creds != nil && creds.APIURL == a.apiURL && creds.Token != "" {
		a.session.SignIn(creds.Token, creds.User)
	}
	a.session.OnClear(func() {
		if err := removeCredentials(a.credsPath); err != nil {
			log.Warn().Err(err).Msg("could not remove saved credentials")
		}
	})

	a.client = client.New(a.apiURL, a.session)
	return nil
}

func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		return errNotLoggedIn
	}
	return nil
}

// rememberLogin writes the signed-in session to disk.
func (a *app) rememberLogin() error {
	return saveCredentials(a.credsPath, credentials{
		APIURL: a.apiURL,
		Token:  a.session.Token(),
		User:   a.session.User(),
	})
}

// promptSecret reads one line from in when value is empty.
func promptSecret(in *bufio.Reader, out io.Writer, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(out, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return line, nil
}

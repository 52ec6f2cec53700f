package cli

import (
	"fmt"
	"io"

	"github.com/gear6io/airbus/config"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/gear6io/airbus/yuque"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// DefaultThumbsUpNum is how many documents thumbsup considers
const DefaultThumbsUpNum = 95

var (
	argToken = Arg{
		Flags: []string{"-t", "--token"},
		Help:  "API token, overrides yuque.token",
	}
	argUID = Arg{
		Flags: []string{"--uid"},
		Help:  "user login whose documents are read, overrides yuque.uid",
	}
	argUser = Arg{
		Flags: []string{"-u", "--user"},
		Help:  "account name used for the action",
	}
	argPassword = Arg{
		Flags: []string{"-p", "--password"},
		Help:  "account password used for the action",
	}
	argThumbsUpUser = Arg{
		Flags: []string{"--thumbsup-user"},
		Help:  "account that gives the thumbs up",
	}
	argThumbsUpPassword = Arg{
		Flags: []string{"--thumbsup-password"},
		Help:  "password of --thumbsup-user",
	}
	argNum = Arg{
		Flags:   []string{"-n", "--num"},
		Help:    "number of documents to act on",
		Kind:    ArgInt,
		Default: DefaultThumbsUpNum,
	}
)

func yuqueCommands() GroupCommand {
	account := []Arg{argUser, argPassword}

	return GroupCommand{
		Name: "yuque",
		Help: "Work with documents hosted on yuque",
		Subcommands: []Command{
			ActionCommand{
				Name:        "docs",
				Help:        "List the URLs of a user's public documents",
				Description: "Docs walks every public repository of --uid and prints one document URL per line.",
				Example:     `  airbus yuque docs -t $YUQUE_TOKEN --uid someone`,
				Args:        []Arg{argToken, argUID},
				Run:         runDocs,
			},
			ActionCommand{
				Name: "thumbsup",
				Help: "Give a thumbs up to a user's public documents",
				Args: []Arg{argToken, argUID, argThumbsUpUser, argThumbsUpPassword, argNum},
				Run:  runThumbsUp,
			},
			ActionCommand{Name: "follow", Help: "Follow a user", Args: account, Run: unsupported("follow")},
			ActionCommand{Name: "unfollow", Help: "Unfollow a user", Args: account, Run: unsupported("unfollow")},
			ActionCommand{Name: "review", Help: "Review documents", Args: account, Run: unsupported("review")},
			ActionCommand{Name: "shorthand", Help: "Post a shorthand note", Args: account, Run: unsupported("shorthand")},
		},
	}
}

func yuqueConfig(cmd *cobra.Command, cfg *config.Config) config.YuqueConfig {
	yc := cfg.Yuque
	if token, _ := cmd.Flags().GetString(argToken.Name()); token != "" {
		yc.Token = token
	}
	if uid, _ := cmd.Flags().GetString(argUID.Name()); uid != "" {
		yc.UID = uid
	}
	return yc
}

func fetchDocs(cmd *cobra.Command) ([]yuque.Doc, error) {
	st := getState(cmd)

	client, err := yuque.NewClient(yuqueConfig(cmd, st.cfg), st.logger)
	if err != nil {
		return nil, err
	}

	progress, stop := progressBar(cmd.ErrOrStderr(), "Fetching repositories")
	defer stop()

	return client.Docs(cmd.Context(), progress)
}

func runDocs(cmd *cobra.Command, args []string) error {
	docs, err := fetchDocs(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, doc := range docs {
		fmt.Fprintln(out, doc.URL)
	}
	return nil
}

func runThumbsUp(cmd *cobra.Command, args []string) error {
	st := getState(cmd)

	num, _ := cmd.Flags().GetInt(argNum.Name())
	if num < 1 {
		return errors.Newf(ErrUsageInvalid, "--num must be positive, got %d", num)
	}

	docs, err := fetchDocs(cmd)
	if err != nil {
		return err
	}
	if len(docs) > num {
		docs = docs[:num]
	}

	st.logger.Info().Int("docs", len(docs)).Msg("Resolved thumbs up candidates")
	return errors.New(ErrUnsupportedAction, "thumbsup is not supported by the public API", nil).
		AddContext("candidates", fmt.Sprint(len(docs)))
}

func unsupported(action string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return errors.Newf(ErrUnsupportedAction, "%s is not supported by the public API", action)
	}
}

// progressBar draws on w when it is a terminal; the returned func stops it
func progressBar(w io.Writer, title string) (yuque.ProgressFunc, func()) {
	if !isTerminal(w) {
		return nil, func() {}
	}

	var bar *pterm.ProgressbarPrinter
	update := func(done, total int) {
		if bar == nil {
			started, err := pterm.DefaultProgressbar.WithTotal(total).WithTitle(title).WithWriter(w).Start()
			if err != nil {
				return
			}
			bar = started
		}
		bar.Increment()
	}
	stop := func() {
		if bar != nil {
			bar.Stop()
		}
	}
	return update, stop
}

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"famspend/internal/chat"
	"famspend/internal/cli"
	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/notify"
)

var (
	chatUserID   string
	chatUserName string
	chatFamilyID string
	chatNoBanner bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with famspend from the terminal",
	Long: `Open an interactive chat session. Type an expense ("250 for lunch") or a
question ("how much this week?"). /stats shows totals, /reset starts over and
/quit leaves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatUserID, "user", os.Getenv("USER"), "user id to record expenses as")
	chatCmd.Flags().StringVar(&chatUserName, "name", "", "display name (default: user id)")
	chatCmd.Flags().StringVar(&chatFamilyID, "family", "", "family id; empty keeps expenses personal")
	chatCmd.Flags().BoolVar(&chatNoBanner, "no-banner", false, "skip the start-up banner")
	rootCmd.AddCommand(chatCmd)
}

func runChat(parent context.Context, in io.Reader, out io.Writer) error {
	cli.LoadEnvFile(envFiles()...)
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	// stdout belongs to the conversation
	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logCfg.Output = os.Stderr
	logger := log.New(logCfg)

	if chatUserID == "" {
		return errors.New("a user id is required: pass --user")
	}
	name := chatUserName
	if name == "" {
		name = chatUserID
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := cli.GracefulShutdown(parent, logger)
	defer cancel()

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = res.Cleanup() }()

	money := core.NewFormatter(cfg.CurrencySymbol, cfg.CurrencyLocale)
	sessions := chat.NewManager(res.Engine, res.Store, chat.ManagerConfig{
		TTL:         cfg.SessionTTL,
		MaxSessions: 1,
	}, logger)
	session := sessions.Create(core.Identity{UserID: chatUserID, UserName: name, FamilyID: chatFamilyID})

	if !chatNoBanner {
		figure.NewColorFigure("famspend", "puffy", "green", true).Print()
	}

	g, gctx := errgroup.WithContext(ctx)
	if res.Remote != nil {
		poller := notify.NewPoller(res.Remote, cfg.NotifyPollInterval, logger,
			notify.OnChange(func(n int) {
				if n > 0 {
					fmt.Fprintf(out, "\n(%d unread notifications)\n", n)
				}
			}))
		g.Go(func() error {
			err := poller.Run(gctx)
			if errors.Is(err, core.ErrAuthExpired) {
				logger.Warn("Notification polling stopped", log.FieldError, err)
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		defer cancel()
		return repl(gctx, in, out, session, money)
	})
	return g.Wait()
}

// repl reads one message per line until EOF, /quit or ctx ends.
func repl(ctx context.Context, in io.Reader, out io.Writer, session *chat.Session, money *core.Formatter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, chat.WelcomeMessage)
	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			session.Reset()
			fmt.Fprintln(out, chat.WelcomeMessage)
			continue
		case "/stats":
			stats, err := session.Refresh(ctx)
			if err != nil {
				msg, _ := chat.ErrorReply(err)
				fmt.Fprintln(out, msg)
				continue
			}
			printStats(out, stats, money)
			continue
		}

		reply, err := session.Submit(ctx, line)
		if err != nil {
			if errors.Is(err, chat.ErrSessionClosed) && ctx.Err() != nil {
				return nil
			}
			msg, _ := chat.ErrorReply(err)
			fmt.Fprintln(out, msg)
			continue
		}
		fmt.Fprintln(out, reply.Text)
		if session.State() == chat.StateClosed {
			fmt.Fprintln(out, "Session closed. Sign in again and restart the chat.")
			return nil
		}
	}
}

func printStats(out io.Writer, stats chat.Stats, money *core.Formatter) {
	fmt.Fprintf(out, "Total: %s | Today: %s | Entries: %d\n",
		money.Format(stats.RunningTotal), money.Format(stats.TodayTotal), stats.EntryCount)
}

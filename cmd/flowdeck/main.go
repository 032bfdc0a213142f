// Command flowdeck is a terminal board watcher: it logs in, joins one board
// over the relay's push channel and prints the board as other participants
// change it. Useful for demos and for eyeballing relay behavior.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flowdeck/flowdeck/internal/domain"
	"github.com/flowdeck/flowdeck/internal/event"
	"github.com/flowdeck/flowdeck/internal/realtime"
)

var (
	flagServer   string
	flagEmail    string
	flagPassword string
	flagToken    string
	flagBinary   bool
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:   "flowdeck watch <board-id>",
		Short: "Watch a board live from the terminal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "watch" {
				return fmt.Errorf("unknown command %q", args[0])
			}
			boardID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid board id %q: %w", args[1], err)
			}
			return watch(cmd.Context(), boardID)
		},
		SilenceUsage: true,
	}

	root.Flags().StringVar(&flagServer, "server", "http://localhost:8080", "relay base URL")
	root.Flags().StringVar(&flagEmail, "email", "", "account email (alternative to --token)")
	root.Flags().StringVar(&flagPassword, "password", "", "account password")
	root.Flags().StringVar(&flagToken, "token", "", "bearer token (skips login)")
	root.Flags().BoolVar(&flagBinary, "binary", false, "expect the binary event framing")
	root.Flags().BoolVar(&flagVerbose, "verbose", false, "debug logging")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("watch failed")
	}
}

func watch(ctx context.Context, boardID uuid.UUID) error {
	level := zerolog.WarnLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	api := newAPIClient(flagServer)

	token := flagToken
	userID := uuid.Nil
	if token == "" {
		if flagEmail == "" || flagPassword == "" {
			return fmt.Errorf("either --token or --email and --password are required")
		}
		var err error
		token, userID, err = api.Login(ctx, flagEmail, flagPassword)
		if err != nil {
			return err
		}
	}
	api.SetToken(token)
	if userID == uuid.Nil {
		// Token-only invocations still need the local user for self-echo
		// suppression; the relay embeds it in the token.
		var err error
		userID, err = userIDFromToken(token)
		if err != nil {
			return err
		}
	}

	session := realtime.NewSession(realtime.SessionConfig{
		URL:     wsURL(flagServer),
		Token:   token,
		UserID:  userID,
		Codec:   event.ForConfig(flagBinary),
		Fetcher: api,
		OnBoard: renderBoard,
		OnStatus: func(st realtime.Status) {
			if st.Err != nil {
				log.Warn().Err(st.Err).Stringer("state", st.State).Msg("connection")
				return
			}
			log.Info().Stringer("state", st.State).Msg("connection")
		},
	})

	if err := session.Open(ctx); err != nil {
		return err
	}
	defer session.Close()

	if err := session.JoinBoard(ctx, boardID); err != nil {
		return err
	}

	// Periodically show who else is on the board.
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			renderPresence(session.Others())
		}
	}
}

func wsURL(base string) string {
	u := strings.Replace(base, "http://", "ws://", 1)
	u = strings.Replace(u, "https://", "wss://", 1)
	return strings.TrimRight(u, "/") + "/ws/boards"
}

// renderBoard prints a compact column-per-line view of the snapshot.
func renderBoard(b *domain.Board) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n== %s ==\n", b.Title)
	for _, col := range b.SortedColumns() {
		fmt.Fprintf(&sb, "[%s]\n", col.Title)
		for _, card := range b.ColumnCards(col.ID) {
			fmt.Fprintf(&sb, "  - %s\n", card.Title)
		}
	}
	fmt.Print(sb.String())
}

func renderPresence(others []domain.Presence) {
	if len(others) == 0 {
		return
	}
	names := make([]string, 0, len(others))
	for _, p := range others {
		name := p.Nickname
		if p.Dragging != nil {
			name += " (dragging)"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("-- here: %s\n", strings.Join(names, ", "))
}

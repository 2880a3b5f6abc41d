package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/elxora/elxora/internal/chat/service"
	"github.com/elxora/elxora/internal/chat/store"
)

const chatHelp = `Commands:
  /new            start a new chat
  /list           list your chats
  /open <n>       open chat n from the last /list
  /delete <n>     delete chat n from the last /list
  /apikey         set the completion API key (/apikey clear to remove it)
  /logout         log out
  /quit           exit
Anything else is sent to the open chat.`

// chatLoop handles one round of the authenticated state.
func (c *CLI) chatLoop(ctx context.Context) error {
	prompt := "> "
	if c.current == "" {
		prompt = "(no chat) > "
	}

	line, err := c.readLine(prompt)
	if err != nil {
		return err
	}
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, "/") {
		return c.command(ctx, line)
	}
	return c.send(ctx, line)
}

// listing is the chat-number mapping from the most recent /list.
func (c *CLI) command(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/help":
		fmt.Fprintln(c.Out, chatHelp)
		return nil

	case "/new":
		chat, err := c.Chats.Create(ctx, c.session.AccountID)
		if err != nil {
			return err
		}
		c.current = chat.ID
		fmt.Fprintf(c.Out, welcomeGreeting, c.session.Username)
		return nil

	case "/list":
		return c.list(ctx)

	case "/open":
		chat, err := c.chatByNumber(ctx, arg)
		if err != nil {
			return nil
		}
		c.current = chat.ID
		c.replay(chat)
		return nil

	case "/delete":
		chat, err := c.chatByNumber(ctx, arg)
		if err != nil {
			return nil
		}
		if err := c.Chats.Delete(ctx, chat.ID); err != nil {
			c.printErr(err)
			return nil
		}
		c.Send.Forget(chat.ID)
		if c.current == chat.ID {
			c.current = ""
		}
		fmt.Fprintf(c.Out, "Deleted %q.\n", shortTitle(chat.Title))
		return nil

	case "/apikey":
		return c.apikey(ctx, arg)

	case "/logout":
		if err := c.Sessions.Clear(ctx); err != nil {
			return err
		}
		c.session = domain.Session{}
		c.current = ""
		c.listing = nil
		fmt.Fprintln(c.Out, "Logged out.")
		return nil

	case "/quit":
		return errQuit

	default:
		fmt.Fprintf(c.Out, "Unknown command %s. Try /help.\n", cmd)
		return nil
	}
}

func (c *CLI) list(ctx context.Context) error {
	summaries, err := c.Chats.List(ctx, c.session.AccountID)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(c.Out, "No chats yet. /new starts one.")
		c.listing = nil
		return nil
	}

	c.listing = make([]string, len(summaries))
	for i, s := range summaries {
		c.listing[i] = s.ID
		marker := " "
		if s.ID == c.current {
			marker = "*"
		}
		fmt.Fprintf(c.Out, "%s %2d. %s (%d messages, %s)\n",
			marker, i+1, shortTitle(s.Title), s.MessageCount,
			s.UpdatedAt.Local().Format("Jan 2 15:04"))
	}
	return nil
}

// chatByNumber resolves "/open 2" style arguments against the last /list.
// Errors are printed, not returned; the caller just re-prompts.
func (c *CLI) chatByNumber(ctx context.Context, arg string) (domain.Chat, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(c.listing) {
		fmt.Fprintln(c.Out, "Give a chat number from /list.")
		return domain.Chat{}, errBadArgument
	}

	chat, err := c.Chats.Get(ctx, c.listing[n-1])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(c.Out, "That chat is gone. Run /list again.")
			return domain.Chat{}, errBadArgument
		}
		c.printErr(err)
		return domain.Chat{}, err
	}
	return chat, nil
}

var errBadArgument = errors.New("bad argument")

// replay prints an opened chat's transcript, or the greeting if it is empty.
func (c *CLI) replay(chat domain.Chat) {
	fmt.Fprintf(c.Out, "-- %s --\n", shortTitle(chat.Title))
	if len(chat.Messages) == 0 {
		fmt.Fprintf(c.Out, welcomeGreeting, c.session.Username)
		return
	}
	for _, m := range chat.Messages {
		speaker := "you"
		if m.Role == domain.RoleAssistant {
			speaker = "elxora"
		}
		fmt.Fprintf(c.Out, "[%s] %s\n", speaker, m.Content)
	}
}

func (c *CLI) apikey(ctx context.Context, arg string) error {
	if arg == "clear" {
		if err := c.Settings.ClearAPIKey(ctx); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		fmt.Fprintln(c.Out, "API key removed.")
		return nil
	}

	key, err := c.readSecret("API key: ")
	if err != nil {
		return err
	}
	if err := c.Settings.SetAPIKey(ctx, key); err != nil {
		if errors.Is(err, service.ErrInvalidAPIKeyShape) {
			fmt.Fprintln(c.Out, "That does not look like a valid key.")
			return nil
		}
		return err
	}
	fmt.Fprintln(c.Out, "API key saved.")
	return nil
}

func (c *CLI) send(ctx context.Context, text string) error {
	if c.current == "" {
		chat, err := c.Chats.Create(ctx, c.session.AccountID)
		if err != nil {
			return err
		}
		c.current = chat.ID
	}

	reply, err := c.Send.Send(ctx, c.current, text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoCredential):
			fmt.Fprintln(c.Out, "No API key configured. Use /apikey first.")
		case errors.Is(err, service.ErrSendTimeout):
			fmt.Fprintln(c.Out, "The assistant took too long to answer. Try again.")
		case errors.Is(err, service.ErrEmptyMessage):
			// Nothing to do.
		default:
			c.printErr(err)
		}
		return nil
	}

	fmt.Fprintf(c.Out, "[elxora] %s\n", reply)
	return nil
}

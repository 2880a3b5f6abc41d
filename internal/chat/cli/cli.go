// Package cli implements the interactive terminal surface: the auth menu for
// anonymous profiles and the chat composer for authenticated ones. All real
// work happens in the service layer; this package only prompts and prints.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/elxora/elxora/internal/chat/service"
)

// welcomeGreeting opens every empty chat, personalised with the username.
const welcomeGreeting = "Hey %s 👋\nWhat can I help you with today? 🚀\n"

// CLI wires user input to the services. In/Out are injectable so tests can
// script a whole session.
type CLI struct {
	In  io.Reader
	Out io.Writer

	Accounts *service.AccountService
	Signup   *service.SignupService
	Sessions *service.SessionService
	Chats    *service.ChatService
	Send     *service.SendService
	Settings *service.SettingsService

	in *bufio.Reader

	session domain.Session
	current string   // open chat id, "" when none
	listing []string // chat ids as numbered by the last /list
}

// Run drives the whole interactive session until the user quits, the input
// stream ends, or ctx is cancelled.
func (c *CLI) Run(ctx context.Context) error {
	c.in = bufio.NewReader(c.In)

	// Resume a previous session if one survives.
	if session, err := c.Sessions.Active(ctx); err == nil {
		c.session = session
		fmt.Fprintf(c.Out, "Welcome back, %s.\n", session.Username)
	} else if !errors.Is(err, service.ErrNoSession) {
		return err
	}

	if c.session.AccountID == "" {
		if n, err := c.Accounts.Count(ctx); err == nil && n == 0 {
			fmt.Fprintln(c.Out, "No accounts on this profile yet. Sign up to get started.")
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if c.session.AccountID == "" {
			err = c.authMenu(ctx)
		} else {
			err = c.chatLoop(ctx)
		}
		if errors.Is(err, errQuit) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// errQuit unwinds the loops on /quit.
var errQuit = errors.New("quit")

func (c *CLI) printErr(err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		for field, reason := range verr.Fields {
			fmt.Fprintf(c.Out, "  %s: %s\n", field, reason)
		}
		return
	}
	fmt.Fprintf(c.Out, "Error: %s\n", err)
}

// shortTitle pads/truncates titles for the chat list.
func shortTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/elxora/elxora/internal/chat/service"
)

// authMenu handles one round of the anonymous state: login, signup or quit.
func (c *CLI) authMenu(ctx context.Context) error {
	choice, err := c.readLine("\n[l]ogin, [s]ignup or [q]uit? ")
	if err != nil {
		return err
	}

	switch choice {
	case "l", "login":
		return c.login(ctx)
	case "s", "signup":
		return c.signup(ctx)
	case "q", "quit":
		return errQuit
	case "":
		return nil
	default:
		fmt.Fprintf(c.Out, "Unknown choice %q.\n", choice)
		return nil
	}
}

func (c *CLI) login(ctx context.Context) error {
	email, err := c.readLine("Email: ")
	if err != nil {
		return err
	}
	password, err := c.readSecret("Password: ")
	if err != nil {
		return err
	}

	account, err := c.Accounts.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			fmt.Fprintln(c.Out, "Wrong email or password.")
			return nil
		}
		return err
	}

	if err := c.Sessions.SetActive(ctx, account); err != nil {
		return err
	}
	session, err := c.Sessions.Active(ctx)
	if err != nil {
		return err
	}
	c.session = session
	fmt.Fprintf(c.Out, "Logged in as %s.\n", session.Username)
	return nil
}

// signup collects the form, kicks off code delivery and then loops on code
// entry until the code matches, the window runs out, or the user backs out.
func (c *CLI) signup(ctx context.Context) error {
	in := service.SignupInput{}
	var err error
	if in.Email, err = c.readLine("Email: "); err != nil {
		return err
	}
	if in.Username, err = c.readLine("Username: "); err != nil {
		return err
	}
	if in.Password, err = c.readSecret("Password: "); err != nil {
		return err
	}
	if in.Confirm, err = c.readSecret("Confirm password: "); err != nil {
		return err
	}

	if err := c.Signup.Begin(ctx, in); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
			fmt.Fprintf(c.Out, "%s\n", err)
			return nil
		default:
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				c.printErr(err)
				return nil
			}
			fmt.Fprintln(c.Out, "Could not send the verification code. Please try again later.")
			return nil
		}
	}

	fmt.Fprintf(c.Out, "A verification code is on its way to %s.\n", in.Email)

	for {
		code, err := c.readLine("Code (empty to cancel): ")
		if err != nil {
			return err
		}
		if code == "" {
			if err := c.Signup.Cancel(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.Out, "Signup cancelled.")
			return nil
		}

		session, err := c.Signup.Verify(ctx, code)
		if err != nil {
			if errors.Is(err, service.ErrWrongCode) {
				fmt.Fprintln(c.Out, "Wrong code, try again.")
				continue
			}
			if errors.Is(err, service.ErrSignupExpired) {
				fmt.Fprintln(c.Out, "That signup expired. Please start over.")
				return nil
			}
			return err
		}

		c.session = session
		fmt.Fprintf(c.Out, "Welcome, %s! Your account is ready.\n", session.Username)
		return nil
	}
}

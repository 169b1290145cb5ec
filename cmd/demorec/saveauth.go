package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/demo-recorder/browser"
	"github.com/hairizuan-noorazman/demo-recorder/script"
)

const saveAuthTimeout = 10 * time.Minute

func newSaveAuthCmd() *cobra.Command {
	var (
		flagOutput string
		flagWidth  int
		flagHeight int
	)

	cmd := &cobra.Command{
		Use:   "save-auth <url>",
		Short: "Log in interactively and save the auth state for recording",
		Long: `Opens a visible browser at the given URL. Log in, then close the window;
the cookies and localStorage are saved for use in a script's metadata:

  "storage_state": "auth_state.json"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]

			session, err := browser.NewSession(cmd.Context(), browser.SessionOptions{
				Viewport: script.Viewport{Width: flagWidth, Height: flagHeight},
				Headless: false,
			}, log)
			if err != nil {
				return err
			}
			defer session.Close()

			step := &script.Step{ID: "save-auth", Action: script.ActionNavigate, URL: url}
			if err := session.ExecuteStep(session.Context(), step); err != nil {
				return err
			}

			fmt.Printf("Browser open at %s\n", url)
			fmt.Println("Log in, then press Enter here to save the auth state.")
			waitForEnter(saveAuthTimeout)

			// Export while the browser is still alive; closing it first would
			// discard the cookies we came for.
			if err := session.ExportStorageState(flagOutput); err != nil {
				return err
			}

			fmt.Printf("\nAuth state saved: %s\n", flagOutput)
			fmt.Printf("Use in script metadata: %q: %q\n", "storage_state", flagOutput)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "./auth_state.json", "Where to save the auth state")
	cmd.Flags().IntVar(&flagWidth, "width", 1920, "Browser viewport width")
	cmd.Flags().IntVar(&flagHeight, "height", 1080, "Browser viewport height")
	return cmd
}

// waitForEnter blocks until the user presses Enter or the timeout passes.
func waitForEnter(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

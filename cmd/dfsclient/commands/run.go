package commands

import (
	"bufio"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/langos-dfs/langos/pkg/client"
)

// runRun prompts for a username if one wasn't given on the flag line,
// dials the name server, and drives pkg/client.Runner off stdin until the
// user types "exit" or closes the terminal. promptui is used only for this
// one genuinely interactive prompt and the per-word WRITE loop inside
// pkg/client — everything else is a plain line-oriented REPL, the same
// split user_client.c's main() makes between its one getline() username
// prompt and the rest of its command loop.
func runRun(cmd *cobra.Command, args []string) error {
	user := username
	if user == "" {
		prompt := promptui.Prompt{
			Label: "Username",
			Validate: func(input string) error {
				if input == "" {
					return fmt.Errorf("username required")
				}
				return nil
			},
		}
		result, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("username prompt: %w", err)
		}
		user = result
	}

	sess, err := client.Dial(nsAddr, user)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Printf("Connected to %s as %s. Type a command, or \"exit\" to quit.\n", nsAddr, user)

	runner := client.NewRunner(sess, func(line string) { fmt.Println(line) })

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		keepGoing, err := runner.Run(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if !keepGoing {
			break
		}
	}
	return scanner.Err()
}

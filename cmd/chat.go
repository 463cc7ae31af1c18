package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/workshopai/workshop/pkg/history"
	"github.com/workshopai/workshop/pkg/llm"
	"github.com/workshopai/workshop/pkg/prompts"
)

var chatClearHistory bool

var chatCmd = &cobra.Command{
	Use:     "chat [initial message]",
	Aliases: []string{"c"},
	Short:   "Interactive chat grounded in your project's context",
	Long: `Starts an interactive chat session. The project is scanned once and its
context summary is attached to your messages, so the model knows what it is
talking about. History persists in .workshop/chat_history.json between runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newAppEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		client, err := env.newClient()
		if err != nil {
			return err
		}

		session := history.Load(env.root)
		if chatClearHistory {
			if err := session.Clear(); err != nil {
				return err
			}
			fmt.Println("Chat history cleared.")
		}

		fmt.Println("Scanning project...")
		_, det, summary, err := env.projectContext(cmd.Context(), false)
		if err != nil {
			return err
		}
		if det.Label != "none" {
			fmt.Printf("Detected architecture: %s\n", det.Label)
		}

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return chatLoop(cmd.Context(), env.cfg.PromptTemplates, client, session, summary, strings.Join(args, " "), os.Stdin, interactive)
	},
}

func chatLoop(ctx context.Context, templates map[string]string, client llm.Client, session *history.Session, contextSummary, initial string, in io.Reader, interactive bool) error {
	reader := bufio.NewReader(in)
	message := initial

	// Piped input with no argument is one message, answered once.
	if message == "" && !interactive {
		data, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		message = strings.TrimSpace(string(data))
	}

	for {
		if message == "" {
			if !interactive {
				break
			}
			message = readChatInput(reader)
		}
		if message == "exit" || message == "quit" {
			break
		}

		prompt, err := prompts.Render(prompts.TemplateChat, templates, prompts.PromptData{
			Request: message,
			Context: contextSummary,
		})
		if err != nil {
			return err
		}

		session.Append("user", message)
		messages := session.Messages()
		// Context rides on the outgoing message only; history stores the
		// user's words as typed.
		messages[len(messages)-1].Content = prompt

		fmt.Print("\nAssistant: ")
		full, err := client.ChatStream(ctx, llm.Request{
			System:   prompts.SystemMessage,
			Messages: messages,
		}, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			session.Turns = session.Turns[:len(session.Turns)-1]
		} else {
			session.Append("assistant", full)
			if err := session.Save(); err != nil {
				log.Printf("failed to save chat history: %v", err)
			}
		}

		message = ""
		if !interactive {
			break
		}
	}
	if interactive {
		fmt.Println("\nGoodbye!")
	}
	return nil
}

func readChatInput(reader *bufio.Reader) string {
	fmt.Print("\nYou: ")
	input, err := reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return "exit"
		}
		log.Printf("Error reading input: %v", err)
		return "exit"
	}
	return strings.TrimSpace(input)
}

func init() {
	chatCmd.Flags().BoolVar(&chatClearHistory, "clear", false, "clear the stored chat history before starting")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workshopai/workshop/pkg/panel"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser chat panel",
	Long: `Starts a local HTTP server with a chat page that streams model output
over a websocket. The panel shares the project's persisted chat history
with the chat command. Bound to 127.0.0.1 only.`,
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

		fmt.Println("Scanning project...")
		_, _, summary, err := env.projectContext(cmd.Context(), false)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = panel.FindAvailablePort(48600)
		}
		server := panel.NewServer(env.cfg, client, env.logger, env.root, summary, port)

		fmt.Printf("Chat panel at http://127.0.0.1:%d (Ctrl+C to stop)\n", server.Port())
		return server.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default: first free from 48600)")
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the lobby phase and all players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Lobby

			if err := client.Get("/api/v1/lobby", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live lobby snapshots",
		Long: `Connect to the snapshot stream and print every lobby snapshot the
server pushes.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, cmd, count)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many snapshots (0 = forever)")

	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, count int) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, client.StreamURL(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read loop on cancellation
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	for received := 0; count == 0 || received < count; received++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		var snap Lobby
		if err := json.Unmarshal(data, &snap); err != nil {
			return errors.New("stream sent an invalid snapshot")
		}
		out.Print(snap)
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	return nil
}

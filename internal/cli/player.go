package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join",
		Short: "Join the lobby as a new player",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result JoinResult

			if err := client.Post("/api/v1/players", nil, &result); err != nil {
				return err
			}

			// Save player id
			if err := cfg.SavePlayer(result.ID); err != nil {
				return fmt.Errorf("failed to save player id: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newPlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "player [id]",
		Short: "Show a player (defaults to the saved player)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := cfg.PlayerID
			if len(args) == 1 {
				id = args[0]
			}
			if id == "" {
				if _, err := cfg.RequirePlayer(); err != nil {
					return err
				}
			}

			var result Player
			if err := client.Get("/api/v1/players/"+id, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Submit player updates",
	}

	cmd.AddCommand(newUpdateIntentCmd())
	cmd.AddCommand(newUpdateFullCmd())

	return cmd
}

func newUpdateIntentCmd() *cobra.Command {
	var direction, throttle string
	var timestamp float64

	cmd := &cobra.Command{
		Use:   "intent",
		Short: "Submit a thrust direction and throttle",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseVec(direction)
			if err != nil {
				return fmt.Errorf("--direction: %w", err)
			}

			req := map[string]any{
				"timestamp": timestampOrNow(timestamp),
				"mode":      "intent",
				"direction": dir,
				"throttle":  throttle,
			}
			return submitUpdate(cmd, req)
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "0,0,1", "Thrust direction as x,y,z")
	cmd.Flags().StringVar(&throttle, "throttle", "forward", "Throttle: brake, idle, forward")
	cmd.Flags().Float64Var(&timestamp, "timestamp", 0, "Client timestamp (default: now)")

	return cmd
}

func newUpdateFullCmd() *cobra.Command {
	var position, velocity, acceleration, direction string
	var timestamp float64

	cmd := &cobra.Command{
		Use:   "full",
		Short: "Submit a full kinematic state",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"timestamp": timestampOrNow(timestamp),
				"mode":      "full",
			}

			fields := []struct {
				name, value string
				required    bool
			}{
				{"position", position, true},
				{"velocity", velocity, true},
				{"acceleration", acceleration, false},
				{"direction", direction, false},
			}
			for _, f := range fields {
				if f.value == "" {
					if f.required {
						return fmt.Errorf("--%s is required", f.name)
					}
					continue
				}
				v, err := parseVec(f.value)
				if err != nil {
					return fmt.Errorf("--%s: %w", f.name, err)
				}
				req[f.name] = v
			}
			return submitUpdate(cmd, req)
		},
	}

	cmd.Flags().StringVar(&position, "position", "", "Position as x,y,z (required)")
	cmd.Flags().StringVar(&velocity, "velocity", "", "Velocity as x,y,z (required)")
	cmd.Flags().StringVar(&acceleration, "acceleration", "", "Acceleration as x,y,z")
	cmd.Flags().StringVar(&direction, "direction", "", "Facing direction as x,y,z")
	cmd.Flags().Float64Var(&timestamp, "timestamp", 0, "Client timestamp (default: now)")

	return cmd
}

func submitUpdate(cmd *cobra.Command, req map[string]any) error {
	id, err := cfg.RequirePlayer()
	if err != nil {
		return err
	}

	var result UpdateResult
	if err := client.Post("/api/v1/players/"+id+"/updates", req, &result); err != nil {
		return err
	}

	// The server issued a new id for us
	if result.Provisioned {
		if err := cfg.SavePlayer(result.PlayerID); err != nil {
			return fmt.Errorf("failed to save player id: %w", err)
		}
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	out.Print(result)
	return nil
}

func newFinishCmd() *cobra.Command {
	var claims bool

	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Report crossing the finish line",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequirePlayer()
			if err != nil {
				return err
			}

			req := map[string]bool{"claims": claims}
			var result FinishResult

			if err := client.Post("/api/v1/players/"+id+"/finish", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&claims, "claims", true, "Whether the finish is claimed")

	return cmd
}

// parseVec parses "x,y,z"
func parseVec(s string) (Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Vec3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}

	var vals [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Vec3{}, fmt.Errorf("invalid component %q", p)
		}
		vals[i] = f
	}
	return Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func timestampOrNow(ts float64) float64 {
	if ts > 0 {
		return ts
	}
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

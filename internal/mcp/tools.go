package mcp

import (
	"context"
	"fmt"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/peektile/internal/config"
)

func (s *Server) handlePing(_ context.Context, _ *mcpsdk.CallToolRequest, _ PingInput) (*mcpsdk.CallToolResult, PingOutput, error) {
	out := PingOutput{Socket: s.socketPath}
	if err := s.daemon.Ping(); err != nil {
		out.Error = err.Error()
		return nil, out, nil
	}
	out.Running = true
	return nil, out, nil
}

func (s *Server) handlePositions(_ context.Context, _ *mcpsdk.CallToolRequest, args PositionsInput) (*mcpsdk.CallToolResult, PositionsOutput, error) {
	positions, err := s.daemon.Positions()
	if err != nil {
		return nil, PositionsOutput{}, err
	}

	out := PositionsOutput{Characters: characterList(positions)}
	if args.Character == "" {
		return nil, out, nil
	}
	for _, c := range out.Characters {
		if c.Character == args.Character {
			return nil, PositionsOutput{Characters: []CharacterInfo{c}}, nil
		}
	}
	return nil, PositionsOutput{}, fmt.Errorf("character %q has no remembered position", args.Character)
}

func (s *Server) handleListProfiles(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListProfilesInput) (*mcpsdk.CallToolResult, ListProfilesOutput, error) {
	res, err := s.loadConfig(s.configPath)
	if err != nil {
		return nil, ListProfilesOutput{}, err
	}
	selected := res.Config.Profile().Name

	out := ListProfilesOutput{ConfigPath: res.Path}
	for _, p := range res.Config.Profiles {
		out.Profiles = append(out.Profiles, ProfileInfo{
			Name:        p.Name,
			Description: p.Description,
			Selected:    p.Name == selected,
			Characters:  len(p.Characters),
		})
	}
	return nil, out, nil
}

func (s *Server) handleSetProfile(_ context.Context, _ *mcpsdk.CallToolRequest, args SetProfileInput) (*mcpsdk.CallToolResult, SetProfileOutput, error) {
	if args.Profile == "" {
		return nil, SetProfileOutput{}, fmt.Errorf("profile is required")
	}
	res, err := s.loadConfig(s.configPath)
	if err != nil {
		return nil, SetProfileOutput{}, err
	}
	profile, ok := res.Config.FindProfile(args.Profile)
	if !ok {
		return nil, SetProfileOutput{}, fmt.Errorf("unknown profile %q (available: %v)", args.Profile, res.Config.ProfileNames())
	}
	if err := s.daemon.SetProfile(*profile, res.Config.Global); err != nil {
		return nil, SetProfileOutput{}, err
	}
	s.logger.Info().Str("profile", profile.Name).Msg("profile pushed to daemon")
	return nil, SetProfileOutput{Profile: profile.Name, Applied: true}, nil
}

func (s *Server) handleShutdown(_ context.Context, _ *mcpsdk.CallToolRequest, _ ShutdownInput) (*mcpsdk.CallToolResult, ShutdownOutput, error) {
	if err := s.daemon.Shutdown(); err != nil {
		return nil, ShutdownOutput{}, err
	}
	s.logger.Info().Msg("daemon shutdown requested")
	return nil, ShutdownOutput{Stopped: true}, nil
}

// characterList flattens a character table sorted by name.
func characterList(positions map[string]config.CharacterSettings) []CharacterInfo {
	out := make([]CharacterInfo, 0, len(positions))
	for name, p := range positions {
		out = append(out, CharacterInfo{
			Character: name,
			X:         p.X,
			Y:         p.Y,
			Width:     p.Width,
			Height:    p.Height,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Character < out[j].Character
	})
	return out
}

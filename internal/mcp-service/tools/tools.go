package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/radieske/odds-mcp-server/internal/mcp-service/provider"
	"github.com/radieske/odds-mcp-server/internal/mcp-service/report"
	"github.com/radieske/odds-mcp-server/internal/shared/metrics"
)

// OddsAPI é a superfície do provedor consumida pelas ferramentas
type OddsAPI interface {
	FetchOdds(ctx context.Context, sport string, markets []string, regions string) ([]provider.Game, error)
	FetchEvents(ctx context.Context, sport string) ([]provider.Event, error)
	FetchEventOdds(ctx context.Context, sport, eventID string, markets []string, bookmakers string) (*provider.Game, error)
}

// Registry define as duas ferramentas expostas e orquestra provedor + renderer
// por invocação. NewServer entrega uma instância nova de servidor de protocolo
// com o conjunto de operações registrado (uma por sessão)
type Registry struct {
	Provider OddsAPI
	Log      *zap.Logger

	// relógio injetável pra manter o renderer determinístico em teste
	Now func() time.Time
}

func NewRegistry(p OddsAPI, log *zap.Logger) *Registry {
	return &Registry{Provider: p, Log: log, Now: time.Now}
}

// NewServer cria um servidor MCP novo com as duas ferramentas registradas
func (t *Registry) NewServer() *server.MCPServer {
	s := server.NewMCPServer(
		"odds-mcp-server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("fetch_sports_odds",
		mcp.WithDescription("Fetch current betting odds for a sport. Returns a text report with games, bookmakers, markets and decimal prices."),
		mcp.WithString("sport",
			mcp.Required(),
			mcp.Description("Sport key"),
			mcp.Enum(oddsSports...),
		),
		mcp.WithArray("markets",
			mcp.Description("Market keys to fetch (default: h2h)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("regions",
			mcp.Description("Bookmaker regions (default: us)"),
		),
		mcp.WithTitleAnnotation("Fetch Sports Odds"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	), t.handleFetchOdds)

	s.AddTool(mcp.NewTool("fetch_player_props",
		mcp.WithDescription("Fetch player proposition odds for upcoming games of a sport. Optionally filter by team name substring."),
		mcp.WithString("sport",
			mcp.Required(),
			mcp.Description("Sport key (props-capable sports only)"),
			mcp.Enum(propsSports...),
		),
		mcp.WithArray("markets",
			mcp.Description("Prop market keys (default depends on the sport)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("team_filter",
			mcp.Description("Case-insensitive substring matched against home and away team names"),
		),
		mcp.WithTitleAnnotation("Fetch Player Props"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	), t.handleFetchPlayerProps)

	return s
}

func (t *Registry) handleFetchOdds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	sport := cast.ToString(args["sport"])
	if !isOddsSport(sport) {
		metrics.ToolCalls.WithLabelValues("fetch_sports_odds", "error").Inc()
		return mcp.NewToolResultError(fmt.Sprintf("invalid sport %q: must be one of %s", sport, strings.Join(oddsSports, ", "))), nil
	}

	markets := cast.ToStringSlice(args["markets"])
	if len(markets) == 0 {
		markets = defaultOddsMarkets
	}
	regions := cast.ToString(args["regions"])
	if regions == "" {
		regions = defaultRegions
	}

	games, err := t.Provider.FetchOdds(ctx, sport, markets, regions)
	if err != nil {
		t.Log.Warn("fetch_sports_odds failed", zap.String("sport", sport), zap.Error(err))
		metrics.ToolCalls.WithLabelValues("fetch_sports_odds", "error").Inc()
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch odds for %s: %v", sport, err)), nil
	}

	metrics.ToolCalls.WithLabelValues("fetch_sports_odds", "ok").Inc()
	return mcp.NewToolResultText(report.RenderOddsReport(sport, markets, regions, games, t.Now())), nil
}

func (t *Registry) handleFetchPlayerProps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	sport := cast.ToString(args["sport"])
	if !isPropsSport(sport) {
		metrics.ToolCalls.WithLabelValues("fetch_player_props", "error").Inc()
		return mcp.NewToolResultError(fmt.Sprintf("invalid sport %q for player props: must be one of %s", sport, strings.Join(propsSports, ", "))), nil
	}

	markets := cast.ToStringSlice(args["markets"])
	if len(markets) == 0 {
		markets = defaultPropsMarkets[sport]
	}
	teamFilter := cast.ToString(args["team_filter"])

	events, err := t.Provider.FetchEvents(ctx, sport)
	if err != nil {
		t.Log.Warn("fetch_player_props event discovery failed", zap.String("sport", sport), zap.Error(err))
		metrics.ToolCalls.WithLabelValues("fetch_player_props", "error").Inc()
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch events for %s: %v", sport, err)), nil
	}

	if teamFilter != "" {
		events = filterByTeam(events, teamFilter)
	}

	// filtro sem correspondência encerra aqui, sem consultas por evento
	if len(events) == 0 {
		metrics.ToolCalls.WithLabelValues("fetch_player_props", "ok").Inc()
		return mcp.NewToolResultText(report.RenderPropsReport(sport, markets, teamFilter, nil, t.Now())), nil
	}

	if len(events) > MaxEventsPerPropsQuery {
		events = events[:MaxEventsPerPropsQuery]
	}

	// busca sequencial por evento; falha em um evento vira bloco inline e
	// não interrompe os demais
	results := make([]report.PropsResult, 0, len(events))
	for _, ev := range events {
		game, err := t.Provider.FetchEventOdds(ctx, sport, ev.ID, markets, propsBookmaker)
		if err != nil {
			var httpErr *provider.HTTPError
			if errors.As(err, &httpErr) {
				t.Log.Warn("per-event odds fetch failed",
					zap.String("event_id", ev.ID),
					zap.Int("status", httpErr.Status),
				)
			} else {
				t.Log.Warn("per-event odds fetch failed", zap.String("event_id", ev.ID), zap.Error(err))
			}
			results = append(results, report.PropsResult{Event: ev, Err: err})
			continue
		}
		results = append(results, report.PropsResult{Event: ev, Game: game})
	}

	metrics.ToolCalls.WithLabelValues("fetch_player_props", "ok").Inc()
	return mcp.NewToolResultText(report.RenderPropsReport(sport, markets, teamFilter, results, t.Now())), nil
}

// filterByTeam retém eventos cujo nome do mandante ou visitante contenha o
// filtro (case-insensitive)
func filterByTeam(events []provider.Event, filter string) []provider.Event {
	f := strings.ToLower(filter)
	out := make([]provider.Event, 0, len(events))
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.HomeTeam), f) || strings.Contains(strings.ToLower(ev.AwayTeam), f) {
			out = append(out, ev)
		}
	}
	return out
}

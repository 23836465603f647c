package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/radieske/odds-mcp-server/internal/mcp-service/provider"
)

// PropsResult é o resultado por evento do pipeline de props: ou um Game com
// odds, ou o erro da busca daquele evento (degradado pra bloco inline)
type PropsResult struct {
	Event provider.Event
	Game  *provider.Game
	Err   error
}

// RenderOddsReport monta o relatório textual de odds de um esporte.
// Função pura: o timestamp de geração vem injetado pelo chamador
func RenderOddsReport(sport string, markets []string, regions string, games []provider.Game, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s ODDS REPORT\n", strings.ToUpper(sport))
	fmt.Fprintf(&b, "Generated: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Markets: %s\n", strings.Join(markets, ", "))
	fmt.Fprintf(&b, "Regions: %s\n", regions)

	if len(games) == 0 {
		fmt.Fprintf(&b, "\nNo games found for %s.\n", sport)
		return b.String()
	}

	for i, g := range games {
		fmt.Fprintf(&b, "\n%d. %s @ %s\n", i+1, g.AwayTeam, g.HomeTeam)
		fmt.Fprintf(&b, "   Start: %s\n", g.CommenceTime.UTC().Format(time.RFC3339))

		if len(g.Bookmakers) == 0 {
			b.WriteString("   no data available\n")
			continue
		}
		for _, bk := range g.Bookmakers {
			fmt.Fprintf(&b, "   %s:\n", bk.Title)
			if len(bk.Markets) == 0 {
				b.WriteString("     no data available\n")
				continue
			}
			for _, m := range bk.Markets {
				fmt.Fprintf(&b, "     %s: %s\n", m.Key, outcomesLine(m.Outcomes))
			}
		}
	}
	return b.String()
}

// RenderPropsReport monta o relatório de player props a partir dos resultados
// por evento (sucesso ou falha inline), preservando a ordem do provedor
func RenderPropsReport(sport string, markets []string, teamFilter string, results []PropsResult, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s PLAYER PROPS\n", strings.ToUpper(sport))
	fmt.Fprintf(&b, "Generated: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Markets: %s\n", strings.Join(markets, ", "))
	if teamFilter != "" {
		fmt.Fprintf(&b, "Team filter: %s\n", teamFilter)
	}

	if len(results) == 0 {
		if teamFilter != "" {
			fmt.Fprintf(&b, "\nNo games found matching team filter %q.\n", teamFilter)
		} else {
			fmt.Fprintf(&b, "\nNo games found for %s.\n", sport)
		}
		return b.String()
	}

	for i, res := range results {
		fmt.Fprintf(&b, "\n%d. %s @ %s\n", i+1, res.Event.AwayTeam, res.Event.HomeTeam)
		fmt.Fprintf(&b, "   Start: %s\n", res.Event.CommenceTime.UTC().Format(time.RFC3339))

		if res.Err != nil {
			fmt.Fprintf(&b, "   error fetching odds for this game: %v\n", res.Err)
			continue
		}

		for _, mk := range markets {
			fmt.Fprintf(&b, "   %s\n", marketTitle(mk))
			outcomes := findOutcomes(res.Game, mk)
			if len(outcomes) == 0 {
				b.WriteString("     no data available\n")
				continue
			}
			for _, o := range outcomes {
				fmt.Fprintf(&b, "     %s\n", propLine(o))
			}
		}
	}
	return b.String()
}

// marketTitle converte a chave do mercado no título da seção
// (underscores viram espaços, tudo maiúsculo)
func marketTitle(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "_", " "))
}

// outcomesLine junta os outcomes de um mercado numa única linha
func outcomesLine(outcomes []provider.Outcome) string {
	if len(outcomes) == 0 {
		return "no data available"
	}
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		s := fmt.Sprintf("%s (%s)", o.Name, formatPrice(o.Price))
		if o.Point != nil {
			s += " " + formatPoint(*o.Point)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// propLine formata um outcome de prop: "jogador: tipo linha (preço)"
func propLine(o provider.Outcome) string {
	label := o.Description
	if label == "" {
		label = o.Name
	}
	bet := o.Name
	if o.Point != nil {
		bet += " " + formatPoint(*o.Point)
	}
	return fmt.Sprintf("%s: %s (%s)", label, bet, formatPrice(o.Price))
}

func findOutcomes(g *provider.Game, marketKey string) []provider.Outcome {
	if g == nil {
		return nil
	}
	for _, bk := range g.Bookmakers {
		for _, m := range bk.Markets {
			if m.Key == marketKey {
				return m.Outcomes
			}
		}
	}
	return nil
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func formatPoint(p float64) string {
	return strconv.FormatFloat(p, 'g', -1, 64)
}

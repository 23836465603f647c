package tools

// Esportes aceitos pela ferramenta de odds
var oddsSports = []string{
	"baseball_mlb",
	"basketball_nba",
	"basketball_wnba",
	"americanfootball_nfl",
	"icehockey_nhl",
	"soccer_epl",
}

// Subconjunto com suporte a player props (soccer_epl fica de fora)
var propsSports = []string{
	"baseball_mlb",
	"basketball_nba",
	"basketball_wnba",
	"americanfootball_nfl",
	"icehockey_nhl",
}

// Mercados default de props por esporte, nas chaves da The Odds API
var defaultPropsMarkets = map[string][]string{
	"baseball_mlb":         {"batter_home_runs", "batter_hits", "pitcher_strikeouts"},
	"basketball_nba":       {"player_points", "player_rebounds", "player_assists"},
	"basketball_wnba":      {"player_points", "player_rebounds", "player_assists"},
	"americanfootball_nfl": {"player_pass_tds", "player_pass_yds", "player_rush_yds"},
	"icehockey_nhl":        {"player_points", "player_goals", "player_shots_on_goal"},
}

var defaultOddsMarkets = []string{"h2h"}

const defaultRegions = "us"

// MaxEventsPerPropsQuery limita quantos eventos o pipeline de props consulta
// por chamada. Truncamento deliberado: segura latência e consumo de cota
// do provedor; a ordem dos eventos é a retornada pelo provedor
const MaxEventsPerPropsQuery = 3

// propsBookmaker restringe a consulta por evento a uma única casa
const propsBookmaker = "draftkings"

func isOddsSport(sport string) bool {
	for _, s := range oddsSports {
		if s == sport {
			return true
		}
	}
	return false
}

func isPropsSport(sport string) bool {
	for _, s := range propsSports {
		if s == sport {
			return true
		}
	}
	return false
}

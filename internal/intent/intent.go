// Package intent maps normalized query text to one of a fixed set of
// intents using ordered deterministic patterns with a probabilistic fallback
// for unmatched text.
package intent

// Intent is the enumerated category a query is classified into.
type Intent string

const (
	IntentPlayerStats      Intent = "PLAYER_STATS"
	IntentTeamStats        Intent = "TEAM_STATS"
	IntentPlayerComparison Intent = "PLAYER_COMPARISON"
	IntentGameSchedule     Intent = "GAME_SCHEDULE"
	IntentMatchResult      Intent = "MATCH_RESULT"
	IntentStandings        Intent = "STANDINGS"
	IntentPrediction       Intent = "PREDICTION"
	IntentInjuryStatus     Intent = "INJURY_STATUS"
	IntentRulesExplainer   Intent = "RULES_EXPLAINER"
	IntentUnknown          Intent = "UNKNOWN"
)

// Known reports whether s names a defined intent other than UNKNOWN.
func Known(s string) bool {
	switch Intent(s) {
	case IntentPlayerStats, IntentTeamStats, IntentPlayerComparison,
		IntentGameSchedule, IntentMatchResult, IntentStandings,
		IntentPrediction, IntentInjuryStatus, IntentRulesExplainer:
		return true
	}
	return false
}

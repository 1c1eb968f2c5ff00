package intent

import "regexp"

// Pattern is one deterministic matching rule. Patterns are evaluated in
// slice order; the first match wins.
type Pattern struct {
	ID     string
	Regexp *regexp.Regexp
	Intent Intent
}

// DefaultPatterns is the shipped rule set for sports queries. Order matters:
// more specific shapes (comparisons, predictions) sit above the generic
// stat-lookup rules they would otherwise shadow.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			ID:     "player-comparison",
			Regexp: regexp.MustCompile(`\b(compare|versus|vs\.?|better than|who is better)\b`),
			Intent: IntentPlayerComparison,
		},
		{
			ID:     "prediction",
			Regexp: regexp.MustCompile(`\b(predict|prediction|who will win|odds|chances of winning)\b`),
			Intent: IntentPrediction,
		},
		{
			ID:     "injury-status",
			Regexp: regexp.MustCompile(`\b(injur(y|ed|ies)|out for|sidelined|return from|fit to play)\b`),
			Intent: IntentInjuryStatus,
		},
		{
			ID:     "schedule",
			Regexp: regexp.MustCompile(`\b(when (do|does|is)|schedule|fixture|next (game|match)|kick ?off|tip ?off)\b`),
			Intent: IntentGameSchedule,
		},
		{
			ID:     "match-result",
			Regexp: regexp.MustCompile(`\b((final )?score|result|who won|did .* win|full ?time)\b`),
			Intent: IntentMatchResult,
		},
		{
			ID:     "standings",
			Regexp: regexp.MustCompile(`\b(standings|table|rankings?|playoff (race|picture)|top of the league)\b`),
			Intent: IntentStandings,
		},
		{
			ID:     "rules",
			Regexp: regexp.MustCompile(`\b(what is|what does|explain|how does) .*(rule|offside|foul|penalty|violation|overtime)\b`),
			Intent: IntentRulesExplainer,
		},
		{
			ID:     "player-stats",
			Regexp: regexp.MustCompile(`\b(how many (goals|points|assists|rebounds|touchdowns|home runs)|stats? (for|of|on)|scored this season|averag(e|ing))\b`),
			Intent: IntentPlayerStats,
		},
		{
			ID:     "team-stats",
			Regexp: regexp.MustCompile(`\b((team|defense|offense|defence|offence).*(this season|record|rating)|win(ning)? (streak|record)|record this season)\b`),
			Intent: IntentTeamStats,
		},
	}
}

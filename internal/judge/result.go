package judge

// Result is the accepted evaluation from a single judge. It is created by the
// orchestrator once a payload passes structural validation and is read-only
// afterwards.
type Result struct {
	JudgeID             string   `json:"judge_id"`
	Score               int      `json:"score"`
	MatchedRequirements []string `json:"matching_skills"`
	Gaps                []string `json:"missing_requirements"`
	RedFlags            []string `json:"red_flags"`
	Strengths           []string `json:"strengths"`
	Rationale           string   `json:"rationale"`
	// Attempts counts the provider calls actually used, repair calls included.
	Attempts int `json:"attempts"`
}

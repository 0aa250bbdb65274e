package dto

// OptimizeRequest is the body sent to the optimizer's /optimize endpoint.
type OptimizeRequest struct {
	Students         []OptimizerStudent    `json:"students"`
	Internships      []OptimizerInternship `json:"internships"`
	MinCategoryQuota float64               `json:"min_category_quota"`
}

type OptimizerStudent struct {
	ID          int64    `json:"id"`
	Skills      []string `json:"skills"`
	Category    string   `json:"category"`
	District    string   `json:"district"`
	PreferLocal bool     `json:"prefer_local"`
}

type OptimizerInternship struct {
	ID             int64    `json:"id"`
	RequiredSkills []string `json:"required_skills"`
	Capacity       int      `json:"capacity"`
}

// ProposedPair is one assignment returned by the optimizer.
type ProposedPair struct {
	StudentID    int64    `json:"student_id"`
	InternshipID int64    `json:"internship_id"`
	Score        float64  `json:"score"`
	Reasons      []string `json:"reasons"`
}

type GapRequest struct {
	StudentSkills []string        `json:"student_skills"`
	Internships   []GapInternship `json:"internships"`
}

type GapInternship struct {
	ID             int64    `json:"id"`
	RequiredSkills []string `json:"required_skills"`
	Capacity       int      `json:"capacity"`
	Location       string   `json:"location"`
}

type SkillGap struct {
	Skill               string `json:"skill"`
	MissedOpportunities int    `json:"missed_opportunities"`
}

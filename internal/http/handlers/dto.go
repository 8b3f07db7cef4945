package handlers

type RunResponse struct {
	Id           int     `json:"id"`
	Status       string  `json:"status"`
	RecordCount  int     `json:"record_count"`
	ReorderCount int     `json:"reorder_count"`
	AccuracyPct  float64 `json:"accuracy_pct"`
	Error        string  `json:"error,omitempty"`
	StartedAt    string  `json:"started_at,omitempty"`
	FinishedAt   string  `json:"finished_at,omitempty"`
}

// ProductDecisionResponse is one row of the joined table view: the product
// record plus the classifier's decision for it.
type ProductDecisionResponse struct {
	Id                 int     `json:"id"`
	Name               string  `json:"name"`
	Inventory          int     `json:"inventory"`
	AvgSales           float64 `json:"avg_sales"`
	LeadTime           int     `json:"lead_time"`
	Decision           string  `json:"decision"`
	GroundTruthReorder bool    `json:"ground_truth_reorder"`
	Correct            bool    `json:"correct"`
}

type Meta struct {
	TotalCount int `json:"total_count"`
}

type RunProductsResult struct {
	RunId int                       `json:"run_id"`
	Data  []ProductDecisionResponse `json:"data"`
	Meta  Meta                      `json:"meta,omitempty"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
}

type RegisterResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

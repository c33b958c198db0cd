package api

type ResponsesRequest struct {
	Input     string `json:"input"`
	BeamWidth *int   `json:"beam_width,omitempty"`
	MaxSteps  *int   `json:"max_steps,omitempty"`
	Store     *bool  `json:"store,omitempty"`
}

type ResponsesResponse struct {
	ID          string          `json:"id"`
	Object      string          `json:"object"`
	CreatedAt   int64           `json:"created_at,omitempty"`
	Status      string          `json:"status,omitempty"`
	Input       string          `json:"input"`
	OutputText  string          `json:"output_text"`
	Tokens      []ResponseToken `json:"tokens"`
	Probability float64         `json:"probability"`
	LogProb     float64         `json:"log_prob"`
	Rounds      int             `json:"rounds"`
	BeamWidth   int             `json:"beam_width"`
	Usage       *ResponseUsage  `json:"usage,omitempty"`
}

type ResponseToken struct {
	ID          int     `json:"id"`
	Word        string  `json:"word"`
	Probability float64 `json:"probability"`
}

type ResponseUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

type DeleteResponseResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

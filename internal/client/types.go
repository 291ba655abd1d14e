// ABOUTME: Request and response types of the Korrekturleser REST API
// ABOUTME: JSON field names follow the backend's snake_case schema

package client

import "encoding/json"

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Secret string `json:"secret"`
}

// TokenResponse is returned by a successful login. Newer backends also
// include the user's name and usage counters.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Username     string `json:"username,omitempty"`
	RequestCount *int   `json:"request_count,omitempty"`
	TokenCount   *int   `json:"token_count,omitempty"`
}

// UserInfo represents the /api/auth/me endpoint response
type UserInfo struct {
	Username     string `json:"username"`
	RequestCount int    `json:"request_count"`
	TokenCount   int    `json:"token_count"`
}

// ConfigResponse lists the models of one provider and all providers
type ConfigResponse struct {
	LLMProvider string   `json:"llm_provider,omitempty"`
	Models      []string `json:"models"`
	Providers   []string `json:"providers"`
}

// ModesResponse lists the modes the backend accepts
type ModesResponse struct {
	Modes        []string          `json:"modes"`
	Descriptions map[string]string `json:"descriptions"`
}

// TextRequest is the body of the text improvement call. Empty model and
// provider mean "server default" and are left out of the JSON.
type TextRequest struct {
	Text              string `json:"text"`
	Mode              string `json:"mode"`
	Model             string `json:"model,omitempty"`
	Provider          string `json:"provider,omitempty"`
	CustomInstruction string `json:"custom_instruction,omitempty"`
}

// TextResponse is the result of a text improvement call
type TextResponse struct {
	TextOriginal string `json:"text_original"`
	TextAI       string `json:"text_ai"`
	Mode         string `json:"mode"`
	TokensUsed   int    `json:"tokens_used"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
}

// DailyUsage is one row of per-day usage
type DailyUsage struct {
	Date     string `json:"date"`
	UserName string `json:"user_name"`
	Requests int    `json:"cnt_requests"`
	Tokens   int    `json:"cnt_tokens"`
}

// TotalUsage is one row of all-time usage
type TotalUsage struct {
	UserName string `json:"user_name"`
	Requests int    `json:"cnt_requests"`
	Tokens   int    `json:"cnt_tokens"`
}

// UsageStatsResponse represents the /api/stats/ endpoint response
type UsageStatsResponse struct {
	Daily []DailyUsage `json:"daily"`
	Total []TotalUsage `json:"total"`
}

// ErrorResponse is the backend's error body. Detail is either a string or
// a list of validation issues.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ValidationIssue is one entry of a 422 detail list
type ValidationIssue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

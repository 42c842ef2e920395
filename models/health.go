package models

// HealthCheckResponse is the body of the /health endpoint
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Uptime    float64   `json:"uptime"`
	Timestamp int64     `json:"timestamp"`
	Env       HealthEnv `json:"env"`
}

// HealthEnv reports which integrations are configured
type HealthEnv struct {
	HasDatabase bool   `json:"hasDatabase"`
	GoVersion   string `json:"goVersion"`
}

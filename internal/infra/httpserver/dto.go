package httpserver

import (
	domain "github.com/bryanwahyu/aegis-api/internal/domain/events"
)

// ScanEventCreate is the POST /api/v1/events body after schema validation
// and numeric coercion.
type ScanEventCreate struct {
	Timestamp   string  `json:"timestamp"`
	ProjectName string  `json:"project_name"`
	FilePath    string  `json:"file_path"`
	SecretType  string  `json:"secret_type"`
	Confidence  float64 `json:"confidence"`
	LineNumber  int     `json:"line_number"`
	Preview     *string `json:"preview"`
}

type ScanEventResponse struct {
	ID          int64   `json:"id"`
	Timestamp   string  `json:"timestamp"`
	ProjectName string  `json:"project_name"`
	FilePath    string  `json:"file_path"`
	SecretType  string  `json:"secret_type"`
	Confidence  float64 `json:"confidence"`
	LineNumber  int     `json:"line_number"`
	Preview     *string `json:"preview"`
	CreatedAt   string  `json:"created_at"`
}

type ProjectCountResponse struct {
	ProjectName string `json:"project_name"`
	Count       int64  `json:"count"`
}

type SecretTypeCountResponse struct {
	SecretType string `json:"secret_type"`
	Count      int64  `json:"count"`
}

type StatsResponse struct {
	TotalEvents  int64                     `json:"total_events"`
	ByProject    []ProjectCountResponse    `json:"by_project"`
	BySecretType []SecretTypeCountResponse `json:"by_secret_type"`
}

// toEventResponse maps a stored row to its wire form.
func toEventResponse(e *domain.ScanEvent) ScanEventResponse {
	return ScanEventResponse{
		ID:          e.ID,
		Timestamp:   domain.FormatTimestamp(e.Timestamp),
		ProjectName: e.ProjectName,
		FilePath:    e.FilePath,
		SecretType:  e.SecretType,
		Confidence:  e.Confidence,
		LineNumber:  e.LineNumber,
		Preview:     e.Preview,
		CreatedAt:   domain.FormatTimestamp(e.CreatedAt),
	}
}

func toEventResponses(list []*domain.ScanEvent) []ScanEventResponse {
	out := make([]ScanEventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toEventResponse(e))
	}
	return out
}

func toStatsResponse(st domain.Stats) StatsResponse {
	resp := StatsResponse{
		TotalEvents:  st.TotalEvents,
		ByProject:    make([]ProjectCountResponse, 0, len(st.ByProject)),
		BySecretType: make([]SecretTypeCountResponse, 0, len(st.BySecretType)),
	}
	for _, p := range st.ByProject {
		resp.ByProject = append(resp.ByProject, ProjectCountResponse{ProjectName: p.ProjectName, Count: p.Count})
	}
	for _, s := range st.BySecretType {
		resp.BySecretType = append(resp.BySecretType, SecretTypeCountResponse{SecretType: s.SecretType, Count: s.Count})
	}
	return resp
}

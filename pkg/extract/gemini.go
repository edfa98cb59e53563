package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/oncoweave/pipeline/pkg/common/config"
	"github.com/oncoweave/pipeline/pkg/common/models"
)

// GeminiClient extracts structured pathology fields from report text through
// the Gemini generateContent endpoint.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	modelName  string
	httpClient *http.Client
}

func NewGeminiClient(cfg *config.Config) *GeminiClient {
	return &GeminiClient{
		apiKey:    cfg.LLMAPIKey,
		baseURL:   strings.TrimRight(cfg.LLMBaseURL, "/"),
		modelName: cfg.LLMModelName,
		httpClient: &http.Client{
			Timeout: cfg.LLMRequestTimeout,
		},
	}
}

const extractionPromptTemplate = `You are an expert at extracting oncology data.
Analyze this pathology report and extract the data as flat JSON.
Use null for any field the report does not state.

Rules:
1. "tumor_grade": integer (e.g. "Grade III" -> 3), or null.
2. "tumor_size_cm": numeric, or null.
3. "er_status", "pr_status", "her2_status": "Positive", "Negative" or null.

Expected JSON:
{
    "source_file": "%s",
    "patient_id": "...",
    "diagnosis": "...",
    "tumor_grade": 0,
    "tumor_size_cm": 0.0,
    "er_status": "...",
    "pr_status": "...",
    "her2_status": "..."
}

JSON only.
--- REPORT ---
%s`

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract asks the model for the flat pathology JSON and decodes it.
func (c *GeminiClient) Extract(ctx context.Context, reportText, fileName string) (models.PathologyExtraction, error) {
	prompt := fmt.Sprintf(extractionPromptTemplate, fileName, reportText)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return models.PathologyExtraction{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.modelName, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return models.PathologyExtraction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.PathologyExtraction{}, fmt.Errorf("call extraction model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PathologyExtraction{}, fmt.Errorf("extraction model returned %s", resp.Status)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.PathologyExtraction{}, fmt.Errorf("decode model response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return models.PathologyExtraction{}, fmt.Errorf("extraction model returned no candidates")
	}

	return ParseExtraction(decoded.Candidates[0].Content.Parts[0].Text, fileName)
}

var jsonFence = regexp.MustCompile("```(?:json)?")

// CleanJSONFences strips the markdown code fences the model sometimes wraps
// around its JSON.
func CleanJSONFences(text string) string {
	return strings.TrimSpace(jsonFence.ReplaceAllString(text, ""))
}

// ParseExtraction decodes the model's JSON into a ledger row. Numeric fields
// may arrive as numbers or strings; nulls become empty cells.
func ParseExtraction(raw, fileName string) (models.PathologyExtraction, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(CleanJSONFences(raw)), &fields); err != nil {
		return models.PathologyExtraction{}, fmt.Errorf("parse extraction JSON: %w", err)
	}

	extraction := models.PathologyExtraction{
		SourceFile:  fileName,
		PatientID:   asCell(fields["patient_id"]),
		Diagnosis:   asCell(fields["diagnosis"]),
		TumorGrade:  asCell(fields["tumor_grade"]),
		TumorSizeCm: asCell(fields["tumor_size_cm"]),
		ERStatus:    asCell(fields["er_status"]),
		PRStatus:    asCell(fields["pr_status"]),
		HER2Status:  asCell(fields["her2_status"]),
	}
	return extraction, nil
}

func asCell(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	case bool:
		return fmt.Sprintf("%t", value)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", value))
	}
}

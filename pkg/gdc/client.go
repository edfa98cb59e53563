package gdc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oncoweave/pipeline/pkg/common/config"
	"github.com/oncoweave/pipeline/pkg/common/logger"
)

// Client talks to the NCI Genomic Data Commons REST API. Only the read
// endpoints the pipeline needs are wrapped: case metadata and raw file
// download.
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.GDCBaseURL, "/"),
		pageSize: cfg.GDCPageSize,
		httpClient: &http.Client{
			Timeout: cfg.GDCTimeout,
		},
	}
}

// CaseFields is the default field set requested for TCGA-BRCA cases. The API
// returns nested objects; Flatten turns them into dotted columns.
var CaseFields = []string{
	"submitter_id",
	"case_id",
	"demographic.gender",
	"demographic.race",
	"demographic.ethnicity",
	"demographic.days_to_birth",
	"demographic.vital_status",
	"demographic.days_to_death",
	"diagnoses.age_at_diagnosis",
	"diagnoses.primary_diagnosis",
	"diagnoses.tumor_grade",
	"diagnoses.ajcc_pathologic_stage",
	"diagnoses.days_to_last_follow_up",
}

type apiEnvelope struct {
	Data struct {
		Hits       []map[string]interface{} `json:"hits"`
		Pagination struct {
			Count int `json:"count"`
			Total int `json:"total"`
			Page  int `json:"page"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	} `json:"data"`
	Warnings map[string]interface{} `json:"warnings"`
}

// projectFilter is the GDC filter expression selecting every case of one
// project.
func projectFilter(projectID string) (string, error) {
	filter := map[string]interface{}{
		"op": "in",
		"content": map[string]interface{}{
			"field": "cases.project.project_id",
			"value": []string{projectID},
		},
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Cases pages through /cases for one project and returns every hit. The API
// caps a single page, so large projects take several requests.
func (c *Client) Cases(ctx context.Context, projectID string, fields []string) ([]map[string]interface{}, error) {
	filters, err := projectFilter(projectID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		fields = CaseFields
	}

	var hits []map[string]interface{}
	from := 0
	for {
		params := url.Values{}
		params.Set("filters", filters)
		params.Set("fields", strings.Join(fields, ","))
		params.Set("format", "JSON")
		params.Set("size", strconv.Itoa(c.pageSize))
		params.Set("from", strconv.Itoa(from))

		envelope, err := c.getPage(ctx, "/cases", params)
		if err != nil {
			return nil, err
		}
		hits = append(hits, envelope.Data.Hits...)

		logger.Log.WithFields(map[string]interface{}{
			"project": projectID,
			"fetched": len(hits),
			"total":   envelope.Data.Pagination.Total,
		}).Info("Fetched case page")

		if len(envelope.Data.Hits) == 0 || len(hits) >= envelope.Data.Pagination.Total {
			return hits, nil
		}
		from += len(envelope.Data.Hits)
	}
}

func (c *Client) getPage(ctx context.Context, endpoint string, params url.Values) (*apiEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call GDC %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GDC %s returned %s", endpoint, resp.Status)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode GDC response: %w", err)
	}
	return &envelope, nil
}

// FileMeta identifies one downloadable file in the GDC object store.
type FileMeta struct {
	ID   string
	Name string
	Size int64
}

// Files lists open-access files of a project matching the given data type,
// capped at maxFiles.
func (c *Client) Files(ctx context.Context, projectID, dataType string, maxFiles int) ([]FileMeta, error) {
	filter := map[string]interface{}{
		"op": "and",
		"content": []map[string]interface{}{
			{
				"op": "in",
				"content": map[string]interface{}{
					"field": "cases.project.project_id",
					"value": []string{projectID},
				},
			},
			{
				"op": "in",
				"content": map[string]interface{}{
					"field": "files.data_type",
					"value": []string{dataType},
				},
			},
			{
				"op": "in",
				"content": map[string]interface{}{
					"field": "files.access",
					"value": []string{"open"},
				},
			},
		},
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("filters", string(raw))
	params.Set("fields", "file_id,file_name,file_size")
	params.Set("format", "JSON")
	params.Set("size", strconv.Itoa(maxFiles))

	envelope, err := c.getPage(ctx, "/files", params)
	if err != nil {
		return nil, err
	}

	files := make([]FileMeta, 0, len(envelope.Data.Hits))
	for _, hit := range envelope.Data.Hits {
		meta := FileMeta{
			ID:   asString(hit["file_id"]),
			Name: asString(hit["file_name"]),
		}
		if size, ok := hit["file_size"].(float64); ok {
			meta.Size = int64(size)
		}
		if meta.ID != "" {
			files = append(files, meta)
		}
	}
	return files, nil
}

// Download streams one file from /data/{id} into destDir, named after the
// file's own name when the metadata has one.
func (c *Client) Download(ctx context.Context, file FileMeta, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/"+file.ID, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", file.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s returned %s", file.ID, resp.Status)
	}

	name := file.Name
	if name == "" {
		name = file.ID
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, name)

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	return dest, nil
}

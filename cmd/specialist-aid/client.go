package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/salulink/specialist-aid/internal/models"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// apiError extracts the {"error": ...} message from a failed response, falling back to the raw body.
func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func getJSON(rawURL string, out interface{}) error {
	resp, err := httpClient.Get(rawURL)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func postJSON(rawURL string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := httpClient.Post(rawURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func analyzeViaHTTP(serverURL string, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := postJSON(serverURL+"/api/v1/analyze", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func conditionsViaHTTP(serverURL string) ([]models.ChronicCondition, error) {
	var conditions []models.ChronicCondition
	if err := getJSON(serverURL+"/api/v1/conditions", &conditions); err != nil {
		return nil, err
	}
	return conditions, nil
}

func searchConditionsViaHTTP(serverURL, query string, limit int, fuzzy bool) (*models.ConditionSearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if fuzzy {
		q.Set("fuzzy", "true")
	}
	var resp models.ConditionSearchResponse
	if err := getJSON(serverURL+"/api/v1/conditions/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func basketsViaHTTP(serverURL, code string) (*models.ConditionWithBaskets, error) {
	var baskets models.ConditionWithBaskets
	if err := getJSON(serverURL+"/api/v1/treatment-baskets/"+url.PathEscape(code), &baskets); err != nil {
		return nil, err
	}
	return &baskets, nil
}

func statusViaHTTP(serverURL string) (*models.StatusResponse, error) {
	var st models.StatusResponse
	if err := getJSON(serverURL+"/api/v1/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

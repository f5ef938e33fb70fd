package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/bizlens/internal/insight"
	"github.com/theirongolddev/bizlens/internal/pipeline"
)

func newTestService(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()
	gen := insight.New(insight.Config{}, insight.DefaultOptions())
	s := New(Config{PreviewRows: 3}, &pipeline.Asker{Gen: gen}, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func dailyCSV(days int) string {
	var b strings.Builder
	b.WriteString("Date,Revenue,Region\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range days {
		fmt.Fprintf(&b, "%s,%d,north\n", start.AddDate(0, 0, i).Format("2006-01-02"), 100+i*10)
	}
	return b.String()
}

func upload(t *testing.T, srv *httptest.Server, filename, data string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(data))
	_ = mw.Close()

	resp, err := http.Post(srv.URL+"/v1/tables", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /v1/tables: %v", err)
	}
	return resp
}

func uploadOK(t *testing.T, srv *httptest.Server, data string) TableInfo {
	t.Helper()
	resp := upload(t, srv, "sales.csv", data)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var info TableInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	return info
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	_, srv := newTestService(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	got := decode[map[string]any](t, resp)
	if got["status"] != "ok" {
		t.Errorf("status = %v, want ok", got["status"])
	}
}

func TestUpload_DescribesTable(t *testing.T) {
	_, srv := newTestService(t)
	info := uploadOK(t, srv, dailyCSV(10))

	if info.ID == "" {
		t.Error("expected a table id")
	}
	if info.Rows != 10 {
		t.Errorf("Rows = %d, want 10", info.Rows)
	}
	if len(info.Columns) != 3 || info.Columns[0].Name != "date" || info.Columns[1].Kind != "numeric" {
		t.Errorf("Columns = %+v", info.Columns)
	}
	if len(info.Preview) != 3 {
		t.Errorf("Preview rows = %d, want 3", len(info.Preview))
	}
	if info.Forecast != "revenue" {
		t.Errorf("Forecast column = %q, want revenue", info.Forecast)
	}
}

func TestUpload_RawBody(t *testing.T) {
	_, srv := newTestService(t)
	resp, err := http.Post(srv.URL+"/v1/tables?name=raw.csv", "text/csv", strings.NewReader(dailyCSV(3)))
	if err != nil {
		t.Fatal(err)
	}
	info := decode[TableInfo](t, resp)
	if resp.StatusCode != http.StatusCreated || info.Name != "raw.csv" {
		t.Errorf("status = %d name = %q", resp.StatusCode, info.Name)
	}
}

func TestUpload_MalformedIsBadRequest(t *testing.T) {
	_, srv := newTestService(t)
	resp := upload(t, srv, "bad.csv", "")
	got := decode[map[string]string](t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(got["error"], "error loading") {
		t.Errorf("error = %q", got["error"])
	}
}

func TestUpload_TooLarge(t *testing.T) {
	gen := insight.New(insight.Config{}, insight.DefaultOptions())
	s := New(Config{MaxUploadBytes: 64}, &pipeline.Asker{Gen: gen}, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/tables", "text/csv", strings.NewReader(dailyCSV(50)))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge && resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 413 or 400", resp.StatusCode)
	}
}

func TestListGetDelete(t *testing.T) {
	_, srv := newTestService(t)
	info := uploadOK(t, srv, dailyCSV(5))

	resp, _ := http.Get(srv.URL + "/v1/tables")
	list := decode[map[string][]TableInfo](t, resp)
	if len(list["tables"]) != 1 {
		t.Fatalf("tables = %d, want 1", len(list["tables"]))
	}

	resp, _ = http.Get(srv.URL + "/v1/tables/" + info.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/tables/"+info.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", resp.StatusCode)
	}

	resp, _ = http.Get(srv.URL + "/v1/tables/" + info.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", resp.StatusCode)
	}
}

func TestKPIs(t *testing.T) {
	_, srv := newTestService(t)
	info := uploadOK(t, srv, "revenue\n100\n200\n300\n")

	resp, _ := http.Get(srv.URL + "/v1/tables/" + info.ID + "/kpis")
	got := decode[map[string][]struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}](t, resp)
	kpis := got["kpis"]
	if len(kpis) == 0 || kpis[0].Name != "total_revenue" || kpis[0].Value != float64(600) {
		t.Errorf("kpis = %+v", kpis)
	}
}

func TestCharts(t *testing.T) {
	_, srv := newTestService(t)
	info := uploadOK(t, srv, dailyCSV(4))

	resp, _ := http.Get(srv.URL + "/v1/tables/" + info.ID + "/charts")
	got := decode[map[string][]ChartInfo](t, resp)
	charts := got["charts"]
	if len(charts) == 0 || charts[0].Title != "revenue Over Time" {
		t.Fatalf("charts = %+v", charts)
	}
	if len(charts[0].Points) != 4 {
		t.Errorf("points = %d, want 4", len(charts[0].Points))
	}
}

func TestForecast(t *testing.T) {
	_, srv := newTestService(t)
	info := uploadOK(t, srv, dailyCSV(40))

	resp, err := http.Post(srv.URL+"/v1/tables/"+info.ID+"/forecast", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	got := decode[ForecastResponse](t, resp)
	if !got.OK || got.Result == nil {
		t.Fatalf("forecast = %+v", got)
	}
	if got.Result.Column != "revenue" || got.Result.Point <= 0 {
		t.Errorf("result column = %q point = %v", got.Result.Column, got.Result.Point)
	}
}

func TestForecast_NoDateColumnIsNotAnHTTPError(t *testing.T) {
	_, srv := newTestService(t)
	info := uploadOK(t, srv, "revenue\n1\n2\n3\n")

	resp, err := http.Post(srv.URL+"/v1/tables/"+info.ID+"/forecast", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	got := decode[ForecastResponse](t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got.OK || got.Message != "no 'date' column found for forecasting" {
		t.Errorf("forecast = %+v", got)
	}
}

func TestInsights_MissingKeyReportsText(t *testing.T) {
	_, srv := newTestService(t)
	info := uploadOK(t, srv, dailyCSV(5))

	resp, err := http.Post(srv.URL+"/v1/tables/"+info.ID+"/insights", "application/json",
		strings.NewReader(`{"question":"Which region sells most?"}`))
	if err != nil {
		t.Fatal(err)
	}
	got := decode[InsightResponse](t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got.OK || !strings.Contains(got.Text, "Missing API key") {
		t.Errorf("insights = %+v", got)
	}
}

func TestInsights_BadJSON(t *testing.T) {
	_, srv := newTestService(t)
	info := uploadOK(t, srv, dailyCSV(5))

	resp, err := http.Post(srv.URL+"/v1/tables/"+info.ID+"/insights", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownTable(t *testing.T) {
	_, srv := newTestService(t)
	resp, _ := http.Get(srv.URL + "/v1/tables/nope/kpis")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

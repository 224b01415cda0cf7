package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/lunchpick/internal/adapters/http"
	"github.com/samirrijal/lunchpick/internal/adapters/provider"
	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/core/usecases"
	"github.com/samirrijal/lunchpick/internal/pkg/config"
)

// ---- Mocks ----

type mockSearcher struct {
	searchFn func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error)
	calls    int
}

func (m *mockSearcher) Name() string          { return "mock-search" }
func (m *mockSearcher) NeedsRegionHint() bool { return false }
func (m *mockSearcher) Search(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return nil, nil
}

type fixedSource struct{ i int }

func (f fixedSource) IntN(n int) int { return f.i }

// ---- Helpers ----

func places(titles ...string) []domain.PlaceCandidate {
	out := make([]domain.PlaceCandidate, 0, len(titles))
	for i, title := range titles {
		out = append(out, domain.PlaceCandidate{
			Title:    title,
			Category: "한식>국밥",
			Address:  "서울특별시 중구 세종대로 110",
			Position: domain.GeodeticPosition(domain.Coordinate{Lat: 37.5665 + float64(i)*0.001, Lng: 126.978}),
		})
	}
	return out
}

func setupDeps(s *mockSearcher) *handler.Dependencies {
	reg := provider.NewRegistry(s.Name(), config.ProviderNone)
	reg.RegisterSearcher(s)
	svc := usecases.NewRecommendationService(s, nil, nil, usecases.RecommendOptions{
		Keyword:     "맛집",
		CallTimeout: time.Second,
		Random:      fixedSource{0},
	})
	return &handler.Dependencies{Recommender: svc, Providers: reg}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func decodeJSON(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

type recommendBody struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	Strategy   string `json:"strategy"`
	Provider   string `json:"provider"`
	RegionHint string `json:"region_hint"`
	Items      []struct {
		Title          string   `json:"title"`
		PositionSystem string   `json:"position_system"`
		Distance       *float64 `json:"distance"`
		Position       struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"position"`
	} `json:"items"`
}

// ---- Tests ----

func TestRecommend_Success(t *testing.T) {
	s := &mockSearcher{searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
		if q.Keyword != "맛집" {
			t.Errorf("expected keyword 맛집, got %q", q.Keyword)
		}
		return places("을지로 국밥", "광화문 칼국수"), nil
	}}
	app := setupApp(setupDeps(s))

	req := httptest.NewRequest("GET", "/recommend?lat=37.5665&lng=126.978", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", cc)
	}

	var body recommendBody
	decodeJSON(t, resp.Body, &body)
	if body.State != "DONE" || body.Strategy != "RANDOM_ONE" || body.Provider != "mock-search" {
		t.Errorf("unexpected body %+v", body)
	}
	if len(body.Items) != 1 || body.Items[0].Title != "을지로 국밥" {
		t.Fatalf("expected one item, got %+v", body.Items)
	}
	if body.Items[0].PositionSystem != "GEODETIC" || body.Items[0].Distance == nil {
		t.Errorf("expected geodetic item with distance, got %+v", body.Items[0])
	}
	if body.ID == "" {
		t.Error("expected recommendation id")
	}
}

func TestRecommend_AllStrategy(t *testing.T) {
	s := &mockSearcher{searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
		return places("a", "b", "c"), nil
	}}
	app := setupApp(setupDeps(s))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/recommend?lat=37.5665&lng=126.978&strategy=all", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body recommendBody
	decodeJSON(t, resp.Body, &body)
	if body.Strategy != "ALL" || len(body.Items) != 3 {
		t.Errorf("expected all 3 items, got %s/%d", body.Strategy, len(body.Items))
	}
}

func TestRecommend_Empty(t *testing.T) {
	s := &mockSearcher{searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
		return []domain.PlaceCandidate{}, nil
	}}
	app := setupApp(setupDeps(s))

	resp, _ := app.Test(httptest.NewRequest("GET", "/recommend?lat=37.5665&lng=126.978", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `"items":[]`) || !strings.Contains(string(raw), `"state":"EMPTY"`) {
		t.Errorf("expected explicit empty result, got %s", raw)
	}
}

func TestRecommend_BadInput(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"missing lat", "/recommend?lng=126.978", "lat is required"},
		{"missing lng", "/recommend?lat=37.5", "lng is required"},
		{"not a number", "/recommend?lat=abc&lng=126.978", "lat must be a number"},
		{"lat out of range", "/recommend?lat=91&lng=126.978", "lat must be between -90 and 90"},
		{"lng out of range", "/recommend?lat=37.5&lng=-181", "lng must be between -180 and 180"},
		{"bad strategy", "/recommend?lat=37.5&lng=126.9&strategy=best", "strategy must be one of"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &mockSearcher{}
			app := setupApp(setupDeps(s))

			resp, _ := app.Test(httptest.NewRequest("GET", tc.query, nil), -1)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var apiErr handler.APIError
			decodeJSON(t, resp.Body, &apiErr)
			if apiErr.Code != "BAD_INPUT" || apiErr.Status != 400 {
				t.Errorf("unexpected envelope %+v", apiErr)
			}
			if !strings.Contains(apiErr.Error, tc.want) {
				t.Errorf("expected message containing %q, got %q", tc.want, apiErr.Error)
			}
			if apiErr.RequestID == "" {
				t.Error("expected request id in envelope")
			}
			if s.calls != 0 {
				t.Errorf("expected no search call, got %d", s.calls)
			}
		})
	}
}

func TestRecommend_SearchFailure(t *testing.T) {
	s := &mockSearcher{searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
		return nil, &domain.AdapterError{
			Provider: "mock-search",
			Op:       "search",
			Reason:   domain.ReasonAuth,
			Status:   401,
			Err:      io.ErrUnexpectedEOF,
		}
	}}
	app := setupApp(setupDeps(s))

	resp, _ := app.Test(httptest.NewRequest("GET", "/recommend?lat=37.5665&lng=126.978", nil), -1)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `"code":"SEARCH_FAILURE"`) {
		t.Errorf("expected SEARCH_FAILURE, got %s", raw)
	}
	if strings.Contains(string(raw), "unexpected EOF") {
		t.Errorf("upstream detail leaked: %s", raw)
	}
}

func TestRecommend_SearchTimeout(t *testing.T) {
	s := &mockSearcher{searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
		<-ctx.Done()
		return nil, &domain.AdapterError{Provider: "mock-search", Op: "search", Reason: domain.ReasonTimeout, Err: ctx.Err()}
	}}
	deps := setupDeps(s)
	deps.Recommender = usecases.NewRecommendationService(s, nil, nil, usecases.RecommendOptions{CallTimeout: 20 * time.Millisecond})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/recommend?lat=37.5665&lng=126.978", nil), -1)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestProviders(t *testing.T) {
	app := setupApp(setupDeps(&mockSearcher{}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/providers", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Providers []provider.Info `json:"providers"`
	}
	decodeJSON(t, resp.Body, &body)
	if len(body.Providers) != 1 || body.Providers[0].Name != "mock-search" || !body.Providers[0].Active {
		t.Errorf("unexpected providers %+v", body.Providers)
	}
}

func TestHealth(t *testing.T) {
	app := setupApp(setupDeps(&mockSearcher{}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected security headers, got %q", got)
	}
}

func TestReady(t *testing.T) {
	app := setupApp(setupDeps(&mockSearcher{}))
	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Errorf("expected 200 with optional deps unconfigured, got %d", resp.StatusCode)
	}

	deps := setupDeps(&mockSearcher{})
	deps.Providers = provider.NewRegistry("naver-place", config.ProviderNone)
	resp, _ = setupApp(deps).Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Errorf("expected 503 without active searcher, got %d", resp.StatusCode)
	}
}

func TestRateLimit(t *testing.T) {
	deps := setupDeps(&mockSearcher{})
	deps.RateLimit = 2
	app := setupApp(deps)

	var last int
	for i := 0; i < 3; i++ {
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/providers", nil), -1)
		last = resp.StatusCode
	}
	if last != 429 {
		t.Errorf("expected 429 after limit, got %d", last)
	}
}

func TestGraphQL_Recommend(t *testing.T) {
	s := &mockSearcher{searchFn: func(ctx context.Context, q domain.RecommendationQuery) ([]domain.PlaceCandidate, error) {
		return places("a", "b"), nil
	}}
	app := setupApp(setupDeps(s))

	body := `{"query":"{ recommend(lat: 37.5665, lng: 126.978, strategy: \"all\") { state strategy items { title position_system lat lng } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Recommend struct {
				State    string `json:"state"`
				Strategy string `json:"strategy"`
				Items    []struct {
					Title          string  `json:"title"`
					PositionSystem string  `json:"position_system"`
					Lat            float64 `json:"lat"`
				} `json:"items"`
			} `json:"recommend"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	decodeJSON(t, resp.Body, &result)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	rec := result.Data.Recommend
	if rec.State != "DONE" || rec.Strategy != "ALL" || len(rec.Items) != 2 {
		t.Errorf("unexpected recommendation %+v", rec)
	}
	if rec.Items[0].PositionSystem != "GEODETIC" || rec.Items[0].Lat == 0 {
		t.Errorf("unexpected item %+v", rec.Items[0])
	}
}

func TestGraphQL_BadInput(t *testing.T) {
	s := &mockSearcher{}
	app := setupApp(setupDeps(s))

	body := `{"query":"{ recommend(lat: 123, lng: 126.978) { state } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "BAD_INPUT") {
		t.Errorf("expected BAD_INPUT error, got %s", raw)
	}
	if s.calls != 0 {
		t.Errorf("expected no search call, got %d", s.calls)
	}
}

func TestGraphQL_Providers(t *testing.T) {
	app := setupApp(setupDeps(&mockSearcher{}))

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(`{"query":"{ providers { name kind active } }"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `"name":"mock-search"`) {
		t.Errorf("expected provider listing, got %s", raw)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(setupDeps(&mockSearcher{}))
	resp, _ := app.Test(httptest.NewRequest("GET", "/ws/recommend", nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}

func TestDocs(t *testing.T) {
	app := setupApp(setupDeps(&mockSearcher{}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "openapi: 3") {
		t.Errorf("expected OpenAPI document, got %.80s", raw)
	}
}
